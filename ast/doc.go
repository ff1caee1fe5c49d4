// Package ast models WebAssembly modules and instructions as plain Go
// values.
//
// Instructions follow the go/ast pattern: a small Instruction interface with
// one struct per operation, grouped into seven families (numeric, reference,
// parametric, variable, table, memory, control) that are themselves
// interfaces. Consumers dispatch with type switches:
//
//	switch in := instr.(type) {
//	case ast.I32Const:
//	        fmt.Println(in.Value)
//	case ast.ControlInstruction:
//	        // block, loop, if, branches, calls
//	}
//
// Structured control instructions contain their bodies as nested Expressions,
// so an expression is a tree; the binary codec in package binary is what
// flattens it to the wire's end-marker form and back.
//
// The package is purely structural. It performs no validation of index
// spaces, types, or stack discipline.
package ast
