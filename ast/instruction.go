package ast

// Instruction is the interface implemented by every WebAssembly instruction.
// Each instruction additionally implements exactly one of the family
// interfaces below, mirroring the grouping used by the WebAssembly
// specification:
// numeric, reference, parametric, variable, table, memory, and control.
//
// Instructions are plain value types carrying only their static immediates.
// Structured control instructions hold their nested bodies directly, so an
// Expression forms a tree rather than a flat stream with explicit end markers.
type Instruction interface {
	instrNode()
}

// NumericInstruction operates on values of the four number types.
type NumericInstruction interface {
	Instruction
	numericNode()
}

// ReferenceInstruction produces or inspects reference values.
type ReferenceInstruction interface {
	Instruction
	referenceNode()
}

// ParametricInstruction shuffles operands regardless of their type.
type ParametricInstruction interface {
	Instruction
	parametricNode()
}

// VariableInstruction accesses local or global variables.
type VariableInstruction interface {
	Instruction
	variableNode()
}

// TableInstruction manipulates tables and element segments.
type TableInstruction interface {
	Instruction
	tableNode()
}

// MemoryInstruction accesses linear memory or data segments.
type MemoryInstruction interface {
	Instruction
	memoryNode()
}

// ControlInstruction affects control flow.
type ControlInstruction interface {
	Instruction
	controlNode()
}

// Control instructions.
type (
	// Unreachable traps unconditionally.
	Unreachable struct{}

	// Nop does nothing.
	Nop struct{}

	// Block is a structured block with a label at its end.
	Block struct {
		Type BlockType
		Body Expression
	}

	// Loop is a structured block with a label at its start.
	Loop struct {
		Type BlockType
		Body Expression
	}

	// If is a conditional with an optional alternate branch. A nil Else means
	// the alternate is absent; a non-nil empty Else is an explicit empty
	// alternate and round-trips through the binary format as such.
	If struct {
		Type BlockType
		Then Expression
		Else Expression
	}

	// Br branches unconditionally to an enclosing label.
	Br struct {
		Label LabelIndex
	}

	// BrIf branches to an enclosing label if the operand is non-zero.
	BrIf struct {
		Label LabelIndex
	}

	// BrTable branches to a label selected by the operand, falling back to
	// Default when the operand is out of range.
	BrTable struct {
		Labels  []LabelIndex
		Default LabelIndex
	}

	// Return returns from the current function.
	Return struct{}

	// Call invokes a function by index.
	Call struct {
		Func FunctionIndex
	}

	// CallIndirect invokes a function selected from a table at runtime,
	// checked against a declared type.
	CallIndirect struct {
		Type  TypeIndex
		Table TableIndex
	}
)

func (Unreachable) instrNode()  {}
func (Nop) instrNode()          {}
func (Block) instrNode()        {}
func (Loop) instrNode()         {}
func (If) instrNode()           {}
func (Br) instrNode()           {}
func (BrIf) instrNode()         {}
func (BrTable) instrNode()      {}
func (Return) instrNode()       {}
func (Call) instrNode()         {}
func (CallIndirect) instrNode() {}

func (Unreachable) controlNode()  {}
func (Nop) controlNode()          {}
func (Block) controlNode()        {}
func (Loop) controlNode()         {}
func (If) controlNode()           {}
func (Br) controlNode()           {}
func (BrIf) controlNode()         {}
func (BrTable) controlNode()      {}
func (Return) controlNode()       {}
func (Call) controlNode()         {}
func (CallIndirect) controlNode() {}

// Variable instructions.
type (
	// LocalGet pushes the value of a local variable.
	LocalGet struct {
		Local LocalIndex
	}

	// LocalSet pops a value into a local variable.
	LocalSet struct {
		Local LocalIndex
	}

	// LocalTee stores the top of the stack into a local variable without
	// popping it.
	LocalTee struct {
		Local LocalIndex
	}

	// GlobalGet pushes the value of a global variable.
	GlobalGet struct {
		Global GlobalIndex
	}

	// GlobalSet pops a value into a mutable global variable.
	GlobalSet struct {
		Global GlobalIndex
	}
)

func (LocalGet) instrNode()  {}
func (LocalSet) instrNode()  {}
func (LocalTee) instrNode()  {}
func (GlobalGet) instrNode() {}
func (GlobalSet) instrNode() {}

func (LocalGet) variableNode()  {}
func (LocalSet) variableNode()  {}
func (LocalTee) variableNode()  {}
func (GlobalGet) variableNode() {}
func (GlobalSet) variableNode() {}

// Parametric instructions.
type (
	// Drop discards the top of the stack.
	Drop struct{}

	// Select picks one of two operands based on a condition. Types carries
	// the explicit result type annotation of the typed form; nil selects the
	// untyped form restricted to number types.
	Select struct {
		Types []ValueType
	}
)

func (Drop) instrNode()   {}
func (Select) instrNode() {}

func (Drop) parametricNode()   {}
func (Select) parametricNode() {}

// Reference instructions.
type (
	// RefNull pushes a null reference of the given type.
	RefNull struct {
		Type ReferenceType
	}

	// RefIsNull tests whether a reference is null.
	RefIsNull struct{}

	// RefFunc pushes a reference to a function.
	RefFunc struct {
		Func FunctionIndex
	}
)

func (RefNull) instrNode()   {}
func (RefIsNull) instrNode() {}
func (RefFunc) instrNode()   {}

func (RefNull) referenceNode()   {}
func (RefIsNull) referenceNode() {}
func (RefFunc) referenceNode()   {}

// Table instructions.
type (
	// TableGet reads an element from a table.
	TableGet struct {
		Table TableIndex
	}

	// TableSet writes an element into a table.
	TableSet struct {
		Table TableIndex
	}

	// TableInit copies a range from a passive element segment into a table.
	TableInit struct {
		Elem  ElementIndex
		Table TableIndex
	}

	// ElemDrop discards a passive element segment.
	ElemDrop struct {
		Elem ElementIndex
	}

	// TableCopy copies a range between two tables.
	TableCopy struct {
		Dst TableIndex
		Src TableIndex
	}

	// TableGrow grows a table by a number of elements.
	TableGrow struct {
		Table TableIndex
	}

	// TableSize pushes the current size of a table.
	TableSize struct {
		Table TableIndex
	}

	// TableFill fills a range of a table with a value.
	TableFill struct {
		Table TableIndex
	}
)

func (TableGet) instrNode()  {}
func (TableSet) instrNode()  {}
func (TableInit) instrNode() {}
func (ElemDrop) instrNode()  {}
func (TableCopy) instrNode() {}
func (TableGrow) instrNode() {}
func (TableSize) instrNode() {}
func (TableFill) instrNode() {}

func (TableGet) tableNode()  {}
func (TableSet) tableNode()  {}
func (TableInit) tableNode() {}
func (ElemDrop) tableNode()  {}
func (TableCopy) tableNode() {}
func (TableGrow) tableNode() {}
func (TableSize) tableNode() {}
func (TableFill) tableNode() {}
