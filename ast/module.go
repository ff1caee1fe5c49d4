package ast

import "fmt"

// FunctionType describes the signature of a function.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// Equal reports whether two function types have identical signatures.
func (t FunctionType) Equal(other FunctionType) bool {
	if len(t.Params) != len(other.Params) || len(t.Results) != len(other.Results) {
		return false
	}
	for i, p := range t.Params {
		if p != other.Params[i] {
			return false
		}
	}
	for i, r := range t.Results {
		if r != other.Results[i] {
			return false
		}
	}
	return true
}

// Limits bounds the size of a table or memory. Max is nil when unbounded.
type Limits struct {
	Min uint32
	Max *uint32
}

// TableType describes a table: its element type and size bounds.
type TableType struct {
	Type   ReferenceType
	Limits Limits
}

// MemoryType describes a linear memory by its size bounds in pages.
type MemoryType struct {
	Limits Limits
}

// GlobalType describes a global variable's value type and mutability.
type GlobalType struct {
	Type    ValueType
	Mutable bool
}

// Global is a global variable definition with its initializer.
type Global struct {
	Type GlobalType
	Init Expression
}

// ExternKind identifies the namespace an import or export refers to.
// Constant values match the binary format encoding.
type ExternKind byte

const (
	ExternFunc ExternKind = iota
	ExternTable
	ExternMemory
	ExternGlobal
)

func (k ExternKind) String() string {
	switch k {
	case ExternFunc:
		return "func"
	case ExternTable:
		return "table"
	case ExternMemory:
		return "memory"
	case ExternGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Import pulls a definition from the host into the module. Exactly one of the
// Desc fields matching Kind is meaningful.
type Import struct {
	Module string
	Name   string
	Kind   ExternKind
	Func   TypeIndex
	Table  *TableType
	Memory *MemoryType
	Global *GlobalType
}

// Export exposes a definition under a name.
type Export struct {
	Name  string
	Kind  ExternKind
	Index uint32
}

// Function pairs a body with its extra local declarations. Parameters are not
// part of Locals; they come from the function's type.
type Function struct {
	Locals []ValueType
	Body   Expression
}

// ElementMode distinguishes how an element segment is used.
type ElementMode byte

const (
	// ElementActive segments copy into a table at instantiation.
	ElementActive ElementMode = iota
	// ElementPassive segments wait for table.init.
	ElementPassive
	// ElementDeclarative segments only forward-declare function references.
	ElementDeclarative
)

// Element is an element segment. Active segments target Table at Offset.
// Initializers are either plain function indices in Funcs or general constant
// expressions in Inits; at most one of the two is non-nil.
type Element struct {
	Mode   ElementMode
	Type   ReferenceType
	Table  TableIndex
	Offset Expression
	Funcs  []FunctionIndex
	Inits  []Expression
}

// DataMode distinguishes how a data segment is used.
type DataMode byte

const (
	// DataActive segments copy into memory at instantiation.
	DataActive DataMode = iota
	// DataPassive segments wait for memory.init.
	DataPassive
)

// DataSegment is a data segment. Active segments target Memory at Offset.
type DataSegment struct {
	Mode   DataMode
	Memory MemoryIndex
	Offset Expression
	Init   []byte
}

// CustomSection carries an uninterpreted named payload.
type CustomSection struct {
	Name string
	Data []byte
}

// Module is the top-level container for a WebAssembly module. Functions and
// Code are parallel: Functions[i] is the type index of the body Code[i].
// Imported definitions precede module-local ones in every index space.
type Module struct {
	Types     []FunctionType
	Imports   []Import
	Functions []TypeIndex
	Tables    []TableType
	Memories  []MemoryType
	Globals   []Global
	Exports   []Export
	Start     *FunctionIndex
	Elements  []Element
	DataCount *uint32
	Code      []Function
	Data      []DataSegment
	Customs   []CustomSection
}

// AddType interns a function type, returning the index of an existing equal
// type when one is already present.
func (m *Module) AddType(t FunctionType) TypeIndex {
	for i, existing := range m.Types {
		if existing.Equal(t) {
			return TypeIndex(i)
		}
	}
	m.Types = append(m.Types, t)
	return TypeIndex(len(m.Types) - 1)
}

// NumImportedFuncs counts the function imports, which occupy the low end of
// the function index space.
func (m *Module) NumImportedFuncs() uint32 {
	var n uint32
	for _, imp := range m.Imports {
		if imp.Kind == ExternFunc {
			n++
		}
	}
	return n
}

// FuncType resolves the type of a function index, crossing from imports into
// module-local functions.
func (m *Module) FuncType(idx FunctionIndex) (FunctionType, error) {
	var ti TypeIndex
	imported := m.NumImportedFuncs()
	if idx < imported {
		var seen uint32
		for _, imp := range m.Imports {
			if imp.Kind != ExternFunc {
				continue
			}
			if seen == idx {
				ti = imp.Func
				break
			}
			seen++
		}
	} else {
		local := idx - imported
		if int(local) >= len(m.Functions) {
			return FunctionType{}, fmt.Errorf("function index %d out of range", idx)
		}
		ti = m.Functions[local]
	}
	if int(ti) >= len(m.Types) {
		return FunctionType{}, fmt.Errorf("type index %d out of range", ti)
	}
	return m.Types[ti], nil
}

// ExportedFunc looks up an exported function by name.
func (m *Module) ExportedFunc(name string) (FunctionIndex, bool) {
	for _, exp := range m.Exports {
		if exp.Kind == ExternFunc && exp.Name == name {
			return exp.Index, true
		}
	}
	return 0, false
}
