package ast

import "math/bits"

// ValueType is a WebAssembly value type: a number type or a reference type.
// Constant values match the binary format encoding.
type ValueType byte

const (
	ValI32       ValueType = 0x7F // 32-bit integer
	ValI64       ValueType = 0x7E // 64-bit integer
	ValF32       ValueType = 0x7D // 32-bit float
	ValF64       ValueType = 0x7C // 64-bit float
	ValFuncRef   ValueType = 0x70 // function reference
	ValExternRef ValueType = 0x6F // external reference
)

func (v ValueType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValFuncRef:
		return "funcref"
	case ValExternRef:
		return "externref"
	default:
		return "unknown"
	}
}

// NumberType is one of the four numeric value types.
type NumberType byte

const (
	I32 NumberType = NumberType(ValI32)
	I64 NumberType = NumberType(ValI64)
	F32 NumberType = NumberType(ValF32)
	F64 NumberType = NumberType(ValF64)
)

func (t NumberType) String() string { return ValueType(t).String() }

// Value returns the number type as a general value type.
func (t NumberType) Value() ValueType { return ValueType(t) }

// Width returns the storage width of the number type in bytes.
func (t NumberType) Width() uint32 {
	switch t {
	case I64, F64:
		return 8
	default:
		return 4
	}
}

// IntegerType is one of the two integer value types.
type IntegerType byte

const (
	Int32 IntegerType = IntegerType(ValI32)
	Int64 IntegerType = IntegerType(ValI64)
)

func (t IntegerType) String() string { return ValueType(t).String() }

// Number returns the integer type as a number type.
func (t IntegerType) Number() NumberType { return NumberType(t) }

// FloatType is one of the two floating-point value types.
type FloatType byte

const (
	Float32 FloatType = FloatType(ValF32)
	Float64 FloatType = FloatType(ValF64)
)

func (t FloatType) String() string { return ValueType(t).String() }

// Number returns the float type as a number type.
func (t FloatType) Number() NumberType { return NumberType(t) }

// ReferenceType is one of the two reference value types.
type ReferenceType byte

const (
	FuncRef   ReferenceType = ReferenceType(ValFuncRef)
	ExternRef ReferenceType = ReferenceType(ValExternRef)
)

func (t ReferenceType) String() string { return ValueType(t).String() }

// Value returns the reference type as a general value type.
func (t ReferenceType) Value() ValueType { return ValueType(t) }

// SignExtension distinguishes the signed and unsigned flavors of integer
// operations that interpret their operands either way.
type SignExtension byte

const (
	Signed SignExtension = iota
	Unsigned
)

func (s SignExtension) String() string {
	if s == Unsigned {
		return "u"
	}
	return "s"
}

// Index aliases for the module's implicit index spaces. The model performs no
// bounds validation against those spaces; that is a validation layer's concern.
type (
	TypeIndex     = uint32
	FunctionIndex = uint32
	TableIndex    = uint32
	MemoryIndex   = uint32
	GlobalIndex   = uint32
	ElementIndex  = uint32
	DataIndex     = uint32
	LocalIndex    = uint32
	LabelIndex    = uint32
)

// BlockKind discriminates the three forms of a block type.
type BlockKind byte

const (
	BlockEmpty BlockKind = iota // no result type
	BlockValue                  // single inline result type
	BlockIndex                  // reference to a declared function type
)

// BlockType annotates a structured instruction with its arity: either empty,
// a single inline result type, or an index into the type section.
// The zero value is the empty block type.
type BlockType struct {
	Kind  BlockKind
	Value ValueType // set when Kind == BlockValue
	Index TypeIndex // set when Kind == BlockIndex
}

// BlockTypeOf returns a block type with a single inline result.
func BlockTypeOf(v ValueType) BlockType {
	return BlockType{Kind: BlockValue, Value: v}
}

// BlockTypeIndex returns a block type referring to a declared function type.
func BlockTypeIndex(i TypeIndex) BlockType {
	return BlockType{Kind: BlockIndex, Index: i}
}

// MemArg holds the static address offset and alignment hint of a memory
// access. Align is the exponent of a power of two. The constructors on the
// memory instructions derive the default alignment from the operand's natural
// access width.
type MemArg struct {
	Offset uint64
	Align  uint32
}

// alignFor returns the natural alignment exponent for an access width in bytes.
func alignFor(width uint32) uint32 {
	return uint32(bits.TrailingZeros32(width))
}
