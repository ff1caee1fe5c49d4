package ast

// Expression is a sequence of instructions. Function bodies, global
// initializers, and segment offsets are expressions, as are the bodies of
// structured control instructions.
type Expression []Instruction

// Expr builds an expression from its arguments. It reads better than a slice
// literal when constructing bodies inline:
//
//	ast.Expr(ast.LocalGet{Local: 0}, ast.LocalGet{Local: 1}, ast.Add{Type: ast.I32})
func Expr(instrs ...Instruction) Expression {
	return Expression(instrs)
}

// Literal is the set of Go literal types that promote to a constant
// instruction.
type Literal interface {
	int | int8 | int16 | int32 | int64 |
		uint | uint8 | uint16 | uint32 | uint64 |
		float32 | float64
}

// Const promotes a Go literal to the constant instruction of the matching
// value type: signed and unsigned integers up to 32 bits become I32Const,
// 64-bit and platform-sized integers become I64Const, and floats become
// F32Const or F64Const. Unsigned values convert by bit pattern, so
// Const(uint32(0xFFFFFFFF)) is I32Const{Value: -1}.
func Const[T Literal](v T) Instruction {
	switch x := any(v).(type) {
	case int8:
		return I32Const{Value: int32(x)}
	case int16:
		return I32Const{Value: int32(x)}
	case int32:
		return I32Const{Value: x}
	case uint8:
		return I32Const{Value: int32(x)}
	case uint16:
		return I32Const{Value: int32(x)}
	case uint32:
		return I32Const{Value: int32(x)}
	case int:
		return I64Const{Value: int64(x)}
	case int64:
		return I64Const{Value: x}
	case uint:
		return I64Const{Value: int64(x)}
	case uint64:
		return I64Const{Value: int64(x)}
	case float32:
		return F32Const{Value: x}
	default:
		return F64Const{Value: any(v).(float64)}
	}
}
