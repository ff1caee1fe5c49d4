package ast

// Numeric instructions. Operations that exist for several operand types carry
// the type as a field rather than multiplying out one struct per mnemonic, so
// i32.add and f64.add are both Add with a different Type.

// Constants.
type (
	// I32Const pushes a 32-bit integer constant.
	I32Const struct {
		Value int32
	}

	// I64Const pushes a 64-bit integer constant.
	I64Const struct {
		Value int64
	}

	// F32Const pushes a 32-bit float constant.
	F32Const struct {
		Value float32
	}

	// F64Const pushes a 64-bit float constant.
	F64Const struct {
		Value float64
	}
)

// Integer operations.
type (
	// Clz counts leading zero bits.
	Clz struct {
		Type IntegerType
	}

	// Ctz counts trailing zero bits.
	Ctz struct {
		Type IntegerType
	}

	// Popcnt counts set bits.
	Popcnt struct {
		Type IntegerType
	}

	// DivInt divides integers, trapping on division by zero or overflow.
	DivInt struct {
		Type IntegerType
		Sign SignExtension
	}

	// Rem computes the integer remainder.
	Rem struct {
		Type IntegerType
		Sign SignExtension
	}

	// And is bitwise conjunction.
	And struct {
		Type IntegerType
	}

	// Or is bitwise disjunction.
	Or struct {
		Type IntegerType
	}

	// Xor is bitwise exclusive disjunction.
	Xor struct {
		Type IntegerType
	}

	// Shl shifts left, filling with zeros.
	Shl struct {
		Type IntegerType
	}

	// Shr shifts right, sign- or zero-filling according to Sign.
	Shr struct {
		Type IntegerType
		Sign SignExtension
	}

	// Rotl rotates bits left.
	Rotl struct {
		Type IntegerType
	}

	// Rotr rotates bits right.
	Rotr struct {
		Type IntegerType
	}
)

// Operations shared by integer and float types.
type (
	// Add is numeric addition.
	Add struct {
		Type NumberType
	}

	// Sub is numeric subtraction.
	Sub struct {
		Type NumberType
	}

	// Mul is numeric multiplication.
	Mul struct {
		Type NumberType
	}
)

// Float operations.
type (
	// Abs computes the absolute value.
	Abs struct {
		Type FloatType
	}

	// Neg negates.
	Neg struct {
		Type FloatType
	}

	// Ceil rounds up to the nearest integral value.
	Ceil struct {
		Type FloatType
	}

	// Floor rounds down to the nearest integral value.
	Floor struct {
		Type FloatType
	}

	// Trunc rounds toward zero to the nearest integral value.
	Trunc struct {
		Type FloatType
	}

	// Nearest rounds to the nearest integral value, ties to even.
	Nearest struct {
		Type FloatType
	}

	// Sqrt computes the square root.
	Sqrt struct {
		Type FloatType
	}

	// DivFloat divides floats.
	DivFloat struct {
		Type FloatType
	}

	// Min picks the smaller operand, propagating NaN.
	Min struct {
		Type FloatType
	}

	// Max picks the larger operand, propagating NaN.
	Max struct {
		Type FloatType
	}

	// Copysign combines the magnitude of the first operand with the sign of
	// the second.
	Copysign struct {
		Type FloatType
	}
)

// Comparisons.
type (
	// Eqz tests an integer for zero.
	Eqz struct {
		Type IntegerType
	}

	// Eq tests two values for equality.
	Eq struct {
		Type NumberType
	}

	// Ne tests two values for inequality.
	Ne struct {
		Type NumberType
	}

	// LtInt is integer less-than.
	LtInt struct {
		Type IntegerType
		Sign SignExtension
	}

	// GtInt is integer greater-than.
	GtInt struct {
		Type IntegerType
		Sign SignExtension
	}

	// LeInt is integer less-than-or-equal.
	LeInt struct {
		Type IntegerType
		Sign SignExtension
	}

	// GeInt is integer greater-than-or-equal.
	GeInt struct {
		Type IntegerType
		Sign SignExtension
	}

	// LtFloat is float less-than.
	LtFloat struct {
		Type FloatType
	}

	// GtFloat is float greater-than.
	GtFloat struct {
		Type FloatType
	}

	// LeFloat is float less-than-or-equal.
	LeFloat struct {
		Type FloatType
	}

	// GeFloat is float greater-than-or-equal.
	GeFloat struct {
		Type FloatType
	}
)

// Conversions.
type (
	// Wrap truncates an i64 to an i32.
	Wrap struct{}

	// Extend widens an i32 to an i64.
	Extend struct {
		Sign SignExtension
	}

	// Extend8S sign-extends the low 8 bits of an integer in place.
	Extend8S struct {
		Type IntegerType
	}

	// Extend16S sign-extends the low 16 bits of an integer in place.
	Extend16S struct {
		Type IntegerType
	}

	// Extend32S sign-extends the low 32 bits of an i64 in place.
	Extend32S struct{}

	// TruncFloat converts a float to an integer, trapping when the value does
	// not fit.
	TruncFloat struct {
		Int   IntegerType
		Float FloatType
		Sign  SignExtension
	}

	// TruncSat converts a float to an integer, saturating at the integer
	// range and mapping NaN to zero.
	TruncSat struct {
		Int   IntegerType
		Float FloatType
		Sign  SignExtension
	}

	// Convert converts an integer to a float.
	Convert struct {
		Float FloatType
		Int   IntegerType
		Sign  SignExtension
	}

	// Demote converts an f64 to an f32.
	Demote struct{}

	// Promote converts an f32 to an f64.
	Promote struct{}

	// ReinterpretInt reinterprets the bits of a float of the same width as
	// the given integer type.
	ReinterpretInt struct {
		Type IntegerType
	}

	// ReinterpretFloat reinterprets the bits of an integer of the same width
	// as the given float type.
	ReinterpretFloat struct {
		Type FloatType
	}
)

func (I32Const) instrNode()         {}
func (I64Const) instrNode()         {}
func (F32Const) instrNode()         {}
func (F64Const) instrNode()         {}
func (Clz) instrNode()              {}
func (Ctz) instrNode()              {}
func (Popcnt) instrNode()           {}
func (DivInt) instrNode()           {}
func (Rem) instrNode()              {}
func (And) instrNode()              {}
func (Or) instrNode()               {}
func (Xor) instrNode()              {}
func (Shl) instrNode()              {}
func (Shr) instrNode()              {}
func (Rotl) instrNode()             {}
func (Rotr) instrNode()             {}
func (Add) instrNode()              {}
func (Sub) instrNode()              {}
func (Mul) instrNode()              {}
func (Abs) instrNode()              {}
func (Neg) instrNode()              {}
func (Ceil) instrNode()             {}
func (Floor) instrNode()            {}
func (Trunc) instrNode()            {}
func (Nearest) instrNode()          {}
func (Sqrt) instrNode()             {}
func (DivFloat) instrNode()         {}
func (Min) instrNode()              {}
func (Max) instrNode()              {}
func (Copysign) instrNode()         {}
func (Eqz) instrNode()              {}
func (Eq) instrNode()               {}
func (Ne) instrNode()               {}
func (LtInt) instrNode()            {}
func (GtInt) instrNode()            {}
func (LeInt) instrNode()            {}
func (GeInt) instrNode()            {}
func (LtFloat) instrNode()          {}
func (GtFloat) instrNode()          {}
func (LeFloat) instrNode()          {}
func (GeFloat) instrNode()          {}
func (Wrap) instrNode()             {}
func (Extend) instrNode()           {}
func (Extend8S) instrNode()         {}
func (Extend16S) instrNode()        {}
func (Extend32S) instrNode()        {}
func (TruncFloat) instrNode()       {}
func (TruncSat) instrNode()         {}
func (Convert) instrNode()          {}
func (Demote) instrNode()           {}
func (Promote) instrNode()          {}
func (ReinterpretInt) instrNode()   {}
func (ReinterpretFloat) instrNode() {}

func (I32Const) numericNode()         {}
func (I64Const) numericNode()         {}
func (F32Const) numericNode()         {}
func (F64Const) numericNode()         {}
func (Clz) numericNode()              {}
func (Ctz) numericNode()              {}
func (Popcnt) numericNode()           {}
func (DivInt) numericNode()           {}
func (Rem) numericNode()              {}
func (And) numericNode()              {}
func (Or) numericNode()               {}
func (Xor) numericNode()              {}
func (Shl) numericNode()              {}
func (Shr) numericNode()              {}
func (Rotl) numericNode()             {}
func (Rotr) numericNode()             {}
func (Add) numericNode()              {}
func (Sub) numericNode()              {}
func (Mul) numericNode()              {}
func (Abs) numericNode()              {}
func (Neg) numericNode()              {}
func (Ceil) numericNode()             {}
func (Floor) numericNode()            {}
func (Trunc) numericNode()            {}
func (Nearest) numericNode()          {}
func (Sqrt) numericNode()             {}
func (DivFloat) numericNode()         {}
func (Min) numericNode()              {}
func (Max) numericNode()              {}
func (Copysign) numericNode()         {}
func (Eqz) numericNode()              {}
func (Eq) numericNode()               {}
func (Ne) numericNode()               {}
func (LtInt) numericNode()            {}
func (GtInt) numericNode()            {}
func (LeInt) numericNode()            {}
func (GeInt) numericNode()            {}
func (LtFloat) numericNode()          {}
func (GtFloat) numericNode()          {}
func (LeFloat) numericNode()          {}
func (GeFloat) numericNode()          {}
func (Wrap) numericNode()             {}
func (Extend) numericNode()           {}
func (Extend8S) numericNode()         {}
func (Extend16S) numericNode()        {}
func (Extend32S) numericNode()        {}
func (TruncFloat) numericNode()       {}
func (TruncSat) numericNode()         {}
func (Convert) numericNode()          {}
func (Demote) numericNode()           {}
func (Promote) numericNode()          {}
func (ReinterpretInt) numericNode()   {}
func (ReinterpretFloat) numericNode() {}
