package binary

import (
	"io"

	"github.com/al3xfischer/wasm-ast/ast"
	"github.com/al3xfischer/wasm-ast/errors"
)

// EncodeInstruction writes one instruction to w, structured bodies included,
// and returns the number of bytes written.
func EncodeInstruction(w io.Writer, in ast.Instruction) (int, error) {
	bw := NewWriter(w)
	if err := encodeInstr(bw, in); err != nil {
		return bw.Len(), err
	}
	return bw.Len(), bw.Err()
}

// EncodeExpression writes an instruction sequence to w in bare form, with no
// trailing end marker, and returns the number of bytes written. This is the
// inverse of DecodeExpression; expressions embedded in a module carry the end
// marker as part of the enclosing construct.
func EncodeExpression(w io.Writer, e ast.Expression) (int, error) {
	bw := NewWriter(w)
	if err := encodeExpr(bw, e); err != nil {
		return bw.Len(), err
	}
	return bw.Len(), bw.Err()
}

// DecodeInstruction reads one instruction from r, recursing into structured
// bodies until they are terminated.
func DecodeInstruction(r io.Reader, opts ...Option) (ast.Instruction, error) {
	br := NewReader(r, opts...)
	d := &exprDecoder{r: br}
	op, err := br.ReadByte()
	if err != nil {
		if err == io.EOF {
			return nil, errors.UnexpectedEOF(br.Position(), "opcode")
		}
		return nil, err
	}
	return d.instr(op)
}

// DecodeExpression reads instructions from r until a clean end of input and
// returns them as one expression. A structured instruction truncated before
// its end marker is an error; so is a stray end or else at the top level.
func DecodeExpression(r io.Reader, opts ...Option) (ast.Expression, error) {
	br := NewReader(r, opts...)
	d := &exprDecoder{r: br}
	var e ast.Expression
	for {
		op, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				return e, nil
			}
			return nil, err
		}
		in, err := d.instr(op)
		if err != nil {
			return nil, err
		}
		e = append(e, in)
	}
}

func encodeExpr(w *Writer, e ast.Expression) error {
	for _, in := range e {
		if err := encodeInstr(w, in); err != nil {
			return err
		}
	}
	return nil
}

func encodeBlockType(w *Writer, bt ast.BlockType) error {
	switch bt.Kind {
	case ast.BlockEmpty:
		w.Sleb(BlockTypeEmpty)
	case ast.BlockValue:
		if !validValueType(byte(bt.Value)) {
			return errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
				Offset(w.Len()).Detail("invalid block result type %#x", byte(bt.Value)).Build()
		}
		// Valid value type bytes are in 0x40..0x7F, where the single-byte
		// signed LEB128 encoding is the byte itself.
		w.Byte(byte(bt.Value))
	case ast.BlockIndex:
		w.Sleb(int64(bt.Index))
	default:
		return errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
			Offset(w.Len()).Detail("invalid block type kind %d", bt.Kind).Build()
	}
	return nil
}

func encodeMemArg(w *Writer, arg ast.MemArg) {
	w.U32(arg.Align)
	w.Uleb(arg.Offset)
}

func encodeInstr(w *Writer, in ast.Instruction) error {
	switch v := in.(type) {
	// Control.
	case ast.Unreachable:
		w.Byte(OpUnreachable)
	case ast.Nop:
		w.Byte(OpNop)
	case ast.Block:
		w.Byte(OpBlock)
		if err := encodeBlockType(w, v.Type); err != nil {
			return err
		}
		if err := encodeExpr(w, v.Body); err != nil {
			return err
		}
		w.Byte(OpEnd)
	case ast.Loop:
		w.Byte(OpLoop)
		if err := encodeBlockType(w, v.Type); err != nil {
			return err
		}
		if err := encodeExpr(w, v.Body); err != nil {
			return err
		}
		w.Byte(OpEnd)
	case ast.If:
		w.Byte(OpIf)
		if err := encodeBlockType(w, v.Type); err != nil {
			return err
		}
		if err := encodeExpr(w, v.Then); err != nil {
			return err
		}
		if v.Else != nil {
			w.Byte(OpElse)
			if err := encodeExpr(w, v.Else); err != nil {
				return err
			}
		}
		w.Byte(OpEnd)
	case ast.Br:
		w.Byte(OpBr)
		w.U32(v.Label)
	case ast.BrIf:
		w.Byte(OpBrIf)
		w.U32(v.Label)
	case ast.BrTable:
		w.Byte(OpBrTable)
		w.U32(uint32(len(v.Labels)))
		for _, l := range v.Labels {
			w.U32(l)
		}
		w.U32(v.Default)
	case ast.Return:
		w.Byte(OpReturn)
	case ast.Call:
		w.Byte(OpCall)
		w.U32(v.Func)
	case ast.CallIndirect:
		w.Byte(OpCallIndirect)
		w.U32(v.Type)
		w.U32(v.Table)

	// Reference.
	case ast.RefNull:
		if !validRefType(byte(v.Type)) {
			return errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
				Offset(w.Len()).Detail("invalid reference type %#x", byte(v.Type)).Build()
		}
		w.Byte(OpRefNull)
		w.Byte(byte(v.Type))
	case ast.RefIsNull:
		w.Byte(OpRefIsNull)
	case ast.RefFunc:
		w.Byte(OpRefFunc)
		w.U32(v.Func)

	// Parametric.
	case ast.Drop:
		w.Byte(OpDrop)
	case ast.Select:
		if v.Types == nil {
			w.Byte(OpSelect)
			break
		}
		w.Byte(OpSelectType)
		w.U32(uint32(len(v.Types)))
		for _, t := range v.Types {
			if !validValueType(byte(t)) {
				return errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
					Offset(w.Len()).Detail("invalid value type %#x", byte(t)).Build()
			}
			w.Byte(byte(t))
		}

	// Variable.
	case ast.LocalGet:
		w.Byte(OpLocalGet)
		w.U32(v.Local)
	case ast.LocalSet:
		w.Byte(OpLocalSet)
		w.U32(v.Local)
	case ast.LocalTee:
		w.Byte(OpLocalTee)
		w.U32(v.Local)
	case ast.GlobalGet:
		w.Byte(OpGlobalGet)
		w.U32(v.Global)
	case ast.GlobalSet:
		w.Byte(OpGlobalSet)
		w.U32(v.Global)

	// Table.
	case ast.TableGet:
		w.Byte(OpTableGet)
		w.U32(v.Table)
	case ast.TableSet:
		w.Byte(OpTableSet)
		w.U32(v.Table)
	case ast.TableInit:
		writeMisc(w, MiscTableInit)
		w.U32(v.Elem)
		w.U32(v.Table)
	case ast.ElemDrop:
		writeMisc(w, MiscElemDrop)
		w.U32(v.Elem)
	case ast.TableCopy:
		writeMisc(w, MiscTableCopy)
		w.U32(v.Dst)
		w.U32(v.Src)
	case ast.TableGrow:
		writeMisc(w, MiscTableGrow)
		w.U32(v.Table)
	case ast.TableSize:
		writeMisc(w, MiscTableSize)
		w.U32(v.Table)
	case ast.TableFill:
		writeMisc(w, MiscTableFill)
		w.U32(v.Table)

	// Memory.
	case ast.Load:
		op, err := numOp(v.Type, OpI32Load, OpI64Load, OpF32Load, OpF64Load)
		if err != nil {
			return err
		}
		w.Byte(op)
		encodeMemArg(w, v.Arg)
	case ast.Load8:
		op, err := intSignOp(v.Type, v.Sign, OpI32Load8S, OpI32Load8U, OpI64Load8S, OpI64Load8U)
		if err != nil {
			return err
		}
		w.Byte(op)
		encodeMemArg(w, v.Arg)
	case ast.Load16:
		op, err := intSignOp(v.Type, v.Sign, OpI32Load16S, OpI32Load16U, OpI64Load16S, OpI64Load16U)
		if err != nil {
			return err
		}
		w.Byte(op)
		encodeMemArg(w, v.Arg)
	case ast.Load32:
		op, err := signOp(v.Sign, OpI64Load32S, OpI64Load32U)
		if err != nil {
			return err
		}
		w.Byte(op)
		encodeMemArg(w, v.Arg)
	case ast.Store:
		op, err := numOp(v.Type, OpI32Store, OpI64Store, OpF32Store, OpF64Store)
		if err != nil {
			return err
		}
		w.Byte(op)
		encodeMemArg(w, v.Arg)
	case ast.Store8:
		op, err := intOp(v.Type, OpI32Store8, OpI64Store8)
		if err != nil {
			return err
		}
		w.Byte(op)
		encodeMemArg(w, v.Arg)
	case ast.Store16:
		op, err := intOp(v.Type, OpI32Store16, OpI64Store16)
		if err != nil {
			return err
		}
		w.Byte(op)
		encodeMemArg(w, v.Arg)
	case ast.Store32:
		w.Byte(OpI64Store32)
		encodeMemArg(w, v.Arg)
	case ast.MemorySize:
		w.Byte(OpMemorySize)
		w.Byte(0x00)
	case ast.MemoryGrow:
		w.Byte(OpMemoryGrow)
		w.Byte(0x00)
	case ast.MemoryInit:
		writeMisc(w, MiscMemoryInit)
		w.U32(v.Data)
		w.Byte(0x00)
	case ast.DataDrop:
		writeMisc(w, MiscDataDrop)
		w.U32(v.Data)
	case ast.MemoryCopy:
		writeMisc(w, MiscMemoryCopy)
		w.Byte(0x00)
		w.Byte(0x00)
	case ast.MemoryFill:
		writeMisc(w, MiscMemoryFill)
		w.Byte(0x00)

	// Numeric constants.
	case ast.I32Const:
		w.Byte(OpI32Const)
		w.S32(v.Value)
	case ast.I64Const:
		w.Byte(OpI64Const)
		w.S64(v.Value)
	case ast.F32Const:
		w.Byte(OpF32Const)
		w.F32(v.Value)
	case ast.F64Const:
		w.Byte(OpF64Const)
		w.F64(v.Value)

	default:
		return encodeNumeric(w, in)
	}
	return nil
}

// encodeNumeric handles the immediate-free numeric operations, where the
// opcode is a function of the operation and its type fields.
func encodeNumeric(w *Writer, in ast.Instruction) error {
	var op byte
	var err error
	switch v := in.(type) {
	case ast.Clz:
		op, err = intOp(v.Type, OpI32Clz, OpI64Clz)
	case ast.Ctz:
		op, err = intOp(v.Type, OpI32Ctz, OpI64Ctz)
	case ast.Popcnt:
		op, err = intOp(v.Type, OpI32Popcnt, OpI64Popcnt)
	case ast.Add:
		op, err = numOp(v.Type, OpI32Add, OpI64Add, OpF32Add, OpF64Add)
	case ast.Sub:
		op, err = numOp(v.Type, OpI32Sub, OpI64Sub, OpF32Sub, OpF64Sub)
	case ast.Mul:
		op, err = numOp(v.Type, OpI32Mul, OpI64Mul, OpF32Mul, OpF64Mul)
	case ast.DivInt:
		op, err = intSignOp(v.Type, v.Sign, OpI32DivS, OpI32DivU, OpI64DivS, OpI64DivU)
	case ast.DivFloat:
		op, err = floatOp(v.Type, OpF32Div, OpF64Div)
	case ast.Rem:
		op, err = intSignOp(v.Type, v.Sign, OpI32RemS, OpI32RemU, OpI64RemS, OpI64RemU)
	case ast.And:
		op, err = intOp(v.Type, OpI32And, OpI64And)
	case ast.Or:
		op, err = intOp(v.Type, OpI32Or, OpI64Or)
	case ast.Xor:
		op, err = intOp(v.Type, OpI32Xor, OpI64Xor)
	case ast.Shl:
		op, err = intOp(v.Type, OpI32Shl, OpI64Shl)
	case ast.Shr:
		op, err = intSignOp(v.Type, v.Sign, OpI32ShrS, OpI32ShrU, OpI64ShrS, OpI64ShrU)
	case ast.Rotl:
		op, err = intOp(v.Type, OpI32Rotl, OpI64Rotl)
	case ast.Rotr:
		op, err = intOp(v.Type, OpI32Rotr, OpI64Rotr)
	case ast.Abs:
		op, err = floatOp(v.Type, OpF32Abs, OpF64Abs)
	case ast.Neg:
		op, err = floatOp(v.Type, OpF32Neg, OpF64Neg)
	case ast.Ceil:
		op, err = floatOp(v.Type, OpF32Ceil, OpF64Ceil)
	case ast.Floor:
		op, err = floatOp(v.Type, OpF32Floor, OpF64Floor)
	case ast.Trunc:
		op, err = floatOp(v.Type, OpF32Trunc, OpF64Trunc)
	case ast.Nearest:
		op, err = floatOp(v.Type, OpF32Nearest, OpF64Nearest)
	case ast.Sqrt:
		op, err = floatOp(v.Type, OpF32Sqrt, OpF64Sqrt)
	case ast.Min:
		op, err = floatOp(v.Type, OpF32Min, OpF64Min)
	case ast.Max:
		op, err = floatOp(v.Type, OpF32Max, OpF64Max)
	case ast.Copysign:
		op, err = floatOp(v.Type, OpF32Copysign, OpF64Copysign)
	case ast.Eqz:
		op, err = intOp(v.Type, OpI32Eqz, OpI64Eqz)
	case ast.Eq:
		op, err = numOp(v.Type, OpI32Eq, OpI64Eq, OpF32Eq, OpF64Eq)
	case ast.Ne:
		op, err = numOp(v.Type, OpI32Ne, OpI64Ne, OpF32Ne, OpF64Ne)
	case ast.LtInt:
		op, err = intSignOp(v.Type, v.Sign, OpI32LtS, OpI32LtU, OpI64LtS, OpI64LtU)
	case ast.GtInt:
		op, err = intSignOp(v.Type, v.Sign, OpI32GtS, OpI32GtU, OpI64GtS, OpI64GtU)
	case ast.LeInt:
		op, err = intSignOp(v.Type, v.Sign, OpI32LeS, OpI32LeU, OpI64LeS, OpI64LeU)
	case ast.GeInt:
		op, err = intSignOp(v.Type, v.Sign, OpI32GeS, OpI32GeU, OpI64GeS, OpI64GeU)
	case ast.LtFloat:
		op, err = floatOp(v.Type, OpF32Lt, OpF64Lt)
	case ast.GtFloat:
		op, err = floatOp(v.Type, OpF32Gt, OpF64Gt)
	case ast.LeFloat:
		op, err = floatOp(v.Type, OpF32Le, OpF64Le)
	case ast.GeFloat:
		op, err = floatOp(v.Type, OpF32Ge, OpF64Ge)
	case ast.Wrap:
		op = OpI32WrapI64
	case ast.Extend:
		op, err = signOp(v.Sign, OpI64ExtendI32S, OpI64ExtendI32U)
	case ast.Extend8S:
		op, err = intOp(v.Type, OpI32Extend8S, OpI64Extend8S)
	case ast.Extend16S:
		op, err = intOp(v.Type, OpI32Extend16S, OpI64Extend16S)
	case ast.Extend32S:
		op = OpI64Extend32S
	case ast.TruncFloat:
		return encodeTrunc(w, v)
	case ast.TruncSat:
		return encodeTruncSat(w, v)
	case ast.Convert:
		return encodeConvert(w, v)
	case ast.Demote:
		op = OpF32DemoteF64
	case ast.Promote:
		op = OpF64PromoteF32
	case ast.ReinterpretInt:
		op, err = intOp(v.Type, OpI32ReinterpretF, OpI64ReinterpretF)
	case ast.ReinterpretFloat:
		op, err = floatOp(v.Type, OpF32ReinterpretI, OpF64ReinterpretI)
	default:
		return errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
			Offset(w.Len()).Detail("unsupported instruction %T", in).Build()
	}
	if err != nil {
		return err
	}
	w.Byte(op)
	return nil
}

func encodeTrunc(w *Writer, v ast.TruncFloat) error {
	var base byte
	switch {
	case v.Int == ast.Int32 && v.Float == ast.Float32:
		base = OpI32TruncF32S
	case v.Int == ast.Int32 && v.Float == ast.Float64:
		base = OpI32TruncF64S
	case v.Int == ast.Int64 && v.Float == ast.Float32:
		base = OpI64TruncF32S
	case v.Int == ast.Int64 && v.Float == ast.Float64:
		base = OpI64TruncF64S
	default:
		return badEnum(w, "truncation types")
	}
	op, err := signOp(v.Sign, base, base+1)
	if err != nil {
		return err
	}
	w.Byte(op)
	return nil
}

func encodeTruncSat(w *Writer, v ast.TruncSat) error {
	var base uint32
	switch {
	case v.Int == ast.Int32 && v.Float == ast.Float32:
		base = MiscI32TruncSatF32S
	case v.Int == ast.Int32 && v.Float == ast.Float64:
		base = MiscI32TruncSatF64S
	case v.Int == ast.Int64 && v.Float == ast.Float32:
		base = MiscI64TruncSatF32S
	case v.Int == ast.Int64 && v.Float == ast.Float64:
		base = MiscI64TruncSatF64S
	default:
		return badEnum(w, "truncation types")
	}
	switch v.Sign {
	case ast.Signed:
		writeMisc(w, base)
	case ast.Unsigned:
		writeMisc(w, base+1)
	default:
		return badEnum(w, "sign extension")
	}
	return nil
}

func encodeConvert(w *Writer, v ast.Convert) error {
	var base byte
	switch {
	case v.Float == ast.Float32 && v.Int == ast.Int32:
		base = OpF32ConvertI32S
	case v.Float == ast.Float32 && v.Int == ast.Int64:
		base = OpF32ConvertI64S
	case v.Float == ast.Float64 && v.Int == ast.Int32:
		base = OpF64ConvertI32S
	case v.Float == ast.Float64 && v.Int == ast.Int64:
		base = OpF64ConvertI64S
	default:
		return badEnum(w, "conversion types")
	}
	op, err := signOp(v.Sign, base, base+1)
	if err != nil {
		return err
	}
	w.Byte(op)
	return nil
}

func writeMisc(w *Writer, sub uint32) {
	w.Byte(OpPrefixMisc)
	w.U32(sub)
}

func badEnum(w *Writer, what string) error {
	return errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
		Offset(w.Len()).Detail("invalid %s", what).Build()
}

func intOp(t ast.IntegerType, op32, op64 byte) (byte, error) {
	switch t {
	case ast.Int32:
		return op32, nil
	case ast.Int64:
		return op64, nil
	default:
		return 0, errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
			Detail("invalid integer type %#x", byte(t)).Build()
	}
}

func floatOp(t ast.FloatType, op32, op64 byte) (byte, error) {
	switch t {
	case ast.Float32:
		return op32, nil
	case ast.Float64:
		return op64, nil
	default:
		return 0, errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
			Detail("invalid float type %#x", byte(t)).Build()
	}
}

func numOp(t ast.NumberType, opI32, opI64, opF32, opF64 byte) (byte, error) {
	switch t {
	case ast.I32:
		return opI32, nil
	case ast.I64:
		return opI64, nil
	case ast.F32:
		return opF32, nil
	case ast.F64:
		return opF64, nil
	default:
		return 0, errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
			Detail("invalid number type %#x", byte(t)).Build()
	}
}

func signOp(s ast.SignExtension, signed, unsigned byte) (byte, error) {
	switch s {
	case ast.Signed:
		return signed, nil
	case ast.Unsigned:
		return unsigned, nil
	default:
		return 0, errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
			Detail("invalid sign extension %d", s).Build()
	}
}

func intSignOp(t ast.IntegerType, s ast.SignExtension, op32S, op32U, op64S, op64U byte) (byte, error) {
	op32, err := signOp(s, op32S, op32U)
	if err != nil {
		return 0, err
	}
	op64, err := signOp(s, op64S, op64U)
	if err != nil {
		return 0, err
	}
	return intOp(t, op32, op64)
}

func validValueType(b byte) bool {
	switch ast.ValueType(b) {
	case ast.ValI32, ast.ValI64, ast.ValF32, ast.ValF64, ast.ValFuncRef, ast.ValExternRef:
		return true
	default:
		return false
	}
}

func validRefType(b byte) bool {
	return ast.ReferenceType(b) == ast.FuncRef || ast.ReferenceType(b) == ast.ExternRef
}

// exprDecoder tracks structured nesting depth across one decode call. Depth
// is counted explicitly so hostile input cannot push the decoder past the
// configured bound, whatever the Go stack would tolerate.
type exprDecoder struct {
	r     *Reader
	depth int
}

// block reads a structured body up to its end marker. Inside an if, an else
// marker also terminates the body; sawElse tells the caller which one did.
func (d *exprDecoder) block(inIf bool) (e ast.Expression, sawElse bool, err error) {
	d.depth++
	if d.depth > d.r.limits.MaxNesting {
		return nil, false, errors.LimitExceeded(d.r.Position(), "nesting depth exceeds limit %d", d.r.limits.MaxNesting)
	}
	defer func() { d.depth-- }()
	for {
		op, err := d.r.need("instruction")
		if err != nil {
			return nil, false, err
		}
		switch op {
		case OpEnd:
			return e, false, nil
		case OpElse:
			if !inIf {
				return nil, false, errors.InvalidImmediate(d.r.Position()-1, "else outside if")
			}
			return e, true, nil
		}
		in, err := d.instr(op)
		if err != nil {
			return nil, false, err
		}
		e = append(e, in)
	}
}

func (d *exprDecoder) blockType() (ast.BlockType, error) {
	start := d.r.Position()
	v, err := d.r.S33("block type")
	if err != nil {
		return ast.BlockType{}, err
	}
	switch {
	case v == BlockTypeEmpty:
		return ast.BlockType{}, nil
	case v < 0:
		b := byte(v & 0x7f)
		if !validValueType(b) {
			return ast.BlockType{}, errors.InvalidImmediate(start, "invalid block result type %#x", b)
		}
		return ast.BlockTypeOf(ast.ValueType(b)), nil
	default:
		return ast.BlockTypeIndex(uint32(v)), nil
	}
}

func (d *exprDecoder) memArg() (ast.MemArg, error) {
	align, err := d.r.U32("alignment")
	if err != nil {
		return ast.MemArg{}, err
	}
	offset, err := d.r.Uleb(64, "offset")
	if err != nil {
		return ast.MemArg{}, err
	}
	return ast.MemArg{Align: align, Offset: offset}, nil
}

// reserved consumes a zero byte standing in for an index space with a single
// member.
func (d *exprDecoder) reserved(what string) error {
	start := d.r.Position()
	v, err := d.r.U32(what)
	if err != nil {
		return err
	}
	if v != 0 {
		return errors.InvalidImmediate(start, "%s must be zero, got %d", what, v)
	}
	return nil
}

// instr decodes the instruction whose opcode byte has just been read.
func (d *exprDecoder) instr(op byte) (ast.Instruction, error) {
	pos := d.r.Position() - 1
	switch op {
	case OpEnd, OpElse:
		return nil, errors.InvalidImmediate(pos, "unexpected block terminator %#x", op)

	case OpBlock:
		bt, err := d.blockType()
		if err != nil {
			return nil, err
		}
		body, _, err := d.block(false)
		if err != nil {
			return nil, err
		}
		return ast.Block{Type: bt, Body: body}, nil

	case OpLoop:
		bt, err := d.blockType()
		if err != nil {
			return nil, err
		}
		body, _, err := d.block(false)
		if err != nil {
			return nil, err
		}
		return ast.Loop{Type: bt, Body: body}, nil

	case OpIf:
		bt, err := d.blockType()
		if err != nil {
			return nil, err
		}
		then, sawElse, err := d.block(true)
		if err != nil {
			return nil, err
		}
		in := ast.If{Type: bt, Then: then}
		if sawElse {
			els, _, err := d.block(false)
			if err != nil {
				return nil, err
			}
			if els == nil {
				els = ast.Expression{}
			}
			in.Else = els
		}
		return in, nil

	case OpBr:
		l, err := d.r.U32("label")
		if err != nil {
			return nil, err
		}
		return ast.Br{Label: l}, nil

	case OpBrIf:
		l, err := d.r.U32("label")
		if err != nil {
			return nil, err
		}
		return ast.BrIf{Label: l}, nil

	case OpBrTable:
		n, err := d.r.Count("label table")
		if err != nil {
			return nil, err
		}
		labels := make([]ast.LabelIndex, n)
		for i := range labels {
			if labels[i], err = d.r.U32("label"); err != nil {
				return nil, err
			}
		}
		def, err := d.r.U32("default label")
		if err != nil {
			return nil, err
		}
		return ast.BrTable{Labels: labels, Default: def}, nil

	case OpCall:
		f, err := d.r.U32("function index")
		if err != nil {
			return nil, err
		}
		return ast.Call{Func: f}, nil

	case OpCallIndirect:
		ti, err := d.r.U32("type index")
		if err != nil {
			return nil, err
		}
		tbl, err := d.r.U32("table index")
		if err != nil {
			return nil, err
		}
		return ast.CallIndirect{Type: ti, Table: tbl}, nil

	case OpRefNull:
		start := d.r.Position()
		b, err := d.r.need("reference type")
		if err != nil {
			return nil, err
		}
		if !validRefType(b) {
			return nil, errors.InvalidImmediate(start, "invalid reference type %#x", b)
		}
		return ast.RefNull{Type: ast.ReferenceType(b)}, nil

	case OpRefFunc:
		f, err := d.r.U32("function index")
		if err != nil {
			return nil, err
		}
		return ast.RefFunc{Func: f}, nil

	case OpSelectType:
		n, err := d.r.Count("select types")
		if err != nil {
			return nil, err
		}
		types := make([]ast.ValueType, n)
		for i := range types {
			start := d.r.Position()
			b, err := d.r.need("value type")
			if err != nil {
				return nil, err
			}
			if !validValueType(b) {
				return nil, errors.InvalidImmediate(start, "invalid value type %#x", b)
			}
			types[i] = ast.ValueType(b)
		}
		if types == nil {
			types = []ast.ValueType{}
		}
		return ast.Select{Types: types}, nil

	case OpLocalGet:
		i, err := d.r.U32("local index")
		if err != nil {
			return nil, err
		}
		return ast.LocalGet{Local: i}, nil

	case OpLocalSet:
		i, err := d.r.U32("local index")
		if err != nil {
			return nil, err
		}
		return ast.LocalSet{Local: i}, nil

	case OpLocalTee:
		i, err := d.r.U32("local index")
		if err != nil {
			return nil, err
		}
		return ast.LocalTee{Local: i}, nil

	case OpGlobalGet:
		i, err := d.r.U32("global index")
		if err != nil {
			return nil, err
		}
		return ast.GlobalGet{Global: i}, nil

	case OpGlobalSet:
		i, err := d.r.U32("global index")
		if err != nil {
			return nil, err
		}
		return ast.GlobalSet{Global: i}, nil

	case OpTableGet:
		i, err := d.r.U32("table index")
		if err != nil {
			return nil, err
		}
		return ast.TableGet{Table: i}, nil

	case OpTableSet:
		i, err := d.r.U32("table index")
		if err != nil {
			return nil, err
		}
		return ast.TableSet{Table: i}, nil

	case OpI32Load, OpI64Load, OpF32Load, OpF64Load,
		OpI32Load8S, OpI32Load8U, OpI32Load16S, OpI32Load16U,
		OpI64Load8S, OpI64Load8U, OpI64Load16S, OpI64Load16U,
		OpI64Load32S, OpI64Load32U,
		OpI32Store, OpI64Store, OpF32Store, OpF64Store,
		OpI32Store8, OpI32Store16, OpI64Store8, OpI64Store16, OpI64Store32:
		return d.memInstr(op)

	case OpMemorySize:
		if err := d.reserved("memory index"); err != nil {
			return nil, err
		}
		return ast.MemorySize{}, nil

	case OpMemoryGrow:
		if err := d.reserved("memory index"); err != nil {
			return nil, err
		}
		return ast.MemoryGrow{}, nil

	case OpI32Const:
		v, err := d.r.S32("i32 constant")
		if err != nil {
			return nil, err
		}
		return ast.I32Const{Value: v}, nil

	case OpI64Const:
		v, err := d.r.S64("i64 constant")
		if err != nil {
			return nil, err
		}
		return ast.I64Const{Value: v}, nil

	case OpF32Const:
		v, err := d.r.F32("f32 constant")
		if err != nil {
			return nil, err
		}
		return ast.F32Const{Value: v}, nil

	case OpF64Const:
		v, err := d.r.F64("f64 constant")
		if err != nil {
			return nil, err
		}
		return ast.F64Const{Value: v}, nil

	case OpPrefixMisc:
		return d.miscInstr(pos)

	default:
		if in, ok := simpleOps[op]; ok {
			return in, nil
		}
		return nil, errors.UnknownOpcode(pos, op)
	}
}

func (d *exprDecoder) memInstr(op byte) (ast.Instruction, error) {
	arg, err := d.memArg()
	if err != nil {
		return nil, err
	}
	switch op {
	case OpI32Load:
		return ast.Load{Type: ast.I32, Arg: arg}, nil
	case OpI64Load:
		return ast.Load{Type: ast.I64, Arg: arg}, nil
	case OpF32Load:
		return ast.Load{Type: ast.F32, Arg: arg}, nil
	case OpF64Load:
		return ast.Load{Type: ast.F64, Arg: arg}, nil
	case OpI32Load8S:
		return ast.Load8{Type: ast.Int32, Sign: ast.Signed, Arg: arg}, nil
	case OpI32Load8U:
		return ast.Load8{Type: ast.Int32, Sign: ast.Unsigned, Arg: arg}, nil
	case OpI32Load16S:
		return ast.Load16{Type: ast.Int32, Sign: ast.Signed, Arg: arg}, nil
	case OpI32Load16U:
		return ast.Load16{Type: ast.Int32, Sign: ast.Unsigned, Arg: arg}, nil
	case OpI64Load8S:
		return ast.Load8{Type: ast.Int64, Sign: ast.Signed, Arg: arg}, nil
	case OpI64Load8U:
		return ast.Load8{Type: ast.Int64, Sign: ast.Unsigned, Arg: arg}, nil
	case OpI64Load16S:
		return ast.Load16{Type: ast.Int64, Sign: ast.Signed, Arg: arg}, nil
	case OpI64Load16U:
		return ast.Load16{Type: ast.Int64, Sign: ast.Unsigned, Arg: arg}, nil
	case OpI64Load32S:
		return ast.Load32{Sign: ast.Signed, Arg: arg}, nil
	case OpI64Load32U:
		return ast.Load32{Sign: ast.Unsigned, Arg: arg}, nil
	case OpI32Store:
		return ast.Store{Type: ast.I32, Arg: arg}, nil
	case OpI64Store:
		return ast.Store{Type: ast.I64, Arg: arg}, nil
	case OpF32Store:
		return ast.Store{Type: ast.F32, Arg: arg}, nil
	case OpF64Store:
		return ast.Store{Type: ast.F64, Arg: arg}, nil
	case OpI32Store8:
		return ast.Store8{Type: ast.Int32, Arg: arg}, nil
	case OpI32Store16:
		return ast.Store16{Type: ast.Int32, Arg: arg}, nil
	case OpI64Store8:
		return ast.Store8{Type: ast.Int64, Arg: arg}, nil
	case OpI64Store16:
		return ast.Store16{Type: ast.Int64, Arg: arg}, nil
	default: // OpI64Store32
		return ast.Store32{Arg: arg}, nil
	}
}

func (d *exprDecoder) miscInstr(pos int) (ast.Instruction, error) {
	sub, err := d.r.U32("sub-opcode")
	if err != nil {
		return nil, err
	}
	switch sub {
	case MiscI32TruncSatF32S:
		return ast.TruncSat{Int: ast.Int32, Float: ast.Float32, Sign: ast.Signed}, nil
	case MiscI32TruncSatF32U:
		return ast.TruncSat{Int: ast.Int32, Float: ast.Float32, Sign: ast.Unsigned}, nil
	case MiscI32TruncSatF64S:
		return ast.TruncSat{Int: ast.Int32, Float: ast.Float64, Sign: ast.Signed}, nil
	case MiscI32TruncSatF64U:
		return ast.TruncSat{Int: ast.Int32, Float: ast.Float64, Sign: ast.Unsigned}, nil
	case MiscI64TruncSatF32S:
		return ast.TruncSat{Int: ast.Int64, Float: ast.Float32, Sign: ast.Signed}, nil
	case MiscI64TruncSatF32U:
		return ast.TruncSat{Int: ast.Int64, Float: ast.Float32, Sign: ast.Unsigned}, nil
	case MiscI64TruncSatF64S:
		return ast.TruncSat{Int: ast.Int64, Float: ast.Float64, Sign: ast.Signed}, nil
	case MiscI64TruncSatF64U:
		return ast.TruncSat{Int: ast.Int64, Float: ast.Float64, Sign: ast.Unsigned}, nil

	case MiscMemoryInit:
		di, err := d.r.U32("data index")
		if err != nil {
			return nil, err
		}
		if err := d.reserved("memory index"); err != nil {
			return nil, err
		}
		return ast.MemoryInit{Data: di}, nil

	case MiscDataDrop:
		di, err := d.r.U32("data index")
		if err != nil {
			return nil, err
		}
		return ast.DataDrop{Data: di}, nil

	case MiscMemoryCopy:
		if err := d.reserved("memory index"); err != nil {
			return nil, err
		}
		if err := d.reserved("memory index"); err != nil {
			return nil, err
		}
		return ast.MemoryCopy{}, nil

	case MiscMemoryFill:
		if err := d.reserved("memory index"); err != nil {
			return nil, err
		}
		return ast.MemoryFill{}, nil

	case MiscTableInit:
		ei, err := d.r.U32("element index")
		if err != nil {
			return nil, err
		}
		ti, err := d.r.U32("table index")
		if err != nil {
			return nil, err
		}
		return ast.TableInit{Elem: ei, Table: ti}, nil

	case MiscElemDrop:
		ei, err := d.r.U32("element index")
		if err != nil {
			return nil, err
		}
		return ast.ElemDrop{Elem: ei}, nil

	case MiscTableCopy:
		dst, err := d.r.U32("table index")
		if err != nil {
			return nil, err
		}
		src, err := d.r.U32("table index")
		if err != nil {
			return nil, err
		}
		return ast.TableCopy{Dst: dst, Src: src}, nil

	case MiscTableGrow:
		ti, err := d.r.U32("table index")
		if err != nil {
			return nil, err
		}
		return ast.TableGrow{Table: ti}, nil

	case MiscTableSize:
		ti, err := d.r.U32("table index")
		if err != nil {
			return nil, err
		}
		return ast.TableSize{Table: ti}, nil

	case MiscTableFill:
		ti, err := d.r.U32("table index")
		if err != nil {
			return nil, err
		}
		return ast.TableFill{Table: ti}, nil

	default:
		return nil, errors.UnknownSubOpcode(pos, OpPrefixMisc, sub)
	}
}

// simpleOps maps the opcodes that carry no immediates to their instruction
// values.
var simpleOps = map[byte]ast.Instruction{
	OpUnreachable: ast.Unreachable{},
	OpNop:         ast.Nop{},
	OpReturn:      ast.Return{},
	OpDrop:        ast.Drop{},
	OpSelect:      ast.Select{},
	OpRefIsNull:   ast.RefIsNull{},

	OpI32Eqz: ast.Eqz{Type: ast.Int32},
	OpI32Eq:  ast.Eq{Type: ast.I32},
	OpI32Ne:  ast.Ne{Type: ast.I32},
	OpI32LtS: ast.LtInt{Type: ast.Int32, Sign: ast.Signed},
	OpI32LtU: ast.LtInt{Type: ast.Int32, Sign: ast.Unsigned},
	OpI32GtS: ast.GtInt{Type: ast.Int32, Sign: ast.Signed},
	OpI32GtU: ast.GtInt{Type: ast.Int32, Sign: ast.Unsigned},
	OpI32LeS: ast.LeInt{Type: ast.Int32, Sign: ast.Signed},
	OpI32LeU: ast.LeInt{Type: ast.Int32, Sign: ast.Unsigned},
	OpI32GeS: ast.GeInt{Type: ast.Int32, Sign: ast.Signed},
	OpI32GeU: ast.GeInt{Type: ast.Int32, Sign: ast.Unsigned},

	OpI64Eqz: ast.Eqz{Type: ast.Int64},
	OpI64Eq:  ast.Eq{Type: ast.I64},
	OpI64Ne:  ast.Ne{Type: ast.I64},
	OpI64LtS: ast.LtInt{Type: ast.Int64, Sign: ast.Signed},
	OpI64LtU: ast.LtInt{Type: ast.Int64, Sign: ast.Unsigned},
	OpI64GtS: ast.GtInt{Type: ast.Int64, Sign: ast.Signed},
	OpI64GtU: ast.GtInt{Type: ast.Int64, Sign: ast.Unsigned},
	OpI64LeS: ast.LeInt{Type: ast.Int64, Sign: ast.Signed},
	OpI64LeU: ast.LeInt{Type: ast.Int64, Sign: ast.Unsigned},
	OpI64GeS: ast.GeInt{Type: ast.Int64, Sign: ast.Signed},
	OpI64GeU: ast.GeInt{Type: ast.Int64, Sign: ast.Unsigned},

	OpF32Eq: ast.Eq{Type: ast.F32},
	OpF32Ne: ast.Ne{Type: ast.F32},
	OpF32Lt: ast.LtFloat{Type: ast.Float32},
	OpF32Gt: ast.GtFloat{Type: ast.Float32},
	OpF32Le: ast.LeFloat{Type: ast.Float32},
	OpF32Ge: ast.GeFloat{Type: ast.Float32},

	OpF64Eq: ast.Eq{Type: ast.F64},
	OpF64Ne: ast.Ne{Type: ast.F64},
	OpF64Lt: ast.LtFloat{Type: ast.Float64},
	OpF64Gt: ast.GtFloat{Type: ast.Float64},
	OpF64Le: ast.LeFloat{Type: ast.Float64},
	OpF64Ge: ast.GeFloat{Type: ast.Float64},

	OpI32Clz:    ast.Clz{Type: ast.Int32},
	OpI32Ctz:    ast.Ctz{Type: ast.Int32},
	OpI32Popcnt: ast.Popcnt{Type: ast.Int32},
	OpI32Add:    ast.Add{Type: ast.I32},
	OpI32Sub:    ast.Sub{Type: ast.I32},
	OpI32Mul:    ast.Mul{Type: ast.I32},
	OpI32DivS:   ast.DivInt{Type: ast.Int32, Sign: ast.Signed},
	OpI32DivU:   ast.DivInt{Type: ast.Int32, Sign: ast.Unsigned},
	OpI32RemS:   ast.Rem{Type: ast.Int32, Sign: ast.Signed},
	OpI32RemU:   ast.Rem{Type: ast.Int32, Sign: ast.Unsigned},
	OpI32And:    ast.And{Type: ast.Int32},
	OpI32Or:     ast.Or{Type: ast.Int32},
	OpI32Xor:    ast.Xor{Type: ast.Int32},
	OpI32Shl:    ast.Shl{Type: ast.Int32},
	OpI32ShrS:   ast.Shr{Type: ast.Int32, Sign: ast.Signed},
	OpI32ShrU:   ast.Shr{Type: ast.Int32, Sign: ast.Unsigned},
	OpI32Rotl:   ast.Rotl{Type: ast.Int32},
	OpI32Rotr:   ast.Rotr{Type: ast.Int32},

	OpI64Clz:    ast.Clz{Type: ast.Int64},
	OpI64Ctz:    ast.Ctz{Type: ast.Int64},
	OpI64Popcnt: ast.Popcnt{Type: ast.Int64},
	OpI64Add:    ast.Add{Type: ast.I64},
	OpI64Sub:    ast.Sub{Type: ast.I64},
	OpI64Mul:    ast.Mul{Type: ast.I64},
	OpI64DivS:   ast.DivInt{Type: ast.Int64, Sign: ast.Signed},
	OpI64DivU:   ast.DivInt{Type: ast.Int64, Sign: ast.Unsigned},
	OpI64RemS:   ast.Rem{Type: ast.Int64, Sign: ast.Signed},
	OpI64RemU:   ast.Rem{Type: ast.Int64, Sign: ast.Unsigned},
	OpI64And:    ast.And{Type: ast.Int64},
	OpI64Or:     ast.Or{Type: ast.Int64},
	OpI64Xor:    ast.Xor{Type: ast.Int64},
	OpI64Shl:    ast.Shl{Type: ast.Int64},
	OpI64ShrS:   ast.Shr{Type: ast.Int64, Sign: ast.Signed},
	OpI64ShrU:   ast.Shr{Type: ast.Int64, Sign: ast.Unsigned},
	OpI64Rotl:   ast.Rotl{Type: ast.Int64},
	OpI64Rotr:   ast.Rotr{Type: ast.Int64},

	OpF32Abs:      ast.Abs{Type: ast.Float32},
	OpF32Neg:      ast.Neg{Type: ast.Float32},
	OpF32Ceil:     ast.Ceil{Type: ast.Float32},
	OpF32Floor:    ast.Floor{Type: ast.Float32},
	OpF32Trunc:    ast.Trunc{Type: ast.Float32},
	OpF32Nearest:  ast.Nearest{Type: ast.Float32},
	OpF32Sqrt:     ast.Sqrt{Type: ast.Float32},
	OpF32Add:      ast.Add{Type: ast.F32},
	OpF32Sub:      ast.Sub{Type: ast.F32},
	OpF32Mul:      ast.Mul{Type: ast.F32},
	OpF32Div:      ast.DivFloat{Type: ast.Float32},
	OpF32Min:      ast.Min{Type: ast.Float32},
	OpF32Max:      ast.Max{Type: ast.Float32},
	OpF32Copysign: ast.Copysign{Type: ast.Float32},

	OpF64Abs:      ast.Abs{Type: ast.Float64},
	OpF64Neg:      ast.Neg{Type: ast.Float64},
	OpF64Ceil:     ast.Ceil{Type: ast.Float64},
	OpF64Floor:    ast.Floor{Type: ast.Float64},
	OpF64Trunc:    ast.Trunc{Type: ast.Float64},
	OpF64Nearest:  ast.Nearest{Type: ast.Float64},
	OpF64Sqrt:     ast.Sqrt{Type: ast.Float64},
	OpF64Add:      ast.Add{Type: ast.F64},
	OpF64Sub:      ast.Sub{Type: ast.F64},
	OpF64Mul:      ast.Mul{Type: ast.F64},
	OpF64Div:      ast.DivFloat{Type: ast.Float64},
	OpF64Min:      ast.Min{Type: ast.Float64},
	OpF64Max:      ast.Max{Type: ast.Float64},
	OpF64Copysign: ast.Copysign{Type: ast.Float64},

	OpI32WrapI64:     ast.Wrap{},
	OpI32TruncF32S:   ast.TruncFloat{Int: ast.Int32, Float: ast.Float32, Sign: ast.Signed},
	OpI32TruncF32U:   ast.TruncFloat{Int: ast.Int32, Float: ast.Float32, Sign: ast.Unsigned},
	OpI32TruncF64S:   ast.TruncFloat{Int: ast.Int32, Float: ast.Float64, Sign: ast.Signed},
	OpI32TruncF64U:   ast.TruncFloat{Int: ast.Int32, Float: ast.Float64, Sign: ast.Unsigned},
	OpI64ExtendI32S:  ast.Extend{Sign: ast.Signed},
	OpI64ExtendI32U:  ast.Extend{Sign: ast.Unsigned},
	OpI64TruncF32S:   ast.TruncFloat{Int: ast.Int64, Float: ast.Float32, Sign: ast.Signed},
	OpI64TruncF32U:   ast.TruncFloat{Int: ast.Int64, Float: ast.Float32, Sign: ast.Unsigned},
	OpI64TruncF64S:   ast.TruncFloat{Int: ast.Int64, Float: ast.Float64, Sign: ast.Signed},
	OpI64TruncF64U:   ast.TruncFloat{Int: ast.Int64, Float: ast.Float64, Sign: ast.Unsigned},
	OpF32ConvertI32S: ast.Convert{Float: ast.Float32, Int: ast.Int32, Sign: ast.Signed},
	OpF32ConvertI32U: ast.Convert{Float: ast.Float32, Int: ast.Int32, Sign: ast.Unsigned},
	OpF32ConvertI64S: ast.Convert{Float: ast.Float32, Int: ast.Int64, Sign: ast.Signed},
	OpF32ConvertI64U: ast.Convert{Float: ast.Float32, Int: ast.Int64, Sign: ast.Unsigned},
	OpF32DemoteF64:   ast.Demote{},
	OpF64ConvertI32S: ast.Convert{Float: ast.Float64, Int: ast.Int32, Sign: ast.Signed},
	OpF64ConvertI32U: ast.Convert{Float: ast.Float64, Int: ast.Int32, Sign: ast.Unsigned},
	OpF64ConvertI64S: ast.Convert{Float: ast.Float64, Int: ast.Int64, Sign: ast.Signed},
	OpF64ConvertI64U: ast.Convert{Float: ast.Float64, Int: ast.Int64, Sign: ast.Unsigned},
	OpF64PromoteF32:  ast.Promote{},

	OpI32ReinterpretF: ast.ReinterpretInt{Type: ast.Int32},
	OpI64ReinterpretF: ast.ReinterpretInt{Type: ast.Int64},
	OpF32ReinterpretI: ast.ReinterpretFloat{Type: ast.Float32},
	OpF64ReinterpretI: ast.ReinterpretFloat{Type: ast.Float64},

	OpI32Extend8S:  ast.Extend8S{Type: ast.Int32},
	OpI32Extend16S: ast.Extend16S{Type: ast.Int32},
	OpI64Extend8S:  ast.Extend8S{Type: ast.Int64},
	OpI64Extend16S: ast.Extend16S{Type: ast.Int64},
	OpI64Extend32S: ast.Extend32S{},
}
