package ast_test

import (
	"testing"

	"github.com/al3xfischer/wasm-ast/ast"
)

func TestValueTypeString(t *testing.T) {
	tests := []struct {
		v    ast.ValueType
		want string
	}{
		{ast.ValI32, "i32"},
		{ast.ValI64, "i64"},
		{ast.ValF32, "f32"},
		{ast.ValF64, "f64"},
		{ast.ValFuncRef, "funcref"},
		{ast.ValExternRef, "externref"},
		{ast.ValueType(0x00), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("ValueType(%#x).String() = %q, want %q", byte(tt.v), got, tt.want)
		}
	}
}

func TestNumberTypeWidth(t *testing.T) {
	tests := []struct {
		t    ast.NumberType
		want uint32
	}{
		{ast.I32, 4},
		{ast.I64, 8},
		{ast.F32, 4},
		{ast.F64, 8},
	}
	for _, tt := range tests {
		if got := tt.t.Width(); got != tt.want {
			t.Errorf("%s.Width() = %d, want %d", tt.t, got, tt.want)
		}
	}
}

func TestTypeConversions(t *testing.T) {
	if ast.Int64.Number() != ast.I64 {
		t.Errorf("Int64.Number() = %v, want I64", ast.Int64.Number())
	}
	if ast.Float32.Number() != ast.F32 {
		t.Errorf("Float32.Number() = %v, want F32", ast.Float32.Number())
	}
	if ast.F64.Value() != ast.ValF64 {
		t.Errorf("F64.Value() = %v, want ValF64", ast.F64.Value())
	}
	if ast.ExternRef.Value() != ast.ValExternRef {
		t.Errorf("ExternRef.Value() = %v, want ValExternRef", ast.ExternRef.Value())
	}
}

func TestBlockTypeConstructors(t *testing.T) {
	var empty ast.BlockType
	if empty.Kind != ast.BlockEmpty {
		t.Errorf("zero BlockType kind = %v, want BlockEmpty", empty.Kind)
	}

	bt := ast.BlockTypeOf(ast.ValF64)
	if bt.Kind != ast.BlockValue || bt.Value != ast.ValF64 {
		t.Errorf("BlockTypeOf(ValF64) = %+v", bt)
	}

	bt = ast.BlockTypeIndex(7)
	if bt.Kind != ast.BlockIndex || bt.Index != 7 {
		t.Errorf("BlockTypeIndex(7) = %+v", bt)
	}
}

func TestMemoryConstructorAlignment(t *testing.T) {
	tests := []struct {
		name      string
		instr     ast.Instruction
		wantAlign uint32
	}{
		{"i32.load", ast.NewLoad(ast.I32, 0), 2},
		{"i64.load", ast.NewLoad(ast.I64, 8), 3},
		{"f32.store", ast.NewStore(ast.F32, 0), 2},
		{"f64.store", ast.NewStore(ast.F64, 0), 3},
		{"i32.load8_s", ast.NewLoad8(ast.Int32, ast.Signed, 0), 0},
		{"i64.load16_u", ast.NewLoad16(ast.Int64, ast.Unsigned, 0), 1},
		{"i64.load32_u", ast.NewLoad32(ast.Unsigned, 0), 2},
		{"i32.store8", ast.NewStore8(ast.Int32, 0), 0},
		{"i64.store16", ast.NewStore16(ast.Int64, 0), 1},
		{"i64.store32", ast.NewStore32(0), 2},
	}
	for _, tt := range tests {
		var arg ast.MemArg
		switch in := tt.instr.(type) {
		case ast.Load:
			arg = in.Arg
		case ast.Load8:
			arg = in.Arg
		case ast.Load16:
			arg = in.Arg
		case ast.Load32:
			arg = in.Arg
		case ast.Store:
			arg = in.Arg
		case ast.Store8:
			arg = in.Arg
		case ast.Store16:
			arg = in.Arg
		case ast.Store32:
			arg = in.Arg
		}
		if arg.Align != tt.wantAlign {
			t.Errorf("%s: align = %d, want %d", tt.name, arg.Align, tt.wantAlign)
		}
	}
}

func TestConstPromotion(t *testing.T) {
	tests := []struct {
		name string
		got  ast.Instruction
		want ast.Instruction
	}{
		{"int8", ast.Const(int8(-5)), ast.I32Const{Value: -5}},
		{"int16", ast.Const(int16(300)), ast.I32Const{Value: 300}},
		{"int32", ast.Const(int32(-1)), ast.I32Const{Value: -1}},
		{"uint8", ast.Const(uint8(255)), ast.I32Const{Value: 255}},
		{"uint16", ast.Const(uint16(65535)), ast.I32Const{Value: 65535}},
		{"uint32 bit pattern", ast.Const(uint32(0xFFFFFFFF)), ast.I32Const{Value: -1}},
		{"int", ast.Const(42), ast.I64Const{Value: 42}},
		{"int64", ast.Const(int64(-1)), ast.I64Const{Value: -1}},
		{"uint64 bit pattern", ast.Const(uint64(0xFFFFFFFFFFFFFFFF)), ast.I64Const{Value: -1}},
		{"float32", ast.Const(float32(1.5)), ast.F32Const{Value: 1.5}},
		{"float64", ast.Const(3.14), ast.F64Const{Value: 3.14}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("Const = %#v, want %#v", tt.got, tt.want)
			}
		})
	}
}

func TestInstructionFamilies(t *testing.T) {
	numeric := []ast.Instruction{
		ast.I32Const{}, ast.F64Const{}, ast.Clz{Type: ast.Int32},
		ast.Add{Type: ast.F32}, ast.DivInt{Type: ast.Int64, Sign: ast.Unsigned},
		ast.Eqz{Type: ast.Int32}, ast.TruncSat{}, ast.ReinterpretFloat{Type: ast.Float64},
	}
	for _, in := range numeric {
		if _, ok := in.(ast.NumericInstruction); !ok {
			t.Errorf("%#v is not a NumericInstruction", in)
		}
	}

	control := []ast.Instruction{
		ast.Unreachable{}, ast.Block{}, ast.If{}, ast.BrTable{Default: 1},
		ast.CallIndirect{Type: 2, Table: 0},
	}
	for _, in := range control {
		if _, ok := in.(ast.ControlInstruction); !ok {
			t.Errorf("%#v is not a ControlInstruction", in)
		}
	}

	memory := []ast.Instruction{
		ast.NewLoad(ast.I32, 0), ast.MemoryGrow{}, ast.DataDrop{Data: 3},
	}
	for _, in := range memory {
		if _, ok := in.(ast.MemoryInstruction); !ok {
			t.Errorf("%#v is not a MemoryInstruction", in)
		}
	}

	// An instruction belongs to exactly one family.
	if _, ok := ast.Instruction(ast.I32Const{}).(ast.ControlInstruction); ok {
		t.Error("I32Const must not be a ControlInstruction")
	}
	if _, ok := ast.Instruction(ast.Block{}).(ast.NumericInstruction); ok {
		t.Error("Block must not be a NumericInstruction")
	}
}

func TestFunctionTypeEqual(t *testing.T) {
	a := ast.FunctionType{Params: []ast.ValueType{ast.ValI32, ast.ValI32}, Results: []ast.ValueType{ast.ValI32}}
	b := ast.FunctionType{Params: []ast.ValueType{ast.ValI32, ast.ValI32}, Results: []ast.ValueType{ast.ValI32}}
	c := ast.FunctionType{Params: []ast.ValueType{ast.ValI64}, Results: []ast.ValueType{ast.ValI32}}
	d := ast.FunctionType{Params: []ast.ValueType{ast.ValI32, ast.ValI32}, Results: nil}

	if !a.Equal(b) {
		t.Error("identical signatures must compare equal")
	}
	if a.Equal(c) || a.Equal(d) {
		t.Error("different signatures must not compare equal")
	}
}

func TestModuleAddType(t *testing.T) {
	var m ast.Module
	sig := ast.FunctionType{Params: []ast.ValueType{ast.ValI32}, Results: []ast.ValueType{ast.ValI32}}

	first := m.AddType(sig)
	second := m.AddType(ast.FunctionType{Params: []ast.ValueType{ast.ValI32}, Results: []ast.ValueType{ast.ValI32}})
	other := m.AddType(ast.FunctionType{})

	if first != second {
		t.Errorf("equal types interned at %d and %d", first, second)
	}
	if other == first {
		t.Error("distinct type reused an existing index")
	}
	if len(m.Types) != 2 {
		t.Errorf("len(Types) = %d, want 2", len(m.Types))
	}
}

func TestModuleFuncType(t *testing.T) {
	importedSig := ast.FunctionType{Params: []ast.ValueType{ast.ValF64}}
	localSig := ast.FunctionType{Results: []ast.ValueType{ast.ValI32}}
	m := ast.Module{
		Types: []ast.FunctionType{importedSig, localSig},
		Imports: []ast.Import{
			{Module: "env", Name: "log", Kind: ast.ExternFunc, Func: 0},
			{Module: "env", Name: "mem", Kind: ast.ExternMemory, Memory: &ast.MemoryType{}},
		},
		Functions: []ast.TypeIndex{1},
	}

	if got := m.NumImportedFuncs(); got != 1 {
		t.Fatalf("NumImportedFuncs() = %d, want 1", got)
	}

	ft, err := m.FuncType(0)
	if err != nil {
		t.Fatalf("FuncType(0): %v", err)
	}
	if !ft.Equal(importedSig) {
		t.Errorf("FuncType(0) = %+v, want imported signature", ft)
	}

	ft, err = m.FuncType(1)
	if err != nil {
		t.Fatalf("FuncType(1): %v", err)
	}
	if !ft.Equal(localSig) {
		t.Errorf("FuncType(1) = %+v, want local signature", ft)
	}

	if _, err := m.FuncType(2); err == nil {
		t.Error("FuncType(2) succeeded for out-of-range index")
	}
}

func TestModuleExportedFunc(t *testing.T) {
	m := ast.Module{
		Exports: []ast.Export{
			{Name: "mem", Kind: ast.ExternMemory, Index: 0},
			{Name: "add", Kind: ast.ExternFunc, Index: 4},
		},
	}

	idx, ok := m.ExportedFunc("add")
	if !ok || idx != 4 {
		t.Errorf("ExportedFunc(add) = %d, %v; want 4, true", idx, ok)
	}
	if _, ok := m.ExportedFunc("mem"); ok {
		t.Error("ExportedFunc matched a memory export")
	}
	if _, ok := m.ExportedFunc("missing"); ok {
		t.Error("ExportedFunc matched a missing name")
	}
}
