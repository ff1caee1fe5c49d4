package binary_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"

	"github.com/al3xfischer/wasm-ast/ast"
	"github.com/al3xfischer/wasm-ast/binary"
	"github.com/al3xfischer/wasm-ast/errors"
)

func u32ptr(v uint32) *uint32 { return &v }

// fullModule touches every section and both element initializer forms.
func fullModule() *ast.Module {
	start := ast.FunctionIndex(1)
	return &ast.Module{
		Types: []ast.FunctionType{
			{Params: []ast.ValueType{ast.ValI32, ast.ValI32}, Results: []ast.ValueType{ast.ValI32}},
			{Params: []ast.ValueType{}, Results: []ast.ValueType{}},
		},
		Imports: []ast.Import{
			{Module: "env", Name: "tick", Kind: ast.ExternFunc, Func: 1},
			{Module: "env", Name: "flag", Kind: ast.ExternGlobal, Global: &ast.GlobalType{Type: ast.ValI32}},
		},
		Functions: []ast.TypeIndex{0, 1},
		Tables: []ast.TableType{
			{Type: ast.FuncRef, Limits: ast.Limits{Min: 2, Max: u32ptr(10)}},
		},
		Memories: []ast.MemoryType{
			{Limits: ast.Limits{Min: 1}},
		},
		Globals: []ast.Global{
			{Type: ast.GlobalType{Type: ast.ValI64, Mutable: true}, Init: ast.Expr(ast.I64Const{Value: 42})},
		},
		Exports: []ast.Export{
			{Name: "run", Kind: ast.ExternFunc, Index: 2},
			{Name: "mem", Kind: ast.ExternMemory, Index: 0},
		},
		Start: &start,
		Elements: []ast.Element{
			{
				Mode: ast.ElementActive, Type: ast.FuncRef,
				Offset: ast.Expr(ast.I32Const{Value: 0}),
				Funcs:  []ast.FunctionIndex{1, 2},
			},
			{
				Mode: ast.ElementPassive, Type: ast.ExternRef,
				Inits: []ast.Expression{ast.Expr(ast.RefNull{Type: ast.ExternRef})},
			},
			{
				Mode: ast.ElementDeclarative, Type: ast.FuncRef,
				Funcs: []ast.FunctionIndex{2},
			},
		},
		DataCount: u32ptr(2),
		Code: []ast.Function{
			{
				Locals: []ast.ValueType{ast.ValI32, ast.ValI32, ast.ValI64},
				Body: ast.Expr(
					ast.LocalGet{Local: 0},
					ast.LocalGet{Local: 1},
					ast.Add{Type: ast.I32},
				),
			},
			{Body: ast.Expr(ast.Nop{})},
		},
		Data: []ast.DataSegment{
			{Mode: ast.DataActive, Offset: ast.Expr(ast.I32Const{Value: 8}), Init: []byte("hello")},
			{Mode: ast.DataPassive, Init: []byte{0xDE, 0xAD}},
		},
		Customs: []ast.CustomSection{
			{Name: "producers", Data: []byte{0x00}},
		},
	}
}

func TestModuleRoundTrip(t *testing.T) {
	m := fullModule()
	var buf bytes.Buffer
	n, err := binary.EncodeModule(&buf, m)
	require.NoError(t, err)
	require.Equal(t, buf.Len(), n)

	back, err := binary.DecodeModule(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, m, back)

	// Canonical form: a second trip reproduces the bytes exactly.
	var buf2 bytes.Buffer
	_, err = binary.EncodeModule(&buf2, back)
	require.NoError(t, err)
	require.Equal(t, buf.Bytes(), buf2.Bytes())
}

func TestModulePreamble(t *testing.T) {
	var buf bytes.Buffer
	_, err := binary.EncodeModule(&buf, &ast.Module{})
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}, buf.Bytes())

	back, err := binary.DecodeModule(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, &ast.Module{}, back)
}

func TestModuleLocalsRunLength(t *testing.T) {
	m := &ast.Module{
		Types:     []ast.FunctionType{{Params: []ast.ValueType{}, Results: []ast.ValueType{}}},
		Functions: []ast.TypeIndex{0},
		Code: []ast.Function{
			{
				Locals: []ast.ValueType{ast.ValI32, ast.ValI32, ast.ValI64},
				Body:   ast.Expr(ast.Nop{}),
			},
		},
	}
	var buf bytes.Buffer
	_, err := binary.EncodeModule(&buf, m)
	require.NoError(t, err)
	// Two runs: 2 x i32, 1 x i64.
	require.True(t, bytes.Contains(buf.Bytes(), []byte{0x02, 0x02, 0x7F, 0x01, 0x7E}),
		"locals not run-length encoded: %x", buf.Bytes())

	back, err := binary.DecodeModule(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, m.Code[0].Locals, back.Code[0].Locals)
}

func TestDecodeModuleErrors(t *testing.T) {
	preamble := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	cat := func(parts ...[]byte) []byte {
		var out []byte
		for _, p := range parts {
			out = append(out, p...)
		}
		return out
	}

	tests := []struct {
		name  string
		input []byte
		kind  errors.Kind
	}{
		{"bad magic", []byte{0x00, 0x61, 0x73, 0x6E, 0x01, 0x00, 0x00, 0x00}, errors.KindInvalidImmediate},
		{"bad version", []byte{0x00, 0x61, 0x73, 0x6D, 0x02, 0x00, 0x00, 0x00}, errors.KindInvalidImmediate},
		{"truncated preamble", []byte{0x00, 0x61}, errors.KindUnexpectedEOF},
		{"unknown section id", cat(preamble, []byte{0x0E, 0x00}), errors.KindInvalidImmediate},
		{
			"sections out of order",
			cat(preamble,
				[]byte{0x03, 0x02, 0x01, 0x00},             // function section
				[]byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00}, // type section after it
			),
			errors.KindInvalidImmediate,
		},
		{
			"duplicate section",
			cat(preamble,
				[]byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00},
				[]byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00},
			),
			errors.KindInvalidImmediate,
		},
		{
			"section larger than declared",
			cat(preamble, []byte{0x01, 0x07, 0x01, 0x60, 0x00, 0x00}),
			errors.KindInvalidImmediate,
		},
		{
			"section smaller than declared",
			cat(preamble, []byte{0x01, 0x05, 0x01, 0x60, 0x00, 0x00, 0x00}),
			errors.KindInvalidImmediate,
		},
		{
			"bad function type tag",
			cat(preamble, []byte{0x01, 0x04, 0x01, 0x61, 0x00, 0x00}),
			errors.KindInvalidImmediate,
		},
		{
			"bad limits flag",
			cat(preamble, []byte{0x05, 0x03, 0x01, 0x05, 0x01}),
			errors.KindInvalidImmediate,
		},
		{
			"bad element flags",
			cat(preamble, []byte{0x09, 0x02, 0x01, 0x08}),
			errors.KindInvalidImmediate,
		},
		{
			"bad data flags",
			cat(preamble, []byte{0x0B, 0x02, 0x01, 0x03}),
			errors.KindInvalidImmediate,
		},
		{
			"code without function section",
			cat(preamble, []byte{0x0A, 0x04, 0x01, 0x02, 0x00, 0x0B}),
			errors.KindInvalidImmediate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := binary.DecodeModule(bytes.NewReader(tt.input))
			require.Error(t, err)
			require.True(t, errors.IsKind(err, tt.kind), "got %v, want kind %s", err, tt.kind)
		})
	}
}

func TestDecodeModuleNonMinimalSectionSize(t *testing.T) {
	// A padded section size is tolerated by default and rejected in strict
	// mode, like any other integer.
	raw := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x84, 0x80, 0x80, 0x80, 0x00, // type section, size 4 padded to 5 bytes
		0x01, 0x60, 0x00, 0x00,
	}
	m, err := binary.DecodeModule(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, m.Types, 1)

	_, err = binary.DecodeModule(bytes.NewReader(raw), binary.WithStrictIntegers())
	require.True(t, errors.IsKind(err, errors.KindMalformedInteger), "got %v", err)
}

// TestEncodedModuleExecutes runs an encoded module in a real runtime, which
// independently checks both the section framing and the instruction codec.
// The module exercises a data-initialized memory, a global initializer, and
// dynamic dispatch through a table.
func TestEncodedModuleExecutes(t *testing.T) {
	m := &ast.Module{}
	binOp := m.AddType(ast.FunctionType{
		Params:  []ast.ValueType{ast.ValI32, ast.ValI32},
		Results: []ast.ValueType{ast.ValI32},
	})
	nullary := m.AddType(ast.FunctionType{
		Results: []ast.ValueType{ast.ValI32},
	})
	ternary := m.AddType(ast.FunctionType{
		Params:  []ast.ValueType{ast.ValI32, ast.ValI32, ast.ValI32},
		Results: []ast.ValueType{ast.ValI32},
	})

	m.Functions = []ast.TypeIndex{binOp, binOp, nullary, nullary, ternary}
	m.Tables = []ast.TableType{
		{Type: ast.FuncRef, Limits: ast.Limits{Min: 2}},
	}
	m.Memories = []ast.MemoryType{{Limits: ast.Limits{Min: 1}}}
	m.Globals = []ast.Global{
		{Type: ast.GlobalType{Type: ast.ValI32}, Init: ast.Expr(ast.I32Const{Value: 5})},
	}
	m.Elements = []ast.Element{
		{
			Mode:   ast.ElementActive,
			Offset: ast.Expr(ast.I32Const{Value: 0}),
			Funcs:  []ast.FunctionIndex{0, 1},
		},
	}
	m.Data = []ast.DataSegment{
		{
			Mode:   ast.DataActive,
			Offset: ast.Expr(ast.I32Const{Value: 8}),
			Init:   []byte{0x2A, 0x00, 0x00, 0x00},
		},
	}
	m.Code = []ast.Function{
		{Body: ast.Expr(
			ast.LocalGet{Local: 0},
			ast.LocalGet{Local: 1},
			ast.Add{Type: ast.I32},
		)},
		{Body: ast.Expr(
			ast.LocalGet{Local: 0},
			ast.LocalGet{Local: 1},
			ast.GtInt{Type: ast.Int32, Sign: ast.Signed},
			ast.If{
				Type: ast.BlockTypeOf(ast.ValI32),
				Then: ast.Expr(ast.LocalGet{Local: 0}),
				Else: ast.Expr(ast.LocalGet{Local: 1}),
			},
		)},
		{Body: ast.Expr(
			ast.I32Const{Value: 0},
			ast.NewLoad(ast.I32, 8),
		)},
		{Body: ast.Expr(ast.GlobalGet{Global: 0})},
		{Body: ast.Expr(
			ast.LocalGet{Local: 1},
			ast.LocalGet{Local: 2},
			ast.LocalGet{Local: 0},
			ast.CallIndirect{Type: binOp, Table: 0},
		)},
	}
	m.Exports = []ast.Export{
		{Name: "add", Kind: ast.ExternFunc, Index: 0},
		{Name: "max", Kind: ast.ExternFunc, Index: 1},
		{Name: "peek", Kind: ast.ExternFunc, Index: 2},
		{Name: "flag", Kind: ast.ExternFunc, Index: 3},
		{Name: "dispatch", Kind: ast.ExternFunc, Index: 4},
	}

	var buf bytes.Buffer
	_, err := binary.EncodeModule(&buf, m)
	require.NoError(t, err)

	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := rt.Instantiate(ctx, buf.Bytes())
	require.NoError(t, err, "runtime rejected the encoding")

	out, err := mod.ExportedFunction("add").Call(ctx, 40, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(42), out[0])

	out, err = mod.ExportedFunction("max").Call(ctx, 7, 9)
	require.NoError(t, err)
	require.Equal(t, uint64(9), out[0])

	// Data segment landed at offset 8.
	out, err = mod.ExportedFunction("peek").Call(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(42), out[0])

	// Global initializer ran.
	out, err = mod.ExportedFunction("flag").Call(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(5), out[0])

	// call_indirect through the element-initialized table: slot 0 is add,
	// slot 1 is max.
	out, err = mod.ExportedFunction("dispatch").Call(ctx, 0, 40, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(42), out[0])

	out, err = mod.ExportedFunction("dispatch").Call(ctx, 1, 7, 9)
	require.NoError(t, err)
	require.Equal(t, uint64(9), out[0])
}
