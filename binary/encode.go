package binary

import (
	"bytes"
	"io"

	"go.uber.org/zap"

	"github.com/al3xfischer/wasm-ast/ast"
	"github.com/al3xfischer/wasm-ast/errors"
)

// EncodeModule writes m to w in binary module form and returns the number of
// bytes written. Sections are emitted in the order the format requires, each
// only when the module has content for it; custom sections follow the known
// ones. Element and data segments are written in their minimal flag form, so
// encoding is canonical regardless of how the decoded original spelled them.
func EncodeModule(w io.Writer, m *ast.Module) (int, error) {
	bw := NewWriter(w)
	bw.U32LE(Magic)
	bw.U32LE(Version)

	type section struct {
		id     byte
		count  int
		encode func(*Writer) error
	}
	sections := []section{
		{SectionType, len(m.Types), func(sw *Writer) error { return encodeTypeSection(sw, m.Types) }},
		{SectionImport, len(m.Imports), func(sw *Writer) error { return encodeImportSection(sw, m.Imports) }},
		{SectionFunction, len(m.Functions), func(sw *Writer) error { return encodeFunctionSection(sw, m.Functions) }},
		{SectionTable, len(m.Tables), func(sw *Writer) error { return encodeTableSection(sw, m.Tables) }},
		{SectionMemory, len(m.Memories), func(sw *Writer) error { return encodeMemorySection(sw, m.Memories) }},
		{SectionGlobal, len(m.Globals), func(sw *Writer) error { return encodeGlobalSection(sw, m.Globals) }},
		{SectionExport, len(m.Exports), func(sw *Writer) error { return encodeExportSection(sw, m.Exports) }},
		{SectionStart, boolCount(m.Start != nil), func(sw *Writer) error { sw.U32(*m.Start); return nil }},
		{SectionElement, len(m.Elements), func(sw *Writer) error { return encodeElementSection(sw, m.Elements) }},
		{SectionDataCount, boolCount(m.DataCount != nil), func(sw *Writer) error { sw.U32(*m.DataCount); return nil }},
		{SectionCode, len(m.Code), func(sw *Writer) error { return encodeCodeSection(sw, m.Code) }},
		{SectionData, len(m.Data), func(sw *Writer) error { return encodeDataSection(sw, m.Data) }},
	}
	for _, s := range sections {
		if s.count == 0 {
			continue
		}
		if err := writeSection(bw, s.id, s.encode); err != nil {
			return bw.Len(), err
		}
		Logger().Debug("encoded section", zap.Uint8("id", s.id), zap.Int("entries", s.count))
	}
	for _, c := range m.Customs {
		c := c
		err := writeSection(bw, SectionCustom, func(sw *Writer) error {
			sw.Name(c.Name)
			sw.Bytes(c.Data)
			return nil
		})
		if err != nil {
			return bw.Len(), err
		}
	}
	return bw.Len(), bw.Err()
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}

// writeSection buffers the section body so the size prefix can go first.
func writeSection(bw *Writer, id byte, body func(*Writer) error) error {
	var buf bytes.Buffer
	sw := NewWriter(&buf)
	if err := body(sw); err != nil {
		return err
	}
	if err := sw.Err(); err != nil {
		return err
	}
	bw.Byte(id)
	bw.U32(uint32(buf.Len()))
	bw.Bytes(buf.Bytes())
	return bw.Err()
}

func encodeValType(w *Writer, v ast.ValueType) error {
	if !validValueType(byte(v)) {
		return errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
			Detail("invalid value type %#x", byte(v)).Build()
	}
	w.Byte(byte(v))
	return nil
}

func encodeResultType(w *Writer, types []ast.ValueType) error {
	w.U32(uint32(len(types)))
	for _, t := range types {
		if err := encodeValType(w, t); err != nil {
			return err
		}
	}
	return nil
}

func encodeTypeSection(w *Writer, types []ast.FunctionType) error {
	w.U32(uint32(len(types)))
	for _, ft := range types {
		w.Byte(TypeFunc)
		if err := encodeResultType(w, ft.Params); err != nil {
			return err
		}
		if err := encodeResultType(w, ft.Results); err != nil {
			return err
		}
	}
	return nil
}

func encodeLimits(w *Writer, l ast.Limits) {
	if l.Max == nil {
		w.Byte(limitMinOnly)
		w.U32(l.Min)
		return
	}
	w.Byte(limitMinMax)
	w.U32(l.Min)
	w.U32(*l.Max)
}

func encodeTableType(w *Writer, t ast.TableType) error {
	typ := t.Type
	if typ == 0 {
		typ = ast.FuncRef
	}
	if !validRefType(byte(typ)) {
		return errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
			Detail("invalid table element type %#x", byte(typ)).Build()
	}
	w.Byte(byte(typ))
	encodeLimits(w, t.Limits)
	return nil
}

func encodeGlobalType(w *Writer, t ast.GlobalType) error {
	if err := encodeValType(w, t.Type); err != nil {
		return err
	}
	if t.Mutable {
		w.Byte(0x01)
	} else {
		w.Byte(0x00)
	}
	return nil
}

func encodeImportSection(w *Writer, imports []ast.Import) error {
	w.U32(uint32(len(imports)))
	for _, imp := range imports {
		w.Name(imp.Module)
		w.Name(imp.Name)
		w.Byte(byte(imp.Kind))
		switch imp.Kind {
		case ast.ExternFunc:
			w.U32(imp.Func)
		case ast.ExternTable:
			if imp.Table == nil {
				return missingDesc("table")
			}
			if err := encodeTableType(w, *imp.Table); err != nil {
				return err
			}
		case ast.ExternMemory:
			if imp.Memory == nil {
				return missingDesc("memory")
			}
			encodeLimits(w, imp.Memory.Limits)
		case ast.ExternGlobal:
			if imp.Global == nil {
				return missingDesc("global")
			}
			if err := encodeGlobalType(w, *imp.Global); err != nil {
				return err
			}
		default:
			return errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
				Detail("invalid import kind %d", imp.Kind).Build()
		}
	}
	return nil
}

func missingDesc(kind string) error {
	return errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
		Detail("%s import has no %s type", kind, kind).Build()
}

func encodeFunctionSection(w *Writer, funcs []ast.TypeIndex) error {
	w.U32(uint32(len(funcs)))
	for _, ti := range funcs {
		w.U32(ti)
	}
	return nil
}

func encodeTableSection(w *Writer, tables []ast.TableType) error {
	w.U32(uint32(len(tables)))
	for _, t := range tables {
		if err := encodeTableType(w, t); err != nil {
			return err
		}
	}
	return nil
}

func encodeMemorySection(w *Writer, mems []ast.MemoryType) error {
	w.U32(uint32(len(mems)))
	for _, m := range mems {
		encodeLimits(w, m.Limits)
	}
	return nil
}

// encodeConstExpr writes an end-terminated initializer expression.
func encodeConstExpr(w *Writer, e ast.Expression) error {
	if err := encodeExpr(w, e); err != nil {
		return err
	}
	w.Byte(OpEnd)
	return nil
}

func encodeGlobalSection(w *Writer, globals []ast.Global) error {
	w.U32(uint32(len(globals)))
	for _, g := range globals {
		if err := encodeGlobalType(w, g.Type); err != nil {
			return err
		}
		if err := encodeConstExpr(w, g.Init); err != nil {
			return err
		}
	}
	return nil
}

func encodeExportSection(w *Writer, exports []ast.Export) error {
	w.U32(uint32(len(exports)))
	for _, e := range exports {
		w.Name(e.Name)
		w.Byte(byte(e.Kind))
		w.U32(e.Index)
	}
	return nil
}

// elementForm decides the minimal segment flags for e. Function-index
// initializers require the funcref element type; the short active form
// additionally requires table zero.
func elementForm(e ast.Element) (byte, ast.ReferenceType, error) {
	typ := e.Type
	if typ == 0 {
		typ = ast.FuncRef
	}
	if !validRefType(byte(typ)) {
		return 0, 0, errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
			Detail("invalid element type %#x", byte(typ)).Build()
	}
	exprForm := e.Inits != nil
	if !exprForm && typ != ast.FuncRef {
		return 0, 0, errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
			Detail("function index elements require funcref, got %s", typ).Build()
	}
	var flags byte
	switch e.Mode {
	case ast.ElementActive:
		if e.Table != 0 {
			flags = 0x02
		}
	case ast.ElementPassive:
		flags = 0x01
	case ast.ElementDeclarative:
		flags = 0x03
	default:
		return 0, 0, errors.New(errors.PhaseEncode, errors.KindInvalidImmediate).
			Detail("invalid element mode %d", e.Mode).Build()
	}
	if exprForm {
		flags |= 0x04
		// form 4 implies funcref; other element types need the explicit form
		if flags == 0x04 && typ != ast.FuncRef {
			flags = 0x06
		}
	}
	return flags, typ, nil
}

func encodeElementSection(w *Writer, elements []ast.Element) error {
	w.U32(uint32(len(elements)))
	for _, e := range elements {
		flags, typ, err := elementForm(e)
		if err != nil {
			return err
		}
		w.Byte(flags)
		if flags == 0x02 || flags == 0x06 {
			w.U32(e.Table)
		}
		if flags&0x03 == 0x00 || flags&0x03 == 0x02 {
			if err := encodeConstExpr(w, e.Offset); err != nil {
				return err
			}
		}
		if flags&0x04 == 0 {
			if flags != 0x00 {
				// elemkind, only function references defined
				w.Byte(0x00)
			}
			w.U32(uint32(len(e.Funcs)))
			for _, f := range e.Funcs {
				w.U32(f)
			}
		} else {
			if flags != 0x04 {
				w.Byte(byte(typ))
			}
			w.U32(uint32(len(e.Inits)))
			for _, init := range e.Inits {
				if err := encodeConstExpr(w, init); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func encodeCodeSection(w *Writer, code []ast.Function) error {
	w.U32(uint32(len(code)))
	for _, fn := range code {
		var buf bytes.Buffer
		fw := NewWriter(&buf)
		if err := encodeLocals(fw, fn.Locals); err != nil {
			return err
		}
		if err := encodeConstExpr(fw, fn.Body); err != nil {
			return err
		}
		if err := fw.Err(); err != nil {
			return err
		}
		w.U32(uint32(buf.Len()))
		w.Bytes(buf.Bytes())
	}
	return nil
}

// encodeLocals run-length encodes consecutive locals of the same type.
func encodeLocals(w *Writer, locals []ast.ValueType) error {
	type run struct {
		count uint32
		typ   ast.ValueType
	}
	var runs []run
	for _, t := range locals {
		if n := len(runs); n > 0 && runs[n-1].typ == t {
			runs[n-1].count++
			continue
		}
		runs = append(runs, run{count: 1, typ: t})
	}
	w.U32(uint32(len(runs)))
	for _, r := range runs {
		w.U32(r.count)
		if err := encodeValType(w, r.typ); err != nil {
			return err
		}
	}
	return nil
}

func encodeDataSection(w *Writer, data []ast.DataSegment) error {
	w.U32(uint32(len(data)))
	for _, seg := range data {
		switch {
		case seg.Mode == ast.DataPassive:
			w.Byte(0x01)
		case seg.Memory != 0:
			w.Byte(0x02)
			w.U32(seg.Memory)
		default:
			w.Byte(0x00)
		}
		if seg.Mode == ast.DataActive {
			if err := encodeConstExpr(w, seg.Offset); err != nil {
				return err
			}
		}
		w.U32(uint32(len(seg.Init)))
		w.Bytes(seg.Init)
	}
	return nil
}
