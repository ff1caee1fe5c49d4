package binary

import (
	"io"

	"go.uber.org/zap"

	"github.com/al3xfischer/wasm-ast/ast"
	"github.com/al3xfischer/wasm-ast/errors"
)

// DecodeModule reads a binary module from r. Section ordering is enforced,
// every section must consume exactly its declared size, and the code and
// function sections must agree on the number of functions. Validation beyond
// the grammar, such as index bounds or typing, is out of scope.
func DecodeModule(r io.Reader, opts ...Option) (*ast.Module, error) {
	br := NewReader(r, opts...)
	if err := decodePreamble(br); err != nil {
		return nil, err
	}

	m := &ast.Module{}
	lastRank := 0
	for {
		idPos := br.Position()
		id, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if id > SectionDataCount {
			return nil, errors.InvalidImmediate(idPos, "unknown section id %d", id)
		}
		if id != SectionCustom {
			rank := sectionRank[id]
			if rank <= lastRank {
				return nil, errors.InvalidImmediate(idPos, "section id %d out of order", id)
			}
			lastRank = rank
		}
		size, err := br.U32("section size")
		if err != nil {
			return nil, err
		}
		Logger().Debug("decoding section",
			zap.Uint8("id", id),
			zap.Uint32("size", size),
			zap.Int("offset", idPos))
		start := br.Position()
		if err := decodeSection(br, m, id, size); err != nil {
			return nil, err
		}
		if got := br.Position() - start; got != int(size) {
			return nil, errors.InvalidImmediate(start, "section %d declared %d bytes, consumed %d", id, size, got)
		}
	}
	if len(m.Code) != len(m.Functions) {
		return nil, errors.InvalidImmediate(br.Position(),
			"function section declares %d functions, code section has %d bodies", len(m.Functions), len(m.Code))
	}
	return m, nil
}

// sectionRank gives the position of each non-custom section in the required
// wire order. The data count section precedes code and data despite its
// higher id.
var sectionRank = [SectionDataCount + 1]int{
	SectionType:      1,
	SectionImport:    2,
	SectionFunction:  3,
	SectionTable:     4,
	SectionMemory:    5,
	SectionGlobal:    6,
	SectionExport:    7,
	SectionStart:     8,
	SectionElement:   9,
	SectionDataCount: 10,
	SectionCode:      11,
	SectionData:      12,
}

func decodePreamble(r *Reader) error {
	magic, err := r.U32LE("magic number")
	if err != nil {
		return err
	}
	if magic != Magic {
		return errors.InvalidImmediate(0, "bad magic number %#x", magic)
	}
	version, err := r.U32LE("version")
	if err != nil {
		return err
	}
	if version != Version {
		return errors.InvalidImmediate(4, "unsupported version %d", version)
	}
	return nil
}

func decodeSection(r *Reader, m *ast.Module, id byte, size uint32) error {
	switch id {
	case SectionCustom:
		return decodeCustomSection(r, m, size)
	case SectionType:
		return decodeTypeSection(r, m)
	case SectionImport:
		return decodeImportSection(r, m)
	case SectionFunction:
		return decodeFunctionSection(r, m)
	case SectionTable:
		return decodeTableSection(r, m)
	case SectionMemory:
		return decodeMemorySection(r, m)
	case SectionGlobal:
		return decodeGlobalSection(r, m)
	case SectionExport:
		return decodeExportSection(r, m)
	case SectionStart:
		start, err := r.U32("start function")
		if err != nil {
			return err
		}
		m.Start = &start
		return nil
	case SectionElement:
		return decodeElementSection(r, m)
	case SectionDataCount:
		count, err := r.U32("data count")
		if err != nil {
			return err
		}
		m.DataCount = &count
		return nil
	case SectionCode:
		return decodeCodeSection(r, m)
	default: // SectionData
		return decodeDataSection(r, m)
	}
}

func decodeCustomSection(r *Reader, m *ast.Module, size uint32) error {
	start := r.Position()
	name, err := r.Name()
	if err != nil {
		return err
	}
	consumed := r.Position() - start
	if int(size) < consumed {
		return errors.InvalidImmediate(start, "custom section name exceeds section size")
	}
	data, err := r.Bytes(size-uint32(consumed), "custom section payload")
	if err != nil {
		return err
	}
	m.Customs = append(m.Customs, ast.CustomSection{Name: name, Data: data})
	return nil
}

func decodeValType(r *Reader) (ast.ValueType, error) {
	pos := r.Position()
	b, err := r.need("value type")
	if err != nil {
		return 0, err
	}
	if !validValueType(b) {
		return 0, errors.InvalidImmediate(pos, "invalid value type %#x", b)
	}
	return ast.ValueType(b), nil
}

func decodeResultType(r *Reader) ([]ast.ValueType, error) {
	n, err := r.Count("result type")
	if err != nil {
		return nil, err
	}
	types := make([]ast.ValueType, n)
	for i := range types {
		if types[i], err = decodeValType(r); err != nil {
			return nil, err
		}
	}
	return types, nil
}

func decodeTypeSection(r *Reader, m *ast.Module) error {
	n, err := r.Count("type section")
	if err != nil {
		return err
	}
	m.Types = make([]ast.FunctionType, n)
	for i := range m.Types {
		pos := r.Position()
		tag, err := r.need("function type")
		if err != nil {
			return err
		}
		if tag != TypeFunc {
			return errors.InvalidImmediate(pos, "expected function type %#x, got %#x", TypeFunc, tag)
		}
		if m.Types[i].Params, err = decodeResultType(r); err != nil {
			return err
		}
		if m.Types[i].Results, err = decodeResultType(r); err != nil {
			return err
		}
	}
	return nil
}

func decodeLimits(r *Reader) (ast.Limits, error) {
	pos := r.Position()
	flag, err := r.need("limits flag")
	if err != nil {
		return ast.Limits{}, err
	}
	var l ast.Limits
	switch flag {
	case limitMinOnly:
		l.Min, err = r.U32("limits minimum")
		return l, err
	case limitMinMax:
		if l.Min, err = r.U32("limits minimum"); err != nil {
			return l, err
		}
		max, err := r.U32("limits maximum")
		if err != nil {
			return l, err
		}
		l.Max = &max
		return l, nil
	default:
		return l, errors.InvalidImmediate(pos, "invalid limits flag %#x", flag)
	}
}

func decodeRefType(r *Reader) (ast.ReferenceType, error) {
	pos := r.Position()
	b, err := r.need("reference type")
	if err != nil {
		return 0, err
	}
	if !validRefType(b) {
		return 0, errors.InvalidImmediate(pos, "invalid reference type %#x", b)
	}
	return ast.ReferenceType(b), nil
}

func decodeTableType(r *Reader) (ast.TableType, error) {
	typ, err := decodeRefType(r)
	if err != nil {
		return ast.TableType{}, err
	}
	limits, err := decodeLimits(r)
	if err != nil {
		return ast.TableType{}, err
	}
	return ast.TableType{Type: typ, Limits: limits}, nil
}

func decodeGlobalType(r *Reader) (ast.GlobalType, error) {
	typ, err := decodeValType(r)
	if err != nil {
		return ast.GlobalType{}, err
	}
	pos := r.Position()
	mut, err := r.need("mutability")
	if err != nil {
		return ast.GlobalType{}, err
	}
	if mut > 0x01 {
		return ast.GlobalType{}, errors.InvalidImmediate(pos, "invalid mutability %#x", mut)
	}
	return ast.GlobalType{Type: typ, Mutable: mut == 0x01}, nil
}

func decodeImportSection(r *Reader, m *ast.Module) error {
	n, err := r.Count("import section")
	if err != nil {
		return err
	}
	m.Imports = make([]ast.Import, n)
	for i := range m.Imports {
		imp := &m.Imports[i]
		if imp.Module, err = r.Name(); err != nil {
			return err
		}
		if imp.Name, err = r.Name(); err != nil {
			return err
		}
		pos := r.Position()
		kind, err := r.need("import kind")
		if err != nil {
			return err
		}
		imp.Kind = ast.ExternKind(kind)
		switch imp.Kind {
		case ast.ExternFunc:
			if imp.Func, err = r.U32("type index"); err != nil {
				return err
			}
		case ast.ExternTable:
			t, err := decodeTableType(r)
			if err != nil {
				return err
			}
			imp.Table = &t
		case ast.ExternMemory:
			limits, err := decodeLimits(r)
			if err != nil {
				return err
			}
			imp.Memory = &ast.MemoryType{Limits: limits}
		case ast.ExternGlobal:
			g, err := decodeGlobalType(r)
			if err != nil {
				return err
			}
			imp.Global = &g
		default:
			return errors.InvalidImmediate(pos, "invalid import kind %#x", kind)
		}
	}
	return nil
}

func decodeFunctionSection(r *Reader, m *ast.Module) error {
	n, err := r.Count("function section")
	if err != nil {
		return err
	}
	m.Functions = make([]ast.TypeIndex, n)
	for i := range m.Functions {
		if m.Functions[i], err = r.U32("type index"); err != nil {
			return err
		}
	}
	return nil
}

func decodeTableSection(r *Reader, m *ast.Module) error {
	n, err := r.Count("table section")
	if err != nil {
		return err
	}
	m.Tables = make([]ast.TableType, n)
	for i := range m.Tables {
		if m.Tables[i], err = decodeTableType(r); err != nil {
			return err
		}
	}
	return nil
}

func decodeMemorySection(r *Reader, m *ast.Module) error {
	n, err := r.Count("memory section")
	if err != nil {
		return err
	}
	m.Memories = make([]ast.MemoryType, n)
	for i := range m.Memories {
		limits, err := decodeLimits(r)
		if err != nil {
			return err
		}
		m.Memories[i] = ast.MemoryType{Limits: limits}
	}
	return nil
}

// decodeConstExpr reads an end-terminated initializer expression.
func decodeConstExpr(r *Reader) (ast.Expression, error) {
	d := &exprDecoder{r: r}
	e, _, err := d.block(false)
	if err != nil {
		return nil, err
	}
	if e == nil {
		e = ast.Expression{}
	}
	return e, nil
}

func decodeGlobalSection(r *Reader, m *ast.Module) error {
	n, err := r.Count("global section")
	if err != nil {
		return err
	}
	m.Globals = make([]ast.Global, n)
	for i := range m.Globals {
		if m.Globals[i].Type, err = decodeGlobalType(r); err != nil {
			return err
		}
		if m.Globals[i].Init, err = decodeConstExpr(r); err != nil {
			return err
		}
	}
	return nil
}

func decodeExportSection(r *Reader, m *ast.Module) error {
	n, err := r.Count("export section")
	if err != nil {
		return err
	}
	m.Exports = make([]ast.Export, n)
	for i := range m.Exports {
		exp := &m.Exports[i]
		if exp.Name, err = r.Name(); err != nil {
			return err
		}
		pos := r.Position()
		kind, err := r.need("export kind")
		if err != nil {
			return err
		}
		if kind > byte(ast.ExternGlobal) {
			return errors.InvalidImmediate(pos, "invalid export kind %#x", kind)
		}
		exp.Kind = ast.ExternKind(kind)
		if exp.Index, err = r.U32("export index"); err != nil {
			return err
		}
	}
	return nil
}

func decodeElementSection(r *Reader, m *ast.Module) error {
	n, err := r.Count("element section")
	if err != nil {
		return err
	}
	m.Elements = make([]ast.Element, n)
	for i := range m.Elements {
		if m.Elements[i], err = decodeElement(r); err != nil {
			return err
		}
	}
	return nil
}

func decodeElement(r *Reader) (ast.Element, error) {
	pos := r.Position()
	flags, err := r.U32("element flags")
	if err != nil {
		return ast.Element{}, err
	}
	if flags > 0x07 {
		return ast.Element{}, errors.InvalidImmediate(pos, "invalid element flags %#x", flags)
	}

	e := ast.Element{Type: ast.FuncRef}
	switch flags & 0x03 {
	case 0x00, 0x02:
		e.Mode = ast.ElementActive
	case 0x01:
		e.Mode = ast.ElementPassive
	default:
		e.Mode = ast.ElementDeclarative
	}
	if flags == 0x02 || flags == 0x06 {
		if e.Table, err = r.U32("table index"); err != nil {
			return ast.Element{}, err
		}
	}
	if e.Mode == ast.ElementActive {
		if e.Offset, err = decodeConstExpr(r); err != nil {
			return ast.Element{}, err
		}
	}
	if flags&0x04 == 0 {
		if flags != 0x00 {
			kindPos := r.Position()
			kind, err := r.need("element kind")
			if err != nil {
				return ast.Element{}, err
			}
			if kind != 0x00 {
				return ast.Element{}, errors.InvalidImmediate(kindPos, "invalid element kind %#x", kind)
			}
		}
		cnt, err := r.Count("element function indices")
		if err != nil {
			return ast.Element{}, err
		}
		e.Funcs = make([]ast.FunctionIndex, cnt)
		for i := range e.Funcs {
			if e.Funcs[i], err = r.U32("function index"); err != nil {
				return ast.Element{}, err
			}
		}
	} else {
		if flags != 0x04 {
			if e.Type, err = decodeRefType(r); err != nil {
				return ast.Element{}, err
			}
		}
		cnt, err := r.Count("element initializers")
		if err != nil {
			return ast.Element{}, err
		}
		e.Inits = make([]ast.Expression, cnt)
		for i := range e.Inits {
			if e.Inits[i], err = decodeConstExpr(r); err != nil {
				return ast.Element{}, err
			}
		}
	}
	return e, nil
}

func decodeCodeSection(r *Reader, m *ast.Module) error {
	n, err := r.Count("code section")
	if err != nil {
		return err
	}
	m.Code = make([]ast.Function, n)
	for i := range m.Code {
		size, err := r.U32("function body size")
		if err != nil {
			return err
		}
		start := r.Position()
		if m.Code[i], err = decodeFuncBody(r); err != nil {
			return err
		}
		if got := r.Position() - start; got != int(size) {
			return errors.InvalidImmediate(start, "function body declared %d bytes, consumed %d", size, got)
		}
	}
	return nil
}

func decodeFuncBody(r *Reader) (ast.Function, error) {
	runs, err := r.Count("local declarations")
	if err != nil {
		return ast.Function{}, err
	}
	var fn ast.Function
	var total uint64
	for i := uint32(0); i < runs; i++ {
		pos := r.Position()
		cnt, err := r.U32("local count")
		if err != nil {
			return ast.Function{}, err
		}
		total += uint64(cnt)
		if total > uint64(r.limits.MaxItems) {
			return ast.Function{}, errors.LimitExceeded(pos, "local count %d exceeds limit %d", total, r.limits.MaxItems)
		}
		typ, err := decodeValType(r)
		if err != nil {
			return ast.Function{}, err
		}
		for j := uint32(0); j < cnt; j++ {
			fn.Locals = append(fn.Locals, typ)
		}
	}
	if fn.Body, err = decodeConstExpr(r); err != nil {
		return ast.Function{}, err
	}
	return fn, nil
}

func decodeDataSection(r *Reader, m *ast.Module) error {
	n, err := r.Count("data section")
	if err != nil {
		return err
	}
	m.Data = make([]ast.DataSegment, n)
	for i := range m.Data {
		pos := r.Position()
		flags, err := r.U32("data flags")
		if err != nil {
			return err
		}
		seg := &m.Data[i]
		switch flags {
		case 0x00:
			seg.Mode = ast.DataActive
		case 0x01:
			seg.Mode = ast.DataPassive
		case 0x02:
			seg.Mode = ast.DataActive
			if seg.Memory, err = r.U32("memory index"); err != nil {
				return err
			}
		default:
			return errors.InvalidImmediate(pos, "invalid data flags %#x", flags)
		}
		if seg.Mode == ast.DataActive {
			if seg.Offset, err = decodeConstExpr(r); err != nil {
				return err
			}
		}
		cnt, err := r.Count("data payload")
		if err != nil {
			return err
		}
		if seg.Init, err = r.Bytes(cnt, "data payload"); err != nil {
			return err
		}
	}
	return nil
}
