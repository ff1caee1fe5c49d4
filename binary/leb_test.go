package binary_test

import (
	"bytes"
	stderrors "errors"
	"math"
	"testing"

	"github.com/al3xfischer/wasm-ast/binary"
	"github.com/al3xfischer/wasm-ast/errors"
)

func TestWriterUnsigned(t *testing.T) {
	tests := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{624485, []byte{0xE5, 0x8E, 0x26}},
		{math.MaxUint32, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}},
		{math.MaxUint64, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		w := binary.NewWriter(&buf)
		w.Uleb(tt.v)
		if err := w.Err(); err != nil {
			t.Fatalf("Uleb(%d): %v", tt.v, err)
		}
		if !bytes.Equal(buf.Bytes(), tt.want) {
			t.Errorf("Uleb(%d) = %x, want %x", tt.v, buf.Bytes(), tt.want)
		}
		if w.Len() != len(tt.want) {
			t.Errorf("Uleb(%d) Len() = %d, want %d", tt.v, w.Len(), len(tt.want))
		}
	}
}

func TestWriterSigned(t *testing.T) {
	tests := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{-1, []byte{0x7F}},
		{63, []byte{0x3F}},
		{64, []byte{0xC0, 0x00}},
		{-64, []byte{0x40}},
		{-65, []byte{0xBF, 0x7F}},
		{-123456, []byte{0xC0, 0xBB, 0x78}},
		{math.MaxInt32, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x07}},
		{math.MinInt32, []byte{0x80, 0x80, 0x80, 0x80, 0x78}},
		{math.MinInt64, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x7F}},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		w := binary.NewWriter(&buf)
		w.Sleb(tt.v)
		if err := w.Err(); err != nil {
			t.Fatalf("Sleb(%d): %v", tt.v, err)
		}
		if !bytes.Equal(buf.Bytes(), tt.want) {
			t.Errorf("Sleb(%d) = %x, want %x", tt.v, buf.Bytes(), tt.want)
		}
	}
}

func TestReaderUnsignedRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 16384, 624485, math.MaxUint32, math.MaxUint64}
	for _, v := range values {
		var buf bytes.Buffer
		w := binary.NewWriter(&buf)
		w.Uleb(v)
		r := binary.NewReader(&buf)
		got, err := r.U64("value")
		if err != nil {
			t.Fatalf("U64 after Uleb(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d gave %d", v, got)
		}
	}
}

func TestReaderSignedRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 63, 64, -64, -65, math.MaxInt32, math.MinInt32, math.MaxInt64, math.MinInt64}
	for _, v := range values {
		var buf bytes.Buffer
		w := binary.NewWriter(&buf)
		w.Sleb(v)
		r := binary.NewReader(&buf)
		got, err := r.S64("value")
		if err != nil {
			t.Fatalf("S64 after Sleb(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d gave %d", v, got)
		}
	}
}

func TestReaderMalformedUnsigned(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"u32 six bytes", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}},
		{"u32 overflow in final byte", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x1F}},
		{"u32 unterminated final byte", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x8F}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := binary.NewReader(bytes.NewReader(tt.input))
			_, err := r.U32("value")
			if !errors.IsKind(err, errors.KindMalformedInteger) {
				t.Errorf("got %v, want KindMalformedInteger", err)
			}
		})
	}
}

func TestReaderMalformedSigned(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		bits  uint
	}{
		{"s32 positive overflow", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}, 32},
		{"s32 negative overflow", []byte{0x80, 0x80, 0x80, 0x80, 0x70}, 32},
		{"s64 eleven bytes", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}, 64},
		{"s64 bad sign bits", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x3E}, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := binary.NewReader(bytes.NewReader(tt.input))
			_, err := r.Sleb(tt.bits, "value")
			if !errors.IsKind(err, errors.KindMalformedInteger) {
				t.Errorf("got %v, want KindMalformedInteger", err)
			}
		})
	}
}

func TestReaderSignedBoundary(t *testing.T) {
	// The widest valid 5-byte forms of the 32-bit range.
	r := binary.NewReader(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x07}))
	v, err := r.S32("value")
	if err != nil || v != math.MaxInt32 {
		t.Errorf("S32 max = %d, %v", v, err)
	}
	r = binary.NewReader(bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x78}))
	v, err = r.S32("value")
	if err != nil || v != math.MinInt32 {
		t.Errorf("S32 min = %d, %v", v, err)
	}
}

func TestReaderTruncated(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		read  func(*binary.Reader) error
	}{
		{"uleb cut mid-value", []byte{0x80}, func(r *binary.Reader) error { _, err := r.U32("v"); return err }},
		{"sleb cut mid-value", []byte{0xFF, 0xFF}, func(r *binary.Reader) error { _, err := r.S64("v"); return err }},
		{"f32 cut short", []byte{0x00, 0x00}, func(r *binary.Reader) error { _, err := r.F32("v"); return err }},
		{"f64 empty", nil, func(r *binary.Reader) error { _, err := r.F64("v"); return err }},
		{"name cut short", []byte{0x05, 'h', 'i'}, func(r *binary.Reader) error { _, err := r.Name(); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := binary.NewReader(bytes.NewReader(tt.input))
			err := tt.read(r)
			if !errors.IsKind(err, errors.KindUnexpectedEOF) {
				t.Errorf("got %v, want KindUnexpectedEOF", err)
			}
		})
	}
}

func TestStrictIntegers(t *testing.T) {
	tests := []struct {
		name   string
		input  []byte
		read   func(*binary.Reader) (int64, error)
		want   int64
		strict bool
	}{
		{
			"padded unsigned",
			[]byte{0x85, 0x80, 0x00},
			func(r *binary.Reader) (int64, error) { v, err := r.U32("v"); return int64(v), err },
			5, false,
		},
		{
			"padded negative",
			[]byte{0xFF, 0x7F},
			func(r *binary.Reader) (int64, error) { v, err := r.S32("v"); return int64(v), err },
			-1, false,
		},
		{
			"padded zero",
			[]byte{0x80, 0x00},
			func(r *binary.Reader) (int64, error) { return r.S64("v") },
			0, false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name+" tolerant", func(t *testing.T) {
			r := binary.NewReader(bytes.NewReader(tt.input))
			v, err := tt.read(r)
			if err != nil {
				t.Fatalf("tolerant decode: %v", err)
			}
			if v != tt.want {
				t.Errorf("tolerant decode = %d, want %d", v, tt.want)
			}
		})
		t.Run(tt.name+" strict", func(t *testing.T) {
			r := binary.NewReader(bytes.NewReader(tt.input), binary.WithStrictIntegers())
			_, err := tt.read(r)
			if !errors.IsKind(err, errors.KindMalformedInteger) {
				t.Errorf("strict decode: got %v, want KindMalformedInteger", err)
			}
		})
	}

	// Minimal forms pass strict mode untouched.
	r := binary.NewReader(bytes.NewReader([]byte{0x40}), binary.WithStrictIntegers())
	if v, err := r.S32("v"); err != nil || v != -64 {
		t.Errorf("strict minimal decode = %d, %v", v, err)
	}
}

func TestFloatBitPatterns(t *testing.T) {
	// NaN payloads and signed zeros survive the trip bit for bit.
	f32bits := []uint32{0x00000000, 0x80000000, 0x3F800000, 0x7FC00001, 0xFF800000}
	for _, bits := range f32bits {
		var buf bytes.Buffer
		w := binary.NewWriter(&buf)
		w.F32(math.Float32frombits(bits))
		r := binary.NewReader(&buf)
		got, err := r.F32("value")
		if err != nil {
			t.Fatalf("F32 bits %#x: %v", bits, err)
		}
		if math.Float32bits(got) != bits {
			t.Errorf("F32 bits %#x came back as %#x", bits, math.Float32bits(got))
		}
	}

	f64bits := []uint64{0x0000000000000000, 0x8000000000000000, 0x3FF0000000000000, 0x7FF8000000000001}
	for _, bits := range f64bits {
		var buf bytes.Buffer
		w := binary.NewWriter(&buf)
		w.F64(math.Float64frombits(bits))
		r := binary.NewReader(&buf)
		got, err := r.F64("value")
		if err != nil {
			t.Fatalf("F64 bits %#x: %v", bits, err)
		}
		if math.Float64bits(got) != bits {
			t.Errorf("F64 bits %#x came back as %#x", bits, math.Float64bits(got))
		}
	}

	// Little-endian layout on the wire.
	var buf bytes.Buffer
	w := binary.NewWriter(&buf)
	w.F32(1.0)
	if want := []byte{0x00, 0x00, 0x80, 0x3F}; !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("F32(1.0) = %x, want %x", buf.Bytes(), want)
	}
}

func TestReaderName(t *testing.T) {
	var buf bytes.Buffer
	w := binary.NewWriter(&buf)
	w.Name("memory")
	r := binary.NewReader(&buf)
	got, err := r.Name()
	if err != nil || got != "memory" {
		t.Errorf("Name() = %q, %v", got, err)
	}

	r = binary.NewReader(bytes.NewReader([]byte{0x02, 0xFF, 0xFE}))
	if _, err := r.Name(); !errors.IsKind(err, errors.KindInvalidImmediate) {
		t.Errorf("invalid UTF-8 name: got %v, want KindInvalidImmediate", err)
	}
}

func TestCountLimit(t *testing.T) {
	var buf bytes.Buffer
	w := binary.NewWriter(&buf)
	w.U32(500)
	r := binary.NewReader(&buf, binary.WithMaxItems(100))
	_, err := r.Count("items")
	if !errors.IsKind(err, errors.KindLimitExceeded) {
		t.Errorf("got %v, want KindLimitExceeded", err)
	}
}

func TestReaderPosition(t *testing.T) {
	r := binary.NewReader(bytes.NewReader([]byte{0xE5, 0x8E, 0x26, 0x01}))
	if _, err := r.U32("v"); err != nil {
		t.Fatal(err)
	}
	if r.Position() != 3 {
		t.Errorf("Position() = %d, want 3", r.Position())
	}

	// Errors carry the offset where the bad value started.
	r = binary.NewReader(bytes.NewReader([]byte{0x01, 0x80, 0x80, 0x80, 0x80, 0x80, 0x00}))
	if _, err := r.U32("v"); err != nil {
		t.Fatal(err)
	}
	_, err := r.U32("v")
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("got %T, want *errors.Error", err)
	}
	if e.Offset != 1 {
		t.Errorf("error offset = %d, want 1", e.Offset)
	}
}
