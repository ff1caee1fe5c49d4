package binary

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/al3xfischer/wasm-ast/errors"
)

// Writer emits binary format primitives to an io.Writer. It is sticky: the
// first sink failure is recorded and every later call becomes a no-op, so a
// sequence of writes needs a single error check at the end via Err. Len
// reports the bytes successfully written, which is the byte count the encode
// entry points return.
//
// Integer writes always use minimal LEB128.
type Writer struct {
	w   io.Writer
	n   int
	err error
	// scratch avoids a per-write allocation.
	scratch [10]byte
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.n
}

// Err returns the first sink failure, or nil.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.n += n
	if err != nil {
		w.err = errors.IO(errors.PhaseEncode, w.n, err)
	}
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.scratch[0] = b
	w.write(w.scratch[:1])
}

// Bytes writes a raw byte sequence with no length prefix.
func (w *Writer) Bytes(p []byte) {
	w.write(p)
}

// Uleb writes an unsigned LEB128 value.
func (w *Writer) Uleb(v uint64) {
	i := 0
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.scratch[i] = b
		i++
		if v == 0 {
			break
		}
	}
	w.write(w.scratch[:i])
}

// U32 writes an unsigned LEB128 uint32.
func (w *Writer) U32(v uint32) {
	w.Uleb(uint64(v))
}

// U64 writes an unsigned LEB128 uint64.
func (w *Writer) U64(v uint64) {
	w.Uleb(v)
}

// Sleb writes a signed LEB128 value. The same encoding serves s32, s33, and
// s64 since signed LEB128 is self-terminating.
func (w *Writer) Sleb(v int64) {
	i := 0
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			w.scratch[i] = b
			i++
			break
		}
		w.scratch[i] = b | 0x80
		i++
	}
	w.write(w.scratch[:i])
}

// S32 writes a signed LEB128 int32.
func (w *Writer) S32(v int32) {
	w.Sleb(int64(v))
}

// S64 writes a signed LEB128 int64.
func (w *Writer) S64(v int64) {
	w.Sleb(v)
}

// F32 writes a float in 4-byte little-endian IEEE 754 form. The bit pattern
// is preserved exactly, NaN payloads included.
func (w *Writer) F32(v float32) {
	binary.LittleEndian.PutUint32(w.scratch[:4], math.Float32bits(v))
	w.write(w.scratch[:4])
}

// F64 writes a float in 8-byte little-endian IEEE 754 form. The bit pattern
// is preserved exactly, NaN payloads included.
func (w *Writer) F64(v float64) {
	binary.LittleEndian.PutUint64(w.scratch[:8], math.Float64bits(v))
	w.write(w.scratch[:8])
}

// U32LE writes a fixed-width 4-byte little-endian uint32, used only for the
// module preamble.
func (w *Writer) U32LE(v uint32) {
	binary.LittleEndian.PutUint32(w.scratch[:4], v)
	w.write(w.scratch[:4])
}

// Name writes a length-prefixed UTF-8 name.
func (w *Writer) Name(s string) {
	w.U32(uint32(len(s)))
	w.write([]byte(s))
}
