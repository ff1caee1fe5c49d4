package binary

import (
	"bufio"
	"encoding/binary"
	stderrors "errors"
	"io"
	"math"
	"unicode/utf8"

	"github.com/al3xfischer/wasm-ast/errors"
)

// Reader consumes binary format primitives from a byte stream, tracking the
// absolute byte offset so every error can say where the input went wrong.
// Reads never consume past the value they decode, which lets callers resume
// at the next value after a successful read.
type Reader struct {
	r      io.ByteReader
	pos    int
	limits Limits
}

// NewReader returns a Reader over r. Readers that do not implement
// io.ByteReader are wrapped in a bufio.Reader.
func NewReader(r io.Reader, opts ...Option) *Reader {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br, limits: applyOptions(opts)}
}

// Position returns the number of bytes consumed so far.
func (r *Reader) Position() int {
	return r.pos
}

// ReadByte reads one byte. A clean end of input surfaces as io.EOF; callers
// positioned inside a value use the other read methods, which report
// truncation instead.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		return 0, errors.IO(errors.PhaseDecode, r.pos, err)
	}
	r.pos++
	return b, nil
}

// need reads one byte of a value whose presence is already implied, so end of
// input is truncation rather than a clean stop.
func (r *Reader) need(what string) (byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, errors.UnexpectedEOF(r.pos, what)
		}
		return 0, err
	}
	return b, nil
}

// Uleb reads an unsigned LEB128 value of at most bits bits.
func (r *Reader) Uleb(bits uint, what string) (uint64, error) {
	start := r.pos
	maxBytes := int((bits + 6) / 7)
	var v uint64
	var shift uint
	for i := 0; i < maxBytes; i++ {
		b, err := r.need(what)
		if err != nil {
			return 0, err
		}
		if i == maxBytes-1 {
			if b&0x80 != 0 {
				return 0, errors.MalformedInteger(start, "unsigned integer too long")
			}
			if rem := bits - 7*uint(maxBytes-1); b>>rem != 0 {
				return 0, errors.MalformedInteger(start, "unsigned integer out of range")
			}
		}
		v |= uint64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if r.limits.StrictIntegers && i > 0 && b == 0 {
				return 0, errors.MalformedInteger(start, "non-minimal unsigned encoding")
			}
			return v, nil
		}
	}
	return 0, errors.MalformedInteger(start, "unsigned integer too long")
}

// U32 reads an unsigned LEB128 uint32.
func (r *Reader) U32(what string) (uint32, error) {
	v, err := r.Uleb(32, what)
	return uint32(v), err
}

// U64 reads an unsigned LEB128 uint64.
func (r *Reader) U64(what string) (uint64, error) {
	return r.Uleb(64, what)
}

// Sleb reads a signed LEB128 value of at most bits bits, sign bit included.
func (r *Reader) Sleb(bits uint, what string) (int64, error) {
	start := r.pos
	maxBytes := int((bits + 6) / 7)
	var v int64
	var shift uint
	var prev byte
	for i := 0; i < maxBytes; i++ {
		b, err := r.need(what)
		if err != nil {
			return 0, err
		}
		if i == maxBytes-1 {
			if b&0x80 != 0 {
				return 0, errors.MalformedInteger(start, "signed integer too long")
			}
			// The unused high bits of the final byte must all equal the
			// sign bit.
			rem := bits - 7*uint(maxBytes-1)
			mask := byte(0x7f<<(rem-1)) & 0x7f
			if pad := b & mask; pad != 0 && pad != mask {
				return 0, errors.MalformedInteger(start, "signed integer out of range")
			}
		}
		v |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				v |= ^int64(0) << shift
			}
			if r.limits.StrictIntegers && i > 0 {
				if (b == 0 && prev&0x40 == 0) || (b == 0x7f && prev&0x40 != 0) {
					return 0, errors.MalformedInteger(start, "non-minimal signed encoding")
				}
			}
			return v, nil
		}
		prev = b
	}
	return 0, errors.MalformedInteger(start, "signed integer too long")
}

// S32 reads a signed LEB128 int32.
func (r *Reader) S32(what string) (int32, error) {
	v, err := r.Sleb(32, what)
	return int32(v), err
}

// S33 reads a signed LEB128 value of up to 33 bits, the block type encoding.
func (r *Reader) S33(what string) (int64, error) {
	return r.Sleb(33, what)
}

// S64 reads a signed LEB128 int64.
func (r *Reader) S64(what string) (int64, error) {
	return r.Sleb(64, what)
}

// Bytes reads exactly n bytes, subject to the MaxItems limit.
func (r *Reader) Bytes(n uint32, what string) ([]byte, error) {
	if n > r.limits.MaxItems {
		return nil, errors.LimitExceeded(r.pos, "%s length %d exceeds limit %d", what, n, r.limits.MaxItems)
	}
	buf := make([]byte, n)
	for i := range buf {
		b, err := r.need(what)
		if err != nil {
			return nil, err
		}
		buf[i] = b
	}
	return buf, nil
}

// F32 reads a 4-byte little-endian IEEE 754 float, preserving the exact bit
// pattern.
func (r *Reader) F32(what string) (float32, error) {
	buf, err := r.Bytes(4, what)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(buf)), nil
}

// F64 reads an 8-byte little-endian IEEE 754 float, preserving the exact bit
// pattern.
func (r *Reader) F64(what string) (float64, error) {
	buf, err := r.Bytes(8, what)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}

// U32LE reads a fixed-width 4-byte little-endian uint32, used only for the
// module preamble.
func (r *Reader) U32LE(what string) (uint32, error) {
	buf, err := r.Bytes(4, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// Count reads a vector length and checks it against MaxItems before the
// caller allocates anything.
func (r *Reader) Count(what string) (uint32, error) {
	start := r.pos
	n, err := r.U32(what)
	if err != nil {
		return 0, err
	}
	if n > r.limits.MaxItems {
		return 0, errors.LimitExceeded(start, "%s count %d exceeds limit %d", what, n, r.limits.MaxItems)
	}
	return n, nil
}

// Name reads a length-prefixed UTF-8 name.
func (r *Reader) Name() (string, error) {
	n, err := r.Count("name")
	if err != nil {
		return "", err
	}
	data, err := r.Bytes(n, "name")
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errors.InvalidImmediate(r.pos-int(n), "name is not valid UTF-8")
	}
	return string(data), nil
}
