package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which codec direction the error occurred in
type Phase string

const (
	PhaseEncode Phase = "encode" // model tree to binary
	PhaseDecode Phase = "decode" // binary to model tree
)

// Kind categorizes the error
type Kind string

const (
	KindIO               Kind = "io"                // sink/source failure
	KindMalformedInteger Kind = "malformed_integer" // LEB128 value exceeds target width
	KindUnexpectedEOF    Kind = "unexpected_eof"    // source exhausted mid-value or mid-structure
	KindUnknownOpcode    Kind = "unknown_opcode"    // byte maps to no defined instruction
	KindInvalidImmediate Kind = "invalid_immediate" // tag value outside its defined range
	KindLimitExceeded    Kind = "limit_exceeded"    // declared length or nesting over the safety bound
)

// Error is the structured error type used throughout the codec
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Offset int // byte offset in the stream, -1 when unknown
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether err or any error it wraps is a codec *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Offset sets the byte offset the error was detected at
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// IO creates a sink or source failure error
func IO(phase Phase, offset int, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIO,
		Offset: offset,
		Cause:  cause,
	}
}

// UnexpectedEOF creates an error for a source exhausted mid-value or mid-structure
func UnexpectedEOF(offset int, what string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnexpectedEOF,
		Offset: offset,
		Detail: what,
	}
}

// MalformedInteger creates an error for a variable-length integer that does not
// fit its target width, or is not minimally encoded under strict decoding
func MalformedInteger(offset int, detail string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMalformedInteger,
		Offset: offset,
		Detail: detail,
	}
}

// UnknownOpcode creates an error for a byte that maps to no defined instruction
func UnknownOpcode(offset int, opcode byte) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownOpcode,
		Offset: offset,
		Detail: fmt.Sprintf("opcode 0x%02x", opcode),
	}
}

// UnknownSubOpcode creates an error for an undefined extended sub-opcode
func UnknownSubOpcode(offset int, prefix byte, sub uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownOpcode,
		Offset: offset,
		Detail: fmt.Sprintf("opcode 0x%02x sub-opcode %d", prefix, sub),
	}
}

// InvalidImmediate creates an error for a tag value outside its defined range
func InvalidImmediate(offset int, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidImmediate,
		Offset: offset,
		Detail: detail,
	}
}

// LimitExceeded creates an error for a declared vector length or nesting depth
// over the configured safety bound
func LimitExceeded(offset int, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindLimitExceeded,
		Offset: offset,
		Detail: detail,
	}
}
