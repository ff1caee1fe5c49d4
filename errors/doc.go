// Package errors provides structured error types for the wasm-ast codec.
//
// Errors are categorized by Phase (encode or decode) and Kind (error category).
// The Error type carries the byte offset the failure was detected at and an
// optional cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindInvalidImmediate).
//		Offset(pos).
//		Detail("block type 0x%02x", tag).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnexpectedEOF(pos, "branch table")
//	err := errors.UnknownOpcode(pos, op)
//
// All errors implement the standard error interface and support errors.Is/As.
// Two codec errors match under errors.Is when their Phase and Kind agree.
package errors
