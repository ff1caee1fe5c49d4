// Package binary converts between the ast model and the WebAssembly binary
// format.
//
// The entry points come in pairs: EncodeInstruction/DecodeInstruction for a
// single instruction, EncodeExpression/DecodeExpression for a bare
// instruction sequence, and EncodeModule/DecodeModule for a whole module.
// Encoding reports the number of bytes written; decoding reports the byte
// offset of any failure through the errors package.
//
// Decoding is safe on untrusted input. Vector lengths are capped before
// allocation, structured nesting is bounded by an explicit depth counter, and
// every limit is adjustable per call:
//
//	expr, err := binary.DecodeExpression(r, binary.WithMaxNesting(64))
//
// Round-tripping is bit-exact for instruction streams the encoder itself
// produces: integers are written in minimal LEB128 form and floats preserve
// their exact bit patterns, NaN payloads included. Foreign input with padded
// LEB128 encodings is accepted by default and comes out shorter when
// re-encoded; WithStrictIntegers rejects such input instead.
package binary
