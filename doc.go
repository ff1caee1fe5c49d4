// Package wasmast models WebAssembly modules, instructions, and types as
// plain Go values, and converts them to and from the binary format.
//
// The module is split into three packages:
//
//   - ast holds the syntax model: one struct per instruction, grouped into
//     the seven instruction families, plus the module structure.
//   - binary is the codec: LEB128 and IEEE 754 primitives, the instruction
//     and expression codec, and the full module codec, with configurable
//     limits for decoding untrusted input.
//   - errors classifies codec failures by phase and kind, each carrying the
//     byte offset where the input went wrong.
//
// Validation and execution are out of scope. The model represents exactly
// what the bytes say, whether or not the program they describe is well typed;
// pair it with a runtime such as wazero when the code needs to run.
package wasmast
