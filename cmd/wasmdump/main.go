package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/al3xfischer/wasm-ast/ast"
	"github.com/al3xfischer/wasm-ast/binary"
)

func main() {
	var (
		wasmFile   = flag.String("wasm", "", "Path to wasm module file")
		strict     = flag.Bool("strict", false, "Reject non-minimal integer encodings")
		maxNesting = flag.Int("max-nesting", 0, "Override the nesting depth limit")
		listCode   = flag.Bool("code", false, "List function bodies instruction by instruction")
		verbose    = flag.Bool("v", false, "Log section framing while decoding")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: wasmdump -wasm <file.wasm> [-strict] [-code] [-v]")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		binary.SetLogger(logger)
	}

	if err := dump(*wasmFile, *strict, *maxNesting, *listCode); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func dump(wasmFile string, strict bool, maxNesting int, listCode bool) error {
	f, err := os.Open(wasmFile)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var opts []binary.Option
	if strict {
		opts = append(opts, binary.WithStrictIntegers())
	}
	if maxNesting > 0 {
		opts = append(opts, binary.WithMaxNesting(maxNesting))
	}

	m, err := binary.DecodeModule(f, opts...)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	fmt.Printf("Module: %s\n", wasmFile)
	fmt.Printf("Types: %d\n", len(m.Types))
	fmt.Printf("Functions: %d (%d imported)\n", m.NumImportedFuncs()+uint32(len(m.Functions)), m.NumImportedFuncs())
	fmt.Printf("Tables: %d  Memories: %d  Globals: %d\n", len(m.Tables), len(m.Memories), len(m.Globals))
	fmt.Printf("Elements: %d  Data segments: %d\n", len(m.Elements), len(m.Data))

	for _, imp := range m.Imports {
		fmt.Printf("  import %s %q %q\n", imp.Kind, imp.Module, imp.Name)
	}
	for _, exp := range m.Exports {
		fmt.Printf("  export %s %q -> %d\n", exp.Kind, exp.Name, exp.Index)
	}
	if m.Start != nil {
		fmt.Printf("  start %d\n", *m.Start)
	}
	for _, c := range m.Customs {
		fmt.Printf("  custom section %q (%d bytes)\n", c.Name, len(c.Data))
	}

	if listCode {
		for i, fn := range m.Code {
			idx := m.NumImportedFuncs() + uint32(i)
			ft, err := m.FuncType(idx)
			if err != nil {
				return err
			}
			fmt.Printf("\nfunc %d %s -> %s (%d locals)\n", idx, types(ft.Params), types(ft.Results), len(fn.Locals))
			printExpr(fn.Body, 1)
		}
	}
	return nil
}

func types(ts []ast.ValueType) string {
	if len(ts) == 0 {
		return "()"
	}
	out := "("
	for i, t := range ts {
		if i > 0 {
			out += " "
		}
		out += t.String()
	}
	return out + ")"
}

func printExpr(e ast.Expression, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	for _, in := range e {
		switch v := in.(type) {
		case ast.Block:
			fmt.Printf("%sblock\n", indent)
			printExpr(v.Body, depth+1)
		case ast.Loop:
			fmt.Printf("%sloop\n", indent)
			printExpr(v.Body, depth+1)
		case ast.If:
			fmt.Printf("%sif\n", indent)
			printExpr(v.Then, depth+1)
			if v.Else != nil {
				fmt.Printf("%selse\n", indent)
				printExpr(v.Else, depth+1)
			}
		default:
			fmt.Printf("%s%#v\n", indent, in)
		}
	}
}
