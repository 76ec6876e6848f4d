package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/parser"
)

// Version is injected at build time via ldflags.
var Version = "dev"

const DEFAULT_FORMAT = "TEXT"

func main() {
	var format = flag.String("f", DEFAULT_FORMAT, "Output format (TEXT, JSON, TREE)")
	var formatLong = flag.String("format", DEFAULT_FORMAT, "Output format (TEXT, JSON, TREE)")
	var inputFile = flag.String("input", "", "Input file (defaults to stdin)")
	var srcName = flag.String("src-name", "", "File identifier for stdin input (defaults to Main)")
	var version = flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	if *version {
		fmt.Printf("vm-parser version %s\n", Version)
		os.Exit(0)
	}

	// Use the long form if provided, otherwise use the short form.
	selectedFormat := *format
	if *formatLong != DEFAULT_FORMAT {
		selectedFormat = *formatLong
	}
	printFunc, err := parser.PickPrintFunc(selectedFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var input io.Reader = os.Stdin
	name := "Main"
	if *inputFile != "" {
		f, err := os.Open(*inputFile) // #nosec G304 - CLI tool reads user-specified input files
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		input = f
		name = parser.FileIdentifier(*inputFile)
	}
	if *srcName != "" {
		name = *srcName
	}

	insts, err := parser.NewParser(input, name, nil).ReadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse error: %v\n", err)
		os.Exit(1)
	}
	if err := printFunc(insts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}
