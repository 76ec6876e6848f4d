package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tebeka/atexit"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/bundler"
	"github.com/netlogic-xing/hack-vm-compiler/pkg/common"
	"github.com/netlogic-xing/hack-vm-compiler/pkg/symtab"
	"github.com/netlogic-xing/hack-vm-compiler/pkg/translator"
)

// Version is injected at build time via ldflags.
var Version = "dev"

const usage = `vm-translator - translates Hack VM code into Hack assembly

Usage:
  vm-translator [options] file1.vm [file2.vm ...]
  vm-translator [options] directory

A single file Foo.vm is translated to Foo.asm; a directory Dir is translated
to Dir.asm. Unless -s is given, Sys.vm is translated first (a default one that
calls Main.main is supplied when missing) and bootstrap code is emitted.

Options:
`

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	atexit.Exit(1)
}

func main() {
	var showHelp, showVersion, debug, symbols, verbose, simple, noBoot, migrate bool
	var configFile, outputFile, format, bundleFile string

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n", usage)
		flag.PrintDefaults()
	}

	flag.BoolVar(&showHelp, "h", false, "Show help")
	flag.BoolVar(&showHelp, "help", false, "Show help")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&debug, "debug", false, "Enable debug output to stderr")
	flag.BoolVar(&symbols, "g", false, "Generate symbol table")
	flag.BoolVar(&symbols, "generate-symbol-table", false, "Generate symbol table")
	flag.BoolVar(&verbose, "v", false, "Print the annotated assembly to stdout")
	flag.BoolVar(&verbose, "verbose", false, "Print the annotated assembly to stdout")
	flag.BoolVar(&simple, "s", false, "Compile directly: no bootstrap, no Sys.vm handling")
	flag.BoolVar(&simple, "simple", false, "Compile directly: no bootstrap, no Sys.vm handling")
	flag.BoolVar(&noBoot, "n", false, "Do not emit bootstrap code")
	flag.BoolVar(&noBoot, "no-boot", false, "Do not emit bootstrap code")
	flag.StringVar(&configFile, "config", "", "YAML file containing translator options (optional)")
	flag.StringVar(&outputFile, "o", "", "Output file (defaults to one derived from the input)")
	flag.StringVar(&outputFile, "output", "", "Output file (defaults to one derived from the input)")
	flag.StringVar(&format, "f", "", "Symbol table format (TEXT, YAML, TREE, TABLE)")
	flag.StringVar(&format, "format", "", "Symbol table format (TEXT, YAML, TREE, TABLE)")
	flag.StringVar(&bundleFile, "bundle", "", "Record the unit in this sqlite bundle (optional)")
	flag.BoolVar(&migrate, "migrate", false, "Migrate an existing bundle to the current schema")

	flag.Parse()

	if showHelp {
		flag.Usage()
		atexit.Exit(0)
	}

	if showVersion {
		fmt.Printf("vm-translator version %s\n", Version)
		atexit.Exit(0)
	}

	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Options come from the config file, then explicit flags override them.
	options := common.DefaultOptions()
	if configFile != "" {
		var err error
		options, err = common.LoadOptionsFile(configFile)
		if err != nil {
			fail("%v", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v", "verbose":
			options.Verbose = verbose
		case "s", "simple":
			options.DirectMode = simple
		case "n", "no-boot":
			options.EmitBootstrap = !noBoot
		case "f", "format":
			options.SymbolFormat = strings.ToUpper(format)
		}
	})
	if err := options.Validate(); err != nil {
		fail("%v", err)
	}
	logger.Debug("options", "options", options.String())

	inputs, err := translator.ResolveInputs(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		atexit.Exit(1)
	}
	if outputFile != "" {
		inputs.Output = outputFile
	}

	sources, closeSources, err := translator.OpenSources(inputs.Paths)
	if err != nil {
		fail("%v", err)
	}
	atexit.Register(func() { closeSources() })

	t := translator.NewTranslator(options).WithLogger(logger)
	if options.Verbose {
		t.WithListing(os.Stdout)
	}

	var asm bytes.Buffer
	result, err := t.Translate(context.Background(), sources, &asm)
	if err != nil {
		fail("%v", err)
	}

	if err := os.WriteFile(inputs.Output, asm.Bytes(), 0o644); err != nil {
		fail("failed to write output file: %v", err)
	}
	logger.Debug("wrote assembly", "file", inputs.Output, "instructions", result.Instructions, "words", result.Symbols.Size())

	if symbols {
		writeSymbols(result.Symbols, options.SymbolFormat, strings.TrimSuffix(inputs.Output, ".asm")+".tbl")
	}

	if bundleFile != "" {
		writeBundle(bundleFile, migrate, unitName(inputs.Output), result, asm.String())
		logger.Debug("recorded unit in bundle", "bundle", bundleFile)
	}

	atexit.Exit(0)
}

// unitName names a bundle unit after its output file, e.g. "Prog" for
// "dir/Prog.asm".
func unitName(output string) string {
	return strings.TrimSuffix(filepath.Base(output), ".asm")
}

func writeSymbols(table *symtab.Table, format string, path string) {
	if err := symtab.WriteFile(table, format, path); err != nil {
		fail("%v", err)
	}
}

func writeBundle(bundleFile string, migrate bool, unit string, result *translator.Result, asm string) {
	_, err := os.Stat(bundleFile)
	fileExists := err == nil

	b, err := bundler.NewBundler(bundleFile)
	if err != nil {
		fail("failed to create bundler: %v", err)
	}
	atexit.Register(func() { b.Close() })

	if err := b.EnsureSchema(fileExists, migrate); err != nil {
		fail("%v", err)
	}
	if err := b.ProcessUnit(unit, result, asm); err != nil {
		fail("failed to process unit: %v", err)
	}
}
