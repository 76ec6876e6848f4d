package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/bundler"
)

// Version is injected at build time via ldflags.
var Version = "dev"

const usage = `vm-bundle - inspects a sqlite bundle written by vm-translator --bundle`

func main() {
	var showHelp, showVersion, migrate bool
	var bundleFile, unit, callersOf string

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\nUsage:\n", usage)
		flag.PrintDefaults()
	}

	flag.BoolVar(&showHelp, "h", false, "Show help")
	flag.BoolVar(&showHelp, "help", false, "Show help")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&migrate, "migrate", false, "Perform database migration")
	flag.StringVar(&bundleFile, "bundle", "", "Bundle file path (required)")
	flag.StringVar(&unit, "unit", "", "Unit name; prints its assembly unless --callers is given")
	flag.StringVar(&callersOf, "callers", "", "List the functions of --unit that call this function")

	flag.Parse()

	if showHelp {
		flag.Usage()
		atexit.Exit(0)
	}

	if showVersion {
		fmt.Printf("vm-bundle version %s\n", Version)
		atexit.Exit(0)
	}

	// Bundle file is mandatory.
	if bundleFile == "" {
		fmt.Fprintf(os.Stderr, "Error: --bundle flag is required\n")
		flag.Usage()
		atexit.Exit(1)
	}

	_, err := os.Stat(bundleFile)
	fileExists := err == nil

	b, err := bundler.NewBundler(bundleFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create bundler: %v\n", err)
		atexit.Exit(1)
	}
	atexit.Register(func() { b.Close() })

	if err := b.EnsureSchema(fileExists, migrate); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v. Use --migrate to update.\n", err)
		atexit.Exit(1)
	}

	if unit == "" {
		fmt.Fprintf(os.Stderr, "Bundle schema is up to date.\n")
		atexit.Exit(0)
	}

	if callersOf != "" {
		callers, err := b.Callers(unit, callersOf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			atexit.Exit(1)
		}
		for _, caller := range callers {
			if caller == "" {
				caller = "<bootstrap>"
			}
			fmt.Println(caller)
		}
		atexit.Exit(0)
	}

	assembly, err := b.LoadAssembly(unit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}
	fmt.Print(assembly)
	atexit.Exit(0)
}
