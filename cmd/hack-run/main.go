package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tebeka/atexit"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/common"
	"github.com/netlogic-xing/hack-vm-compiler/pkg/hack"
)

// Version is injected at build time via ldflags.
var Version = "dev"

const usage = `hack-run - assembles a Hack .asm file and runs it on an emulated Hack CPU

Usage: hack-run [options] FILE.asm`

func main() {
	var showHelp, showVersion, debug bool
	var steps int
	var hackOut, until string
	var stackBase int

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\nOptions:\n", usage)
		flag.PrintDefaults()
	}

	flag.BoolVar(&showHelp, "h", false, "Show help")
	flag.BoolVar(&showHelp, "help", false, "Show help")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&debug, "debug", false, "Log at debug level")
	flag.IntVar(&steps, "steps", 1000000, "Maximum number of instructions to execute")
	flag.StringVar(&until, "until", "", "Stop when the PC reaches this label")
	flag.StringVar(&hackOut, "hack", "", "Also write the binary .hack program to this path")
	flag.IntVar(&stackBase, "stack-base", common.StackBase, "Address of the bottom of the stack for the dump")

	flag.Parse()

	if showHelp {
		flag.Usage()
		atexit.Exit(0)
	}
	if showVersion {
		fmt.Printf("hack-run version %s\n", Version)
		atexit.Exit(0)
	}

	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.NArg() != 1 {
		flag.Usage()
		atexit.Exit(1)
	}

	src, err := os.ReadFile(flag.Arg(0)) // #nosec G304 - CLI tool reads user-specified input files
	if err != nil {
		fail(err)
	}

	program, err := hack.Assemble(string(src))
	if err != nil {
		fail(err)
	}
	slog.Debug("assembled", "words", len(program.Words), "symbols", len(program.Symbols))

	if hackOut != "" {
		f, err := os.Create(hackOut) // #nosec G304
		if err != nil {
			fail(err)
		}
		if err := program.WriteHack(f); err != nil {
			f.Close()
			fail(err)
		}
		if err := f.Close(); err != nil {
			fail(err)
		}
	}

	done := func(*hack.Machine) bool { return false }
	if until != "" {
		addr, ok := program.Symbols[until]
		if !ok {
			fail(fmt.Errorf("unknown label %q", until))
		}
		done = hack.AtAddress(addr)
	}

	machine := hack.NewMachine(program)
	runErr := machine.RunUntil(done, steps)
	if runErr != nil && !errors.Is(runErr, hack.ErrStepLimit) {
		fail(runErr)
	}
	if runErr != nil {
		slog.Warn("stopped", "reason", runErr, "pc", machine.PC)
	}

	printState(machine, stackBase)
	atexit.Exit(0)
}

func printState(m *hack.Machine, stackBase int) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Hack Machine")
	t.AppendHeader(table.Row{"Register", "Value"})
	t.AppendRows([]table.Row{
		{"PC", m.PC},
		{"A", m.A},
		{"D", m.D},
		{"SP", m.RAM[0]},
		{"LCL", m.RAM[1]},
		{"ARG", m.RAM[2]},
		{"THIS", m.RAM[3]},
		{"THAT", m.RAM[4]},
	})
	stack := m.Stack(stackBase)
	cells := make([]string, len(stack))
	for i, v := range stack {
		cells[i] = fmt.Sprint(v)
	}
	t.AppendFooter(table.Row{"Steps", m.Steps})
	t.Render()
	fmt.Printf("stack: [%s]\n", strings.Join(cells, " "))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	atexit.Exit(1)
}
