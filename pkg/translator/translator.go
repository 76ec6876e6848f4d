package translator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/codegen"
	"github.com/netlogic-xing/hack-vm-compiler/pkg/common"
	"github.com/netlogic-xing/hack-vm-compiler/pkg/parser"
	"github.com/netlogic-xing/hack-vm-compiler/pkg/symtab"
)

// Function records a function declaration seen during translation.
type Function struct {
	Name       string
	File       string
	NLocals    int
	LineNumber int
}

// CallSite records a call instruction seen during translation.
type CallSite struct {
	Caller     string
	Callee     string
	NArgs      int
	LineNumber int
}

// FileSummary describes one translated source file.
type FileSummary struct {
	Name         string
	Path         string
	Synthesized  bool
	Instructions int
	Text         string
}

// Result describes a completed translation.
type Result struct {
	Files        []FileSummary
	Functions    []Function
	Calls        []CallSite
	Symbols      *symtab.Table
	Instructions int
	Bootstrap    bool
}

// Translator drives a compilation unit from VM sources to Hack assembly.
type Translator struct {
	options *common.Options
	logger  *slog.Logger
	listing io.Writer
}

// NewTranslator creates a translator. A nil options value means defaults.
func NewTranslator(options *common.Options) *Translator {
	if options == nil {
		options = common.DefaultOptions()
	}
	return &Translator{options: options, logger: slog.Default()}
}

// WithLogger replaces the default logger.
func (t *Translator) WithLogger(logger *slog.Logger) *Translator {
	t.logger = logger
	return t
}

// WithListing sets a writer that receives the generated code annotated with
// the VM source of each instruction.
func (t *Translator) WithListing(listing io.Writer) *Translator {
	t.listing = listing
	return t
}

// SynthesizedEntry is the entry file used when no source defines the entry
// point: it calls the main function and then spins forever.
func SynthesizedEntry(options *common.Options) string {
	return strings.Join([]string{
		common.NewFunction(options.EntryPoint, 0).String(),
		common.NewCall(options.MainFunction, 0).String(),
		common.NewLabel("WHILE").String(),
		common.NewGoto("WHILE").String(),
	}, "\n") + "\n"
}

// Order arranges the sources for translation. Outside direct mode the entry
// file is moved to the front, or synthesized there when missing.
func (t *Translator) Order(sources []Source) ([]Source, error) {
	if len(sources) == 0 {
		return nil, common.NewConfigurationError("no VM source files to translate")
	}
	seen := make(map[string]bool)
	for _, src := range sources {
		if seen[src.Name] {
			return nil, common.NewConfigurationError("duplicate source file '%s'", src.Name)
		}
		seen[src.Name] = true
	}
	if t.options.DirectMode {
		return sources, nil
	}

	entryFile := t.options.EntryFile()
	ordered := make([]Source, 0, len(sources)+1)
	var rest []Source
	for _, src := range sources {
		if src.Name == entryFile {
			ordered = append(ordered, src)
		} else {
			rest = append(rest, src)
		}
	}
	if len(ordered) == 0 {
		t.logger.Debug("synthesizing entry file", "file", entryFile, "entry", t.options.EntryPoint, "main", t.options.MainFunction)
		synthesized := StringSource(entryFile, SynthesizedEntry(t.options))
		synthesized.Synthesized = true
		ordered = append(ordered, synthesized)
	}
	return append(ordered, rest...), nil
}

// Translate parses and translates every source, writing the assembly to
// output. It stops at the first error.
func (t *Translator) Translate(ctx context.Context, sources []Source, output io.Writer) (*Result, error) {
	if err := t.options.Validate(); err != nil {
		return nil, err
	}
	ordered, err := t.Order(sources)
	if err != nil {
		return nil, err
	}

	result := &Result{Symbols: symtab.NewTable()}
	if !t.options.DirectMode && t.options.EmitBootstrap {
		boot := codegen.Bootstrap(t.options.StackBase, t.options.EntryPoint)
		if err := t.emit(output, boot, "bootstrap"); err != nil {
			return nil, err
		}
		call := codegen.BootstrapCall(t.options.EntryPoint)
		result.Symbols.Observe(call, "", boot)
		result.Calls = append(result.Calls, CallSite{Callee: call.Name, NArgs: call.Count, LineNumber: call.LineNumber})
		result.Bootstrap = true
	}

	counter := parser.NewLineCounter()
	for _, src := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		summary, err := t.translateFile(src, counter, output, result)
		if err != nil {
			return nil, err
		}
		t.logger.Debug("translated file", "file", src.Name, "instructions", summary.Instructions, "synthesized", src.Synthesized)
		result.Files = append(result.Files, summary)
		result.Instructions += summary.Instructions
	}
	return result, nil
}

func (t *Translator) translateFile(src Source, counter *parser.LineCounter, output io.Writer, result *Result) (FileSummary, error) {
	summary := FileSummary{Name: src.Name, Path: src.Path, Synthesized: src.Synthesized}
	var text strings.Builder
	reader := io.TeeReader(src.Reader, &text)
	p := parser.NewParser(reader, src.Name, counter)
	function := ""
	for {
		inst, err := p.Next()
		if err != nil {
			return summary, err
		}
		if inst == nil {
			break
		}
		fragment := codegen.Generate(*inst, src.Name)
		if err := t.emit(output, fragment, inst.SourceText); err != nil {
			return summary, err
		}
		result.Symbols.Observe(*inst, src.Name, fragment)
		switch inst.Op {
		case common.OpFunction:
			function = inst.Name
			result.Functions = append(result.Functions, Function{Name: inst.Name, File: src.Name, NLocals: inst.Count, LineNumber: inst.LineNumber})
		case common.OpCall:
			result.Calls = append(result.Calls, CallSite{Caller: function, Callee: inst.Name, NArgs: inst.Count, LineNumber: inst.LineNumber})
		}
		summary.Instructions++
	}
	summary.Text = text.String()
	return summary, nil
}

func (t *Translator) emit(output io.Writer, fragment string, note string) error {
	if _, err := io.WriteString(output, fragment); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if t.listing != nil {
		if _, err := io.WriteString(t.listing, Annotate(fragment, note)); err != nil {
			return fmt.Errorf("failed to write listing: %w", err)
		}
	}
	return nil
}

// Annotate appends `//note` to the first line of a fragment.
func Annotate(fragment string, note string) string {
	first, rest, found := strings.Cut(fragment, "\n")
	if !found {
		return first + " //" + note + "\n"
	}
	return first + " //" + note + "\n" + rest
}
