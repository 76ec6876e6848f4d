package translator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/common"
	"github.com/netlogic-xing/hack-vm-compiler/pkg/parser"
)

// SourceExtension is the extension of VM source files.
const SourceExtension = ".vm"

// Source is one VM source file of a compilation unit.
type Source struct {
	Name        string // file identifier, e.g. "Main" for Main.vm
	Path        string // empty for in-memory sources
	Reader      io.Reader
	Synthesized bool
}

// StringSource wraps in-memory VM text as a source named name.
func StringSource(name string, text string) Source {
	return Source{Name: name, Reader: strings.NewReader(text)}
}

// Inputs is the resolved set of input paths and the assembly file they
// translate to.
type Inputs struct {
	Paths  []string
	Output string
}

// ResolveInputs expands command-line arguments the way the translator
// accepts them: a single .vm file (output beside it), a directory (every .vm
// file in it, output <dir>.asm), or several .vm files (output named after the
// first).
func ResolveInputs(args []string) (*Inputs, error) {
	if len(args) == 0 {
		return nil, common.NewConfigurationError("no VM file or directory given")
	}
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return nil, common.NewConfigurationError("cannot access '%s': %v", args[0], err)
		}
		if info.IsDir() {
			dir := filepath.Clean(args[0])
			paths, err := filepath.Glob(filepath.Join(dir, "*"+SourceExtension))
			if err != nil {
				return nil, common.NewConfigurationError("cannot list '%s': %v", dir, err)
			}
			if len(paths) == 0 {
				return nil, common.NewConfigurationError("no %s files found in directory '%s'", SourceExtension, dir)
			}
			sort.Strings(paths)
			return &Inputs{Paths: paths, Output: dir + ".asm"}, nil
		}
	}
	var paths []string
	for _, arg := range args {
		if !strings.HasSuffix(arg, SourceExtension) {
			return nil, common.NewConfigurationError("'%s' is neither a %s file nor a directory", arg, SourceExtension)
		}
		paths = append(paths, arg)
	}
	output := strings.TrimSuffix(paths[0], SourceExtension) + ".asm"
	return &Inputs{Paths: paths, Output: output}, nil
}

// OpenSources opens every path. The returned function closes them all.
func OpenSources(paths []string) ([]Source, func() error, error) {
	var files []*os.File
	closeAll := func() error {
		var first error
		for _, f := range files {
			if err := f.Close(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path) // #nosec G304 - CLI tool reads user-specified input files
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to open input file: %w", err)
		}
		files = append(files, f)
		sources = append(sources, Source{Name: parser.FileIdentifier(path), Path: path, Reader: f})
	}
	return sources, closeAll, nil
}
