package symtab

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	asciitree "github.com/thediveo/go-asciitree"
	"gopkg.in/yaml.v3"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/common"
)

// WriteFunc renders a table to an output stream.
type WriteFunc func(t *Table, output io.Writer) error

// PickWriteFunc selects the writer for a symbol-format name.
func PickWriteFunc(format string) (WriteFunc, error) {
	switch strings.ToUpper(format) {
	case common.FormatText, "":
		return WriteText, nil
	case common.FormatYAML:
		return WriteYAML, nil
	case common.FormatTree:
		return WriteTree, nil
	case common.FormatTable:
		return WritePrettyTable, nil
	}
	return nil, common.NewConfigurationError("unknown symbol-format '%s'", format)
}

// WriteText writes one `name=>address` line per entry.
func WriteText(t *Table, output io.Writer) error {
	for _, e := range t.Entries() {
		if _, err := fmt.Fprintf(output, "%s=>%d\n", e.Name, e.Address); err != nil {
			return err
		}
	}
	return nil
}

// WriteYAML writes the entries as a YAML sequence.
func WriteYAML(t *Table, output io.Writer) error {
	encoder := yaml.NewEncoder(output)
	encoder.SetIndent(2)
	entries := t.Entries()
	if entries == nil {
		entries = []Entry{}
	}
	if err := encoder.Encode(entries); err != nil {
		return err
	}
	return encoder.Close()
}

// WritePrettyTable writes the entries as a boxed table.
func WritePrettyTable(t *Table, output io.Writer) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(output)
	tw.SetTitle("Symbol Table")
	tw.AppendHeader(table.Row{"Label", "Address", "Kind", "File", "Function", "Line"})
	for _, e := range t.Entries() {
		tw.AppendRow(table.Row{e.Name, e.Address, e.Kind, e.File, e.Function, e.LineNumber})
	}
	tw.AppendFooter(table.Row{"", t.Size(), "words", "", "", ""})
	tw.Render()
	return nil
}

type AsciiNode struct {
	Label    string      `asciitree:"label"`
	Props    []string    `asciitree:"properties"`
	Children []AsciiNode `asciitree:"children"`
}

// convertToTree groups the entries by file and then by function.
func convertToTree(t *Table) AsciiNode {
	root := AsciiNode{Label: "symbols", Props: []string{"size: " + strconv.Itoa(t.Size())}}
	fileAt := map[string]int{}
	funcAt := map[string]int{}
	for _, e := range t.Entries() {
		file := e.File
		if file == "" {
			file = "<bootstrap>"
		}
		fi, ok := fileAt[file]
		if !ok {
			fi = len(root.Children)
			fileAt[file] = fi
			root.Children = append(root.Children, AsciiNode{Label: file})
		}
		fileNode := &root.Children[fi]
		leaf := AsciiNode{
			Label: e.Name,
			Props: []string{
				fmt.Sprintf("address: %d", e.Address),
				fmt.Sprintf("kind: %s", e.Kind),
				fmt.Sprintf("line: %d", e.LineNumber),
			},
		}
		if e.Function == "" {
			fileNode.Children = append(fileNode.Children, leaf)
			continue
		}
		key := file + "\x00" + e.Function
		fni, ok := funcAt[key]
		if !ok {
			fni = len(fileNode.Children)
			funcAt[key] = fni
			fileNode.Children = append(fileNode.Children, AsciiNode{Label: e.Function})
		}
		fileNode.Children[fni].Children = append(fileNode.Children[fni].Children, leaf)
	}
	return root
}

// WriteTree renders the entries as an ascii tree: files, then functions,
// then labels.
func WriteTree(t *Table, output io.Writer) error {
	_, err := fmt.Fprintln(output, asciitree.RenderFancy(convertToTree(t)))
	return err
}

// WriteFile writes the table to path in the given format. A failure to flush
// the file on close is reported like a write failure.
func WriteFile(t *Table, format string, path string) error {
	writeFunc, err := PickWriteFunc(format)
	if err != nil {
		return err
	}
	f, err := os.Create(path) // #nosec G304 - path derived from user-specified output
	if err != nil {
		return fmt.Errorf("failed to create symbol table file: %w", err)
	}
	if err := writeFunc(t, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write symbol table: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close symbol table file: %w", err)
	}
	return nil
}
