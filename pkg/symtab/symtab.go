package symtab

import (
	"strings"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/codegen"
	"github.com/netlogic-xing/hack-vm-compiler/pkg/common"
)

// Entry is one label definition found in the generated code.
type Entry struct {
	Name       string `yaml:"name"`
	Address    int    `yaml:"address"`
	Kind       string `yaml:"kind"`
	File       string `yaml:"file,omitempty"`
	Function   string `yaml:"function,omitempty"`
	LineNumber int    `yaml:"line"`
}

// Table maps assembly labels to the ROM address they resolve to. Entries are
// kept in discovery order.
type Table struct {
	entries  common.List[Entry]
	index    map[string]int
	pc       int
	function string
}

func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Observe accounts for the fragment generated for inst. Label definitions in
// the fragment are recorded at the current ROM address; every other
// assembly line advances the address by one.
func (t *Table) Observe(inst common.Instruction, currentFile string, fragment string) {
	if inst.Op == common.OpFunction {
		t.function = inst.Name
	}
	kinds := make(map[string]codegen.LabelType)
	for _, label := range codegen.Labels(inst, currentFile) {
		kinds[label.Text] = label.Type
	}
	for _, line := range strings.Split(fragment, "\n") {
		line = strings.TrimSpace(line)
		if i := strings.Index(line, "//"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")") {
			name := line[1 : len(line)-1]
			kind, ok := kinds[name]
			if !ok {
				kind = codegen.UserLabel
			}
			t.define(Entry{
				Name:       name,
				Address:    t.pc,
				Kind:       kind.String(),
				File:       currentFile,
				Function:   t.function,
				LineNumber: inst.LineNumber,
			})
			continue
		}
		t.pc++
	}
}

func (t *Table) define(entry Entry) {
	if _, ok := t.index[entry.Name]; ok {
		// First definition wins, as in the assembler.
		return
	}
	t.index[entry.Name] = t.entries.Len()
	t.entries.Add(entry)
}

// Lookup returns the entry for an assembly label.
func (t *Table) Lookup(name string) (Entry, bool) {
	i, ok := t.index[name]
	if !ok {
		return Entry{}, false
	}
	return t.entries.Items()[i], true
}

// Entries returns the entries in discovery order.
func (t *Table) Entries() []Entry {
	return t.entries.Items()
}

// Size is the number of ROM words accounted for so far.
func (t *Table) Size() int {
	return t.pc
}
