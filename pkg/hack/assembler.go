package hack

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/common"
)

// Memory map of the Hack platform.
const (
	ScreenBase   = 16384
	KeyboardAddr = 24576
	RAMSize      = 32768
	VariableBase = 16
	MaxAddress   = 32767
)

var predefinedSymbols = map[string]int{
	"SP":     0,
	"LCL":    1,
	"ARG":    2,
	"THIS":   3,
	"THAT":   4,
	"SCREEN": ScreenBase,
	"KBD":    KeyboardAddr,
}

func init() {
	for i := 0; i < 16; i++ {
		predefinedSymbols["R"+strconv.Itoa(i)] = i
	}
}

// compCodes maps a computation to its a-bit and six ALU control bits.
var compCodes = map[string]uint16{
	"0":   0b0101010,
	"1":   0b0111111,
	"-1":  0b0111010,
	"D":   0b0001100,
	"A":   0b0110000,
	"!D":  0b0001101,
	"!A":  0b0110001,
	"-D":  0b0001111,
	"-A":  0b0110011,
	"D+1": 0b0011111,
	"A+1": 0b0110111,
	"D-1": 0b0001110,
	"A-1": 0b0110010,
	"D+A": 0b0000010,
	"D-A": 0b0010011,
	"A-D": 0b0000111,
	"D&A": 0b0000000,
	"D|A": 0b0010101,
	"M":   0b1110000,
	"!M":  0b1110001,
	"-M":  0b1110011,
	"M+1": 0b1110111,
	"M-1": 0b1110010,
	"D+M": 0b1000010,
	"D-M": 0b1010011,
	"M-D": 0b1000111,
	"D&M": 0b1000000,
	"D|M": 0b1010101,
}

// Commuted spellings accepted for the symmetric operations.
var compAliases = map[string]string{
	"A+D": "D+A",
	"M+D": "D+M",
	"A&D": "D&A",
	"M&D": "D&M",
	"A|D": "D|A",
	"M|D": "D|M",
	"1+D": "D+1",
	"1+A": "A+1",
	"1+M": "M+1",
}

var jumpCodes = map[string]uint16{
	"":    0b000,
	"JGT": 0b001,
	"JEQ": 0b010,
	"JGE": 0b011,
	"JLT": 0b100,
	"JNE": 0b101,
	"JLE": 0b110,
	"JMP": 0b111,
}

// Program is an assembled Hack program.
type Program struct {
	Words     []uint16
	Symbols   map[string]int // labels and allocated variables
	SourceMap []int          // ROM address to 1-based source line
}

// Assembler is a two-pass Hack assembler.
type Assembler struct {
	symbols map[string]int
	labels  map[string]int
	nextVar int
}

type parsedLine struct {
	lineNo int
	label  string
	value  string // A-instruction operand
	dest   string
	comp   string
	jump   string
	isA    bool
}

func NewAssembler() *Assembler {
	symbols := make(map[string]int, len(predefinedSymbols))
	for k, v := range predefinedSymbols {
		symbols[k] = v
	}
	return &Assembler{symbols: symbols, labels: make(map[string]int), nextVar: VariableBase}
}

// Assemble is a shortcut for NewAssembler().Assemble(code).
func Assemble(code string) (*Program, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) (*Program, error) {
	lines := strings.Split(code, "\n")
	parsed := make([]parsedLine, 0, len(lines))
	for i, raw := range lines {
		p, ok, err := parseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		if ok {
			parsed = append(parsed, p)
		}
	}
	if err := a.pass1(parsed); err != nil {
		return nil, err
	}
	return a.pass2(parsed)
}

func (a *Assembler) pass1(lines []parsedLine) error {
	address := 0
	for _, p := range lines {
		if p.label != "" {
			if _, exists := a.labels[p.label]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", p.label, p.lineNo)
			}
			if _, exists := predefinedSymbols[p.label]; exists {
				return fmt.Errorf("label '%s' on line %d redefines a predefined symbol", p.label, p.lineNo)
			}
			a.labels[p.label] = address
			a.symbols[p.label] = address
			continue
		}
		address++
		if address > MaxAddress+1 {
			return fmt.Errorf("program too large near line %d", p.lineNo)
		}
	}
	return nil
}

func (a *Assembler) pass2(lines []parsedLine) (*Program, error) {
	program := &Program{Symbols: make(map[string]int)}
	for k, v := range a.labels {
		program.Symbols[k] = v
	}
	for _, p := range lines {
		if p.label != "" {
			continue
		}
		word, err := a.encode(p, program)
		if err != nil {
			return nil, err
		}
		program.Words = append(program.Words, word)
		program.SourceMap = append(program.SourceMap, p.lineNo)
	}
	return program, nil
}

func (a *Assembler) encode(p parsedLine, program *Program) (uint16, error) {
	if p.isA {
		if n, err := strconv.Atoi(p.value); err == nil {
			if n < 0 || n > MaxAddress {
				return 0, fmt.Errorf("constant %d out of range on line %d", n, p.lineNo)
			}
			return uint16(n), nil
		}
		if !common.IsSymbol(p.value) {
			return 0, fmt.Errorf("invalid symbol '%s' on line %d", p.value, p.lineNo)
		}
		address, ok := a.symbols[p.value]
		if !ok {
			address = a.nextVar
			a.nextVar++
			a.symbols[p.value] = address
			program.Symbols[p.value] = address
		}
		return uint16(address), nil
	}

	comp := p.comp
	if alias, ok := compAliases[comp]; ok {
		comp = alias
	}
	compBits, ok := compCodes[comp]
	if !ok {
		return 0, fmt.Errorf("invalid computation '%s' on line %d", p.comp, p.lineNo)
	}
	var destBits uint16
	for _, r := range p.dest {
		switch r {
		case 'A':
			destBits |= 0b100
		case 'D':
			destBits |= 0b010
		case 'M':
			destBits |= 0b001
		default:
			return 0, fmt.Errorf("invalid destination '%s' on line %d", p.dest, p.lineNo)
		}
	}
	jumpBits, ok := jumpCodes[p.jump]
	if !ok {
		return 0, fmt.Errorf("invalid jump '%s' on line %d", p.jump, p.lineNo)
	}
	return 0b111<<13 | compBits<<6 | destBits<<3 | jumpBits, nil
}

// parseLine reports ok=false for blank and comment-only lines.
func parseLine(raw string, lineNo int) (parsedLine, bool, error) {
	line := raw
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	line = strings.Join(strings.Fields(line), "")
	if line == "" {
		return parsedLine{}, false, nil
	}
	p := parsedLine{lineNo: lineNo}
	switch {
	case strings.HasPrefix(line, "("):
		if !strings.HasSuffix(line, ")") || !common.IsSymbol(line[1:len(line)-1]) {
			return p, false, fmt.Errorf("invalid label declaration '%s' on line %d", raw, lineNo)
		}
		p.label = line[1 : len(line)-1]
	case strings.HasPrefix(line, "@"):
		p.isA = true
		p.value = line[1:]
		if p.value == "" {
			return p, false, fmt.Errorf("missing A-instruction operand on line %d", lineNo)
		}
	default:
		rest := line
		if dest, after, found := strings.Cut(rest, "="); found {
			p.dest = dest
			rest = after
		}
		if comp, jump, found := strings.Cut(rest, ";"); found {
			p.comp = comp
			p.jump = jump
		} else {
			p.comp = rest
		}
	}
	return p, true, nil
}

// WriteHack writes the program as .hack text: one 16-digit binary word per
// line.
func (p *Program) WriteHack(output io.Writer) error {
	for _, w := range p.Words {
		if _, err := fmt.Fprintf(output, "%016b\n", w); err != nil {
			return err
		}
	}
	return nil
}
