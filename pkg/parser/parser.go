package parser

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/common"
)

// CommentMarker starts a comment that runs to the end of the line.
const CommentMarker = "//"

// LineCounter hands out the global instruction numbers of a compilation
// unit. One counter is shared by the parsers of every file in the unit so
// that numbers never repeat.
type LineCounter struct {
	next int
}

// NewLineCounter returns a counter whose first number is 1. Zero is left
// for the bootstrap call.
func NewLineCounter() *LineCounter {
	return &LineCounter{next: 1}
}

// Peek returns the number the next instruction will receive.
func (c *LineCounter) Peek() int {
	return c.next
}

func (c *LineCounter) advance() int {
	n := c.next
	c.next++
	return n
}

// Parser reads VM source lines from a single file and produces instructions
// lazily, one per call to Next.
type Parser struct {
	scanner  *bufio.Scanner
	file     string
	counter  *LineCounter
	fileLine int
	err      error
}

// NewParser creates a parser for one source file. The counter may be shared
// with the parsers of other files in the same unit.
func NewParser(input io.Reader, file string, counter *LineCounter) *Parser {
	if counter == nil {
		counter = NewLineCounter()
	}
	return &Parser{
		scanner: bufio.NewScanner(input),
		file:    file,
		counter: counter,
	}
}

// StringToParser creates a parser over in-memory source with its own counter.
func StringToParser(input string, file string) *Parser {
	return NewParser(strings.NewReader(input), file, NewLineCounter())
}

// File returns the source file identifier the parser stamps on instructions.
func (p *Parser) File() string {
	return p.file
}

// Next returns the next instruction, or nil at the end of input. After an
// error every further call returns the same error.
func (p *Parser) Next() (*common.Instruction, error) {
	if p.err != nil {
		return nil, p.err
	}
	for p.scanner.Scan() {
		p.fileLine++
		text := StripComment(p.scanner.Text())
		if text == "" {
			continue
		}
		inst, err := ParseLine(text, p.file, p.counter.Peek())
		if err != nil {
			if pe, ok := err.(*common.ParseError); ok {
				pe.FileLine = p.fileLine
			}
			p.err = err
			return nil, err
		}
		p.counter.advance()
		return &inst, nil
	}
	if err := p.scanner.Err(); err != nil {
		p.err = fmt.Errorf("reading %s: %w", p.file, err)
		return nil, p.err
	}
	return nil, nil
}

// ReadAll drains the parser.
func (p *Parser) ReadAll() ([]common.Instruction, error) {
	var insts common.List[common.Instruction]
	for {
		inst, err := p.Next()
		if err != nil {
			return nil, err
		}
		if inst == nil {
			return insts.Items(), nil
		}
		insts.Add(*inst)
	}
}

// StripComment removes a trailing comment and surrounding whitespace.
func StripComment(line string) string {
	if i := strings.Index(line, CommentMarker); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// FileIdentifier derives the source file identifier from a path:
// "dir/Main.vm" becomes "Main".
func FileIdentifier(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseLine converts a single comment-free, non-blank line into an
// instruction numbered lineNumber.
func ParseLine(text string, file string, lineNumber int) (common.Instruction, error) {
	fail := func(format string, args ...any) (common.Instruction, error) {
		return common.Instruction{}, &common.ParseError{
			File:       file,
			LineNumber: lineNumber,
			Text:       text,
			Reason:     fmt.Sprintf(format, args...),
		}
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return fail("empty instruction")
	}
	op, ok := common.LookupOpcode(strings.ToLower(parts[0]))
	if !ok {
		return fail("unknown command '%s'", parts[0])
	}
	operands := parts[1:]
	if len(operands) != op.Operands() {
		return fail("'%s' takes %d operand(s), found %d", op, op.Operands(), len(operands))
	}

	var inst common.Instruction
	switch op {
	case common.OpPush, common.OpPop:
		segment, ok := common.LookupSegment(operands[0])
		if !ok {
			return fail("unknown segment '%s'", operands[0])
		}
		index, err := parseIndex(operands[1])
		if err != nil {
			return fail("%v", err)
		}
		if err := checkSegmentIndex(op, segment, index); err != nil {
			return fail("%v", err)
		}
		inst = common.Instruction{Op: op, Segment: segment, Index: index}
	case common.OpLabel, common.OpGoto, common.OpIfGoto:
		if !common.IsSymbol(operands[0]) {
			return fail("invalid label '%s'", operands[0])
		}
		inst = common.Instruction{Op: op, Label: operands[0]}
	case common.OpFunction, common.OpCall:
		if !common.IsSymbol(operands[0]) {
			return fail("invalid function name '%s'", operands[0])
		}
		count, err := parseIndex(operands[1])
		if err != nil {
			return fail("%v", err)
		}
		if op == common.OpCall && count > common.MaxArguments {
			return fail("argument count %d out of range [0..%d]", count, common.MaxArguments)
		}
		if op == common.OpFunction && count > common.MaxLocals {
			return fail("local count %d out of range [0..%d]", count, common.MaxLocals)
		}
		inst = common.Instruction{Op: op, Name: operands[0], Count: count}
	default:
		inst = common.Instruction{Op: op}
	}

	inst.LineNumber = lineNumber
	inst.SourceText = text
	inst.SourceFile = file
	return inst, nil
}

func parseIndex(token string) (int, error) {
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 || strings.HasPrefix(token, "+") || strings.HasPrefix(token, "-") {
		return 0, fmt.Errorf("'%s' is not a non-negative integer", token)
	}
	return n, nil
}

func checkSegmentIndex(op common.Opcode, segment common.Segment, index int) error {
	switch segment {
	case common.SegmentConstant:
		if op == common.OpPop {
			return fmt.Errorf("cannot pop into the constant segment")
		}
		if index > common.MaxConstant {
			return fmt.Errorf("constant %d out of range [0..%d]", index, common.MaxConstant)
		}
	case common.SegmentTemp:
		if index >= common.TempSize {
			return fmt.Errorf("temp index %d out of range [0..%d]", index, common.TempSize-1)
		}
	case common.SegmentPointer:
		if index >= common.PointerSize {
			return fmt.Errorf("pointer index %d out of range [0..%d]", index, common.PointerSize-1)
		}
	default:
		if index > common.MaxConstant {
			return fmt.Errorf("%s index %d out of range [0..%d]", segment, index, common.MaxConstant)
		}
	}
	return nil
}
