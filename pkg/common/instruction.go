package common

import "fmt"

// Opcode identifies the variant of a VM instruction.
type Opcode int

const (
	OpAdd Opcode = iota
	OpSub
	OpNeg
	OpEq
	OpGt
	OpLt
	OpAnd
	OpOr
	OpNot
	OpPush
	OpPop
	OpLabel
	OpGoto
	OpIfGoto
	OpFunction
	OpCall
	OpReturn
)

const KeywordAdd = "add"
const KeywordSub = "sub"
const KeywordNeg = "neg"
const KeywordEq = "eq"
const KeywordGt = "gt"
const KeywordLt = "lt"
const KeywordAnd = "and"
const KeywordOr = "or"
const KeywordNot = "not"
const KeywordPush = "push"
const KeywordPop = "pop"
const KeywordLabel = "label"
const KeywordGoto = "goto"
const KeywordIfGoto = "if-goto"
const KeywordFunction = "function"
const KeywordCall = "call"
const KeywordReturn = "return"

var opcodeKeywords = [...]string{
	OpAdd:      KeywordAdd,
	OpSub:      KeywordSub,
	OpNeg:      KeywordNeg,
	OpEq:       KeywordEq,
	OpGt:       KeywordGt,
	OpLt:       KeywordLt,
	OpAnd:      KeywordAnd,
	OpOr:       KeywordOr,
	OpNot:      KeywordNot,
	OpPush:     KeywordPush,
	OpPop:      KeywordPop,
	OpLabel:    KeywordLabel,
	OpGoto:     KeywordGoto,
	OpIfGoto:   KeywordIfGoto,
	OpFunction: KeywordFunction,
	OpCall:     KeywordCall,
	OpReturn:   KeywordReturn,
}

// String returns the source keyword of the opcode.
func (op Opcode) String() string {
	if op < 0 || int(op) >= len(opcodeKeywords) {
		return fmt.Sprintf("opcode(%d)", int(op))
	}
	return opcodeKeywords[op]
}

// Operands is the number of operand tokens the opcode takes in source form.
func (op Opcode) Operands() int {
	switch op {
	case OpPush, OpPop, OpFunction, OpCall:
		return 2
	case OpLabel, OpGoto, OpIfGoto:
		return 1
	default:
		return 0
	}
}

// LookupOpcode maps a lower-cased keyword to its opcode.
func LookupOpcode(keyword string) (Opcode, bool) {
	for op, kw := range opcodeKeywords {
		if kw == keyword {
			return Opcode(op), true
		}
	}
	return 0, false
}

// Segment is one of the eight addressable memory segments.
type Segment int

const (
	SegmentArgument Segment = iota
	SegmentLocal
	SegmentThis
	SegmentThat
	SegmentConstant
	SegmentStatic
	SegmentTemp
	SegmentPointer
)

var segmentNames = [...]string{
	SegmentArgument: "argument",
	SegmentLocal:    "local",
	SegmentThis:     "this",
	SegmentThat:     "that",
	SegmentConstant: "constant",
	SegmentStatic:   "static",
	SegmentTemp:     "temp",
	SegmentPointer:  "pointer",
}

func (s Segment) String() string {
	if s < 0 || int(s) >= len(segmentNames) {
		return fmt.Sprintf("segment(%d)", int(s))
	}
	return segmentNames[s]
}

// LookupSegment maps a segment name to its Segment.
func LookupSegment(name string) (Segment, bool) {
	for seg, n := range segmentNames {
		if n == name {
			return Segment(seg), true
		}
	}
	return 0, false
}

// Segment limits. Index bounds are inclusive.
const (
	TempBase       = 5
	TempSize       = 8
	PointerBase    = 3
	PointerSize    = 2
	MaxConstant    = 32767
	StackBase      = 256
	FrameSizeSaved = 5 // return address, LCL, ARG, THIS, THAT
	MaxArguments   = MaxConstant - FrameSizeSaved
	MaxLocals      = MaxConstant + 1 - StackBase
)

// Instruction is a single parsed VM instruction. Only the fields relevant to
// the opcode are populated:
//
//	Push, Pop:        Segment, Index
//	Label, Goto, IfGoto: Label
//	Function, Call:   Name, Count (locals or arguments)
type Instruction struct {
	Op         Opcode
	Segment    Segment
	Index      int
	Label      string
	Name       string
	Count      int
	LineNumber int
	SourceText string
	SourceFile string
}

// Constructor functions, mostly used by the driver to synthesize code.

// NewArithmetic creates one of the operand-free instructions.
func NewArithmetic(op Opcode) Instruction {
	return Instruction{Op: op}
}

// NewPush creates a push instruction.
func NewPush(segment Segment, index int) Instruction {
	return Instruction{Op: OpPush, Segment: segment, Index: index}
}

// NewPop creates a pop instruction.
func NewPop(segment Segment, index int) Instruction {
	return Instruction{Op: OpPop, Segment: segment, Index: index}
}

// NewLabel creates a label instruction.
func NewLabel(label string) Instruction {
	return Instruction{Op: OpLabel, Label: label}
}

// NewGoto creates an unconditional jump.
func NewGoto(label string) Instruction {
	return Instruction{Op: OpGoto, Label: label}
}

// NewIfGoto creates a conditional jump.
func NewIfGoto(label string) Instruction {
	return Instruction{Op: OpIfGoto, Label: label}
}

// NewFunction creates a function declaration.
func NewFunction(name string, nlocals int) Instruction {
	return Instruction{Op: OpFunction, Name: name, Count: nlocals}
}

// NewCall creates a call instruction.
func NewCall(name string, nargs int) Instruction {
	return Instruction{Op: OpCall, Name: name, Count: nargs}
}

// NewReturn creates a return instruction.
func NewReturn() Instruction {
	return Instruction{Op: OpReturn}
}

// At returns a copy of the instruction stamped with its origin.
func (inst Instruction) At(lineNumber int, sourceFile string) Instruction {
	inst.LineNumber = lineNumber
	inst.SourceFile = sourceFile
	if inst.SourceText == "" {
		inst.SourceText = inst.String()
	}
	return inst
}

// String renders the instruction in canonical source form.
func (inst Instruction) String() string {
	switch inst.Op {
	case OpPush, OpPop:
		return fmt.Sprintf("%s %s %d", inst.Op, inst.Segment, inst.Index)
	case OpLabel, OpGoto, OpIfGoto:
		return fmt.Sprintf("%s %s", inst.Op, inst.Label)
	case OpFunction, OpCall:
		return fmt.Sprintf("%s %s %d", inst.Op, inst.Name, inst.Count)
	default:
		return inst.Op.String()
	}
}
