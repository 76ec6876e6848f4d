package codegen

import (
	"strconv"
	"strings"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/common"
)

// Base registers and scratch cells of the Hack VM mapping.
const (
	RegSP    = "SP"
	RegLCL   = "LCL"
	RegARG   = "ARG"
	RegTHIS  = "THIS"
	RegTHAT  = "THAT"
	RegFrame = "R13" // frame pointer in return, destination address in pop
	RegRet   = "R14" // return address in return
)

var baseRegisters = map[common.Segment]string{
	common.SegmentArgument: RegARG,
	common.SegmentLocal:    RegLCL,
	common.SegmentThis:     RegTHIS,
	common.SegmentThat:     RegTHAT,
}

var binaryOps = map[common.Opcode]string{
	common.OpAdd: "M=D+M",
	common.OpSub: "M=M-D",
	common.OpAnd: "M=D&M",
	common.OpOr:  "M=D|M",
}

var unaryOps = map[common.Opcode]string{
	common.OpNeg: "M=-M",
	common.OpNot: "M=!M",
}

var comparisonJumps = map[common.Opcode]string{
	common.OpEq: "D;JEQ",
	common.OpGt: "D;JGT",
	common.OpLt: "D;JLT",
}

// asm accumulates the lines of one fragment.
type asm struct {
	lines common.List[string]
}

func (a *asm) emit(lines ...string) {
	for _, line := range lines {
		a.lines.Add(line)
	}
}

func (a *asm) String() string {
	if a.lines.Len() == 0 {
		return ""
	}
	return strings.Join(a.lines.Items(), "\n") + "\n"
}

// Generate translates one instruction into a fragment of Hack assembly, one
// instruction per line with a trailing newline. currentFile scopes static
// cells and VM labels. Generate does not fail: operands were validated by
// the parser.
func Generate(inst common.Instruction, currentFile string) string {
	var a asm
	switch inst.Op {
	case common.OpAdd, common.OpSub, common.OpAnd, common.OpOr:
		a.emit("@SP", "AM=M-1", "D=M", "A=A-1", binaryOps[inst.Op])
	case common.OpNeg, common.OpNot:
		a.emit("@SP", "A=M-1", unaryOps[inst.Op])
	case common.OpEq, common.OpGt, common.OpLt:
		plantComparison(&a, inst)
	case common.OpPush:
		plantPush(&a, inst, currentFile)
	case common.OpPop:
		plantPop(&a, inst, currentFile)
	case common.OpLabel:
		a.emit(NewUserLabel(currentFile, inst.Label).Definition())
	case common.OpGoto:
		a.emit(NewUserLabel(currentFile, inst.Label).Reference(), "0;JMP")
	case common.OpIfGoto:
		plantPopD(&a)
		a.emit(NewUserLabel(currentFile, inst.Label).Reference(), "D;JNE")
	case common.OpFunction:
		plantFunction(&a, inst)
	case common.OpCall:
		plantCall(&a, inst)
	case common.OpReturn:
		plantReturn(&a)
	default:
		panic("codegen: unhandled opcode " + inst.Op.String())
	}
	return a.String()
}

func plantComparison(a *asm, inst common.Instruction) {
	trueLabel := NewTrueLabel(inst.LineNumber)
	endLabel := NewEndLabel(inst.LineNumber)
	a.emit(
		"@SP", "AM=M-1", "D=M", "A=A-1", "D=M-D",
		trueLabel.Reference(), comparisonJumps[inst.Op],
		"@SP", "A=M-1", "M=0",
		endLabel.Reference(), "0;JMP",
		trueLabel.Definition(),
		"@SP", "A=M-1", "M=-1",
		endLabel.Definition(),
	)
}

// plantPushD pushes the D register.
func plantPushD(a *asm) {
	a.emit("@SP", "A=M", "M=D", "@SP", "M=M+1")
}

// plantPopD pops the top of the stack into D.
func plantPopD(a *asm) {
	a.emit("@SP", "AM=M-1", "D=M")
}

// directAddress returns the symbol or absolute address of a segment cell
// that needs no pointer arithmetic at run time.
func directAddress(segment common.Segment, index int, currentFile string) string {
	switch segment {
	case common.SegmentStatic:
		return "@" + StaticSymbol(currentFile, index)
	case common.SegmentTemp:
		return "@" + strconv.Itoa(common.TempBase+index)
	case common.SegmentPointer:
		return "@" + strconv.Itoa(common.PointerBase+index)
	}
	return ""
}

func plantPush(a *asm, inst common.Instruction, currentFile string) {
	index := strconv.Itoa(inst.Index)
	switch inst.Segment {
	case common.SegmentConstant:
		a.emit("@"+index, "D=A")
	case common.SegmentArgument, common.SegmentLocal, common.SegmentThis, common.SegmentThat:
		a.emit("@"+index, "D=A", "@"+baseRegisters[inst.Segment], "A=D+M", "D=M")
	default:
		a.emit(directAddress(inst.Segment, inst.Index, currentFile), "D=M")
	}
	plantPushD(a)
}

func plantPop(a *asm, inst common.Instruction, currentFile string) {
	switch inst.Segment {
	case common.SegmentArgument, common.SegmentLocal, common.SegmentThis, common.SegmentThat:
		// The address must be parked in R13 before D is reused for the value.
		a.emit(
			"@"+strconv.Itoa(inst.Index), "D=A",
			"@"+baseRegisters[inst.Segment], "D=D+M",
			"@"+RegFrame, "M=D",
		)
		plantPopD(a)
		a.emit("@"+RegFrame, "A=M", "M=D")
	default:
		plantPopD(a)
		a.emit(directAddress(inst.Segment, inst.Index, currentFile), "M=D")
	}
}

func plantFunction(a *asm, inst common.Instruction) {
	a.emit(NewFunctionLabel(inst.Name).Definition())
	for i := 0; i < inst.Count; i++ {
		a.emit("@SP", "A=M", "M=0", "@SP", "M=M+1")
	}
}

func plantCall(a *asm, inst common.Instruction) {
	ret := NewReturnLabel(inst.Name, inst.LineNumber)
	a.emit(ret.Reference(), "D=A")
	plantPushD(a)
	for _, reg := range []string{RegLCL, RegARG, RegTHIS, RegTHAT} {
		a.emit("@"+reg, "D=M")
		plantPushD(a)
	}
	a.emit(
		// ARG = SP - (nargs + 5)
		"@"+strconv.Itoa(inst.Count+common.FrameSizeSaved), "D=A",
		"@SP", "D=M-D",
		"@"+RegARG, "M=D",
		// LCL = SP
		"@SP", "D=M",
		"@"+RegLCL, "M=D",
		NewFunctionLabel(inst.Name).Reference(), "0;JMP",
		ret.Definition(),
	)
}

func plantReturn(a *asm) {
	a.emit(
		// frame = LCL
		"@"+RegLCL, "D=M",
		"@"+RegFrame, "M=D",
		// ret = *(frame - 5)
		"@"+strconv.Itoa(common.FrameSizeSaved), "A=D-A", "D=M",
		"@"+RegRet, "M=D",
	)
	// *ARG = pop()
	plantPopD(a)
	a.emit(
		"@"+RegARG, "A=M", "M=D",
		// SP = ARG + 1
		"@"+RegARG, "D=M+1",
		"@SP", "M=D",
	)
	// THAT, THIS, ARG, LCL = *(frame-1), *(frame-2), *(frame-3), *(frame-4)
	for _, reg := range []string{RegTHAT, RegTHIS, RegARG, RegLCL} {
		a.emit("@"+RegFrame, "AM=M-1", "D=M", "@"+reg, "M=D")
	}
	a.emit("@"+RegRet, "A=M", "0;JMP")
}
