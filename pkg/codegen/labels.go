package codegen

import (
	"fmt"
	"strconv"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/common"
)

// LabelType represents the different kinds of labels the generator plants.
type LabelType int

const (
	UserLabel LabelType = iota
	FunctionLabel
	ReturnLabel
	TrueLabel
	EndLabel
)

func (lt LabelType) String() string {
	switch lt {
	case UserLabel:
		return "label"
	case FunctionLabel:
		return "function"
	case ReturnLabel:
		return "return-address"
	case TrueLabel:
		return "true"
	case EndLabel:
		return "end"
	}
	return "unknown"
}

// Label is a jump target in generated code. Text is the assembly symbol.
type Label struct {
	Type LabelType
	Text string
}

// NewUserLabel creates the label of a VM label declared in file. VM labels
// live in a flat namespace per source file.
func NewUserLabel(file string, label string) Label {
	return Label{Type: UserLabel, Text: file + ":" + label}
}

// NewFunctionLabel creates the entry label of a function.
func NewFunctionLabel(name string) Label {
	return Label{Type: FunctionLabel, Text: name}
}

// NewReturnLabel creates the return address of the call numbered lineNumber.
func NewReturnLabel(callee string, lineNumber int) Label {
	return Label{Type: ReturnLabel, Text: fmt.Sprintf("%s_return_address$%d", callee, lineNumber)}
}

// NewTrueLabel creates the branch target taken when a comparison holds.
func NewTrueLabel(lineNumber int) Label {
	return Label{Type: TrueLabel, Text: "TRUE" + strconv.Itoa(lineNumber)}
}

// NewEndLabel creates the join point of a comparison.
func NewEndLabel(lineNumber int) Label {
	return Label{Type: EndLabel, Text: "END" + strconv.Itoa(lineNumber)}
}

// Definition is the pseudo-instruction that places the label.
func (l Label) Definition() string {
	return "(" + l.Text + ")"
}

// Reference loads the label address into A.
func (l Label) Reference() string {
	return "@" + l.Text
}

// StaticSymbol names the storage cell of static index in file.
func StaticSymbol(file string, index int) string {
	return file + "." + strconv.Itoa(index)
}

// Labels lists the labels that Generate defines for inst, in the order they
// appear in its fragment.
func Labels(inst common.Instruction, currentFile string) []Label {
	switch inst.Op {
	case common.OpLabel:
		return []Label{NewUserLabel(currentFile, inst.Label)}
	case common.OpFunction:
		return []Label{NewFunctionLabel(inst.Name)}
	case common.OpCall:
		return []Label{NewReturnLabel(inst.Name, inst.LineNumber)}
	case common.OpEq, common.OpGt, common.OpLt:
		return []Label{NewTrueLabel(inst.LineNumber), NewEndLabel(inst.LineNumber)}
	}
	return nil
}
