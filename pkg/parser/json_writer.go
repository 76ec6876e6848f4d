package parser

import (
	"encoding/json"
	"io"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/common"
)

// instructionJSON is the wire form of an instruction: a "type" tag plus the
// fields relevant to it.
type instructionJSON struct {
	Type    string  `json:"type"`
	Segment *string `json:"segment,omitempty"`
	Index   *int    `json:"index,omitempty"`
	Label   *string `json:"label,omitempty"`
	Name    *string `json:"name,omitempty"`
	Count   *int    `json:"count,omitempty"`
	Line    int     `json:"line"`
	File    string  `json:"file"`
	Text    string  `json:"text"`
}

func toJSON(inst common.Instruction) instructionJSON {
	out := instructionJSON{Type: inst.Op.String(), Line: inst.LineNumber, File: inst.SourceFile, Text: inst.SourceText}
	switch inst.Op {
	case common.OpPush, common.OpPop:
		segment := inst.Segment.String()
		index := inst.Index
		out.Segment = &segment
		out.Index = &index
	case common.OpLabel, common.OpGoto, common.OpIfGoto:
		label := inst.Label
		out.Label = &label
	case common.OpFunction, common.OpCall:
		name := inst.Name
		count := inst.Count
		out.Name = &name
		out.Count = &count
	}
	return out
}

// PrintInstructionsJSON writes one JSON object per line.
func PrintInstructionsJSON(insts []common.Instruction, output io.Writer) error {
	encoder := json.NewEncoder(output)
	for _, inst := range insts {
		if err := encoder.Encode(toJSON(inst)); err != nil {
			return err
		}
	}
	return nil
}

// PrintInstructionsText writes the canonical source form, one per line.
func PrintInstructionsText(insts []common.Instruction, output io.Writer) error {
	for _, inst := range insts {
		if _, err := io.WriteString(output, inst.String()+"\n"); err != nil {
			return err
		}
	}
	return nil
}

type PrintFunc func(insts []common.Instruction, output io.Writer) error

// PickPrintFunc selects an instruction printer by format name.
func PickPrintFunc(format string) (PrintFunc, error) {
	switch format {
	case "JSON", "json":
		return PrintInstructionsJSON, nil
	case "TREE", "tree":
		return PrintInstructionsAsciiTree, nil
	case "TEXT", "text":
		return PrintInstructionsText, nil
	}
	return nil, common.NewConfigurationError("unknown format '%s'", format)
}
