package parser

import (
	"fmt"
	"io"
	"strconv"

	asciitree "github.com/thediveo/go-asciitree"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/common"
)

type AsciiNode struct {
	Label    string      `asciitree:"label"`
	Props    []string    `asciitree:"properties"`
	Children []AsciiNode `asciitree:"children"`
}

// convertToTree nests instructions under their file and, once a function
// has been declared, under that function.
func convertToTree(insts []common.Instruction) AsciiNode {
	root := AsciiNode{Label: "unit", Props: []string{"instructions: " + strconv.Itoa(len(insts))}}
	var file *AsciiNode
	var function *AsciiNode
	for _, inst := range insts {
		if file == nil || file.Label != inst.SourceFile {
			root.Children = append(root.Children, AsciiNode{Label: inst.SourceFile})
			file = &root.Children[len(root.Children)-1]
			function = nil
		}
		if inst.Op == common.OpFunction {
			file.Children = append(file.Children, AsciiNode{
				Label: inst.Name,
				Props: []string{fmt.Sprintf("locals: %d", inst.Count), fmt.Sprintf("line: %d", inst.LineNumber)},
			})
			function = &file.Children[len(file.Children)-1]
			continue
		}
		leaf := AsciiNode{Label: inst.String(), Props: []string{fmt.Sprintf("line: %d", inst.LineNumber)}}
		if function == nil {
			file.Children = append(file.Children, leaf)
		} else {
			function.Children = append(function.Children, leaf)
		}
	}
	return root
}

func PrintInstructionsAsciiTree(insts []common.Instruction, output io.Writer) error {
	_, err := fmt.Fprintln(output, asciitree.RenderFancy(convertToTree(insts)))
	return err
}
