package codegen

import (
	"strconv"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/common"
)

// BootstrapLineNumber numbers the synthesized call to the entry point. The
// parser starts counting at 1, so the call's return label cannot collide.
const BootstrapLineNumber = 0

// Bootstrap returns the prologue that sets SP to stackBase, fills LCL, ARG,
// THIS and THAT with the sentinels -1, -2, -3 and -4, and calls entryPoint
// with no arguments.
func Bootstrap(stackBase int, entryPoint string) string {
	var a asm
	a.emit(
		"@"+strconv.Itoa(stackBase), "D=A",
		"@SP", "M=D",
		"D=0",
	)
	for _, reg := range []string{RegLCL, RegARG, RegTHIS, RegTHAT} {
		a.emit("@"+reg, "MD=D-1")
	}
	return a.String() + Generate(BootstrapCall(entryPoint), "")
}

// BootstrapCall is the call instruction planted at the end of Bootstrap.
func BootstrapCall(entryPoint string) common.Instruction {
	return common.NewCall(entryPoint, 0).At(BootstrapLineNumber, "")
}
