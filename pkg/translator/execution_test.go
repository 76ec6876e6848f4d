package translator

import (
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/common"
	"github.com/netlogic-xing/hack-vm-compiler/pkg/hack"
)

const stepLimit = 2000000

func build(options *common.Options, sources ...Source) (*hack.Program, *Result) {
	var out bytes.Buffer
	result, err := NewTranslator(options).Translate(context.Background(), sources, &out)
	Expect(err).ToNot(HaveOccurred())
	program, err := hack.Assemble(out.String())
	Expect(err).ToNot(HaveOccurred())
	return program, result
}

// direct builds a unit without bootstrap and presets the segment pointers
// the way a test harness would.
func direct(text string) *hack.Machine {
	program, _ := build(&common.Options{DirectMode: true}, StringSource("Main", text))
	m := hack.NewMachine(program)
	m.RAM[0] = 256
	m.RAM[1] = 300
	m.RAM[2] = 400
	m.RAM[3] = 3000
	m.RAM[4] = 3010
	return m
}

var _ = Describe("Translated programs", func() {
	Context("in direct mode", func() {
		It("should add two constants", func() {
			m := direct("push constant 7\npush constant 8\nadd\n")
			Expect(m.Run(stepLimit)).To(Succeed())
			Expect(m.SP()).To(Equal(int16(257)))
			Expect(m.RAM[256]).To(Equal(int16(15)))
		})

		It("should evaluate arithmetic and logic", func() {
			m := direct(`push constant 17
push constant 17
eq
push constant 892
push constant 891
lt
push constant 32767
push constant 32766
gt
push constant 57
push constant 31
push constant 53
add
push constant 112
sub
neg
and
push constant 82
or
not
`)
			Expect(m.Run(stepLimit)).To(Succeed())
			Expect(m.Stack(256)).To(Equal([]int16{-1, 0, -1, -91}))
		})

		It("should move values through every segment", func() {
			m := direct(`push constant 10
pop local 0
push constant 21
push constant 22
pop argument 2
pop argument 1
push constant 36
pop this 6
push constant 42
push constant 45
pop that 5
pop that 2
push constant 510
pop temp 6
push local 0
push that 5
add
push argument 1
sub
push this 6
push this 6
add
sub
push temp 6
add
`)
			Expect(m.Run(stepLimit)).To(Succeed())
			Expect(m.Stack(256)).To(Equal([]int16{472}))
			Expect(m.RAM[300]).To(Equal(int16(10)))
			Expect(m.RAM[401]).To(Equal(int16(21)))
			Expect(m.RAM[402]).To(Equal(int16(22)))
			Expect(m.RAM[3006]).To(Equal(int16(36)))
			Expect(m.RAM[3012]).To(Equal(int16(42)))
			Expect(m.RAM[3015]).To(Equal(int16(45)))
			Expect(m.RAM[11]).To(Equal(int16(510)))
		})

		It("should address this and that through pointer", func() {
			m := direct(`push constant 3030
pop pointer 0
push constant 3040
pop pointer 1
push constant 32
pop this 2
push constant 46
pop that 6
push pointer 0
push pointer 1
add
push this 2
sub
push that 6
add
`)
			Expect(m.Run(stepLimit)).To(Succeed())
			Expect(m.Stack(256)).To(Equal([]int16{6084}))
			Expect(m.RAM[3]).To(Equal(int16(3030)))
			Expect(m.RAM[4]).To(Equal(int16(3040)))
			Expect(m.RAM[3032]).To(Equal(int16(32)))
			Expect(m.RAM[3046]).To(Equal(int16(46)))
		})

		It("should leave the stack as it found it after push then pop", func() {
			m := direct("push constant 5\npop static 3\npush static 3\npop temp 0\n")
			Expect(m.Run(stepLimit)).To(Succeed())
			Expect(m.SP()).To(Equal(int16(256)))
			Expect(m.RAM[5]).To(Equal(int16(5)))
		})

		It("should loop with if-goto", func() {
			// sum 1..5 into local 0
			m := direct(`push constant 0
pop local 0
push constant 5
pop argument 0
label LOOP
push argument 0
push local 0
add
pop local 0
push argument 0
push constant 1
sub
pop argument 0
push argument 0
if-goto LOOP
push local 0
`)
			Expect(m.Run(stepLimit)).To(Succeed())
			Expect(m.Stack(256)).To(Equal([]int16{15}))
		})
	})

	Context("with a hand-built caller frame", func() {
		It("should return into the caller", func() {
			program, _ := build(&common.Options{DirectMode: true}, StringSource("Mult", `function Mult.mult 2
push constant 0
pop local 0
return
`))
			m := hack.NewMachine(program)
			// Two arguments at 256..257, then the saved frame of the caller.
			ret := int16(len(program.Words))
			copy(m.RAM[256:], []int16{6, 7, ret, 1000, 1100, 1200, 1300})
			m.RAM[0] = 263
			m.RAM[1] = 263
			m.RAM[2] = 256

			Expect(m.Run(stepLimit)).To(Succeed())
			Expect(m.PC).To(Equal(int(ret)))
			Expect(m.SP()).To(Equal(int16(257)))
			Expect(m.RAM[256]).To(Equal(m.RAM[263]))
			Expect(m.RAM[256]).To(Equal(int16(0)))
			Expect(m.RAM[1:5]).To(Equal([]int16{1000, 1100, 1200, 1300}))
		})
	})

	Context("with bootstrap", func() {
		It("should call the main function from a synthesized entry", func() {
			program, result := build(nil, StringSource("Main", `function Main.main 0
push constant 3
push constant 4
call Main.sum 2
pop static 1
push constant 0
return
function Main.sum 1
push argument 0
push argument 1
add
pop local 0
push local 0
return
`))
			Expect(result.Files[0].Synthesized).To(BeTrue())

			m := hack.NewMachine(program)
			Expect(m.RunUntil(hack.AtAddress(program.Symbols["Sys:WHILE"]), stepLimit)).To(Succeed())
			Expect(m.RAM[program.Symbols["Main.1"]]).To(Equal(int16(7)))
			// Sys.init's frame sits on the bootstrap call frame.
			Expect(m.RAM[1]).To(Equal(int16(261)))
			Expect(m.RAM[2]).To(Equal(int16(256)))
			Expect(m.RAM[3]).To(Equal(int16(-3)))
			Expect(m.RAM[4]).To(Equal(int16(-4)))
			// Main.main's return value is left on Sys.init's stack.
			Expect(m.SP()).To(Equal(int16(262)))
			Expect(m.RAM[261]).To(Equal(int16(0)))
		})

		It("should build a call frame", func() {
			program, _ := build(nil,
				StringSource("Main", `function Main.main 2
push constant 6
push constant 7
call Mult.mult 2
return
`),
				StringSource("Mult", `function Mult.mult 1
label HERE
goto HERE
`))
			m := hack.NewMachine(program)
			Expect(m.RunUntil(hack.AtAddress(program.Symbols["Mult:HERE"]), stepLimit)).To(Succeed())

			// Bootstrap frame 256..260, Sys.init frame 261..265,
			// Main.main locals 266..267 and args 268..269.
			lcl := int(m.RAM[1])
			arg := int(m.RAM[2])
			Expect(arg).To(Equal(268))
			Expect(m.RAM[arg : arg+2]).To(Equal([]int16{6, 7}))
			Expect(lcl).To(Equal(arg + 2 + common.FrameSizeSaved))
			Expect(m.RAM[lcl-4]).To(Equal(int16(266)))
			Expect(m.RAM[lcl-3]).To(Equal(int16(261)))
			Expect(m.RAM[lcl-5]).To(Equal(int16(program.Symbols["Mult.mult_return_address$8"])))
			Expect(m.RAM[lcl]).To(Equal(int16(0)))
			Expect(m.SP()).To(Equal(int16(lcl + 1)))
		})

		It("should compute a recursive fibonacci", func() {
			program, result := build(nil,
				StringSource("Main", `function Main.fibonacci 0
push argument 0
push constant 2
lt
if-goto BASE
push argument 0
push constant 1
sub
call Main.fibonacci 1
push argument 0
push constant 2
sub
call Main.fibonacci 1
add
return
label BASE
push argument 0
return
`),
				StringSource("Sys", `function Sys.init 0
push constant 10
call Main.fibonacci 1
pop static 0
label END
goto END
`))
			Expect(result.Files[0].Name).To(Equal("Sys"))
			Expect(result.Files[0].Synthesized).To(BeFalse())

			m := hack.NewMachine(program)
			Expect(m.RunUntil(hack.AtAddress(program.Symbols["Sys:END"]), stepLimit)).To(Succeed())
			Expect(program.Symbols["Sys.0"]).To(Equal(hack.VariableBase))
			Expect(m.RAM[hack.VariableBase]).To(Equal(int16(55)))
			Expect(m.SP()).To(Equal(int16(261)))
		})

		It("should keep statics apart per file", func() {
			program, _ := build(nil,
				StringSource("Sys", `function Sys.init 0
push constant 6
call A.set 1
pop temp 0
push constant 8
call B.set 1
pop temp 0
call A.get 0
call B.get 0
label END
goto END
`),
				StringSource("A", "function A.set 0\npush argument 0\npop static 0\npush constant 0\nreturn\nfunction A.get 0\npush static 0\nreturn\n"),
				StringSource("B", "function B.set 0\npush argument 0\npop static 0\npush constant 0\nreturn\nfunction B.get 0\npush static 0\nreturn\n"),
			)
			m := hack.NewMachine(program)
			Expect(m.RunUntil(hack.AtAddress(program.Symbols["Sys:END"]), stepLimit)).To(Succeed())
			Expect(m.Stack(261)).To(Equal([]int16{6, 8}))
		})

		It("should assemble the annotated listing to the same program", func() {
			var out, listing bytes.Buffer
			tr := NewTranslator(nil).WithListing(&listing)
			_, err := tr.Translate(context.Background(), []Source{StringSource("Main", "function Main.main 0\npush constant 1\nreturn\n")}, &out)
			Expect(err).ToNot(HaveOccurred())
			plain, err := hack.Assemble(out.String())
			Expect(err).ToNot(HaveOccurred())
			annotated, err := hack.Assemble(listing.String())
			Expect(err).ToNot(HaveOccurred())
			Expect(annotated.Words).To(Equal(plain.Words))
		})
	})
})
