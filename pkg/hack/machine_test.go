package hack

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func load(code string) *Machine {
	p, err := Assemble(code)
	Expect(err).ToNot(HaveOccurred())
	return NewMachine(p)
}

var _ = Describe("Machine", func() {
	It("should add two constants into RAM", func() {
		m := load("@2\nD=A\n@3\nD=D+A\n@0\nM=D\n")
		Expect(m.Run(100)).To(Succeed())
		Expect(m.RAM[0]).To(Equal(int16(5)))
		Expect(m.Halted()).To(BeTrue())
		Expect(m.Steps).To(Equal(6))
	})

	It("should compute every ALU function", func() {
		x, y := int16(7), int16(3)
		Expect(alu(x, y, 0b101010)).To(Equal(int16(0)))
		Expect(alu(x, y, 0b111111)).To(Equal(int16(1)))
		Expect(alu(x, y, 0b111010)).To(Equal(int16(-1)))
		Expect(alu(x, y, 0b001101)).To(Equal(^x))
		Expect(alu(x, y, 0b001111)).To(Equal(-x))
		Expect(alu(x, y, 0b010011)).To(Equal(x - y))
		Expect(alu(x, y, 0b000111)).To(Equal(y - x))
		Expect(alu(x, y, 0b000000)).To(Equal(x & y))
		Expect(alu(x, y, 0b010101)).To(Equal(x | y))
	})

	It("should wrap around on overflow", func() {
		m := load("@32767\nD=A\nD=D+1\n")
		Expect(m.Run(10)).To(Succeed())
		Expect(m.D).To(Equal(int16(-32768)))
	})

	It("should use the old A for the M write", func() {
		m := load("@100\nAM=A+1\n")
		Expect(m.Run(10)).To(Succeed())
		Expect(m.RAM[100]).To(Equal(int16(101)))
		Expect(m.A).To(Equal(int16(101)))
	})

	It("should take jumps on the ALU output", func() {
		// D = 1; if D > 0 goto 6 else RAM[0] = 99
		m := load("@1\nD=A\n@6\nD;JGT\n@99\nD=A\n@0\nM=D\n")
		Expect(m.Run(100)).To(Succeed())
		Expect(m.RAM[0]).To(Equal(int16(1)))
	})

	It("should stop at the step limit", func() {
		m := load("(LOOP)\n@LOOP\n0;JMP\n")
		Expect(m.Run(50)).To(MatchError(ErrStepLimit))
		Expect(m.Steps).To(Equal(50))
	})

	It("should stop at an address", func() {
		m := load("@1\nD=A\n(HERE)\n@HERE\n0;JMP\n")
		Expect(m.RunUntil(AtAddress(2), 100)).To(Succeed())
		Expect(m.PC).To(Equal(2))
		Expect(m.D).To(Equal(int16(1)))
	})

	It("should reject out-of-range memory access", func() {
		m := load("D=0\nD=D-1\nA=D\nM=1\n")
		Expect(m.Run(10)).To(HaveOccurred())
	})

	It("should expose the stack", func() {
		m := load("@258\nD=A\n@SP\nM=D\n@7\nD=A\n@256\nM=D\n@8\nD=A\n@257\nM=D\n")
		Expect(m.Run(100)).To(Succeed())
		Expect(m.SP()).To(Equal(int16(258)))
		Expect(m.Stack(256)).To(Equal([]int16{7, 8}))
	})
})
