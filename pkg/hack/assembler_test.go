package hack

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Assembler", func() {
	It("should encode A-instructions", func() {
		p, err := Assemble("@21\n@SP\n@R15\n@SCREEN\n")
		Expect(err).ToNot(HaveOccurred())
		Expect(p.Words).To(Equal([]uint16{21, 0, 15, ScreenBase}))
	})

	It("should encode C-instructions", func() {
		p, err := Assemble("D=A\nAM=M-1\n0;JMP\nD;JNE\nMD=D-1\nM=D+M\n")
		Expect(err).ToNot(HaveOccurred())
		Expect(p.Words).To(Equal([]uint16{
			0b1110110000010000,
			0b1111110010101000,
			0b1110101010000111,
			0b1110001100000101,
			0b1110001110011000,
			0b1111000010001000,
		}))
	})

	It("should accept commuted computations", func() {
		a, err := Assemble("M=M+D\n")
		Expect(err).ToNot(HaveOccurred())
		b, err := Assemble("M=D+M\n")
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Words).To(Equal(b.Words))
	})

	It("should resolve labels to ROM addresses", func() {
		p, err := Assemble("(START)\n@END\n0;JMP\n// comment\n(END)\n@START\n0;JMP\n")
		Expect(err).ToNot(HaveOccurred())
		Expect(p.Symbols).To(HaveKeyWithValue("START", 0))
		Expect(p.Symbols).To(HaveKeyWithValue("END", 2))
		Expect(p.Words[0]).To(Equal(uint16(2)))
		Expect(p.SourceMap).To(Equal([]int{2, 3, 6, 7}))
	})

	It("should allocate variables from 16 in order of first use", func() {
		p, err := Assemble("@Main.0\n@Main.1\n@Main.0\n@Foo:BAR$1\n")
		Expect(err).ToNot(HaveOccurred())
		Expect(p.Words).To(Equal([]uint16{16, 17, 16, 18}))
	})

	It("should ignore whitespace and trailing comments", func() {
		p, err := Assemble("  D = M ; JGT  // test\r\n")
		Expect(err).ToNot(HaveOccurred())
		Expect(p.Words).To(HaveLen(1))
	})

	DescribeTable("should reject bad input",
		func(code string) {
			_, err := Assemble(code)
			Expect(err).To(HaveOccurred())
		},
		Entry("duplicate label", "(X)\n(X)\n"),
		Entry("predefined label", "(SP)\n"),
		Entry("bad computation", "D=Q\n"),
		Entry("bad destination", "X=D\n"),
		Entry("bad jump", "D;JXX\n"),
		Entry("constant too large", "@32768\n"),
		Entry("empty operand", "@\n"),
		Entry("unterminated label", "(X\n"),
	)

	It("should write .hack text", func() {
		p, err := Assemble("@5\nD=A\n")
		Expect(err).ToNot(HaveOccurred())
		var buf bytes.Buffer
		Expect(p.WriteHack(&buf)).To(Succeed())
		Expect(strings.Split(strings.TrimSpace(buf.String()), "\n")).To(Equal([]string{
			"0000000000000101",
			"1110110000010000",
		}))
	})
})
