package hack

import (
	"errors"
	"fmt"
)

// ErrStepLimit is returned when a run exhausts its step budget.
var ErrStepLimit = errors.New("step limit reached")

// Machine is a Hack CPU with its ROM and RAM. Every Step executes one
// instruction.
type Machine struct {
	ROM   []uint16
	RAM   []int16
	A     int16
	D     int16
	PC    int
	Steps int
}

// NewMachine loads a program into a machine with cleared RAM.
func NewMachine(program *Program) *Machine {
	return &Machine{
		ROM: program.Words,
		RAM: make([]int16, RAMSize),
	}
}

// Halted reports whether the PC has run off the end of the ROM.
func (m *Machine) Halted() bool {
	return m.PC < 0 || m.PC >= len(m.ROM)
}

func (m *Machine) address(value int16) (int, error) {
	addr := int(value)
	if addr < 0 || addr >= len(m.RAM) {
		return 0, fmt.Errorf("memory access out of range: %d at pc %d", addr, m.PC)
	}
	return addr, nil
}

// alu computes the Hack ALU output from the six control bits zx nx zy ny f no.
func alu(x int16, y int16, control uint16) int16 {
	if control&0b100000 != 0 {
		x = 0
	}
	if control&0b010000 != 0 {
		x = ^x
	}
	if control&0b001000 != 0 {
		y = 0
	}
	if control&0b000100 != 0 {
		y = ^y
	}
	var out int16
	if control&0b000010 != 0 {
		out = x + y
	} else {
		out = x & y
	}
	if control&0b000001 != 0 {
		out = ^out
	}
	return out
}

// Step executes the instruction at PC.
func (m *Machine) Step() error {
	if m.Halted() {
		return fmt.Errorf("pc %d outside program of %d words", m.PC, len(m.ROM))
	}
	word := m.ROM[m.PC]
	m.Steps++
	if word&0x8000 == 0 {
		m.A = int16(word)
		m.PC++
		return nil
	}

	useM := word&0x1000 != 0
	control := (word >> 6) & 0b111111
	dest := (word >> 3) & 0b111
	jump := word & 0b111

	y := m.A
	var mAddr int
	if useM || dest&0b001 != 0 {
		addr, err := m.address(m.A)
		if err != nil {
			return err
		}
		mAddr = addr
		if useM {
			y = m.RAM[mAddr]
		}
	}
	out := alu(m.D, y, control)

	jumpTo := int(uint16(m.A))
	if dest&0b001 != 0 {
		m.RAM[mAddr] = out
	}
	if dest&0b100 != 0 {
		m.A = out
	}
	if dest&0b010 != 0 {
		m.D = out
	}

	taken := (jump&0b100 != 0 && out < 0) ||
		(jump&0b010 != 0 && out == 0) ||
		(jump&0b001 != 0 && out > 0)
	if taken {
		m.PC = jumpTo
	} else {
		m.PC++
	}
	return nil
}

// Run executes until the PC leaves the program or maxSteps instructions have
// run. Running out of steps returns ErrStepLimit.
func (m *Machine) Run(maxSteps int) error {
	return m.RunUntil(func(*Machine) bool { return false }, maxSteps)
}

// RunUntil executes until done reports true, the program ends, or maxSteps
// instructions have run.
func (m *Machine) RunUntil(done func(*Machine) bool, maxSteps int) error {
	for i := 0; i < maxSteps; i++ {
		if m.Halted() || done(m) {
			return nil
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	if m.Halted() || done(m) {
		return nil
	}
	return ErrStepLimit
}

// AtAddress returns a RunUntil predicate that holds when PC reaches address.
func AtAddress(address int) func(*Machine) bool {
	return func(m *Machine) bool { return m.PC == address }
}

// SP returns the stack pointer cell RAM[0].
func (m *Machine) SP() int16 {
	return m.RAM[0]
}

// Stack returns the cells from base up to, but excluding, SP.
func (m *Machine) Stack(base int) []int16 {
	sp := int(m.SP())
	if sp <= base || sp > len(m.RAM) {
		return nil
	}
	out := make([]int16, sp-base)
	copy(out, m.RAM[base:sp])
	return out
}
