package proc

import (
	"golang.org/x/arch/x86/x86asm"
)

// breakpointInstruction is the amd64 software breakpoint (INT 3).
var breakpointInstruction = []byte{0xCC}

// AtBreakpointInstruction reports whether the tracee is stopped just
// past a breakpoint instruction, by decoding the instruction that
// precedes the current PC.
func (p *Process) AtBreakpointInstruction() (bool, error) {
	regs, err := p.Registers()
	if err != nil {
		return false, err
	}
	mem := make([]byte, len(breakpointInstruction))
	addr := uintptr(regs.PC() - uint64(len(breakpointInstruction)))
	if _, err := p.ReadMemory(addr, mem); err != nil {
		return false, err
	}
	inst, err := x86asm.Decode(mem, 64)
	if err != nil || inst.Op != x86asm.INT {
		return false, nil
	}
	imm, ok := inst.Args[0].(x86asm.Imm)
	return ok && imm == 3, nil
}
