package proc

import (
	"fmt"

	sys "golang.org/x/sys/unix"
)

// Regs is a wrapper for sys.PtraceRegs.
type Regs struct {
	regs *sys.PtraceRegs
}

// PC returns the value of the RIP register.
func (r *Regs) PC() uint64 {
	return r.regs.PC()
}

// SP returns the value of the RSP register.
func (r *Regs) SP() uint64 {
	return r.regs.Rsp
}

// SetPC sets RIP to the value specified by 'pc' and writes the
// register set back to the stopped tracee.
func (r *Regs) SetPC(p *Process, pc uint64) (err error) {
	r.regs.SetPC(pc)
	p.execPtrace(func() { err = sys.PtraceSetRegs(p.Pid, r.regs) })
	return
}

// Registers returns the current register set of the traced thread.
func (p *Process) Registers() (*Regs, error) {
	if p.exited {
		return nil, ProcessExitedError{Pid: p.Pid}
	}
	var regs sys.PtraceRegs
	var err error
	p.execPtrace(func() { err = sys.PtraceGetRegs(p.Pid, &regs) })
	if err != nil {
		return nil, fmt.Errorf("could not get registers: %v", err)
	}
	return &Regs{&regs}, nil
}
