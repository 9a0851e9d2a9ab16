package proc

import (
	"encoding/binary"

	sys "golang.org/x/sys/unix"
)

// Continue resumes the tracee until its next stop.
func (p *Process) Continue() error {
	if p.exited {
		return ProcessExitedError{Pid: p.Pid}
	}
	var err error
	p.execPtrace(func() { err = sys.PtraceCont(p.Pid, 0) })
	return err
}

func (p *Process) contSignal(sig int) error {
	var err error
	p.execPtrace(func() { err = sys.PtraceCont(p.Pid, sig) })
	return err
}

// StepInstruction executes a single instruction of the tracee and
// waits for the resulting stop. Signals that arrive mid-step are
// handed back to the tracee.
func (p *Process) StepInstruction() error {
	if p.exited {
		return ProcessExitedError{Pid: p.Pid}
	}
	sig := 0
	for {
		var err error
		p.execPtrace(func() { err = ptraceSingleStep(p.Pid, sig) })
		if err != nil {
			return err
		}
		_, status, err := p.wait()
		if err != nil {
			return err
		}
		if status.Exited() {
			p.postExit()
			return ProcessExitedError{Pid: p.Pid, Status: status.ExitStatus()}
		}
		if status.StopSignal() == sys.SIGTRAP {
			return nil
		}
		sig = int(status.StopSignal())
	}
}

// ptraceSingleStep issues PTRACE_SINGLESTEP, delivering sig on resume.
// x/sys has no variant that takes a signal, hence the raw call.
func ptraceSingleStep(pid, sig int) error {
	_, _, errno := sys.Syscall6(sys.SYS_PTRACE, sys.PTRACE_SINGLESTEP, uintptr(pid), 0, uintptr(sig), 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// ReadMemory reads len(data) bytes of tracee memory at addr. The
// tracee must be stopped.
func (p *Process) ReadMemory(addr uintptr, data []byte) (n int, err error) {
	if len(data) == 0 {
		return
	}
	p.execPtrace(func() { n, err = sys.PtracePeekData(p.Pid, addr, data) })
	return
}

// WriteMemory writes data into tracee memory at addr. The tracee must
// be stopped.
func (p *Process) WriteMemory(addr uintptr, data []byte) (n int, err error) {
	if len(data) == 0 {
		return
	}
	p.execPtrace(func() { n, err = sys.PtracePokeData(p.Pid, addr, data) })
	return
}

// ReadWord reads one 64-bit little-endian word of tracee memory.
func (p *Process) ReadWord(addr uint64) (uint64, error) {
	buf := make([]byte, 8)
	if _, err := p.ReadMemory(uintptr(addr), buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// WriteWord overwrites one 64-bit little-endian word of tracee memory.
func (p *Process) WriteWord(addr, val uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, val)
	_, err := p.WriteMemory(uintptr(addr), buf)
	return err
}
