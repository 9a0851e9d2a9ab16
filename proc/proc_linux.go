package proc

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"
	sys "golang.org/x/sys/unix"

	"github.com/trapfixture/trapfixture/logflags"
)

// Process represents the traced thread of a launched tracee. Only the
// thread that raises the traps is traced; the runtime's auxiliary
// threads run unobserved.
type Process struct {
	Pid int

	cmd     *exec.Cmd
	exe     string
	exited  bool
	symbols map[string]uint64
	log     *logrus.Entry

	ptraceChan     chan func()
	ptraceDoneChan chan struct{}
}

// Launch starts the program at path under ptrace and waits for it to
// stop at its exec trap. The tracee's standard output and error are
// attached to stdout and stderr.
func Launch(path string, stdout, stderr io.Writer) (*Process, error) {
	p := &Process{
		exe:            path,
		log:            logflags.TracerLogger(),
		ptraceChan:     make(chan func()),
		ptraceDoneChan: make(chan struct{}),
	}
	go p.handlePtraceFuncs()

	var err error
	p.execPtrace(func() {
		cmd := exec.Command(path)
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true, Setpgid: true}
		err = cmd.Start()
		p.cmd = cmd
	})
	if err != nil {
		return nil, fmt.Errorf("could not launch %s: %v", path, err)
	}
	p.Pid = p.cmd.Process.Pid
	if _, _, err := p.wait(); err != nil {
		return nil, fmt.Errorf("waiting for target execve failed: %v", err)
	}
	p.log.Debugf("launched %s (pid %d)", path, p.Pid)
	return p, nil
}

// All ptrace requests must come from the thread that became the
// tracer, so they are funneled through a single locked goroutine.
func (p *Process) handlePtraceFuncs() {
	runtime.LockOSThread()
	for fn := range p.ptraceChan {
		fn()
		p.ptraceDoneChan <- struct{}{}
	}
}

func (p *Process) execPtrace(fn func()) {
	p.ptraceChan <- fn
	<-p.ptraceDoneChan
}

func (p *Process) wait() (int, *sys.WaitStatus, error) {
	var s sys.WaitStatus
	wpid, err := sys.Wait4(p.Pid, &s, sys.WALL, nil)
	return wpid, &s, err
}

// TrapWait waits for the next SIGTRAP stop of the tracee, forwarding
// any other signal back to it. It returns ProcessExitedError once the
// tracee has exited.
func (p *Process) TrapWait() error {
	if p.exited {
		return ProcessExitedError{Pid: p.Pid}
	}
	for {
		wpid, status, err := p.wait()
		if err != nil {
			return fmt.Errorf("wait err %v %d", err, p.Pid)
		}
		if status.Exited() {
			p.postExit()
			return ProcessExitedError{Pid: wpid, Status: status.ExitStatus()}
		}
		if status.Signaled() {
			p.postExit()
			return fmt.Errorf("process %d killed by signal %d", wpid, status.Signal())
		}
		if status.StopSignal() == sys.SIGTRAP {
			return nil
		}
		// Not ours; hand the signal back and keep waiting.
		p.log.Debugf("forwarding signal %d to %d", status.StopSignal(), p.Pid)
		if err := p.contSignal(int(status.StopSignal())); err != nil {
			return err
		}
	}
}

// Exited reports whether the tracee has been reaped.
func (p *Process) Exited() bool {
	return p.exited
}

// Kill terminates the tracee and reaps it.
func (p *Process) Kill() error {
	if p.exited {
		return nil
	}
	if err := sys.Kill(-p.Pid, sys.SIGKILL); err != nil {
		return fmt.Errorf("could not deliver signal: %v", err)
	}
	if _, _, err := p.wait(); err != nil {
		return err
	}
	p.postExit()
	return nil
}

// Detach releases the tracee so it runs without a controller.
func (p *Process) Detach() error {
	if p.exited {
		return ProcessExitedError{Pid: p.Pid}
	}
	var err error
	p.execPtrace(func() { err = sys.PtraceDetach(p.Pid) })
	return err
}

func (p *Process) postExit() {
	if p.exited {
		return
	}
	p.exited = true
	close(p.ptraceChan)
}
