//go:build linux && amd64
// +build linux,amd64

// Package check drives a tracee binary through its checkpoint
// sequence under ptrace and verifies the contract it advertises: two
// breakpoint traps in a fixed order, externally mutable shared state
// picked up live by the propagation step, a parseable self-report and
// a fixed truncated exit status.
package check

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/trapfixture/trapfixture/config"
	"github.com/trapfixture/trapfixture/logflags"
	"github.com/trapfixture/trapfixture/proc"
	"github.com/trapfixture/trapfixture/target"
)

// TrapStop records what was observed at one trap checkpoint.
type TrapStop struct {
	// PC is the program counter at the stop.
	PC uint64
	// Counter is the value the shared counter held at the stop.
	Counter int64
	// Breakpoint is true if the instruction preceding PC decoded as
	// INT 3.
	Breakpoint bool
}

// Result collects everything observed during one controlled run.
type Result struct {
	CounterAddr uint64
	Traps       []TrapStop
	MutatedTo   *int64
	ExitStatus  int
	Report      target.Report
	Violations  []string
}

// Passed reports whether the run satisfied the whole contract.
func (r *Result) Passed() bool {
	return len(r.Violations) == 0
}

func (r *Result) violatef(format string, args ...interface{}) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

// Run launches the tracee at path and drives it through both traps,
// applying the mutation described by cfg between them. It returns an
// error only when the harness itself fails; contract violations are
// collected in the Result.
func Run(path string, cfg *config.Config) (*Result, error) {
	logger := logflags.CheckLogger()

	stdout, err := ioutil.TempFile("", "tracee-out")
	if err != nil {
		return nil, err
	}
	defer os.Remove(stdout.Name())
	defer stdout.Close()

	p, err := proc.Launch(path, stdout, os.Stderr)
	if err != nil {
		return nil, err
	}
	defer func() {
		if !p.Exited() {
			p.Kill()
		}
	}()

	counterAddr, err := p.LookupSymbol(target.CounterSymbol)
	if err != nil {
		return nil, err
	}
	res := &Result{CounterAddr: counterAddr}

	// Trap 1: before any mutation the counter must still be zero.
	if err := p.Continue(); err != nil {
		return nil, err
	}
	if err := waitTrap(p, counterAddr, res, logger); err != nil {
		return nil, err
	}
	if got := res.Traps[0].Counter; got != 0 {
		res.violatef("counter holds %#x at first trap, want 0", got)
	}

	expected := int64(target.CounterValue)
	if cfg.MutateCounter != nil {
		v := *cfg.MutateCounter
		if err := mutateAfterStore(p, counterAddr, v, cfg.StepLimit, logger); err != nil {
			return nil, err
		}
		res.MutatedTo = cfg.MutateCounter
		expected = v
	}

	// Trap 2: the propagation step has run.
	if err := p.Continue(); err != nil {
		return nil, err
	}
	if err := waitTrap(p, counterAddr, res, logger); err != nil {
		return nil, err
	}
	if got := res.Traps[1].Counter; got != expected {
		res.violatef("counter holds %#x at second trap, want %#x", got, expected)
	}

	// The tracee must now run to completion without further traps.
	if err := p.Continue(); err != nil {
		return nil, err
	}
	switch err := p.TrapWait().(type) {
	case proc.ProcessExitedError:
		res.ExitStatus = err.Status
	case nil:
		res.violatef("unexpected trap after the second checkpoint")
		p.Kill()
	default:
		return nil, err
	}

	if res.ExitStatus != target.ExitStatus() {
		res.violatef("exit status %#x, want %#x", res.ExitStatus, target.ExitStatus())
	}

	report, err := readReport(stdout.Name())
	if err != nil {
		res.violatef("%v", err)
	} else {
		res.Report = report
		if report.Local != expected {
			res.violatef("reported local %#x, want %#x", report.Local, expected)
		}
		if report.Shared != expected {
			res.violatef("reported shared %#x, want %#x", report.Shared, expected)
		}
		if report.LocalAddr == report.SharedAddr {
			res.violatef("local and shared report the same address %#x", report.LocalAddr)
		}
		if report.SharedAddr != counterAddr {
			res.violatef("reported counter address %#x, symbol table says %#x", report.SharedAddr, counterAddr)
		}
	}

	for i, tr := range res.Traps {
		if !tr.Breakpoint {
			res.violatef("stop %d was not at a breakpoint instruction (pc %#x)", i+1, tr.PC)
		}
	}
	if len(res.Traps) != 2 {
		res.violatef("observed %d traps, want 2", len(res.Traps))
	}

	return res, nil
}

func waitTrap(p *proc.Process, counterAddr uint64, res *Result, logger *logrus.Entry) error {
	if err := p.TrapWait(); err != nil {
		return err
	}
	regs, err := p.Registers()
	if err != nil {
		return err
	}
	atbp, err := p.AtBreakpointInstruction()
	if err != nil {
		return err
	}
	word, err := p.ReadWord(counterAddr)
	if err != nil {
		return err
	}
	logger.Debugf("trap %d at %#x, counter %#x", len(res.Traps)+1, regs.PC(), word)
	res.Traps = append(res.Traps, TrapStop{PC: regs.PC(), Counter: int64(word), Breakpoint: atbp})
	return nil
}

// mutateAfterStore single-steps the tracee until its own store of
// CounterValue has landed, then overwrites the counter with v. This
// places the write after the tracee's store but before the
// propagation step, the window the fixture is designed to expose.
func mutateAfterStore(p *proc.Process, addr uint64, v int64, limit int, logger *logrus.Entry) error {
	if limit <= 0 {
		limit = config.DefaultStepLimit
	}
	for i := 0; i < limit; i++ {
		word, err := p.ReadWord(addr)
		if err != nil {
			return err
		}
		if int64(word) == target.CounterValue {
			logger.Debugf("counter store seen after %d steps, writing %#x", i, v)
			return p.WriteWord(addr, uint64(v))
		}
		if err := p.StepInstruction(); err != nil {
			return err
		}
	}
	return fmt.Errorf("counter store not observed within %d steps", limit)
}

func readReport(path string) (target.Report, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return target.Report{}, err
	}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if target.IsReport(line) {
			return target.ParseReport(line)
		}
	}
	return target.Report{}, fmt.Errorf("no report line in tracee output")
}
