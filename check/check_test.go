//go:build linux && amd64
// +build linux,amd64

package check

import (
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/trapfixture/trapfixture/config"
	protest "github.com/trapfixture/trapfixture/proc/test"
	"github.com/trapfixture/trapfixture/target"
)

func TestMain(m *testing.M) {
	os.Exit(protest.RunTestsWithFixtures(m))
}

func assertNoError(err error, t *testing.T, s string) {
	if err != nil {
		t.Fatalf("%s: %v", s, err)
	}
}

func TestControlledRun(t *testing.T) {
	fixture := protest.BuildFixture("tracee")

	res, err := Run(fixture.Path, config.Default())
	assertNoError(err, t, "Run()")
	if !res.Passed() {
		t.Fatalf("contract violations: %v", res.Violations)
	}

	if len(res.Traps) != 2 {
		t.Fatalf("observed %d traps, want 2", len(res.Traps))
	}
	if res.Report.Local != target.CounterValue || res.Report.Shared != target.CounterValue {
		t.Errorf("report local %#x shared %#x, want both %#x",
			res.Report.Local, res.Report.Shared, target.CounterValue)
	}
	if res.ExitStatus != target.ExitStatus() {
		t.Errorf("exit status %#x, want %#x", res.ExitStatus, target.ExitStatus())
	}
}

func TestCounterMutationPropagates(t *testing.T) {
	fixture := protest.BuildFixture("tracee")

	v := int64(0xbeef)
	cfg := config.Default()
	cfg.MutateCounter = &v

	res, err := Run(fixture.Path, cfg)
	assertNoError(err, t, "Run()")
	if !res.Passed() {
		t.Fatalf("contract violations: %v", res.Violations)
	}

	if res.Report.Local != v {
		t.Errorf("local %#x did not pick up the mutated counter %#x", res.Report.Local, v)
	}
	if res.Report.Local == target.CounterValue || res.Report.Local == target.LocalSeed {
		t.Errorf("local %#x looks cached rather than propagated live", res.Report.Local)
	}
}

func TestAddressesDistinct(t *testing.T) {
	fixture := protest.BuildFixture("tracee")

	res, err := Run(fixture.Path, config.Default())
	assertNoError(err, t, "Run()")
	if res.Report.LocalAddr == res.Report.SharedAddr {
		t.Errorf("stack local and global counter report the same address %#x", res.Report.LocalAddr)
	}
	if res.Report.SharedAddr != res.CounterAddr {
		t.Errorf("reported counter address %#x, symbol table says %#x",
			res.Report.SharedAddr, res.CounterAddr)
	}
}

// An uncontrolled run must die at the first trap without ever
// reaching the report or the fixed exit status.
func TestUncontrolledRunCrashes(t *testing.T) {
	fixture := protest.BuildFixture("tracee")

	out, err := exec.Command(fixture.Path).CombinedOutput()
	if err == nil {
		t.Fatal("tracee survived without a controller attached")
	}
	ee, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected exit error, got %v", err)
	}
	if ee.Sys().(interface{ ExitStatus() int }).ExitStatus() == target.ExitStatus() {
		t.Error("tracee completed its sequence without a controller")
	}
	if strings.Contains(string(out), "local: ") {
		t.Errorf("tracee reached its report without a controller:\n%s", out)
	}
	if !strings.Contains(string(out), "SIGTRAP") {
		t.Errorf("expected a trap crash, got:\n%s", out)
	}
}
