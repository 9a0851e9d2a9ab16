//go:build linux && amd64
// +build linux,amd64

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/trapfixture/trapfixture/check"
	"github.com/trapfixture/trapfixture/config"
	"github.com/trapfixture/trapfixture/logflags"
)

const version string = "0.1.0"

var (
	logEnabled bool
	logOutput  string
	configPath string
	mutate     int64
)

func main() {
	// Main trapcheck root command.
	rootCommand := &cobra.Command{
		Use:   "trapcheck",
		Short: "Trapcheck drives the tracee fixture under ptrace and verifies its checkpoint contract.",
	}
	rootCommand.PersistentFlags().BoolVarP(&logEnabled, "log", "", false, "Enable harness logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", "", "Comma separated list of components that should produce log output (tracer,check).")

	// 'version' subcommand.
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Trapcheck version: " + version)
		},
	}
	rootCommand.AddCommand(versionCommand)

	// 'run' subcommand.
	runCommand := &cobra.Command{
		Use:   "run [tracee binary]",
		Short: "Run the tracee under the harness and verify its contract.",
		Long: `Runs the given tracee binary under ptrace, stops at both of its traps,
optionally rewrites the shared counter between them, and verifies every
observable checkpoint. With no argument the fixture is compiled from
cmd/tracee with optimizations disabled.`,
		Run: runCheck,
	}
	runCommand.Flags().StringVarP(&configPath, "config", "c", "", "YAML scenario file.")
	runCommand.Flags().Int64VarP(&mutate, "mutate", "m", 0, "Overwrite the shared counter with this value between the traps.")
	rootCommand.AddCommand(runCommand)

	rootCommand.Execute()
}

func runCheck(cmd *cobra.Command, args []string) {
	if err := logflags.Setup(logEnabled, logOutput); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if cmd.Flags().Changed("mutate") {
		cfg.MutateCounter = &mutate
	}

	path := cfg.FixturePath
	if len(args) > 0 {
		path = args[0]
	}
	var cleanup string
	if path == "" {
		built, err := buildFixture()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		path = built
		cleanup = built
	}

	res, err := check.Run(path, cfg)
	if cleanup != "" {
		os.Remove(cleanup)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	printResult(res)
	if !res.Passed() {
		os.Exit(1)
	}
}

// buildFixture compiles cmd/tracee the way a debugger wants the
// target compiled: optimizations and inlining disabled.
func buildFixture() (string, error) {
	const debugname = "tracee.debug"
	goBuild := exec.Command("go", "build", "-o", debugname, "-gcflags", "all=-N -l", "github.com/trapfixture/trapfixture/cmd/tracee")
	goBuild.Stderr = os.Stderr
	if err := goBuild.Run(); err != nil {
		return "", fmt.Errorf("could not compile tracee: %v", err)
	}
	return filepath.Abs("./" + debugname)
}

func printResult(res *check.Result) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Checkpoint", "Observed"})
	for i, tr := range res.Traps {
		table.Append([]string{
			fmt.Sprintf("trap %d", i+1),
			fmt.Sprintf("pc %#x, counter %#x", tr.PC, tr.Counter),
		})
	}
	if res.MutatedTo != nil {
		table.Append([]string{"mutate", fmt.Sprintf("counter <- %#x", *res.MutatedTo)})
	}
	table.Append([]string{"report", fmt.Sprintf("local %#x, shared %#x", res.Report.Local, res.Report.Shared)})
	table.Append([]string{"exit", fmt.Sprintf("status %#x", res.ExitStatus)})
	table.Render()

	if res.Passed() {
		fmt.Println("all checkpoints verified")
		return
	}
	for _, v := range res.Violations {
		fmt.Println("violation:", v)
	}
}
