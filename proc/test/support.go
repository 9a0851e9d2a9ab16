package test

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// Fixture is a built tracee binary.
type Fixture struct {
	// Name is the short name of the fixture.
	Name string
	// Path is the absolute path to the built binary.
	Path string
	// Source is the directory of the fixture's main package.
	Source string
}

var fixtures = make(map[string]Fixture)

// BuildFixture compiles the cmd package with the given name with
// optimizations and inlining disabled, the way a debugger wants the
// target compiled, and returns the resulting binary.
func BuildFixture(name string) Fixture {
	if f, ok := fixtures[name]; ok {
		return f
	}

	srcDir := filepath.Join(findModuleDir(), "cmd", name)

	// Make a (good enough) random temporary file name.
	r := make([]byte, 4)
	rand.Read(r)
	tmpfile := filepath.Join(os.TempDir(), fmt.Sprintf("%s.%s", name, hex.EncodeToString(r)))

	cmd := exec.Command("go", "build", "-gcflags=all=-N -l", "-o", tmpfile, ".")
	cmd.Dir = srcDir
	if out, err := cmd.CombinedOutput(); err != nil {
		fmt.Printf("Error compiling %s: %s\n%s\n", srcDir, err, out)
		os.Exit(1)
	}

	source, _ := filepath.Abs(srcDir)
	fixtures[name] = Fixture{Name: name, Path: tmpfile, Source: source}
	return fixtures[name]
}

func findModuleDir() string {
	dir := "."
	for depth := 0; depth < 10; depth++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		dir = filepath.Join("..", dir)
	}
	return "."
}

// RunTestsWithFixtures runs the test methods and deletes any built
// fixture binaries before exiting.
func RunTestsWithFixtures(m *testing.M) int {
	status := m.Run()

	for _, f := range fixtures {
		os.Remove(f.Path)
	}
	return status
}
