package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain lets testscript re-exec this test binary as the "mypycc"
// subprocess command, the way the teacher's own CLI integration suite
// drives its built binary rather than calling package functions directly.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"mypycc": func() int { return mypyccMain(os.Args[1:]) },
	}))
}

// TestScripts runs every golden .txtar fixture under testdata/script: each
// one compiles a small JSON surface-AST input and asserts properties of
// the emitted C text (spec §8's "concrete scenarios" exercised end to end
// through the CLI, not just through package-internal unit tests).
func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}
