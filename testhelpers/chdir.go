package testhelpers

import (
	"os"
	"testing"
)

// Chdir changes the working directory for the duration of the test and
// restores it on cleanup. It stands in for testing.T.Chdir, which is not
// available before Go 1.24.
func Chdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("chdir %s: %v", prev, err)
		}
	})
}
