// Package testhelpers builds throwaway git repositories for tests.
package testhelpers

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

type GitRepo struct {
	Dir string

	t *testing.T
}

// NewGitRepo initializes a fresh repository in a temp directory with a test
// user configured.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()

	dir := t.TempDir()

	cmd := exec.Command("git", "-c", "init.defaultBranch=main", "init", dir, "-b", "main")
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git init failed: %v\n%s", err, output)
	}

	repo := &GitRepo{Dir: dir, t: t}
	repo.Git("config", "user.name", "Test User")
	repo.Git("config", "user.email", "test@example.com")

	return repo
}

// Git runs a git command in the repository and returns its trimmed output.
func (r *GitRepo) Git(args ...string) string {
	r.t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			r.t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, exitErr.Stderr)
		}
		r.t.Fatalf("git %s failed: %v", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output))
}

func (r *GitRepo) WriteFile(name, content string) {
	r.t.Helper()

	path := filepath.Join(r.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		r.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		r.t.Fatal(err)
	}
}

// Commit stages the named files (everything when none given) and commits,
// returning the new commit hash.
func (r *GitRepo) Commit(message string, files ...string) string {
	r.t.Helper()

	if len(files) == 0 {
		r.Git("add", "-A")
	} else {
		r.Git(append([]string{"add"}, files...)...)
	}
	r.Git("commit", "-m", message)
	return r.Git("rev-parse", "HEAD")
}

// DetachHead checks out the current commit directly, leaving HEAD detached.
func (r *GitRepo) DetachHead() {
	r.t.Helper()
	r.Git("checkout", "--detach", "HEAD")
}
