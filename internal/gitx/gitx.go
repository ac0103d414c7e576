package gitx

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/emilianohg/git-global-log/internal/models"
)

// ErrNotRepository means the current directory is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// RefNotFoundError means a ref could not be resolved to a commit.
type RefNotFoundError struct {
	Ref string
}

func (e *RefNotFoundError) Error() string {
	return fmt.Sprintf("cannot resolve ref %q to a commit", e.Ref)
}

// IsRepository checks if the current directory is inside a git repository
func IsRepository() bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	err := cmd.Run()
	return err == nil
}

// RepoRoot returns the root directory of the git repository
func RepoRoot() (string, error) {
	return runGitCommand("rev-parse", "--show-toplevel")
}

// ResolveHash resolves any git ref (HEAD, branch, tag, short hash) to its
// canonical commit hash.
func ResolveHash(ref string) (string, error) {
	if !IsRepository() {
		return "", ErrNotRepository
	}

	hash, err := runGitCommand("rev-parse", "--verify", ref+"^{commit}")
	if err != nil {
		return "", &RefNotFoundError{Ref: ref}
	}
	return hash, nil
}

// ResolveCommit extracts the full metadata set for a ref: canonical hash,
// author, timestamp, message, repo root, current branch and changed-file
// count.
func ResolveCommit(ref string) (*models.Commit, error) {
	hash, err := ResolveHash(ref)
	if err != nil {
		return nil, err
	}

	commit := &models.Commit{Hash: hash}

	// Get timestamp
	ct, err := runGitCommand("show", "-s", "--format=%ct", hash)
	if err != nil {
		return nil, fmt.Errorf("failed to read commit time: %w", err)
	}
	seconds, err := strconv.ParseInt(ct, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("unexpected commit time %q: %w", ct, err)
	}
	commit.Timestamp = time.Unix(seconds, 0)

	// Get repository path
	commit.RepoPath, err = RepoRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to get repo root: %w", err)
	}

	// Get full message (may be multi-line)
	commit.Message, err = runGitCommand("show", "-s", "--format=%B", hash)
	if err != nil {
		return nil, fmt.Errorf("failed to read commit message: %w", err)
	}

	// Get author
	commit.AuthorName, err = runGitCommand("show", "-s", "--format=%an", hash)
	if err != nil {
		return nil, fmt.Errorf("failed to read author name: %w", err)
	}
	commit.AuthorEmail, err = runGitCommand("show", "-s", "--format=%ae", hash)
	if err != nil {
		return nil, fmt.Errorf("failed to read author email: %w", err)
	}

	// Get branch; rev-parse prints the literal "HEAD" when detached
	branch, err := runGitCommand("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to read branch: %w", err)
	}
	if branch != "HEAD" {
		commit.Branch = &branch
	}

	// Get files changed; --root makes a parentless commit diff against the
	// empty tree, so its full file list is counted
	filesOutput, err := runGitCommand("diff-tree", "--no-commit-id", "--name-only", "-r", "--root", hash)
	if err != nil {
		return nil, fmt.Errorf("failed to count changed files: %w", err)
	}
	if filesOutput != "" {
		commit.FilesChanged = len(strings.Split(filesOutput, "\n"))
	}

	return commit, nil
}

func runGitCommand(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
