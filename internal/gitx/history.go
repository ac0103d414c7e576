package gitx

import (
	"fmt"
	"strings"
	"time"
)

type HistoryOptions struct {
	Count  int       // 0 means all
	Since  time.Time // zero = no filter
	Branch string    // empty = all branches
}

// ListHashes returns commit hashes of the current repository, newest first.
func ListHashes(opts HistoryOptions) ([]string, error) {
	if !IsRepository() {
		return nil, ErrNotRepository
	}

	args := []string{"rev-list"}

	if opts.Count > 0 {
		args = append(args, fmt.Sprintf("-n%d", opts.Count))
	}

	if !opts.Since.IsZero() {
		args = append(args, fmt.Sprintf("--since=%s", opts.Since.Format("2006-01-02")))
	}

	if opts.Branch != "" {
		args = append(args, opts.Branch)
	} else {
		// All branches
		args = append(args, "--all")
	}

	output, err := runGitCommand(args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}

	if output == "" {
		return []string{}, nil
	}

	return strings.Split(output, "\n"), nil
}
