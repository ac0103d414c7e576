package models

import "time"

type Commit struct {
	ID           int64
	Hash         string
	Timestamp    time.Time
	RepoPath     string
	Message      string
	AuthorName   string
	AuthorEmail  string
	Branch       *string // nil when the commit was made with a detached HEAD
	FilesChanged int
	CreatedAt    time.Time
}

// BranchName returns the branch or a placeholder for detached commits.
func (c *Commit) BranchName() string {
	if c.Branch == nil {
		return "(detached)"
	}
	return *c.Branch
}
