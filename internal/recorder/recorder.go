package recorder

import (
	"errors"
	"fmt"
	"os"

	"github.com/emilianohg/git-global-log/internal/db"
	"github.com/emilianohg/git-global-log/internal/gitx"
	"github.com/emilianohg/git-global-log/internal/repository"
)

// Recorder performs the resolve-then-write operations against one database
// path. The path is injected so tests and the --db-path flag can point it
// anywhere.
type Recorder struct {
	dbPath string
}

func New(dbPath string) *Recorder {
	return &Recorder{dbPath: dbPath}
}

type AddResult struct {
	CommitHash string
	RepoPath   string
	Message    string
	Branch     string
	Replaced   bool
}

// Add resolves ref and upserts its metadata. An unresolvable ref fails
// before the database is touched.
func (r *Recorder) Add(ref string) (*AddResult, error) {
	commit, err := gitx.ResolveCommit(ref)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(r.dbPath)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	commitRepo := repository.NewCommitRepo(database)

	existing, err := commitRepo.GetByHash(commit.Hash)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing commit: %w", err)
	}

	if _, err := commitRepo.Upsert(commit); err != nil {
		return nil, fmt.Errorf("failed to record commit: %w", err)
	}

	return &AddResult{
		CommitHash: commit.Hash,
		RepoPath:   commit.RepoPath,
		Message:    commit.Message,
		Branch:     commit.BranchName(),
		Replaced:   existing != nil,
	}, nil
}

type DropResult struct {
	CommitHash string
	Found      bool
}

// Drop deletes the row for ref. Inside a repository the ref is canonicalized
// first; elsewhere (or when resolution fails) the literal argument is used,
// so rows survive history rewrites but stay removable. A missing row or a
// missing database file is not an error.
func (r *Recorder) Drop(ref string) (*DropResult, error) {
	hash := ref
	if gitx.IsRepository() {
		resolved, err := gitx.ResolveHash(ref)
		if err == nil {
			hash = resolved
		} else {
			var refErr *gitx.RefNotFoundError
			if !errors.As(err, &refErr) {
				return nil, err
			}
		}
	}

	result := &DropResult{CommitHash: hash}

	if _, err := os.Stat(r.dbPath); os.IsNotExist(err) {
		return result, nil
	}

	database, err := db.Open(r.dbPath)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	commitRepo := repository.NewCommitRepo(database)
	result.Found, err = commitRepo.Delete(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to delete commit: %w", err)
	}

	return result, nil
}

type ImportOptions = gitx.HistoryOptions

type ImportResult struct {
	RepoPath   string
	TotalFound int
	Imported   int
	Replaced   int
}

// Import bulk-records historical commits of the current repository.
func (r *Recorder) Import(opts ImportOptions) (*ImportResult, error) {
	hashes, err := gitx.ListHashes(opts)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{TotalFound: len(hashes)}

	if len(hashes) == 0 {
		return result, nil
	}

	database, err := db.Open(r.dbPath)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	commitRepo := repository.NewCommitRepo(database)

	for _, hash := range hashes {
		commit, err := gitx.ResolveCommit(hash)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve commit %s: %w", shortHash(hash), err)
		}
		result.RepoPath = commit.RepoPath

		existing, err := commitRepo.GetByHash(commit.Hash)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing commit: %w", err)
		}

		if _, err := commitRepo.Upsert(commit); err != nil {
			return nil, fmt.Errorf("failed to record commit %s: %w", shortHash(hash), err)
		}

		if existing != nil {
			result.Replaced++
		} else {
			result.Imported++
		}
	}

	return result, nil
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
