package repository

import (
	"database/sql"
	"time"

	"github.com/emilianohg/git-global-log/internal/models"
)

type CommitRepo struct {
	db *sql.DB
}

func NewCommitRepo(db *sql.DB) *CommitRepo {
	return &CommitRepo{db: db}
}

// Upsert inserts the commit or, when the hash is already recorded, replaces
// every field of the existing row. created_at always reflects the latest
// write.
func (r *CommitRepo) Upsert(c *models.Commit) (*models.Commit, error) {
	var branch sql.NullString
	if c.Branch != nil {
		branch = sql.NullString{String: *c.Branch, Valid: true}
	}

	_, err := r.db.Exec(`
		INSERT INTO commits (
			commit_hash, timestamp, repo_path, commit_message,
			author_name, author_email, branch_name, files_changed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(commit_hash) DO UPDATE SET
			timestamp = excluded.timestamp,
			repo_path = excluded.repo_path,
			commit_message = excluded.commit_message,
			author_name = excluded.author_name,
			author_email = excluded.author_email,
			branch_name = excluded.branch_name,
			files_changed = excluded.files_changed,
			created_at = strftime('%s', 'now')
	`, c.Hash, c.Timestamp.Unix(), c.RepoPath, c.Message,
		c.AuthorName, c.AuthorEmail, branch, c.FilesChanged)
	if err != nil {
		return nil, err
	}

	return r.GetByHash(c.Hash)
}

// Delete removes the row for hash and reports whether one existed.
func (r *CommitRepo) Delete(hash string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM commits WHERE commit_hash = ?", hash)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *CommitRepo) GetByHash(hash string) (*models.Commit, error) {
	row := r.db.QueryRow(`
		SELECT id, commit_hash, timestamp, repo_path, commit_message,
		       author_name, author_email, branch_name, files_changed, created_at
		FROM commits
		WHERE commit_hash = ?
	`, hash)

	c, err := scanCommit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Recent returns the newest commits by commit time. limit <= 0 means all.
func (r *CommitRepo) Recent(limit int) ([]models.Commit, error) {
	query := `
		SELECT id, commit_hash, timestamp, repo_path, commit_message,
		       author_name, author_email, branch_name, files_changed, created_at
		FROM commits
		ORDER BY timestamp DESC
	`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commits []models.Commit
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return nil, err
		}
		commits = append(commits, *c)
	}
	return commits, rows.Err()
}

// Search matches term against author, branch, repo path and message.
func (r *CommitRepo) Search(term string) ([]models.Commit, error) {
	pattern := "%" + term + "%"

	rows, err := r.db.Query(`
		SELECT id, commit_hash, timestamp, repo_path, commit_message,
		       author_name, author_email, branch_name, files_changed, created_at
		FROM commits
		WHERE author_name LIKE ? OR author_email LIKE ?
		   OR branch_name LIKE ? OR repo_path LIKE ? OR commit_message LIKE ?
		ORDER BY timestamp DESC
	`, pattern, pattern, pattern, pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commits []models.Commit
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return nil, err
		}
		commits = append(commits, *c)
	}
	return commits, rows.Err()
}

func (r *CommitRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM commits").Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCommit(row scanner) (*models.Commit, error) {
	var c models.Commit
	var timestamp int64
	var createdAt int64
	var branch sql.NullString

	err := row.Scan(
		&c.ID, &c.Hash, &timestamp, &c.RepoPath, &c.Message,
		&c.AuthorName, &c.AuthorEmail, &branch, &c.FilesChanged, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	c.Timestamp = time.Unix(timestamp, 0)
	c.CreatedAt = time.Unix(createdAt, 0)
	if branch.Valid {
		c.Branch = &branch.String
	}

	return &c, nil
}
