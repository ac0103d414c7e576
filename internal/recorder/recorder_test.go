package recorder

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emilianohg/git-global-log/internal/db"
	"github.com/emilianohg/git-global-log/internal/gitx"
	"github.com/emilianohg/git-global-log/internal/repository"
	"github.com/emilianohg/git-global-log/testhelpers"
)

func testDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "log.sqlite")
}

func openRepo(t *testing.T, dbPath string) *repository.CommitRepo {
	t.Helper()

	database, err := db.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return repository.NewCommitRepo(database)
}

func TestAddRecordsHead(t *testing.T) {
	repo := testhelpers.NewGitRepo(t)
	testhelpers.Chdir(t, repo.Dir)

	repo.WriteFile("a.txt", "one")
	repo.WriteFile("b.txt", "two")
	repo.WriteFile("c.txt", "three")
	repo.Commit("Initial commit")

	repo.WriteFile("a.txt", "changed")
	repo.WriteFile("b.txt", "changed")
	repo.WriteFile("d.txt", "four")
	hash := repo.Commit("Fix bug")

	dbPath := testDBPath(t)

	result, err := New(dbPath).Add("HEAD")
	require.NoError(t, err)
	require.Equal(t, hash, result.CommitHash)
	require.False(t, result.Replaced)

	stored, err := openRepo(t, dbPath).GetByHash(hash)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "Fix bug", stored.Message)
	require.Equal(t, "Test User", stored.AuthorName)
	require.Equal(t, "test@example.com", stored.AuthorEmail)
	require.NotNil(t, stored.Branch)
	require.Equal(t, "main", *stored.Branch)
	require.Equal(t, 3, stored.FilesChanged)
}

func TestAddTwiceKeepsOneRow(t *testing.T) {
	repo := testhelpers.NewGitRepo(t)
	testhelpers.Chdir(t, repo.Dir)

	repo.WriteFile("a.txt", "one")
	hash := repo.Commit("Initial commit")

	dbPath := testDBPath(t)
	rec := New(dbPath)

	first, err := rec.Add("HEAD")
	require.NoError(t, err)
	require.False(t, first.Replaced)

	second, err := rec.Add("HEAD")
	require.NoError(t, err)
	require.True(t, second.Replaced)
	require.Equal(t, hash, second.CommitHash)

	commits := openRepo(t, dbPath)
	count, err := commits.Count()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestAddUnknownRefWritesNothing(t *testing.T) {
	repo := testhelpers.NewGitRepo(t)
	testhelpers.Chdir(t, repo.Dir)

	repo.WriteFile("a.txt", "one")
	repo.Commit("Initial commit")

	dbPath := testDBPath(t)

	_, err := New(dbPath).Add("nonexistent-ref")
	var refErr *gitx.RefNotFoundError
	require.ErrorAs(t, err, &refErr)

	count, err := openRepo(t, dbPath).Count()
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestAddDropRoundTrip(t *testing.T) {
	repo := testhelpers.NewGitRepo(t)
	testhelpers.Chdir(t, repo.Dir)

	repo.WriteFile("a.txt", "one")
	hash := repo.Commit("Initial commit")

	dbPath := testDBPath(t)
	rec := New(dbPath)

	_, err := rec.Add("HEAD")
	require.NoError(t, err)

	dropped, err := rec.Drop("HEAD")
	require.NoError(t, err)
	require.True(t, dropped.Found)
	require.Equal(t, hash, dropped.CommitHash)

	// Dropping again is a no-op, not an error
	again, err := rec.Drop("HEAD")
	require.NoError(t, err)
	require.False(t, again.Found)

	count, err := openRepo(t, dbPath).Count()
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestDropWithoutDatabase(t *testing.T) {
	repo := testhelpers.NewGitRepo(t)
	testhelpers.Chdir(t, repo.Dir)

	repo.WriteFile("a.txt", "one")
	repo.Commit("Initial commit")

	result, err := New(testDBPath(t)).Drop("HEAD")
	require.NoError(t, err)
	require.False(t, result.Found)
}

func TestDropOutsideRepositoryUsesLiteralHash(t *testing.T) {
	repo := testhelpers.NewGitRepo(t)
	testhelpers.Chdir(t, repo.Dir)

	repo.WriteFile("a.txt", "one")
	hash := repo.Commit("Initial commit")

	dbPath := testDBPath(t)
	_, err := New(dbPath).Add("HEAD")
	require.NoError(t, err)

	testhelpers.Chdir(t, t.TempDir())

	result, err := New(dbPath).Drop(hash)
	require.NoError(t, err)
	require.True(t, result.Found)
}

func TestAddDetachedHeadStoresNoBranch(t *testing.T) {
	repo := testhelpers.NewGitRepo(t)
	testhelpers.Chdir(t, repo.Dir)

	repo.WriteFile("a.txt", "one")
	hash := repo.Commit("Initial commit")
	repo.DetachHead()

	dbPath := testDBPath(t)
	_, err := New(dbPath).Add("HEAD")
	require.NoError(t, err)

	stored, err := openRepo(t, dbPath).GetByHash(hash)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Nil(t, stored.Branch)
}

func TestConcurrentAddsBothLand(t *testing.T) {
	repo := testhelpers.NewGitRepo(t)
	testhelpers.Chdir(t, repo.Dir)

	repo.WriteFile("a.txt", "one")
	first := repo.Commit("First")
	repo.WriteFile("a.txt", "two")
	second := repo.Commit("Second")

	dbPath := testDBPath(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, hash := range []string{first, second} {
		wg.Add(1)
		go func(i int, hash string) {
			defer wg.Done()
			_, errs[i] = New(dbPath).Add(hash)
		}(i, hash)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	commits := openRepo(t, dbPath)
	for _, hash := range []string{first, second} {
		stored, err := commits.GetByHash(hash)
		require.NoError(t, err)
		require.NotNil(t, stored, "commit %s should be recorded", hash[:8])
	}
}

func TestImport(t *testing.T) {
	repo := testhelpers.NewGitRepo(t)
	testhelpers.Chdir(t, repo.Dir)

	repo.WriteFile("a.txt", "one")
	first := repo.Commit("First")
	repo.WriteFile("a.txt", "two")
	repo.Commit("Second")
	repo.WriteFile("a.txt", "three")
	repo.Commit("Third")

	dbPath := testDBPath(t)
	rec := New(dbPath)

	// Pre-record one commit so the import replaces it
	_, err := rec.Add(first)
	require.NoError(t, err)

	result, err := rec.Import(ImportOptions{})
	require.NoError(t, err)
	require.Equal(t, 3, result.TotalFound)
	require.Equal(t, 2, result.Imported)
	require.Equal(t, 1, result.Replaced)

	count, err := openRepo(t, dbPath).Count()
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestImportCountLimit(t *testing.T) {
	repo := testhelpers.NewGitRepo(t)
	testhelpers.Chdir(t, repo.Dir)

	repo.WriteFile("a.txt", "one")
	repo.Commit("First")
	repo.WriteFile("a.txt", "two")
	second := repo.Commit("Second")

	dbPath := testDBPath(t)

	result, err := New(dbPath).Import(ImportOptions{Count: 1})
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalFound)
	require.Equal(t, 1, result.Imported)

	stored, err := openRepo(t, dbPath).GetByHash(second)
	require.NoError(t, err)
	require.NotNil(t, stored)
}
