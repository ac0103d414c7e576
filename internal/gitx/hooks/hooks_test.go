package hooks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstallHookWritesExecutableScript(t *testing.T) {
	hooksDir := t.TempDir()

	require.NoError(t, installHook(hooksDir, "post-commit", postCommitHook))

	hookPath := filepath.Join(hooksDir, "post-commit")
	info, err := os.Stat(hookPath)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0111, "hook must be executable")

	content, err := os.ReadFile(hookPath)
	require.NoError(t, err)
	require.Contains(t, string(content), "git-global-log hook")
	// The hook must never fail the enclosing commit
	require.Contains(t, string(content), "exit 0")
}

func TestInstallHookBacksUpForeignHook(t *testing.T) {
	hooksDir := t.TempDir()
	hookPath := filepath.Join(hooksDir, "post-commit")

	existing := "#!/bin/bash\necho custom hook\n"
	require.NoError(t, os.WriteFile(hookPath, []byte(existing), 0755))

	require.NoError(t, installHook(hooksDir, "post-commit", postCommitHook))

	backup, err := os.ReadFile(hookPath + ".legacy")
	require.NoError(t, err)
	require.Equal(t, existing, string(backup))

	content, err := os.ReadFile(hookPath)
	require.NoError(t, err)
	require.Contains(t, string(content), "git-global-log")
	// Our hook chains the backed-up one
	require.Contains(t, string(content), `"$0.legacy"`)
}

func TestInstallHookIsIdempotent(t *testing.T) {
	hooksDir := t.TempDir()

	require.NoError(t, installHook(hooksDir, "post-commit", postCommitHook))
	require.NoError(t, installHook(hooksDir, "post-commit", postCommitHook))

	// Re-installing our own hook must not back it up over a real legacy hook
	_, err := os.Stat(filepath.Join(hooksDir, "post-commit.legacy"))
	require.True(t, os.IsNotExist(err))
}

func TestMigrateExistingHooks(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(oldDir, "pre-push"), []byte("#!/bin/bash\n"), 0755))

	require.NoError(t, migrateExistingHooks(oldDir, newDir))

	_, err := os.Stat(filepath.Join(newDir, "pre-push.legacy"))
	require.NoError(t, err)
}
