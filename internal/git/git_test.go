package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gitInit(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "test"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	return dir
}

func TestCheckGitIntegration_NotRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()

	status, err := CheckGitIntegration(context.Background(), dir, ".sealsheet", []string{"export.json"})
	require.NoError(t, err)
	assert.False(t, status.IsRepo)
	assert.Empty(t, FormatGitStatus(status, ".sealsheet"))
}

func TestCheckGitIntegration(t *testing.T) {
	dir := gitInit(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".sealsheet"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "committed.json"), []byte("[]"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.json"), []byte("[]"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loose.json"), []byte("[]"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("ignored.json\n"), 0600))

	cmd := exec.Command("git", "add", "committed.json")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))

	status, err := CheckGitIntegration(ctx, dir, ".sealsheet",
		[]string{"committed.json", "ignored.json", "loose.json"})
	require.NoError(t, err)

	assert.True(t, status.IsRepo)
	assert.False(t, status.ArchiveTracked)
	assert.Equal(t, []string{"committed.json"}, status.TrackedSources)
	assert.Equal(t, []string{"ignored.json"}, status.IgnoredSources)
	assert.ElementsMatch(t, []string{"committed.json", "loose.json"}, status.UnignoredSources)

	text := FormatGitStatus(status, ".sealsheet")
	assert.Contains(t, text, "warning: .sealsheet not tracked")
	assert.Contains(t, text, "error: plaintext source committed.json is tracked")
	assert.Contains(t, text, "warning: plaintext source loose.json not in .gitignore")
	assert.NotContains(t, text, "committed.json not in .gitignore")
}
