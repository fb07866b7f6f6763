package security

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkspace(t *testing.T) (*Workspace, string) {
	t.Helper()
	dir := t.TempDir()
	ws, err := New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws, ws.Dir()
}

func TestWorkspace_Normalize(t *testing.T) {
	ws, dir := newWorkspace(t)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"simple file", "export.json", "export.json", nil},
		{"subdirectory", "backup/export.json", "backup/export.json", nil},
		{"dot slash", "./export.json", "export.json", nil},
		{"dot segments", "a/./b/../export.json", "a/export.json", nil},
		{"absolute inside", filepath.Join(dir, "sub", "x.json"), "sub/x.json", nil},
		{"parent", "../export.json", "", ErrPathEscapes},
		{"nested parent", "a/../../export.json", "", ErrPathEscapes},
		{"absolute outside", filepath.Join(filepath.Dir(dir), "other.json"), "", ErrAbsolutePath},
		{"empty", "", "", ErrEmptyPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ws.Normalize(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWorkspace_ReadWrite(t *testing.T) {
	ws, dir := newWorkspace(t)

	require.NoError(t, ws.WriteFile("sheets/page1.txt", []byte("payload"), 0600))

	data, err := os.ReadFile(filepath.Join(dir, "sheets", "page1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	data, err = ws.ReadFile("sheets/page1.txt")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	info, err := ws.Stat("sheets/page1.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 7, info.Size())
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestWorkspace_WriteNestedAndOverwrite(t *testing.T) {
	ws, dir := newWorkspace(t)

	require.NoError(t, ws.WriteFile("a/b/c/page.txt", []byte("first longer payload"), 0600))
	require.NoError(t, ws.WriteFile("a/b/c/page.txt", []byte("second"), 0600))
	require.NoError(t, ws.WriteFile("a/b/other.txt", []byte("x"), 0600))

	data, err := os.ReadFile(filepath.Join(dir, "a", "b", "c", "page.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data), "rewrite truncates")

	info, err := os.Stat(filepath.Join(dir, "a", "b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	}

	_, err = ws.ReadFile("a/missing.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWorkspace_RejectsEscapes(t *testing.T) {
	ws, dir := newWorkspace(t)

	assert.ErrorIs(t, ws.WriteFile("../evil.txt", []byte("x"), 0600), ErrPathEscapes)
	_, err := ws.ReadFile("../../etc/passwd")
	assert.ErrorIs(t, err, ErrPathEscapes)
	_, err = ws.Stat("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "evil.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestWorkspace_SymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	ws, dir := newWorkspace(t)

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.json"), []byte("[]"), 0600))
	require.NoError(t, os.Symlink(outside, filepath.Join(dir, "link")))

	_, err := ws.ReadFile("link/secret.json")
	assert.Error(t, err)
}
