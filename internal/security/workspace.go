package security

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	pathpkg "path"
	"path/filepath"
	"strings"
)

var (
	ErrPathEscapes  = errors.New("path escapes working directory")
	ErrAbsolutePath = errors.New("absolute path outside working directory")
	ErrEmptyPath    = errors.New("empty path not allowed")
)

// Workspace confines record sources and exported sheets to one directory.
// All reads and writes go through os.Root, so symlinks pointing outside the
// directory are refused by the OS as well.
type Workspace struct {
	root *os.Root
	dir  string
}

// New opens a Workspace rooted at dir
func New(dir string) (*Workspace, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	root, err := os.OpenRoot(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open working directory: %w", err)
	}

	return &Workspace{root: root, dir: absDir}, nil
}

// Close releases the directory handle
func (w *Workspace) Close() error {
	if w.root != nil {
		return w.root.Close()
	}
	return nil
}

// Dir returns the absolute workspace directory
func (w *Workspace) Dir() string {
	return w.dir
}

// Normalize turns a user path into a slash-separated path relative to the
// workspace. Absolute paths are accepted when they point inside it.
func (w *Workspace) Normalize(userPath string) (string, error) {
	if userPath == "" {
		return "", ErrEmptyPath
	}

	if filepath.IsAbs(userPath) {
		rel, err := filepath.Rel(w.dir, filepath.Clean(userPath))
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: %s", ErrAbsolutePath, userPath)
		}
		userPath = rel
	}

	clean := filepath.Clean(userPath)
	if !filepath.IsLocal(clean) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
	}

	return filepath.ToSlash(clean), nil
}

// ReadFile reads a file inside the workspace
func (w *Workspace) ReadFile(path string) ([]byte, error) {
	rel, err := w.Normalize(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	f, err := w.root.Open(filepath.FromSlash(rel))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// WriteFile writes a file inside the workspace, creating parent directories
func (w *Workspace) WriteFile(path string, data []byte, perm os.FileMode) error {
	rel, err := w.Normalize(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	if parent := pathpkg.Dir(rel); parent != "." {
		if err := w.mkdirAll(parent); err != nil {
			return fmt.Errorf("failed to create %s: %w", parent, err)
		}
	}

	f, err := w.root.OpenFile(filepath.FromSlash(rel), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// mkdirAll creates every missing directory of a slash path, one level at a time
func (w *Workspace) mkdirAll(dir string) error {
	current := ""
	for _, part := range strings.Split(dir, "/") {
		current = pathpkg.Join(current, part)
		err := w.root.Mkdir(filepath.FromSlash(current), 0700)
		if err != nil && !errors.Is(err, fs.ErrExist) {
			return err
		}
	}
	return nil
}

// Stat stats a file inside the workspace
func (w *Workspace) Stat(path string) (os.FileInfo, error) {
	rel, err := w.Normalize(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	return w.root.Stat(filepath.FromSlash(rel))
}
