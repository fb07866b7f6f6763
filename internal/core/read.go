package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/illarion/sealsheet/internal/git"
	"github.com/illarion/sealsheet/internal/records"
	"github.com/illarion/sealsheet/internal/storage"
)

// Entry is an opened record
type Entry struct {
	Key    string
	Record records.Record
}

// matchKeys filters keys by pattern. A pattern equal to a stored key selects
// only that key; anything else is a glob, and a malformed glob matches
// nothing beyond its literal text. No patterns selects all keys.
func matchKeys(keys []string, patterns []string) []string {
	if len(patterns) == 0 {
		return keys
	}

	stored := make(map[string]bool, len(keys))
	for _, key := range keys {
		stored[key] = true
	}

	selected := make(map[string]bool)
	for _, pattern := range patterns {
		if stored[pattern] {
			selected[pattern] = true
			continue
		}
		for _, key := range keys {
			matched, err := path.Match(pattern, key)
			if err != nil {
				// ErrBadPattern: the literal text was already checked
				break
			}
			if matched {
				selected[key] = true
			}
		}
	}

	var result []string
	for _, key := range keys {
		if selected[key] {
			result = append(result, key)
		}
	}
	return result
}

// selectKeys returns the sealed keys matching patterns or ErrNoRecords
func selectKeys(db *storage.Storage, patterns []string) ([]string, error) {
	keys, err := db.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w in archive", ErrNoRecords)
	}

	matched := matchKeys(keys, patterns)
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w matching %s", ErrNoRecords, strings.Join(patterns, " "))
	}
	return matched, nil
}

// Show opens the records matching patterns
func (s *Sheet) Show(ctx context.Context, password []byte, patterns []string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	iterations, err := s.unlock(db, password)
	if err != nil {
		return nil, err
	}

	keys, err := selectKeys(db, patterns)
	if err != nil {
		return nil, err
	}

	type sealedText struct{ key, encoded string }
	items := make([]sealedText, 0, len(keys))
	for _, key := range keys {
		encoded, err := db.GetSealed(key)
		if err != nil {
			return nil, err
		}
		items = append(items, sealedText{key, encoded})
	}

	return runPool(ctx, s.workers, items, func(_ context.Context, it sealedText) (Entry, error) {
		rec, err := s.decodeRecord(it.key, it.encoded, password, iterations)
		if err != nil {
			return Entry{}, err
		}
		return Entry{Key: it.key, Record: rec}, nil
	})
}

// Export writes `key<TAB>encoded` lines for the records matching patterns.
// The encoded text is what goes on the printed sheet; no password is needed.
func (s *Sheet) Export(ctx context.Context, w io.Writer, patterns []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	db, err := s.open()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	keys, err := selectKeys(db, patterns)
	if err != nil {
		return 0, err
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		encoded, err := db.GetSealed(key)
		if err != nil {
			return 0, err
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", key, encoded); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

// ExportFile writes the Export lines to a file inside the working directory
func (s *Sheet) ExportFile(ctx context.Context, target string, patterns []string) (int, error) {
	rel, err := s.workspace.Normalize(target)
	if err != nil {
		return 0, fmt.Errorf("invalid output %s: %w", target, err)
	}
	if rel == s.archive {
		return 0, fmt.Errorf("invalid output %s: that is the archive", target)
	}

	var buf bytes.Buffer
	n, err := s.Export(ctx, &buf, patterns)
	if err != nil {
		return 0, err
	}

	if err := s.workspace.WriteFile(rel, buf.Bytes(), FilePermSecure); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", rel, err)
	}
	s.logger.Info("sheet exported", "path", rel, "records", n)
	return n, nil
}

// List returns index entries in key order (no password required)
func (s *Sheet) List(ctx context.Context) ([]storage.IndexEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	entries, err := db.GetIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// SourceStatus describes one plaintext file records were added from
type SourceStatus struct {
	Path    string
	Records int
	Exists  bool
}

// StatusInfo contains status information
type StatusInfo struct {
	Archive     string
	VaultID     string
	Created     time.Time
	Modified    time.Time
	RecordCount int
	TotalSize   int
	Sources     []SourceStatus
	Algorithm   string
	Iterations  uint32
	Version     int
	GitStatus   *git.GitStatus
}

// Status returns the current status (no password required)
func (s *Sheet) Status(ctx context.Context) (*StatusInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	status := &StatusInfo{
		Archive:   s.archive,
		Algorithm: Algorithm,
		Version:   1,
	}

	// missing values only leave fields empty
	status.Created, _ = db.GetCreated()
	status.Modified, _ = db.GetModified()
	status.Iterations, _ = db.GetIterations()
	if id, err := db.GetVaultID(); err == nil {
		status.VaultID = id
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	entries, err := db.GetIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	bySource := map[string]int{}
	for _, e := range entries {
		status.RecordCount++
		status.TotalSize += e.Size
		if e.Source != "" {
			bySource[e.Source]++
		}
	}

	var present []string
	for src, n := range bySource {
		st := SourceStatus{Path: src, Records: n}
		if _, err := s.workspace.Stat(src); err == nil {
			st.Exists = true
			present = append(present, src)
		}
		status.Sources = append(status.Sources, st)
	}
	sort.Slice(status.Sources, func(i, j int) bool { return status.Sources[i].Path < status.Sources[j].Path })
	sort.Strings(present)

	gitStatus, err := git.CheckGitIntegration(ctx, s.workspace.Dir(), s.archive, present)
	if err == nil && gitStatus.IsRepo {
		status.GitStatus = gitStatus
	}

	return status, nil
}
