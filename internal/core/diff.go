package core

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/illarion/sealsheet/internal/crypto"
	"github.com/illarion/sealsheet/internal/records"
)

// DiffResult summarises a comparison between the archive and a source file
type DiffResult struct {
	Changed      []string
	Unchanged    []string
	OnlyInSource []string // would be added by `add`
	OnlyInSheet  []string // sealed but absent from the source
}

// HasChanges reports whether source and archive differ
func (r *DiffResult) HasChanges() bool {
	return len(r.Changed)+len(r.OnlyInSource)+len(r.OnlyInSheet) > 0
}

// Diff compares sealed records with the records in a source file and writes
// a unified diff for every changed record to w
func (s *Sheet) Diff(ctx context.Context, w io.Writer, source string, password []byte) (*DiffResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := s.workspace.Normalize(source)
	if err != nil {
		return nil, fmt.Errorf("invalid source %s: %w", source, err)
	}
	data, err := s.workspace.ReadFile(rel)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", rel, err)
	}
	defer crypto.ClearBytes(data)

	recs, err := records.Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
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

	hashes, err := s.readHashes(db, password, iterations)
	if err != nil {
		return nil, err
	}

	existing, err := db.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	sealed := make(map[string]bool, len(existing))
	for _, k := range existing {
		sealed[k] = true
	}

	type candidate struct {
		key     string
		record  records.Record
		encoded string
	}

	result := &DiffResult{}
	inSource := make(map[string]bool, len(recs))
	var changed []candidate

	for i, key := range records.Keys(recs) {
		inSource[key] = true
		if !sealed[key] {
			result.OnlyInSource = append(result.OnlyInSource, key)
			continue
		}

		plain, err := recs[i].Marshal()
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", key, err)
		}
		same := hashes[key] == records.Hash(plain)
		crypto.ClearBytes(plain)
		if same {
			result.Unchanged = append(result.Unchanged, key)
			continue
		}

		encoded, err := db.GetSealed(key)
		if err != nil {
			return nil, err
		}
		changed = append(changed, candidate{key: key, record: recs[i], encoded: encoded})
	}

	for _, k := range existing {
		if !inSource[k] {
			result.OnlyInSheet = append(result.OnlyInSheet, k)
		}
	}

	diffs, err := runPool(ctx, s.workers, changed, func(_ context.Context, c candidate) (string, error) {
		current, err := s.decodeRecord(c.key, c.encoded, password, iterations)
		if err != nil {
			return "", err
		}
		sealedText, err := current.Pretty()
		if err != nil {
			return "", err
		}
		defer crypto.ClearBytes(sealedText)

		sourceText, err := c.record.Pretty()
		if err != nil {
			return "", err
		}
		defer crypto.ClearBytes(sourceText)

		return GenerateUnifiedDiff(c.key, sealedText, sourceText)
	})
	if err != nil {
		return nil, err
	}

	for i, d := range diffs {
		if d == "" {
			// hash drift with equal content
			result.Unchanged = append(result.Unchanged, changed[i].key)
			continue
		}
		result.Changed = append(result.Changed, changed[i].key)
		if _, err := io.WriteString(w, d); err != nil {
			return nil, err
		}
	}

	return result, nil
}
