package core

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/illarion/sealsheet/internal/crypto"
	"github.com/illarion/sealsheet/internal/records"
	"github.com/illarion/sealsheet/internal/storage"
)

// AddResult lists what happened to every record of a source
type AddResult struct {
	Source    string
	Added     []string // new keys
	Replaced  []string // sealed again with the source content
	KeptBoth  []string // new keys created next to a conflicting one
	Skipped   []string // conflicts where the sealed version was kept
	Unchanged []string // identical to the sealed version
}

// Sealed returns how many records were written
func (r *AddResult) Sealed() int {
	return len(r.Added) + len(r.Replaced) + len(r.KeptBoth)
}

type pendingRecord struct {
	key   string
	plain []byte
	hash  string
}

// Add seals every record of a JSON source file inside the working directory.
// Conflicting keys are resolved with strategy before any record is sealed;
// sealing runs on the worker pool and everything is stored in one transaction.
func (s *Sheet) Add(ctx context.Context, source string, password []byte, strategy MergeStrategy) (*AddResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	rel, err := s.workspace.Normalize(source)
	if err != nil {
		return nil, fmt.Errorf("invalid source %s: %w", source, err)
	}
	if rel == s.archive {
		return nil, fmt.Errorf("invalid source %s: that is the archive", source)
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
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRecords, rel)
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

	keys := records.Keys(recs)
	sealed := make(map[string]bool, len(existing))
	taken := make(map[string]bool, len(existing)+len(keys))
	for _, k := range existing {
		sealed[k] = true
		taken[k] = true
	}
	for _, k := range keys {
		taken[k] = true
	}

	result := &AddResult{Source: rel}
	var todo []pendingRecord
	defer func() {
		for _, p := range todo {
			crypto.ClearBytes(p.plain)
		}
	}()

	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		plain, err := rec.Marshal()
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", keys[i], err)
		}
		p := pendingRecord{key: keys[i], plain: plain, hash: records.Hash(plain)}

		if !sealed[p.key] {
			todo = append(todo, p)
			result.Added = append(result.Added, p.key)
			continue
		}
		if hashes[p.key] == p.hash {
			crypto.ClearBytes(plain)
			result.Unchanged = append(result.Unchanged, p.key)
			continue
		}

		resolution, err := s.resolveConflict(db, p.key, nextFreeKey(p.key, taken), rec, password, iterations, strategy)
		if err != nil {
			crypto.ClearBytes(plain)
			return nil, err
		}

		switch resolution {
		case ResolutionKeepExisting:
			crypto.ClearBytes(plain)
			result.Skipped = append(result.Skipped, p.key)
		case ResolutionReplace:
			todo = append(todo, p)
			result.Replaced = append(result.Replaced, p.key)
		case ResolutionKeepBoth:
			p.key = nextFreeKey(p.key, taken)
			taken[p.key] = true
			todo = append(todo, p)
			result.KeptBoth = append(result.KeptBoth, p.key)
		}
	}

	if len(todo) == 0 {
		s.logger.Info("nothing to seal", "source", rel, "unchanged", len(result.Unchanged), "skipped", len(result.Skipped))
		return result, nil
	}

	now := time.Now().UTC()
	out, err := runPool(ctx, s.workers, todo, func(_ context.Context, p pendingRecord) (storage.SealedRecord, error) {
		encoded, err := s.codec.Encrypt(p.plain, password, iterations)
		if err != nil {
			return storage.SealedRecord{}, fmt.Errorf("failed to seal %s: %w", p.key, err)
		}
		s.logger.Debug("record sealed", "key", p.key, "size", len(encoded))
		return storage.SealedRecord{
			Entry:   storage.IndexEntry{Key: p.key, Size: len(encoded), Added: now, Source: rel},
			Encoded: encoded,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	for _, p := range todo {
		hashes[p.key] = p.hash
	}
	sealedHashes, err := s.sealHashes(hashes, password, iterations)
	if err != nil {
		return nil, err
	}

	if err := db.StoreRecords(out, map[string]string{storage.PrivateHashes: sealedHashes}); err != nil {
		return nil, fmt.Errorf("failed to store records: %w", err)
	}

	s.logger.Info("records sealed",
		"source", rel,
		"sealed", len(out),
		"workers", s.workers,
		"elapsed", time.Since(start))
	return result, nil
}

// resolveConflict opens the sealed record only when the user has to look at it
func (s *Sheet) resolveConflict(db *storage.Storage, key, bothKey string, incoming records.Record, password []byte, iterations int, strategy MergeStrategy) (ConflictResolution, error) {
	if strategy != StrategyAsk {
		return HandleConflict(key, bothKey, nil, nil, strategy, nil)
	}

	current, err := s.openRecord(db, key, password, iterations)
	if err != nil {
		return ResolutionKeepExisting, err
	}

	sealedText, err := current.Pretty()
	if err != nil {
		return ResolutionKeepExisting, err
	}
	defer crypto.ClearBytes(sealedText)

	sourceText, err := incoming.Pretty()
	if err != nil {
		return ResolutionKeepExisting, err
	}
	defer crypto.ClearBytes(sourceText)

	return HandleConflict(key, bothKey, sealedText, sourceText, strategy, s.prompter)
}

// openRecord decrypts a single sealed record
func (s *Sheet) openRecord(db *storage.Storage, key string, password []byte, iterations int) (records.Record, error) {
	encoded, err := db.GetSealed(key)
	if err != nil {
		return nil, err
	}
	return s.decodeRecord(key, encoded, password, iterations)
}

func (s *Sheet) decodeRecord(key, encoded string, password []byte, iterations int) (records.Record, error) {
	plain, err := s.codec.Decrypt(encoded, password, iterations)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	defer crypto.ClearBytes(plain)

	rec, err := records.Unmarshal(plain)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", key, err)
	}
	return rec, nil
}
