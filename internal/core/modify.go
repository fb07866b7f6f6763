package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/illarion/sealsheet/internal/crypto"
	"github.com/illarion/sealsheet/internal/storage"
)

// Remove deletes the records matching patterns and returns their keys.
// A password is required so a stranger cannot quietly empty the archive.
func (s *Sheet) Remove(ctx context.Context, patterns []string, password []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no records named")
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

	hashes, err := s.readHashes(db, password, iterations)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		delete(hashes, k)
	}
	sealedHashes, err := s.sealHashes(hashes, password, iterations)
	if err != nil {
		return nil, err
	}

	if err := db.RemoveRecords(keys, map[string]string{storage.PrivateHashes: sealedHashes}); err != nil {
		return nil, fmt.Errorf("failed to remove records: %w", err)
	}

	s.logger.Info("records removed", "count", len(keys))
	return keys, nil
}

// ChangePassword re-seals every record with newPassword, a fresh salt per
// record, and the given iteration count (0 keeps the current one).
// The archive is rewritten in one transaction.
func (s *Sheet) ChangePassword(ctx context.Context, currentPassword, newPassword []byte, iterations int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if newPassword == nil {
		return ErrPasswordRequired
	}
	start := time.Now()

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	current, err := s.unlock(db, currentPassword)
	if err != nil {
		return err
	}
	if iterations == 0 {
		iterations = current
	}
	if err := crypto.ValidateIterations(iterations); err != nil {
		return err
	}
	if uint64(iterations) > math.MaxUint32 {
		return fmt.Errorf("%w: %d exceeds 32 bits", crypto.ErrInvalidIterationCount, iterations)
	}

	hashes, err := s.readHashes(db, currentPassword, current)
	if err != nil {
		return err
	}

	entries, err := db.GetIndex()
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}
	index := make(map[string]storage.IndexEntry, len(entries))
	for _, e := range entries {
		index[e.Key] = e
	}

	var recs []storage.SealedRecord
	err = db.ForEachSealed(func(key, encoded string) error {
		entry, ok := index[key]
		if !ok {
			entry = storage.IndexEntry{Key: key, Added: time.Now().UTC()}
		}
		recs = append(recs, storage.SealedRecord{Entry: entry, Encoded: encoded})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}

	resealed, err := runPool(ctx, s.workers, recs, func(_ context.Context, rec storage.SealedRecord) (storage.SealedRecord, error) {
		plain, err := s.codec.Decrypt(rec.Encoded, currentPassword, current)
		if err != nil {
			return storage.SealedRecord{}, fmt.Errorf("failed to open %s: %w", rec.Entry.Key, err)
		}
		defer crypto.ClearBytes(plain)

		encoded, err := s.codec.Encrypt(plain, newPassword, iterations)
		if err != nil {
			return storage.SealedRecord{}, fmt.Errorf("failed to re-seal %s: %w", rec.Entry.Key, err)
		}
		rec.Encoded = encoded
		rec.Entry.Size = len(encoded)
		return rec, nil
	})
	if err != nil {
		return err
	}

	check, err := s.codec.Encrypt(passwordCheck(), newPassword, iterations)
	if err != nil {
		return fmt.Errorf("failed to seal checksum: %w", err)
	}
	sealedHashes, err := s.sealHashes(hashes, newPassword, iterations)
	if err != nil {
		return err
	}

	private := map[string]string{
		storage.PrivateChecksum: check,
		storage.PrivateHashes:   sealedHashes,
	}
	if err := db.ReplaceAll(resealed, private, uint32(iterations)); err != nil {
		return fmt.Errorf("failed to store re-sealed records: %w", err)
	}

	s.logger.Info("password changed",
		"records", len(resealed),
		"iterations", iterations,
		"elapsed", time.Since(start))
	return nil
}
