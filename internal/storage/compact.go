package storage

import (
	"fmt"
	"os"

	bolt "go.etcd.io/bbolt"
)

// Compact rewrites the archive into a fresh file, dropping pages freed by
// removed records, then reopens it in place.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"
	backupPath := srcPath + ".backup"

	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact archive: %w", err)
	}

	// bolt.Compact copies bucket by bucket, committing every txMaxSize bytes
	if err := bolt.Compact(dst, s.db, 64*1024); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact archive: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close archive: %w", err)
	}

	if err := os.Rename(srcPath, backupPath); err != nil {
		os.Remove(tmpPath)
		return s.reopen(srcPath, fmt.Errorf("failed to back up archive: %w", err))
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath)
		return s.reopen(srcPath, fmt.Errorf("failed to replace archive: %w", err))
	}
	os.Remove(backupPath)

	return s.reopen(srcPath, nil)
}

func (s *Storage) reopen(path string, cause error) error {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		if cause != nil {
			return fmt.Errorf("%w (reopen failed: %v)", cause, err)
		}
		return fmt.Errorf("failed to reopen archive: %w", err)
	}
	s.db = db
	return cause
}
