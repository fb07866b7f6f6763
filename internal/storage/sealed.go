package storage

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// IndexEntry is the public description of a sealed record
type IndexEntry struct {
	Key    string    `json:"key"`
	Size   int       `json:"size"` // length of the encoded text
	Added  time.Time `json:"added"`
	Source string    `json:"source,omitempty"`
}

// SealedRecord pairs an index entry with its encoded text
type SealedRecord struct {
	Entry   IndexEntry
	Encoded string
}

// StoreRecords writes index entries, sealed text and private values in a
// single transaction. private may be nil.
func (s *Storage) StoreRecords(recs []SealedRecord, private map[string]string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		index, sealed, err := recordBuckets(tx)
		if err != nil {
			return err
		}

		for _, rec := range recs {
			if err := putRecord(index, sealed, rec); err != nil {
				return fmt.Errorf("store %s: %w", rec.Entry.Key, err)
			}
		}
		if err := putPrivate(tx, private); err != nil {
			return err
		}
		return touch(tx.Bucket(ConfigBucket))
	})
}

// ReplaceAll rewrites records, private values and the iteration count
// atomically, so a failed password change leaves the archive untouched.
func (s *Storage) ReplaceAll(recs []SealedRecord, private map[string]string, iterations uint32) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		index, sealed, err := recordBuckets(tx)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			if err := putRecord(index, sealed, rec); err != nil {
				return fmt.Errorf("store %s: %w", rec.Entry.Key, err)
			}
		}
		if err := putPrivate(tx, private); err != nil {
			return err
		}

		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return fmt.Errorf("%s: %w", ConfigBucket, ErrMissingBucket)
		}
		iters := make([]byte, 4)
		putUint32(iters, iterations)
		if err := config.Put(ConfigIters, iters); err != nil {
			return err
		}
		return touch(config)
	})
}

// GetIndex returns all index entries in key order
func (s *Storage) GetIndex() ([]IndexEntry, error) {
	var entries []IndexEntry
	err := s.view(IndexBucket, func(b *bolt.Bucket) error {
		return b.ForEach(func(k, v []byte) error {
			var entry IndexEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("index %s: %w", k, err)
			}
			entries = append(entries, entry)
			return nil
		})
	})
	return entries, err
}

// GetSealed returns the encoded text of a record
func (s *Storage) GetSealed(key string) (string, error) {
	var encoded string
	err := s.view(SealedBucket, func(b *bolt.Bucket) error {
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("record %s: %w", key, ErrNotFound)
		}
		encoded = string(data)
		return nil
	})
	return encoded, err
}

// RemoveRecords deletes index entries and sealed text for keys and writes
// private values in one transaction. private may be nil.
func (s *Storage) RemoveRecords(keys []string, private map[string]string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		index, sealed, err := recordBuckets(tx)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := index.Delete([]byte(key)); err != nil {
				return err
			}
			if err := sealed.Delete([]byte(key)); err != nil {
				return err
			}
		}
		if err := putPrivate(tx, private); err != nil {
			return err
		}
		return touch(tx.Bucket(ConfigBucket))
	})
}

// ForEachSealed calls fn for every record in key order
func (s *Storage) ForEachSealed(fn func(key, encoded string) error) error {
	return s.view(SealedBucket, func(b *bolt.Bucket) error {
		return b.ForEach(func(k, v []byte) error {
			return fn(string(k), string(v))
		})
	})
}

// Keys returns every sealed record key in key order
func (s *Storage) Keys() ([]string, error) {
	var keys []string
	err := s.view(SealedBucket, func(b *bolt.Bucket) error {
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func recordBuckets(tx *bolt.Tx) (index, sealed *bolt.Bucket, err error) {
	index = tx.Bucket(IndexBucket)
	sealed = tx.Bucket(SealedBucket)
	if index == nil || sealed == nil {
		return nil, nil, fmt.Errorf("record buckets: %w", ErrMissingBucket)
	}
	return index, sealed, nil
}

func putRecord(index, sealed *bolt.Bucket, rec SealedRecord) error {
	data, err := json.Marshal(rec.Entry)
	if err != nil {
		return err
	}
	if err := index.Put([]byte(rec.Entry.Key), data); err != nil {
		return err
	}
	return sealed.Put([]byte(rec.Entry.Key), []byte(rec.Encoded))
}

func putPrivate(tx *bolt.Tx, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	private := tx.Bucket(PrivateBucket)
	if private == nil {
		return fmt.Errorf("%s: %w", PrivateBucket, ErrMissingBucket)
	}
	for k, v := range values {
		if err := private.Put([]byte(k), []byte(v)); err != nil {
			return err
		}
	}
	return nil
}
