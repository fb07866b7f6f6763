package storage

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/illarion/sealsheet/internal/crypto"
)

// Bucket names
var (
	ConfigBucket  = []byte("config")
	IndexBucket   = []byte("index")
	SealedBucket  = []byte("sealed")
	PrivateBucket = []byte("private")
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
	ConfigIters    = []byte("iterations")
	ConfigVaultID  = []byte("vault_id")
)

// Private keys
const (
	PrivateChecksum = "checksum"
	PrivateHashes   = "hashes"
)

const formatVersion = "1"

var (
	ErrNotFound      = errors.New("not found")
	ErrMissingBucket = errors.New("bucket not found")
)

// Storage is an open sealsheet archive
type Storage struct {
	db *bolt.DB
}

// Open opens or creates an archive file
func Open(path string) (*Storage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the archive
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the archive file path
func (s *Storage) Path() string {
	return s.db.Path()
}

// Initialize creates the buckets and stamps version and creation time
func (s *Storage) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{ConfigBucket, IndexBucket, SealedBucket, PrivateBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if err := config.Put(ConfigVersion, []byte(formatVersion)); err != nil {
			return err
		}

		now, err := time.Now().MarshalBinary()
		if err != nil {
			return err
		}
		if err := config.Put(ConfigCreated, now); err != nil {
			return err
		}
		return config.Put(ConfigModified, now)
	})
}

// IsInitialized reports whether Initialize has run on this file
func (s *Storage) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		initialized = config != nil && config.Get(ConfigVersion) != nil
		return nil
	})
	return initialized, err
}

// SetIterations stores the PBKDF2 iteration count used for every record
func (s *Storage) SetIterations(iterations uint32) error {
	return s.update(ConfigBucket, func(b *bolt.Bucket) error {
		buf := make([]byte, 4)
		putUint32(buf, iterations)
		return b.Put(ConfigIters, buf)
	})
}

// GetIterations returns the stored PBKDF2 iteration count
func (s *Storage) GetIterations() (uint32, error) {
	var iterations uint32
	err := s.view(ConfigBucket, func(b *bolt.Bucket) error {
		buf := b.Get(ConfigIters)
		if len(buf) != 4 {
			return fmt.Errorf("iterations: %w", ErrNotFound)
		}
		iterations = binary.BigEndian.Uint32(buf)
		return nil
	})
	return iterations, err
}

// GetModified returns the last modification time
func (s *Storage) GetModified() (time.Time, error) {
	return s.getTime(ConfigModified)
}

// GetCreated returns the creation time
func (s *Storage) GetCreated() (time.Time, error) {
	return s.getTime(ConfigCreated)
}

func (s *Storage) getTime(key []byte) (time.Time, error) {
	var t time.Time
	err := s.view(ConfigBucket, func(b *bolt.Bucket) error {
		data := b.Get(key)
		if data == nil {
			return fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return t.UnmarshalBinary(data)
	})
	return t, err
}

// GetVaultID returns the archive id
func (s *Storage) GetVaultID() (string, error) {
	var id string
	err := s.view(ConfigBucket, func(b *bolt.Bucket) error {
		data := b.Get(ConfigVaultID)
		if data == nil {
			return fmt.Errorf("vault_id: %w", ErrNotFound)
		}
		id = string(data)
		return nil
	})
	return id, err
}

// GetOrCreateVaultID returns the archive id, generating one on first use
func (s *Storage) GetOrCreateVaultID() (string, error) {
	id, err := s.GetVaultID()
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	raw, err := crypto.GenerateRandom(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate vault ID: %w", err)
	}
	id = hex.EncodeToString(raw)

	err = s.update(ConfigBucket, func(b *bolt.Bucket) error {
		return b.Put(ConfigVaultID, []byte(id))
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// StorePrivate stores an already sealed value in the private bucket
func (s *Storage) StorePrivate(key, encoded string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		private := tx.Bucket(PrivateBucket)
		if private == nil {
			return fmt.Errorf("%s: %w", PrivateBucket, ErrMissingBucket)
		}
		if err := private.Put([]byte(key), []byte(encoded)); err != nil {
			return err
		}
		return touch(tx.Bucket(ConfigBucket))
	})
}

// GetPrivate returns a sealed value from the private bucket
func (s *Storage) GetPrivate(key string) (string, error) {
	var encoded string
	err := s.view(PrivateBucket, func(b *bolt.Bucket) error {
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("private %s: %w", key, ErrNotFound)
		}
		encoded = string(data)
		return nil
	})
	return encoded, err
}

func (s *Storage) view(bucket []byte, fn func(*bolt.Bucket) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("%s: %w", bucket, ErrMissingBucket)
		}
		return fn(b)
	})
}

func (s *Storage) update(bucket []byte, fn func(*bolt.Bucket) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("%s: %w", bucket, ErrMissingBucket)
		}
		return fn(b)
	})
}

func touch(config *bolt.Bucket) error {
	if config == nil {
		return fmt.Errorf("%s: %w", ConfigBucket, ErrMissingBucket)
	}
	now, err := time.Now().MarshalBinary()
	if err != nil {
		return err
	}
	return config.Put(ConfigModified, now)
}

func putUint32(buf []byte, v uint32) {
	binary.BigEndian.PutUint32(buf, v)
}
