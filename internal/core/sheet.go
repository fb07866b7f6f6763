package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"github.com/illarion/sealsheet/internal/crypto"
	"github.com/illarion/sealsheet/internal/logging"
	"github.com/illarion/sealsheet/internal/security"
	"github.com/illarion/sealsheet/internal/storage"
)

const (
	DefaultArchive      = ".sealsheet"
	FilePermSecure      = 0600 // File: owner rw only
	Algorithm           = "AES-256-CBC (PBKDF2-HMAC-SHA256, OpenSSL Salted__)"
	passwordCheckString = "sealsheet-password-check"
)

var (
	ErrNotInitialized   = errors.New("sealsheet not initialized")
	ErrAlreadyExists    = errors.New("sealsheet archive already exists")
	ErrWrongPassword    = errors.New("wrong password")
	ErrPasswordRequired = errors.New("password required")
	ErrNoRecords        = errors.New("no records")
)

// Sheet manages an archive of sealed records in one working directory
type Sheet struct {
	archive    string
	path       string
	codec      *crypto.Codec
	workspace  *security.Workspace
	logger     *slog.Logger
	prompter   *Prompter
	iterations int
	workers    int
}

// Option configures a Sheet
type Option func(*Sheet)

// WithArchive sets the archive file name inside the working directory
func WithArchive(name string) Option {
	return func(s *Sheet) {
		if name != "" {
			s.archive = name
		}
	}
}

// WithCodec replaces the codec used to seal and open records
func WithCodec(c *crypto.Codec) Option {
	return func(s *Sheet) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Sheet) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIterations sets the PBKDF2 iteration count used by Init
func WithIterations(n int) Option {
	return func(s *Sheet) {
		s.iterations = n
	}
}

// WithWorkers bounds the number of records sealed or opened in parallel
func WithWorkers(n int) Option {
	return func(s *Sheet) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithPrompter sets where interactive conflict questions go
func WithPrompter(p *Prompter) Option {
	return func(s *Sheet) {
		s.prompter = p
	}
}

// New creates a Sheet for the archive in dir
func New(dir string, opts ...Option) (*Sheet, error) {
	s := &Sheet{
		archive:    DefaultArchive,
		codec:      crypto.NewCodec(),
		logger:     logging.Discard(),
		iterations: crypto.DefaultIterations,
		workers:    runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}

	ws, err := security.New(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open working directory: %w", err)
	}
	s.workspace = ws
	s.path = filepath.Join(ws.Dir(), s.archive)

	return s, nil
}

// Close releases resources held by the Sheet
func (s *Sheet) Close() error {
	if s.workspace != nil {
		return s.workspace.Close()
	}
	return nil
}

// Path returns the archive file path
func (s *Sheet) Path() string {
	return s.path
}

// Archive returns the archive file name
func (s *Sheet) Archive() string {
	return s.archive
}

// Exists reports whether the archive file is present
func (s *Sheet) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// open opens an initialized archive
func (s *Sheet) open() (*storage.Storage, error) {
	if !s.Exists() {
		return nil, ErrNotInitialized
	}

	db, err := storage.Open(s.path)
	if err != nil {
		return nil, err
	}

	ok, err := db.IsInitialized()
	if err != nil || !ok {
		db.Close()
		return nil, ErrNotInitialized
	}
	return db, nil
}

func passwordCheck() []byte {
	sum := sha256.Sum256([]byte(passwordCheckString))
	return []byte(hex.EncodeToString(sum[:]))
}

// Init creates a new archive sealed with password
func (s *Sheet) Init(password []byte) (err error) {
	if s.Exists() {
		return ErrAlreadyExists
	}
	if password == nil {
		return ErrPasswordRequired
	}
	if err := crypto.ValidateIterations(s.iterations); err != nil {
		return err
	}
	if uint64(s.iterations) > math.MaxUint32 {
		return fmt.Errorf("%w: %d exceeds 32 bits", crypto.ErrInvalidIterationCount, s.iterations)
	}

	db, err := storage.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		db.Close()
		if err != nil {
			os.Remove(s.path)
		}
	}()

	if err := db.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize archive: %w", err)
	}
	if err := db.SetIterations(uint32(s.iterations)); err != nil {
		return fmt.Errorf("failed to store iterations: %w", err)
	}

	check, err := s.codec.Encrypt(passwordCheck(), password, s.iterations)
	if err != nil {
		return fmt.Errorf("failed to seal checksum: %w", err)
	}
	if err := db.StorePrivate(storage.PrivateChecksum, check); err != nil {
		return fmt.Errorf("failed to store checksum: %w", err)
	}

	hashes, err := s.sealHashes(map[string]string{}, password, s.iterations)
	if err != nil {
		return err
	}
	if err := db.StorePrivate(storage.PrivateHashes, hashes); err != nil {
		return fmt.Errorf("failed to store hashes: %w", err)
	}

	if _, err := db.GetOrCreateVaultID(); err != nil {
		return fmt.Errorf("failed to create archive id: %w", err)
	}

	s.logger.Info("archive initialized", "path", s.path, "iterations", s.iterations)
	return nil
}

// unlock verifies password against the archive and returns its iteration count
func (s *Sheet) unlock(db *storage.Storage, password []byte) (int, error) {
	if password == nil {
		return 0, ErrPasswordRequired
	}

	stored, err := db.GetIterations()
	if err != nil {
		return 0, fmt.Errorf("failed to read iterations: %w", err)
	}
	iterations := int(stored)

	check, err := db.GetPrivate(storage.PrivateChecksum)
	if err != nil {
		return 0, fmt.Errorf("failed to read checksum: %w", err)
	}

	plain, err := s.codec.Decrypt(check, password, iterations)
	if err != nil {
		if errors.Is(err, crypto.ErrPadding) {
			return 0, ErrWrongPassword
		}
		return 0, fmt.Errorf("failed to open checksum: %w", err)
	}
	defer crypto.ClearBytes(plain)

	// a wrong key passes the padding check about once in 256 tries
	if !crypto.ConstantTimeCompare(plain, passwordCheck()) {
		return 0, ErrWrongPassword
	}
	return iterations, nil
}

// VerifyPassword checks if the password opens this archive
func (s *Sheet) VerifyPassword(password []byte) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = s.unlock(db, password)
	return err
}

// readHashes opens the key to content hash map
func (s *Sheet) readHashes(db *storage.Storage, password []byte, iterations int) (map[string]string, error) {
	hashes := map[string]string{}

	encoded, err := db.GetPrivate(storage.PrivateHashes)
	if errors.Is(err, storage.ErrNotFound) {
		return hashes, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read hashes: %w", err)
	}

	plain, err := s.codec.Decrypt(encoded, password, iterations)
	if err != nil {
		return nil, fmt.Errorf("failed to open hashes: %w", err)
	}
	if err := json.Unmarshal(plain, &hashes); err != nil {
		return nil, fmt.Errorf("failed to decode hashes: %w", err)
	}
	return hashes, nil
}

func (s *Sheet) sealHashes(hashes map[string]string, password []byte, iterations int) (string, error) {
	data, err := json.Marshal(hashes)
	if err != nil {
		return "", fmt.Errorf("failed to encode hashes: %w", err)
	}
	encoded, err := s.codec.Encrypt(data, password, iterations)
	if err != nil {
		return "", fmt.Errorf("failed to seal hashes: %w", err)
	}
	return encoded, nil
}

// Compact compacts the archive to reclaim space left by removed records
func (s *Sheet) Compact() error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Compact()
}

// GetVaultID retrieves the archive id
func (s *Sheet) GetVaultID() (string, error) {
	db, err := s.open()
	if err != nil {
		return "", err
	}
	defer db.Close()
	return db.GetVaultID()
}

// GetOrCreateVaultID retrieves the archive id, creating it for archives
// that predate it
func (s *Sheet) GetOrCreateVaultID() (string, error) {
	db, err := s.open()
	if err != nil {
		return "", err
	}
	defer db.Close()
	return db.GetOrCreateVaultID()
}
