package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/illarion/sealsheet/internal/config"
	"github.com/illarion/sealsheet/internal/core"
	"github.com/illarion/sealsheet/internal/crypto"
	"github.com/illarion/sealsheet/internal/keyring"
	"github.com/illarion/sealsheet/internal/security"
)

var (
	errColor  = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	okColor   = color.New(color.FgGreen)
)

// Env carries what every command needs: resolved configuration, the
// diagnostics logger and the keyring store.
type Env struct {
	Config  *config.Config
	Logger  *slog.Logger
	Keyring *keyring.Store
}

// NewEnv builds an Env from loaded configuration
func NewEnv(cfg *config.Config, logger *slog.Logger) *Env {
	return &Env{
		Config:  cfg,
		Logger:  logger,
		Keyring: keyring.New(cfg.Keyring.Service),
	}
}

// Sheet opens the archive of the current directory
func (e *Env) Sheet(opts ...core.Option) *core.Sheet {
	base := []core.Option{
		core.WithArchive(e.Config.Archive),
		core.WithIterations(e.Config.Iterations),
		core.WithWorkers(e.Config.Workers),
		core.WithLogger(e.Logger),
	}
	sheet, err := core.New(".", append(base, opts...)...)
	if err != nil {
		HandleError(err)
	}
	return sheet
}

// PasswordSource tells where a password came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

// GetPassword retrieves password from environment or prompts user
// The caller is responsible for calling crypto.ClearBytes on the returned password
func GetPassword(prompt string) ([]byte, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, nil
	}

	password, err := core.ReadPassword(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

// GetPasswordForInit checks the environment first, then prompts with confirmation
func GetPasswordForInit() ([]byte, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, nil
	}
	return core.ReadPasswordConfirm()
}

// GetPasswordWithRetry resolves the archive password: environment, then the
// keyring entry for vaultID, then a prompt. A keyring entry that no longer
// opens the archive is dropped and the user is asked instead.
func (e *Env) GetPasswordWithRetry(prompt, vaultID string, verify func([]byte) error) ([]byte, PasswordSource, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, SourceEnv, nil
	}

	if vaultID != "" {
		stored, err := e.Keyring.GetPassword(vaultID)
		switch {
		case err == nil:
			password := []byte(stored)
			verr := verify(password)
			if verr == nil {
				e.Logger.Debug("password taken from keyring", "service", e.Keyring.Service())
				return password, SourceKeyring, nil
			}
			crypto.ClearBytes(password)
			if !errors.Is(verr, core.ErrWrongPassword) {
				return nil, SourceKeyring, verr
			}
			warnColor.Fprintln(os.Stderr, "warning: password in keyring does not open this archive, removing it")
			if err := e.Keyring.DeletePassword(vaultID); err != nil {
				e.Logger.Warn("failed to remove stale keyring entry", "error", err)
			}
		case !errors.Is(err, keyring.ErrNotFound):
			e.Logger.Debug("keyring unavailable", "error", err)
		}
	}

	password, err := core.ReadPassword(prompt)
	if err != nil {
		return nil, SourcePrompt, err
	}
	if err := verify(password); err != nil {
		crypto.ClearBytes(password)
		return nil, SourcePrompt, err
	}
	return password, SourcePrompt, nil
}

// OfferToSavePassword asks whether a typed password should go to the keyring
func (e *Env) OfferToSavePassword(vaultID string, password []byte) {
	if vaultID == "" || !core.IsTerminal() || e.Keyring.HasPassword(vaultID) {
		return
	}

	fmt.Fprint(os.Stderr, "Save password to keyring? [y/N]: ")
	var response string
	fmt.Scanln(&response)
	response = strings.ToLower(strings.TrimSpace(response))
	if response != "y" && response != "yes" {
		return
	}

	if err := e.Keyring.SavePassword(vaultID, string(password)); err != nil {
		warnColor.Fprintf(os.Stderr, "warning: failed to save to keyring: %s\n", err)
		return
	}
	fmt.Fprintln(os.Stderr, "Password saved to keyring")
}

// unlockPassword is the common password step of commands that open records
func (e *Env) unlockPassword(sheet *core.Sheet) ([]byte, PasswordSource) {
	vaultID, _ := sheet.GetVaultID()

	password, source, err := e.GetPasswordWithRetry("Enter password: ", vaultID, sheet.VerifyPassword)
	if err != nil {
		HandleError(err)
	}
	return password, source
}

// rememberPassword offers to store a typed password once a command succeeded
func (e *Env) rememberPassword(sheet *core.Sheet, password []byte, source PasswordSource) {
	if source != SourcePrompt {
		return
	}
	vaultID, err := sheet.GetOrCreateVaultID()
	if err != nil {
		return
	}
	e.OfferToSavePassword(vaultID, password)
}

// describeError maps known errors to a message and an optional hint
func describeError(err error) (string, string) {
	switch {
	case errors.Is(err, core.ErrNotInitialized):
		return "sealsheet not initialized", "Run 'sealsheet init' first"
	case errors.Is(err, core.ErrAlreadyExists):
		return "archive already exists in this directory", "Use 'sealsheet status' to see current state"
	case errors.Is(err, core.ErrWrongPassword):
		return "wrong password", ""
	case errors.Is(err, crypto.ErrPadding):
		return "wrong password or iteration count", ""
	case errors.Is(err, crypto.ErrDecode), errors.Is(err, crypto.ErrFrame):
		return "not an encrypted text: " + err.Error(), ""
	case errors.Is(err, core.ErrNoPrompter):
		return err.Error(), "Use --force, --keep-existing or --keep-both"
	case errors.Is(err, security.ErrPathEscapes), errors.Is(err, security.ErrAbsolutePath):
		return err.Error(), "Files must be inside the current directory"
	case errors.Is(err, config.ErrInvalidConfig):
		return err.Error(), "Check .sealsheet.yaml and SEALSHEET_* variables"
	}
	return err.Error(), ""
}

// HandleError prints err in red and exits with status 1
func HandleError(err error) {
	msg, hint := describeError(err)
	errColor.Fprintf(os.Stderr, "Error: %s\n", msg)
	if hint != "" {
		fmt.Fprintln(os.Stderr, hint)
	}
	os.Exit(1)
}

// formatSize formats a size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
