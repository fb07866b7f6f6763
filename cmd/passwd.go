package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/sealsheet/internal/core"
	"github.com/illarion/sealsheet/internal/crypto"
)

// Passwd re-seals every record with a new password. iterations 0 keeps the
// archive's current count.
func Passwd(ctx context.Context, env *Env, iterations int) {
	sheet := env.Sheet()
	defer sheet.Close()

	// Get vault ID for keyring lookup
	vaultID, _ := sheet.GetVaultID()

	currentPassword, _, err := env.GetPasswordWithRetry("Enter current password: ", vaultID, sheet.VerifyPassword)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(currentPassword)

	// SEALSHEET_PASSWORD holds the current password here, so always prompt
	newPassword, err := core.ReadPasswordConfirm()
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(newPassword)

	if err := sheet.ChangePassword(ctx, currentPassword, newPassword, iterations); err != nil {
		HandleError(err)
	}

	// Always try to update keyring if vault ID exists
	if vaultID != "" && env.Keyring.HasPassword(vaultID) {
		if err := env.Keyring.SavePassword(vaultID, string(newPassword)); err == nil {
			fmt.Println("Keyring updated with new password")
		}
	}

	// Compact database after rewriting all data
	if err := sheet.Compact(); err != nil {
		warnColor.Fprintf(os.Stderr, "warning: compaction failed: %s\n", err)
	}

	okColor.Println("✓ Password changed")
}
