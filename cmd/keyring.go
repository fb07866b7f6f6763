package cmd

import (
	"fmt"

	"github.com/illarion/sealsheet/internal/core"
	"github.com/illarion/sealsheet/internal/crypto"
)

// KeyringSave saves the password to the OS keyring
func KeyringSave(env *Env) {
	sheet := env.Sheet()
	defer sheet.Close()

	password, err := core.ReadPassword("Enter password: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	// Verify password is correct
	if err := sheet.VerifyPassword(password); err != nil {
		HandleError(err)
	}

	vaultID, err := sheet.GetOrCreateVaultID()
	if err != nil {
		HandleError(err)
	}

	if err := env.Keyring.SavePassword(vaultID, string(password)); err != nil {
		HandleError(fmt.Errorf("failed to save to keyring: %w", err))
	}

	fmt.Println("Password saved to keyring")
}

// KeyringDelete removes the password from the OS keyring
func KeyringDelete(env *Env) {
	sheet := env.Sheet()
	defer sheet.Close()

	vaultID, err := sheet.GetVaultID()
	if err != nil || !env.Keyring.HasPassword(vaultID) {
		fmt.Println("No password stored in keyring")
		return
	}

	if err := env.Keyring.DeletePassword(vaultID); err != nil {
		HandleError(fmt.Errorf("failed to remove from keyring: %w", err))
	}

	fmt.Println("Password removed from keyring")
}

// KeyringStatus checks if a password is stored in the keyring
func KeyringStatus(env *Env) {
	sheet := env.Sheet()
	defer sheet.Close()

	vaultID, err := sheet.GetVaultID()
	if err != nil {
		fmt.Println("Password: not stored")
		return
	}

	if env.Keyring.HasPassword(vaultID) {
		fmt.Println("Password: stored in keyring")
	} else {
		fmt.Println("Password: not stored")
	}
}
