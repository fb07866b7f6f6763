package cmd

import (
	"fmt"

	"github.com/illarion/sealsheet/internal/core"
	"github.com/illarion/sealsheet/internal/crypto"
)

// Init creates a new archive in the current directory
func Init(env *Env) {
	sheet := env.Sheet()
	defer sheet.Close()

	// fail before asking for a password twice
	if sheet.Exists() {
		HandleError(core.ErrAlreadyExists)
	}

	source := SourcePrompt
	if core.GetPasswordFromEnv() != nil {
		source = SourceEnv
	}

	password, err := GetPasswordForInit()
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	if err := sheet.Init(password); err != nil {
		HandleError(err)
	}

	okColor.Printf("✓ Initialized %s", sheet.Archive())
	fmt.Printf(" (%d iterations)\n", env.Config.Iterations)

	env.rememberPassword(sheet, password, source)
}
