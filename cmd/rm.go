package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/sealsheet/internal/crypto"
)

// Remove removes records from the archive
func Remove(ctx context.Context, env *Env, patterns []string) {
	if len(patterns) == 0 {
		errColor.Fprintf(os.Stderr, "Error: rm requires at least one record key\n")
		fmt.Fprintf(os.Stderr, "Usage: sealsheet rm <key> [key...]\n")
		os.Exit(1)
	}

	sheet := env.Sheet()
	defer sheet.Close()

	password, source := env.unlockPassword(sheet)
	defer crypto.ClearBytes(password)

	removed, err := sheet.Remove(ctx, patterns, password)
	if err != nil {
		HandleError(err)
	}
	for _, key := range removed {
		fmt.Printf("removed: %s\n", key)
	}

	// Compact database to reclaim space
	if err := sheet.Compact(); err != nil {
		warnColor.Fprintf(os.Stderr, "warning: compaction failed: %s\n", err)
	}

	env.rememberPassword(sheet, password, source)
}
