package cmd

import (
	"context"
	"fmt"
)

// Ls shows records stored in the archive
func Ls(ctx context.Context, env *Env) {
	sheet := env.Sheet()
	defer sheet.Close()

	// List records (no password required)
	entries, err := sheet.List(ctx)
	if err != nil {
		HandleError(err)
	}

	if len(entries) == 0 {
		fmt.Printf("No records in %s\n", sheet.Archive())
		return
	}

	fmt.Printf("Records in %s:\n", sheet.Archive())
	for _, e := range entries {
		fmt.Printf("  %s (%s, from %s)\n", e.Key, formatSize(int64(e.Size)), e.Source)
	}
}
