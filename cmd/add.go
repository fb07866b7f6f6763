package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/sealsheet/internal/core"
	"github.com/illarion/sealsheet/internal/crypto"
)

// Add seals the records of a JSON export file
func Add(ctx context.Context, env *Env, source string, force, keepExisting, keepBoth bool) {
	// Validate mutually exclusive flags
	flagCount := boolToInt(force) + boolToInt(keepExisting) + boolToInt(keepBoth)
	if flagCount > 1 {
		errColor.Fprintf(os.Stderr, "error: --force, --keep-existing, and --keep-both are mutually exclusive\n")
		os.Exit(1)
	}

	var strategy core.MergeStrategy
	switch {
	case force:
		strategy = core.StrategyReplace
	case keepExisting:
		strategy = core.StrategyKeepExisting
	case keepBoth:
		strategy = core.StrategyKeepBoth
	default:
		strategy = core.StrategyAsk
	}

	var opts []core.Option
	if strategy == core.StrategyAsk && core.IsTerminal() {
		opts = append(opts, core.WithPrompter(core.NewPrompter(os.Stdin, os.Stdout)))
	}

	sheet := env.Sheet(opts...)
	defer sheet.Close()

	password, pwSource := env.unlockPassword(sheet)
	defer crypto.ClearBytes(password)

	result, err := sheet.Add(ctx, source, password, strategy)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("\n%s:\n", result.Source)
	if len(result.Added) > 0 {
		okColor.Printf("  added: %d records\n", len(result.Added))
	}
	if len(result.Replaced) > 0 {
		fmt.Printf("  replaced: %d records\n", len(result.Replaced))
	}
	for _, key := range result.KeptBoth {
		fmt.Printf("  sealed as: %s\n", key)
	}
	if len(result.Skipped) > 0 {
		fmt.Printf("  kept sealed: %d records\n", len(result.Skipped))
	}
	if len(result.Unchanged) > 0 {
		fmt.Printf("  unchanged: %d records\n", len(result.Unchanged))
	}
	if result.Sealed() > 0 {
		warnColor.Printf("\nRemember to delete the plaintext export: %s\n", result.Source)
	}

	env.rememberPassword(sheet, password, pwSource)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
