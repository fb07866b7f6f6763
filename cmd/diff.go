package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/illarion/sealsheet/internal/crypto"
)

// Diff compares sealed records with the records in a JSON export file
func Diff(ctx context.Context, env *Env, source string) {
	sheet := env.Sheet()
	defer sheet.Close()

	password, pwSource := env.unlockPassword(sheet)
	defer crypto.ClearBytes(password)

	var out strings.Builder
	result, err := sheet.Diff(ctx, &out, source, password)
	if err != nil {
		HandleError(err)
	}

	for _, line := range strings.SplitAfter(out.String(), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Print(line)
		case strings.HasPrefix(line, "+"):
			okColor.Print(line)
		case strings.HasPrefix(line, "-"):
			errColor.Print(line)
		default:
			fmt.Print(line)
		}
	}

	for _, key := range result.OnlyInSource {
		fmt.Printf("new (not sealed): %s\n", key)
	}
	for _, key := range result.OnlyInSheet {
		fmt.Printf("sealed only: %s\n", key)
	}
	if !result.HasChanges() {
		fmt.Printf("No differences (%d records)\n", len(result.Unchanged))
	}

	env.rememberPassword(sheet, password, pwSource)
}
