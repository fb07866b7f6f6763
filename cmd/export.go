package cmd

import (
	"context"
	"fmt"
	"os"
)

// Export prints the sheet payload lines, or writes them to output.
// No password is needed: the lines are already sealed.
func Export(ctx context.Context, env *Env, output string, patterns []string) {
	sheet := env.Sheet()
	defer sheet.Close()

	if output == "" || output == "-" {
		if _, err := sheet.Export(ctx, os.Stdout, patterns); err != nil {
			HandleError(err)
		}
		return
	}

	n, err := sheet.ExportFile(ctx, output, patterns)
	if err != nil {
		HandleError(err)
	}
	okColor.Printf("✓ Exported %d records", n)
	fmt.Printf(" to %s\n", output)
}
