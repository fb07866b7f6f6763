package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/illarion/sealsheet/internal/crypto"
	"github.com/illarion/sealsheet/internal/records"
)

// Show decrypts and prints records, Title first and the rest by field name
func Show(ctx context.Context, env *Env, patterns []string) {
	sheet := env.Sheet()
	defer sheet.Close()

	password, source := env.unlockPassword(sheet)
	defer crypto.ClearBytes(password)

	entries, err := sheet.Show(ctx, password, patterns)
	if err != nil {
		HandleError(err)
	}

	for i, e := range entries {
		if i > 0 {
			fmt.Println()
		}
		okColor.Printf("[%s]\n", e.Key)

		fields := make([]string, 0, len(e.Record))
		for name := range e.Record {
			if name != records.TitleField {
				fields = append(fields, name)
			}
		}
		sort.Strings(fields)
		if title, ok := e.Record[records.TitleField]; ok {
			fmt.Printf("  %s: %s\n", records.TitleField, title)
		}
		for _, name := range fields {
			fmt.Printf("  %s: %s\n", name, e.Record[name])
		}
	}

	env.rememberPassword(sheet, password, source)
}
