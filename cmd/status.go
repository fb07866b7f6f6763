package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/illarion/sealsheet/internal/git"
)

// Status shows archive details (no password required)
func Status(ctx context.Context, env *Env) {
	sheet := env.Sheet()
	defer sheet.Close()

	if !sheet.Exists() {
		fmt.Printf("No %s file found in current directory\n", sheet.Archive())
		fmt.Println("Run 'sealsheet init' to create one")
		return
	}

	status, err := sheet.Status(ctx)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Archive:    %s\n", status.Archive)
	if status.VaultID != "" {
		fmt.Printf("ID:         %s\n", status.VaultID)
	}
	fmt.Printf("Created:    %s\n", formatTime(status.Created))
	fmt.Printf("Modified:   %s\n", formatTime(status.Modified))
	fmt.Printf("Records:    %d (%s sealed)\n", status.RecordCount, formatSize(int64(status.TotalSize)))
	fmt.Printf("Encryption: %s\n", status.Algorithm)
	fmt.Printf("Iterations: %d\n", status.Iterations)

	if len(status.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range status.Sources {
			if src.Exists {
				warnColor.Printf("  * %s (%d records, plaintext still present)\n", src.Path, src.Records)
			} else {
				fmt.Printf("  . %s (%d records, deleted)\n", src.Path, src.Records)
			}
		}
	}

	if vaultID := status.VaultID; vaultID != "" && env.Keyring.HasPassword(vaultID) {
		fmt.Println("\nPassword:   stored in keyring")
	}

	fmt.Print(git.FormatGitStatus(status.GitStatus, status.Archive))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format(time.RFC3339)
}
