package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/sealsheet/internal/core"
)

// Compact compacts the archive to reclaim unused space
func Compact(_ context.Context, env *Env) {
	sheet := env.Sheet()
	defer sheet.Close()

	info, err := os.Stat(sheet.Path())
	if err != nil {
		if os.IsNotExist(err) {
			HandleError(core.ErrNotInitialized)
		}
		HandleError(err)
	}
	sizeBefore := info.Size()

	if err := sheet.Compact(); err != nil {
		HandleError(err)
	}

	info, err = os.Stat(sheet.Path())
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(info.Size()))
}
