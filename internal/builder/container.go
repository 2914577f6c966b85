package builder

import (
	"fmt"
	"os"

	"github.com/Vadimus1983/patcher/internal/patchformat"
)

func writeContainer(outputPath string, manifest patchformat.PatchManifest) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating patch file %s: %w", outputPath, err)
	}
	defer f.Close()

	if err := patchformat.WriteContainer(f, manifest); err != nil {
		return fmt.Errorf("writing patch file %s: %w", outputPath, err)
	}

	return nil
}
