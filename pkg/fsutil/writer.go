package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes content to output, replacing any existing file and
// creating parent directories.
func WriteFile(output string, content []byte) error {
	if output == "" {
		return ErrEmptyOutputPath
	}

	dir := filepath.Dir(output)

	err := os.MkdirAll(dir, dirPermUserGroupRX)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	err = os.WriteFile(output, content, filePermShared)
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", output, err)
	}

	return nil
}
