// Package storage persists the daily candidates list and trained policy artifacts.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeFileAtomic writes data using an atomic write pattern.
// 1. Write to a uniquely named temporary file next to the target.
// 2. Sync to ensure data is on disk.
// 3. Rename temporary file to destination (atomic operation).
func writeFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	// Same directory so the rename never crosses filesystems. The name is
	// unique per call so concurrent writers never share a temp file.
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpFile := f.Name()
	defer f.Close()

	if err := f.Chmod(0o644); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("write temp file: %w", err)
	}

	// Force sync to disk to prevent data loss on power failure before rename
	if err := f.Sync(); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("sync temp file: %w", err)
	}

	// Close explicitly before renaming (essential on Windows)
	if err := f.Close(); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("replace %s (atomic rename): %w", path, err)
	}
	return nil
}
