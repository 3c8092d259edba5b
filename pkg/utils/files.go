// =============================================================================
// Tariff Import Pipeline - File Utilities
// =============================================================================
//
// Small file helpers shared by the CLI: directory creation, existence checks
// and timestamped output naming for the per-run report files.
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnsureDirectory creates dir (and parents) if it does not exist.
func EnsureDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists checks if a file exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// TimestampedName builds an output file name of the form
// <base>_<sourceStem>_<timestamp>.<ext>, e.g.
// "summary_tarifas_out_20260115_143000.txt".
func TimestampedName(base, sourcePath, ext string) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	stem = strings.ReplaceAll(stem, " ", "_")
	ts := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", base, stem, ts, ext)
}

// WriteTextFile writes content to path, creating the parent directory first.
func WriteTextFile(path, content string) error {
	if err := EnsureDirectory(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
