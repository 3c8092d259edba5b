// =============================================================================
// Tariff Import Pipeline - Error Taxonomy
// =============================================================================
//
// Error classes and how they propagate:
//
//   | Kind                       | Fatality           | Handling                    |
//   |----------------------------|--------------------|-----------------------------|
//   | EmptyFileError             | fatal              | abort before validation     |
//   | StructuralFileError        | fatal              | abort before validation     |
//   | MissingColumnsError        | blocking, global   | reported once, halts run    |
//   | row errors/warnings        | non-fatal, per-row | data, not Go errors         |
//   | unmatched agent            | expected           | skipped at commit, reported |
//   | ChunkError                 | partial failure    | collected, commit continues |
//   | audit-log failure          | best-effort        | logged, never surfaced      |
//
// =============================================================================

package domain

import (
	"fmt"
	"strings"
)

// EmptyFileError indicates the file contained no data rows after parsing.
type EmptyFileError struct {
	FileName string
}

func (e *EmptyFileError) Error() string {
	return fmt.Sprintf("file '%s' contains no data rows", e.FileName)
}

// StructuralFileError indicates the container format could not be parsed at
// all (broken quoting, unreadable workbook, unsupported extension).
type StructuralFileError struct {
	FileName string
	Reason   string
	Err      error
}

func (e *StructuralFileError) Error() string {
	return fmt.Sprintf("file '%s' is structurally unreadable: %s", e.FileName, e.Reason)
}

// Unwrap exposes the underlying parser error.
func (e *StructuralFileError) Unwrap() error {
	return e.Err
}

// MissingColumnsError is the global, blocking required-column failure. It is
// reported exactly once and halts the pipeline pending a corrected file.
type MissingColumnsError struct {
	Schema  SourceSchema
	Missing []Field
}

func (e *MissingColumnsError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("%s schema file is missing required column(s): %s",
		e.Schema, strings.Join(names, ", "))
}

// ChunkError records a failed upsert chunk. The commit engine collects these
// and keeps going; remaining chunks are still attempted.
type ChunkError struct {
	ChunkIndex int
	Payloads   int
	Err        error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d (%d payloads) failed: %v", e.ChunkIndex, e.Payloads, e.Err)
}

// Unwrap exposes the store error for errors.Is/As checks.
func (e *ChunkError) Unwrap() error {
	return e.Err
}
