// =============================================================================
// Tariff Import Pipeline - File Loader
// =============================================================================
//
// This module reads a raw tariff export file and yields one header row plus
// the data rows, regardless of container format. Two containers are supported:
//   - Delimited text (.csv, .txt): comma or semicolon delimited, quoted
//     fields containing the delimiter, doubled-quote escapes
//   - Spreadsheet table (.xlsx, .xlsm): first sheet of the workbook
//
// The loader knows nothing about tariff semantics. Schema detection and
// column resolution happen downstream on the TableData it returns.
//
// ERROR HANDLING:
//   - Unreadable container          -> StructuralFileError (fatal)
//   - No data rows after the header -> EmptyFileError (fatal)
//
// =============================================================================

package fileloader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/solardesk/tariff-import/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Load reads the file at path and returns its header plus data rows.
// The container format is chosen by file extension.
func Load(path string) (*domain.TableData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	name := filepath.Base(path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadSpreadsheet(file, name)
	case ".csv", ".txt", "":
		return LoadDelimited(file, name)
	default:
		return nil, &domain.StructuralFileError{
			FileName: name,
			Reason:   fmt.Sprintf("unsupported file extension '%s'", filepath.Ext(path)),
		}
	}
}

// =============================================================================
// DELIMITED CONTAINER
// =============================================================================

// LoadDelimited parses comma- or semicolon-delimited text. The delimiter is
// sniffed from the header line; quoted fields may contain the delimiter and
// escape quotes by doubling them.
func LoadDelimited(r io.Reader, name string) (*domain.TableData, error) {
	raw, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, &domain.StructuralFileError{FileName: name, Reason: "read failed", Err: err}
	}

	// Drop a UTF-8 BOM; utility exports produced on Windows often carry one.
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = sniffDelimiter(raw)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, &domain.StructuralFileError{FileName: name, Reason: "malformed delimited text", Err: err}
	}

	return build(allRows, name)
}

// sniffDelimiter picks comma or semicolon by counting occurrences outside
// quoted sections of the first line. Semicolon wins ties at zero because a
// header without either is a single-column file either way.
func sniffDelimiter(raw []byte) rune {
	line := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		line = raw[:i]
	}

	commas, semis := 0, 0
	inQuotes := false
	for _, b := range line {
		switch b {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				commas++
			}
		case ';':
			if !inQuotes {
				semis++
			}
		}
	}

	if semis > commas {
		return ';'
	}
	return ','
}

// =============================================================================
// SPREADSHEET CONTAINER
// =============================================================================

// LoadSpreadsheet reads the first sheet of an xlsx workbook.
func LoadSpreadsheet(r io.Reader, name string) (*domain.TableData, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &domain.StructuralFileError{FileName: name, Reason: "unreadable workbook", Err: err}
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, &domain.StructuralFileError{FileName: name, Reason: "workbook has no sheets"}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, &domain.StructuralFileError{FileName: name, Reason: "failed to read rows", Err: err}
	}

	return build(rows, name)
}

// =============================================================================
// SHARED ASSEMBLY
// =============================================================================

// build splits raw rows into header + data and trims cell whitespace.
func build(allRows [][]string, name string) (*domain.TableData, error) {
	// Skip leading blank lines before the header; some exports start with an
	// empty banner row.
	start := 0
	for start < len(allRows) && isRowEmpty(allRows[start]) {
		start++
	}

	if start >= len(allRows) {
		return nil, &domain.EmptyFileError{FileName: name}
	}

	headers := make([]string, len(allRows[start]))
	for i, h := range allRows[start] {
		headers[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for _, row := range allRows[start+1:] {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.TrimSpace(c)
		}
		rows = append(rows, cells)
	}

	if len(rows) == 0 {
		return nil, &domain.EmptyFileError{FileName: name}
	}

	return &domain.TableData{
		Headers:    headers,
		Rows:       rows,
		SourceFile: name,
	}, nil
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
