// =============================================================================
// Tariff Import Pipeline - Normalization Primitives
// =============================================================================
//
// This package holds the low-level normalization shared by the column
// resolver, the row validator, and the entity resolver:
//   - string normalization (trim, lowercase, de-accent, collapse whitespace)
//   - tolerant numeric parsing for Brazilian comma-decimal notation
//   - multi-format date parsing, including spreadsheet serial dates
//
// All functions are pure. Normalize is idempotent:
// Normalize(Normalize(s)) == Normalize(s) for every input.
//
// =============================================================================

package normalize

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent decomposes to NFD and drops combining marks, then recomposes.
// "Distribuição" -> "Distribuicao".
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// String normalizes a header or name for matching: trim, lowercase, strip
// diacritics, collapse internal whitespace runs to single spaces. Underscores
// count as whitespace so "inicio_vigencia" and "inicio vigencia" compare equal.
func String(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if out, _, err := transform.String(deaccent, s); err == nil {
		s = out
	}
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// =============================================================================
// NUMERIC PARSING
// =============================================================================

// Decimal parses a tariff value tolerating Brazilian notation:
//
//	"0,45"      -> 0.45
//	"1.234,56"  -> 1234.56
//	"450"       -> 450
//	""          -> 0, ok=true (empty is zero, not an error)
//
// ok is false only for non-empty values that are not numeric.
func Decimal(s string) (value float64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, true
	}

	// Comma present means comma is the decimal separator and any dots are
	// thousands separators.
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// =============================================================================
// DATE PARSING
// =============================================================================

// serialEpoch is the spreadsheet serial-date epoch (the 1900 date system with
// its historical off-by-two, hence 1899-12-30).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Serial values outside this window are treated as plain numbers, not dates.
const (
	serialMin = 30000
	serialMax = 60000
)

// Date parses a validity date in any of the accepted source formats:
//
//	ISO prefix:          "2024-01-01", "2024-01-01T00:00:00"
//	Brazilian:           "01/01/2024", "01-01-2024"
//	Spreadsheet serial:  "45292" (epoch 1899-12-30, range 30000-60000)
//
// ok is false when the value matches none of them.
func Date(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// ISO prefix: take the leading yyyy-mm-dd and ignore any time suffix.
	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}

	// Brazilian dd/mm/yyyy, also accepted with '-' as separator.
	for _, layout := range []string{"02/01/2006", "02-01-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// Spreadsheet serial date.
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial >= serialMin && serial <= serialMax {
			return serialEpoch.AddDate(0, 0, int(serial)), true
		}
	}

	return time.Time{}, false
}
