// =============================================================================
// Tariff Import Pipeline - Row Validator
// =============================================================================
//
// Validation runs in three layers:
//   1. Global gate: the schema-specific required-column set must be present.
//      Absence is reported once, blocks the run, and skips row validation
//      entirely (the user must supply a corrected file).
//   2. Footer filter: regulator exports end with banners, totals, legends and
//      source notes. Those rows are discarded up front and recorded by line
//      number; they never enter the row results.
//   3. Per-row checks: structural and semantic, producing severity-tagged
//      findings that are collected, never thrown.
//
// SEVERITY MODEL:
//   - error   -> row is excluded from parsing, import may still proceed after
//                explicit user confirmation
//   - warning -> row proceeds; surfaced in the report only
//
// A row is "invalid" if it has any error, "warning" if it has only warnings,
// and "valid" otherwise. For a file with N non-footer data rows:
// valid + invalid + warning == N == TotalRows.
//
// =============================================================================

package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/solardesk/tariff-import/internal/domain"
	"github.com/solardesk/tariff-import/internal/normalize"
	"github.com/solardesk/tariff-import/internal/schema"
)

// =============================================================================
// FOOTER / SUMMARY FILTER
// =============================================================================

// footerPrefixes mark non-data rows by their first non-empty cell. Matching
// runs on normalized text, so accents and case do not matter.
var footerPrefixes = []string{
	"filtro aplicado",
	"filtros aplicados",
	"total",
	"legenda",
	"fonte",
	"nota",
	"base tarifaria:",
	"tarifas vigentes",
}

// yearOnlyPattern matches section headers that carry nothing but a year.
var yearOnlyPattern = regexp.MustCompile(`^\d{4}$`)

// IsFooterRow reports whether a row is footer/summary noise rather than data.
func IsFooterRow(row []string) bool {
	first := ""
	nonEmpty := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		if nonEmpty == 0 {
			first = normalize.String(cell)
		}
		nonEmpty++
	}

	// Blank row.
	if nonEmpty == 0 {
		return true
	}

	// Year-only section header.
	if nonEmpty == 1 && yearOnlyPattern.MatchString(first) {
		return true
	}

	for _, prefix := range footerPrefixes {
		if strings.HasPrefix(first, prefix) {
			return true
		}
	}

	return false
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks the data rows of one import file. It is built once per
// import, after schema detection and column resolution.
type Validator struct {
	schema  domain.SourceSchema
	columns domain.ColumnMap
}

// New creates a Validator for the detected schema and resolved columns.
func New(s domain.SourceSchema, columns domain.ColumnMap) *Validator {
	return &Validator{schema: s, columns: columns}
}

// Validate runs the global gate, the footer filter and the per-row checks.
// Row indices in the report are source line numbers: the header is line 1,
// the first data row line 2.
func (v *Validator) Validate(rows [][]string) *domain.ValidationReport {
	report := &domain.ValidationReport{}

	// Global, blocking gate. Runs regardless of row content and halts the
	// pipeline before any row work.
	if missing := schema.MissingRequired(v.schema, v.columns); len(missing) > 0 {
		report.MissingRequiredColumns = missing
		return report
	}

	// Global advisory: without a tariff-mode column every payload lands on
	// the conventional default mode.
	if !v.columns.Has(domain.FieldTariffMode) {
		report.GlobalWarnings = append(report.GlobalWarnings,
			"tariff mode column not found; the conventional default will be applied to all rows")
	}

	for i, row := range rows {
		line := i + 2

		if IsFooterRow(row) {
			report.DiscardedFooterRows = append(report.DiscardedFooterRows, line)
			continue
		}

		rv := v.validateRow(line, row)
		report.Rows = append(report.Rows, rv)
		report.TotalRows++

		switch rv.Status {
		case domain.RowInvalid:
			report.InvalidRows++
		case domain.RowWarning:
			report.WarningRows++
		default:
			report.ValidRows++
		}
	}

	return report
}

// validateRow applies all per-row checks and derives the row status.
func (v *Validator) validateRow(line int, row []string) domain.RowValidation {
	rv := domain.RowValidation{
		RowIndex:         line,
		RawFields:        make(map[domain.Field]string),
		NormalizedFields: make(map[domain.Field]string),
		FieldIssues:      make(map[domain.Field]bool),
	}
	for field := range v.columns {
		rv.RawFields[field] = v.columns.Cell(row, field)
	}

	v.checkIdentity(&rv)
	v.checkDates(&rv)
	v.checkNumerics(&rv)

	switch {
	case len(rv.Errors) > 0:
		rv.Status = domain.RowInvalid
	case len(rv.Warnings) > 0:
		rv.Status = domain.RowWarning
	default:
		rv.Status = domain.RowValid
	}
	return rv
}

// checkIdentity enforces the non-empty agent identifier and subgroup.
func (v *Validator) checkIdentity(rv *domain.RowValidation) {
	if rv.RawFields[domain.FieldAgentCode] == "" {
		addError(rv, domain.FieldAgentCode, "agent identifier is empty")
	}
	if rv.RawFields[domain.FieldSubgroup] == "" {
		addError(rv, domain.FieldSubgroup, "subgroup is empty")
	}
}

// addError records an error-level finding against a field.
func addError(rv *domain.RowValidation, field domain.Field, msg string) {
	rv.Errors = append(rv.Errors, msg)
	rv.FieldIssues[field] = true
}

// addWarning records a warning-level finding against a field.
func addWarning(rv *domain.RowValidation, field domain.Field, msg string) {
	rv.Warnings = append(rv.Warnings, msg)
	rv.FieldIssues[field] = true
}

// checkDates validates validity start (error level) and, when present, the
// validity end (warning level) plus the start <= end cross-check.
func (v *Validator) checkDates(rv *domain.RowValidation) {
	if !v.columns.Has(domain.FieldValidityStart) {
		return
	}

	raw := rv.RawFields[domain.FieldValidityStart]
	start, startOK := normalize.Date(raw)
	if !startOK {
		addError(rv, domain.FieldValidityStart, fmt.Sprintf("invalid validity start date: '%s'", raw))
	} else {
		rv.NormalizedFields[domain.FieldValidityStart] = start.Format("2006-01-02")
	}

	if !v.columns.Has(domain.FieldValidityEnd) {
		return
	}
	rawEnd := rv.RawFields[domain.FieldValidityEnd]
	if rawEnd == "" {
		return
	}

	end, endOK := normalize.Date(rawEnd)
	if !endOK {
		addWarning(rv, domain.FieldValidityEnd, fmt.Sprintf("unparseable validity end date: '%s'", rawEnd))
		return
	}
	rv.NormalizedFields[domain.FieldValidityEnd] = end.Format("2006-01-02")

	if startOK && start.After(end) {
		addError(rv, domain.FieldValidityEnd, fmt.Sprintf(
			"validity start %s is after validity end %s",
			start.Format("2006-01-02"), end.Format("2006-01-02")))
	}
}

// checkNumerics validates the tariff value columns. Empty is zero, never a
// finding. Non-numeric text is an error on fields the detected schema
// requires and a warning everywhere else.
func (v *Validator) checkNumerics(rv *domain.RowValidation) {
	mandatory := v.mandatoryValueFields()

	for _, field := range []domain.Field{domain.FieldTUSD, domain.FieldTE, domain.FieldComponentValue} {
		if !v.columns.Has(field) {
			continue
		}

		raw := rv.RawFields[field]
		value, ok := normalize.Decimal(raw)
		if ok {
			rv.NormalizedFields[field] = strconv.FormatFloat(value, 'f', -1, 64)
			continue
		}

		msg := fmt.Sprintf("non-numeric %s value: '%s'", field, raw)
		if mandatory[field] {
			addError(rv, field, msg)
		} else {
			addWarning(rv, field, msg)
		}
	}
}

// mandatoryValueFields returns the numeric fields whose parse failure is an
// error for the detected schema. The components layout takes its value from
// the component-value column, falling back to TUSD when that column is the
// one the file carries.
func (v *Validator) mandatoryValueFields() map[domain.Field]bool {
	if v.schema == domain.SchemaComponents {
		if v.columns.Has(domain.FieldComponentValue) {
			return map[domain.Field]bool{domain.FieldComponentValue: true}
		}
		return map[domain.Field]bool{domain.FieldTUSD: true}
	}
	return map[domain.Field]bool{
		domain.FieldTUSD: true,
		domain.FieldTE:   true,
	}
}
