// =============================================================================
// Tariff Import Pipeline - Record Parser
// =============================================================================
//
// The record parser re-walks the data rows independently of the validator's
// pass/fail outcome. Its concern is business relevance, not well-formedness:
//   - when a base-tariff applicability column exists, the row must carry the
//     "application tariff" marker; repositioning/result rows are dropped
//   - the subgroup must be non-empty
//   - components-layout rows must carry the distribution-wire ("fio B")
//     component; every other component type is dropped, because this pipeline
//     extracts only the wire-distribution value
//
// Rows that survive are emitted as immutable ParsedTariffRecord values with
// tolerantly-parsed numerics (unparseable cells become zero; the validator is
// the place where that gets reported).
//
// =============================================================================

package records

import (
	"strings"

	"github.com/solardesk/tariff-import/internal/domain"
	"github.com/solardesk/tariff-import/internal/normalize"
	"github.com/solardesk/tariff-import/internal/validate"
)

// Markers checked on normalized cell text.
const (
	// applicationMarker tags rows billed at the application tariff, as
	// opposed to the repositioning/economic-result base.
	applicationMarker = "aplicacao"

	// wireComponentMarker tags the distribution-wire component in the
	// components layout.
	wireComponentMarker = "fio b"
)

// defaultTariffMode is applied when the file has no tariff-mode column or the
// cell is empty.
const defaultTariffMode = "Convencional"

// Parse extracts the business-relevant records from the data rows.
func Parse(s domain.SourceSchema, columns domain.ColumnMap, rows [][]string) []domain.ParsedTariffRecord {
	var out []domain.ParsedTariffRecord

	for i, row := range rows {
		if validate.IsFooterRow(row) {
			continue
		}

		subgroup := columns.Cell(row, domain.FieldSubgroup)
		if subgroup == "" {
			continue
		}

		// Base-tariff applicability filter; only applies when the column
		// exists in this file.
		if columns.Has(domain.FieldBaseTariff) {
			base := normalize.String(columns.Cell(row, domain.FieldBaseTariff))
			if !strings.Contains(base, applicationMarker) {
				continue
			}
		}

		// Components layout: keep only the distribution-wire component.
		if s == domain.SchemaComponents {
			component := normalize.String(columns.Cell(row, domain.FieldComponent))
			if !strings.Contains(component, wireComponentMarker) {
				continue
			}
		}

		record := buildRecord(s, columns, row)
		record.Subgroup = subgroup
		record.RowIndex = i + 2
		out = append(out, record)
	}

	return out
}

// buildRecord assembles one record from a surviving row.
func buildRecord(s domain.SourceSchema, columns domain.ColumnMap, row []string) domain.ParsedTariffRecord {
	record := domain.ParsedTariffRecord{
		SourceAgentCode: columns.Cell(row, domain.FieldAgentCode),
		SourceAgentName: columns.Cell(row, domain.FieldAgentName),
		TariffMode:      columns.Cell(row, domain.FieldTariffMode),
		TimeSlot:        columns.Cell(row, domain.FieldTimeSlot),
		Unit:            columns.Cell(row, domain.FieldUnit),
		BaseTariffFlag:  columns.Cell(row, domain.FieldBaseTariff),
		Detail:          columns.Cell(row, domain.FieldDetail),
	}

	if record.TariffMode == "" {
		record.TariffMode = defaultTariffMode
	}

	if start, ok := normalize.Date(columns.Cell(row, domain.FieldValidityStart)); ok {
		record.ValidityStart = start
	}

	record.TUSDValue, _ = normalize.Decimal(columns.Cell(row, domain.FieldTUSD))
	record.TEValue, _ = normalize.Decimal(columns.Cell(row, domain.FieldTE))

	if s == domain.SchemaComponents {
		// The wire value lives in the component-value column when the file
		// has one, otherwise in the TUSD column.
		if columns.Has(domain.FieldComponentValue) {
			record.FioBValue, _ = normalize.Decimal(columns.Cell(row, domain.FieldComponentValue))
		} else {
			record.FioBValue = record.TUSDValue
		}
		record.HasFioB = true
	}

	return record
}
