// =============================================================================
// Tariff Import Pipeline - Shared Domain Types
// =============================================================================
//
// This package contains the data model shared across the pipeline stages.
// Keeping these types in one leaf package avoids import cycles between:
//   - validate / records
//   - resolver / aggregate
//   - commitengine / reports
//
// LIFECYCLE:
//   - RawRow, ParsedTariffRecord, MatchResult: in-memory, scoped to one run
//   - ProviderEntity: long-lived, read from the registry at import start
//   - SubgroupTariffPayload, ImportVersion: persisted by the commit engine
//
// =============================================================================

package domain

import (
	"strings"
	"time"
)

// =============================================================================
// SOURCE SCHEMA
// =============================================================================

// SourceSchema identifies which of the two known export layouts a file uses.
type SourceSchema int

const (
	// SchemaConsolidated is the "consolidated tariffs" export: one row per
	// subgroup/mode/slot with separate TUSD and TE columns.
	SchemaConsolidated SourceSchema = iota

	// SchemaComponents is the "tariff components" export: one row per tariff
	// component, from which only the distribution-wire (fio B) component is
	// extracted.
	SchemaComponents
)

// String returns a human-readable schema name for logs and reports.
func (s SourceSchema) String() string {
	if s == SchemaComponents {
		return "components"
	}
	return "consolidated"
}

// =============================================================================
// TABLE DATA
// =============================================================================

// TableData is the loader output: one header row plus the raw data rows,
// regardless of the container format the file arrived in.
type TableData struct {
	// Headers contains the raw column headers as they appear in the file.
	Headers []string

	// Rows contains the data rows. Cell order matches Headers; short rows are
	// possible and every consumer must bounds-check column access.
	Rows [][]string

	// SourceFile is the name of the file the data was loaded from.
	SourceFile string
}

// =============================================================================
// COLUMN MAP
// =============================================================================

// Field is a semantic field name resolved against the file headers.
type Field string

// Semantic fields known to the column resolver. Not every field exists in
// every file; the validator decides which absences are blocking.
const (
	FieldAgentCode      Field = "agent_code"
	FieldAgentName      Field = "agent_name"
	FieldSubgroup       Field = "subgroup"
	FieldTariffMode     Field = "tariff_mode"
	FieldTimeSlot       Field = "time_slot"
	FieldTUSD           Field = "tusd"
	FieldTE             Field = "te"
	FieldComponent      Field = "component"
	FieldComponentValue Field = "component_value"
	FieldUnit           Field = "unit"
	FieldValidityStart  Field = "validity_start"
	FieldValidityEnd    Field = "validity_end"
	FieldBaseTariff     Field = "base_tariff"
	FieldDetail         Field = "detail"
)

// ColumnMap maps semantic fields to column indices in the source file.
// It is built exactly once per import and never mutated afterwards.
type ColumnMap map[Field]int

// Has reports whether a field resolved to a column.
func (m ColumnMap) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// Cell returns the trimmed cell value for a field in the given row, or ""
// when the field did not resolve or the row is short.
func (m ColumnMap) Cell(row []string, f Field) string {
	idx, ok := m[f]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// =============================================================================
// ROW VALIDATION
// =============================================================================

// RowStatus is the per-row validation outcome.
type RowStatus string

const (
	RowValid   RowStatus = "valid"
	RowInvalid RowStatus = "invalid"
	RowWarning RowStatus = "warning"
)

// RowValidation is the validation result for a single data row.
// RowIndex maps 1:1 to the source line number (1-based, header excluded).
type RowValidation struct {
	RowIndex         int
	Status           RowStatus
	Errors           []string
	Warnings         []string
	RawFields        map[Field]string
	NormalizedFields map[Field]string

	// FieldIssues marks the fields a finding was recorded against, feeding
	// the column-quality report.
	FieldIssues map[Field]bool
}

// ValidationReport aggregates all per-row results for one file.
type ValidationReport struct {
	// TotalRows is the number of rows that entered row validation
	// (footer/blank rows excluded).
	TotalRows   int
	ValidRows   int
	InvalidRows int
	WarningRows int

	// Rows holds one entry per validated row, in source order.
	Rows []RowValidation

	// MissingRequiredColumns lists required fields absent from the file.
	// Non-empty means the import is blocked pending a corrected file.
	MissingRequiredColumns []Field

	// DiscardedFooterRows holds source line numbers of rows excluded by the
	// footer/summary filter. These rows never appear in Rows.
	DiscardedFooterRows []int

	// GlobalWarnings holds file-level advisories (e.g. a missing tariff-mode
	// column meaning the conventional default applies).
	GlobalWarnings []string
}

// Blocked reports whether the required-column gate failed.
func (r *ValidationReport) Blocked() bool {
	return len(r.MissingRequiredColumns) > 0
}

// =============================================================================
// PARSED RECORDS
// =============================================================================

// ParsedTariffRecord is a business-relevant row in normalized form.
// Immutable once produced by the record parser.
type ParsedTariffRecord struct {
	SourceAgentCode string
	SourceAgentName string
	Subgroup        string
	TariffMode      string
	TimeSlot        string
	TUSDValue       float64
	TEValue         float64

	// FioBValue is the distribution-wire component value. Only set for
	// components-schema files; HasFioB distinguishes zero from absent.
	FioBValue float64
	HasFioB   bool

	// Unit is the raw unit cell (e.g. "R$/kWh", "R$/MWh", "R$/kW").
	Unit string

	BaseTariffFlag string
	Detail         string
	ValidityStart  time.Time

	// RowIndex is the source line number, kept for report examples.
	RowIndex int
}

// =============================================================================
// PROVIDER REGISTRY
// =============================================================================

// ProviderEntity is a registered utility. The registry is owned by a separate
// maintenance flow; this pipeline only reads it.
type ProviderEntity struct {
	ID                 string
	CanonicalName      string
	Abbreviation       string
	OfficialSourceName string
	Aliases            []string
}

// MatchResult is the outcome of resolving one distinct source-agent string.
type MatchResult struct {
	SourceAgentString string

	// Entity is nil when no registered provider matched.
	Entity *ProviderEntity

	// Tier records which lookup tier produced the match (1..5); 0 when
	// unmatched.
	Tier int

	// Confidence is only meaningful for tier-5 (substring fallback) matches,
	// where it carries a 0..1 similarity score. Exact tiers report 1.
	Confidence float64
}

// =============================================================================
// TARIFF PAYLOADS
// =============================================================================

// VoltageFamily splits subgroups into the two tally buckets used by commit
// statistics.
type VoltageFamily string

const (
	// FamilyHighVoltage covers the A-subgroups (medium/high voltage).
	FamilyHighVoltage VoltageFamily = "A"

	// FamilyLowVoltage covers the B-subgroups (low voltage).
	FamilyLowVoltage VoltageFamily = "B"
)

// SubgroupTariffPayload is one upsert unit: the computed tariff fields for a
// (entity, subgroup, tariff mode) key. All monetary values are R$/kWh after
// unit normalization (demand charges are R$/kW).
type SubgroupTariffPayload struct {
	TenantID   string
	EntityID   string
	Subgroup   string
	TariffMode string

	TUSD        float64
	TE          float64
	TUSDPeak    float64
	TEPeak      float64
	TUSDOffPeak float64
	TEOffPeak   float64

	// DemandCharge and DemandChargeGeneration are the kW-billed charges for
	// the high-voltage family.
	DemandCharge           float64
	DemandChargeGeneration float64

	// FioB is the distribution-wire component (components schema only).
	FioB        float64
	FioBPeak    float64
	FioBOffPeak float64

	// Origin marks which import mechanism produced the row.
	Origin string

	// Family is used only for commit-statistics tallies.
	Family VoltageFamily

	// VersionID references the ImportVersion this payload was committed under.
	VersionID string

	ValidityStart time.Time
}

// Key returns the upsert key of the payload.
func (p SubgroupTariffPayload) Key() PayloadKey {
	return PayloadKey{
		TenantID:   p.TenantID,
		EntityID:   p.EntityID,
		Subgroup:   p.Subgroup,
		TariffMode: p.TariffMode,
	}
}

// PayloadKey is the idempotent upsert key. Later imports overwrite earlier
// values for the same key; only the latest tariff is active.
type PayloadKey struct {
	TenantID   string
	EntityID   string
	Subgroup   string
	TariffMode string
}

// Origin markers for the two source schemas.
const (
	OriginConsolidatedImport = "tariff-import/consolidated"
	OriginComponentsImport   = "tariff-import/components"
)

// =============================================================================
// IMPORT VERSION
// =============================================================================

// ImportVersion is the provenance marker created once per commit. It is
// append-only: a later import never edits an earlier version row.
type ImportVersion struct {
	ID             string
	Status         string
	TotalRecords   int
	TotalEntities  int
	SourceFileName string
	CreatedAt      time.Time
}

// ImportVersion statuses. A version stays "partial" when some chunks failed;
// the rows that did land are kept intentionally as provenance.
const (
	VersionDraft   = "draft"
	VersionDone    = "done"
	VersionPartial = "partial"
)

// =============================================================================
// COMMIT RESULT
// =============================================================================

// CommitResult is the terminal state of one import run.
type CommitResult struct {
	// Matched is the number of payloads whose entity resolved.
	Matched int

	// Updated is the number of payloads actually upserted.
	Updated int

	// Skipped is the number of parsed records whose group never resolved to a
	// matched entity. Counted, not erred.
	Skipped int

	// Errors holds one entry per failed chunk.
	Errors []error

	// FamilyTallies counts committed payloads per voltage family.
	FamilyTallies map[VoltageFamily]int
}

// AuditEntry is the single aggregate audit-log record written after commit.
// Its persistence is best-effort; a write failure is logged, never surfaced.
type AuditEntry struct {
	ID         string
	VersionID  string
	TenantID   string
	SourceFile string
	Summary    string
	CreatedAt  time.Time
}
