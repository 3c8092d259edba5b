// =============================================================================
// Tariff Import Pipeline - Report Generator
// =============================================================================
//
// Pure derivation over the artifacts of the prior stages; no I/O happens
// here. Four reports are produced once per import:
//
//   - Summary:          headline counts plus the agent mapping rate
//   - Unmatched:        one advisory entry per unresolved agent string, plus
//                       the low-confidence fallback matches
//   - Column quality:   per expected field, found/fill-rate with failing-row
//                       examples; only emitted for problem columns
//   - Value sanity:     suspicious value patterns (all-zero tariffs, likely
//                       missed MWh conversion, empty required fields)
//
// =============================================================================

package reports

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/solardesk/tariff-import/internal/domain"
	"github.com/solardesk/tariff-import/internal/normalize"
	"github.com/solardesk/tariff-import/internal/resolver"
	"github.com/solardesk/tariff-import/internal/schema"
)

// Caps on report examples.
const (
	columnExampleCap = 5
	sanityExampleCap = 20
)

// fillRateThreshold is the percentage under which a column is reported.
const fillRateThreshold = 95.0

// =============================================================================
// REPORT TYPES
// =============================================================================

// Summary is the headline report of one import.
type Summary struct {
	SourceFile     string
	Schema         domain.SourceSchema
	TotalRows      int
	ValidRows      int
	InvalidRows    int
	WarningRows    int
	DiscardedRows  int
	ParsedRecords  int
	Payloads       int
	DistinctAgents int
	MatchedAgents  int

	// MappingRate is matched/distinct x 100, rounded to the nearest integer.
	MappingRate int
}

// UnmatchedEntry describes one agent string that needs human attention.
type UnmatchedEntry struct {
	Agent          string
	Reason         string
	Recommendation string

	// Confidence is non-zero for low-confidence fallback matches that were
	// accepted but flagged.
	Confidence float64
}

// ColumnQuality reports one problem column.
type ColumnQuality struct {
	Field    domain.Field
	Found    bool
	FillRate float64

	// ExampleRows holds up to 5 source line numbers with issues.
	ExampleRows []int
}

// ValueSanity counts suspicious value patterns.
type ValueSanity struct {
	BothPrimaryZero    int
	LikelyMWhForgotten int
	EmptyRequired      int

	// Example row numbers, capped at 20 each.
	BothPrimaryZeroRows    []int
	LikelyMWhForgottenRows []int
	EmptyRequiredRows      []int
}

// ImportReports bundles the four derived reports.
type ImportReports struct {
	Summary     Summary
	Unmatched   []UnmatchedEntry
	Columns     []ColumnQuality
	ValueSanity ValueSanity
}

// Input carries the artifacts the generator derives from.
type Input struct {
	SourceFile string
	Schema     domain.SourceSchema
	Columns    domain.ColumnMap
	Validation *domain.ValidationReport
	Records    []domain.ParsedTariffRecord
	Matches    map[string]domain.MatchResult
	Payloads   []domain.SubgroupTariffPayload
}

// Generate builds all four reports.
func Generate(in Input) *ImportReports {
	return &ImportReports{
		Summary:     buildSummary(in),
		Unmatched:   buildUnmatched(in),
		Columns:     buildColumnQuality(in),
		ValueSanity: buildValueSanity(in),
	}
}

// =============================================================================
// SUMMARY
// =============================================================================

func buildSummary(in Input) Summary {
	distinct, matched := 0, 0
	for _, m := range in.Matches {
		distinct++
		if m.Entity != nil {
			matched++
		}
	}

	rate := 0
	if distinct > 0 {
		rate = int(math.Round(float64(matched) / float64(distinct) * 100))
	}

	return Summary{
		SourceFile:     in.SourceFile,
		Schema:         in.Schema,
		TotalRows:      in.Validation.TotalRows,
		ValidRows:      in.Validation.ValidRows,
		InvalidRows:    in.Validation.InvalidRows,
		WarningRows:    in.Validation.WarningRows,
		DiscardedRows:  len(in.Validation.DiscardedFooterRows),
		ParsedRecords:  len(in.Records),
		Payloads:       len(in.Payloads),
		DistinctAgents: distinct,
		MatchedAgents:  matched,
		MappingRate:    rate,
	}
}

// =============================================================================
// UNMATCHED ENTITIES
// =============================================================================

func buildUnmatched(in Input) []UnmatchedEntry {
	var agents []string
	for agent := range in.Matches {
		agents = append(agents, agent)
	}
	sort.Strings(agents)

	var out []UnmatchedEntry
	for _, agent := range agents {
		m := in.Matches[agent]
		switch {
		case m.Entity == nil:
			out = append(out, UnmatchedEntry{
				Agent:  agent,
				Reason: "no registered provider matched this agent string",
				Recommendation: fmt.Sprintf(
					"register '%s' as an alias of the intended provider, or add the provider to the registry", agent),
			})
		case m.Tier == 5 && m.Confidence < resolver.LowConfidenceThreshold:
			out = append(out, UnmatchedEntry{
				Agent: agent,
				Reason: fmt.Sprintf("matched '%s' only by substring fallback (confidence %.2f)",
					m.Entity.CanonicalName, m.Confidence),
				Recommendation: "verify the match and register an explicit alias if it is correct",
				Confidence:     m.Confidence,
			})
		}
	}
	return out
}

// =============================================================================
// COLUMN QUALITY
// =============================================================================

func buildColumnQuality(in Input) []ColumnQuality {
	var out []ColumnQuality

	for _, field := range expectedFields(in.Schema) {
		if !in.Columns.Has(field) {
			out = append(out, ColumnQuality{Field: field, Found: false})
			continue
		}

		issueRows := make([]int, 0, columnExampleCap)
		issues := 0
		for _, rv := range in.Validation.Rows {
			if !rv.FieldIssues[field] {
				continue
			}
			issues++
			if len(issueRows) < columnExampleCap {
				issueRows = append(issueRows, rv.RowIndex)
			}
		}

		fillRate := 100.0
		if in.Validation.TotalRows > 0 {
			fillRate = (1 - float64(issues)/float64(in.Validation.TotalRows)) * 100
		}
		if fillRate < fillRateThreshold {
			out = append(out, ColumnQuality{
				Field:       field,
				Found:       true,
				FillRate:    fillRate,
				ExampleRows: issueRows,
			})
		}
	}

	return out
}

// expectedFields is the column set the quality report covers: the required
// fields plus the optional ones whose quality affects pricing.
func expectedFields(s domain.SourceSchema) []domain.Field {
	fields := schema.RequiredFields(s)
	return append(fields,
		domain.FieldTariffMode,
		domain.FieldTimeSlot,
		domain.FieldUnit,
		domain.FieldValidityStart,
	)
}

// =============================================================================
// VALUE SANITY
// =============================================================================

func buildValueSanity(in Input) ValueSanity {
	var vs ValueSanity

	for _, r := range in.Records {
		// (a) Both primary values zero; meaningful for the consolidated
		// layout only, where TUSD and TE are the primaries.
		if in.Schema == domain.SchemaConsolidated && r.TUSDValue == 0 && r.TEValue == 0 {
			vs.BothPrimaryZero++
			if len(vs.BothPrimaryZeroRows) < sanityExampleCap {
				vs.BothPrimaryZeroRows = append(vs.BothPrimaryZeroRows, r.RowIndex)
			}
		}

		// (b) A per-energy value above 1 currency unit per kWh without an
		// MWh tag usually means a forgotten MWh->kWh conversion upstream.
		if !strings.Contains(normalize.String(r.Unit), "mwh") && suspectValue(in.Schema, r) {
			vs.LikelyMWhForgotten++
			if len(vs.LikelyMWhForgottenRows) < sanityExampleCap {
				vs.LikelyMWhForgottenRows = append(vs.LikelyMWhForgottenRows, r.RowIndex)
			}
		}
	}

	// (c) Rows with empty required fields, from the validation pass.
	for _, rv := range in.Validation.Rows {
		if rv.RawFields[domain.FieldAgentCode] == "" || rv.RawFields[domain.FieldSubgroup] == "" {
			vs.EmptyRequired++
			if len(vs.EmptyRequiredRows) < sanityExampleCap {
				vs.EmptyRequiredRows = append(vs.EmptyRequiredRows, rv.RowIndex)
			}
		}
	}

	return vs
}

// suspectValue reports whether a record carries a per-energy value above 1
// currency unit per kWh. Demand rows bill per kW and are exempt.
func suspectValue(s domain.SourceSchema, r domain.ParsedTariffRecord) bool {
	n := normalize.String(r.Unit)
	if strings.Contains(n, "kw") && !strings.Contains(n, "kwh") {
		return false
	}
	if s == domain.SchemaComponents {
		return r.FioBValue > 1
	}
	return r.TUSDValue > 1 || r.TEValue > 1
}
