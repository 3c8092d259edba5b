package reports

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solardesk/tariff-import/internal/domain"
)

var cemig = domain.ProviderEntity{ID: "p-cemig", CanonicalName: "CEMIG", Abbreviation: "CEMIG"}

func baseInput() Input {
	return Input{
		SourceFile: "tarifas.csv",
		Schema:     domain.SchemaConsolidated,
		Columns: domain.ColumnMap{
			domain.FieldAgentCode: 0,
			domain.FieldSubgroup:  1,
			domain.FieldTUSD:      2,
			domain.FieldTE:        3,
		},
		Validation: &domain.ValidationReport{TotalRows: 3, ValidRows: 3},
		Records: []domain.ParsedTariffRecord{
			{SourceAgentCode: "CEMIG", Subgroup: "B1", TUSDValue: 0.45, TEValue: 0.30, Unit: "R$/kWh", RowIndex: 2},
		},
		Matches: map[string]domain.MatchResult{
			"CEMIG": {SourceAgentString: "CEMIG", Entity: &cemig, Tier: 1, Confidence: 1},
		},
		Payloads: []domain.SubgroupTariffPayload{{EntityID: "p-cemig", Subgroup: "B1"}},
	}
}

func TestSummaryMappingRateRounds(t *testing.T) {
	in := baseInput()
	in.Matches = map[string]domain.MatchResult{
		"CEMIG": {Entity: &cemig, Tier: 1, Confidence: 1},
		"CPFL":  {Entity: &cemig, Tier: 1, Confidence: 1},
		"X1":    {},
	}

	r := Generate(in)

	assert.Equal(t, 3, r.Summary.DistinctAgents)
	assert.Equal(t, 2, r.Summary.MatchedAgents)
	// 2/3 -> 66.67 rounds to 67.
	assert.Equal(t, 67, r.Summary.MappingRate)
}

func TestSummaryZeroAgents(t *testing.T) {
	in := baseInput()
	in.Matches = nil
	in.Records = nil
	in.Payloads = nil

	r := Generate(in)

	assert.Zero(t, r.Summary.DistinctAgents)
	assert.Zero(t, r.Summary.MappingRate)
}

func TestUnmatchedEntries(t *testing.T) {
	in := baseInput()
	in.Matches = map[string]domain.MatchResult{
		"CEMIG":    {Entity: &cemig, Tier: 1, Confidence: 1},
		"Fantasma": {},
		"Fuzzy":    {Entity: &cemig, Tier: 5, Confidence: 0.31},
	}

	r := Generate(in)

	require.Len(t, r.Unmatched, 2)

	// Sorted by agent string.
	assert.Equal(t, "Fantasma", r.Unmatched[0].Agent)
	assert.Contains(t, r.Unmatched[0].Recommendation, "'Fantasma'")
	assert.Zero(t, r.Unmatched[0].Confidence)

	assert.Equal(t, "Fuzzy", r.Unmatched[1].Agent)
	assert.InDelta(t, 0.31, r.Unmatched[1].Confidence, 1e-9)
	assert.Contains(t, r.Unmatched[1].Reason, "CEMIG")
}

func TestUnmatchedSkipsConfidentFallback(t *testing.T) {
	in := baseInput()
	in.Matches = map[string]domain.MatchResult{
		"Close": {Entity: &cemig, Tier: 5, Confidence: 0.85},
	}

	r := Generate(in)

	assert.Empty(t, r.Unmatched)
}

func TestColumnQualityReportsMissingAndLowFill(t *testing.T) {
	in := baseInput()

	rows := make([]domain.RowValidation, 10)
	for i := range rows {
		rows[i] = domain.RowValidation{
			RowIndex:    i + 2,
			FieldIssues: map[domain.Field]bool{},
			RawFields:   map[domain.Field]string{domain.FieldAgentCode: "CEMIG", domain.FieldSubgroup: "B1"},
		}
	}
	// 2 of 10 rows have a bad TUSD: 80% fill rate, below the threshold.
	rows[1].FieldIssues[domain.FieldTUSD] = true
	rows[4].FieldIssues[domain.FieldTUSD] = true
	in.Validation = &domain.ValidationReport{TotalRows: 10, Rows: rows}

	r := Generate(in)

	var tusd, mode *ColumnQuality
	for i := range r.Columns {
		switch r.Columns[i].Field {
		case domain.FieldTUSD:
			tusd = &r.Columns[i]
		case domain.FieldTariffMode:
			mode = &r.Columns[i]
		}
	}

	require.NotNil(t, tusd)
	assert.True(t, tusd.Found)
	assert.InDelta(t, 80.0, tusd.FillRate, 1e-9)
	assert.Equal(t, []int{3, 6}, tusd.ExampleRows)

	// The mode column is absent from the file entirely.
	require.NotNil(t, mode)
	assert.False(t, mode.Found)
}

func TestColumnQualityExampleCap(t *testing.T) {
	in := baseInput()

	rows := make([]domain.RowValidation, 40)
	for i := range rows {
		rows[i] = domain.RowValidation{
			RowIndex:    i + 2,
			FieldIssues: map[domain.Field]bool{domain.FieldTUSD: true},
			RawFields:   map[domain.Field]string{domain.FieldAgentCode: "CEMIG", domain.FieldSubgroup: "B1"},
		}
	}
	in.Validation = &domain.ValidationReport{TotalRows: 40, Rows: rows}

	r := Generate(in)

	for _, c := range r.Columns {
		assert.LessOrEqual(t, len(c.ExampleRows), columnExampleCap)
	}
}

func TestValueSanity(t *testing.T) {
	in := baseInput()
	in.Records = []domain.ParsedTariffRecord{
		{Subgroup: "B1", TUSDValue: 0, TEValue: 0, Unit: "R$/kWh", RowIndex: 2},
		{Subgroup: "B1", TUSDValue: 450, TEValue: 300, Unit: "R$/kWh", RowIndex: 3},
		{Subgroup: "B1", TUSDValue: 450, TEValue: 300, Unit: "R$/MWh", RowIndex: 4},
		{Subgroup: "A4", TUSDValue: 30, Unit: "R$/kW", RowIndex: 5},
	}
	in.Validation = &domain.ValidationReport{
		TotalRows: 4,
		Rows: []domain.RowValidation{
			{RowIndex: 2, RawFields: map[domain.Field]string{domain.FieldAgentCode: "", domain.FieldSubgroup: "B1"}},
			{RowIndex: 3, RawFields: map[domain.Field]string{domain.FieldAgentCode: "CEMIG", domain.FieldSubgroup: "B1"}},
		},
	}

	r := Generate(in)

	assert.Equal(t, 1, r.ValueSanity.BothPrimaryZero)
	assert.Equal(t, []int{2}, r.ValueSanity.BothPrimaryZeroRows)

	// Only the non-MWh, non-demand row with values above 1 is suspect.
	assert.Equal(t, 1, r.ValueSanity.LikelyMWhForgotten)
	assert.Equal(t, []int{3}, r.ValueSanity.LikelyMWhForgottenRows)

	assert.Equal(t, 1, r.ValueSanity.EmptyRequired)
	assert.Equal(t, []int{2}, r.ValueSanity.EmptyRequiredRows)
}

func TestValueSanityExampleCap(t *testing.T) {
	in := baseInput()
	in.Records = nil
	for i := 0; i < 50; i++ {
		in.Records = append(in.Records, domain.ParsedTariffRecord{
			Subgroup: "B1", Unit: "R$/kWh", RowIndex: i + 2,
		})
	}
	in.Validation = &domain.ValidationReport{TotalRows: 50}

	r := Generate(in)

	assert.Equal(t, 50, r.ValueSanity.BothPrimaryZero)
	assert.Len(t, r.ValueSanity.BothPrimaryZeroRows, sanityExampleCap)
}

func TestRenderIncludesAllSections(t *testing.T) {
	in := baseInput()
	in.Matches["Fantasma"] = domain.MatchResult{SourceAgentString: "Fantasma"}

	out := Render(Generate(in))

	assert.Contains(t, out, "IMPORT SUMMARY")
	assert.Contains(t, out, "tarifas.csv")
	assert.Contains(t, out, "AGENTS NEEDING ATTENTION")
	assert.Contains(t, out, "Fantasma")
}

func TestWriteFiles(t *testing.T) {
	in := baseInput()
	in.Columns[domain.FieldTariffMode] = 4
	in.Columns[domain.FieldTimeSlot] = 5
	in.Columns[domain.FieldUnit] = 6
	in.Columns[domain.FieldValidityStart] = 7
	r := Generate(in)

	dir := t.TempDir()
	written, err := WriteFiles(r, dir)

	require.NoError(t, err)
	// A clean run yields only the summary file.
	require.Len(t, written, 1)
	assert.Contains(t, written[0], "summary_tarifas")
}

func TestRenderSummaryMentionsMappingRate(t *testing.T) {
	r := Generate(baseInput())
	out := RenderSummary(r)
	assert.Contains(t, out, fmt.Sprintf("%d%% mapping rate", r.Summary.MappingRate))
}
