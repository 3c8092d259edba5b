package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnMapCell(t *testing.T) {
	columns := ColumnMap{
		FieldAgentCode: 0,
		FieldTUSD:      2,
		FieldDetail:    9,
	}
	row := []string{" CEMIG ", "B1", "0,45"}

	assert.Equal(t, "CEMIG", columns.Cell(row, FieldAgentCode), "cell values are trimmed")
	assert.Equal(t, "0,45", columns.Cell(row, FieldTUSD))

	// An index past the ragged row end is empty, not a panic.
	assert.Equal(t, "", columns.Cell(row, FieldDetail))

	// An unresolved field is empty.
	assert.Equal(t, "", columns.Cell(row, FieldSubgroup))
}

func TestColumnMapHas(t *testing.T) {
	columns := ColumnMap{FieldAgentCode: 0}
	assert.True(t, columns.Has(FieldAgentCode))
	assert.False(t, columns.Has(FieldTUSD))
}

func TestValidationReportBlocked(t *testing.T) {
	assert.False(t, (&ValidationReport{}).Blocked())
	assert.True(t, (&ValidationReport{
		MissingRequiredColumns: []Field{FieldTUSD},
	}).Blocked())
}

func TestPayloadKey(t *testing.T) {
	a := SubgroupTariffPayload{TenantID: "t", EntityID: "e", Subgroup: "B1", TariffMode: "Convencional"}
	b := SubgroupTariffPayload{TenantID: "t", EntityID: "e", Subgroup: "B1", TariffMode: "Convencional", TUSD: 0.5}
	c := SubgroupTariffPayload{TenantID: "t", EntityID: "e", Subgroup: "B1", TariffMode: "Branca"}

	assert.Equal(t, a.Key(), b.Key(), "values do not participate in the key")
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestSourceSchemaString(t *testing.T) {
	assert.Equal(t, "consolidated", SchemaConsolidated.String())
	assert.Equal(t, "components", SchemaComponents.String())
}
