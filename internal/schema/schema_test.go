package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solardesk/tariff-import/internal/domain"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		headers  []string
		expected domain.SourceSchema
	}{
		{
			"component-type column means components",
			[]string{"Sigla", "Subgrupo", "Tipo de Componente", "Valor"},
			domain.SchemaComponents,
		},
		{
			"wire token alone means components",
			[]string{"Sigla", "Subgrupo", "Fio B", "Unidade"},
			domain.SchemaComponents,
		},
		{
			"accented component header",
			[]string{"Sigla", "Componente Tarifário", "Valor"},
			domain.SchemaComponents,
		},
		{
			"plain consolidated layout",
			[]string{"Sigla", "Subgrupo", "TUSD", "TE"},
			domain.SchemaConsolidated,
		},
		{
			"empty header row defaults to consolidated",
			nil,
			domain.SchemaConsolidated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Detect(tt.headers))
		})
	}
}

func TestResolveExactAndVariants(t *testing.T) {
	headers := []string{"Sigla", "Subgrupo", "Modalidade", "Posto", "TUSD", "TE", "Unidade", "Início Vigência"}

	columns := Resolve(headers)

	assert.Equal(t, 0, columns[domain.FieldAgentCode])
	assert.Equal(t, 1, columns[domain.FieldSubgroup])
	assert.Equal(t, 2, columns[domain.FieldTariffMode])
	assert.Equal(t, 3, columns[domain.FieldTimeSlot])
	assert.Equal(t, 4, columns[domain.FieldTUSD])
	assert.Equal(t, 5, columns[domain.FieldTE])
	assert.Equal(t, 6, columns[domain.FieldUnit])
	assert.Equal(t, 7, columns[domain.FieldValidityStart])
}

func TestResolvePrefixTier(t *testing.T) {
	// "Subgrupo Tarifário de Consumo" only matches by prefix.
	headers := []string{"Sigla Agente", "Subgrupo Tarifário de Consumo", "TUSD", "TE"}

	columns := Resolve(headers)

	assert.Equal(t, 0, columns[domain.FieldAgentCode])
	assert.Equal(t, 1, columns[domain.FieldSubgroup])
}

func TestResolveContainsTier(t *testing.T) {
	headers := []string{"Código da Distribuidora", "Subgrupo", "Valor TUSD (R$/kWh)", "Valor TE (R$/kWh)"}

	columns := Resolve(headers)

	assert.Equal(t, 0, columns[domain.FieldAgentCode], "distribuidora should match by containment")
	assert.Equal(t, 2, columns[domain.FieldTUSD])
	assert.Equal(t, 3, columns[domain.FieldTE])
}

func TestResolveUnderscoreHeaders(t *testing.T) {
	headers := []string{"sigla", "subgrupo", "tusd", "te", "inicio_vigencia"}

	columns := Resolve(headers)

	require.True(t, columns.Has(domain.FieldValidityStart))
	assert.Equal(t, 4, columns[domain.FieldValidityStart])
}

func TestResolveAmbiguityGuard(t *testing.T) {
	// "TUSD - Valor" matches FieldTUSD by prefix and FieldComponentValue by
	// containment. The higher-priority field keeps the column.
	headers := []string{"Sigla", "Subgrupo", "Tipo de Componente", "TUSD - Valor"}

	columns := Resolve(headers)

	assert.Equal(t, 3, columns[domain.FieldTUSD])
	assert.False(t, columns.Has(domain.FieldComponentValue))

	// Exactly one field may own each column index.
	seen := make(map[int]domain.Field)
	for f, idx := range columns {
		prev, dup := seen[idx]
		assert.False(t, dup, "column %d claimed by both %s and %s", idx, prev, f)
		seen[idx] = f
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	headers := []string{"Sigla", "Subgrupo", "Modalidade", "TUSD", "TE", "Unidade"}

	first := Resolve(headers)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Resolve(headers))
	}
}

func TestMissingRequiredConsolidated(t *testing.T) {
	// No header matches "tusd": the gate must name the field.
	headers := []string{"Sigla", "Subgrupo", "Tarifa de Energia"}

	columns := Resolve(headers)
	missing := MissingRequired(domain.SchemaConsolidated, columns)

	assert.Contains(t, missing, domain.FieldTUSD)
	assert.NotContains(t, missing, domain.FieldTE)
}

func TestMissingRequiredComponentsEitherOr(t *testing.T) {
	t.Run("component value column satisfies", func(t *testing.T) {
		columns := Resolve([]string{"Sigla", "Subgrupo", "Tipo de Componente", "Valor"})
		assert.Empty(t, MissingRequired(domain.SchemaComponents, columns))
	})

	t.Run("tusd column satisfies", func(t *testing.T) {
		columns := domain.ColumnMap{
			domain.FieldAgentCode: 0,
			domain.FieldSubgroup:  1,
			domain.FieldComponent: 2,
			domain.FieldTUSD:      3,
		}
		assert.Empty(t, MissingRequired(domain.SchemaComponents, columns))
	})

	t.Run("neither blocks", func(t *testing.T) {
		columns := domain.ColumnMap{
			domain.FieldAgentCode: 0,
			domain.FieldSubgroup:  1,
			domain.FieldComponent: 2,
		}
		missing := MissingRequired(domain.SchemaComponents, columns)
		assert.Contains(t, missing, domain.FieldComponentValue)
	})
}
