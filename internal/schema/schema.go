// =============================================================================
// Tariff Import Pipeline - Schema Detector & Column Resolver
// =============================================================================
//
// The two known export layouts are identified from header tokens alone:
//   - "components" layout: carries a component-type column (or mentions the
//     distribution wire directly)
//   - "consolidated" layout: everything else
//
// Column resolution maps each semantic field to a column index through three
// tiers over normalized headers:
//   1. exact match against an alias
//   2. header starts with an alias
//   3. header contains an alias (aliases shorter than 3 characters excluded)
//
// The first hit per field wins. When two distinct fields land on the same
// column, the lower-priority field is discarded (fixed priority order below).
// Both functions are pure and deterministic; the resolver runs exactly once
// per import and the resulting ColumnMap is immutable afterwards.
//
// =============================================================================

package schema

import (
	"strings"

	"github.com/solardesk/tariff-import/internal/domain"
	"github.com/solardesk/tariff-import/internal/normalize"
)

// =============================================================================
// ALIAS DICTIONARY
// =============================================================================

// fieldAliases is the compiled-in alias dictionary, keyed by semantic field.
// Aliases are stored in normalized form (lowercase, no accents). The tuning
// follows Brazilian regulator export conventions.
var fieldAliases = map[domain.Field][]string{
	domain.FieldAgentCode:      {"sigla", "sigla agente", "agente", "distribuidora", "concessionaria"},
	domain.FieldAgentName:      {"nome agente", "nome da distribuidora", "razao social"},
	domain.FieldSubgroup:       {"subgrupo", "subgrupo tarifario"},
	domain.FieldTariffMode:     {"modalidade", "modalidade tarifaria"},
	domain.FieldTimeSlot:       {"posto", "posto tarifario", "posto horario"},
	domain.FieldTUSD:           {"tusd", "valor tusd"},
	domain.FieldTE:             {"te", "valor te", "tarifa de energia"},
	domain.FieldComponent:      {"tipo de componente", "componente", "parcela"},
	domain.FieldComponentValue: {"valor", "valor componente"},
	domain.FieldUnit:           {"unidade", "unidade de medida", "un"},
	domain.FieldValidityStart:  {"inicio vigencia", "inicio da vigencia", "data inicio vigencia", "vigencia"},
	domain.FieldValidityEnd:    {"fim vigencia", "fim da vigencia", "data fim vigencia"},
	domain.FieldBaseTariff:     {"base tarifaria", "base"},
	domain.FieldDetail:         {"detalhe", "classe", "subclasse"},
}

// fieldPriority is the fixed priority order used by the ambiguity guard.
// Earlier entries win a contested column.
var fieldPriority = []domain.Field{
	domain.FieldAgentCode,
	domain.FieldSubgroup,
	domain.FieldTUSD,
	domain.FieldTE,
	domain.FieldComponent,
	domain.FieldComponentValue,
	domain.FieldUnit,
	domain.FieldTariffMode,
	domain.FieldTimeSlot,
	domain.FieldValidityStart,
	domain.FieldValidityEnd,
	domain.FieldBaseTariff,
	domain.FieldAgentName,
	domain.FieldDetail,
}

// =============================================================================
// SCHEMA DETECTION
// =============================================================================

// Detect classifies a file from its normalized headers. Presence of a
// component-type column, or of the distribution-wire token itself, means the
// components layout; everything else is consolidated.
func Detect(headers []string) domain.SourceSchema {
	for _, h := range headers {
		n := normalize.String(h)
		if strings.Contains(n, "componente") || strings.Contains(n, "fio b") {
			return domain.SchemaComponents
		}
	}
	return domain.SchemaConsolidated
}

// =============================================================================
// COLUMN RESOLUTION
// =============================================================================

// Resolve builds the ColumnMap for a header row. Fields that match no header
// are simply absent from the map; the validator decides which absences block
// the import.
func Resolve(headers []string) domain.ColumnMap {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalize.String(h)
	}

	columns := make(domain.ColumnMap, len(fieldAliases))
	for field := range fieldAliases {
		if idx, ok := resolveField(field, normalized); ok {
			columns[field] = idx
		}
	}

	// Ambiguity guard: one column serves at most one field. Walk fields from
	// highest to lowest priority and drop later claims on a taken column.
	taken := make(map[int]domain.Field, len(columns))
	for _, field := range fieldPriority {
		idx, ok := columns[field]
		if !ok {
			continue
		}
		if _, contested := taken[idx]; contested {
			delete(columns, field)
			continue
		}
		taken[idx] = field
	}

	return columns
}

// resolveField runs the three matching tiers for one field. Tiers are
// exhausted in order; within a tier, aliases are tried in dictionary order
// and headers left to right.
func resolveField(field domain.Field, headers []string) (int, bool) {
	aliases := fieldAliases[field]

	// Tier 1: exact match.
	for _, alias := range aliases {
		for i, h := range headers {
			if h == alias {
				return i, true
			}
		}
	}

	// Tier 2: header starts with alias.
	for _, alias := range aliases {
		for i, h := range headers {
			if strings.HasPrefix(h, alias) {
				return i, true
			}
		}
	}

	// Tier 3: header contains alias. Short aliases are excluded because
	// two-letter tokens substring-match almost anything.
	for _, alias := range aliases {
		if len(alias) < 3 {
			continue
		}
		for i, h := range headers {
			if strings.Contains(h, alias) {
				return i, true
			}
		}
	}

	return 0, false
}

// RequiredFields returns the blocking required-column set for a schema.
// The components layout additionally needs a value column, checked separately
// because either the component-value or the TUSD column satisfies it.
func RequiredFields(s domain.SourceSchema) []domain.Field {
	if s == domain.SchemaComponents {
		return []domain.Field{domain.FieldAgentCode, domain.FieldSubgroup, domain.FieldComponent}
	}
	return []domain.Field{
		domain.FieldAgentCode,
		domain.FieldSubgroup,
		domain.FieldTUSD,
		domain.FieldTE,
	}
}

// MissingRequired evaluates the global required-column gate for a resolved
// map. For the components layout it also enforces the either/or value check
// (component value or TUSD must be present).
func MissingRequired(s domain.SourceSchema, columns domain.ColumnMap) []domain.Field {
	var missing []domain.Field
	for _, f := range RequiredFields(s) {
		if !columns.Has(f) {
			missing = append(missing, f)
		}
	}

	if s == domain.SchemaComponents &&
		!columns.Has(domain.FieldComponentValue) && !columns.Has(domain.FieldTUSD) {
		missing = append(missing, domain.FieldComponentValue)
	}

	return missing
}
