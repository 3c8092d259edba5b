// =============================================================================
// Tariff Import Pipeline - Entity Resolver
// =============================================================================
//
// Maps the free-text source-agent string of an import file to exactly one
// registered provider, or to nothing. The registry snapshot is read once at
// import start; resolution is deterministic for a fixed snapshot.
//
// BUILD PHASE (once per import):
//   Four lookup maps keyed by normalized text:
//     - official regulator names        (officialSourceName)
//     - abbreviations                   (abbreviation)
//     - canonical names + all aliases   (canonicalName, aliases[])
//     - suffix-stripped canonical names (legal/entity suffixes removed)
//
// LOOKUP ORDER (short-circuit on first hit):
//   1. exact match on the combined official/canonical/alias map
//   2. exact match on the suffix-stripped form
//   3. exact match on the abbreviation map (raw and stripped source)
//   4. static table of historical/regional naming variants
//   5. substring fallback over all entities, in registry order
//
// The fallback tier is an unscored heuristic in origin; here every fallback
// match additionally carries a Levenshtein-based confidence so low-confidence
// picks can be surfaced to a human instead of silently trusted.
//
// FAILURE MODE:
//   Never an error. Unmatched strings accumulate into an advisory set that is
//   shown before commit; their records are skipped (counted) at commit time.
//
// =============================================================================

package resolver

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/solardesk/tariff-import/internal/domain"
	"github.com/solardesk/tariff-import/internal/normalize"
)

// =============================================================================
// NORMALIZATION HELPERS
// =============================================================================

// legalSuffixes are tokens dropped when building the suffix-stripped form.
// "d" covers the "-D" marker utilities append to their distribution arm
// (CEMIG-D, COPEL-D); hyphens split into tokens before stripping.
var legalSuffixes = map[string]bool{
	"s.a.":          true,
	"s.a":           true,
	"s/a":           true,
	"sa":            true,
	"ltda":          true,
	"distribuicao":  true,
	"distribuidora": true,
	"energia":       true,
	"eletrica":      true,
	"de":            true,
	"d":             true,
}

// stripSuffixes removes the legal suffix tokens from an already normalized
// name; hyphens split into tokens first, so "cemig distribuicao s.a." and
// "cemig-d" both reduce to "cemig".
func stripSuffixes(normalized string) string {
	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return r == ' ' || r == '-'
	})

	kept := fields[:0]
	for _, f := range fields {
		if !legalSuffixes[f] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// =============================================================================
// HISTORICAL / REGIONAL VARIANTS
// =============================================================================

// knownVariants maps normalized historical or regional agent spellings to the
// abbreviation registered for the provider. Regulator exports kept old group
// + state-name combinations alive for years after rebrandings.
var knownVariants = map[string]string{
	"cemig distribuicao":                "cemig",
	"copel distribuicao":                "copel",
	"celesc distribuicao":               "celesc",
	"cpfl paulista":                     "cpfl",
	"companhia paulista de forca e luz": "cpfl",
	"energisa mato grosso":              "emt",
	"energisa mato grosso do sul":       "ems",
	"energisa tocantins":                "eto",
	"energisa paraiba":                  "epb",
	"energisa sergipe":                  "ese",
	"energisa minas gerais":             "emg",
	"light servicos de eletricidade":    "light",
	"ampla energia e servicos":          "enel rj",
	"eletropaulo metropolitana":         "enel sp",
	"celg distribuicao":                 "equatorial go",
	"cepisa":                            "equatorial pi",
	"celpa":                             "equatorial pa",
	"coelce":                            "enel ce",
	"coelba":                            "neoenergia ba",
	"celpe":                             "neoenergia pe",
	"cosern":                            "neoenergia rn",
	"rge sul":                           "rge",
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver matches source-agent strings against one registry snapshot.
// Results are memoized per distinct source string, so repeated records reuse
// the first computation.
type Resolver struct {
	entities []domain.ProviderEntity

	official map[string]*domain.ProviderEntity
	names    map[string]*domain.ProviderEntity
	stripped map[string]*domain.ProviderEntity
	abbrev   map[string]*domain.ProviderEntity

	cache map[string]domain.MatchResult
}

// New builds a Resolver from the current registry snapshot. Entity order is
// preserved; the substring fallback walks entities in this order.
func New(entities []domain.ProviderEntity) *Resolver {
	r := &Resolver{
		entities: entities,
		official: make(map[string]*domain.ProviderEntity),
		names:    make(map[string]*domain.ProviderEntity),
		stripped: make(map[string]*domain.ProviderEntity),
		abbrev:   make(map[string]*domain.ProviderEntity),
		cache:    make(map[string]domain.MatchResult),
	}

	for i := range entities {
		e := &r.entities[i]

		if e.OfficialSourceName != "" {
			put(r.official, normalize.String(e.OfficialSourceName), e)
		}
		put(r.names, normalize.String(e.CanonicalName), e)
		for _, alias := range e.Aliases {
			put(r.names, normalize.String(alias), e)
		}
		put(r.stripped, stripSuffixes(normalize.String(e.CanonicalName)), e)
		if e.Abbreviation != "" {
			put(r.abbrev, normalize.String(e.Abbreviation), e)
		}
	}

	return r
}

// put keeps the first registration for a key; later duplicates never shadow
// earlier entities, preserving determinism per snapshot order.
func put(m map[string]*domain.ProviderEntity, key string, e *domain.ProviderEntity) {
	if key == "" {
		return
	}
	if _, exists := m[key]; !exists {
		m[key] = e
	}
}

// Resolve maps one source-agent string to a provider, or to a nil-entity
// result. The computation runs at most once per distinct source string per
// import.
func (r *Resolver) Resolve(source string) domain.MatchResult {
	if cached, ok := r.cache[source]; ok {
		return cached
	}

	result := r.lookup(source)
	r.cache[source] = result
	return result
}

func (r *Resolver) lookup(source string) domain.MatchResult {
	result := domain.MatchResult{SourceAgentString: source}

	n := normalize.String(source)
	if n == "" {
		return result
	}
	ns := stripSuffixes(n)

	// Tier 1: combined official/canonical/alias exact match.
	if e, ok := r.official[n]; ok {
		return matched(result, e, 1)
	}
	if e, ok := r.names[n]; ok {
		return matched(result, e, 1)
	}

	// Tier 2: suffix-stripped exact match.
	if e, ok := r.stripped[ns]; ok {
		return matched(result, e, 2)
	}
	if e, ok := r.names[ns]; ok {
		return matched(result, e, 2)
	}

	// Tier 3: abbreviation exact match, raw and stripped.
	if e, ok := r.abbrev[n]; ok {
		return matched(result, e, 3)
	}
	if e, ok := r.abbrev[ns]; ok {
		return matched(result, e, 3)
	}

	// Tier 4: historical/regional variant table, raw and stripped.
	for _, form := range []string{n, ns} {
		if abbr, ok := knownVariants[form]; ok {
			if e, found := r.abbrev[abbr]; found {
				return matched(result, e, 4)
			}
			if e, found := r.names[abbr]; found {
				return matched(result, e, 4)
			}
		}
	}

	// Tier 5: substring fallback, first satisfying entity wins.
	if e, confidence, ok := r.fallback(n, ns); ok {
		result.Entity = e
		result.Tier = 5
		result.Confidence = confidence
		return result
	}

	return result
}

func matched(result domain.MatchResult, e *domain.ProviderEntity, tier int) domain.MatchResult {
	result.Entity = e
	result.Tier = tier
	result.Confidence = 1
	return result
}

// fallback scans all entities for a containment relation between the source
// string and the entity's canonical name or abbreviation. Only source forms
// of at least 3 characters participate; containment on shorter fragments
// matches nearly everything.
func (r *Resolver) fallback(n, ns string) (*domain.ProviderEntity, float64, bool) {
	sourceForms := make([]string, 0, 2)
	if len(n) >= 3 {
		sourceForms = append(sourceForms, n)
	}
	if ns != n && len(ns) >= 3 {
		sourceForms = append(sourceForms, ns)
	}
	if len(sourceForms) == 0 {
		return nil, 0, false
	}

	for i := range r.entities {
		e := &r.entities[i]
		name := normalize.String(e.CanonicalName)
		strippedName := stripSuffixes(name)
		abbr := normalize.String(e.Abbreviation)

		for _, form := range sourceForms {
			if strings.Contains(name, form) || strings.Contains(strippedName, form) {
				return e, similarity(form, name), true
			}
			if len(abbr) >= 3 && (strings.Contains(form, abbr) || strings.Contains(abbr, form)) {
				return e, similarity(form, abbr), true
			}
		}
	}

	return nil, 0, false
}

// similarity is a 0..1 Levenshtein-derived score used to flag low-confidence
// fallback matches in the pre-commit report.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// =============================================================================
// BATCH API
// =============================================================================

// LowConfidenceThreshold is the score under which a fallback match is
// surfaced for human review rather than silently trusted.
const LowConfidenceThreshold = 0.5

// AgentKey picks the source-agent string for a record: the agent code when
// present, otherwise the agent name.
func AgentKey(record domain.ParsedTariffRecord) string {
	if record.SourceAgentCode != "" {
		return record.SourceAgentCode
	}
	return record.SourceAgentName
}

// ResolveAll pre-matches every distinct agent string in the record set and
// returns the result per string.
func (r *Resolver) ResolveAll(recs []domain.ParsedTariffRecord) map[string]domain.MatchResult {
	results := make(map[string]domain.MatchResult)
	for _, record := range recs {
		key := AgentKey(record)
		if _, seen := results[key]; seen {
			continue
		}
		results[key] = r.Resolve(key)
	}
	return results
}

// Unmatched returns the sorted advisory set of source strings that resolved
// to nothing so far.
func (r *Resolver) Unmatched() []string {
	var out []string
	for source, result := range r.cache {
		if result.Entity == nil {
			out = append(out, source)
		}
	}
	sort.Strings(out)
	return out
}
