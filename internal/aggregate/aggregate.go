// =============================================================================
// Tariff Import Pipeline - Unit Normalizer & Aggregator
// =============================================================================
//
// Turns the flat record list into one tariff payload per
// (entity, subgroup, tariff mode) key.
//
// UNIT NORMALIZATION:
//   Rows priced per MWh are rescaled to the R$/kWh base used downstream
//   (divide by 1000). Demand charges are priced per kW and never rescaled.
//
// GROUPING:
//   Records group by (source agent, subgroup, tariff mode); groups whose
//   agent never resolved to a registered provider produce no payload and are
//   counted for the commit engine's skipped tally.
//
//   High-voltage family (subgroup A*): peak and off-peak TE/TUSD are pulled
//   from the time-slot labels. The peak check requires the peak token and
//   rejects labels carrying the off-peak token, because the off-peak label
//   contains the peak token as a substring. Demand charges come from
//   kW-priced rows, split by the generation-modality marker.
//
//   Low-voltage family (subgroup B*): one consolidated value, preferring the
//   first energy-priced row, else the first row of the group.
//
//   Components layout: the same family split, deriving only the
//   distribution-wire value.
//
// Payload keys are unique within one import; when two groups reduce to the
// same key the later one wins in memory, pre-commit only.
//
// =============================================================================

package aggregate

import (
	"strings"

	"github.com/solardesk/tariff-import/internal/domain"
	"github.com/solardesk/tariff-import/internal/normalize"
	"github.com/solardesk/tariff-import/internal/resolver"
)

// Input carries everything the aggregation step needs from prior stages.
type Input struct {
	Schema   domain.SourceSchema
	TenantID string
	Records  []domain.ParsedTariffRecord

	// Matches is the pre-match result per distinct source-agent string.
	Matches map[string]domain.MatchResult
}

// groupKey groups records before entity identity is known, so unmatched
// agents still form countable groups.
type groupKey struct {
	agent    string
	subgroup string
	mode     string
}

// Aggregate builds the per-key payloads and reports how many parsed records
// belonged to groups with no matched entity.
func Aggregate(in Input) (payloads []domain.SubgroupTariffPayload, skipped int) {
	groups := make(map[groupKey][]domain.ParsedTariffRecord)
	var order []groupKey

	for _, record := range in.Records {
		key := groupKey{
			agent:    resolver.AgentKey(record),
			subgroup: record.Subgroup,
			mode:     record.TariffMode,
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], record)
	}

	// Last payload wins for a duplicate upsert key, pre-commit only.
	byKey := make(map[domain.PayloadKey]int)

	for _, key := range order {
		recs := groups[key]

		match := in.Matches[key.agent]
		if match.Entity == nil {
			skipped += len(recs)
			continue
		}

		payload := build(in, key, match.Entity.ID, recs)

		if idx, dup := byKey[payload.Key()]; dup {
			payloads[idx] = payload
			continue
		}
		byKey[payload.Key()] = len(payloads)
		payloads = append(payloads, payload)
	}

	return payloads, skipped
}

// build computes one payload from a matched group.
func build(in Input, key groupKey, entityID string, recs []domain.ParsedTariffRecord) domain.SubgroupTariffPayload {
	payload := domain.SubgroupTariffPayload{
		TenantID:      in.TenantID,
		EntityID:      entityID,
		Subgroup:      key.subgroup,
		TariffMode:    key.mode,
		Family:        family(key.subgroup),
		Origin:        origin(in.Schema),
		ValidityStart: recs[0].ValidityStart,
	}

	if in.Schema == domain.SchemaComponents {
		fillWire(&payload, recs)
		return payload
	}

	if payload.Family == domain.FamilyHighVoltage {
		fillHighVoltage(&payload, recs)
	} else {
		fillLowVoltage(&payload, recs)
	}
	return payload
}

// fillHighVoltage extracts peak/off-peak energy values and demand charges.
func fillHighVoltage(p *domain.SubgroupTariffPayload, recs []domain.ParsedTariffRecord) {
	peakDone, offPeakDone := false, false

	for _, r := range recs {
		if isDemandUnit(r.Unit) {
			if isGeneration(r) {
				p.DemandChargeGeneration = r.TUSDValue
			} else {
				p.DemandCharge = r.TUSDValue
			}
			continue
		}

		switch {
		case !peakDone && isPeakSlot(r.TimeSlot):
			p.TUSDPeak = scale(r.TUSDValue, r.Unit)
			p.TEPeak = scale(r.TEValue, r.Unit)
			peakDone = true
		case !offPeakDone && isOffPeakSlot(r.TimeSlot):
			p.TUSDOffPeak = scale(r.TUSDValue, r.Unit)
			p.TEOffPeak = scale(r.TEValue, r.Unit)
			offPeakDone = true
		}
	}
}

// fillLowVoltage picks one consolidated value for the B family: the first
// energy-priced record, else the first record of the group.
func fillLowVoltage(p *domain.SubgroupTariffPayload, recs []domain.ParsedTariffRecord) {
	chosen := recs[0]
	for _, r := range recs {
		if isEnergyUnit(r.Unit) {
			chosen = r
			break
		}
	}
	p.TUSD = scale(chosen.TUSDValue, chosen.Unit)
	p.TE = scale(chosen.TEValue, chosen.Unit)
	p.ValidityStart = chosen.ValidityStart
}

// fillWire derives the distribution-wire values from a components group:
// peak/off-peak for the A family, one consolidated value for the B family.
func fillWire(p *domain.SubgroupTariffPayload, recs []domain.ParsedTariffRecord) {
	if p.Family == domain.FamilyHighVoltage {
		peakDone, offPeakDone := false, false
		for _, r := range recs {
			switch {
			case !peakDone && isPeakSlot(r.TimeSlot):
				p.FioBPeak = scale(r.FioBValue, r.Unit)
				peakDone = true
			case !offPeakDone && isOffPeakSlot(r.TimeSlot):
				p.FioBOffPeak = scale(r.FioBValue, r.Unit)
				offPeakDone = true
			}
		}
		return
	}

	chosen := recs[0]
	for _, r := range recs {
		if isEnergyUnit(r.Unit) {
			chosen = r
			break
		}
	}
	p.FioB = scale(chosen.FioBValue, chosen.Unit)
}

// =============================================================================
// MARKER CHECKS
// =============================================================================

// scale converts an MWh-priced value to the kWh base.
func scale(value float64, unit string) float64 {
	if strings.Contains(normalize.String(unit), "mwh") {
		return value / 1000
	}
	return value
}

// isEnergyUnit reports whether the unit bills per unit of energy.
func isEnergyUnit(unit string) bool {
	n := normalize.String(unit)
	return strings.Contains(n, "kwh") || strings.Contains(n, "mwh")
}

// isDemandUnit reports whether the unit bills per kW of demand, not per kWh.
func isDemandUnit(unit string) bool {
	n := normalize.String(unit)
	return strings.Contains(n, "kw") && !strings.Contains(n, "kwh")
}

// isPeakSlot matches the peak time slot. The off-peak label ("fora ponta")
// contains the peak token ("ponta"), so the off-peak token is rejected
// explicitly.
func isPeakSlot(slot string) bool {
	n := normalize.String(slot)
	return strings.Contains(n, "ponta") && !strings.Contains(n, "fora")
}

// isOffPeakSlot matches the off-peak time slot.
func isOffPeakSlot(slot string) bool {
	return strings.Contains(normalize.String(slot), "fora")
}

// isGeneration detects the generation-modality marker on a demand row.
func isGeneration(r domain.ParsedTariffRecord) bool {
	for _, s := range []string{r.TimeSlot, r.Detail, r.TariffMode} {
		if strings.Contains(normalize.String(s), "gerac") {
			return true
		}
	}
	return false
}

// family classifies a subgroup code by its leading voltage letter.
func family(subgroup string) domain.VoltageFamily {
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(subgroup)), "A") {
		return domain.FamilyHighVoltage
	}
	return domain.FamilyLowVoltage
}

// origin returns the provenance marker for the schema.
func origin(s domain.SourceSchema) string {
	if s == domain.SchemaComponents {
		return domain.OriginComponentsImport
	}
	return domain.OriginConsolidatedImport
}
