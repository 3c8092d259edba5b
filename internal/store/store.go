// =============================================================================
// Tariff Import Pipeline - Store Interface
// =============================================================================
//
// The pipeline depends on a small capability set of the hosted tabular
// store: an ordered registry read, an idempotent upsert keyed on
// (tenant, entity, subgroup, tariff mode), plain inserts for provenance and
// audit rows, and a filtered read for import history. Everything above this
// interface is store-agnostic; tests substitute an in-memory fake.
//
// =============================================================================

package store

import (
	"context"

	"github.com/solardesk/tariff-import/internal/domain"
)

// Store is the persistence surface consumed by the pipeline.
type Store interface {
	// ListProviders returns the provider registry snapshot in a stable
	// order. The resolver's determinism contract depends on that order.
	ListProviders(ctx context.Context) ([]domain.ProviderEntity, error)

	// CreateImportVersion inserts one provenance row. Versions are
	// append-only; no import ever edits another import's version.
	CreateImportVersion(ctx context.Context, v domain.ImportVersion) error

	// UpdateImportVersionStatus moves a version between draft/done/partial.
	UpdateImportVersionStatus(ctx context.Context, id, status string) error

	// UpsertTariffs writes one chunk of payloads idempotently. A later
	// import overwrites earlier values for the same key; only the latest
	// tariff is active.
	UpsertTariffs(ctx context.Context, payloads []domain.SubgroupTariffPayload) error

	// AppendAuditLog writes the aggregate audit entry for one run.
	AppendAuditLog(ctx context.Context, entry domain.AuditEntry) error

	// LatestVersions returns the most recent import versions, newest first.
	LatestVersions(ctx context.Context, limit int) ([]domain.ImportVersion, error)
}
