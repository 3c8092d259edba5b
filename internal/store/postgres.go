// =============================================================================
// Tariff Import Pipeline - Postgres Store
// =============================================================================
//
// pgx-backed implementation of the Store interface. One chunk of payloads is
// submitted as a single pgx.Batch, so the per-chunk round trip stays at one
// regardless of chunk size. The upsert conflict key matches the unique index
// on subgroup_tariffs:
//
//   (tenant_id, entity_id, subgroup, tariff_mode)
//
// Two concurrent imports writing the same key are not locked out here;
// last-write-wins at the store is the only protection, matching the upsert
// contract.
//
// =============================================================================

package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/solardesk/tariff-import/internal/domain"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool from the given DSN.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// ListProviders reads the registry ordered by canonical name, giving the
// resolver a stable snapshot order.
func (s *PostgresStore) ListProviders(ctx context.Context) ([]domain.ProviderEntity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, canonical_name, abbreviation,
		       COALESCE(official_source_name, ''), COALESCE(aliases, '{}')
		FROM providers
		ORDER BY canonical_name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider registry: %w", err)
	}
	defer rows.Close()

	var entities []domain.ProviderEntity
	for rows.Next() {
		var e domain.ProviderEntity
		if err := rows.Scan(&e.ID, &e.CanonicalName, &e.Abbreviation,
			&e.OfficialSourceName, &e.Aliases); err != nil {
			return nil, fmt.Errorf("failed to scan provider row: %w", err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("provider registry read failed: %w", err)
	}

	return entities, nil
}

// CreateImportVersion inserts the provenance row for one run.
func (s *PostgresStore) CreateImportVersion(ctx context.Context, v domain.ImportVersion) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_versions
			(id, status, total_records, total_entities, source_file_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.Status, v.TotalRecords, v.TotalEntities, v.SourceFileName, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create import version: %w", err)
	}
	return nil
}

// UpdateImportVersionStatus finalizes a version after the batch step.
func (s *PostgresStore) UpdateImportVersionStatus(ctx context.Context, id, status string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE import_versions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update import version %s: %w", id, err)
	}
	return nil
}

const upsertTariffSQL = `
	INSERT INTO subgroup_tariffs (
		tenant_id, entity_id, subgroup, tariff_mode,
		tusd, te, tusd_peak, te_peak, tusd_off_peak, te_off_peak,
		demand_charge, demand_charge_generation,
		fio_b, fio_b_peak, fio_b_off_peak,
		origin, version_id, validity_start, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16, $17, $18, NOW()
	)
	ON CONFLICT (tenant_id, entity_id, subgroup, tariff_mode)
	DO UPDATE SET
		tusd = EXCLUDED.tusd,
		te = EXCLUDED.te,
		tusd_peak = EXCLUDED.tusd_peak,
		te_peak = EXCLUDED.te_peak,
		tusd_off_peak = EXCLUDED.tusd_off_peak,
		te_off_peak = EXCLUDED.te_off_peak,
		demand_charge = EXCLUDED.demand_charge,
		demand_charge_generation = EXCLUDED.demand_charge_generation,
		fio_b = EXCLUDED.fio_b,
		fio_b_peak = EXCLUDED.fio_b_peak,
		fio_b_off_peak = EXCLUDED.fio_b_off_peak,
		origin = EXCLUDED.origin,
		version_id = EXCLUDED.version_id,
		validity_start = EXCLUDED.validity_start,
		updated_at = NOW()`

// UpsertTariffs writes one chunk as a single batch.
func (s *PostgresStore) UpsertTariffs(ctx context.Context, payloads []domain.SubgroupTariffPayload) error {
	if len(payloads) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range payloads {
		batch.Queue(upsertTariffSQL,
			p.TenantID, p.EntityID, p.Subgroup, p.TariffMode,
			p.TUSD, p.TE, p.TUSDPeak, p.TEPeak, p.TUSDOffPeak, p.TEOffPeak,
			p.DemandCharge, p.DemandChargeGeneration,
			p.FioB, p.FioBPeak, p.FioBOffPeak,
			p.Origin, p.VersionID, p.ValidityStart)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range payloads {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("tariff upsert failed: %w", err)
		}
	}
	return nil
}

// AppendAuditLog writes the aggregate audit entry. Callers treat failures as
// best-effort.
func (s *PostgresStore) AppendAuditLog(ctx context.Context, entry domain.AuditEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_audit_log (id, version_id, tenant_id, source_file, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.VersionID, entry.TenantID, entry.SourceFile, entry.Summary, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

// LatestVersions returns recent import provenance rows, newest first.
func (s *PostgresStore) LatestVersions(ctx context.Context, limit int) ([]domain.ImportVersion, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, status, total_records, total_entities, source_file_name, created_at
		FROM import_versions
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read import versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.ImportVersion
	for rows.Next() {
		var v domain.ImportVersion
		if err := rows.Scan(&v.ID, &v.Status, &v.TotalRecords, &v.TotalEntities,
			&v.SourceFileName, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("import version read failed: %w", err)
	}

	return versions, nil
}
