// =============================================================================
// Tariff Import Pipeline - Commit Engine
// =============================================================================
//
// Persists one import run in three steps:
//
//   PRE:   create exactly one ImportVersion row (status draft) carrying the
//          counts and file name. This happens before any batch work so the
//          provenance of a partially failed import is kept, never rolled back.
//
//   BATCH: partition payloads into fixed-size chunks and upsert each chunk
//          idempotently on (tenant, entity, subgroup, tariff mode). A chunk
//          failure is collected and the remaining chunks continue. A short
//          pause between chunks yields control for progress reporting; it is
//          not a concurrency primitive. Each store call runs under its own
//          timeout, and cancelling the context stops the run at the next
//          chunk boundary.
//
//   POST:  finalize the version status (done/partial) and write one
//          aggregate audit-log entry. The audit write is best-effort; its
//          failure is logged and never surfaced.
//
// Retry is an injectable policy. This pipeline defaults to none; the sibling
// meteorological importer runs the same engine shape with retries enabled.
//
// The engine assumes one import runs at a time. Two concurrent imports can
// race on identical upsert keys; last-write-wins at the store is the only
// protection.
//
// =============================================================================

package commitengine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/solardesk/tariff-import/internal/domain"
	"github.com/solardesk/tariff-import/internal/store"
)

// DefaultChunkSize is the reference upsert chunk size.
const DefaultChunkSize = 50

// RetryPolicy controls per-chunk retry behavior. The zero value disables
// retries.
type RetryPolicy struct {
	// Attempts is the number of retries after the first failure.
	Attempts int

	// Delay is the fixed wait between attempts.
	Delay time.Duration
}

// Options tune one engine instance.
type Options struct {
	// ChunkSize is the number of payloads per upsert chunk.
	ChunkSize int

	// ChunkPause is the inter-chunk pause that yields control to the
	// caller's progress loop.
	ChunkPause time.Duration

	// StoreTimeout bounds each outbound store call.
	StoreTimeout time.Duration

	// Retry is applied per chunk.
	Retry RetryPolicy

	// Progress, when set, is called after every chunk with the number of
	// chunks finished and the total.
	Progress func(done, total int)
}

// Engine commits aggregated payloads to the store.
type Engine struct {
	store store.Store
	log   *logrus.Logger
	opts  Options
}

// New creates a commit engine. Zero option fields fall back to defaults.
func New(st store.Store, log *logrus.Logger, opts Options) *Engine {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 30 * time.Second
	}
	return &Engine{store: st, log: log, opts: opts}
}

// Request carries the inputs of one commit.
type Request struct {
	TenantID       string
	SourceFileName string
	Payloads       []domain.SubgroupTariffPayload

	// Skipped is the count of parsed records whose group never resolved to
	// a matched entity, carried through from aggregation.
	Skipped int

	// TotalRecords is the parsed record count, for version provenance.
	TotalRecords int
}

// Commit runs the pre/batch/post steps and returns the terminal result.
// The returned error is non-nil only when the version row itself could not
// be created; chunk failures live in the result.
func (e *Engine) Commit(ctx context.Context, req Request) (*domain.CommitResult, *domain.ImportVersion, error) {
	result := &domain.CommitResult{
		Matched:       len(req.Payloads),
		Skipped:       req.Skipped,
		FamilyTallies: make(map[domain.VoltageFamily]int),
	}

	// PRE: version row first, always.
	version := domain.ImportVersion{
		ID:             uuid.New().String(),
		Status:         domain.VersionDraft,
		TotalRecords:   req.TotalRecords,
		TotalEntities:  countEntities(req.Payloads),
		SourceFileName: req.SourceFileName,
		CreatedAt:      time.Now().UTC(),
	}
	if err := e.withTimeout(ctx, func(c context.Context) error {
		return e.store.CreateImportVersion(c, version)
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to create import version: %w", err)
	}

	for i := range req.Payloads {
		req.Payloads[i].VersionID = version.ID
	}

	// BATCH: chunked idempotent upserts, best-effort across chunks.
	chunks := chunk(req.Payloads, e.opts.ChunkSize)
	for i, payloads := range chunks {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors,
				&domain.ChunkError{ChunkIndex: i, Payloads: len(payloads), Err: err})
			break
		}

		if err := e.upsertChunk(ctx, payloads); err != nil {
			e.log.WithError(err).WithField("chunk", i).Warn("tariff chunk failed")
			result.Errors = append(result.Errors,
				&domain.ChunkError{ChunkIndex: i, Payloads: len(payloads), Err: err})
		} else {
			result.Updated += len(payloads)
			for _, p := range payloads {
				result.FamilyTallies[p.Family]++
			}
		}

		if e.opts.Progress != nil {
			e.opts.Progress(i+1, len(chunks))
		}
		if e.opts.ChunkPause > 0 && i < len(chunks)-1 {
			time.Sleep(e.opts.ChunkPause)
		}
	}

	// POST: finalize status, then the fire-and-forget audit entry.
	version.Status = domain.VersionDone
	if len(result.Errors) > 0 {
		version.Status = domain.VersionPartial
	}
	if err := e.withTimeout(ctx, func(c context.Context) error {
		return e.store.UpdateImportVersionStatus(c, version.ID, version.Status)
	}); err != nil {
		e.log.WithError(err).Warn("failed to finalize import version status")
	}

	e.writeAudit(ctx, req, version, result)

	return result, &version, nil
}

// upsertChunk performs one chunk upsert under the retry policy.
func (e *Engine) upsertChunk(ctx context.Context, payloads []domain.SubgroupTariffPayload) error {
	var err error
	for attempt := 0; attempt <= e.opts.Retry.Attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(e.opts.Retry.Delay)
		}
		err = e.withTimeout(ctx, func(c context.Context) error {
			return e.store.UpsertTariffs(c, payloads)
		})
		if err == nil {
			return nil
		}
	}
	return err
}

// writeAudit logs the aggregate audit entry; failures are swallowed.
func (e *Engine) writeAudit(ctx context.Context, req Request, version domain.ImportVersion, result *domain.CommitResult) {
	entry := domain.AuditEntry{
		ID:         uuid.New().String(),
		VersionID:  version.ID,
		TenantID:   req.TenantID,
		SourceFile: req.SourceFileName,
		Summary: fmt.Sprintf("matched=%d updated=%d skipped=%d errors=%d familyA=%d familyB=%d",
			result.Matched, result.Updated, result.Skipped, len(result.Errors),
			result.FamilyTallies[domain.FamilyHighVoltage],
			result.FamilyTallies[domain.FamilyLowVoltage]),
		CreatedAt: time.Now().UTC(),
	}

	if err := e.withTimeout(ctx, func(c context.Context) error {
		return e.store.AppendAuditLog(c, entry)
	}); err != nil {
		e.log.WithError(err).Warn("audit log write failed")
	}
}

// withTimeout bounds a single outbound store call.
func (e *Engine) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()
	return fn(callCtx)
}

// chunk partitions payloads into fixed-size slices, preserving order.
// Grouping precedes chunking, so chunks carry disjoint key sets and
// cross-chunk ordering has no correctness impact.
func chunk(payloads []domain.SubgroupTariffPayload, size int) [][]domain.SubgroupTariffPayload {
	var out [][]domain.SubgroupTariffPayload
	for start := 0; start < len(payloads); start += size {
		end := start + size
		if end > len(payloads) {
			end = len(payloads)
		}
		out = append(out, payloads[start:end])
	}
	return out
}

// countEntities counts distinct entities across the payload set.
func countEntities(payloads []domain.SubgroupTariffPayload) int {
	seen := make(map[string]bool)
	for _, p := range payloads {
		seen[p.EntityID] = true
	}
	return len(seen)
}
