// =============================================================================
// Tariff Import Pipeline - Orchestration
// =============================================================================
//
// Wires the stages end to end for one import run:
//
//   Load -> Detect -> Resolve columns -> Validate rows  (Process)
//        -> [gate: confirm invalid rows]                (Confirm)
//        -> Parse records -> Pre-match agents
//        -> Normalize units -> Aggregate payloads       (Prepare)
//        -> [gate: proceed past unmatched preview]
//        -> Commit -> Reports                           (Commit)
//
// One Pipeline value serves exactly one import; the registry snapshot,
// column map and resolver caches live for that run only. Lookup tables that
// were process-wide singletons in earlier incarnations are all built here,
// per run, so tests can construct a pipeline around fakes without touching
// shared state.
//
// Execution is single-threaded and cooperative. The pipeline does not guard
// against a second concurrent import; the store's last-write-wins upsert is
// the only protection.
//
// =============================================================================

package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/solardesk/tariff-import/internal/aggregate"
	"github.com/solardesk/tariff-import/internal/commitengine"
	"github.com/solardesk/tariff-import/internal/domain"
	"github.com/solardesk/tariff-import/internal/records"
	"github.com/solardesk/tariff-import/internal/reports"
	"github.com/solardesk/tariff-import/internal/resolver"
	"github.com/solardesk/tariff-import/internal/schema"
	"github.com/solardesk/tariff-import/internal/store"
	"github.com/solardesk/tariff-import/internal/validate"
	"github.com/solardesk/tariff-import/pkg/notify"
)

// Pipeline drives one import run through the state machine.
type Pipeline struct {
	log    *logrus.Logger
	store  store.Store
	sink   notify.Sink
	engine *commitengine.Engine

	tenantID string
	state    State

	// Per-run artifacts, populated stage by stage.
	table      *domain.TableData
	schema     domain.SourceSchema
	columns    domain.ColumnMap
	validation *domain.ValidationReport
	parsed     []domain.ParsedTariffRecord
	matches    map[string]domain.MatchResult
	payloads   []domain.SubgroupTariffPayload
	skipped    int
	result     *domain.CommitResult
	version    *domain.ImportVersion
}

// New builds a pipeline for one import run.
func New(st store.Store, engine *commitengine.Engine, sink notify.Sink, log *logrus.Logger, tenantID string) *Pipeline {
	return &Pipeline{
		log:      log,
		store:    st,
		sink:     sink,
		engine:   engine,
		tenantID: tenantID,
		state:    StateUpload,
	}
}

// State returns the current machine state.
func (p *Pipeline) State() State { return p.state }

// Validation returns the row validation report (nil before Process).
func (p *Pipeline) Validation() *domain.ValidationReport { return p.validation }

// Matches returns the pre-match results (nil before Prepare).
func (p *Pipeline) Matches() map[string]domain.MatchResult { return p.matches }

// Unmatched returns the advisory set of agent strings with no match.
func (p *Pipeline) Unmatched() []string {
	var out []string
	for agent, m := range p.matches {
		if m.Entity == nil {
			out = append(out, agent)
		}
	}
	return out
}

// =============================================================================
// STAGE 1: PROCESS (detect, resolve columns, validate)
// =============================================================================

// Process ingests the loaded table: schema detection, one-time column
// resolution, footer filtering and row validation. The pipeline lands in
// Validated, or in Blocked when the required-column gate fails.
func (p *Pipeline) Process(table *domain.TableData) error {
	if err := p.advance(StateProcessing); err != nil {
		return err
	}

	p.table = table
	p.schema = schema.Detect(table.Headers)
	p.columns = schema.Resolve(table.Headers)

	p.log.WithFields(logrus.Fields{
		"file":    table.SourceFile,
		"schema":  p.schema.String(),
		"rows":    len(table.Rows),
		"columns": len(p.columns),
	}).Info("file processed")

	p.validation = validate.New(p.schema, p.columns).Validate(table.Rows)

	if p.validation.Blocked() {
		p.sink.Error((&domain.MissingColumnsError{
			Schema:  p.schema,
			Missing: p.validation.MissingRequiredColumns,
		}).Error())
		return p.advance(StateBlocked)
	}

	p.sink.Success(fmt.Sprintf("validated %d rows: %d valid, %d invalid, %d with warnings",
		p.validation.TotalRows, p.validation.ValidRows,
		p.validation.InvalidRows, p.validation.WarningRows))

	return p.advance(StateValidated)
}

// =============================================================================
// STAGE 2: PREPARE (parse, pre-match, aggregate)
// =============================================================================

// Prepare crosses the first user gate and builds the commit preview.
// Confirmation is required only when invalid rows exist; a report with
// nothing but warnings passes unprompted. confirmInvalid reflects the user's
// explicit choice.
func (p *Pipeline) Prepare(ctx context.Context, confirmInvalid bool) error {
	if p.state != StateValidated {
		return fmt.Errorf("prepare called in state %s", p.state)
	}
	if p.validation.InvalidRows > 0 && !confirmInvalid {
		return fmt.Errorf("%d invalid row(s) require explicit confirmation to proceed", p.validation.InvalidRows)
	}
	if err := p.advance(StatePreview); err != nil {
		return err
	}

	p.parsed = records.Parse(p.schema, p.columns, p.table.Rows)

	entities, err := p.store.ListProviders(ctx)
	if err != nil {
		_ = p.advance(StateFailed)
		return fmt.Errorf("failed to load provider registry: %w", err)
	}

	res := resolver.New(entities)
	p.matches = res.ResolveAll(p.parsed)

	p.payloads, p.skipped = aggregate.Aggregate(aggregate.Input{
		Schema:   p.schema,
		TenantID: p.tenantID,
		Records:  p.parsed,
		Matches:  p.matches,
	})

	if unmatched := res.Unmatched(); len(unmatched) > 0 {
		p.sink.Progress(fmt.Sprintf("%d agent string(s) did not match any registered provider and will be skipped", len(unmatched)))
	}
	p.sink.Success(fmt.Sprintf("prepared %d tariff payload(s) from %d record(s)", len(p.payloads), len(p.parsed)))

	return nil
}

// =============================================================================
// STAGE 3: COMMIT
// =============================================================================

// Commit crosses the second gate and persists the payloads. There is no
// cancellation mid-chunk; cancelling ctx stops the engine at the next chunk
// boundary and the partial version provenance is kept.
func (p *Pipeline) Commit(ctx context.Context) (*domain.CommitResult, error) {
	if err := p.advance(StateImporting); err != nil {
		return nil, err
	}

	result, version, err := p.engine.Commit(ctx, commitengine.Request{
		TenantID:       p.tenantID,
		SourceFileName: p.table.SourceFile,
		Payloads:       p.payloads,
		Skipped:        p.skipped,
		TotalRecords:   len(p.parsed),
	})
	if err != nil {
		_ = p.advance(StateFailed)
		p.sink.Error(fmt.Sprintf("import failed: %v", err))
		return nil, err
	}

	p.result = result
	p.version = version

	if len(result.Errors) > 0 {
		p.sink.Error(fmt.Sprintf("import finished with %d failed chunk(s): %d payload(s) written, %d record(s) skipped",
			len(result.Errors), result.Updated, result.Skipped))
	} else {
		p.sink.Success(fmt.Sprintf("import complete: %d payload(s) written, %d record(s) skipped",
			result.Updated, result.Skipped))
	}

	return result, p.advance(StateDone)
}

// =============================================================================
// REPORTS
// =============================================================================

// Reports derives the four read-only reports from the run's artifacts. Valid
// from the Preview state onward.
func (p *Pipeline) Reports() *reports.ImportReports {
	if p.validation == nil {
		return nil
	}
	return reports.Generate(reports.Input{
		SourceFile: p.table.SourceFile,
		Schema:     p.schema,
		Columns:    p.columns,
		Validation: p.validation,
		Records:    p.parsed,
		Matches:    p.matches,
		Payloads:   p.payloads,
	})
}

// Version returns the provenance row of a committed run (nil before Done).
func (p *Pipeline) Version() *domain.ImportVersion { return p.version }
