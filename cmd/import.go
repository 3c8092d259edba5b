// =============================================================================
// Tariff Import Pipeline - Import Command
// =============================================================================
//
// Defines the 'import' command, the main workflow of the application. It
// drives one export file through the full pipeline:
//
//   load file -> validate -> [confirm invalid rows] -> prepare preview
//             -> [confirm import] -> commit -> reports
//
// COMMAND USAGE:
//   tariff-import import --file tarifas.csv
//   tariff-import import --file tarifas.xlsx --auto-confirm
//   tariff-import import --file tarifas.csv --dry-run
//
// GATES:
//   Two interactive confirmations guard the workflow. The first appears only
//   when invalid rows exist; the second always precedes the commit.
//   --auto-confirm answers yes to both (for scripted runs), --dry-run stops
//   before the commit and prints the preview reports.
//
// =============================================================================

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solardesk/tariff-import/internal/commitengine"
	"github.com/solardesk/tariff-import/internal/fileloader"
	"github.com/solardesk/tariff-import/internal/pipeline"
	"github.com/solardesk/tariff-import/internal/reports"
	"github.com/solardesk/tariff-import/internal/store"
	"github.com/solardesk/tariff-import/pkg/notify"
	"github.com/solardesk/tariff-import/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	// importFile is the path of the export file to ingest.
	importFile string

	// autoConfirm answers yes to both confirmation gates.
	autoConfirm bool

	// dryRun stops before the commit and prints the preview reports.
	dryRun bool

	// reportsDir is where the per-run report files are written.
	// Empty disables report files; reports still print to the terminal.
	reportsDir string
)

// =============================================================================
// IMPORT COMMAND DEFINITION
// =============================================================================

// importCmd represents the 'import' command.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import one tariff export file into the dashboard store",
	Long: `Import ingests a tariff export file (CSV or XLSX), validates it, matches
the utility names against the provider registry, and commits the normalized
tariffs as a versioned batch.

The run pauses for confirmation when invalid rows are present, and again
before the commit. Use --auto-confirm for unattended runs and --dry-run to
inspect the preview reports without writing anything.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "Path to the tariff export file (required)")
	importCmd.Flags().BoolVar(&autoConfirm, "auto-confirm", false, "Answer yes to all confirmation prompts")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Stop before the commit and print the preview reports")
	importCmd.Flags().StringVar(&reportsDir, "reports-dir", "reports", "Directory for report files (empty to disable)")
	importCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(importCmd)
}

// =============================================================================
// COMMAND EXECUTION
// =============================================================================

func runImport(cmd *cobra.Command, args []string) error {
	if !utils.FileExists(importFile) {
		return fmt.Errorf("file not found: %s", importFile)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx := context.Background()

	st, err := store.NewPostgres(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	defer st.Close()

	engine := commitengine.New(st, log, commitengine.Options{
		ChunkSize:    cfg.Import.ChunkSize,
		ChunkPause:   cfg.ChunkPause(),
		StoreTimeout: cfg.StoreTimeout(),
		Retry: commitengine.RetryPolicy{
			Attempts: cfg.Import.RetryAttempts,
			Delay:    cfg.RetryDelay(),
		},
	})

	p := pipeline.New(st, engine, notify.NewLogSink(log), log, cfg.TenantID)

	// -------------------------------------------------------------------------
	// STAGE 1: LOAD AND VALIDATE
	// -------------------------------------------------------------------------

	table, err := fileloader.Load(importFile)
	if err != nil {
		return err
	}

	if err := p.Process(table); err != nil {
		return err
	}
	if p.State() == pipeline.StateBlocked {
		return fmt.Errorf("import blocked: required columns are missing")
	}

	// -------------------------------------------------------------------------
	// GATE 1: INVALID ROWS
	// -------------------------------------------------------------------------

	validation := p.Validation()
	confirmInvalid := autoConfirm
	if validation.InvalidRows > 0 && !autoConfirm {
		fmt.Printf("\n%d of %d rows failed validation and will be skipped.\n",
			validation.InvalidRows, validation.TotalRows)
		confirmInvalid = promptYesNo("Continue with the valid rows?")
		if !confirmInvalid {
			fmt.Println("Import aborted.")
			return nil
		}
	}

	// -------------------------------------------------------------------------
	// STAGE 2: PREPARE PREVIEW
	// -------------------------------------------------------------------------

	if err := p.Prepare(ctx, confirmInvalid); err != nil {
		return err
	}

	rep := p.Reports()
	fmt.Println()
	fmt.Print(reports.Render(rep))

	if dryRun {
		fmt.Println("\nDry run: nothing was written.")
		writeReportFiles(rep)
		return nil
	}

	// -------------------------------------------------------------------------
	// GATE 2: COMMIT CONFIRMATION
	// -------------------------------------------------------------------------

	if !autoConfirm {
		if !promptYesNo(fmt.Sprintf("\nCommit %d tariff payload(s)?", rep.Summary.Payloads)) {
			fmt.Println("Import aborted.")
			return nil
		}
	}

	// -------------------------------------------------------------------------
	// STAGE 3: COMMIT
	// -------------------------------------------------------------------------

	result, err := p.Commit(ctx)
	if err != nil {
		return err
	}

	if v := p.Version(); v != nil {
		fmt.Printf("\nImport version %s finished with status %q\n", v.ID, v.Status)
	}
	fmt.Printf("Written: %d, skipped: %d, failed chunks: %d\n",
		result.Updated, result.Skipped, len(result.Errors))

	writeReportFiles(rep)

	if len(result.Errors) > 0 {
		return fmt.Errorf("%d chunk(s) failed during commit", len(result.Errors))
	}
	return nil
}

// writeReportFiles persists the report sections when --reports-dir is set.
// Failures are reported but never fail the import itself.
func writeReportFiles(rep *reports.ImportReports) {
	if reportsDir == "" || rep == nil {
		return
	}
	written, err := reports.WriteFiles(rep, reportsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to write report files: %v\n", err)
	}
	for _, path := range written {
		fmt.Printf("Report written: %s\n", path)
	}
}

// promptYesNo asks a yes/no question on the terminal. Only an explicit
// "y"/"yes" counts as yes.
func promptYesNo(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
