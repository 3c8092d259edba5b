// =============================================================================
// Tariff Import Pipeline - History Command
// =============================================================================
//
// Defines the 'history' command, which lists recent import versions from the
// store: one provenance row per import run, newest first.
//
// COMMAND USAGE:
//   tariff-import history
//   tariff-import history --limit 50
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solardesk/tariff-import/internal/store"
)

// historyLimit caps the number of versions listed.
var historyLimit int

// historyCmd represents the 'history' command.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent import versions",
	Long: `History lists the provenance rows of recent import runs: the version id,
final status, record and entity counts, and the source file name.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of versions to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	st, err := store.NewPostgres(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	defer st.Close()

	versions, err := st.LatestVersions(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list import versions: %w", err)
	}

	if len(versions) == 0 {
		fmt.Println("No imports recorded yet.")
		return nil
	}

	fmt.Printf("%-38s %-10s %8s %8s  %s\n", "VERSION", "STATUS", "RECORDS", "ENTITIES", "SOURCE FILE")
	for _, v := range versions {
		fmt.Printf("%-38s %-10s %8d %8d  %s\n",
			v.ID, v.Status, v.TotalRecords, v.TotalEntities, v.SourceFileName)
	}
	return nil
}
