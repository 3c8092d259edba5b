// =============================================================================
// Tariff Import Pipeline - Main Entry Point
// =============================================================================
//
// Entry point for the tariff import CLI. It initializes the Cobra CLI
// framework and delegates command execution to the cmd package.
//
// USAGE:
//   tariff-import import --file <export>   - Run the full import pipeline
//   tariff-import history                  - Show recent import versions
//   tariff-import version                  - Display the application version
//
// ARCHITECTURE:
//   cmd/       : CLI command definitions (Cobra)
//   internal/  : Core business logic (not for external import)
//   pkg/       : Shared utilities
//
// =============================================================================

package main

import (
	"github.com/solardesk/tariff-import/cmd"
)

// main is the entry point of the application.
// It calls the Execute function from the cmd package, which initializes and
// runs the Cobra CLI.
func main() {
	cmd.Execute()
}
