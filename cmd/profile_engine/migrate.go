package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/profile-engine/internal/observability"
	"github.com/jonathan/profile-engine/internal/profile"
)

var migrateCommand = &cobra.Command{
	Use:   "migrate <profile.json>",
	Short: "Migrate a profile document to the current schema version",
	Long: `Rewrites a stored profile document to the current schema: historical field
names are renamed, missing fields filled with defaults, unknown fields dropped.
Running migrate on a current document is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrateCmd,
}

var (
	migrateOutPath string
	migrateVerbose bool
)

func init() {
	migrateCommand.Flags().StringVarP(&migrateOutPath, "out", "o", "", "Output path (defaults to rewriting in place)")
	migrateCommand.Flags().BoolVarP(&migrateVerbose, "verbose", "v", false, "Print the migrated profile summary")

	rootCmd.AddCommand(migrateCommand)
}

func runMigrateCmd(_ *cobra.Command, args []string) error {
	inPath := args[0]
	outPath := migrateOutPath
	if outPath == "" {
		outPath = inPath
	}

	raw, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("failed to read profile file: %w", err)
	}

	migrated, err := profile.Migrate(raw)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if err := writeProfileFile(outPath, migrated); err != nil {
		return err
	}

	if migrateVerbose {
		observability.NewPrinter(os.Stdout).PrintProfile(migrated)
	}
	fmt.Printf("Migrated %s to schema version %d (%s)\n", inPath, migrated.Version, outPath)
	return nil
}
