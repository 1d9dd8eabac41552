package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/profile-engine/internal/logger"
	"github.com/jonathan/profile-engine/internal/merge"
	"github.com/jonathan/profile-engine/internal/observability"
)

var mergeCommand = &cobra.Command{
	Use:   "merge",
	Short: "Merge a batch of fragments into a profile document",
	Long: `Applies a JSON array of fragments to a profile document, deduplicating
semantically against existing entries, and writes the merged profile back.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runMergeCmd,
}

var (
	mergeConfigPath    string
	mergeProfilePath   string
	mergeFragmentsPath string
	mergeOutPath       string
	mergeAPIKey        string
	mergeVerbose       bool
)

func init() {
	mergeCommand.Flags().StringVar(&mergeConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	mergeCommand.Flags().StringVarP(&mergeProfilePath, "profile", "p", "", "Path to profile JSON (omit to start from an empty profile)")
	mergeCommand.Flags().StringVarP(&mergeFragmentsPath, "fragments", "f", "", "Path to fragments JSON array (required)")
	mergeCommand.Flags().StringVarP(&mergeOutPath, "out", "o", "", "Output path (defaults to the profile path)")
	mergeCommand.Flags().StringVar(&mergeAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	mergeCommand.Flags().BoolVarP(&mergeVerbose, "verbose", "v", false, "Print detailed debug information")

	_ = mergeCommand.MarkFlagRequired("fragments")

	rootCmd.AddCommand(mergeCommand)
}

func runMergeCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(mergeConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = mergeAPIKey
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = mergeVerbose
	}

	outPath := mergeOutPath
	if outPath == "" {
		outPath = mergeProfilePath
	}
	if outPath == "" {
		return fmt.Errorf("either --profile or --out must be provided")
	}

	current, err := readProfileFile(mergeProfilePath)
	if err != nil {
		return err
	}
	fragments, err := readFragmentsFile(mergeFragmentsPath)
	if err != nil {
		return err
	}
	if len(fragments) == 0 {
		return fmt.Errorf("fragments file contains no fragments")
	}

	log := logger.New(cfg.Verbose)
	embedder, err := newEmbedder(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer embedder.Close()

	manager := merge.NewManager(embedder, merge.Thresholds{
		Experience: cfg.ExperienceThreshold,
		Skill:      cfg.SkillThreshold,
	}, log)

	merged, warnings := manager.Merge(ctx, current, fragments)

	printer := observability.NewPrinter(os.Stdout)
	if cfg.Verbose {
		printer.PrintProfile(merged)
	}
	printer.PrintMergeWarnings(warnings)

	if err := writeProfileFile(outPath, merged); err != nil {
		return err
	}
	fmt.Printf("Merged %d fragment(s) into %s (%d skipped)\n", len(fragments)-len(warnings), outPath, len(warnings))
	return nil
}
