package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/profile-engine/internal/observability"
)

var resumeCommand = &cobra.Command{
	Use:   "resume <workflow-id>",
	Short: "Resume a checkpointed workflow",
	Long: `Continues a workflow from the first stage after its last completed one.
The previously failed stage, if any, is retried.`,
	Args: cobra.ExactArgs(1),
	RunE: runResumeCmd,
}

var (
	resumeConfigPath  string
	resumeDatabaseURL string
	resumeSQLitePath  string
	resumeAPIKey      string
	resumeVerbose     bool
)

func init() {
	resumeCommand.Flags().StringVar(&resumeConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	resumeCommand.Flags().StringVar(&resumeDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	resumeCommand.Flags().StringVar(&resumeSQLitePath, "sqlite", "", "Local SQLite checkpoint file (alternative to --db-url)")
	resumeCommand.Flags().StringVar(&resumeAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	resumeCommand.Flags().BoolVarP(&resumeVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(resumeCommand)
}

func runResumeCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	workflowID := args[0]

	cfg, err := resolveConfig(resumeConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = resumeDatabaseURL
	}
	if cmd.Flags().Changed("sqlite") {
		cfg.SQLitePath = resumeSQLitePath
		cfg.DatabaseURL = ""
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = resumeAPIKey
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = resumeVerbose
	}

	eng, err := buildEngine(ctx, cfg, cfg.Verbose)
	if err != nil {
		return err
	}
	defer eng.close()

	cp, resumeErr := eng.orch.Resume(ctx, workflowID)

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintCheckpoint(cp)
	if cfg.Verbose && cp != nil {
		printer.PrintProfile(cp.Profile)
	}

	if resumeErr != nil {
		return fmt.Errorf("workflow stopped: %w", resumeErr)
	}
	fmt.Printf("Workflow %s completed.\n", workflowID)
	return nil
}
