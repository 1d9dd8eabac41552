package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/profile-engine/internal/observability"
	"github.com/jonathan/profile-engine/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the authoring workflow end-to-end",
	Long: `Runs the full checkpointed workflow: extract -> merge -> enhance -> order_sections -> select_template -> render -> optimize -> persist.

State is checkpointed after every stage; a failed run can be continued with 'resume'.
Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runWorkflowCmd,
}

var (
	runConfigPath    string
	runProfilePath   string
	runFragmentsPath string
	runInputPath     string
	runWorkflowID    string
	runTemplate      string
	runOutputDir     string
	runAPIKey        string
	runDatabaseURL   string
	runSQLitePath    string
	runVerbose       bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	runCommand.Flags().StringVarP(&runProfilePath, "profile", "p", "", "Path to initial profile JSON (omit to start empty)")
	runCommand.Flags().StringVarP(&runFragmentsPath, "fragments", "f", "", "Path to fragments JSON array for the merge stage")
	runCommand.Flags().StringVarP(&runInputPath, "input", "i", "", "Path to raw source text for the extract stage")
	runCommand.Flags().StringVar(&runWorkflowID, "workflow-id", "", "Workflow ID (generated when omitted)")
	runCommand.Flags().StringVarP(&runTemplate, "template", "t", "", "Template id for select_template")
	runCommand.Flags().StringVar(&runOutputDir, "output-dir", "", "Directory for rendered documents")
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runCommand.Flags().StringVar(&runSQLitePath, "sqlite", "", "Local SQLite checkpoint file (alternative to --db-url)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(runCommand)
}

func runWorkflowCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(runConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("template") {
		cfg.Template = runTemplate
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = runOutputDir
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("sqlite") {
		cfg.SQLitePath = runSQLitePath
		cfg.DatabaseURL = ""
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	initial, err := readProfileFile(runProfilePath)
	if err != nil {
		return err
	}
	fragments, err := readFragmentsFile(runFragmentsPath)
	if err != nil {
		return err
	}

	rawInput := ""
	if runInputPath != "" {
		raw, err := os.ReadFile(runInputPath)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		rawInput = string(raw)
	}

	eng, err := buildEngine(ctx, cfg, cfg.Verbose)
	if err != nil {
		return err
	}
	defer eng.close()

	state := &pipeline.State{
		WorkflowID: runWorkflowID,
		Profile:    initial,
		Fragments:  fragments,
		RawInput:   rawInput,
	}

	cp, runErr := eng.orch.Run(ctx, state)

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintCheckpoint(cp)
	if cfg.Verbose && cp != nil {
		printer.PrintProfile(cp.Profile)
	}

	if runErr != nil {
		return fmt.Errorf("workflow stopped: %w (resume with --workflow-id %s)", runErr, cp.WorkflowID)
	}
	fmt.Printf("Workflow %s completed.\n", cp.WorkflowID)
	return nil
}
