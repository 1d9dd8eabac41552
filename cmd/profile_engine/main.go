// Package main provides the entry point for the profile engine CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "profile_engine",
	Short: "AI-assisted profile authoring engine",
	Long:  "Profile Engine accumulates CV data from conversational fragments into a canonical profile, deduplicating semantically, and drives the checkpointed authoring workflow from extraction to rendered output.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
