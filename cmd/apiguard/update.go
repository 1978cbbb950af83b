package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	updateFormat      string
	updateBaselineDir string
)

var updateCmd = &cobra.Command{
	Use:   "update [target...]",
	Short: "Record the current API surface as the new baseline",
	Long: `Produce a fresh snapshot of each target's public API surface and store it
as the baseline for later checks, replacing any prior baseline.

Either the baseline is written completely or the command fails loudly; a
crash mid-write never leaves a corrupt baseline behind.

Examples:
  apiguard update            # All configured targets
  apiguard update Core       # One target`,
	Run: runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateFormat, "format", "human", "Output format (json, yaml, human)")
	updateCmd.Flags().StringVar(&updateBaselineDir, "baseline-dir", "", "Baseline directory (default: from config)")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	start := time.Now()
	repoRoot := mustGetRepoRoot()
	eng, cfg, logger := mustGetEngine(repoRoot)

	if updateBaselineDir != "" {
		cfg.BaselineDir = updateBaselineDir
	}

	result := eng.Update(newContext(), args)

	output, err := FormatResponse(result, OutputFormat(updateFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	logger.Debug("Update completed", map[string]interface{}{
		"targets":  len(result.Results),
		"duration": time.Since(start).Milliseconds(),
	})

	if result.Failed {
		os.Exit(1)
	}
}
