package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"apiguard/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize apiguard configuration",
	Long:  "Creates a .apiguard/ directory with default configuration in the repository root",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	repoRoot := mustGetRepoRoot()

	configPath := filepath.Join(repoRoot, config.ConfigDirName, "config.json")
	if _, err := os.Stat(configPath); err == nil {
		// Idempotent behavior: already initialized is success (CI-friendly).
		fmt.Println("apiguard already initialized.")
		fmt.Printf("Configuration at: %s\n", configPath)
		return nil
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(repoRoot); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	fmt.Println("Initialized apiguard.")
	fmt.Printf("Configuration at: %s\n", configPath)
	fmt.Println("Add targets to the config, then run 'apiguard update' to record baselines.")
	return nil
}
