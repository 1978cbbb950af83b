package main

import (
	"os"

	"github.com/spf13/cobra"

	"apiguard/internal/version"
)

var (
	// repoRootFlag is the CLI --repo-root flag value
	repoRootFlag string
	// logLevelFlag is the CLI --log-level flag value
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "apiguard",
	Short: "apiguard - API compatibility guard",
	Long: `apiguard tracks the externally visible API surface of your targets.
It snapshots the public symbols the toolchain exports, stores them as a
versioned baseline, and fails the build when a later snapshot removes or
changes a symbol (or, in strict mode, even adds one).`,
	Version: version.Info(),
}

func init() {
	rootCmd.SetVersionTemplate("apiguard version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoRootFlag, "repo-root", "",
		"Repository root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, or error (default: from config)")
}

// resolveRepoRoot determines the repository root from the CLI flag, env var,
// or current directory. Precedence: flag > APIGUARD_ROOT > cwd.
func resolveRepoRoot() (string, error) {
	if repoRootFlag != "" {
		return repoRootFlag, nil
	}
	if env := os.Getenv("APIGUARD_ROOT"); env != "" {
		return env, nil
	}
	return os.Getwd()
}
