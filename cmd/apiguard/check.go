package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"apiguard/internal/engine"
	"apiguard/internal/errors"
	"apiguard/internal/policy"
)

var (
	checkMode            string
	checkFailOnAdditions bool
	checkFormat          string
	checkBaselineDir     string
)

var checkCmd = &cobra.Command{
	Use:   "check [target...]",
	Short: "Check targets against their stored baselines",
	Long: `Produce a fresh snapshot of each target's public API surface and compare
it against the stored baseline.

A removal or signature change always fails. Additions fail only in strict
mode or with --fail-on-additions. Every target gets a report, passing or not.

Examples:
  apiguard check                     # All configured targets
  apiguard check Core                # One target
  apiguard check --mode=strict       # Frozen surface: any diff fails
  apiguard check --fail-on-additions
  apiguard check --format=json`,
	Run: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkMode, "mode", "", "Policy mode: semver or strict (default: from config)")
	checkCmd.Flags().BoolVar(&checkFailOnAdditions, "fail-on-additions", false, "Fail on added symbols even in semver mode")
	checkCmd.Flags().StringVar(&checkFormat, "format", "human", "Output format (json, yaml, human)")
	checkCmd.Flags().StringVar(&checkBaselineDir, "baseline-dir", "", "Baseline directory (default: from config)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	start := time.Now()
	repoRoot := mustGetRepoRoot()
	eng, cfg, logger := mustGetEngine(repoRoot)

	if checkBaselineDir != "" {
		cfg.BaselineDir = checkBaselineDir
	}

	modeStr := checkMode
	if modeStr == "" {
		modeStr = cfg.Policy.Mode
	}
	mode, err := policy.ParseMode(modeStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	failOnAdditions := checkFailOnAdditions || cfg.Policy.FailOnAdditions

	result := eng.Check(newContext(), args, mode, failOnAdditions)

	output, err := FormatResponse(result, OutputFormat(checkFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	logger.Debug("Check completed", map[string]interface{}{
		"targets":  len(result.Results),
		"duration": time.Since(start).Milliseconds(),
	})

	if result.Failed {
		fmt.Fprintf(os.Stderr, "Error: %v\n", checkFailure(mode, result))
		os.Exit(1)
	}
}

// checkFailure wraps a failed run in the error code matching its policy mode.
func checkFailure(mode policy.Mode, result *engine.RunResult) *errors.GuardError {
	failed := 0
	for _, r := range result.Results {
		if r.Err != nil || (r.Decision != nil && !r.Decision.Passed) {
			failed++
		}
	}
	code := errors.BreakingChange
	if mode == policy.ModeStrict {
		code = errors.StrictViolation
	}
	return errors.New(code, fmt.Sprintf("%d of %d targets failed the policy check", failed, len(result.Results)), nil)
}
