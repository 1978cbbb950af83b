package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"apiguard/internal/history"
)

var (
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history <target>",
	Short: "Show recent check and update runs for a target",
	Args:  cobra.ExactArgs(1),
	Run:   runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")
	historyCmd.Flags().StringVar(&historyFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()

	store, err := history.Open(repoRoot, newLogger(nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening history: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	runs, err := store.Recent(args[0], historyLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(runs, OutputFormat(historyFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
