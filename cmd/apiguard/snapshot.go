package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"apiguard/internal/canonjson"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <target>",
	Short: "Print a target's current snapshot without persisting it",
	Long: `Produce a fresh snapshot of the target's public API surface and print its
canonical encoding to stdout. Nothing is written to the baseline store, so
this is safe for inspecting what an update would record.`,
	Args: cobra.ExactArgs(1),
	Run:  runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	eng, _, _ := mustGetEngine(repoRoot)

	snap, _, err := eng.ProduceSnapshot(newContext(), args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error producing snapshot: %v\n", err)
		os.Exit(1)
	}

	data, err := canonjson.Encode(snap.ToValue())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding snapshot: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
