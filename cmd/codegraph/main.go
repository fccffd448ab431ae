// Package main implements the codegraph CLI: a thin collaborator surface
// over the same graph/search/note/neural stack the JSON-RPC and HTTP
// shells expose, for scripting and ad hoc inspection from a terminal.
//
// Command implementations are split across cmd_*.go files, one per
// spec.md §6 CLI verb (plan, task, decision, sync, context), grounded on
// the teacher's cmd/nerd/main.go root-command + flag registration layout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/antigravity-dev/codegraph/internal/logging"
)

var (
	workspace string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "codegraph",
	Short: "codegraph - multi-language code intelligence and execution planning",
	Long: `codegraph parses a workspace into a property graph, keeps a
full-text/vector search index and a knowledge-note lifecycle in sync
with it, and exposes plan/task/decision bookkeeping over the result.

Run "codegraph sync" first to populate the graph for a workspace, then
use the plan/task/decision/context subcommands against it.`,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(decisionCmd)
	rootCmd.AddCommand(contextCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
