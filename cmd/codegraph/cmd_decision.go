package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/antigravity-dev/codegraph/internal/model"
	"github.com/antigravity-dev/codegraph/internal/searchstore"
)

var decisionRationale string

var decisionCmd = &cobra.Command{
	Use:   "decision",
	Short: "Record and search design decisions",
}

var decisionAddCmd = &cobra.Command{
	Use:   "add <plan-id> <project-id> <summary>",
	Short: "Record a decision made while executing a plan",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootApp(workspace)
		if err != nil {
			return err
		}
		d := model.Decision{ID: uuid.NewString(), PlanID: args[0], Summary: args[2], Rationale: decisionRationale}
		if err := app.Graph.PutDecision(d); err != nil {
			return fmt.Errorf("add decision: %w", err)
		}
		if err := app.Search.IndexDocument(searchstore.BuildDecisionDocument(args[1], d)); err != nil {
			fmt.Printf("warning: decision recorded but not indexed for search: %v\n", err)
		}
		fmt.Println(d.ID)
		return nil
	},
}

var decisionSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over recorded decisions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootApp(workspace)
		if err != nil {
			return err
		}
		results, err := app.Search.Search(searchstore.KindDecision, args[0], searchstore.Filters{}, 20)
		if err != nil {
			return fmt.Errorf("search decisions: %w", err)
		}
		if len(results) == 0 {
			fmt.Println("no matching decisions")
			return nil
		}
		for _, r := range results {
			fmt.Printf("%.3f\t%s\n", r.Score, r.Document.Content)
		}
		return nil
	},
}

func init() {
	decisionAddCmd.Flags().StringVar(&decisionRationale, "rationale", "", "Why this decision was made")
	decisionCmd.AddCommand(decisionAddCmd, decisionSearchCmd)
}
