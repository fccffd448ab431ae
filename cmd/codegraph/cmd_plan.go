package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/antigravity-dev/codegraph/internal/model"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "List, create, show, and drive execution plans",
}

var planListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List every plan for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootApp(workspace)
		if err != nil {
			return err
		}
		plans, err := app.Graph.ListPlans(args[0])
		if err != nil {
			return fmt.Errorf("list plans: %w", err)
		}
		if len(plans) == 0 {
			fmt.Println("no plans found")
			return nil
		}
		for _, p := range plans {
			fmt.Printf("%s\t%-12s\t%s\n", p.ID, p.Status, p.Name)
		}
		return nil
	},
}

var planCreateCmd = &cobra.Command{
	Use:   "create <project-id> <name>",
	Short: "Create a new plan in draft status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootApp(workspace)
		if err != nil {
			return err
		}
		p := model.Plan{ID: uuid.NewString(), ProjectID: args[0], Name: args[1], Status: model.PlanDraft}
		if err := app.Graph.PutPlan(p); err != nil {
			return fmt.Errorf("create plan: %w", err)
		}
		fmt.Println(p.ID)
		return nil
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Show a plan and its critical path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootApp(workspace)
		if err != nil {
			return err
		}
		p, err := app.Graph.GetPlan(args[0])
		if err != nil {
			return fmt.Errorf("get plan: %w", err)
		}
		tasks, err := app.Graph.ListTasks(p.ID)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		path, err := app.Graph.GetCriticalPath(p.ID)
		if err != nil {
			return fmt.Errorf("critical path: %w", err)
		}

		fmt.Printf("%s  %s  (%s)\n", p.ID, p.Name, p.Status)
		fmt.Printf("tasks: %d\n", len(tasks))
		for _, t := range tasks {
			fmt.Printf("  %s\t%-12s\t%s\n", t.ID, t.Status, t.Title)
		}
		fmt.Printf("critical path: %v\n", path)
		return nil
	},
}

var planNextCmd = &cobra.Command{
	Use:   "next <plan-id>",
	Short: "Show the next available task, if any",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootApp(workspace)
		if err != nil {
			return err
		}
		t, err := app.Graph.GetNextAvailableTask(args[0])
		if err != nil {
			return fmt.Errorf("get next available task: %w", err)
		}
		if t == nil {
			fmt.Println("no available task (plan complete, or all remaining tasks are blocked)")
			return nil
		}
		fmt.Printf("%s\t%-12s\t%s\n", t.ID, t.Status, t.Title)
		return nil
	},
}

var planStatusCmd = &cobra.Command{
	Use:   "status <plan-id> <status>",
	Short: "Transition a plan's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootApp(workspace)
		if err != nil {
			return err
		}
		p, err := app.Graph.GetPlan(args[0])
		if err != nil {
			return fmt.Errorf("get plan: %w", err)
		}
		p.Status = model.PlanStatus(args[1])
		if err := app.Graph.PutPlan(*p); err != nil {
			return fmt.Errorf("update plan status: %w", err)
		}
		fmt.Printf("%s -> %s\n", p.ID, p.Status)
		return nil
	},
}

func init() {
	planCmd.AddCommand(planListCmd, planCreateCmd, planShowCmd, planNextCmd, planStatusCmd)
}
