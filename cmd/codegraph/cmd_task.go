package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/antigravity-dev/codegraph/internal/model"
)

var taskDependsOn []string
var taskPriority int

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Add, show, and transition tasks within a plan",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <plan-id> <title>",
	Short: "Add a pending task to a plan",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootApp(workspace)
		if err != nil {
			return err
		}
		t := model.Task{
			ID:        uuid.NewString(),
			PlanID:    args[0],
			Title:     args[1],
			Status:    model.TaskPending,
			Priority:  taskPriority,
			DependsOn: taskDependsOn,
		}
		if err := app.Graph.PutTask(t); err != nil {
			return fmt.Errorf("add task: %w", err)
		}
		fmt.Println(t.ID)
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootApp(workspace)
		if err != nil {
			return err
		}
		t, err := app.Graph.GetTask(args[0])
		if err != nil {
			return fmt.Errorf("get task: %w", err)
		}
		fmt.Printf("%s\t%-12s\tpriority=%d\t%s\n", t.ID, t.Status, t.Priority, t.Title)
		if len(t.DependsOn) > 0 {
			fmt.Printf("depends on: %s\n", strings.Join(t.DependsOn, ", "))
		}
		return nil
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <task-id> <status>",
	Short: "Transition a task's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootApp(workspace)
		if err != nil {
			return err
		}
		t, err := app.Graph.GetTask(args[0])
		if err != nil {
			return fmt.Errorf("get task: %w", err)
		}
		t.Status = model.TaskStatus(args[1])
		if err := app.Graph.PutTask(*t); err != nil {
			return fmt.Errorf("update task status: %w", err)
		}
		fmt.Printf("%s -> %s\n", t.ID, t.Status)
		return nil
	},
}

func init() {
	taskAddCmd.Flags().StringSliceVar(&taskDependsOn, "depends-on", nil, "Comma-separated task ids this task depends on")
	taskAddCmd.Flags().IntVar(&taskPriority, "priority", 0, "Task priority (higher runs first among ready tasks)")
	taskCmd.AddCommand(taskAddCmd, taskShowCmd, taskStatusCmd)
}
