package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/antigravity-dev/codegraph/internal/model"
)

var (
	contextPlanID string
	contextTaskID string
	contextPrompt bool
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Assemble a task's plan context and relevant notes",
	RunE:  runContext,
}

func runContext(cmd *cobra.Command, args []string) error {
	if contextPlanID == "" || contextTaskID == "" {
		return fmt.Errorf("--plan and --task are required")
	}

	app, err := bootApp(workspace)
	if err != nil {
		return err
	}

	plan, err := app.Graph.GetPlan(contextPlanID)
	if err != nil {
		return fmt.Errorf("get plan: %w", err)
	}
	task, err := app.Graph.GetTask(contextTaskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}
	project, err := app.Graph.GetProject(plan.ProjectID)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}
	if project == nil {
		return fmt.Errorf("plan %s references unknown project %s", plan.ID, plan.ProjectID)
	}

	notes, err := app.Graph.ListNotesByScope(project.ID, model.ScopeProject, project.ID)
	if err != nil {
		return fmt.Errorf("list project notes: %w", err)
	}

	if contextPrompt {
		fmt.Print(renderContextPrompt(project, plan, task, notes))
		return nil
	}

	fmt.Printf("project: %s (%s)\n", project.Slug, project.RootPath)
	fmt.Printf("plan:    %s  %s  (%s)\n", plan.ID, plan.Name, plan.Status)
	fmt.Printf("task:    %s  %s  (%s)\n", task.ID, task.Title, task.Status)
	if len(task.DependsOn) > 0 {
		fmt.Printf("depends on: %s\n", strings.Join(task.DependsOn, ", "))
	}
	fmt.Printf("notes: %d\n", len(notes))
	for _, n := range notes {
		fmt.Printf("  [%s/%s] %s\n", n.Type, n.Importance, n.Content)
	}
	return nil
}

// renderContextPrompt assembles a plain-text block suitable for feeding to
// an LLM prompt: the task at hand, the plan it belongs to, and every
// project-scoped note still active.
func renderContextPrompt(project *model.Project, plan *model.Plan, task *model.Task, notes []model.Note) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Task: %s\n\n", task.Title)
	fmt.Fprintf(&b, "Project: %s\nPlan: %s (%s)\nStatus: %s\n", project.Slug, plan.Name, plan.Status, task.Status)
	if len(task.DependsOn) > 0 {
		fmt.Fprintf(&b, "Depends on: %s\n", strings.Join(task.DependsOn, ", "))
	}
	b.WriteString("\n## Project notes\n\n")
	if len(notes) == 0 {
		b.WriteString("(none)\n")
	}
	for _, n := range notes {
		fmt.Fprintf(&b, "- [%s] %s\n", n.Type, n.Content)
	}
	return b.String()
}

func init() {
	contextCmd.Flags().StringVar(&contextPlanID, "plan", "", "Plan id")
	contextCmd.Flags().StringVar(&contextTaskID, "task", "", "Task id")
	contextCmd.Flags().BoolVar(&contextPrompt, "prompt", false, "Render as a plain-text prompt block instead of a summary")
}
