package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/antigravity-dev/codegraph/internal/model"
)

var syncCmd = &cobra.Command{
	Use:   "sync [path]",
	Short: "Walk, parse, and index a workspace into the graph and search stores",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	root := workspace
	if len(args) == 1 {
		root = args[0]
	}
	if root == "" {
		var err error
		root, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve sync root: %w", err)
		}
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve sync root: %w", err)
	}

	app, err := bootApp(root)
	if err != nil {
		return err
	}

	project, err := app.Graph.GetProjectByRoot(root)
	if err != nil {
		return fmt.Errorf("lookup project: %w", err)
	}
	if project == nil {
		project = &model.Project{
			ID:       uuid.NewString(),
			Slug:     filepath.Base(root),
			RootPath: root,
		}
		if err := app.Graph.PutProject(*project); err != nil {
			return fmt.Errorf("register project: %w", err)
		}
	}

	baseCtx := cmd.Context()
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	result, err := app.Sync.Sync(ctx, *project)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	fmt.Printf("synced %s (%s)\n", project.Slug, project.RootPath)
	fmt.Printf("  files walked:        %d\n", result.FilesWalked)
	fmt.Printf("  files changed:       %d\n", result.FilesChanged)
	fmt.Printf("  files removed:       %d\n", result.FilesRemoved)
	fmt.Printf("  functions indexed:   %d\n", result.FunctionsIndexed)
	fmt.Printf("  calls resolved:      %d\n", result.CallsResolved)
	fmt.Printf("  calls unresolved:    %d\n", result.CallsUnresolved)
	fmt.Printf("  duration:            %s\n", result.Duration)
	return nil
}
