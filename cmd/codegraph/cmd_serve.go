package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/antigravity-dev/codegraph/internal/httpapi"
	"github.com/antigravity-dev/codegraph/internal/logging"
	"github.com/antigravity-dev/codegraph/internal/rpc"
	"github.com/antigravity-dev/codegraph/internal/tools"
)

var (
	serveAddr string
	serveRPC  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP shell (and, with --rpc, the JSON-RPC stdio shell) over a workspace",
	RunE:  runServe,
}

// runServe wires one App into both collaborator surfaces: the C14 HTTP
// shell always runs; --rpc additionally serves the C13 JSON-RPC protocol
// over stdin/stdout, grounded on cmd_mangle_lsp.go's
// signal.Notify-driven shutdown for a long-running foreground process.
func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootApp(workspace)
	if err != nil {
		return err
	}

	addr := serveAddr
	if !cmd.Flags().Changed("addr") {
		addr = fmt.Sprintf(":%d", app.Config.ServerPort)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logging.HTTP("received shutdown signal, stopping serve")
		cancel()
	}()

	httpServer := httpapi.NewServer(app.Graph, app.Search, app.Notes)
	errCh := make(chan error, 2)
	go func() {
		errCh <- httpServer.Run(ctx, addr, 5*time.Second)
	}()

	if serveRPC {
		reg := tools.NewRegistry()
		if err := tools.RegisterDomainOperations(reg, app.Graph, app.Search, app.Notes, app.Neural, app.Sync); err != nil {
			return fmt.Errorf("register tool operations: %w", err)
		}
		rpcServer := rpc.NewServer(reg, "codegraph", "0.1.0")
		go func() {
			errCh <- rpcServer.Serve(ctx, os.Stdin, os.Stdout)
		}()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().BoolVar(&serveRPC, "rpc", false, "Also serve the JSON-RPC protocol over stdin/stdout")
	rootCmd.AddCommand(serveCmd)
}
