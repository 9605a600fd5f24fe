package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-forge/internal/mcp"
	"github.com/jonathan/resume-forge/internal/server"
)

var (
	servePort     int
	serveMCPStdio bool
	serveMCPHTTP  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API: optimization, file upload, streaming progress, career guidance,
quality scoring, exports and stored reports. With --mcp-stdio the MCP server also runs on
stdin/stdout; with --mcp-http (or server.mcp_http) it is mounted at /mcp.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, 8000)")
	serveCmd.Flags().BoolVar(&serveMCPStdio, "mcp-stdio", false, "Also serve MCP over stdin/stdout")
	serveCmd.Flags().BoolVar(&serveMCPHTTP, "mcp-http", false, "Mount the MCP streamable HTTP transport at /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if servePort > 0 {
		appConfig.Server.Port = servePort
	}
	if serveMCPHTTP {
		appConfig.Server.MCPHTTP = true
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	mcpServer := mcp.NewServer(a.svc, version, appLogger)

	var opts []server.Option
	if appConfig.Server.MCPHTTP {
		opts = append(opts, server.WithMCPHandler(mcp.HTTPHandler(mcpServer)))
	}
	srv := server.New(a.svc, appConfig, appLogger, opts...)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gCtx)
	})
	if serveMCPStdio {
		g.Go(func() error {
			appLogger.Info("MCP server started (stdio transport)")
			return mcp.ServeStdio(gCtx, mcpServer, os.Stdin, os.Stdout)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("server exited", zap.Error(err))
		return err
	}
	return nil
}
