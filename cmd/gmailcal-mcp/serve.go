package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mkharitonov/gmailcal-mcp/internal/auth"
	"github.com/mkharitonov/gmailcal-mcp/internal/config"
	"github.com/mkharitonov/gmailcal-mcp/internal/gservice"
	"github.com/mkharitonov/gmailcal-mcp/internal/logging"
	"github.com/mkharitonov/gmailcal-mcp/internal/message"
	"github.com/mkharitonov/gmailcal-mcp/internal/metrics"
	"github.com/mkharitonov/gmailcal-mcp/internal/tool"
)

func newServeCmd() *cobra.Command {
	var (
		httpAddr string
		envFile  string
		logFile  string
		stdio    bool
		debug    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(httpAddr, envFile, logFile, stdio, debug)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", "localhost:8035", "HTTP server listen addr")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to env file")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file")
	cmd.Flags().BoolVar(&stdio, "stdio", false, "Enable stdio transport for MCP (disables stdout logging)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging on the console")

	return cmd
}

func runServe(httpAddr, envFile, logFile string, stdio, debug bool) error {
	logger, cleanup, err := logging.New(logging.Options{
		Stdio:    stdio,
		FilePath: logFile,
		Debug:    debug,
	})
	if err != nil {
		return fmt.Errorf("logging.New failed: %w", err)
	}
	defer cleanup()

	cfg, err := config.FromEnv(envFile)
	if err != nil {
		return fmt.Errorf("config.FromEnv failed: %w", err)
	}

	m := metrics.New()

	tokMgr := auth.NewTokenManager(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
	tokMgr.SetMetrics(m)

	gmailSvc := gservice.NewGmail(tokMgr, logger)

	norm := message.NewNormalizer(gmailSvc, logger)
	norm.SetMetrics(m)

	srv := tool.NewServer(gmailSvc, norm, m)

	mux := http.NewServeMux()
	mux.Handle("/status", auth.NewHTTPHandler(tokMgr, logger))
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server { return srv }, nil))

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return fmt.Errorf("net.Listen failed: %w", err)
	}

	httpSrv := &http.Server{Handler: mux}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGTERM, syscall.SIGINT)

	stopHTTP, errHTTPCh := serveHTTP(httpSrv, ln, logger)
	defer stopHTTP()

	var errStdioCh <-chan error
	if stdio {
		var stopStdio func()
		stopStdio, errStdioCh = serveStdio(srv, logger)
		defer stopStdio()
	}

	select {
	case err := <-errHTTPCh:
		logger.Error("http server error", zap.Error(err))
	case err := <-errStdioCh:
		logger.Error("stdio transport error", zap.Error(err))
	case <-shutdown:
		logger.Info("shutdown signal received")
	}

	return nil
}

func serveHTTP(srv *http.Server, ln net.Listener, logger *zap.Logger) (func(), <-chan error) {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)

		logger.Info("starting http server", zap.String("addr", ln.Addr().String()))

		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("srv.Serve failed: %w", err)
			logger.Error("http server failed", zap.Error(err))
			errCh <- err
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("srv.Shutdown failed", zap.Error(err))
		}

		<-errCh
		logger.Info("http server stopped")
	}, errCh
}

func serveStdio(srv *mcp.Server, logger *zap.Logger) (func(), <-chan error) {
	errCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(errCh)
		logger.Info("starting stdio transport")

		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			errCh <- fmt.Errorf("srv.Run failed: %w", err)
		}
	}()

	return func() {
		cancel()

		<-errCh
		logger.Info("stdio transport stopped")
	}, errCh
}
