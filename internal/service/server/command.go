package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/oshokin/safehome/internal/api/grpc/panel"
	"github.com/oshokin/safehome/internal/api/rest"
	"github.com/oshokin/safehome/internal/config"
	"github.com/oshokin/safehome/internal/logger"
	"github.com/oshokin/safehome/internal/metrics"
	"github.com/oshokin/safehome/internal/service/security"
)

// Options controls the safehome-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// DatabaseFile overrides the SQLite database path from the settings.
	DatabaseFile string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

const shutdownTimeout = 5 * time.Second

// Run starts the control panel servers and the poll loop, and blocks until
// ctx is canceled or the gRPC server stops.
//
//nolint:funlen // Wiring of every process component lives in one place.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "safehome-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	logger.SetLevelName(settings.LogLevel)

	if opts.DatabaseFile != "" {
		settings.DatabaseFile = opts.DatabaseFile
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	repo, err := openRepository(ctx, settings)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close storage", "error", closeErr)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	observer, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	manager, err := security.NewManager(ctx, repo, security.NewLogManager(repo), security.WithObserver(observer))
	if err != nil {
		return fmt.Errorf("initialise security manager: %w", err)
	}

	notifier, err := openNotifier(ctx, settings)
	if err != nil {
		return fmt.Errorf("connect notifier: %w", err)
	}

	defer notifier.Close()

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(panel.LoggingInterceptor(ctx)))
	panel.RegisterControlPanelServer(grpcServer, panel.NewServer(manager))

	var httpServer *http.Server
	if settings.HTTPAddress != "" {
		httpServer = &http.Server{
			Addr:              settings.HTTPAddress,
			Handler:           rest.NewHandler(manager, registry).Router(ctx),
			ReadHeaderTimeout: settings.Timeout,
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		pollCtx := logger.ToContext(runCtx, pollLogger(settings.PollLogLevel))
		pollCtx = logger.WithName(pollCtx, "poller")

		NewPoller(manager, notifier, settings.PollInterval, settings.ResetDetected).Run(pollCtx)
	}()

	if httpServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()

			logger.InfoKV(ctx, "HTTP server listening", "http_address", httpServer.Addr)

			if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.ErrorKV(ctx, "HTTP server failed", "error", serveErr)
			}
		}()
	}

	// Stop both servers once the caller cancels or gRPC serving ends.
	wg.Add(1)
	go func() {
		defer wg.Done()

		<-runCtx.Done()
		logger.Info(ctx, "Shutting down servers")
		grpcServer.GracefulStop()

		if httpServer == nil {
			return
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer shutdownCancel()

		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.WarnKV(ctx, "HTTP server shutdown failed", "error", shutdownErr)
		}
	}()

	logger.InfoKV(ctx, "Control panel listening",
		"listen_address", listenAddress,
		"storage", settings.Storage,
		"poll_interval", settings.PollInterval)

	serveErr := grpcServer.Serve(lis)

	cancel()
	wg.Wait()

	logger.Info(ctx, "Servers stopped")

	if serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", serveErr)
	}

	return nil
}

// pollLogger derives the poll loop logger; every cycle logs at debug level,
// so it usually runs quieter than the rest of the process.
func pollLogger(level string) *zap.SugaredLogger {
	lvl, ok := logger.ParseLogLevel(level)
	if !ok {
		return logger.Logger()
	}

	return logger.Logger().WithOptions(logger.WithLevel(lvl))
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Port-only address binds on all interfaces.
	return ":" + port, nil
}
