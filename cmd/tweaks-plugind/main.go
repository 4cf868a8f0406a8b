package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/compat"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/config"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/installer"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/observability"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/plugins"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/platform"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/sandbox"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/state"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)
	ctx := context.Background()

	// Tracing
	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// Metrics
	var registry *prometheus.Registry
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)
	}

	// Platform data directories
	for _, dir := range []string{cfg.Plugins.Root, cfg.Plugins.StagingDir, cfg.Plugins.BackupDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	// Compatibility gate against this host
	host := compat.NewHost(log, compat.WithQueryTimeout(cfg.Plugins.PackageQueryTimeout))
	if metrics != nil {
		host.SetQueryHook(func(result string) {
			metrics.PackageQueriesTotal.WithLabelValues(result).Inc()
		})
	}
	gate := compat.NewGate(host, cfg.Plugins.AppVersion, log)

	// Lifecycle components
	store := state.NewStore(cfg.Plugins.StatePath, log)

	var source installer.Source
	switch cfg.Source.Type {
	case "http":
		source = installer.NewHTTPSource(cfg.Source.URL, cfg.Source.Timeout)
	default:
		source = installer.NewLocalDirSource(cfg.Source.Dir)
	}

	history, err := installer.OpenHistory(cfg.Plugins.HistoryPath)
	if err != nil {
		return fmt.Errorf("failed to open lifecycle history: %w", err)
	}
	defer history.Close()

	inst := installer.New(cfg.Plugins.Root, cfg.Plugins.StagingDir, cfg.Plugins.BackupDir,
		source, gate, store, history, metrics, log)

	// Platform service
	scanner := plugins.NewScanner(cfg.Plugins.Root, store, log)
	guard := sandbox.NewGuard(log)
	service := platform.NewService(scanner, gate, guard, inst, store, metrics, log)

	loaded, err := service.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("initial plugin load failed: %w", err)
	}
	log.Infof("Loaded %d plugins from %s", loaded, cfg.Plugins.Root)

	// Filesystem watcher
	if cfg.Plugins.WatchEnabled {
		watcher, err := platform.NewWatcher(service, 0)
		if err != nil {
			return fmt.Errorf("failed to start plugins watcher: %w", err)
		}
		defer watcher.Close()
	}

	// Periodic update checks
	if cfg.Plugins.UpdateCheckSchedule != "" {
		scheduler, err := platform.NewScheduler(service, cfg.Plugins.UpdateCheckSchedule)
		if err != nil {
			return fmt.Errorf("failed to start update scheduler: %w", err)
		}
		defer scheduler.Stop()
	}

	// Admin API
	apiServer := platform.NewServer(service, registry, metrics)
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health probes on a separate port
	checker := observability.NewHealthChecker()
	checker.AddCheck("plugins_root", func(ctx context.Context) error {
		_, err := os.Stat(cfg.Plugins.Root)
		return err
	})
	checker.AddCheck("history", func(ctx context.Context) error {
		_, err := history.List(ctx, "", 1)
		return err
	})

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, checker)
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	go func() {
		log.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Health server failed")
		}
	}()

	go func() {
		log.Infof("Admin API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Admin API server failed")
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sm := observability.NewShutdownManager(log, server, cfg.Server.ShutdownTimeout)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		service.UnloadAll()
		return nil
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, log)
	})

	return sm.WaitForShutdown()
}
