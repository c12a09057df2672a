package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/caravelhq/caravel/internal/agent"
	apiv1 "github.com/caravelhq/caravel/internal/api/v1"
	"github.com/caravelhq/caravel/internal/config"
	"github.com/caravelhq/caravel/internal/consumer"
	"github.com/caravelhq/caravel/internal/feed"
	"github.com/caravelhq/caravel/internal/repo"
	"github.com/caravelhq/caravel/internal/schedule"
	"github.com/caravelhq/caravel/internal/store"
	"github.com/caravelhq/caravel/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the caravel server",
	Long: `Start the caravel server: HTTP API, sync schedule runner, and
group command fan-out.

Without --config the server listens on :8080 and keeps all records
in memory. A configuration file selects the Postgres record store and
tunes fan-out dispatch.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second
	serverIdleTimeout      = 60 * time.Second
)

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides config)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		slog.Error("Failed to bind config flag", "error", err)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg := config.Default()
	if configPath := viper.GetString("config"); configPath != "" {
		loaded, err := config.LoadConfig(config.WithConfigPath(configPath))
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	configureLogging(cfg)

	address := cfg.GetAddress()
	if flagAddress := viper.GetString("address"); flagAddress != "" {
		address = flagAddress
	}

	recordStore, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(registry)

	// The scheduler fires into the repository service, which in turn
	// registers schedules with the scheduler; bind the sync func late.
	var repositories *repo.Service
	scheduler := schedule.NewCronScheduler(func(ctx context.Context, repoID string) error {
		return repositories.TriggerSync(ctx, repoID)
	})
	defer scheduler.Stop()

	repositories = repo.NewService(recordStore, scheduler, feed.NewFetcher(), metrics)

	if err := restoreSchedules(ctx, repositories, scheduler); err != nil {
		return err
	}

	directory := consumer.NewStoreDirectory(recordStore, repositories.Catalog())
	groups := consumer.NewRegistry(recordStore, directory, repositories)

	fanoutOpts := []consumer.FanoutOption{consumer.WithWorkerLimit(cfg.Fanout.WorkerLimit)}
	if timeout, err := cfg.Fanout.GetDispatchTimeout(); err == nil && timeout > 0 {
		fanoutOpts = append(fanoutOpts, consumer.WithDispatchTimeout(timeout))
	}
	fanout := consumer.NewFanout(groups, directory, agent.NewLogGateway(), metrics, fanoutOpts...)

	routes := apiv1.NewRoutes(repositories, directory, groups, fanout)
	server := &http.Server{
		Addr:         address,
		Handler:      apiv1.Router(routes, registry),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting caravel server", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, defaultGracefulTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func configureLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	} else {
		switch cfg.Logging.Level {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func buildStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.Database == nil {
		slog.Info("No database configured, using in-memory record store")
		return store.NewInMemory(), nil, nil
	}

	connString, err := cfg.Database.GetConnectionString()
	if err != nil {
		return nil, nil, err
	}
	recordStore, closeStore, err := store.NewPostgres(ctx, connString)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("Connected to Postgres record store",
		"host", cfg.Database.Host, "database", cfg.Database.Database)
	return recordStore, closeStore, nil
}

// restoreSchedules re-registers the sync schedule of every stored
// repository, so schedules survive a server restart.
func restoreSchedules(ctx context.Context, repositories *repo.Service, scheduler schedule.Scheduler) error {
	schedules, err := repositories.AllSchedules(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore sync schedules: %w", err)
	}
	for repoID, cronSpec := range schedules {
		if cronSpec == "" {
			continue
		}
		if err := scheduler.RegisterJob(repoID, cronSpec); err != nil {
			return fmt.Errorf("failed to restore schedule for %s: %w", repoID, err)
		}
	}
	return nil
}
