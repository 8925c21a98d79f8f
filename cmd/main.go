package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"environment_controller/internal/config"
	"environment_controller/internal/handlers"
	"environment_controller/internal/hub"
	"environment_controller/internal/logger"
	"environment_controller/internal/metrics"
	"environment_controller/internal/repository"
	"environment_controller/internal/repository/db"
	"environment_controller/internal/server"
	"environment_controller/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
)

const shutdownTimeout = 10 * time.Second

// @title        Environment Controller API
// @version      1.0
// @description  Device model, journal and control channel of the environment controller.
// @BasePath     /
func main() {
	// flags, then config.yml + ENVCTL_* on top of defaults
	fs := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	config.Flags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	// open storage
	dbs := newDBPool()
	defer dbs.closeAll(log)

	store, err := openStateStore(cfg, dbs)
	if err != nil {
		log.Fatalw("failed to open state store", "format", cfg.Persistence.Format, "err", err)
	}
	events, err := openEventRepo(cfg, dbs)
	if err != nil {
		log.Fatalw("failed to open event journal", "path", cfg.Events.DBPath, "err", err)
	}

	// metrics
	var (
		rec           metrics.Recorder = metrics.NoopRecorder{}
		metricsHandle http.Handler
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
		metricsHandle = metrics.HTTPHandler(reg)
	}

	// wire dependencies
	repos := repository.NewRepository(store, events)
	wsHub := hub.New(log)
	ctrl := service.NewControllerService(cfg.Devices, repos.StateStore, repos.EventRepo, wsHub, rec, log, service.ControllerOptions{
		BatchSnapshot:       cfg.Snapshot.Batch,
		ResetOnWriteFailure: cfg.Persistence.ResetOnWriteFailure,
	})
	ctrl.Restore(context.Background())
	services := service.NewService(ctrl)
	apiHandler := handlers.NewHandler(services, wsHub, log, handlers.Options{
		AllowedOrigins: cfg.WS.AllowedOrigins,
		Metrics:        metricsHandle,
	})

	checkpointer, err := service.NewCheckpointer(ctrl, repos.EventRepo, log, cfg.Persistence.CheckpointInterval, cfg.Events.Retention)
	if err != nil {
		log.Fatalw("failed to create checkpointer", "err", err)
	}
	checkpointer.Start()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Simulator.Enabled {
		log.Infow("simulator_enabled", "tick", cfg.Simulator.Tick)
		go services.Simulator.Run(ctx, cfg.Simulator.Tick)
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, wsHub, checkpointer, ctrl, log)
}

// dbPool shares one *sql.DB per SQLite file between the state store and the
// journal.
type dbPool map[string]*sql.DB

func newDBPool() dbPool { return dbPool{} }

func (p dbPool) open(path string) (*sql.DB, error) {
	if conn, ok := p[path]; ok {
		return conn, nil
	}
	conn, err := db.InitDB(path)
	if err != nil {
		return nil, err
	}
	p[path] = conn
	return conn, nil
}

func (p dbPool) closeAll(log *logger.Logger) {
	for path, conn := range p {
		if err := conn.Close(); err != nil {
			log.Errorw("failed to close sqlite", "path", path, "err", err)
		}
	}
}

// openStateStore selects the persistence backend by configured format.
func openStateStore(cfg *config.Config, dbs dbPool) (repository.StateStore, error) {
	p := cfg.Persistence
	switch p.Format {
	case config.FormatRecord:
		return repository.NewRecordFileStore(repository.NewOSStorage(), p.Path, p.LegacyPath), nil
	case config.FormatSQLite:
		conn, err := dbs.open(p.Path)
		if err != nil {
			return nil, err
		}
		return repository.NewStateSQLite(conn), nil
	default:
		return repository.NewFlatFileStore(repository.NewOSStorage(), p.Path), nil
	}
}

func openEventRepo(cfg *config.Config, dbs dbPool) (repository.EventRepo, error) {
	if !cfg.Events.Enabled {
		return repository.NoopEventRepo{}, nil
	}
	conn, err := dbs.open(cfg.Events.DBPath)
	if err != nil {
		return nil, err
	}
	return repository.NewEventSQLite(conn), nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http_listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(
	cancel context.CancelFunc,
	srv *server.Server,
	wsHub *hub.Hub,
	checkpointer *service.Checkpointer,
	ctrl service.Controller,
	log *logger.Logger,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()
	if err := checkpointer.Stop(); err != nil {
		log.Warnw("checkpointer_stop_failed", "err", err)
	}

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	// hijacked WebSocket connections are not covered by Shutdown; Close
	// returns after their disconnect saves have finished
	wsHub.Close()

	if err := ctrl.Persist(ctx, "shutdown"); err != nil {
		log.Errorw("final_persist_failed", "err", err)
	}
}
