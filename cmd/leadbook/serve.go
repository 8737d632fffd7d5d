package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leadbook/leadbook/internal/api"
	"github.com/leadbook/leadbook/internal/config"
	"github.com/leadbook/leadbook/internal/db"
	"github.com/leadbook/leadbook/internal/dbpool"
	"github.com/leadbook/leadbook/internal/metrics"
	"github.com/leadbook/leadbook/internal/ratelimit"
	"github.com/leadbook/leadbook/internal/service"
	"github.com/leadbook/leadbook/internal/store"
	"github.com/leadbook/leadbook/internal/ws"
)

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 15 * time.Second
	auditQueueSize    = 1000
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := serve(ctx, cfg, log); err != nil {
				log.WithError(err).Error("server exited")
				return err
			}

			log.Info("server stopped")
			return nil
		},
	}
}

// serve wires the stores, services and transports and blocks until ctx is
// cancelled or a listener fails.
func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	gin.SetMode(gin.ReleaseMode)

	if err := db.Migrate(ctx, cfg.DatabaseURL.Value(), log); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), cfg.DBMaxConns)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := metrics.RegisterPoolStats(pool.Stat); err != nil {
		return fmt.Errorf("registering pool metrics: %w", err)
	}

	base := store.Base{DB: pool, Log: log}
	leadStore := store.NewLeadStore(base)
	historyStore := store.NewHistoryStore(base)
	auditStore := store.NewAuditStore(base)
	userStore := store.NewUserStore(base)

	auditSvc := service.NewAuditService(auditStore, log)
	auditWorker := service.NewAuditWorker(auditSvc, log, auditQueueSize)
	historySvc := service.NewHistoryService(historyStore)
	limiter := ratelimit.NewFixedWindow(ctx, cfg.WriteRateLimit, cfg.WriteRateWindow)
	leadSvc := service.NewLeadService(leadStore, historySvc, limiter, auditWorker, log)

	g, gctx := errgroup.WithContext(ctx)

	// The audit worker outlives the HTTP server so in-flight writes are
	// recorded before it drains.
	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		auditWorker.Run(workerCtx)
	}()
	defer func() {
		stopWorker()
		<-workerDone
	}()

	var hub *ws.Hub
	if cfg.EnableWebSocket {
		hub = ws.NewHub(log)
		go hub.Run(gctx)

		bridge := db.NewNotifyBridge(log, pool, hub, store.ChangeChannel)
		if err := bridge.Start(gctx); err != nil {
			return fmt.Errorf("starting notify bridge: %w", err)
		}
	}

	router := api.NewRouter(gctx, &api.RouterDeps{
		Log:         log,
		Pool:        pool,
		Hub:         hub,
		Leads:       leadSvc,
		History:     historySvc,
		Audit:       auditSvc,
		UserLookup:  userStore,
		CORSOrigins: cfg.CORSOrigins,
		Version:     config.Version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr(),
		Handler:           metricsMux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("API server listening")
		return listen(srv)
	})

	g.Go(func() error {
		log.WithField("addr", metricsSrv.Addr).Info("metrics server listening")
		return listen(metricsSrv)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()

		if hub != nil {
			hub.Shutdown()
		}

		return errors.Join(srv.Shutdown(shutdownCtx), metricsSrv.Shutdown(shutdownCtx))
	})

	return g.Wait()
}

// listen runs srv until it is shut down. A graceful shutdown is not an error.
func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listening on %s: %w", srv.Addr, err)
	}

	return nil
}
