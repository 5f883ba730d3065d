// Command server runs the Arcanalyse API: lookup reference data, user
// accounts, and the system-user bootstrap, behind one chi router.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	lookuphandler "arcanalyse/internal/lookup/handler"
	"arcanalyse/internal/platform/config"
	"arcanalyse/internal/platform/httpserver"
	"arcanalyse/internal/platform/logger"
	"arcanalyse/internal/platform/metrics"
	"arcanalyse/internal/platform/middleware"
	"arcanalyse/internal/platform/postgres"
	"arcanalyse/internal/routes"
	systemhandler "arcanalyse/internal/system/handler"
	userhandler "arcanalyse/internal/user/handler"
	"arcanalyse/internal/user/seed"
	"arcanalyse/internal/user/store"
	"arcanalyse/pkg/platform/tx"
)

const requestTimeout = 30 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	users := store.NewPostgres(db)

	// Bootstrap before serving traffic: handlers may stamp audit columns
	// with the system user from the very first request.
	seeder := seed.New(users, tx.NewSQLRunner(db), log, m)
	if _, err := seeder.Run(ctx); err != nil {
		log.Error("failed to seed system user", "error", err.Error())
		os.Exit(1)
	}

	registry := routes.NewRegistry()
	registry.Add(
		systemhandler.New(cfg),
		lookuphandler.New(db, log),
		userhandler.New(users, log, m),
	)
	log.Info("endpoint modules registered", "modules", registry.Modules())

	r := chi.NewRouter()
	r.Use(
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.Latency(m),
		middleware.Timeout(requestTimeout),
	)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		api.Mount("/", registry.Build())
	})

	srv := httpserver.New(cfg.Addr, r)

	go func() {
		log.Info("server starting", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}
