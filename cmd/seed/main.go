// Command seed runs the system-user bootstrap once and exits. The server
// performs the same bootstrap at startup; this command exists for migration
// pipelines and operators who want to seed without serving.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"arcanalyse/internal/platform/config"
	"arcanalyse/internal/platform/logger"
	"arcanalyse/internal/platform/metrics"
	"arcanalyse/internal/platform/postgres"
	"arcanalyse/internal/user/seed"
	"arcanalyse/internal/user/store"
	"arcanalyse/pkg/platform/tx"
)

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

	seeder := seed.New(store.NewPostgres(db), tx.NewSQLRunner(db), log, metrics.New(prometheus.DefaultRegisterer))
	result, err := seeder.Run(ctx)
	if err != nil {
		log.Error("failed to seed system user", "error", err.Error())
		os.Exit(1)
	}

	fmt.Printf("created=%t id=%s email=%s\n", result.Created, result.UserID, result.Email)
}
