// Reconcile is an operator tool: it scans for captured receipts without a
// matching wallet credit and applies the missing credits. Run it after a
// crash or as a periodic safety net.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/evenza/settlement/internal/db"
	"github.com/evenza/settlement/internal/logger"
	"github.com/evenza/settlement/internal/repository/postgres"
	"github.com/evenza/settlement/internal/service/settlement"
)

func main() {
	var databaseDSN string
	var logLevel string

	fs := pflag.NewFlagSet("reconcile", pflag.ContinueOnError)
	fs.StringVarP(&databaseDSN, "database", "d", os.Getenv("DATABASE_URI"), "Database connection string")
	fs.StringVarP(&logLevel, "log-level", "l", logger.LevelInfo, "Logging level")
	if err := fs.Parse(os.Args[1:]); err != nil {
		slog.Error("can't parse flags", "error", err.Error())
		os.Exit(1)
	}

	log, err := logger.New(logger.EnvDev, logLevel)
	if err != nil {
		slog.Error("can't initialize logger", "error", err.Error())
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := db.Connect(ctx, databaseDSN)
	if err != nil {
		log.Error("Can't connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	reconciler := settlement.NewReconciler(postgres.NewStorage(pool), log)

	report, err := reconciler.Reconcile(ctx)
	if err != nil {
		log.Error("Reconciliation failed", "error", err)
		os.Exit(1)
	}

	log.Info("Reconciliation finished",
		"scanned", report.Scanned,
		"repaired", report.Repaired,
		"failed", report.Failed,
	)

	if report.Failed > 0 {
		os.Exit(1)
	}
}
