package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/bher20/npahowtopay/internal/analysis"
	"github.com/bher20/npahowtopay/internal/config"
	"github.com/bher20/npahowtopay/internal/influxdb"
	"github.com/bher20/npahowtopay/internal/metrics"
	"github.com/bher20/npahowtopay/internal/migrate"
	"github.com/bher20/npahowtopay/internal/notification"
	"github.com/bher20/npahowtopay/internal/storage"
)

// app carries the environment configuration shared by every subcommand.
type app struct {
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "npahowtopay",
		Short:        "Simulate who pays for gas-to-electric NPA programs",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.AddCommand(
		newRunCmd(a),
		newServeCmd(a),
		newWorkerCmd(a),
		newMigrateCmd(a),
		newUserCmd(a),
		newTokenCmd(a),
	)
	return root
}

// openStore opens the configured backend. SQL schemas are brought up to date
// with goose first when auto-migration is enabled.
func (a *app) openStore(ctx context.Context) (storage.Storage, error) {
	if a.cfg.AutoMigrate && a.cfg.DBDriver != "memory" {
		if err := migrate.Up(ctx, a.cfg.DBDriver, a.cfg.DBDSN); err != nil {
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return storage.Open(ctx, storage.Config{Driver: a.cfg.DBDriver, DSN: a.cfg.DBDSN})
}

// newAnalysisService wires the analysis service with the summary email and,
// when configured, the InfluxDB exporter. The returned func closes the exporter.
func (a *app) newAnalysisService(ctx context.Context, st storage.Storage, influx config.InfluxConfig) (*analysis.Service, func(), error) {
	svc := analysis.NewServiceWithStorage(analysis.Config{Parallel: a.cfg.Parallel}, st)
	svc.AddExporter(notification.NewService(st))

	cleanup := func() {}
	if influx.Enabled() {
		exp, err := influxdb.NewExporter(ctx, influx, nil)
		if err != nil {
			return nil, nil, err
		}
		svc.AddExporter(exp)
		cleanup = exp.Close
	}
	return svc, cleanup, nil
}

// reportPoolStats publishes pgx pool statistics until ctx is done.
func reportPoolStats(ctx context.Context, st storage.Storage, driver string) {
	pg, ok := st.(*storage.PostgresPoolStorage)
	if !ok {
		return
	}
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		s := pg.Stats()
		metrics.UpdateDBPoolMetrics(driver, float64(s.Total), float64(s.Idle), float64(s.Acquired), s.Acquires)
		select {
		case <-ctx.Done():
			log.Printf("pool stats: stopped")
			return
		case <-ticker.C:
		}
	}
}
