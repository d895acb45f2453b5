package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bher20/npahowtopay/internal/alerting"
	"github.com/bher20/npahowtopay/internal/cron"
)

func newWorkerCmd(a *app) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Re-run the configured analyses on a schedule",
		Long: `Re-run the run named by NPAHOWTOPAY_CRON_RUN ("*" for every run under the
data directory) on NPAHOWTOPAY_CRON_SCHEDULE, seconds or a cron expression.
The cron_schedule and cron_run settings in the database take precedence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			svc, closeExporters, err := a.newAnalysisService(ctx, st, a.cfg.Influx)
			if err != nil {
				return err
			}
			defer closeExporters()

			w := cron.NewWorker(a.workerConfig(), st, svc, alerting.NewAlerter(a.cfg.Alert))
			if once {
				_, err := w.RunOnce(ctx)
				return err
			}
			go reportPoolStats(ctx, st, a.cfg.DBDriver)
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	return cmd
}

func (a *app) workerConfig() cron.Config {
	return cron.Config{
		Schedule:  a.cfg.CronSchedule,
		RunName:   a.cfg.CronRun,
		DataDir:   a.cfg.DataDir,
		StartYear: a.cfg.CronStart,
		EndYear:   a.cfg.CronEnd,
	}
}
