package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bher20/npahowtopay/internal/alerting"
	"github.com/bher20/npahowtopay/internal/api"
	"github.com/bher20/npahowtopay/internal/auth"
	"github.com/bher20/npahowtopay/internal/cron"
	"github.com/bher20/npahowtopay/internal/notification"
)

func newServeCmd(a *app) *cobra.Command {
	var withWorker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), withWorker)
		},
	}
	cmd.Flags().BoolVar(&withWorker, "worker", false, "also run the scheduled re-run worker in this process")
	return cmd
}

func (a *app) serve(parent context.Context, withWorker bool) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
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

	deps := api.Deps{
		Analysis:    svc,
		Store:       st,
		Notif:       notification.NewService(st),
		DataDir:     a.cfg.DataDir,
		TokenExpiry: a.cfg.TokenExpiry,
	}
	if a.cfg.AuthEnabled {
		authSvc, err := auth.NewService(st)
		if err != nil {
			return err
		}
		deps.Auth = authSvc
	}

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           api.NewMux(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("npahowtopay listening on %s (driver=%s auth=%t)", srv.Addr, a.cfg.DBDriver, a.cfg.AuthEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Printf("server: shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		reportPoolStats(gctx, st, a.cfg.DBDriver)
		return nil
	})
	if withWorker {
		w := cron.NewWorker(a.workerConfig(), st, svc, alerting.NewAlerter(a.cfg.Alert))
		g.Go(func() error {
			if err := w.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
