package cron

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bher20/npahowtopay/internal/alerting"
	"github.com/bher20/npahowtopay/internal/analysis"
	"github.com/bher20/npahowtopay/internal/metrics"
	"github.com/bher20/npahowtopay/internal/storage"
)

const (
	// JobName identifies the scheduled re-run in metrics and scheduled_jobs.
	JobName = "rerun_analyses"

	// Settings that override Config at runtime.
	ScheduleSetting = "cron_schedule"
	RunSetting      = "cron_run"

	lockKey      int64 = 42
	pollInterval       = 10 * time.Second
)

type Config struct {
	// Schedule is integer seconds or a standard cron expression.
	Schedule string
	// RunName is the run under DataDir to re-analyze, or "*" for every run.
	RunName   string
	DataDir   string
	StartYear int
	EndYear   int
}

// Worker periodically re-runs the configured analyses. When the storage
// backend is a storage.Locker, an advisory lock keeps replicas from running
// the same cycle twice.
type Worker struct {
	cfg     Config
	store   storage.Storage
	svc     *analysis.Service
	alerter *alerting.Alerter

	failures int
}

func NewWorker(cfg Config, st storage.Storage, svc *analysis.Service, alerter *alerting.Alerter) *Worker {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 3 * * *"
	}
	if cfg.RunName == "" {
		cfg.RunName = "sample"
	}
	if alerter == nil {
		alerter = alerting.NewAlerter(alerting.AlertConfig{})
	}
	return &Worker{cfg: cfg, store: st, svc: svc, alerter: alerter}
}

// NextRun computes the run after last for setting, which is either a positive
// number of seconds or a cron expression. Anything else falls back to 5m.
func NextRun(setting string, last time.Time) time.Time {
	if v, err := strconv.Atoi(setting); err == nil && v > 0 {
		return last.Add(time.Duration(v) * time.Second)
	}
	if sched, err := cron.ParseStandard(setting); err == nil {
		return sched.Next(last)
	}
	return last.Add(5 * time.Minute)
}

// ValidSchedule reports whether setting is positive seconds or a cron expression.
func ValidSchedule(setting string) error {
	if v, err := strconv.Atoi(setting); err == nil {
		if v <= 0 {
			return fmt.Errorf("schedule seconds must be positive: %d", v)
		}
		return nil
	}
	if _, err := cron.ParseStandard(setting); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", setting, err)
	}
	return nil
}

func (w *Worker) setting(ctx context.Context, key, def string) string {
	val, err := w.store.GetSetting(ctx, key)
	if err != nil {
		log.Printf("cron: read setting %s: %v", key, err)
		return def
	}
	if val == "" {
		return def
	}
	return val
}

// Run executes one cycle immediately and then follows the schedule until ctx
// is cancelled. The schedule setting is re-read on every poll.
func (w *Worker) Run(ctx context.Context) error {
	schedule := w.setting(ctx, ScheduleSetting, w.cfg.Schedule)
	nextRun := time.Now()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Printf("cron: worker starting, schedule=%q run=%q", schedule, w.cfg.RunName)

	for {
		if val := w.setting(ctx, ScheduleSetting, w.cfg.Schedule); val != schedule {
			log.Printf("cron: schedule updated from %q to %q", schedule, val)
			schedule = val
			nextRun = NextRun(schedule, time.Now())
		}

		if !time.Now().Before(nextRun) {
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				log.Printf("cron: job %s failed: %v", JobName, err)
			}
			nextRun = NextRun(schedule, time.Now())
			log.Printf("cron: next run at %s", nextRun.Format(time.RFC3339))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single locked cycle. ran is false when another worker
// holds the lock.
func (w *Worker) RunOnce(ctx context.Context) (ran bool, err error) {
	started := time.Now()

	if locker, ok := w.store.(storage.Locker); ok {
		got, err := locker.AcquireAdvisoryLock(ctx, lockKey)
		if err != nil {
			metrics.UpdateJobMetrics(JobName, started, err)
			return false, err
		}
		if !got {
			log.Printf("cron: advisory lock held by another worker, skipping run")
			return false, nil
		}
		defer func() {
			if _, err := locker.ReleaseAdvisoryLock(context.WithoutCancel(ctx), lockKey); err != nil {
				log.Printf("cron: release advisory lock failed: %v", err)
			}
		}()
	}

	run := w.setting(ctx, RunSetting, w.cfg.RunName)
	lastID, runErr := w.runBatch(ctx, run)

	metrics.UpdateJobMetrics(JobName, started, runErr)
	dur := time.Since(started)
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	if err := w.store.UpdateScheduledJob(ctx, JobName, started, dur, runErr == nil, errMsg); err != nil {
		log.Printf("cron: update scheduled_jobs failed: %v", err)
	}

	if runErr == nil {
		w.failures = 0
		log.Printf("cron: job %s completed successfully (duration=%s)", JobName, dur)
		return true, nil
	}

	w.failures++
	if errors.Is(runErr, context.Canceled) {
		return true, runErr
	}
	alert := alerting.JobAlert{
		JobName:             JobName,
		RunName:             run,
		AnalysisID:          lastID,
		Error:               errMsg,
		ConsecutiveFailures: w.failures,
		Duration:            dur,
		Timestamp:           started,
	}
	if err := w.alerter.SendJobAlert(ctx, alert); err != nil {
		log.Printf("cron: send alert failed: %v", err)
	}
	return true, runErr
}

// ConsecutiveFailures is the number of failed cycles since the last success.
func (w *Worker) ConsecutiveFailures() int { return w.failures }
