package cron

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/bher20/npahowtopay/internal/analysis"
	"github.com/bher20/npahowtopay/internal/params"
)

// AllRuns selects every parameter set under the data directory.
const AllRuns = "*"

func (w *Worker) resolveRuns(run string) ([]string, error) {
	if run != AllRuns {
		return []string{run}, nil
	}
	runs, err := params.AvailableRuns(filepath.Join(w.cfg.DataDir, "params"))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs under %s", w.cfg.DataDir)
	}
	return runs, nil
}

// runBatch analyzes each selected run, continuing past failures. It returns
// the ID of the last stored analysis that failed, if any, and the joined errors.
func (w *Worker) runBatch(ctx context.Context, run string) (string, error) {
	runs, err := w.resolveRuns(run)
	if err != nil {
		return "", err
	}

	var failedID string
	var errs []error
	for _, name := range runs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		req, err := analysis.LoadRequest(w.cfg.DataDir, name, w.cfg.StartYear, w.cfg.EndYear)
		if err != nil {
			log.Printf("cron: load run %s failed: %v", name, err)
			errs = append(errs, fmt.Errorf("run %s: %w", name, err))
			continue
		}
		res, err := w.svc.Analyze(ctx, req, "cron")
		if err != nil {
			log.Printf("cron: analyze run %s failed: %v", name, err)
			if res != nil {
				failedID = res.ID
			}
			errs = append(errs, fmt.Errorf("run %s: %w", name, err))
			continue
		}
		log.Printf("cron: run %s stored as analysis %s", name, res.ID)
	}
	return failedID, errors.Join(errs...)
}
