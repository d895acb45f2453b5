// Package analysis runs every "who pays" scenario over a request's inputs,
// differences them against BAU and stores the outcome.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bher20/npahowtopay/internal/metrics"
	"github.com/bher20/npahowtopay/internal/model"
	"github.com/bher20/npahowtopay/internal/params"
	"github.com/bher20/npahowtopay/internal/storage"
)

// Config controls how the analysis service behaves.
type Config struct {
	// Parallel runs the scenarios concurrently.
	Parallel bool
	// Utilities and CostTypes select the ratepayer-funded scenarios; both
	// default to every value.
	Utilities []params.Utility
	CostTypes []params.CostType
}

// Exporter receives every successful analysis, e.g. to push it to a
// time-series database.
type Exporter interface {
	Export(ctx context.Context, res *Result) error
}

// Result is a completed analysis.
type Result struct {
	ID        string                 `json:"id"`
	RunName   string                 `json:"run_name,omitempty"`
	Source    string                 `json:"source"`
	StartYear int                    `json:"start_year"`
	EndYear   int                    `json:"end_year"`
	Status    string                 `json:"status"`
	Error     string                 `json:"error,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	Results   map[string]model.Table `json:"results,omitempty"`
	Deltas    model.DeltaTable       `json:"deltas,omitempty"`
}

// Service coordinates model runs and their persistence.
type Service struct {
	cfg       Config
	store     storage.Storage // may be nil for one-off CLI runs
	exporters []Exporter
}

// NewService returns a Service that keeps nothing.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// NewServiceWithStorage returns a Service that records every analysis and
// its scenario tables in st.
func NewServiceWithStorage(cfg Config, st storage.Storage) *Service {
	return &Service{cfg: cfg, store: st}
}

// AddExporter registers e to receive successful analyses. Export errors are
// logged and do not fail the analysis.
func (s *Service) AddExporter(e Exporter) {
	s.exporters = append(s.exporters, e)
}

func (s *Service) runs(start, end int) map[string]params.ScenarioParams {
	utilities := s.cfg.Utilities
	if len(utilities) == 0 {
		utilities = []params.Utility{params.Gas, params.Electric}
	}
	costTypes := s.cfg.CostTypes
	if len(costTypes) == 0 {
		costTypes = []params.CostType{params.Capex, params.Opex}
	}
	return model.CreateScenarioRuns(start, end, utilities, costTypes)
}

// Analyze validates req, runs every scenario and returns the tables and
// BAU deltas. Validation errors are returned before anything is stored;
// model errors are recorded on the stored analysis with status failed.
func (s *Service) Analyze(ctx context.Context, req Request, source string) (*Result, error) {
	ts, err := req.Validate()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start, end := req.Years()

	res := &Result{
		ID:        uuid.NewString(),
		RunName:   req.RunName,
		Source:    source,
		StartYear: start,
		EndYear:   end,
		Status:    storage.StatusRunning,
		CreatedAt: time.Now().UTC(),
	}

	if s.store != nil {
		payload, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		if err := s.store.CreateAnalysis(ctx, storage.Analysis{
			ID:        res.ID,
			RunName:   res.RunName,
			Source:    source,
			StartYear: start,
			EndYear:   end,
			Status:    res.Status,
			Request:   payload,
			CreatedAt: res.CreatedAt,
		}); err != nil {
			return nil, fmt.Errorf("create analysis: %w", err)
		}
	}

	log.Printf("analysis: %s run=%q source=%s years=[%d,%d)", res.ID, req.RunName, source, start, end)
	results, deltas, runErr := model.AnalyzeScenarios(s.runs(start, end), req.Input, ts, model.RunOptions{
		Parallel:       s.cfg.Parallel,
		OnScenarioDone: metrics.ObserveScenario,
	})
	if runErr != nil {
		res.Status = storage.StatusFailed
		res.Error = runErr.Error()
	} else {
		res.Status = storage.StatusSucceeded
		res.Results = results
		res.Deltas = deltas
	}
	metrics.AnalysesTotal.WithLabelValues(source, res.Status).Inc()

	if err := s.finish(ctx, res); err != nil {
		return nil, err
	}
	if runErr != nil {
		log.Printf("analysis: %s failed: %v", res.ID, runErr)
		return res, runErr
	}

	for _, e := range s.exporters {
		if err := e.Export(ctx, res); err != nil {
			log.Printf("analysis: %s export failed: %v", res.ID, err)
		}
	}
	return res, nil
}

func (s *Service) finish(ctx context.Context, res *Result) error {
	if s.store == nil {
		return nil
	}
	if res.Status == storage.StatusSucceeded {
		rows := make([]storage.ScenarioResult, 0, len(res.Results))
		for _, name := range model.ScenarioNames(res.Results) {
			b, err := json.Marshal(res.Results[name])
			if err != nil {
				return fmt.Errorf("encode %s results: %w", name, err)
			}
			rows = append(rows, storage.ScenarioResult{AnalysisID: res.ID, ScenarioID: name, Rows: b})
		}
		if err := s.store.SaveScenarioResults(ctx, rows); err != nil {
			return fmt.Errorf("save scenario results: %w", err)
		}
	}

	a := storage.Analysis{
		ID:        res.ID,
		RunName:   res.RunName,
		Source:    res.Source,
		StartYear: res.StartYear,
		EndYear:   res.EndYear,
		Status:    res.Status,
		Error:     res.Error,
		CreatedAt: res.CreatedAt,
	}
	if res.Deltas != nil {
		b, err := json.Marshal(res.Deltas)
		if err != nil {
			return fmt.Errorf("encode deltas: %w", err)
		}
		a.Deltas = b
	}
	done := time.Now().UTC()
	a.CompletedAt = &done
	if err := s.store.UpdateAnalysis(ctx, a); err != nil {
		return fmt.Errorf("update analysis: %w", err)
	}
	return nil
}

// Get loads a stored analysis with its tables. It returns (nil, nil) when
// the id is unknown.
func (s *Service) Get(ctx context.Context, id string) (*Result, error) {
	if s.store == nil {
		return nil, nil
	}
	a, err := s.store.GetAnalysis(ctx, id)
	if err != nil || a == nil {
		return nil, err
	}
	res := fromAnalysis(*a)
	if len(a.Deltas) > 0 {
		if err := json.Unmarshal(a.Deltas, &res.Deltas); err != nil {
			return nil, fmt.Errorf("decode deltas: %w", err)
		}
	}

	rows, err := s.store.GetScenarioResults(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		res.Results = make(map[string]model.Table, len(rows))
		for _, r := range rows {
			var t model.Table
			if err := json.Unmarshal(r.Rows, &t); err != nil {
				return nil, fmt.Errorf("decode %s results: %w", r.ScenarioID, err)
			}
			res.Results[r.ScenarioID] = t
		}
	}
	return res, nil
}

// Request returns the stored request of an analysis so it can be re-run.
func (s *Service) Request(ctx context.Context, id string) (*Request, error) {
	if s.store == nil {
		return nil, nil
	}
	a, err := s.store.GetAnalysis(ctx, id)
	if err != nil || a == nil {
		return nil, err
	}
	var req Request
	if err := json.Unmarshal(a.Request, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}

// List returns summaries of the most recent analyses.
func (s *Service) List(ctx context.Context, limit int) ([]Result, error) {
	if s.store == nil {
		return []Result{}, nil
	}
	as, err := s.store.ListAnalyses(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(as))
	for _, a := range as {
		out = append(out, *fromAnalysis(a))
	}
	return out, nil
}

func fromAnalysis(a storage.Analysis) *Result {
	return &Result{
		ID:        a.ID,
		RunName:   a.RunName,
		Source:    a.Source,
		StartYear: a.StartYear,
		EndYear:   a.EndYear,
		Status:    a.Status,
		Error:     a.Error,
		CreatedAt: a.CreatedAt,
	}
}
