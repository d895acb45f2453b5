package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/bher20/npahowtopay/internal/analysis"
	"github.com/bher20/npahowtopay/internal/npa"
	"github.com/bher20/npahowtopay/internal/params"
	"github.com/bher20/npahowtopay/internal/report"
)

const maxRequestBytes = 8 << 20

func isInvalidInput(err error) bool {
	return errors.Is(err, params.ErrInvalidParam) ||
		errors.Is(err, params.ErrInvalidScenario) ||
		errors.Is(err, npa.ErrInvalidRecord) ||
		errors.Is(err, analysis.ErrNoTimeSeries)
}

// runAnalysis executes req and writes the outcome: 201 with the result on
// success, 422 with the failed result when the model rejects the inputs.
func (s *server) runAnalysis(w http.ResponseWriter, r *http.Request, req analysis.Request, source string) {
	res, err := s.Analysis.Analyze(r.Context(), req, source)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, res)
	case res != nil:
		writeJSON(w, http.StatusUnprocessableEntity, res)
	case isInvalidInput(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("api: analyze failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *server) createAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysis.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	s.runAnalysis(w, r, req, "api")
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}

func (s *server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := params.AvailableRuns(filepath.Join(s.DataDir, "params"))
	if err != nil {
		log.Printf("api: list runs: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"runs": runs})
}

func (s *server) analyzeRun(w http.ResponseWriter, r *http.Request) {
	start, err := queryInt(r, "start_year")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	end, err := queryInt(r, "end_year")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, err := analysis.LoadRequest(s.DataDir, r.PathValue("name"), start, end)
	if err != nil {
		if isInvalidInput(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.runAnalysis(w, r, req, "api")
}

func (s *server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if limit == 0 {
		limit = 50
	}
	list, err := s.Analysis.List(r.Context(), limit)
	if err != nil {
		log.Printf("api: list analyses: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) loadResult(w http.ResponseWriter, r *http.Request) (*analysis.Result, bool) {
	res, err := s.Analysis.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("api: get analysis: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	if res == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return res, true
}

func (s *server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	res, ok := s.loadResult(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("format") == "long" {
		writeJSON(w, http.StatusOK, report.LongFormat(res.Deltas, report.CompareColumns()))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) rerunAnalysis(w http.ResponseWriter, r *http.Request) {
	req, err := s.Analysis.Request(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("api: load request: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if req == nil {
		http.NotFound(w, r)
		return
	}
	s.runAnalysis(w, r, *req, "rerun")
}

func (s *server) deltasCSV(w http.ResponseWriter, r *http.Request) {
	res, ok := s.loadResult(w, r)
	if !ok {
		return
	}
	deltas := res.Deltas
	if id := r.URL.Query().Get("scenario"); id != "" {
		deltas = deltas.Scenario(id)
		if len(deltas) == 0 {
			http.Error(w, fmt.Sprintf("no deltas for scenario %q", id), http.StatusNotFound)
			return
		}
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_deltas.csv", res.ID))
	if err := report.WriteDeltas(w, deltas, report.CompareColumns()); err != nil {
		log.Printf("api: write deltas csv: %v", err)
	}
}

func (s *server) scenarioCSV(w http.ResponseWriter, r *http.Request) {
	res, ok := s.loadResult(w, r)
	if !ok {
		return
	}
	name := r.PathValue("scenario")
	table, found := res.Results[name]
	if !found {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_%s.csv", res.ID, name))
	if err := report.WriteTable(w, table); err != nil {
		log.Printf("api: write %s csv: %v", name, err)
	}
}
