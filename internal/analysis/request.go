package analysis

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bher20/npahowtopay/internal/params"
)

// DefaultHorizon is the number of simulated years when a request omits end_year.
const DefaultHorizon = 25

// ErrNoTimeSeries is returned when a request carries neither a time series
// nor web parameters.
var ErrNoTimeSeries = errors.New("request needs time_series or web_params")

// Request is everything needed to run, and later repeat, one analysis.
type Request struct {
	RunName    string                `json:"run_name,omitempty"`
	StartYear  int                   `json:"start_year,omitempty"`
	EndYear    int                   `json:"end_year,omitempty"`
	Input      params.InputParams    `json:"input"`
	WebParams  *params.WebParams     `json:"web_params,omitempty"`
	TimeSeries *params.TimeSeriesDoc `json:"time_series,omitempty"`
}

// Years resolves the simulated range. The start defaults to the input's
// shared start year and the end to DefaultHorizon years later. An explicit
// start must still match shared.start_year; Validate rejects anything else.
func (r Request) Years() (int, int) {
	start, end := r.StartYear, r.EndYear
	if start == 0 {
		start = r.Input.Shared.StartYear
	}
	if end == 0 {
		end = start + DefaultHorizon
	}
	return start, end
}

// Validate checks the inputs and builds the time series.
func (r Request) Validate() (params.TimeSeriesParams, error) {
	if err := r.Input.Validate(); err != nil {
		return params.TimeSeriesParams{}, err
	}
	start, end := r.Years()
	if start != r.Input.Shared.StartYear {
		return params.TimeSeriesParams{}, fmt.Errorf("%w: start_year %d must equal shared.start_year %d", params.ErrInvalidParam, start, r.Input.Shared.StartYear)
	}
	if end <= start {
		return params.TimeSeriesParams{}, fmt.Errorf("%w: end_year %d must be after start_year %d", params.ErrInvalidParam, end, start)
	}
	switch {
	case r.TimeSeries != nil:
		return r.TimeSeries.Params()
	case r.WebParams != nil:
		return r.WebParams.TimeSeries(start, end)
	}
	return params.TimeSeriesParams{}, ErrNoTimeSeries
}

// LoadRequest builds a request for a named run under dataDir:
// params/<run>.yaml plus timeseries/<run>.yaml, or web/<run>.yaml when no
// explicit time series exists.
func LoadRequest(dataDir, run string, start, end int) (Request, error) {
	in, err := params.LoadRun(run, filepath.Join(dataDir, "params"))
	if err != nil {
		return Request{}, err
	}
	req := Request{RunName: run, StartYear: start, EndYear: end, Input: in}

	doc, err := params.LoadTimeSeriesDoc(filepath.Join(dataDir, "timeseries", run+".yaml"))
	switch {
	case err == nil:
		req.TimeSeries = &doc
		return req, nil
	case !errors.Is(err, os.ErrNotExist):
		return Request{}, err
	}

	web, err := params.LoadWebParams(filepath.Join(dataDir, "web", run+".yaml"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Request{}, fmt.Errorf("run %q: %w", run, ErrNoTimeSeries)
		}
		return Request{}, err
	}
	req.WebParams = &web
	return req, nil
}
