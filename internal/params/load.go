package params

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/bher20/npahowtopay/internal/npa"
)

// ParseInputParams decodes a gas/electric/shared YAML document. Unknown keys
// are rejected.
func ParseInputParams(data []byte) (InputParams, error) {
	var in InputParams
	if err := yaml.UnmarshalStrict(data, &in); err != nil {
		return InputParams{}, fmt.Errorf("parse input params: %w", err)
	}
	if err := in.Validate(); err != nil {
		return InputParams{}, err
	}
	return in, nil
}

// LoadInputParams reads and validates an input parameter file.
func LoadInputParams(path string) (InputParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return InputParams{}, fmt.Errorf("read input params: %w", err)
	}
	in, err := ParseInputParams(data)
	if err != nil {
		return InputParams{}, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// TimeSeriesDoc is the serialized time-series layout used by YAML files and
// the HTTP API. Scattershot rows only need project_year and num_converts;
// their other fields are forced to the scattershot sentinels.
type TimeSeriesDoc struct {
	NPAProjects                []npa.Record `yaml:"npa_projects" json:"npa_projects"`
	ScattershotProjects        []npa.Record `yaml:"scattershot_projects" json:"scattershot_projects"`
	GasFixedOverheadCosts      CostSchedule `yaml:"gas_fixed_overhead_costs" json:"gas_fixed_overhead_costs"`
	ElectricFixedOverheadCosts CostSchedule `yaml:"electric_fixed_overhead_costs" json:"electric_fixed_overhead_costs"`
	GasBAULPPCostsPerYear      CostSchedule `yaml:"gas_bau_lpp_costs_per_year" json:"gas_bau_lpp_costs_per_year"`
}

// Params builds and validates the time series the document describes.
func (doc TimeSeriesDoc) Params() (TimeSeriesParams, error) {
	records := make([]npa.Record, len(doc.NPAProjects))
	copy(records, doc.NPAProjects)
	for i := range records {
		records[i].IsScattershot = false
	}
	ts := TimeSeriesParams{
		NPAProjects:                npa.AppendScattershot(records, doc.ScattershotProjects),
		GasFixedOverheadCosts:      nonNil(doc.GasFixedOverheadCosts),
		ElectricFixedOverheadCosts: nonNil(doc.ElectricFixedOverheadCosts),
		GasBAULPPCostsPerYear:      nonNil(doc.GasBAULPPCostsPerYear),
	}
	if err := ts.Validate(); err != nil {
		return TimeSeriesParams{}, err
	}
	return ts, nil
}

// ParseTimeSeriesDoc decodes a time-series YAML document without expanding
// it. Unknown keys are rejected.
func ParseTimeSeriesDoc(data []byte) (TimeSeriesDoc, error) {
	var doc TimeSeriesDoc
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return TimeSeriesDoc{}, fmt.Errorf("parse time series: %w", err)
	}
	return doc, nil
}

// LoadTimeSeriesDoc reads a time-series file without expanding it.
func LoadTimeSeriesDoc(path string) (TimeSeriesDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TimeSeriesDoc{}, fmt.Errorf("read time series: %w", err)
	}
	doc, err := ParseTimeSeriesDoc(data)
	if err != nil {
		return TimeSeriesDoc{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func nonNil(s CostSchedule) CostSchedule {
	if s == nil {
		return CostSchedule{}
	}
	return s
}

// WebParams is the compact form of a time series used by the web form and
// the API: a uniform NPA program plus flat yearly costs.
type WebParams struct {
	NPANumProjects              int     `yaml:"npa_num_projects" json:"npa_num_projects"`
	HouseholdsPerProject        int     `yaml:"npa_households_per_project" json:"npa_households_per_project"`
	PipeValuePerUser            float64 `yaml:"npa_pipe_value_per_user" json:"npa_pipe_value_per_user"`
	PipeDecommCostPerUser       float64 `yaml:"npa_pipe_decomm_cost_per_user" json:"npa_pipe_decomm_cost_per_user"`
	PipeDecommCostInflationRate float64 `yaml:"pipe_decomm_cost_inflation_rate" json:"pipe_decomm_cost_inflation_rate"`
	PeakKWWinterHeadroom        float64 `yaml:"peak_kw_winter_headroom" json:"peak_kw_winter_headroom"`
	PeakKWSummerHeadroom        float64 `yaml:"peak_kw_summer_headroom" json:"peak_kw_summer_headroom"`
	AirconPercentAdoptionPreNPA float64 `yaml:"aircon_percent_adoption_pre_npa" json:"aircon_percent_adoption_pre_npa"`
	ScattershotUsersPerYear     int     `yaml:"non_npa_scattershot_electrification_users_per_year" json:"non_npa_scattershot_electrification_users_per_year"`
	GasFixedOverheadCosts       float64 `yaml:"gas_fixed_overhead_costs" json:"gas_fixed_overhead_costs"`
	ElectricFixedOverheadCosts  float64 `yaml:"electric_fixed_overhead_costs" json:"electric_fixed_overhead_costs"`
	GasBAULPPCostsPerYear       float64 `yaml:"gas_bau_lpp_costs_per_year" json:"gas_bau_lpp_costs_per_year"`
}

// UnmarshalYAML also accepts the misspelled
// non_npa_scattershot_electrifiction_users_per_year key found in older files.
func (w *WebParams) UnmarshalYAML(unmarshal func(any) error) error {
	type plain WebParams
	var raw struct {
		plain             `yaml:",inline"`
		LegacyScattershot *int `yaml:"non_npa_scattershot_electrifiction_users_per_year"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*w = WebParams(raw.plain)
	if raw.LegacyScattershot != nil {
		w.ScattershotUsersPerYear = *raw.LegacyScattershot
	}
	return nil
}

// Validate checks the ranges of the web form fields.
func (w WebParams) Validate() error {
	var errs []error
	check := func(ok bool, field string, v any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s=%v", ErrInvalidParam, field, v))
		}
	}
	check(w.NPANumProjects >= 0, "npa_num_projects", w.NPANumProjects)
	check(w.HouseholdsPerProject >= 0, "npa_households_per_project", w.HouseholdsPerProject)
	check(w.PipeDecommCostPerUser >= 0, "npa_pipe_decomm_cost_per_user", w.PipeDecommCostPerUser)
	check(w.PeakKWWinterHeadroom >= 0, "peak_kw_winter_headroom", w.PeakKWWinterHeadroom)
	check(w.PeakKWSummerHeadroom >= 0, "peak_kw_summer_headroom", w.PeakKWSummerHeadroom)
	check(isPct(w.AirconPercentAdoptionPreNPA), "aircon_percent_adoption_pre_npa", w.AirconPercentAdoptionPreNPA)
	check(w.ScattershotUsersPerYear >= 0, "non_npa_scattershot_electrification_users_per_year", w.ScattershotUsersPerYear)
	check(w.GasFixedOverheadCosts >= 0, "gas_fixed_overhead_costs", w.GasFixedOverheadCosts)
	check(w.ElectricFixedOverheadCosts >= 0, "electric_fixed_overhead_costs", w.ElectricFixedOverheadCosts)
	check(w.GasBAULPPCostsPerYear >= 0, "gas_bau_lpp_costs_per_year", w.GasBAULPPCostsPerYear)
	return errors.Join(errs...)
}

// TimeSeries expands the web parameters over [startYear, endYear], both ends
// included.
func (w WebParams) TimeSeries(startYear, endYear int) (TimeSeriesParams, error) {
	if endYear < startYear {
		return TimeSeriesParams{}, fmt.Errorf("%w: end year %d before start year %d", ErrInvalidParam, endYear, startYear)
	}
	if err := w.Validate(); err != nil {
		return TimeSeriesParams{}, err
	}
	years := endYear - startYear + 1
	projects := npa.GenerateNPAProjects(npa.GenerateConfig{
		StartYear:                   startYear,
		EndYear:                     endYear,
		TotalNumProjects:            w.NPANumProjects,
		NumConvertsPerProject:       w.HouseholdsPerProject,
		PipeValuePerUser:            w.PipeValuePerUser,
		PipeDecommCostPerUser:       w.PipeDecommCostPerUser,
		PeakKWWinterHeadroom:        w.PeakKWWinterHeadroom,
		PeakKWSummerHeadroom:        w.PeakKWSummerHeadroom,
		AirconPercentAdoptionPreNPA: w.AirconPercentAdoptionPreNPA,
		PipeDecommCostInflationRate: w.PipeDecommCostInflationRate,
	})
	scattershot := npa.GenerateScattershotProjects(startYear, endYear, w.ScattershotUsersPerYear*years)

	return TimeSeriesParams{
		NPAProjects:                npa.AppendScattershot(projects, scattershot),
		GasFixedOverheadCosts:      UniformSchedule(startYear, endYear, w.GasFixedOverheadCosts),
		ElectricFixedOverheadCosts: UniformSchedule(startYear, endYear, w.ElectricFixedOverheadCosts),
		GasBAULPPCostsPerYear:      UniformSchedule(startYear, endYear, w.GasBAULPPCostsPerYear),
	}, nil
}

// ParseWebParams decodes and validates a web parameter document.
func ParseWebParams(data []byte) (WebParams, error) {
	var w WebParams
	if err := yaml.UnmarshalStrict(data, &w); err != nil {
		return WebParams{}, fmt.Errorf("parse web params: %w", err)
	}
	return w, w.Validate()
}

// LoadWebParams reads a web parameter file.
func LoadWebParams(path string) (WebParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return WebParams{}, fmt.Errorf("read web params: %w", err)
	}
	w, err := ParseWebParams(data)
	if err != nil {
		return WebParams{}, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// AvailableRuns lists the named parameter sets (YAML files) in dir.
func AvailableRuns(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	runs := make([]string, 0, len(matches))
	for _, m := range matches {
		runs = append(runs, strings.TrimSuffix(filepath.Base(m), ".yaml"))
	}
	sort.Strings(runs)
	return runs, nil
}

// LoadRun loads the named parameter set from dir.
func LoadRun(name, dir string) (InputParams, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return InputParams{}, fmt.Errorf("%w: run name %q", ErrInvalidParam, name)
	}
	return LoadInputParams(filepath.Join(dir, name+".yaml"))
}
