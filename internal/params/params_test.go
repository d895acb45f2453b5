package params

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bher20/npahowtopay/internal/npa"
)

const dataDir = "../../data"

func TestScenarioValidate(t *testing.T) {
	gas, capex := Gas, Capex
	tests := []struct {
		name    string
		sc      ScenarioParams
		wantMsg string
	}{
		{"bau and taxpayer", ScenarioParams{StartYear: 2025, EndYear: 2030, BAU: true, Taxpayer: true}, "only one of bau or taxpayer can be true"},
		{"bau with utility", ScenarioParams{StartYear: 2025, EndYear: 2030, BAU: true, GasElectric: &gas}, "gas_electric must be unset when bau=true"},
		{"taxpayer with cost type", ScenarioParams{StartYear: 2025, EndYear: 2030, Taxpayer: true, CapexOpex: &capex}, "capex_opex must be unset when taxpayer=true"},
		{"missing utility", ScenarioParams{StartYear: 2025, EndYear: 2030, CapexOpex: &capex}, "gas_electric must be set when bau=false and taxpayer=false"},
		{"missing cost type", ScenarioParams{StartYear: 2025, EndYear: 2030, GasElectric: &gas}, "capex_opex must be set when bau=false and taxpayer=false"},
		{"end before start", ScenarioParams{StartYear: 2030, EndYear: 2025, BAU: true}, "end_year 2025 before start_year 2030"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sc.Validate()
			require.ErrorIs(t, err, ErrInvalidScenario)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	for _, sc := range []ScenarioParams{BAUScenario(2025, 2030), TaxpayerScenario(2025, 2030)} {
		assert.NoError(t, sc.Validate())
	}
	sc, err := NewScenario(2025, 2030, Electric, Opex)
	require.NoError(t, err)
	assert.Equal(t, "electric_opex", sc.Name())
	assert.True(t, sc.Funds(Electric, Opex))
	assert.False(t, sc.Funds(Gas, Opex))
	assert.False(t, BAUScenario(2025, 2030).Funds(Gas, Capex))
}

func TestScenarioJSONRejectsUnknownUtility(t *testing.T) {
	var sc ScenarioParams
	err := json.Unmarshal([]byte(`{"start_year":2025,"end_year":2030,"gas_electric":"water","capex_opex":"capex"}`), &sc)
	assert.ErrorIs(t, err, ErrInvalidParam)

	require.NoError(t, json.Unmarshal([]byte(`{"start_year":2025,"end_year":2030,"gas_electric":"Gas","capex_opex":"opex"}`), &sc))
	assert.Equal(t, "gas_opex", sc.Name())
}

func TestEscalatedCosts(t *testing.T) {
	in := InputParams{
		Shared:   SharedParams{StartYear: 2025, CostInflationRate: 0.1, NPAInstallCostsInit: 100},
		Electric: ElectricParams{DistributionCostPerPeakKWIncreaseInit: 1000},
	}
	assert.InDelta(t, 100.0, in.NPAInstallCost(2025), 1e-9)
	assert.InDelta(t, 121.0, in.NPAInstallCost(2027), 1e-9)
	assert.InDelta(t, 1100.0, in.DistributionCostPerPeakKWIncrease(2026), 1e-9)
}

func TestLoadSampleRun(t *testing.T) {
	runs, err := AvailableRuns(filepath.Join(dataDir, "params"))
	require.NoError(t, err)
	assert.Contains(t, runs, "sample")

	in, err := LoadRun("sample", filepath.Join(dataDir, "params"))
	require.NoError(t, err)
	assert.Equal(t, 2025, in.Shared.StartYear)
	assert.Equal(t, 100000, in.Gas.NumUsersInit)
	assert.InDelta(t, 0.09, in.Electric.ROR, 1e-12)

	_, err = LoadRun("../secrets", dataDir)
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestParseInputParams_Rejects(t *testing.T) {
	_, err := ParseInputParams([]byte("gas:\n  ratebase_init: 10\n  not_a_field: 1\n"))
	assert.Error(t, err)

	doc := []byte(`
gas: {default_depreciation_lifetime: 0, pipeline_depreciation_lifetime: 1, non_lpp_depreciation_lifetime: 1}
electric: {default_depreciation_lifetime: 1, grid_upgrade_depreciation_lifetime: 1, hp_efficiency: 3, water_heater_efficiency: 3}
shared: {npa_lifetime: 1, performance_incentive_pct: 1.5}
`)
	_, err = ParseInputParams(doc)
	require.ErrorIs(t, err, ErrInvalidParam)
	assert.Contains(t, err.Error(), "gas.default_depreciation_lifetime")
	assert.Contains(t, err.Error(), "shared.performance_incentive_pct")
}

func TestLoadTimeSeriesDoc(t *testing.T) {
	doc, err := LoadTimeSeriesDoc(filepath.Join(dataDir, "timeseries", "sample.yaml"))
	require.NoError(t, err)
	ts, err := doc.Params()
	require.NoError(t, err)

	assert.Len(t, ts.GasBAULPPCostsPerYear, 26)
	assert.Len(t, ts.GasFixedOverheadCosts, 26)
	assert.Len(t, ts.ElectricFixedOverheadCosts, 26)
	assert.Len(t, npa.NPAOnly(ts.NPAProjects), 26)

	scattershot := npa.Scattershot(ts.NPAProjects)
	require.Len(t, scattershot, 26)
	assert.True(t, math.IsInf(scattershot[0].PeakKWWinterHeadroom, 1))
	assert.Zero(t, scattershot[0].PipeValuePerUser)
}

func TestParseTimeSeriesDoc_ScattershotSentinels(t *testing.T) {
	doc := []byte(`
npa_projects:
  - {project_year: 2025, num_converts: 10, pipe_value_per_user: 100, is_scattershot: true}
scattershot_projects:
  - {project_year: 2025, num_converts: 3, pipe_value_per_user: 999, peak_kw_winter_headroom: 1}
gas_bau_lpp_costs_per_year:
  - {year: 2025, cost: 10}
`)
	parsed, err := ParseTimeSeriesDoc(doc)
	require.NoError(t, err)
	ts, err := parsed.Params()
	require.NoError(t, err)
	require.Len(t, ts.NPAProjects, 2)
	assert.False(t, ts.NPAProjects[0].IsScattershot)
	assert.Equal(t, npa.ScattershotRecord(2025, 3), ts.NPAProjects[1])
	assert.NotNil(t, ts.GasFixedOverheadCosts)

	parsed, err = ParseTimeSeriesDoc([]byte("gas_bau_lpp_costs_per_year:\n  - {year: 2025, cost: -1}\n"))
	require.NoError(t, err)
	_, err = parsed.Params()
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = ParseTimeSeriesDoc([]byte("bogus_key: 1\n"))
	assert.Error(t, err)
}

func TestWebParamsTimeSeries(t *testing.T) {
	w, err := LoadWebParams(filepath.Join(dataDir, "web", "sample.yaml"))
	require.NoError(t, err)

	ts, err := w.TimeSeries(2025, 2050)
	require.NoError(t, err)
	assert.Len(t, ts.GasBAULPPCostsPerYear, 26)
	assert.Len(t, ts.GasFixedOverheadCosts, 26)
	assert.Len(t, ts.ElectricFixedOverheadCosts, 26)
	assert.Equal(t, 2025, ts.GasBAULPPCostsPerYear[0].Year)
	assert.Equal(t, 2050, ts.GasBAULPPCostsPerYear[25].Year)

	projects := npa.NPAOnly(ts.NPAProjects)
	assert.Len(t, projects, 10)
	assert.Equal(t, 1000, npa.ComputeHPConverts(2050, projects, true, false))
	assert.Equal(t, 5, npa.ComputeHPConverts(2030, ts.NPAProjects, false, false)-npa.ComputeHPConverts(2030, projects, false, false))
	assert.Len(t, npa.Scattershot(ts.NPAProjects), 26)

	_, err = w.TimeSeries(2050, 2025)
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestWebParamsValidate(t *testing.T) {
	w := WebParams{HouseholdsPerProject: -1, AirconPercentAdoptionPreNPA: 2}
	err := w.Validate()
	require.ErrorIs(t, err, ErrInvalidParam)
	assert.Contains(t, err.Error(), "npa_households_per_project")
	assert.Contains(t, err.Error(), "aircon_percent_adoption_pre_npa")
}

func TestParseWebParams_Keys(t *testing.T) {
	w, err := ParseWebParams([]byte(`
npa_num_projects: 4
npa_households_per_project: 50
npa_pipe_value_per_user: 1200
npa_pipe_decomm_cost_per_user: 80
non_npa_scattershot_electrifiction_users_per_year: 7
`))
	require.NoError(t, err)
	assert.Equal(t, 50, w.HouseholdsPerProject)
	assert.Equal(t, 1200.0, w.PipeValuePerUser)
	assert.Equal(t, 80.0, w.PipeDecommCostPerUser)
	assert.Equal(t, 7, w.ScattershotUsersPerYear)

	w, err = ParseWebParams([]byte("non_npa_scattershot_electrification_users_per_year: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, w.ScattershotUsersPerYear)

	_, err = ParseWebParams([]byte("num_converts: 100\n"))
	assert.Error(t, err)
}

func TestLoadWebParams_Missing(t *testing.T) {
	_, err := LoadWebParams(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTimeSeriesDoc_JSONAndNoAlias(t *testing.T) {
	doc, err := LoadTimeSeriesDoc(filepath.Join(dataDir, "timeseries", "sample.yaml"))
	require.NoError(t, err)

	// Scattershot rows stay finite in the doc so it can be stored as JSON.
	b, err := json.Marshal(doc)
	require.NoError(t, err)

	var back TimeSeriesDoc
	require.NoError(t, json.Unmarshal(b, &back))
	ts, err := back.Params()
	require.NoError(t, err)
	assert.Len(t, ts.NPAProjects, 52)

	doc.NPAProjects[0].IsScattershot = true
	_, err = doc.Params()
	require.NoError(t, err)
	assert.True(t, doc.NPAProjects[0].IsScattershot)
}
