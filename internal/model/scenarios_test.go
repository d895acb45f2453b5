package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bher20/npahowtopay/internal/params"
)

func allRuns() map[string]params.ScenarioParams {
	return CreateScenarioRuns(2025, 2028,
		[]params.Utility{params.Gas, params.Electric},
		[]params.CostType{params.Capex, params.Opex})
}

func TestCreateScenarioRuns(t *testing.T) {
	runs := allRuns()
	assert.Equal(t, []string{"bau", "electric_capex", "electric_opex", "gas_capex", "gas_opex", "taxpayer"}, ScenarioNames(runs))
	for name, sc := range runs {
		require.NoError(t, sc.Validate(), name)
		assert.Equal(t, name, sc.Name())
	}

	minimal := CreateScenarioRuns(2025, 2028, nil, nil)
	assert.Len(t, minimal, 2)
}

func TestRunAllScenarios_ParallelMatchesSequential(t *testing.T) {
	seq, err := RunAllScenarios(allRuns(), testInputs(), testTimeSeries(), RunOptions{})
	require.NoError(t, err)

	par, err := RunAllScenarios(allRuns(), testInputs(), testTimeSeries(), RunOptions{Parallel: true})
	require.NoError(t, err)
	assert.Equal(t, seq, par)
}

func TestRunAllScenarios_OnScenarioDone(t *testing.T) {
	var done int
	_, err := RunAllScenarios(allRuns(), testInputs(), testTimeSeries(), RunOptions{
		OnScenarioDone: func(_ string, _ time.Time, rows int, err error) {
			assert.NoError(t, err)
			assert.Equal(t, 3, rows)
			done++
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, done)
}

func TestRunAllScenarios_PropagatesError(t *testing.T) {
	in := testInputs()
	in.Gas.NumUsersInit = 35
	_, err := RunAllScenarios(allRuns(), in, testTimeSeries(), RunOptions{Parallel: true})
	assert.ErrorIs(t, err, ErrDegenerateTariff)
}

func TestCreateDeltaTable_IdenticalScenario(t *testing.T) {
	bau, err := RunModel(params.BAUScenario(2025, 2028), testInputs(), testTimeSeries())
	require.NoError(t, err)
	same, err := RunModel(params.BAUScenario(2025, 2028), testInputs(), testTimeSeries())
	require.NoError(t, err)

	deltas, err := CreateDeltaTable(map[string]Table{"bau": bau, "copy": same}, CompareColumns)
	require.NoError(t, err)
	require.Len(t, deltas, 3)

	for i, d := range deltas {
		assert.Equal(t, "copy", d.ScenarioID)
		for _, col := range CompareColumns {
			if BAUColumn(col) != col {
				continue
			}
			assert.Zero(t, d.Values[col], col)
		}
		// Converts are compared with what they would have paid without converting.
		assert.InDelta(t, -bau[i].GasNonconvertsBillPerUser, d.Values["gas_converts_bill_per_user"], 1e-9)
		assert.InDelta(t, bau[i].ElectricConvertsBillPerUser-bau[i].ElectricNonconvertsBillPerUser,
			d.Values["electric_converts_bill_per_user"], 1e-9)
	}
}

func TestCreateDeltaTable_Errors(t *testing.T) {
	_, err := CreateDeltaTable(map[string]Table{"gas_capex": {}}, CompareColumns)
	assert.ErrorIs(t, err, ErrMissingBAU)

	_, err = CreateDeltaTable(map[string]Table{"bau": {}}, []string{"not_a_column"})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestCreateDeltaTable_InnerJoinOnYear(t *testing.T) {
	bau := Table{{Year: 2025, GasRatebase: 10}, {Year: 2026, GasRatebase: 20}}
	other := Table{{Year: 2026, GasRatebase: 25}, {Year: 2027, GasRatebase: 40}}

	deltas, err := CreateDeltaTable(map[string]Table{"bau": bau, "gas_capex": other}, []string{"gas_ratebase"})
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.Equal(t, 2026, deltas[0].Year)
	assert.InDelta(t, 5.0, deltas[0].Values["gas_ratebase"], 1e-12)
}

func TestAnalyzeScenarios(t *testing.T) {
	results, deltas, err := AnalyzeScenarios(allRuns(), testInputs(), testTimeSeries(), RunOptions{Parallel: true})
	require.NoError(t, err)
	assert.Len(t, results, 6)
	assert.Len(t, deltas, 5*3)

	gasCapex := deltas.Scenario("gas_capex")
	require.Len(t, gasCapex, 3)
	assert.Greater(t, gasCapex[0].Values["gas_ratebase"], 0.0)
	assert.Greater(t, gasCapex[0].Values["gas_revenue_requirement"], 0.0)

	tax := deltas.Scenario("taxpayer")
	require.Len(t, tax, 3)
	// Taxpayers carry the NPA cost, so gas ratebase falls by the avoided pipe.
	assert.InDelta(t, -27000.0, tax[0].Values["gas_ratebase"], 1e-6)
}

func TestAnalyzeScenarios_InvalidInputs(t *testing.T) {
	in := testInputs()
	in.Electric.HPEfficiency = 0
	_, _, err := AnalyzeScenarios(allRuns(), in, testTimeSeries(), RunOptions{})
	assert.ErrorIs(t, err, params.ErrInvalidParam)
}
