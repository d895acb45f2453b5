package model

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bher20/npahowtopay/internal/params"
)

// CreateScenarioRuns returns bau, taxpayer and one "{utility}_{cost type}"
// scenario per combination.
func CreateScenarioRuns(startYear, endYear int, utilities []params.Utility, costTypes []params.CostType) map[string]params.ScenarioParams {
	runs := map[string]params.ScenarioParams{
		"bau":      params.BAUScenario(startYear, endYear),
		"taxpayer": params.TaxpayerScenario(startYear, endYear),
	}
	for _, u := range utilities {
		for _, c := range costTypes {
			u, c := u, c
			sc := params.ScenarioParams{StartYear: startYear, EndYear: endYear, GasElectric: &u, CapexOpex: &c}
			runs[sc.Name()] = sc
		}
	}
	return runs
}

// ScenarioNames returns the run names with bau first and the rest sorted.
func ScenarioNames[T any](runs map[string]T) []string {
	names := make([]string, 0, len(runs))
	for name := range runs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == "bau" || names[j] == "bau" {
			return names[i] == "bau"
		}
		return names[i] < names[j]
	})
	return names
}

// RunOptions tunes RunAllScenarios.
type RunOptions struct {
	// Parallel runs scenarios concurrently. Results are identical to a
	// sequential run since runs share no mutable state.
	Parallel bool
	// OnScenarioDone, when set, is called after each scenario finishes.
	OnScenarioDone func(name string, startedAt time.Time, rows int, err error)
}

// RunAllScenarios runs the year loop once per scenario. Each run builds its
// own ledgers from the shared, read-only inputs.
func RunAllScenarios(runs map[string]params.ScenarioParams, in params.InputParams, ts params.TimeSeriesParams, opts RunOptions) (map[string]Table, error) {
	results := make(map[string]Table, len(runs))
	var mu sync.Mutex

	runOne := func(name string) error {
		started := time.Now()
		log.Printf("model: running scenario %s (%d-%d)", name, runs[name].StartYear, runs[name].EndYear)
		t, err := RunModel(runs[name], in, ts)
		if opts.OnScenarioDone != nil {
			opts.OnScenarioDone(name, started, len(t), err)
		}
		if err != nil {
			return fmt.Errorf("run scenario %s: %w", name, err)
		}
		mu.Lock()
		results[name] = t
		mu.Unlock()
		return nil
	}

	names := ScenarioNames(runs)
	if !opts.Parallel {
		for _, name := range names {
			if err := runOne(name); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	var g errgroup.Group
	for _, name := range names {
		name := name
		g.Go(func() error { return runOne(name) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AnalyzeScenarios validates the inputs, runs every scenario and differences
// the results against bau.
func AnalyzeScenarios(runs map[string]params.ScenarioParams, in params.InputParams, ts params.TimeSeriesParams, opts RunOptions) (map[string]Table, DeltaTable, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}
	if err := ts.Validate(); err != nil {
		return nil, nil, err
	}
	results, err := RunAllScenarios(runs, in, ts, opts)
	if err != nil {
		return nil, nil, err
	}
	deltas, err := CreateDeltaTable(results, CompareColumns)
	if err != nil {
		return nil, nil, err
	}
	return results, deltas, nil
}
