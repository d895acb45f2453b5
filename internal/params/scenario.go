package params

import (
	"fmt"
	"strings"
)

// Utility names the utility an NPA cost is attributed to.
type Utility string

const (
	Gas      Utility = "gas"
	Electric Utility = "electric"
)

// ParseUtility validates a utility name.
func ParseUtility(s string) (Utility, error) {
	switch u := Utility(strings.ToLower(strings.TrimSpace(s))); u {
	case Gas, Electric:
		return u, nil
	default:
		return "", fmt.Errorf("%w: gas_electric=%q", ErrInvalidParam, s)
	}
}

// UnmarshalText lets Utility decode from YAML and JSON with validation.
func (u *Utility) UnmarshalText(b []byte) error {
	v, err := ParseUtility(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// CostType names how NPA install costs are recovered.
type CostType string

const (
	Capex CostType = "capex"
	Opex  CostType = "opex"
)

// ParseCostType validates a cost type name.
func ParseCostType(s string) (CostType, error) {
	switch c := CostType(strings.ToLower(strings.TrimSpace(s))); c {
	case Capex, Opex:
		return c, nil
	default:
		return "", fmt.Errorf("%w: capex_opex=%q", ErrInvalidParam, s)
	}
}

// UnmarshalText lets CostType decode from YAML and JSON with validation.
func (c *CostType) UnmarshalText(b []byte) error {
	v, err := ParseCostType(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ScenarioParams selects who pays for NPAs in one model run.
//
// Exactly one of BAU, Taxpayer, or (GasElectric and CapexOpex both set) holds.
type ScenarioParams struct {
	StartYear   int       `json:"start_year"`
	EndYear     int       `json:"end_year"`
	BAU         bool      `json:"bau"`
	Taxpayer    bool      `json:"taxpayer"`
	GasElectric *Utility  `json:"gas_electric,omitempty"`
	CapexOpex   *CostType `json:"capex_opex,omitempty"`
}

// NewScenario builds and validates a ratepayer-funded scenario.
func NewScenario(start, end int, u Utility, c CostType) (ScenarioParams, error) {
	s := ScenarioParams{StartYear: start, EndYear: end, GasElectric: &u, CapexOpex: &c}
	return s, s.Validate()
}

// BAUScenario returns the business-as-usual scenario for a year range.
func BAUScenario(start, end int) ScenarioParams {
	return ScenarioParams{StartYear: start, EndYear: end, BAU: true}
}

// TaxpayerScenario returns the taxpayer-funded scenario for a year range.
func TaxpayerScenario(start, end int) ScenarioParams {
	return ScenarioParams{StartYear: start, EndYear: end, Taxpayer: true}
}

// Validate enforces the scenario exclusivity invariant.
func (s ScenarioParams) Validate() error {
	if s.EndYear < s.StartYear {
		return fmt.Errorf("%w: end_year %d before start_year %d", ErrInvalidScenario, s.EndYear, s.StartYear)
	}
	if s.BAU && s.Taxpayer {
		return fmt.Errorf("%w: only one of bau or taxpayer can be true", ErrInvalidScenario)
	}
	for _, flag := range []struct {
		on   bool
		name string
	}{{s.BAU, "bau"}, {s.Taxpayer, "taxpayer"}} {
		if !flag.on {
			continue
		}
		if s.GasElectric != nil {
			return fmt.Errorf("%w: gas_electric must be unset when %s=true", ErrInvalidScenario, flag.name)
		}
		if s.CapexOpex != nil {
			return fmt.Errorf("%w: capex_opex must be unset when %s=true", ErrInvalidScenario, flag.name)
		}
	}
	if !s.BAU && !s.Taxpayer {
		if s.GasElectric == nil {
			return fmt.Errorf("%w: gas_electric must be set when bau=false and taxpayer=false", ErrInvalidScenario)
		}
		if s.CapexOpex == nil {
			return fmt.Errorf("%w: capex_opex must be set when bau=false and taxpayer=false", ErrInvalidScenario)
		}
	}
	return nil
}

// Funds reports whether the scenario charges NPA costs to utility u as cost type c.
func (s ScenarioParams) Funds(u Utility, c CostType) bool {
	return s.GasElectric != nil && s.CapexOpex != nil && *s.GasElectric == u && *s.CapexOpex == c
}

// Name is the canonical scenario identifier used in result tables.
func (s ScenarioParams) Name() string {
	switch {
	case s.BAU:
		return "bau"
	case s.Taxpayer:
		return "taxpayer"
	case s.GasElectric != nil && s.CapexOpex != nil:
		return string(*s.GasElectric) + "_" + string(*s.CapexOpex)
	default:
		return "invalid"
	}
}
