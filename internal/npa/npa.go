// Package npa models the exogenous stream of electrification events: targeted
// non-pipe alternative (NPA) projects and untargeted "scattershot" gas
// defections. Records are never mutated once built; every query filters and
// aggregates over a read-only slice.
package npa

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRecord is returned by Validate for out-of-range record fields.
var ErrInvalidRecord = errors.New("invalid npa record")

// Record is one conversion event. Several records may share a ProjectYear.
type Record struct {
	ProjectYear                 int     `yaml:"project_year" json:"project_year"`
	NumConverts                 int     `yaml:"num_converts" json:"num_converts"`
	PipeValuePerUser            float64 `yaml:"pipe_value_per_user" json:"pipe_value_per_user"`
	PipeDecommCostPerUser       float64 `yaml:"pipe_decomm_cost_per_user" json:"pipe_decomm_cost_per_user"`
	PeakKWWinterHeadroom        float64 `yaml:"peak_kw_winter_headroom" json:"peak_kw_winter_headroom"`
	PeakKWSummerHeadroom        float64 `yaml:"peak_kw_summer_headroom" json:"peak_kw_summer_headroom"`
	AirconPercentAdoptionPreNPA float64 `yaml:"aircon_percent_adoption_pre_npa" json:"aircon_percent_adoption_pre_npa"`
	IsScattershot               bool    `yaml:"is_scattershot" json:"is_scattershot"`
}

// ScattershotRecord builds a scattershot record: no pipe economics and
// unlimited headroom, so it never triggers a grid upgrade.
func ScattershotRecord(year, converts int) Record {
	return Record{
		ProjectYear:          year,
		NumConverts:          converts,
		PeakKWWinterHeadroom: math.Inf(1),
		PeakKWSummerHeadroom: math.Inf(1),
		IsScattershot:        true,
	}
}

// Empty returns a zero-length, non-nil stream.
func Empty() []Record { return []Record{} }

// Validate checks the field ranges of every record.
func Validate(records []Record) error {
	var errs []error
	for i, r := range records {
		if r.NumConverts < 0 {
			errs = append(errs, fmt.Errorf("%w: row %d num_converts=%d", ErrInvalidRecord, i, r.NumConverts))
		}
		if r.PipeDecommCostPerUser < 0 {
			errs = append(errs, fmt.Errorf("%w: row %d pipe_decomm_cost_per_user=%v", ErrInvalidRecord, i, r.PipeDecommCostPerUser))
		}
		if r.PeakKWWinterHeadroom < 0 || r.PeakKWSummerHeadroom < 0 {
			errs = append(errs, fmt.Errorf("%w: row %d negative headroom", ErrInvalidRecord, i))
		}
		if r.AirconPercentAdoptionPreNPA < 0 || r.AirconPercentAdoptionPreNPA > 1 {
			errs = append(errs, fmt.Errorf("%w: row %d aircon_percent_adoption_pre_npa=%v", ErrInvalidRecord, i, r.AirconPercentAdoptionPreNPA))
		}
	}
	return errors.Join(errs...)
}

// AppendScattershot unions an NPA stream with scattershot rows, overwriting
// the scattershot rows' economics with the scattershot sentinels.
func AppendScattershot(npaRecords, scattershot []Record) []Record {
	out := make([]Record, 0, len(npaRecords)+len(scattershot))
	out = append(out, npaRecords...)
	for _, s := range scattershot {
		out = append(out, ScattershotRecord(s.ProjectYear, s.NumConverts))
	}
	return out
}

// NPAOnly returns the non-scattershot records.
func NPAOnly(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !r.IsScattershot {
			out = append(out, r)
		}
	}
	return out
}

// Scattershot returns only the scattershot records.
func Scattershot(records []Record) []Record {
	out := make([]Record, 0)
	for _, r := range records {
		if r.IsScattershot {
			out = append(out, r)
		}
	}
	return out
}

// ComputeHPConverts counts households converting in year (or up to and
// including year when cumulative). npaOnly drops scattershot records.
func ComputeHPConverts(year int, records []Record, cumulative, npaOnly bool) int {
	if npaOnly {
		records = NPAOnly(records)
	}
	total := 0
	for _, r := range records {
		if r.ProjectYear == year || (cumulative && r.ProjectYear < year) {
			total += r.NumConverts
		}
	}
	return total
}

// ComputeNPAInstallCosts is the install cost of this year's NPA-only converts.
func ComputeNPAInstallCosts(year int, records []Record, installCost float64) float64 {
	return installCost * float64(ComputeHPConverts(year, records, false, true))
}

// ComputeNPAPipeCostAvoided sums the pipe replacement value displaced by this
// year's NPAs.
func ComputeNPAPipeCostAvoided(year int, records []Record) float64 {
	total := 0.0
	for _, r := range NPAOnly(records) {
		if r.ProjectYear != year {
			continue
		}
		total += r.PipeValuePerUser * float64(r.NumConverts)
	}
	return total
}

// ComputePeakKWIncrease sums, over this year's records, the larger of the
// winter (heat pump) and summer (new air conditioning) peak increase beyond
// the local headroom.
func ComputePeakKWIncrease(year int, records []Record, peakHPKW, peakAirconKW float64) float64 {
	total := 0.0
	for _, r := range NPAOnly(records) {
		if r.ProjectYear != year {
			continue
		}
		n := float64(r.NumConverts)
		winter := math.Max(0, n*peakHPKW-r.PeakKWWinterHeadroom)
		summer := math.Max(0, n*(1-r.AirconPercentAdoptionPreNPA)*peakAirconKW-r.PeakKWSummerHeadroom)
		total += math.Max(winter, summer)
	}
	return total
}
