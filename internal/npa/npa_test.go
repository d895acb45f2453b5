package npa

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() []Record {
	return []Record{
		{ProjectYear: 2025, NumConverts: 10, PipeValuePerUser: 1000, PipeDecommCostPerUser: 100, PeakKWWinterHeadroom: 10, PeakKWSummerHeadroom: 10, AirconPercentAdoptionPreNPA: 0.2},
		{ProjectYear: 2025, NumConverts: 20, PipeValuePerUser: 100, PipeDecommCostPerUser: 200, PeakKWWinterHeadroom: 100, PeakKWSummerHeadroom: 1, AirconPercentAdoptionPreNPA: 0.8},
		{ProjectYear: 2025, NumConverts: 5, PipeValuePerUser: 3000, PipeDecommCostPerUser: 100, PeakKWWinterHeadroom: 1, PeakKWSummerHeadroom: 10, AirconPercentAdoptionPreNPA: 0.8},
	}
}

func withScattershot() []Record {
	return AppendScattershot(fixture(), []Record{
		{ProjectYear: 2024, NumConverts: 7},
		{ProjectYear: 2025, NumConverts: 3, PipeValuePerUser: 999},
	})
}

func TestComputeNPAPipeCostAvoided(t *testing.T) {
	assert.InDelta(t, 27000.0, ComputeNPAPipeCostAvoided(2025, fixture()), 1e-9)
	assert.InDelta(t, 27000.0, ComputeNPAPipeCostAvoided(2025, withScattershot()), 1e-9)
	assert.Zero(t, ComputeNPAPipeCostAvoided(2026, fixture()))

	// Flagged rows are skipped even when they carry economics.
	flagged := append(fixture(), Record{ProjectYear: 2025, NumConverts: 4, PipeValuePerUser: 999, IsScattershot: true})
	assert.InDelta(t, 27000.0, ComputeNPAPipeCostAvoided(2025, flagged), 1e-9)
	assert.InDelta(t, 34.0, ComputePeakKWIncrease(2025, flagged, 2, 3), 1e-9)
}

func TestComputeHPConverts(t *testing.T) {
	recs := withScattershot()

	assert.Equal(t, 35, ComputeHPConverts(2025, fixture(), false, true))
	assert.Equal(t, 35, ComputeHPConverts(2025, recs, false, true))
	assert.Equal(t, 35, ComputeHPConverts(2025, recs, true, true))
	assert.Equal(t, 38, ComputeHPConverts(2025, recs, false, false))
	assert.Equal(t, 45, ComputeHPConverts(2025, recs, true, false))
	assert.Equal(t, 7, ComputeHPConverts(2024, recs, true, false))
	assert.Equal(t, 0, ComputeHPConverts(2024, recs, true, true))
}

func TestComputeNPAInstallCosts(t *testing.T) {
	assert.InDelta(t, 35000.0, ComputeNPAInstallCosts(2025, withScattershot(), 1000), 1e-9)
}

func TestComputePeakKWIncrease(t *testing.T) {
	// 14, 11 and 9 kW for the three fixture projects.
	assert.InDelta(t, 34.0, ComputePeakKWIncrease(2025, withScattershot(), 2, 3), 1e-9)
	assert.Zero(t, ComputePeakKWIncrease(2024, withScattershot(), 2, 3))
}

func TestAppendScattershot_FillsSentinels(t *testing.T) {
	recs := withScattershot()
	require.Len(t, recs, 5)

	ss := Scattershot(recs)
	require.Len(t, ss, 2)
	for _, r := range ss {
		assert.True(t, r.IsScattershot)
		assert.Zero(t, r.PipeValuePerUser)
		assert.Zero(t, r.PipeDecommCostPerUser)
		assert.True(t, math.IsInf(r.PeakKWWinterHeadroom, 1))
		assert.True(t, math.IsInf(r.PeakKWSummerHeadroom, 1))
	}
	assert.Len(t, NPAOnly(recs), 3)
}

func TestGenerateNPAProjects(t *testing.T) {
	recs := GenerateNPAProjects(GenerateConfig{
		StartYear:                   2025,
		EndYear:                     2027,
		TotalNumProjects:            5,
		NumConvertsPerProject:       1,
		PipeValuePerUser:            100,
		PipeDecommCostPerUser:       10,
		PeakKWWinterHeadroom:        100,
		PeakKWSummerHeadroom:        100,
		AirconPercentAdoptionPreNPA: 0.5,
		PipeDecommCostInflationRate: 0.03,
	})

	var years []int
	var converts int
	var pipe, decomm, winter, summer, aircon float64
	for _, r := range recs {
		years = append(years, r.ProjectYear)
		converts += r.NumConverts
		pipe += r.PipeValuePerUser
		decomm += r.PipeDecommCostPerUser
		winter += r.PeakKWWinterHeadroom
		summer += r.PeakKWSummerHeadroom
		aircon += r.AirconPercentAdoptionPreNPA
		assert.False(t, r.IsScattershot)
	}
	assert.Equal(t, []int{2025, 2025, 2026, 2026, 2027}, years)
	assert.Equal(t, 5, converts)
	assert.InDelta(t, 500.0, pipe, 1e-9)
	assert.InDelta(t, 51.209, decomm, 1e-9)
	assert.InDelta(t, 500.0, winter, 1e-9)
	assert.InDelta(t, 500.0, summer, 1e-9)
	assert.InDelta(t, 2.5, aircon, 1e-9)
}

func TestGenerateScattershotProjects(t *testing.T) {
	recs := GenerateScattershotProjects(2025, 2027, 5)
	require.Len(t, recs, 3)

	var counts []int
	for i, r := range recs {
		assert.Equal(t, 2025+i, r.ProjectYear)
		assert.True(t, r.IsScattershot)
		counts = append(counts, r.NumConverts)
	}
	assert.Equal(t, []int{2, 2, 1}, counts)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(withScattershot()))

	bad := fixture()
	bad[0].AirconPercentAdoptionPreNPA = 1.5
	bad[1].NumConverts = -1
	err := Validate(bad)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}
