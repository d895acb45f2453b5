package npa

import "math"

// GenerateConfig describes a uniform NPA program over [StartYear, EndYear].
type GenerateConfig struct {
	StartYear                   int
	EndYear                     int
	TotalNumProjects            int
	NumConvertsPerProject       int
	PipeValuePerUser            float64
	PipeDecommCostPerUser       float64
	PeakKWWinterHeadroom        float64
	PeakKWSummerHeadroom        float64
	AirconPercentAdoptionPreNPA float64
	PipeDecommCostInflationRate float64
}

// spread splits total over n slots, giving the remainder to the earliest slots.
func spread(total, n int) []int {
	if n <= 0 {
		return nil
	}
	base, rem := total/n, total%n
	out := make([]int, n)
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}

// GenerateNPAProjects emits one record per project, spreading the project
// count evenly across the inclusive year range. Decommissioning cost is
// escalated from the start year.
func GenerateNPAProjects(cfg GenerateConfig) []Record {
	out := Empty()
	for i, count := range spread(cfg.TotalNumProjects, cfg.EndYear-cfg.StartYear+1) {
		year := cfg.StartYear + i
		decomm := cfg.PipeDecommCostPerUser * math.Pow(1+cfg.PipeDecommCostInflationRate, float64(i))
		for j := 0; j < count; j++ {
			out = append(out, Record{
				ProjectYear:                 year,
				NumConverts:                 cfg.NumConvertsPerProject,
				PipeValuePerUser:            cfg.PipeValuePerUser,
				PipeDecommCostPerUser:       decomm,
				PeakKWWinterHeadroom:        cfg.PeakKWWinterHeadroom,
				PeakKWSummerHeadroom:        cfg.PeakKWSummerHeadroom,
				AirconPercentAdoptionPreNPA: cfg.AirconPercentAdoptionPreNPA,
			})
		}
	}
	return out
}

// GenerateScattershotProjects emits one scattershot record per year in the
// inclusive range, spreading totalNumConverts the same way.
func GenerateScattershotProjects(startYear, endYear, totalNumConverts int) []Record {
	out := Empty()
	for i, count := range spread(totalNumConverts, endYear-startYear+1) {
		out = append(out, ScattershotRecord(startYear+i, count))
	}
	return out
}
