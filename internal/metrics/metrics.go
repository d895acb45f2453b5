package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "npahowtopay_requests_total",
			Help: "Total number of HTTP requests per route",
		},
		[]string{"route"},
	)

	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "npahowtopay_request_duration_seconds",
			Help:    "Request duration in seconds per route and method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "npahowtopay_request_errors_total",
			Help: "Total number of error responses per route and status code",
		},
		[]string{"route", "code"},
	)
)

// ObserveRequest records one HTTP request. Codes >= 400 count as errors.
func ObserveRequest(route, method string, code int, startedAt time.Time) {
	RequestsTotal.WithLabelValues(route).Inc()
	RequestDurationSeconds.WithLabelValues(route, method).Observe(time.Since(startedAt).Seconds())
	if code >= 400 {
		RequestErrorsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	}
}

var (
	ScenarioRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "npahowtopay_scenario_runs_total",
			Help: "Scenario model runs per scenario and outcome",
		},
		[]string{"scenario", "outcome"},
	)

	ScenarioDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "npahowtopay_scenario_duration_seconds",
			Help:    "Wall time of one scenario model run",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"scenario"},
	)

	ScenarioYears = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "npahowtopay_scenario_years",
			Help: "Number of years produced by the last run of a scenario",
		},
		[]string{"scenario"},
	)

	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "npahowtopay_analyses_total",
			Help: "Completed analyses per source and status",
		},
		[]string{"source", "status"},
	)
)

// ObserveScenario matches model.RunOptions.OnScenarioDone.
func ObserveScenario(name string, startedAt time.Time, rows int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ScenarioRunsTotal.WithLabelValues(name, outcome).Inc()
	ScenarioDurationSeconds.WithLabelValues(name).Observe(time.Since(startedAt).Seconds())
	if err == nil {
		ScenarioYears.WithLabelValues(name).Set(float64(rows))
	}
}

var (
	DBPoolTotalConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "npahowtopay_db_pool_total_conns",
			Help: "Total number of connections in the DB pool per driver",
		},
		[]string{"driver"},
	)

	DBPoolIdleConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "npahowtopay_db_pool_idle_conns",
			Help: "Idle connections in the DB pool per driver",
		},
		[]string{"driver"},
	)

	DBPoolAcquiredConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "npahowtopay_db_pool_acquired_conns",
			Help: "Currently acquired (in-use) connections per driver",
		},
		[]string{"driver"},
	)

	DBPoolAcquiresTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "npahowtopay_db_pool_acquires",
			Help: "Cumulative number of connection acquires per driver",
		},
		[]string{"driver"},
	)
)

// UpdateDBPoolMetrics publishes a pool snapshot. acquires is the pool's
// cumulative count, so it is set rather than added.
func UpdateDBPoolMetrics(driver string, total, idle, acquired float64, acquires int64) {
	DBPoolTotalConns.WithLabelValues(driver).Set(total)
	DBPoolIdleConns.WithLabelValues(driver).Set(idle)
	DBPoolAcquiredConns.WithLabelValues(driver).Set(acquired)
	DBPoolAcquiresTotal.WithLabelValues(driver).Set(float64(acquires))
}

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "npahowtopay_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "npahowtopay_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "npahowtopay_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

func UpdateJobMetrics(job string, startedAt time.Time, err error) {
	ScheduledJobLastDurationSeconds.WithLabelValues(job).Set(time.Since(startedAt).Seconds())
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	if err != nil {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
	}
}
