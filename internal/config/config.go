package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bher20/npahowtopay/internal/alerting"
)

// InfluxConfig points the optional results exporter at an InfluxDB v2 bucket.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Enabled reports whether an InfluxDB URL was configured.
func (c InfluxConfig) Enabled() bool { return c.URL != "" }

type Config struct {
	Port        string
	DBDriver    string
	DBDSN       string
	AutoMigrate bool
	AuthEnabled bool
	// TokenExpiry is the lifetime of tokens issued by the login endpoint,
	// in auth.ParseExpirationDuration syntax.
	TokenExpiry string
	DataDir     string
	Parallel    bool

	// CronSchedule is integer seconds or a standard cron expression.
	CronSchedule string
	// CronRun names the run under DataDir to re-analyze; "*" means all runs.
	CronRun   string
	CronStart int
	CronEnd   int

	Influx InfluxConfig
	Alert  alerting.AlertConfig
}

// FromEnv builds a Config from NPAHOWTOPAY_* environment variables, with sane defaults.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	str := func(key, def string) string {
		if v, ok := lookup("NPAHOWTOPAY_" + key); ok && v != "" {
			return v
		}
		return def
	}
	var errs []string
	integer := func(key string, def int) int {
		raw := str(key, "")
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("NPAHOWTOPAY_%s=%q is not an integer", key, raw))
			return def
		}
		return v
	}
	boolean := func(key string, def bool) bool {
		switch strings.ToLower(str(key, "")) {
		case "":
			return def
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
		errs = append(errs, fmt.Sprintf("NPAHOWTOPAY_%s is not a boolean", key))
		return def
	}

	cfg := Config{
		Port:         str("PORT", "8080"),
		DBDriver:     str("DB_DRIVER", "sqlite"),
		DBDSN:        str("DB_DSN", ""),
		AutoMigrate:  boolean("AUTO_MIGRATE", true),
		AuthEnabled:  boolean("AUTH_ENABLED", false),
		TokenExpiry:  str("TOKEN_EXPIRY", "30d"),
		DataDir:      str("DATA_DIR", "data"),
		Parallel:     boolean("PARALLEL", true),
		CronSchedule: str("CRON_SCHEDULE", "0 3 * * *"),
		CronRun:      str("CRON_RUN", "sample"),
		CronStart:    integer("CRON_START_YEAR", 0),
		CronEnd:      integer("CRON_END_YEAR", 0),
		Influx: InfluxConfig{
			URL:    str("INFLUX_URL", ""),
			Token:  str("INFLUX_TOKEN", ""),
			Org:    str("INFLUX_ORG", "npahowtopay"),
			Bucket: str("INFLUX_BUCKET", "npahowtopay"),
		},
		Alert: alerting.AlertConfig{
			WebhookURL:             str("ALERT_WEBHOOK_URL", ""),
			WebhookType:            str("ALERT_WEBHOOK_TYPE", ""),
			MinFailuresBeforeAlert: integer("ALERT_MIN_FAILURES", 1),
			Timeout:                time.Duration(integer("ALERT_TIMEOUT_SECONDS", 10)) * time.Second,
		},
	}
	if cfg.DBDSN == "" && cfg.DBDriver == "sqlite" {
		cfg.DBDSN = "npahowtopay.db"
	}
	if len(errs) > 0 {
		return cfg, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}
