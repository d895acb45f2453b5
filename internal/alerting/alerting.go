package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// AlertConfig holds alerting configuration.
type AlertConfig struct {
	// WebhookURL is a Slack, Discord or generic webhook endpoint.
	WebhookURL string
	// WebhookType selects the payload format: "slack", "discord" or "generic".
	// Empty means detect from the URL.
	WebhookType string
	// MinFailuresBeforeAlert is the number of consecutive failed runs
	// needed before an alert is sent.
	MinFailuresBeforeAlert int
	Timeout                time.Duration
}

// Enabled reports whether a webhook is configured.
func (c AlertConfig) Enabled() bool { return c.WebhookURL != "" }

func (c AlertConfig) webhookType() string {
	if c.WebhookType != "" {
		return c.WebhookType
	}
	switch {
	case strings.Contains(c.WebhookURL, "slack.com"):
		return "slack"
	case strings.Contains(c.WebhookURL, "discord.com"):
		return "discord"
	}
	return "generic"
}

// Alerter sends alerts to configured webhooks.
type Alerter struct {
	cfg    AlertConfig
	client *http.Client
}

// NewAlerter creates a new alerter instance.
func NewAlerter(cfg AlertConfig) *Alerter {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MinFailuresBeforeAlert < 1 {
		cfg.MinFailuresBeforeAlert = 1
	}
	return &Alerter{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// JobAlert describes a failed scheduled analysis.
type JobAlert struct {
	JobName             string        `json:"job_name"`
	RunName             string        `json:"run_name"`
	AnalysisID          string        `json:"analysis_id,omitempty"`
	Error               string        `json:"error"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	Duration            time.Duration `json:"-"`
	Timestamp           time.Time     `json:"-"`
}

// SendJobAlert posts alert to the webhook once the failure threshold is met.
func (a *Alerter) SendJobAlert(ctx context.Context, alert JobAlert) error {
	if !a.cfg.Enabled() {
		log.Printf("alerting: alerts disabled, skipping")
		return nil
	}
	if alert.ConsecutiveFailures < a.cfg.MinFailuresBeforeAlert {
		log.Printf("alerting: %d consecutive failures below threshold (%d), skipping",
			alert.ConsecutiveFailures, a.cfg.MinFailuresBeforeAlert)
		return nil
	}

	var payload []byte
	var err error
	switch a.cfg.webhookType() {
	case "slack":
		payload, err = buildSlackPayload(alert)
	case "discord":
		payload, err = buildDiscordPayload(alert)
	default:
		payload, err = buildGenericPayload(alert)
	}
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	log.Printf("alerting: sent alert for job %s run %s", alert.JobName, alert.RunName)
	return nil
}

func buildSlackPayload(alert JobAlert) ([]byte, error) {
	payload := map[string]any{
		"blocks": []map[string]any{
			{
				"type": "header",
				"text": map[string]string{
					"type": "plain_text",
					"text": fmt.Sprintf(":x: Scheduled analysis failed: %s", alert.JobName),
				},
			},
			{
				"type": "section",
				"fields": []map[string]string{
					{"type": "mrkdwn", "text": fmt.Sprintf("*Run:*\n%s", alert.RunName)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Consecutive failures:*\n%d", alert.ConsecutiveFailures)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Duration:*\n%s", alert.Duration.Round(time.Millisecond))},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Timestamp:*\n%s", alert.Timestamp.Format(time.RFC3339))},
				},
			},
			{
				"type": "section",
				"text": map[string]string{"type": "mrkdwn", "text": fmt.Sprintf("*Error:*\n```%s```", alert.Error)},
			},
		},
	}
	return json.Marshal(payload)
}

func buildDiscordPayload(alert JobAlert) ([]byte, error) {
	payload := map[string]any{
		"embeds": []map[string]any{
			{
				"title":       fmt.Sprintf("Scheduled analysis failed: %s", alert.JobName),
				"description": alert.Error,
				"color":       16711680,
				"fields": []map[string]any{
					{"name": "Run", "value": alert.RunName, "inline": true},
					{"name": "Consecutive failures", "value": fmt.Sprintf("%d", alert.ConsecutiveFailures), "inline": true},
					{"name": "Duration", "value": alert.Duration.Round(time.Millisecond).String(), "inline": true},
				},
				"timestamp": alert.Timestamp.Format(time.RFC3339),
			},
		},
	}
	return json.Marshal(payload)
}

func buildGenericPayload(alert JobAlert) ([]byte, error) {
	payload := map[string]any{
		"alert_type":           "scheduled_analysis_failure",
		"job_name":             alert.JobName,
		"run_name":             alert.RunName,
		"analysis_id":          alert.AnalysisID,
		"error":                alert.Error,
		"consecutive_failures": alert.ConsecutiveFailures,
		"duration_ms":          alert.Duration.Milliseconds(),
		"timestamp":            alert.Timestamp.Format(time.RFC3339),
	}
	return json.Marshal(payload)
}
