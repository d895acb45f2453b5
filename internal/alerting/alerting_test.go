package alerting

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webhook(t *testing.T, status int) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var got []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(b, &m)
		got = append(got, m)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func sampleAlert(failures int) JobAlert {
	return JobAlert{
		JobName:             "scheduled_analysis",
		RunName:             "sample",
		Error:               "zero usage",
		ConsecutiveFailures: failures,
		Duration:            1500 * time.Millisecond,
		Timestamp:           time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSendJobAlert_Generic(t *testing.T) {
	srv, got := webhook(t, http.StatusOK)
	a := NewAlerter(AlertConfig{WebhookURL: srv.URL, MinFailuresBeforeAlert: 2})

	require.NoError(t, a.SendJobAlert(context.Background(), sampleAlert(1)))
	assert.Empty(t, *got)

	require.NoError(t, a.SendJobAlert(context.Background(), sampleAlert(2)))
	require.Len(t, *got, 1)
	p := (*got)[0]
	assert.Equal(t, "scheduled_analysis_failure", p["alert_type"])
	assert.Equal(t, "sample", p["run_name"])
	assert.Equal(t, 1500.0, p["duration_ms"])
	assert.Equal(t, "2025-01-01T00:00:00Z", p["timestamp"])
}

func TestSendJobAlert_SlackAndDiscordShapes(t *testing.T) {
	srv, got := webhook(t, http.StatusOK)

	require.NoError(t, NewAlerter(AlertConfig{WebhookURL: srv.URL, WebhookType: "slack"}).SendJobAlert(context.Background(), sampleAlert(1)))
	require.NoError(t, NewAlerter(AlertConfig{WebhookURL: srv.URL, WebhookType: "discord"}).SendJobAlert(context.Background(), sampleAlert(1)))
	require.Len(t, *got, 2)
	assert.Contains(t, (*got)[0], "blocks")
	assert.Contains(t, (*got)[1], "embeds")
}

func TestSendJobAlert_ErrorStatus(t *testing.T) {
	srv, _ := webhook(t, http.StatusInternalServerError)
	err := NewAlerter(AlertConfig{WebhookURL: srv.URL}).SendJobAlert(context.Background(), sampleAlert(1))
	assert.ErrorContains(t, err, "status 500")
}

func TestDisabled(t *testing.T) {
	a := NewAlerter(AlertConfig{})
	assert.NoError(t, a.SendJobAlert(context.Background(), sampleAlert(5)))
}

func TestWebhookTypeDetection(t *testing.T) {
	assert.Equal(t, "slack", AlertConfig{WebhookURL: "https://hooks.slack.com/x"}.webhookType())
	assert.Equal(t, "discord", AlertConfig{WebhookURL: "https://discord.com/api/webhooks/x"}.webhookType())
	assert.Equal(t, "generic", AlertConfig{WebhookURL: "https://example.com"}.webhookType())
}
