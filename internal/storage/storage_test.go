package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	ctx := context.Background()

	st, err := Open(ctx, Config{
		Driver:      "sqlite",
		DSN:         filepath.Join(t.TempDir(), "test.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return map[string]Storage{
		"memory": NewMemory(),
		"sqlite": st,
	}
}

func TestAnalysesRoundTrip(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

			for i, id := range []string{"a1", "a2", "a3"} {
				require.NoError(t, st.CreateAnalysis(ctx, Analysis{
					ID:        id,
					RunName:   "sample",
					Source:    "file",
					StartYear: 2025,
					EndYear:   2050,
					Status:    StatusRunning,
					Request:   []byte(`{"run":"sample"}`),
					CreatedAt: base.Add(time.Duration(i) * time.Hour),
				}))
			}

			got, err := st.GetAnalysis(ctx, "a2")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "sample", got.RunName)
			assert.Equal(t, StatusRunning, got.Status)
			assert.JSONEq(t, `{"run":"sample"}`, string(got.Request))

			missing, err := st.GetAnalysis(ctx, "nope")
			require.NoError(t, err)
			assert.Nil(t, missing)

			done := base.Add(5 * time.Hour)
			got.Status = StatusSucceeded
			got.Deltas = []byte(`[]`)
			got.CompletedAt = &done
			require.NoError(t, st.UpdateAnalysis(ctx, *got))

			got, err = st.GetAnalysis(ctx, "a2")
			require.NoError(t, err)
			assert.Equal(t, StatusSucceeded, got.Status)
			assert.Equal(t, `[]`, string(got.Deltas))
			require.NotNil(t, got.CompletedAt)

			assert.Error(t, st.UpdateAnalysis(ctx, Analysis{ID: "nope"}))

			list, err := st.ListAnalyses(ctx, 2)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "a3", list[0].ID)
			assert.Equal(t, "a2", list[1].ID)
		})
	}
}

func TestScenarioResultsUpsert(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.CreateAnalysis(ctx, Analysis{ID: "x", Status: StatusRunning}))

			require.NoError(t, st.SaveScenarioResults(ctx, []ScenarioResult{
				{AnalysisID: "x", ScenarioID: "taxpayer", Rows: []byte(`[1]`)},
				{AnalysisID: "x", ScenarioID: "bau", Rows: []byte(`[2]`)},
			}))
			require.NoError(t, st.SaveScenarioResults(ctx, []ScenarioResult{
				{AnalysisID: "x", ScenarioID: "bau", Rows: []byte(`[3]`)},
			}))

			res, err := st.GetScenarioResults(ctx, "x")
			require.NoError(t, err)
			require.Len(t, res, 2)
			assert.Equal(t, "bau", res[0].ScenarioID)
			assert.Equal(t, `[3]`, string(res[0].Rows))
			assert.Equal(t, "taxpayer", res[1].ScenarioID)

			none, err := st.GetScenarioResults(ctx, "other")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestUsersTokensAndRules(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now()
			require.NoError(t, st.CreateUser(ctx, User{ID: "u1", Username: "ann", Role: "admin", CreatedAt: now, UpdatedAt: now}))
			assert.Error(t, st.CreateUser(ctx, User{ID: "u2", Username: "ann"}))

			u, err := st.GetUserByUsername(ctx, "ann")
			require.NoError(t, err)
			require.NotNil(t, u)
			assert.Equal(t, "admin", u.Role)

			require.NoError(t, st.CreateToken(ctx, Token{ID: "t1", UserID: "u1", TokenHash: "h1", Role: "viewer", CreatedAt: now}))
			tok, err := st.GetTokenByHash(ctx, "h1")
			require.NoError(t, err)
			require.NotNil(t, tok)
			assert.Nil(t, tok.LastUsedAt)

			require.NoError(t, st.UpdateTokenLastUsed(ctx, "t1"))
			tok, err = st.GetTokenByHash(ctx, "h1")
			require.NoError(t, err)
			assert.NotNil(t, tok.LastUsedAt)

			toks, err := st.ListTokens(ctx, "u1")
			require.NoError(t, err)
			assert.Len(t, toks, 1)

			require.NoError(t, st.DeleteToken(ctx, "t1"))
			tok, err = st.GetTokenByHash(ctx, "h1")
			require.NoError(t, err)
			assert.Nil(t, tok)

			require.NoError(t, st.AddCasbinRule(ctx, NewCasbinRule("p", []string{"admin", "analyses", "write"})))
			require.NoError(t, st.AddCasbinRule(ctx, NewCasbinRule("p", []string{"viewer", "analyses", "read"})))
			require.NoError(t, st.RemoveCasbinRule(ctx, NewCasbinRule("p", []string{"admin", "analyses", "write"})))
			rules, err := st.LoadCasbinRules(ctx)
			require.NoError(t, err)
			require.Len(t, rules, 1)
			assert.Equal(t, []string{"viewer", "analyses", "read"}, rules[0].Fields())
		})
	}
}

func TestSettingsEmailAndJobs(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			v, err := st.GetSetting(ctx, "cron_run")
			require.NoError(t, err)
			assert.Empty(t, v)
			require.NoError(t, st.SetSetting(ctx, "cron_run", "sample"))
			require.NoError(t, st.SetSetting(ctx, "cron_run", "other"))
			v, err = st.GetSetting(ctx, "cron_run")
			require.NoError(t, err)
			assert.Equal(t, "other", v)

			cfg, err := st.GetEmailConfig(ctx)
			require.NoError(t, err)
			assert.Nil(t, cfg)
			require.NoError(t, st.SaveEmailConfig(ctx, EmailConfig{Provider: "smtp", Host: "mail", Port: 25, Recipients: "a@b.c", Enabled: true}))
			cfg, err = st.GetEmailConfig(ctx)
			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.Equal(t, "mail", cfg.Host)

			started := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
			require.NoError(t, st.UpdateScheduledJob(ctx, "rerun", started, 1500*time.Millisecond, false, "boom"))
			job, err := st.GetScheduledJob(ctx, "rerun")
			require.NoError(t, err)
			require.NotNil(t, job)
			assert.Equal(t, int64(1500), job.LastDurationMs)
			assert.False(t, job.LastSuccess)
			assert.Equal(t, "boom", job.LastError)

			require.NoError(t, st.Ping(ctx))
		})
	}
}

func TestMemoryAdvisoryLock(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ok, err := m.AcquireAdvisoryLock(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.AcquireAdvisoryLock(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	released, err := m.ReleaseAdvisoryLock(ctx, 42)
	require.NoError(t, err)
	assert.True(t, released)

	ok, err = m.AcquireAdvisoryLock(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mongo"})
	assert.Error(t, err)
}
