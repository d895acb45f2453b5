package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bher20/npahowtopay/internal/storage"
)

func newService(t *testing.T) (*Service, *storage.MemoryStorage) {
	t.Helper()
	st := storage.NewMemory()
	svc, err := NewService(st)
	require.NoError(t, err)
	return svc, st
}

func TestNewService_SeedsPoliciesOnce(t *testing.T) {
	svc, st := newService(t)
	rules, err := st.LoadCasbinRules(context.Background())
	require.NoError(t, err)
	assert.Len(t, rules, len(defaultPolicies))

	_, err = NewService(st)
	require.NoError(t, err)
	rules, err = st.LoadCasbinRules(context.Background())
	require.NoError(t, err)
	assert.Len(t, rules, len(defaultPolicies))

	tests := []struct {
		role, obj, act string
		want           bool
	}{
		{RoleAdmin, ObjSettings, ActWrite, true},
		{RoleAnalyst, ObjAnalyses, ActWrite, true},
		{RoleAnalyst, ObjSettings, ActWrite, false},
		{RoleViewer, ObjAnalyses, ActRead, true},
		{RoleViewer, ObjAnalyses, ActWrite, false},
	}
	for _, tt := range tests {
		ok, err := svc.Enforce(tt.role, tt.obj, tt.act)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "%s %s %s", tt.role, tt.obj, tt.act)
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "ana", "ana@example.com", "s3cret", RoleAnalyst)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	_, err = svc.Register(ctx, "ana", "", "other", RoleViewer)
	assert.ErrorIs(t, err, ErrUserExists)
	_, err = svc.Register(ctx, "bob", "", "pw", "root")
	assert.ErrorIs(t, err, ErrUnknownRole)

	got, err := svc.Authenticate(ctx, "ana", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ana", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	ok, err := svc.Enforce(u.ID, ObjAnalyses, ActWrite)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTokens(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	tok, raw, err := svc.CreateToken(ctx, "u1", "ci", RoleViewer, nil)
	require.NoError(t, err)
	assert.NotEqual(t, raw, tok.TokenHash)

	got, err := svc.ValidateToken(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, tok.ID, got.ID)

	stored, err := st.GetTokenByHash(ctx, tok.TokenHash)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastUsedAt)

	_, err = svc.ValidateToken(ctx, "bogus")
	assert.ErrorIs(t, err, ErrInvalidToken)

	past := time.Now().Add(-time.Hour)
	_, raw, err = svc.CreateToken(ctx, "u1", "old", RoleViewer, &past)
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestMiddleware(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, viewer, err := svc.CreateToken(ctx, "u1", "v", RoleViewer, nil)
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := svc.Middleware(svc.RequirePermission(ObjAnalyses, ActWrite, ok))
	hRead := svc.Middleware(svc.RequirePermission(ObjAnalyses, ActRead, ok))

	do := func(h http.Handler, header string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, do(h, ""))
	assert.Equal(t, http.StatusUnauthorized, do(h, "Basic abc"))
	assert.Equal(t, http.StatusUnauthorized, do(h, "Bearer nope"))
	assert.Equal(t, http.StatusForbidden, do(h, "Bearer "+viewer))
	assert.Equal(t, http.StatusNoContent, do(hRead, "Bearer "+viewer))
}

func TestAdapterRemoveFilteredPolicy(t *testing.T) {
	svc, st := newService(t)
	_, err := svc.enforcer.RemoveFilteredPolicy(0, RoleAnalyst)
	require.NoError(t, err)

	rules, err := st.LoadCasbinRules(context.Background())
	require.NoError(t, err)
	for _, r := range rules {
		assert.NotEqual(t, RoleAnalyst, r.V0)
	}
	assert.Len(t, rules, len(defaultPolicies)-3)
}

func TestParseExpirationDuration(t *testing.T) {
	got, err := ParseExpirationDuration("never")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseExpirationDuration("30d")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), *got, time.Minute)

	got, err = ParseExpirationDuration("2w")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(14*24*time.Hour), *got, time.Minute)

	got, err = ParseExpirationDuration("90m")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(90*time.Minute), *got, time.Minute)

	_, err = ParseExpirationDuration("01/01/2001")
	assert.Error(t, err)
	_, err = ParseExpirationDuration("soon")
	assert.Error(t, err)
}
