package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/common"
	"github.com/dmitrijs2005/tiergate/internal/logging"
	"github.com/dmitrijs2005/tiergate/internal/server/auth"
	"github.com/dmitrijs2005/tiergate/internal/server/events"
	"github.com/dmitrijs2005/tiergate/internal/server/mailer"
	"github.com/dmitrijs2005/tiergate/internal/server/models"
	"github.com/dmitrijs2005/tiergate/internal/server/policy"
	"github.com/dmitrijs2005/tiergate/internal/server/repositories/memory"
	"github.com/dmitrijs2005/tiergate/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (s *captureSender) Send(_ context.Context, m mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, m)
	return nil
}

func (s *captureSender) last(t *testing.T) url.Values {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent)
	u, err := url.Parse(s.sent[len(s.sent)-1].Link)
	require.NoError(t, err)
	return u.Query()
}

const httpSecret = "http-secret"

func bearer(t *testing.T, email, secret string) map[string]string {
	t.Helper()
	tok, err := auth.GenerateSessionToken(email, []byte(secret), time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + tok}
}

type testEnv struct {
	srv    *Server
	store  *memory.Store
	sender *captureSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	p := policy.New(policy.Limits{Tier1: 1, Tier2: 3})
	pub := events.Discard{}
	log := logging.Nop{}
	sender := &captureSender{}

	access := services.NewAccessService(store, p, pub, log)
	tiers := services.NewTierService(store, p, pub, log)
	links := services.NewMagicLinkService(store, httpSecret, time.Hour, auth.NewSessionIssuer(httpSecret, time.Hour), pub, log)
	invites := services.NewInviteService(store, tiers, links, sender, pub, log, services.InviteConfig{
		PublicBaseURL:      "https://read.example.com",
		DefaultRedirectURL: "https://read.example.com/welcome",
		AdminEmails:        []string{"admin@example.com"},
	})

	return &testEnv{
		srv:    NewServer(":0", log, access, tiers, links, invites, auth.NewAdminAuthenticator(httpSecret, invites), time.Second),
		store:  store,
		sender: sender,
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (e *testEnv) tierOf(t *testing.T, email string) models.Tier {
	t.Helper()
	rec, err := e.store.Tiers().Get(context.Background(), email)
	require.NoError(t, err)
	return rec.Tier
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	code, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestCheckAccess_NotAllowed(t *testing.T) {
	env := newTestEnv(t)
	code, body := env.do(t, http.MethodPost, "/api/v1/access/check", `{"post_slug":"p1","user_email":"ghost@example.com"}`, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["can_access"])
	assert.Equal(t, "not_allowed", body["reason"])
}

func TestCheckAccess_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/v1/access/check", `{"user_email":"u@example.com"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Missing post_slug", body["error"])

	code, body = env.do(t, http.MethodPost, "/api/v1/access/check", `{"post_slug":"p1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Missing user_email", body["error"])
}

func TestCheckAccess_QuotaFlow(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.srv.tiers.RequestTierChange(context.Background(), "reader@example.com", models.Tier1, services.TierChangeOptions{})
	require.NoError(t, err)

	_, body := env.do(t, http.MethodPost, "/api/v1/access/check", `{"post_slug":"p1","user_email":"Reader@Example.com"}`, nil)
	assert.Equal(t, true, body["can_access"])
	assert.Equal(t, "newly_unlocked", body["reason"])

	_, body = env.do(t, http.MethodPost, "/api/v1/access/check", `{"content_id":"p1","user_email":"reader@example.com"}`, nil)
	assert.Equal(t, "already_unlocked", body["reason"])

	_, body = env.do(t, http.MethodPost, "/api/v1/access/check", `{"post_slug":"p2","user_email":"reader@example.com"}`, nil)
	assert.Equal(t, false, body["can_access"])
	assert.Equal(t, "tier1_limit", body["reason"])
}

func TestInviteAndVerify(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/v1/invite", `{"email":"new@example.com"}`, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, models.Tier1, env.tierOf(t, "new@example.com"))

	q := env.sender.last(t)
	verify := `{"email":"` + q.Get("email") + `","token":"` + q.Get("token") + `","redirect_to":"https://evil.example.net"}`

	code, body = env.do(t, http.MethodPost, "/api/v1/magic-link/verify", verify, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "https://read.example.com/welcome", body["redirect_url"])
	assert.NotEmpty(t, body["session_token"])

	code, body = env.do(t, http.MethodPost, "/api/v1/magic-link/verify", verify, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid or expired magic link", body["error"])
}

func TestInvite_InvalidEmail(t *testing.T) {
	env := newTestEnv(t)
	for _, payload := range []string{`{"email":"nobody"}`, `{"email":"@"}`, `{}`} {
		code, body := env.do(t, http.MethodPost, "/api/v1/invite", payload, nil)
		assert.Equal(t, http.StatusBadRequest, code, payload)
		assert.Contains(t, body["error"], "validation error", payload)
	}
	assert.Empty(t, env.sender.sent)
}

func TestVerify_Failures(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/v1/magic-link/verify", `{"email":"u@example.com"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Token and email are required", body["error"])

	code, body = env.do(t, http.MethodPost, "/api/v1/magic-link/verify", `{"email":"u@example.com","token":"deadbeef"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid or expired magic link", body["error"])

	code, _ = env.do(t, http.MethodPost, "/api/v1/magic-link/verify", `{"email":"not-an-email","token":"deadbeef"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminGenerateLink(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/v1/admin/generate-link", `{"email":"lead@corp.com","promo_report_slug":"q3"}`,
		bearer(t, "admin@example.com", httpSecret))
	require.Equal(t, http.StatusOK, code, body)

	link, err := url.Parse(body["link"].(string))
	require.NoError(t, err)
	assert.Equal(t, "/auth/verify", link.Path)
	assert.Equal(t, "https://read.example.com/q3?promo_report=q3", link.Query().Get("redirect_to"))
	assert.Equal(t, models.Tier1, env.tierOf(t, "lead@corp.com"))

	entries := env.store.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "admin@example.com", entries[0].AdminEmail)
	assert.Empty(t, env.sender.sent)
}

func TestAdminGenerateLink_Unauthorized(t *testing.T) {
	env := newTestEnv(t)
	const payload = `{"email":"victim@example.com"}`

	tests := []struct {
		name    string
		headers map[string]string
		code    int
	}{
		{"no credentials", nil, http.StatusUnauthorized},
		{"admin e-mail header only", map[string]string{"X-Admin-Email": "admin@example.com"}, http.StatusUnauthorized},
		{"raw e-mail as bearer", map[string]string{"Authorization": "Bearer admin@example.com"}, http.StatusUnauthorized},
		{"missing bearer prefix", map[string]string{"Authorization": "admin@example.com"}, http.StatusUnauthorized},
		{"token signed with another secret", bearer(t, "admin@example.com", "forged-secret"), http.StatusUnauthorized},
		{"valid token of a non-admin", bearer(t, "reader@example.com", httpSecret), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := env.do(t, http.MethodPost, "/api/v1/admin/generate-link", payload, tt.headers)
			assert.Equal(t, tt.code, code)
			assert.NotContains(t, body, "link")
		})
	}

	_, err := env.store.MagicTokens().Get(context.Background(), "victim@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Empty(t, env.store.AuditEntries())
}

func TestTypeformWebhook(t *testing.T) {
	env := newTestEnv(t)
	payload := `{"form_response":{"hidden":{"user_email":"Survey@Example.com"},"answers":[
		{"type":"choice","choice":{"label":"Fintech"}},
		{"type":"opinion_scale","number":9}
	]}}`

	code, body := env.do(t, http.MethodPost, "/api/v1/webhooks/typeform", payload, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "applied", body["outcome"])
	assert.Equal(t, models.Tier2, env.tierOf(t, "survey@example.com"))

	code, body = env.do(t, http.MethodPost, "/api/v1/webhooks/typeform", `{"form_response":{"hidden":{}}}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Missing user email", body["error"])
}

func TestVIPWebhook(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/api/v1/webhooks/vip?email=booked@example.com", "", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, models.TierVIP, env.tierOf(t, "booked@example.com"))

	code, body = env.do(t, http.MethodPost, "/api/v1/webhooks/vip", `{"payload":{"invitee":{"email":"invitee@example.com"}}}`, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, models.TierVIP, env.tierOf(t, "invitee@example.com"))

	code, body = env.do(t, http.MethodPost, "/api/v1/webhooks/vip", `{"payload":{"email":"p@example.com"}}`, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, models.TierVIP, env.tierOf(t, "p@example.com"))

	code, _ = env.do(t, http.MethodPost, "/api/v1/webhooks/vip", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSurveyAnswers(t *testing.T) {
	n := 7.0
	sector, nps := surveyAnswers([]typeformAnswer{
		{Type: "text", Text: "Climate"},
		{Type: "number", Number: &n},
		{Type: "email", Text: "ignored"},
	})
	assert.Equal(t, "Climate", sector)
	assert.Equal(t, 7.0, nps)

	sector, nps = surveyAnswers(nil)
	assert.Empty(t, sector)
	assert.Zero(t, nps)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	env := newTestEnv(t)
	env.srv.address = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.srv.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("http server did not stop")
	}
}
