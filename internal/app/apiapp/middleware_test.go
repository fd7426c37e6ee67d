package apiapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	redrepo "github.com/bondly-app/backend/internal/repo/redis"
	authsvc "github.com/bondly-app/backend/internal/services/auth"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc", want: "abc", ok: true},
		{header: "bearer   xyz", want: "xyz", ok: true},
		{header: "Basic abc", ok: false},
		{header: "Bearer ", ok: false},
		{header: "", ok: false},
	}

	for _, tc := range cases {
		got, ok := extractBearerToken(tc.header)
		if ok != tc.ok {
			t.Fatalf("extractBearerToken(%q) ok=%v want %v", tc.header, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("extractBearerToken(%q) = %q want %q", tc.header, got, tc.want)
		}
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	mw := AuthMiddleware(newTestAuthService(t), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rr := httptest.NewRecorder()
	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("handler must not be called without a token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareRejectsUnknownSession(t *testing.T) {
	jwtManager := authsvc.NewJWTManager("test-secret", 15*time.Minute)
	token, _, err := jwtManager.GenerateAccessToken("1b4e28ba-2fa1-11d2-883f-0016d3cca427", "sid-missing", "user")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	mw := AuthMiddleware(newTestAuthService(t), zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("handler must not be called for a revoked session")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	svc, sessions := newTestAuthServiceWithSessions(t)
	jwtManager := authsvc.NewJWTManager("test-secret", 15*time.Minute)
	userID := "1b4e28ba-2fa1-11d2-883f-0016d3cca427"

	err := sessions.Create(context.Background(), authsvc.SessionRecord{
		SID:       "sid-1",
		UserID:    userID,
		Role:      "user",
		ExpiresAt: time.Now().Add(time.Hour),
	}, "refresh-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	token, _, err := jwtManager.GenerateAccessToken(userID, "sid-1", "user")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	mw := AuthMiddleware(svc, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok || identity.UserID != userID || identity.SID != "sid-1" {
			t.Fatalf("unexpected identity: %+v", identity)
		}
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := requestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["status"]; got != int64(http.StatusTeapot) {
		t.Fatalf("unexpected logged status: %v", got)
	}
}

func newTestAuthService(t *testing.T) *authsvc.Service {
	t.Helper()
	svc, _ := newTestAuthServiceWithSessions(t)
	return svc
}

func newTestAuthServiceWithSessions(t *testing.T) (*authsvc.Service, *redrepo.SessionRepo) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	sessions := redrepo.NewSessionRepo(redisClient)
	svc := authsvc.NewService(authsvc.Dependencies{
		JWT:      authsvc.NewJWTManager("test-secret", 15*time.Minute),
		Sessions: sessions,
	}, 45*24*time.Hour)
	return svc, sessions
}
