package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/testutil"
)

func newAuthTestEnv(t *testing.T) (AuthConfig, *testutil.MemStore, *testutil.MemCache, *auth.TokenIssuer) {
	t.Helper()

	store := testutil.NewMemStore()
	memCache := testutil.NewMemCache()
	issuer := auth.NewTokenIssuer("middleware-test-secret", 30*time.Minute, 24*time.Hour)

	cfg := AuthConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Issuer: issuer,
		Users:  store,
		Cache:  memCache,
	}
	return cfg, store, memCache, issuer
}

func seedActiveUser(t *testing.T, store *testutil.MemStore, username string) *model.User {
	t.Helper()
	user := testutil.NewTestUser(t, username)
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func authedRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuth_ValidToken(t *testing.T) {
	cfg, store, _, issuer := newAuthTestEnv(t)
	user := seedActiveUser(t, store, "alice")

	token, err := issuer.IssueAccessToken(user.ID, user.Username)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	var gotCtx *model.AuthContext
	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCtx = auth.AuthFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(token))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotCtx == nil || gotCtx.UserID != user.ID || gotCtx.Username != "alice" {
		t.Errorf("auth context = %+v, want user %s", gotCtx, user.ID)
	}
}

func TestAuth_MissingOrMalformedToken(t *testing.T) {
	cfg, _, _, _ := newAuthTestEnv(t)

	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for unauthenticated request")
	}))

	for _, token := range []string{"", "not.a.jwt", "garbage"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(token))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want 401", token, rec.Code)
		}
	}
}

func TestAuth_RefreshTokenRejected(t *testing.T) {
	cfg, store, _, issuer := newAuthTestEnv(t)
	user := seedActiveUser(t, store, "alice")

	refresh, err := issuer.IssueRefreshToken(user.ID)
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("refresh token must not authenticate a request")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(refresh))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_InactiveUser(t *testing.T) {
	cfg, store, _, issuer := newAuthTestEnv(t)
	user := seedActiveUser(t, store, "alice")

	token, err := issuer.IssueAccessToken(user.ID, user.Username)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	user.IsActive = false
	if err := store.UpdateUser(context.Background(), user); err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("inactive user must not reach the handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(token))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestAuth_UnknownSubject(t *testing.T) {
	cfg, _, _, issuer := newAuthTestEnv(t)

	token, err := issuer.IssueAccessToken("deleted-user-id", "ghost")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unknown subject must not reach the handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(token))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_CachesResolvedContext(t *testing.T) {
	cfg, store, memCache, issuer := newAuthTestEnv(t)
	user := seedActiveUser(t, store, "alice")

	token, err := issuer.IssueAccessToken(user.ID, user.Username)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}
	if !memCache.Has("auth:user:" + user.ID) {
		t.Fatal("auth context should be cached after first request")
	}

	// Second request must be served from the cached context even if the
	// store goes away.
	cfg.Users = nil
	handler = Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(token))
	if rec.Code != http.StatusOK {
		t.Errorf("cached request status = %d, want 200", rec.Code)
	}
}

func TestAuth_CacheOutageFallsBackToStore(t *testing.T) {
	cfg, store, memCache, issuer := newAuthTestEnv(t)
	user := seedActiveUser(t, store, "alice")

	token, err := issuer.IssueAccessToken(user.ID, user.Username)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	memCache.Down = true

	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(token))
	if rec.Code != http.StatusOK {
		t.Errorf("status with cache down = %d, want 200", rec.Code)
	}
}
