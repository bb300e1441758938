package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/handler/dto"
	"github.com/taskdeck/taskdeck/internal/service"
	"github.com/taskdeck/taskdeck/internal/testutil"
)

func newAuthHandlerEnv() (*chi.Mux, *service.UserService) {
	store := testutil.NewMemStore()
	memCache := testutil.NewMemCache()
	issuer := auth.NewTokenIssuer("handler-test-secret", 30*time.Minute, 7*24*time.Hour)
	svc := service.NewUserService(store, memCache, issuer)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAuthHandler(svc, logger)

	r := chi.NewRouter()
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Get("/me", h.Me)
		r.Patch("/me", h.UpdateMe)
	})
	return r, svc
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestAuthHandler_Register(t *testing.T) {
	router, _ := newAuthHandlerEnv()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "correct-horse",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	raw := rec.Body.String()
	var resp dto.UserResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("decode user response: %v", err)
	}
	if resp.ID == "" || resp.Username != "alice" || !resp.IsActive {
		t.Errorf("unexpected user response: %+v", resp)
	}
	if strings.Contains(raw, "password") {
		t.Error("register response must not echo password material")
	}
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	router, svc := newAuthHandlerEnv()

	if _, err := svc.Register(context.Background(), service.RegisterInput{
		Email: "alice@example.com", Username: "alice", Password: "correct-horse",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
		Email: "other@example.com", Username: "alice", Password: "correct-horse",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if errResp := decodeError(t, rec); errResp.Code != "USER_EXISTS" {
		t.Errorf("code = %q, want USER_EXISTS", errResp.Code)
	}
}

func TestAuthHandler_Register_Invalid(t *testing.T) {
	router, _ := newAuthHandlerEnv()

	tests := []struct {
		name     string
		body     dto.RegisterRequest
		wantCode string
	}{
		{"bad email", dto.RegisterRequest{Email: "nope", Username: "alice", Password: "correct-horse"}, "INVALID_EMAIL"},
		{"short username", dto.RegisterRequest{Email: "a@b.com", Username: "ab", Password: "correct-horse"}, "INVALID_USERNAME"},
		{"short password", dto.RegisterRequest{Email: "a@b.com", Username: "alice", Password: "short"}, "INVALID_PASSWORD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if errResp := decodeError(t, rec); errResp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", errResp.Code, tt.wantCode)
			}
		})
	}
}

func TestAuthHandler_LoginAndRefresh(t *testing.T) {
	router, svc := newAuthHandlerEnv()

	if _, err := svc.Register(context.Background(), service.RegisterInput{
		Email: "alice@example.com", Username: "alice", Password: "correct-horse",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{
		Username: "alice", Password: "correct-horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var tokens dto.TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&tokens); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" || tokens.TokenType != "bearer" {
		t.Errorf("unexpected token response: %+v", tokens)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", "", dto.RefreshRequest{
		RefreshToken: tokens.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	router, svc := newAuthHandlerEnv()

	if _, err := svc.Register(context.Background(), service.RegisterInput{
		Email: "alice@example.com", Username: "alice", Password: "correct-horse",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	tests := []struct {
		name string
		body dto.LoginRequest
	}{
		{"wrong password", dto.LoginRequest{Username: "alice", Password: "wrong-password"}},
		{"unknown user", dto.LoginRequest{Username: "nobody", Password: "correct-horse"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", tt.body)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if errResp := decodeError(t, rec); errResp.Code != "INVALID_CREDENTIALS" {
				t.Errorf("code = %q, want INVALID_CREDENTIALS", errResp.Code)
			}
		})
	}
}

func TestAuthHandler_Refresh_AccessTokenRejected(t *testing.T) {
	router, svc := newAuthHandlerEnv()

	if _, err := svc.Register(context.Background(), service.RegisterInput{
		Email: "alice@example.com", Username: "alice", Password: "correct-horse",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	pair, err := svc.Login(context.Background(), "alice", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", "", dto.RefreshRequest{
		RefreshToken: pair.AccessToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthHandler_MeAndUpdate(t *testing.T) {
	router, svc := newAuthHandlerEnv()

	user, err := svc.Register(context.Background(), service.RegisterInput{
		Email: "alice@example.com", Username: "alice", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", user.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, want 200", rec.Code)
	}
	var resp dto.UserResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode user response: %v", err)
	}
	if resp.Email != "alice@example.com" {
		t.Errorf("email = %q", resp.Email)
	}

	fullName := "Alice Liddell"
	rec = doJSON(t, router, http.MethodPatch, "/api/v1/auth/me", user.ID, dto.UpdateProfileRequest{
		FullName: &fullName,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode user response: %v", err)
	}
	if resp.FullName != fullName {
		t.Errorf("full_name = %q, want %q", resp.FullName, fullName)
	}
}
