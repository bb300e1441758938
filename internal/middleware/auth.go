package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/repository"
)

// UserLoader loads users for token validation.
// *repository.Repository satisfies it.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AuthContextCache caches resolved auth contexts between requests.
// *cache.Cache satisfies it; failures degrade to a store lookup.
type AuthContextCache interface {
	GetAuthContext(ctx context.Context, userID string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, authCtx *model.AuthContext) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger *slog.Logger
	Issuer *auth.TokenIssuer
	Users  UserLoader
	Cache  AuthContextCache
}

// Auth returns a middleware that authenticates requests with a Bearer
// access token. On success the resolved auth context is injected into
// the request context and cached for subsequent requests.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				cfg.logFailure(r, "missing_token")
				writeAuthError(w)
				return
			}

			claims, err := cfg.Issuer.Verify(token, auth.TokenTypeAccess)
			if err != nil {
				cfg.logFailure(r, "invalid_token")
				writeAuthError(w)
				return
			}

			authCtx, cacheHit := cfg.resolveAuthContext(r.Context(), claims.Subject)
			if authCtx == nil {
				user, err := cfg.Users.GetUserByID(r.Context(), claims.Subject)
				if err != nil {
					if errors.Is(err, repository.ErrUserNotFound) {
						cfg.logFailure(r, "unknown_user")
						writeAuthError(w)
						return
					}
					cfg.Logger.Error("database error during auth",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					writeAuthError(w)
					return
				}

				if !user.IsActive {
					cfg.logFailure(r, "inactive_user")
					writeInactiveError(w)
					return
				}

				authCtx = &model.AuthContext{
					UserID:   user.ID,
					Username: user.Username,
					Role:     user.Role,
				}
				_ = cfg.Cache.SetAuthContext(r.Context(), authCtx)
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("user_id", authCtx.UserID),
				slog.Bool("cache_hit", cacheHit),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveAuthContext returns the cached auth context if present.
func (cfg AuthConfig) resolveAuthContext(ctx context.Context, userID string) (*model.AuthContext, bool) {
	if cfg.Cache == nil {
		return nil, false
	}
	authCtx, err := cfg.Cache.GetAuthContext(ctx, userID)
	if err != nil {
		return nil, false
	}
	return authCtx, true
}

func (cfg AuthConfig) logFailure(r *http.Request, reason string) {
	cfg.Logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// extractBearerToken extracts the access token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing access token","code":"UNAUTHORIZED"}`))
}

// writeInactiveError writes a 403 Forbidden response.
func writeInactiveError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"User account is inactive","code":"INACTIVE_USER"}`))
}
