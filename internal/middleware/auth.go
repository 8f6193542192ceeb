package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cyberkittens/kittens/internal/auth"
	"github.com/cyberkittens/kittens/internal/httperr"
	"github.com/cyberkittens/kittens/internal/metrics"
	"github.com/cyberkittens/kittens/internal/model"
	"github.com/cyberkittens/kittens/internal/repository"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserLookup resolves a user by ID from the store.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// UserCache holds recently resolved users.
type UserCache interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	SetUser(ctx context.Context, user *model.User, ttl time.Duration) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger  *slog.Logger
	Tokens  TokenVerifier
	Users   UserLookup
	Cache   UserCache // optional
	Metrics metrics.Recorder
	// CacheTTL bounds how long a resolved user is reused.
	CacheTTL time.Duration
	// OnError handles store failures. Defaults to a plain 500 response.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// Auth returns a middleware that authenticates requests.
// It verifies the bearer token from the Authorization header, resolves the
// token subject to a user and injects that user into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.OnError == nil {
		cfg.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
			httperr.WriteInternal(w, "Error", err.Error())
		}
	}

	reject := func(w http.ResponseWriter, r *http.Request, reason string, cause error) {
		attrs := []any{
			slog.String("reason", reason),
			slog.String("ip", r.RemoteAddr),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", GetRequestID(r.Context())),
		}
		if cause != nil {
			attrs = append(attrs, slog.String("error", cause.Error()))
		}
		cfg.Logger.Warn("authentication failed", attrs...)
		cfg.Metrics.IncAuthFailure(reason)
		httperr.Write(w, httperr.Unauthorized(cause))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				reject(w, r, metrics.ReasonMissingToken, nil)
				return
			}

			claims, err := cfg.Tokens.Verify(token)
			if err != nil {
				reject(w, r, metrics.ReasonInvalidToken, err)
				return
			}

			user, cacheHit, err := resolveUser(r.Context(), cfg, claims.Subject)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					reject(w, r, metrics.ReasonUnknownUser, err)
					return
				}
				cfg.Logger.Error("user lookup failed during auth",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				cfg.OnError(w, r, err)
				return
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("user_id", user.ID),
				slog.Bool("cache_hit", cacheHit),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveUser looks the subject up in the cache, then the store.
// Cache failures are treated as misses.
func resolveUser(ctx context.Context, cfg AuthConfig, id string) (*model.User, bool, error) {
	if cfg.Cache != nil {
		if user, err := cfg.Cache.GetUser(ctx, id); err == nil && user != nil {
			return user, true, nil
		}
	}

	user, err := cfg.Users.GetUserByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if cfg.Cache != nil {
		if err := cfg.Cache.SetUser(ctx, user, cfg.CacheTTL); err != nil {
			cfg.Logger.Debug("user cache write failed", slog.String("error", err.Error()))
		}
	}

	return user, false, nil
}

// extractBearerToken returns the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
