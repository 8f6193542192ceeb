package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cyberkittens/kittens/internal/auth"
	"github.com/cyberkittens/kittens/internal/cache"
	"github.com/cyberkittens/kittens/internal/metrics"
	"github.com/cyberkittens/kittens/internal/model"
	"github.com/cyberkittens/kittens/internal/repository"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
	calls int
	err   error
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

type fakeUserCache struct {
	mu     sync.Mutex
	users  map[string]*model.User
	getErr error
	ttls   []time.Duration
}

func (f *fakeUserCache) GetUser(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	user, ok := f.users[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return user, nil
}

func (f *fakeUserCache) SetUser(ctx context.Context, user *model.User, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	f.ttls = append(f.ttls, ttl)
	return nil
}

const testSecret = "kittens-test-secret"

func newTokens(t *testing.T, secret string, now func() time.Time) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: []byte(secret), TTL: time.Hour, Now: now})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return tokens
}

func issue(t *testing.T, tokens *auth.TokenService, userID string) string {
	t.Helper()
	token, _, err := tokens.Issue(userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

type authEnv struct {
	handler  http.Handler
	users    *fakeUsers
	cache    *fakeUserCache
	recorder *metrics.InMemoryRecorder
	logs     *bytes.Buffer
	tokens   *auth.TokenService
	reached  *bool
	seen     **model.User
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()

	env := &authEnv{
		users: &fakeUsers{users: map[string]*model.User{
			"alice": {ID: "alice", Email: "alice@kittens.test"},
		}},
		cache:    &fakeUserCache{users: map[string]*model.User{}},
		recorder: metrics.NewInMemory(),
		logs:     &bytes.Buffer{},
		tokens:   newTokens(t, testSecret, nil),
		reached:  new(bool),
		seen:     new(*model.User),
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*env.reached = true
		*env.seen = auth.UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	env.handler = Auth(AuthConfig{
		Logger:   slog.New(slog.NewJSONHandler(env.logs, nil)),
		Tokens:   env.tokens,
		Users:    env.users,
		Cache:    env.cache,
		Metrics:  env.recorder,
		CacheTTL: 2 * time.Minute,
	})(next)

	return env
}

func (env *authEnv) do(authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/kittens/1", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func TestAuth_Success(t *testing.T) {
	t.Parallel()
	env := newAuthEnv(t)

	rec := env.do("Bearer " + issue(t, env.tokens, "alice"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !*env.reached {
		t.Fatal("next handler not called")
	}
	if *env.seen == nil || (*env.seen).ID != "alice" {
		t.Errorf("context user = %+v, want alice", *env.seen)
	}
	if _, ok := env.cache.users["alice"]; !ok {
		t.Error("resolved user should be written to cache")
	}
	if len(env.cache.ttls) != 1 || env.cache.ttls[0] != 2*time.Minute {
		t.Errorf("cache ttls = %v, want [2m]", env.cache.ttls)
	}
}

func TestAuth_LowercaseScheme(t *testing.T) {
	t.Parallel()
	env := newAuthEnv(t)

	rec := env.do("bearer " + issue(t, env.tokens, "alice"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAuth_CacheHitSkipsStore(t *testing.T) {
	t.Parallel()
	env := newAuthEnv(t)
	env.cache.users["alice"] = &model.User{ID: "alice"}

	rec := env.do("Bearer " + issue(t, env.tokens, "alice"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.users.calls != 0 {
		t.Errorf("store calls = %d, want 0", env.users.calls)
	}
}

func TestAuth_CacheErrorFallsBackToStore(t *testing.T) {
	t.Parallel()
	env := newAuthEnv(t)
	env.cache.getErr = errors.New("redis down")

	rec := env.do("Bearer " + issue(t, env.tokens, "alice"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.users.calls != 1 {
		t.Errorf("store calls = %d, want 1", env.users.calls)
	}
}

func TestAuth_Rejections(t *testing.T) {
	t.Parallel()

	past := func() time.Time { return time.Now().Add(-2 * time.Hour) }

	tests := []struct {
		name       string
		header     func(t *testing.T, env *authEnv) string
		wantReason string
	}{
		{
			name:       "missing header",
			header:     func(*testing.T, *authEnv) string { return "" },
			wantReason: metrics.ReasonMissingToken,
		},
		{
			name:       "wrong scheme",
			header:     func(*testing.T, *authEnv) string { return "Basic dXNlcjpwYXNz" },
			wantReason: metrics.ReasonMissingToken,
		},
		{
			name:       "empty bearer",
			header:     func(*testing.T, *authEnv) string { return "Bearer " },
			wantReason: metrics.ReasonMissingToken,
		},
		{
			name:       "garbage token",
			header:     func(*testing.T, *authEnv) string { return "Bearer not-a-jwt" },
			wantReason: metrics.ReasonInvalidToken,
		},
		{
			name: "wrong secret",
			header: func(t *testing.T, _ *authEnv) string {
				return "Bearer " + issue(t, newTokens(t, "other-secret", nil), "alice")
			},
			wantReason: metrics.ReasonInvalidToken,
		},
		{
			name: "expired token",
			header: func(t *testing.T, _ *authEnv) string {
				return "Bearer " + issue(t, newTokens(t, testSecret, past), "alice")
			},
			wantReason: metrics.ReasonInvalidToken,
		},
		{
			name: "unknown subject",
			header: func(t *testing.T, env *authEnv) string {
				return "Bearer " + issue(t, env.tokens, "ghost")
			},
			wantReason: metrics.ReasonUnknownUser,
		},
	}

	var bodies []string
	var mu sync.Mutex

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newAuthEnv(t)
			rec := env.do(tt.header(t, env))

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if *env.reached {
				t.Error("next handler must not run")
			}
			if got := env.recorder.Snapshot().AuthFailures[tt.wantReason]; got != 1 {
				t.Errorf("auth failures[%s] = %d, want 1", tt.wantReason, got)
			}
			if !strings.Contains(env.logs.String(), `"reason":"`+tt.wantReason+`"`) {
				t.Errorf("expected reason %q in logs, got %s", tt.wantReason, env.logs.String())
			}

			body, _ := io.ReadAll(rec.Body)
			mu.Lock()
			bodies = append(bodies, string(body))
			mu.Unlock()
		})
	}

	// Every rejection looks the same to the caller.
	for _, b := range bodies[1:] {
		if b != bodies[0] {
			t.Errorf("401 bodies differ: %q vs %q", b, bodies[0])
		}
	}
	var decoded map[string]string
	if err := json.Unmarshal([]byte(bodies[0]), &decoded); err != nil {
		t.Fatalf("decode 401 body: %v", err)
	}
	if decoded["code"] != "UNAUTHORIZED" {
		t.Errorf("code = %q, want UNAUTHORIZED", decoded["code"])
	}
}

func TestAuth_StoreErrorForwardedToOnError(t *testing.T) {
	t.Parallel()

	users := &fakeUsers{err: errors.New("connection refused")}
	tokens := newTokens(t, testSecret, nil)

	var forwarded error
	handler := Auth(AuthConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tokens: tokens,
		Users:  users,
		OnError: func(w http.ResponseWriter, r *http.Request, err error) {
			forwarded = err
			w.WriteHeader(http.StatusInternalServerError)
		},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/kittens/1", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, tokens, "alice"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if forwarded == nil || forwarded.Error() != "connection refused" {
		t.Errorf("forwarded error = %v", forwarded)
	}
}

func TestAuth_DefaultOnErrorWrites500(t *testing.T) {
	t.Parallel()

	tokens := newTokens(t, testSecret, nil)
	handler := Auth(AuthConfig{
		Tokens: tokens,
		Users:  &fakeUsers{err: errors.New("db gone")},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, tokens, "alice"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["message"] != "db gone" || body["error"] != "db gone" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"BEARER abc", "abc"},
		{"Bearer   abc  ", "abc"},
		{"Bearer", ""},
		{"Token abc", ""},
		{"abc", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := extractBearerToken(req); got != tt.want {
			t.Errorf("extractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
