package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cyberkittens/kittens/internal/auth"
	"github.com/cyberkittens/kittens/internal/model"
	"github.com/cyberkittens/kittens/internal/repository"
)

type output struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		secret      = flag.String("jwt-secret", os.Getenv("JWT_SECRET"), "Token signing secret")
		issuer      = flag.String("jwt-issuer", os.Getenv("JWT_ISSUER"), "Token issuer")
		email       = flag.String("email", "", "User email (required)")
		password    = flag.String("password", os.Getenv("BOOTSTRAP_PASSWORD"), "User password (required)")
		ttl         = flag.Duration("ttl", 24*time.Hour, "Token lifetime")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fail("DATABASE_URL is required")
	}
	if *secret == "" {
		fail("JWT_SECRET is required")
	}
	if strings.TrimSpace(*email) == "" || *password == "" {
		fail("-email and -password are required")
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(*secret),
		Issuer: *issuer,
		TTL:    *ttl,
	})
	if err != nil {
		fail("token service:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL, repository.Options{MaxConns: 2})
	if err != nil {
		fail("connect database:", err)
	}
	defer repo.Close()

	user, err := ensureUser(ctx, repo, strings.TrimSpace(*email), *password)
	if err != nil {
		fail(err)
	}

	token, expiresAt, err := tokens.Issue(user.ID)
	if err != nil {
		fail("issue token:", err)
	}

	out := output{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: expiresAt,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.Token)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fail("invalid format; use plain or json")
	}
}

// ensureUser returns the user with the given email, creating it when absent.
// An existing user must match the supplied password.
func ensureUser(ctx context.Context, repo *repository.Repository, email, password string) (*model.User, error) {
	existing, err := repo.GetUserByEmail(ctx, email)
	if err == nil {
		if err := auth.CheckPassword(password, existing.PasswordHash); err != nil {
			return nil, fmt.Errorf("user %s exists with a different password", email)
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func fail(args ...any) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}
