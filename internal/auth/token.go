package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for any token that fails verification:
	// bad signature, wrong algorithm, expired, malformed or missing subject.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSecret is returned when the signing secret is not configured.
	ErrMissingSecret = errors.New("token signing secret is required")
)

// userIDClaim carries the user ID in tokens minted by this service.
// The registered "sub" claim is accepted as a fallback.
const userIDClaim = "id"

// TokenConfig holds the TokenService configuration.
type TokenConfig struct {
	// Secret is the HMAC signing secret. Required.
	Secret []byte

	// Issuer is set as "iss" on issued tokens and, when non-empty, required on
	// verified tokens.
	Issuer string

	// TTL is the lifetime of issued tokens. Default: 24 hours.
	TTL time.Duration

	// Now overrides the clock. Used by tests.
	Now func() time.Time
}

// Claims is the decoded payload of a verified token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero if the token never expires
}

// TokenService signs and verifies HS256 bearer tokens.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. The secret must be non-empty.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenService{
		secret: cfg.Secret,
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    cfg.Now,
	}, nil
}

// Verify checks the token signature and standard claims and returns the
// decoded payload. Every failure wraps ErrInvalidToken.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	token, err := jwtlib.Parse(tokenStr, func(token *jwtlib.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, s.parserOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}

	subject := subjectFromClaims(claims)
	if subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	decoded := &Claims{Subject: subject}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		decoded.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		decoded.ExpiresAt = exp.Time
	}

	return decoded, nil
}

// Issue signs a token for the given user ID.
// Returns the token and its expiry.
func (s *TokenService) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user ID is required")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := jwtlib.MapClaims{
		userIDClaim: userID,
		"sub":       userID,
		"iat":       jwtlib.NewNumericDate(now),
		"exp":       jwtlib.NewNumericDate(expiresAt),
	}
	if s.issuer != "" {
		claims["iss"] = s.issuer
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// parserOptions builds JWT parser options based on the configuration.
func (s *TokenService) parserOptions() []jwtlib.ParserOption {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithIssuedAt(),
	}

	if s.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(s.issuer))
	}

	return opts
}

// subjectFromClaims extracts the user ID. The "id" claim may be a string or
// a number; "sub" is used when "id" is absent.
func subjectFromClaims(claims jwtlib.MapClaims) string {
	switch v := claims[userIDClaim].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
