package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// TokenService signs and verifies HS256 session tokens. It holds no
// secrets; callers pass the secret for the token kind they handle.
type TokenService struct {
	now      func() time.Time
	issuer   string
	audience string
	logger   Logger
}

// TokenServiceOption configures a TokenService
type TokenServiceOption func(*TokenService)

// WithTokenClock overrides the clock used for iat, exp and expiry checks
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenIssuer stamps iss and aud on signed tokens and requires them
// on verification. Empty values disable the respective check.
func WithTokenIssuer(issuer, audience string) TokenServiceOption {
	return func(ts *TokenService) {
		ts.issuer = issuer
		ts.audience = audience
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a new TokenService
func NewTokenService(opts ...TokenServiceOption) *TokenService {
	ts := &TokenService{
		now:    time.Now,
		logger: defLogger{},
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// Sign encodes claims as a JWT signed with secret. The token id, issued
// at and expiry are always set here. A zero ttl is rejected; a negative
// one yields a token that is already expired.
func (ts *TokenService) Sign(claims Claims, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}
	if ttl == 0 {
		return "", time.Time{}, errors.New("sign token: ttl must not be zero")
	}

	payload, ok := payloadFor(claims)
	if !ok {
		return "", time.Time{}, fmt.Errorf("sign token: unsupported claims %T", claims)
	}

	now := ts.now()
	iat := jwt.NewNumericDate(now)
	exp := jwt.NewNumericDate(now.Add(ttl))
	// NumericDate truncates to seconds; exp must stay after iat.
	if ttl > 0 && !exp.Time.After(iat.Time) {
		exp = jwt.NewNumericDate(iat.Time.Add(time.Second))
	}

	payload.ID = ulid.Make().String()
	payload.IssuedAt = iat
	payload.ExpiresAt = exp
	if ts.issuer != "" {
		payload.Issuer = ts.issuer
	}
	if ts.audience != "" {
		payload.Audience = jwt.ClaimStrings{ts.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, exp.Time, nil
}

// Verify checks signature, algorithm and expiry and returns the decoded
// variant. Every failure maps to ErrTokenInvalid; an expired token is
// reported as ErrTokenExpired, which also matches ErrTokenInvalid.
func (ts *TokenService) Verify(tokenString string, secret []byte) (Claims, error) {
	if tokenString == "" || len(secret) == 0 {
		return nil, ErrTokenInvalid
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if ts.audience != "" {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience))
	}

	payload := &tokenPayload{}
	token, err := jwt.ParseWithClaims(tokenString, payload, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		ts.logger.Debug("token verification failed", "error", err)
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := payload.claims()
	if !ok {
		ts.logger.Debug("token has unknown type or no subject", "typ", payload.Type)
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
