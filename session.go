package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenPair is a freshly minted access and refresh token with their
// absolute expiry times.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Profile is the projection of verified access claims served by /auth/me
type Profile struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// SessionIssuer runs the register, login and refresh flows. It returns
// token pairs and leaves carrying them to the transport layer.
type SessionIssuer struct {
	cfg       Config
	users     UserStore
	tokens    *TokenService
	passwords PasswordVerifier
	logger    Logger
	metrics   *Metrics
	activity  ActivitySink
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// SessionIssuerOption configures a SessionIssuer
type SessionIssuerOption func(*SessionIssuer)

func WithIssuerLogger(logger Logger) SessionIssuerOption {
	return func(s *SessionIssuer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIssuerMetrics counts issued tokens and records outcomes as activity
func WithIssuerMetrics(m *Metrics) SessionIssuerOption {
	return func(s *SessionIssuer) {
		s.metrics = m
	}
}

func WithPasswordVerifier(v PasswordVerifier) SessionIssuerOption {
	return func(s *SessionIssuer) {
		if v != nil {
			s.passwords = v
		}
	}
}

func WithTokenService(ts *TokenService) SessionIssuerOption {
	return func(s *SessionIssuer) {
		if ts != nil {
			s.tokens = ts
		}
	}
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func WithActivitySink(sink ActivitySink) SessionIssuerOption {
	return func(s *SessionIssuer) {
		s.activity = normalizeActivitySink(sink)
	}
}

// NewSessionIssuer validates cfg and wires the default collaborators:
// a bcrypt verifier at cfg.BcryptCost and a token service stamping
// cfg.Issuer and cfg.Audience.
func NewSessionIssuer(cfg Config, users UserStore, opts ...SessionIssuerOption) (*SessionIssuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if users == nil {
		return nil, fmt.Errorf("%w: user store is required", ErrConfig)
	}

	cfg = cfg.withDefaults()
	s := &SessionIssuer{
		cfg:      cfg,
		users:    users,
		logger:   defLogger{},
		activity: noopActivitySink{},
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.passwords == nil {
		s.passwords = NewBcryptVerifier(cfg.BcryptCost, s.logger)
	}
	if s.tokens == nil {
		s.tokens = NewTokenService(
			WithTokenIssuer(cfg.Issuer, cfg.Audience),
			WithTokenLogger(s.logger),
		)
	}
	if s.metrics != nil {
		s.activity = MultiActivitySink{s.activity, s.metrics}
	}

	return s, nil
}

// Config returns the configuration the issuer was built with
func (s *SessionIssuer) Config() Config {
	return s.cfg
}

// Register creates a user and issues its first token pair.
func (s *SessionIssuer) Register(ctx context.Context, creds Credentials) (PublicUser, TokenPair, error) {
	creds = creds.Normalized()

	if err := creds.ValidateRegistration(); err != nil {
		s.emit(ctx, ActivityEventRegisterFailure, "", map[string]any{"reason": textCode(err)})
		return PublicUser{}, TokenPair{}, err
	}

	// Fast path only; the store's unique index is what guarantees it.
	if _, err := s.users.FindByEmail(ctx, creds.Email); err == nil {
		s.emit(ctx, ActivityEventRegisterFailure, "", map[string]any{"reason": ErrEmailExists.TextCode})
		return PublicUser{}, TokenPair{}, ErrEmailExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return PublicUser{}, TokenPair{}, s.internal(ctx, ActivityEventRegisterFailure, "register lookup user", err)
	}

	hash, err := s.passwords.Hash(creds.Password)
	if err != nil {
		return PublicUser{}, TokenPair{}, s.internal(ctx, ActivityEventRegisterFailure, "register hash password", err)
	}

	user, err := s.users.Create(ctx, &User{Email: creds.Email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			s.emit(ctx, ActivityEventRegisterFailure, "", map[string]any{"reason": ErrEmailExists.TextCode})
			return PublicUser{}, TokenPair{}, ErrEmailExists
		}
		return PublicUser{}, TokenPair{}, s.internal(ctx, ActivityEventRegisterFailure, "register create user", err)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return PublicUser{}, TokenPair{}, s.internal(ctx, ActivityEventRegisterFailure, "register issue tokens", err)
	}

	s.logger.Info("user registered", "user_id", user.ID.String())
	s.emit(ctx, ActivityEventRegisterSuccess, user.ID.String(), nil)

	return user.Public(), pair, nil
}

// Login verifies credentials and issues a token pair. Unknown emails and
// wrong passwords both return ErrInvalidCredentials, and both pay for
// one bcrypt comparison.
func (s *SessionIssuer) Login(ctx context.Context, creds Credentials) (PublicUser, TokenPair, error) {
	creds = creds.Normalized()

	if err := creds.ValidateLogin(); err != nil {
		s.emit(ctx, ActivityEventLoginFailure, "", map[string]any{"reason": textCode(err)})
		return PublicUser{}, TokenPair{}, err
	}

	user, err := s.users.FindByEmail(ctx, creds.Email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return PublicUser{}, TokenPair{}, s.internal(ctx, ActivityEventLoginFailure, "login lookup user", err)
		}
		s.passwords.Verify(creds.Password, s.placeholderHash())
		s.emit(ctx, ActivityEventLoginFailure, "", map[string]any{"reason": "unknown_email"})
		return PublicUser{}, TokenPair{}, ErrInvalidCredentials
	}

	if !s.passwords.Verify(creds.Password, user.PasswordHash) {
		s.emit(ctx, ActivityEventLoginFailure, user.ID.String(), map[string]any{"reason": "password_mismatch"})
		return PublicUser{}, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return PublicUser{}, TokenPair{}, s.internal(ctx, ActivityEventLoginFailure, "login issue tokens", err)
	}

	s.emit(ctx, ActivityEventLoginSuccess, user.ID.String(), nil)

	return user.Public(), pair, nil
}

// Refresh exchanges a refresh token for a new pair built from the
// current user record. The presented token is not revoked.
func (s *SessionIssuer) Refresh(ctx context.Context, refreshToken string) (PublicUser, TokenPair, error) {
	if refreshToken == "" {
		s.emit(ctx, ActivityEventRefreshFailure, "", map[string]any{"reason": ErrMissingRefreshToken.TextCode})
		return PublicUser{}, TokenPair{}, ErrMissingRefreshToken
	}

	claims, err := s.tokens.Verify(refreshToken, s.cfg.RefreshSecret)
	if err != nil {
		s.logger.Debug("refresh token rejected", "error", err)
		s.emit(ctx, ActivityEventRefreshFailure, "", map[string]any{"reason": "verify"})
		return PublicUser{}, TokenPair{}, ErrInvalidRefreshToken
	}

	rc, ok := claims.(*RefreshClaims)
	if !ok || rc.UserID == "" {
		s.emit(ctx, ActivityEventRefreshFailure, claims.Subject(), map[string]any{"reason": "kind", "kind": string(claims.Kind())})
		return PublicUser{}, TokenPair{}, ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, rc.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.emit(ctx, ActivityEventRefreshFailure, rc.UserID, map[string]any{"reason": "unknown_user"})
			return PublicUser{}, TokenPair{}, ErrInvalidRefreshToken
		}
		return PublicUser{}, TokenPair{}, s.internal(ctx, ActivityEventRefreshFailure, "refresh lookup user", err)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return PublicUser{}, TokenPair{}, s.internal(ctx, ActivityEventRefreshFailure, "refresh issue tokens", err)
	}

	s.emit(ctx, ActivityEventRefreshSuccess, user.ID.String(), nil)

	return user.Public(), pair, nil
}

// Logout only records the event; tokens stay valid until they expire.
func (s *SessionIssuer) Logout(ctx context.Context, userID string) {
	s.emit(ctx, ActivityEventLogout, userID, nil)
}

// Me projects verified access claims. It never reads the store, so the
// roles are those stamped at issuance.
func (s *SessionIssuer) Me(claims *AccessClaims) Profile {
	roles := append([]string{}, claims.Roles...)
	return Profile{ID: claims.UserID, Email: claims.Email, Roles: roles}
}

// AuthenticateAccess verifies an access token and checks its kind.
func (s *SessionIssuer) AuthenticateAccess(token string) (*AccessClaims, error) {
	if token == "" {
		return nil, ErrMissingAccessToken
	}

	claims, err := s.tokens.Verify(token, s.cfg.AccessSecret)
	if err != nil {
		s.logger.Debug("access token rejected", "error", err)
		return nil, ErrInvalidAccessToken
	}

	ac, ok := claims.(*AccessClaims)
	if !ok || ac.UserID == "" {
		return nil, ErrInvalidAccessToken
	}

	return ac, nil
}

func (s *SessionIssuer) issuePair(user *User) (TokenPair, error) {
	uid := user.ID.String()

	access, accessExp, err := s.tokens.Sign(&AccessClaims{
		UserID: uid,
		Email:  user.Email,
		Roles:  s.cfg.Roles,
	}, s.cfg.AccessSecret, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	s.metrics.tokenIssued(KindAccess)

	refresh, refreshExp, err := s.tokens.Sign(&RefreshClaims{UserID: uid}, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	s.metrics.tokenIssued(KindRefresh)

	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// fallbackPlaceholderHash is a bcrypt hash (cost 10) used when hashing
// the random placeholder fails.
const fallbackPlaceholderHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// placeholderHash is compared against on logins for unknown emails
func (s *SessionIssuer) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.passwords.Hash(uuid.NewString())
		if err != nil || hash == "" {
			s.logger.Warn("placeholder password hash unavailable, using fallback", "error", err)
			hash = fallbackPlaceholderHash
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *SessionIssuer) internal(ctx context.Context, event ActivityEventType, op string, err error) error {
	s.logger.Error(op+" failed", "error", err)
	s.emit(ctx, event, "", map[string]any{"reason": ErrServer.TextCode})
	return internalError(op, err)
}

func (s *SessionIssuer) emit(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: s.now().UTC(),
	}
	if err := s.activity.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record failed", "event", string(eventType), "error", err)
	}
}

func textCode(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil {
		return richErr.TextCode
	}
	return "unknown"
}
