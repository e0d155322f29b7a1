package auth

import (
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultAccessTTL is used when ACCESS_EXPIRES_IN is missing or unparseable
	DefaultAccessTTL = 15 * time.Minute
	// DefaultRefreshTTL is used when REFRESH_EXPIRES_IN is missing or unparseable
	DefaultRefreshTTL = 24 * time.Hour
	// DefaultBcryptCost is the work factor for stored password hashes
	DefaultBcryptCost = 12
	// DefaultRefreshPath scopes the refresh cookie to the refresh endpoint
	DefaultRefreshPath = "/auth/refresh"
)

// ErrConfig is returned for invalid or incomplete configuration.
var ErrConfig = errors.New("invalid config")

// Config is the immutable runtime configuration shared by the token
// service, the cookie manager and the session issuer. Build it once at
// startup and pass it by value.
type Config struct {
	// AccessSecret signs access tokens. Required.
	AccessSecret []byte
	// RefreshSecret signs refresh tokens. Required and must differ from AccessSecret.
	RefreshSecret []byte

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Roles is the allow list copied into every access token at issuance.
	Roles []string

	// Production turns on the Secure cookie attribute.
	Production bool

	// Issuer and Audience are optional; when set they are stamped on
	// tokens and required on verification.
	Issuer   string
	Audience string

	BcryptCost  int
	RefreshPath string
}

// LoadConfigFromEnv loads Config from environment variables.
//
// Required:
//   - JWT_ACCESS_SECRET
//   - JWT_REFRESH_SECRET
//
// Optional:
//   - ACCESS_EXPIRES_IN, REFRESH_EXPIRES_IN (e.g. "15m", "1d")
//   - AUTH_ROLES (falls back to SUBMITTERS), comma separated
//   - APP_ENV (falls back to NODE_ENV), "production" enables Secure cookies
//   - AUTH_ISSUER, AUTH_AUDIENCE
//   - AUTH_BCRYPT_COST
//
// Returns an error wrapping ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := Config{
		AccessSecret:  []byte(os.Getenv("JWT_ACCESS_SECRET")),
		RefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTTL:     ParseTTL(os.Getenv("ACCESS_EXPIRES_IN"), DefaultAccessTTL),
		RefreshTTL:    ParseTTL(os.Getenv("REFRESH_EXPIRES_IN"), DefaultRefreshTTL),
		Roles:         ParseRoles(firstEnv("AUTH_ROLES", "SUBMITTERS")),
		Production:    strings.EqualFold(firstEnv("APP_ENV", "NODE_ENV"), "production"),
		Issuer:        strings.TrimSpace(os.Getenv("AUTH_ISSUER")),
		Audience:      strings.TrimSpace(os.Getenv("AUTH_AUDIENCE")),
		BcryptCost:    DefaultBcryptCost,
		RefreshPath:   DefaultRefreshPath,
	}

	if v := strings.TrimSpace(os.Getenv("AUTH_BCRYPT_COST")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: AUTH_BCRYPT_COST %q", ErrConfig, v)
		}
		cfg.BcryptCost = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the invariants the session subsystem depends on.
func (c Config) Validate() error {
	if len(c.AccessSecret) == 0 {
		return fmt.Errorf("%w: access secret is required", ErrConfig)
	}
	if len(c.RefreshSecret) == 0 {
		return fmt.Errorf("%w: refresh secret is required", ErrConfig)
	}
	if string(c.AccessSecret) == string(c.RefreshSecret) {
		return fmt.Errorf("%w: access and refresh secrets must differ", ErrConfig)
	}
	if c.AccessTTL < 0 || c.RefreshTTL < 0 {
		return fmt.Errorf("%w: token ttl must not be negative", ErrConfig)
	}
	if c.BcryptCost != 0 && (c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost) {
		return fmt.Errorf("%w: bcrypt cost %d out of range", ErrConfig, c.BcryptCost)
	}
	return nil
}

// withDefaults fills zero values and detaches slices from the caller.
func (c Config) withDefaults() Config {
	if c.AccessTTL == 0 {
		c.AccessTTL = DefaultAccessTTL
	}
	if c.RefreshTTL == 0 {
		c.RefreshTTL = DefaultRefreshTTL
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = DefaultBcryptCost
	}
	if c.RefreshPath == "" {
		c.RefreshPath = DefaultRefreshPath
	}
	c.AccessSecret = append([]byte(nil), c.AccessSecret...)
	c.RefreshSecret = append([]byte(nil), c.RefreshSecret...)
	c.Roles = append([]string{}, c.Roles...)
	return c
}

var ttlPattern = regexp.MustCompile(`^(\d+)\s*([smhdSMHD])$`)

// ParseTTL parses "<integer><unit>" where unit is one of s, m, h, d.
// Missing, malformed, zero or overflowing values return fallback.
func ParseTTL(value string, fallback time.Duration) time.Duration {
	m := ttlPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return fallback
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}

	var unit time.Duration
	switch strings.ToLower(m[2]) {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}

	if n > int64(math.MaxInt64/unit) {
		return fallback
	}
	return time.Duration(n) * unit
}

// ParseRoles splits a comma separated allow list, trimming entries and
// dropping empty ones. Order is preserved.
func ParseRoles(value string) []string {
	roles := []string{}
	for _, part := range strings.Split(value, ",") {
		if role := strings.TrimSpace(part); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}
