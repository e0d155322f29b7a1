package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// CookieManager writes and clears the two session cookies. Clearing
// reuses the exact path and flags used when setting, otherwise browsers
// keep the original cookie.
type CookieManager struct {
	secure      bool
	accessTTL   time.Duration
	refreshTTL  time.Duration
	refreshPath string
}

func NewCookieManager(cfg Config) *CookieManager {
	cfg = cfg.withDefaults()
	return &CookieManager{
		secure:      cfg.Production,
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		refreshPath: cfg.RefreshPath,
	}
}

// Attach sets both cookies from pair
func (m *CookieManager) Attach(c *fiber.Ctx, pair TokenPair) {
	c.Cookie(m.cookie(AccessCookieName, pair.AccessToken, "/", m.accessTTL, pair.AccessExpiresAt))
	c.Cookie(m.cookie(RefreshCookieName, pair.RefreshToken, m.refreshPath, m.refreshTTL, pair.RefreshExpiresAt))
}

// Clear expires both cookies
func (m *CookieManager) Clear(c *fiber.Ctx) {
	expired := time.Now().Add(-time.Hour * (24 * 365))
	c.Cookie(m.cookie(AccessCookieName, "", "/", -time.Second, expired))
	c.Cookie(m.cookie(RefreshCookieName, "", m.refreshPath, -time.Second, expired))
}

func (m *CookieManager) AccessToken(c *fiber.Ctx) string {
	return c.Cookies(AccessCookieName)
}

func (m *CookieManager) RefreshToken(c *fiber.Ctx) string {
	return c.Cookies(RefreshCookieName)
}

func (m *CookieManager) cookie(name, value, path string, ttl time.Duration, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(ttl / time.Second),
		Expires:  expires,
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
