package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-auth-session"
)

func cookiesByName(resp *http.Response) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range resp.Cookies() {
		out[c.Name] = c
	}
	return out
}

func cookieApp(m *auth.CookieManager, pair auth.TokenPair) *fiber.App {
	app := fiber.New()
	app.Get("/attach", func(c *fiber.Ctx) error {
		m.Attach(c, pair)
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/clear", func(c *fiber.Ctx) error {
		m.Clear(c)
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/read", func(c *fiber.Ctx) error {
		return c.SendString(m.AccessToken(c) + "|" + m.RefreshToken(c))
	})
	return app
}

func TestCookieManager_Attach(t *testing.T) {
	now := time.Now()
	pair := auth.TokenPair{
		AccessToken:      "access.jwt",
		AccessExpiresAt:  now.Add(15 * time.Minute),
		RefreshToken:     "refresh.jwt",
		RefreshExpiresAt: now.Add(24 * time.Hour),
	}

	tests := []struct {
		name       string
		production bool
	}{
		{name: "development", production: false},
		{name: "production", production: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Production = tt.production
			app := cookieApp(auth.NewCookieManager(cfg), pair)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/attach", nil))
			require.NoError(t, err)

			cookies := cookiesByName(resp)
			require.Contains(t, cookies, auth.AccessCookieName)
			require.Contains(t, cookies, auth.RefreshCookieName)

			access := cookies[auth.AccessCookieName]
			assert.Equal(t, "access.jwt", access.Value)
			assert.Equal(t, "/", access.Path)
			assert.Equal(t, 900, access.MaxAge)
			assert.True(t, access.HttpOnly)
			assert.Equal(t, tt.production, access.Secure)
			assert.Equal(t, http.SameSiteLaxMode, access.SameSite)

			refresh := cookies[auth.RefreshCookieName]
			assert.Equal(t, "refresh.jwt", refresh.Value)
			assert.Equal(t, auth.DefaultRefreshPath, refresh.Path)
			assert.Equal(t, 86400, refresh.MaxAge)
			assert.True(t, refresh.HttpOnly)
			assert.Equal(t, tt.production, refresh.Secure)
			assert.Equal(t, http.SameSiteLaxMode, refresh.SameSite)
		})
	}
}

func TestCookieManager_ClearMatchesAttributes(t *testing.T) {
	cfg := testConfig()
	cfg.Production = true
	app := cookieApp(auth.NewCookieManager(cfg), auth.TokenPair{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/clear", nil))
	require.NoError(t, err)

	cookies := cookiesByName(resp)
	for name, path := range map[string]string{
		auth.AccessCookieName:  "/",
		auth.RefreshCookieName: auth.DefaultRefreshPath,
	} {
		c, ok := cookies[name]
		require.True(t, ok, name)
		assert.Empty(t, c.Value)
		assert.Equal(t, path, c.Path)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.True(t, c.MaxAge < 0 || c.Expires.Before(time.Now()), "cookie %s must be expired", name)
	}
}

func TestCookieManager_Read(t *testing.T) {
	app := cookieApp(auth.NewCookieManager(testConfig()), auth.TokenPair{})

	req := httptest.NewRequest(http.MethodGet, "/read", nil)
	req.AddCookie(&http.Cookie{Name: auth.AccessCookieName, Value: "a"})
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookieName, Value: "r"})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "a|r", readBody(t, resp))
}

func TestCookieManager_CustomRefreshPath(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshPath = "/api/auth/refresh"
	app := cookieApp(auth.NewCookieManager(cfg), auth.TokenPair{AccessToken: "a", RefreshToken: "r"})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/attach", nil))
	require.NoError(t, err)
	assert.Equal(t, "/api/auth/refresh", cookiesByName(resp)[auth.RefreshCookieName].Path)
}
