package auth

import (
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// AuthControllerRoutes holds the paths mounted by RegisterRoutes,
// relative to the router they are registered on.
type AuthControllerRoutes struct {
	Register string
	Login    string
	Refresh  string
	Me       string
	Logout   string
}

// AuthController serves the JSON session endpoints
type AuthController struct {
	Logger  Logger
	Issuer  *SessionIssuer
	Cookies *CookieManager
	Routes  *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		if logger != nil {
			a.Logger = logger
		}
		return a
	}
}

func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		if routes != nil {
			a.Routes = routes
		}
		return a
	}
}

// NewAuthController wires the controller. The cookie manager is built
// from the issuer's config so cookie lifetimes match token lifetimes.
func NewAuthController(issuer *SessionIssuer, opts ...AuthControllerOption) *AuthController {
	if issuer == nil {
		panic("Missing SessionIssuer in auth controller...")
	}

	c := &AuthController{
		Logger:  defLogger{},
		Issuer:  issuer,
		Cookies: NewCookieManager(issuer.Config()),
		Routes: &AuthControllerRoutes{
			Register: "/register",
			Login:    "/login",
			Refresh:  "/refresh",
			Me:       "/me",
			Logout:   "/logout",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

// RegisterRoutes mounts the endpoints on r, usually app.Group("/auth").
// The refresh route should resolve to the issuer's RefreshPath, since
// the refresh cookie is only sent there.
func (a *AuthController) RegisterRoutes(r fiber.Router) {
	r.Post(a.Routes.Register, a.Register).Name("auth.register")
	r.Post(a.Routes.Login, a.Login).Name("auth.login")
	r.Post(a.Routes.Refresh, a.Refresh).Name("auth.refresh")
	r.Get(a.Routes.Me, AccessGuard(a.Issuer, a.errorResponse), a.Me).Name("auth.me")
	r.Post(a.Routes.Logout, a.Logout).Name("auth.logout")
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	creds, err := a.bindCredentials(c)
	if err != nil {
		return a.errorResponse(c, err)
	}

	user, pair, err := a.Issuer.Register(c.UserContext(), creds)
	if err != nil {
		return a.errorResponse(c, err)
	}

	a.Cookies.Attach(c, pair)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ok":   true,
		"user": user,
	})
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	creds, err := a.bindCredentials(c)
	if err != nil {
		return a.errorResponse(c, err)
	}

	user, pair, err := a.Issuer.Login(c.UserContext(), creds)
	if err != nil {
		return a.errorResponse(c, err)
	}

	a.Cookies.Attach(c, pair)

	return c.JSON(fiber.Map{
		"ok":   true,
		"user": user,
	})
}

func (a *AuthController) Refresh(c *fiber.Ctx) error {
	_, pair, err := a.Issuer.Refresh(c.UserContext(), a.Cookies.RefreshToken(c))
	if err != nil {
		return a.errorResponse(c, err)
	}

	a.Cookies.Attach(c, pair)

	return c.JSON(fiber.Map{"ok": true})
}

// Me must run behind AccessGuard
func (a *AuthController) Me(c *fiber.Ctx) error {
	claims, ok := ClaimsFromCtx(c)
	if !ok {
		return a.errorResponse(c, ErrMissingAccessToken)
	}

	return c.JSON(fiber.Map{
		"ok":   true,
		"user": a.Issuer.Me(claims),
	})
}

// Logout always succeeds. The access cookie, when still valid, is only
// read to attribute the event.
func (a *AuthController) Logout(c *fiber.Ctx) error {
	var userID string
	if claims, err := a.Issuer.AuthenticateAccess(a.Cookies.AccessToken(c)); err == nil {
		userID = claims.UserID
	}

	a.Cookies.Clear(c)
	a.Issuer.Logout(c.UserContext(), userID)

	return c.JSON(fiber.Map{"ok": true})
}

// bindCredentials decodes a JSON body. An empty body is an empty object.
func (a *AuthController) bindCredentials(c *fiber.Ctx) (Credentials, error) {
	var creds Credentials

	body := c.Body()
	if len(body) == 0 {
		return creds, nil
	}

	if err := c.App().Config().JSONDecoder(body, &creds); err != nil {
		a.Logger.Debug("decode credentials payload", "error", err)
		return Credentials{}, ErrInvalidBody
	}

	return creds, nil
}

func (a *AuthController) errorResponse(c *fiber.Ctx, err error) error {
	richErr := ErrorFor(err)
	if richErr.Category == goerrors.CategoryInternal {
		a.Logger.Error("request failed", "path", c.Path(), "method", c.Method(), "error", err)
	} else {
		a.Logger.Debug("request rejected", "path", c.Path(), "text_code", richErr.TextCode)
	}
	return WriteError(c, richErr)
}

// WriteError renders err as {"error": message} with the status of its
// category. Errors outside the taxonomy become a 500 "server error".
func WriteError(c *fiber.Ctx, err error) error {
	return c.Status(StatusCode(err)).JSON(fiber.Map{"error": ErrorFor(err).Message})
}
