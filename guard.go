package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-auth-session/middleware/jwtware"
)

// AccessGuard only lets requests with a valid access cookie through.
// On success the claims are available through ClaimsFromCtx and
// ClaimsFromContext. Failures are passed to onError as
// ErrMissingAccessToken or ErrInvalidAccessToken; nothing is refreshed
// here.
func AccessGuard(issuer *SessionIssuer, onError fiber.ErrorHandler) fiber.Handler {
	if onError == nil {
		onError = WriteError
	}

	return jwtware.New(jwtware.Config{
		ContextKey:  ClaimsLocalsKey,
		TokenLookup: "cookie:" + AccessCookieName,
		TokenValidator: jwtware.TokenValidatorFunc(func(token string) (jwtware.Claims, error) {
			return issuer.AuthenticateAccess(token)
		}),
		ContextEnricher: func(ctx context.Context, claims jwtware.Claims) context.Context {
			if ac, ok := claims.(*AccessClaims); ok {
				return WithClaimsContext(ctx, ac)
			}
			return ctx
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return onError(c, guardError(err))
		},
	})
}

func guardError(err error) error {
	switch {
	case errors.Is(err, jwtware.ErrJWTMissingOrMalformed), HasTextCode(err, ErrMissingAccessToken):
		return ErrMissingAccessToken
	default:
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr != nil && richErr.Category == goerrors.CategoryAuth {
			return richErr
		}
		return ErrInvalidAccessToken
	}
}
