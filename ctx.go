package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// ClaimsLocalsKey is the fiber Locals key the access guard stores
// verified claims under.
const ClaimsLocalsKey = "user"

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the access claims in the given context
func WithClaimsContext(r context.Context, claims *AccessClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// ClaimsFromContext extracts the access claims from the standard context
func ClaimsFromContext(ctx context.Context) (*AccessClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*AccessClaims)
	return raw, ok && raw != nil
}

// ClaimsFromCtx extracts the access claims set by AccessGuard
func ClaimsFromCtx(c *fiber.Ctx) (*AccessClaims, bool) {
	raw, ok := c.Locals(ClaimsLocalsKey).(*AccessClaims)
	return raw, ok && raw != nil
}
