package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind is the "typ" discriminant carried in every token
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is implemented by *AccessClaims and *RefreshClaims. Callers
// switch on the concrete type, or on Kind, to tell them apart.
type Claims interface {
	Kind() TokenKind
	Subject() string
	Meta() TokenMeta
}

// TokenMeta holds the registered claims set by the token service at
// signing time. Values passed in by callers are ignored.
type TokenMeta struct {
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AccessClaims authorise requests for a single user
type AccessClaims struct {
	UserID string
	Email  string
	Roles  []string
	TokenMeta
}

// RefreshClaims are only good for minting a new token pair
type RefreshClaims struct {
	UserID string
	TokenMeta
}

var (
	_ Claims = (*AccessClaims)(nil)
	_ Claims = (*RefreshClaims)(nil)
)

func (c *AccessClaims) Kind() TokenKind  { return KindAccess }
func (c *AccessClaims) Subject() string  { return c.UserID }
func (c *AccessClaims) Meta() TokenMeta  { return c.TokenMeta }
func (c *RefreshClaims) Kind() TokenKind { return KindRefresh }
func (c *RefreshClaims) Subject() string { return c.UserID }
func (c *RefreshClaims) Meta() TokenMeta { return c.TokenMeta }

// HasRole reports whether role is in the token's allow list
func (c *AccessClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// tokenPayload is the wire shape of both token kinds
type tokenPayload struct {
	jwt.RegisteredClaims
	UID   string    `json:"uid"`
	Type  TokenKind `json:"typ"`
	Email string    `json:"email,omitempty"`
	Roles []string  `json:"roles,omitempty"`
}

func payloadFor(claims Claims) (*tokenPayload, bool) {
	switch c := claims.(type) {
	case *AccessClaims:
		if c == nil {
			return nil, false
		}
		roles := c.Roles
		if roles == nil {
			roles = []string{}
		}
		return &tokenPayload{
			RegisteredClaims: jwt.RegisteredClaims{Subject: c.UserID},
			UID:              c.UserID,
			Type:             KindAccess,
			Email:            c.Email,
			Roles:            roles,
		}, true
	case *RefreshClaims:
		if c == nil {
			return nil, false
		}
		return &tokenPayload{
			RegisteredClaims: jwt.RegisteredClaims{Subject: c.UserID},
			UID:              c.UserID,
			Type:             KindRefresh,
		}, true
	default:
		return nil, false
	}
}

// claims turns a verified payload back into its variant. Payloads with
// an unknown discriminant or no user id are rejected.
func (p *tokenPayload) claims() (Claims, bool) {
	uid := p.UID
	if uid == "" {
		uid = p.RegisteredClaims.Subject
	}
	if uid == "" {
		return nil, false
	}

	meta := TokenMeta{TokenID: p.ID}
	if p.IssuedAt != nil {
		meta.IssuedAt = p.IssuedAt.Time
	}
	if p.ExpiresAt != nil {
		meta.ExpiresAt = p.ExpiresAt.Time
	}

	switch p.Type {
	case KindAccess:
		roles := p.Roles
		if roles == nil {
			roles = []string{}
		}
		return &AccessClaims{UserID: uid, Email: p.Email, Roles: roles, TokenMeta: meta}, true
	case KindRefresh:
		return &RefreshClaims{UserID: uid, TokenMeta: meta}, true
	default:
		return nil, false
	}
}
