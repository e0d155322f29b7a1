// Package auth issues and validates short lived, cookie carried session
// credentials for a web client.
//
// Sessions are stateless: every login, registration or refresh mints a
// new access token and a new refresh token (HS256 JWTs signed with one
// secret per kind) and hands them to the CookieManager. Nothing is kept
// server side, so a token stays valid until its own expiry even after the
// client logs out or refreshes.
//
// Token kinds:
//   - access tokens carry the user id, email and the configured roles and
//     are sent on every request (cookie path "/").
//   - refresh tokens carry only the user id and are scoped to the refresh
//     endpoint. A refresh re-reads the user record before reissuing.
//
// Verified claims are a tagged variant (*AccessClaims or *RefreshClaims)
// selected by the "typ" discriminant, so a refresh token presented where
// an access token is expected fails a type check instead of being coerced.
//
// Known gap: rotation does not detect reuse of an older refresh token.
// Closing it needs a per token generation marker in the user store.
package auth
