package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeMissingCredentials  = "missing_credentials"
	TextCodeInvalidEmail        = "invalid_email"
	TextCodeWeakPassword        = "weak_password"
	TextCodePasswordTooLong     = "password_too_long"
	TextCodeInvalidBody         = "invalid_body"
	TextCodeEmailExists         = "email_exists"
	TextCodeInvalidCredentials  = "invalid_credentials"
	TextCodeMissingAccessToken  = "missing_access_token"
	TextCodeInvalidAccessToken  = "invalid_access_token"
	TextCodeMissingRefreshToken = "missing_refresh_token"
	TextCodeInvalidRefreshToken = "invalid_refresh_token"
	TextCodeServerError         = "server_error"
)

// Client facing errors. Authentication errors use the same message for
// every failing check of a given token so responses do not tell callers
// which check failed.
var (
	ErrMissingCredentials = goerrors.New("email and password are required", goerrors.CategoryValidation).
		WithTextCode(TextCodeMissingCredentials).
		WithCode(goerrors.CodeBadRequest)

	ErrInvalidEmail = goerrors.New("invalid email", goerrors.CategoryValidation).
		WithTextCode(TextCodeInvalidEmail).
		WithCode(goerrors.CodeBadRequest)

	ErrWeakPassword = goerrors.New("password must be at least 8 characters and include at least one letter and one number", goerrors.CategoryValidation).
		WithTextCode(TextCodeWeakPassword).
		WithCode(goerrors.CodeBadRequest)

	ErrPasswordTooLong = goerrors.New("password must be at most 72 bytes", goerrors.CategoryValidation).
		WithTextCode(TextCodePasswordTooLong).
		WithCode(goerrors.CodeBadRequest)

	ErrInvalidBody = goerrors.New("invalid request body", goerrors.CategoryBadInput).
		WithTextCode(TextCodeInvalidBody).
		WithCode(goerrors.CodeBadRequest)

	ErrEmailExists = goerrors.New("email already exists", goerrors.CategoryConflict).
		WithTextCode(TextCodeEmailExists).
		WithCode(goerrors.CodeConflict)

	ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
		WithTextCode(TextCodeInvalidCredentials).
		WithCode(goerrors.CodeUnauthorized)

	ErrMissingAccessToken = goerrors.New("missing access token", goerrors.CategoryAuth).
		WithTextCode(TextCodeMissingAccessToken).
		WithCode(goerrors.CodeUnauthorized)

	ErrInvalidAccessToken = goerrors.New("invalid access token", goerrors.CategoryAuth).
		WithTextCode(TextCodeInvalidAccessToken).
		WithCode(goerrors.CodeUnauthorized)

	ErrMissingRefreshToken = goerrors.New("missing refresh token", goerrors.CategoryAuth).
		WithTextCode(TextCodeMissingRefreshToken).
		WithCode(goerrors.CodeUnauthorized)

	ErrInvalidRefreshToken = goerrors.New("invalid refresh token", goerrors.CategoryAuth).
		WithTextCode(TextCodeInvalidRefreshToken).
		WithCode(goerrors.CodeUnauthorized)

	// ErrServer is the only body clients see for internal failures
	ErrServer = goerrors.New("server error", goerrors.CategoryInternal).
		WithTextCode(TextCodeServerError).
		WithCode(goerrors.CodeInternal)
)

// Store and token errors. These never reach clients directly.
var (
	// ErrUserNotFound is returned by stores for unknown ids or emails
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by stores when the unique email index rejects an insert
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrTokenInvalid covers malformed tokens, bad signatures and expired tokens
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is an ErrTokenInvalid whose expiry is in the past
	ErrTokenExpired = errors.Join(ErrTokenInvalid, errors.New("token is expired"))
	// ErrMissingSecret is returned when signing or verifying without a key
	ErrMissingSecret = errors.New("signing secret is required")
	// ErrNoEmptyString is returned when hashing an empty password
	ErrNoEmptyString = errors.New("password must not be empty")
)

// ErrorFor maps any error onto the client facing taxonomy. Errors outside
// the taxonomy and internal errors collapse to ErrServer.
func ErrorFor(err error) *goerrors.Error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil && richErr.Category != goerrors.CategoryInternal {
		return richErr
	}
	return ErrServer
}

// StatusCode is the HTTP status for err once mapped by ErrorFor
func StatusCode(err error) int {
	richErr := ErrorFor(err)
	if richErr.Code != 0 {
		return richErr.Code
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return goerrors.CodeBadRequest
	case goerrors.CategoryConflict:
		return goerrors.CodeConflict
	case goerrors.CategoryAuth:
		return goerrors.CodeUnauthorized
	default:
		return goerrors.CodeInternal
	}
}

// HasTextCode reports whether err carries the text code of target. It
// does not depend on pointer identity, so copies of a sentinel match.
func HasTextCode(err error, target *goerrors.Error) bool {
	if err == nil || target == nil || target.TextCode == "" {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr == nil {
		return false
	}
	return richErr.TextCode == target.TextCode
}

// internalError wraps err for logs. Clients only ever see ErrServer.
func internalError(op string, err error) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, op).
		WithTextCode(TextCodeServerError).
		WithCode(goerrors.CodeInternal)
}
