package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/goliatone/go-auth-session"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", auth.NormalizeEmail("  A@B.Com \t"))
	assert.Equal(t, "", auth.NormalizeEmail("   "))
}

func TestCredentialsNormalizedKeepsPassword(t *testing.T) {
	creds := auth.Credentials{Email: " User@Example.COM ", Password: " Passw0rd "}.Normalized()

	assert.Equal(t, "user@example.com", creds.Email)
	assert.Equal(t, " Passw0rd ", creds.Password)
}

func TestCredentials_ValidateRegistration(t *testing.T) {
	tests := []struct {
		name    string
		creds   auth.Credentials
		wantErr error
	}{
		{name: "valid", creds: auth.Credentials{Email: "a@b.com", Password: "Passw0rd"}},
		{name: "missing email", creds: auth.Credentials{Password: "Passw0rd"}, wantErr: auth.ErrMissingCredentials},
		{name: "missing password", creds: auth.Credentials{Email: "a@b.com"}, wantErr: auth.ErrMissingCredentials},
		{name: "both missing", creds: auth.Credentials{}, wantErr: auth.ErrMissingCredentials},
		{name: "no at sign", creds: auth.Credentials{Email: "ab.com", Password: "Passw0rd"}, wantErr: auth.ErrInvalidEmail},
		{name: "no tld", creds: auth.Credentials{Email: "a@b", Password: "Passw0rd"}, wantErr: auth.ErrInvalidEmail},
		{name: "space in email", creds: auth.Credentials{Email: "a b@c.com", Password: "Passw0rd"}, wantErr: auth.ErrInvalidEmail},
		{name: "two at signs", creds: auth.Credentials{Email: "a@@b.com", Password: "Passw0rd"}, wantErr: auth.ErrInvalidEmail},
		{name: "too short", creds: auth.Credentials{Email: "a@b.com", Password: "Pass0rd"}, wantErr: auth.ErrWeakPassword},
		{name: "no digit", creds: auth.Credentials{Email: "a@b.com", Password: "Password"}, wantErr: auth.ErrWeakPassword},
		{name: "no letter", creds: auth.Credentials{Email: "a@b.com", Password: "12345678"}, wantErr: auth.ErrWeakPassword},
		{name: "non ascii letters only", creds: auth.Credentials{Email: "a@b.com", Password: "ééééééé1"}, wantErr: auth.ErrWeakPassword},
		{name: "over bcrypt limit", creds: auth.Credentials{Email: "a@b.com", Password: strings.Repeat("a", 72) + "1"}, wantErr: auth.ErrPasswordTooLong},
		{name: "email checked before password", creds: auth.Credentials{Email: "nope", Password: "x"}, wantErr: auth.ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.ValidateRegistration()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCredentials_ValidateLogin(t *testing.T) {
	tests := []struct {
		name    string
		creds   auth.Credentials
		wantErr error
	}{
		{name: "valid", creds: auth.Credentials{Email: "a@b.com", Password: "x"}},
		{name: "password policy not applied", creds: auth.Credentials{Email: "a@b.com", Password: "short"}},
		{name: "missing password", creds: auth.Credentials{Email: "a@b.com"}, wantErr: auth.ErrMissingCredentials},
		{name: "missing email", creds: auth.Credentials{Password: "x"}, wantErr: auth.ErrMissingCredentials},
		{name: "malformed email", creds: auth.Credentials{Email: "not-an-email", Password: "Passw0rd"}, wantErr: auth.ErrInvalidEmail},
		{name: "presence checked first", creds: auth.Credentials{Email: "not-an-email"}, wantErr: auth.ErrMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.ValidateLogin()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
