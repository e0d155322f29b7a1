package auth

import (
	"context"
	"log/slog"
)

// Logger is satisfied by *slog.Logger
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// UserStore persists user credential records. Implementations must
// enforce email uniqueness atomically and report it as ErrDuplicateEmail.
type UserStore interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}

// PasswordVerifier hashes passwords and checks them against stored hashes
type PasswordVerifier interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// defLogger forwards to slog.Default so output follows whatever the
// host process configured.
type defLogger struct{}

func (defLogger) Debug(msg string, args ...any) { slog.Default().Debug("auth: "+msg, args...) }
func (defLogger) Info(msg string, args ...any)  { slog.Default().Info("auth: "+msg, args...) }
func (defLogger) Warn(msg string, args ...any)  { slog.Default().Warn("auth: "+msg, args...) }
func (defLogger) Error(msg string, args ...any) { slog.Default().Error("auth: "+msg, args...) }
