package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	auth "github.com/goliatone/go-auth-session"
)

const (
	defaultHTTPAddr        = ":4000"
	defaultShutdownTimeout = 10 * time.Second
)

// serverConfig holds process level settings. Session settings are
// loaded separately by auth.LoadConfigFromEnv.
type serverConfig struct {
	HTTPAddr        string
	DatabaseURL     string
	CORSOrigin      string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

func loadServerConfig() (serverConfig, error) {
	addr := EnvString("HTTP_ADDR", "")
	if addr == "" {
		if port := EnvString("PORT", ""); port != "" {
			addr = ":" + strings.TrimPrefix(port, ":")
		} else {
			addr = defaultHTTPAddr
		}
	}

	corsOrigin := EnvString("CORS_ORIGIN", "")
	// cookies are credentialed, so every allowed origin must be explicit
	for _, origin := range strings.Split(corsOrigin, ",") {
		if strings.Contains(origin, "*") {
			return serverConfig{}, fmt.Errorf("%w: CORS_ORIGIN must list explicit origins, got %q", auth.ErrConfig, corsOrigin)
		}
	}

	return serverConfig{
		HTTPAddr:        addr,
		DatabaseURL:     EnvString("DATABASE_URL", ""),
		CORSOrigin:      corsOrigin,
		LogLevel:        EnvString("LOG_LEVEL", "info"),
		LogFormat:       EnvString("LOG_FORMAT", "json"),
		ShutdownTimeout: EnvDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}, nil
}

// EnvString reads a string env var with a default.
func EnvString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// EnvDuration reads a positive time.Duration env var with a default.
func EnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
