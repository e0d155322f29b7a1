package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultCORSOrigin is the web client allowed by default
const DefaultCORSOrigin = "http://localhost:3000"

type serverOptions struct {
	logger     Logger
	corsOrigin string
	gatherer   prometheus.Gatherer
}

// ServerOption configures NewServer
type ServerOption func(*serverOptions)

func WithServerLogger(logger Logger) ServerOption {
	return func(o *serverOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCORSOrigin sets the origins allowed to send credentials as a
// comma separated list, e.g. "https://app.example.com,https://admin.example.com".
// Lists containing a wildcard are ignored and the default origin is kept.
func WithCORSOrigin(origin string) ServerOption {
	return func(o *serverOptions) {
		if origin != "" && !strings.Contains(origin, "*") {
			o.corsOrigin = origin
		}
	}
}

// WithMetricsGatherer exposes g on GET /metrics. Without it the route
// is not mounted.
func WithMetricsGatherer(g prometheus.Gatherer) ServerOption {
	return func(o *serverOptions) {
		o.gatherer = g
	}
}

// NewServer builds the fiber app serving the session endpoints under
// /auth, a status document on / and, optionally, /metrics.
func NewServer(issuer *SessionIssuer, opts ...ServerOption) *fiber.App {
	o := &serverOptions{
		logger:     defLogger{},
		corsOrigin: DefaultCORSOrigin,
	}
	for _, opt := range opts {
		opt(o)
	}

	app := fiber.New(fiber.Config{
		AppName:               "authd",
		DisableStartupMessage: true,
		ErrorHandler:          appErrorHandler(o.logger),
	})

	app.Use(recover.New())
	app.Use(RequestLogger(o.logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     o.corsOrigin,
		AllowCredentials: true,
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"ok":      true,
			"service": "auth",
			"status":  "running",
		})
	})

	if o.gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})))
	}

	controller := NewAuthController(issuer, WithControllerLogger(o.logger))
	controller.RegisterRoutes(app.Group("/auth"))

	return app
}

// RequestLogger logs one line per request once the handler chain returns.
func RequestLogger(logger Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		logger.Info("http.request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", c.IP(),
			"user_agent", c.Get(fiber.HeaderUserAgent),
		)

		return err
	}
}

// appErrorHandler keeps unrouted and panicking requests on the same
// {"error": ...} shape as the session endpoints.
func appErrorHandler(logger Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		logger.Error("unhandled request error", "path", c.Path(), "error", err)
		return WriteError(c, err)
	}
}
