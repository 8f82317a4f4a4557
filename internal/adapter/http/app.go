package http

import (
	"log/slog"
	"runtime/debug"

	"github.com/go-json-experiment/json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"cv-builder/internal/auth"
	"cv-builder/internal/codec"
)

const headerRequestID = "X-Request-ID"

// NewApp builds the fiber application with h's routes behind v. A nil v
// serves the local single-user document without authentication.
func NewApp(h *Handler, v auth.Verifier, log *slog.Logger) *fiber.App {
	if log == nil {
		log = slog.Default()
	}
	app := fiber.New(fiber.Config{
		AppName:      "cv-builder",
		BodyLimit:    codec.MaxDocumentSize + 64<<10,
		ErrorHandler: ErrorHandler(log),
		JSONEncoder:  func(v interface{}) ([]byte, error) { return json.Marshal(v) },
		JSONDecoder:  func(data []byte, v interface{}) error { return json.Unmarshal(data, v) },
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.Error("http: handler panicked", "method", c.Method(), "path", c.Path(), "panic", e, "stack", string(debug.Stack()))
		},
	}))
	app.Use(requestID)
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	h.Register(app, auth.Middleware(v))
	return app
}

func requestID(c *fiber.Ctx) error {
	id := c.Get(headerRequestID)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c.Set(headerRequestID, id)
	return c.Next()
}
