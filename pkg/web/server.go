// Package web provides the HTTP surface of the nani voice backend:
// the voice-exchange endpoint, the sheet event stream, and a couple of
// introspection routes.
package web

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/nanicare/nani-backend/internal/config"
	"github.com/nanicare/nani-backend/pkg/exchange"
	"github.com/nanicare/nani-backend/pkg/hub"
	"github.com/nanicare/nani-backend/pkg/sheet"
)

// bodyOverhead leaves room for multipart framing and form fields on
// top of the configured audio limit.
const bodyOverhead = 1 << 20

// Exchanger runs one voice exchange. Satisfied by
// exchange.Orchestrator.
type Exchanger interface {
	Handle(ctx context.Context, req exchange.Request) (*exchange.Result, error)
}

// Server is the backend HTTP server.
type Server struct {
	app    *fiber.App
	cfg    *config.Config
	orch   Exchanger
	events *hub.Hub
	poller *sheet.Poller // nil when sheet polling is disabled
	logger *slog.Logger
}

// New creates the server and registers all routes. poller may be nil.
func New(cfg *config.Config, orch Exchanger, events *hub.Hub, poller *sheet.Poller) *Server {
	s := &Server{
		cfg:    cfg,
		orch:   orch,
		events: events,
		poller: poller,
		logger: slog.Default().With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "nani-backend",
		DisableStartupMessage: true,
		BodyLimit:             cfg.MaxAudioBytes + bodyOverhead,
	})

	app.Use(cors.New())

	app.Get("/health", s.handleHealth)
	app.Get("/debug/sheet", s.handleDebugSheet)
	app.Get("/events/sheet", s.handleEventStream)
	app.Post("/api/voice-exchange", s.handleVoiceExchange)

	// Websocket mirror of the event stream.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// App returns the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving requests on the configured address.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Addr())
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
