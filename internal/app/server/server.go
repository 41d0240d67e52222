package server

import (
	"context"

	"github.com/Mustak4/CleanLinkAI/internal/app/service"
	inthttp "github.com/Mustak4/CleanLinkAI/internal/http/handler"
	"github.com/Mustak4/CleanLinkAI/internal/http/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies bundles what the HTTP server needs to assemble its routes.
type Dependencies struct {
	Logger         *zap.Logger
	Redis          *redis.Client
	LinkService    service.LinkService
	ClickPublisher *service.ClickPublisher
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with middleware and routes wired.
func New(deps Dependencies) *Server {
	app := fiber.New()

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.CORS())
	if s.deps.Redis != nil {
		s.app.Use(middleware.RateLimit(s.deps.Redis, middleware.DefaultRateLimitConfig(), s.deps.Logger))
	}
}

func (s *Server) registerRoutes() {
	apiHandler := inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:         s.deps.Logger,
		LinkService:    s.deps.LinkService,
		ClickPublisher: s.deps.ClickPublisher,
	})
	apiHandler.Register(s.app)

	// Registered last: its /:slug route catches everything else.
	redirectHandler := inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:         s.deps.Logger,
		LinkService:    s.deps.LinkService,
		ClickPublisher: s.deps.ClickPublisher,
	})
	redirectHandler.Register(s.app)
}
