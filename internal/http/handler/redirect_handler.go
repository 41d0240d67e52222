package handler

import (
	"errors"
	"time"

	"github.com/Mustak4/CleanLinkAI/internal/app/repository"
	"github.com/Mustak4/CleanLinkAI/internal/app/service"
	"github.com/Mustak4/CleanLinkAI/internal/infra/prometheus"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RedirectDeps groups dependencies required by the redirect handler.
type RedirectDeps struct {
	Logger         *zap.Logger
	LinkService    service.LinkService
	ClickPublisher *service.ClickPublisher
}

// RedirectHandler serves the public shortlink routes.
type RedirectHandler struct {
	logger         *zap.Logger
	linkService    service.LinkService
	clickPublisher *service.ClickPublisher
}

// NewRedirectHandler creates a redirect handler with the provided
// dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:         logger,
		linkService:    deps.LinkService,
		clickPublisher: deps.ClickPublisher,
	}
}

// Register wires redirect routes onto the provided router. The catch-all
// slug route must be registered after the API routes.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/:slug", h.Redirect)
}

// Health is a simple root endpoint so we know the service is running.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "cleanlink",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Redirect handles GET /:slug. The click counter and event are committed
// before the redirect is issued.
func (h *RedirectHandler) Redirect(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing link slug",
		})
	}

	resolution, err := h.linkService.ResolveLink(userContext(c), slug, service.Visit{
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
	})
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "shortlink not found",
			})
		}
		h.logger.Error("failed to resolve shortlink", zap.Error(err), zap.String("slug", slug))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	prometheus.Resolutions.Inc()
	publishClick(h.logger, h.clickPublisher, resolution.Event)

	h.logger.Debug("redirecting shortlink",
		zap.String("slug", slug),
		zap.String("target", resolution.CleanURL))
	return c.Redirect(resolution.CleanURL, fiber.StatusFound)
}
