package handler

import (
	"context"
	"errors"
	"time"

	"github.com/Mustak4/CleanLinkAI/internal/app/model"
	"github.com/Mustak4/CleanLinkAI/internal/app/repository"
	"github.com/Mustak4/CleanLinkAI/internal/app/service"
	"github.com/Mustak4/CleanLinkAI/internal/infra/prometheus"
	"github.com/Mustak4/CleanLinkAI/internal/sanitize"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger         *zap.Logger
	LinkService    service.LinkService
	ClickPublisher *service.ClickPublisher
}

// APIHandler implements the JSON management API.
type APIHandler struct {
	logger         *zap.Logger
	linkService    service.LinkService
	clickPublisher *service.ClickPublisher
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:         logger,
		linkService:    deps.LinkService,
		clickPublisher: deps.ClickPublisher,
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	api := router.Group("/api")
	{
		api.Post("/shorten", h.Shorten)
		api.Get("/resolve/:slug", h.Resolve)
		api.Get("/stats/:slug", h.Stats)

		links := api.Group("/links")
		{
			links.Get("/", h.ListLinks)
			links.Delete("/:slug", h.DeleteLink)
		}
	}
}

// ShortenRequest represents the request body for creating a shortlink.
type ShortenRequest struct {
	URL         string `json:"url"`
	CustomSlug  string `json:"customSlug,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// LinkResponse is the JSON shape of a shortlink.
type LinkResponse struct {
	Slug        string    `json:"slug"`
	OriginalURL string    `json:"original_url"`
	CleanURL    string    `json:"clean_url"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
}

func toLinkResponse(link *model.Link) LinkResponse {
	return LinkResponse{
		Slug:        link.Slug,
		OriginalURL: link.OriginalURL,
		CleanURL:    link.CleanURL,
		Title:       link.Title,
		Description: link.Description,
		Clicks:      link.Clicks,
		CreatedAt:   link.CreatedAt,
	}
}

// Shorten handles POST /api/shorten
func (h *APIHandler) Shorten(c *fiber.Ctx) error {
	var req ShortenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url is required",
		})
	}

	link, err := h.linkService.CreateLink(userContext(c), service.CreateLinkInput{
		URL:         req.URL,
		CustomSlug:  req.CustomSlug,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return h.writeError(c, err, "failed to create link")
	}

	prometheus.LinksCreated.Inc()
	return c.Status(fiber.StatusCreated).JSON(toLinkResponse(link))
}

// Resolve handles GET /api/resolve/:slug. Like the redirect route, it
// records the visit; the two differ only in response shape.
func (h *APIHandler) Resolve(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "slug is required",
		})
	}

	resolution, err := h.linkService.ResolveLink(userContext(c), slug, service.Visit{
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
	})
	if err != nil {
		return h.writeError(c, err, "failed to resolve link")
	}

	prometheus.Resolutions.Inc()
	publishClick(h.logger, h.clickPublisher, resolution.Event)

	return c.JSON(fiber.Map{
		"url": resolution.CleanURL,
	})
}

// Stats handles GET /api/stats/:slug
func (h *APIHandler) Stats(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "slug is required",
		})
	}

	windowDays := c.QueryInt("days")
	stats, err := h.linkService.GetStats(userContext(c), slug, windowDays)
	if err != nil {
		return h.writeError(c, err, "failed to load stats")
	}

	return c.JSON(stats)
}

// ListLinks handles GET /api/links
func (h *APIHandler) ListLinks(c *fiber.Ctx) error {
	limit := 20
	if parsed := c.QueryInt("limit"); parsed > 0 && parsed <= 100 {
		limit = parsed
	}
	offset := 0
	if parsed := c.QueryInt("offset"); parsed > 0 {
		offset = parsed
	}

	links, err := h.linkService.ListLinks(userContext(c), limit, offset)
	if err != nil {
		return h.writeError(c, err, "failed to list links")
	}

	response := make([]LinkResponse, len(links))
	for i := range links {
		response[i] = toLinkResponse(&links[i])
	}

	return c.JSON(fiber.Map{
		"links":  response,
		"limit":  limit,
		"offset": offset,
		"count":  len(response),
	})
}

// DeleteLink handles DELETE /api/links/:slug
func (h *APIHandler) DeleteLink(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "slug is required",
		})
	}

	if err := h.linkService.DeleteLink(userContext(c), slug); err != nil {
		return h.writeError(c, err, "failed to delete link")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// writeError maps domain errors onto HTTP responses; anything unexpected
// is logged and reported as a storage-level failure.
func (h *APIHandler) writeError(c *fiber.Ctx, err error, logMsg string) error {
	switch {
	case errors.Is(err, sanitize.ErrInvalidURL):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url must be a valid absolute URL",
		})
	case errors.Is(err, service.ErrInvalidSlugFormat):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "custom slug must be 6-8 alphanumeric characters",
		})
	case errors.Is(err, repository.ErrSlugTaken):
		prometheus.SlugConflicts.Inc()
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "slug already taken",
		})
	case errors.Is(err, service.ErrSlugSpaceExhausted):
		h.logger.Error("slug generation exhausted retries")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "could not generate a unique slug",
		})
	case errors.Is(err, repository.ErrLinkNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "link not found",
		})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}

func userContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// publishClick fans a committed click event out to NATS without blocking
// the response.
func publishClick(logger *zap.Logger, publisher *service.ClickPublisher, event *model.ClickEvent) {
	if publisher == nil {
		return
	}
	go func() {
		if err := publisher.Publish(event); err != nil {
			logger.Error("failed to publish click event",
				zap.Error(err),
				zap.String("link_slug", event.LinkSlug))
			return
		}
		prometheus.ClickEventsPublished.Inc()
	}()
}
