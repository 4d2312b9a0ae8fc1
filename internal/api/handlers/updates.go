package handlers

import (
	"errors"
	"strconv"

	"github.com/amaumene/reelwatch/internal/controllers"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// UpdatesHandler serves stored updates, search, stats and the event log
type UpdatesHandler struct {
	query  *controllers.QueryController
	logger zerolog.Logger
}

// NewUpdatesHandler creates a new updates handler
func NewUpdatesHandler(query *controllers.QueryController, logger zerolog.Logger) *UpdatesHandler {
	return &UpdatesHandler{query: query, logger: logger}
}

// List handles GET /api/updates?platform=&language=&update_type=&page=&per_page=
func (h *UpdatesHandler) List(c *fiber.Ctx) error {
	filter := models.UpdateFilter{
		Platform:   models.Platform(c.Query("platform")),
		Language:   models.Language(c.Query("language")),
		UpdateType: models.UpdateType(c.Query("update_type")),
		Page:       c.QueryInt("page", 1),
		PerPage:    c.QueryInt("per_page", 0),
	}

	if filter.Platform != "" && !filter.Platform.Valid() {
		return errorResponse(c, fiber.StatusBadRequest, "unknown platform")
	}
	if filter.Language != "" && !filter.Language.Valid() && filter.Language != models.LanguageUnknown {
		return errorResponse(c, fiber.StatusBadRequest, "unknown language")
	}
	if filter.UpdateType != "" && !filter.UpdateType.Valid() {
		return errorResponse(c, fiber.StatusBadRequest, "unknown update_type")
	}

	page, err := h.query.ListUpdates(c.UserContext(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list updates")
		return errorResponse(c, fiber.StatusInternalServerError, "failed to list updates")
	}
	return c.JSON(page)
}

// Get handles GET /api/updates/:id
func (h *UpdatesHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid id")
	}

	update, err := h.query.GetUpdate(c.UserContext(), uint(id))
	if errors.Is(err, models.ErrNotFound) {
		return errorResponse(c, fiber.StatusNotFound, "update not found")
	}
	if err != nil {
		h.logger.Error().Err(err).Uint64("update_id", id).Msg("Failed to get update")
		return errorResponse(c, fiber.StatusInternalServerError, "failed to get update")
	}
	return c.JSON(update)
}

// Search handles GET /api/search?q=
func (h *UpdatesHandler) Search(c *fiber.Ctx) error {
	result, err := h.query.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to search updates")
		return errorResponse(c, fiber.StatusInternalServerError, "search failed")
	}
	return c.JSON(result)
}

// Stats handles GET /api/stats
func (h *UpdatesHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.query.Stats(c.UserContext())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to compute stats")
		return errorResponse(c, fiber.StatusInternalServerError, "failed to compute stats")
	}
	return c.JSON(stats)
}

// Events handles GET /api/events?platform=&limit=
func (h *UpdatesHandler) Events(c *fiber.Ctx) error {
	platform := models.Platform(c.Query("platform"))
	if platform != "" && !platform.Valid() {
		return errorResponse(c, fiber.StatusBadRequest, "unknown platform")
	}

	events, err := h.query.Events(c.UserContext(), platform, c.QueryInt("limit", 0))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list events")
		return errorResponse(c, fiber.StatusInternalServerError, "failed to list events")
	}
	return c.JSON(fiber.Map{"events": events})
}
