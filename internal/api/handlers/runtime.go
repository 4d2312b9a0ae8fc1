package handlers

import (
	"runtime"
	"time"

	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/gofiber/fiber/v2"
)

// RuntimeHandler reports configuration problems and process information
type RuntimeHandler struct {
	cfg        *config.Config
	mutedTerms int
	startedAt  time.Time
}

// NewRuntimeHandler creates a new runtime handler
func NewRuntimeHandler(cfg *config.Config, mutedTerms int) *RuntimeHandler {
	return &RuntimeHandler{cfg: cfg, mutedTerms: mutedTerms, startedAt: time.Now().UTC()}
}

type platformRuntime struct {
	Platform            models.Platform `json:"platform"`
	Configured          bool            `json:"configured"`
	IntervalMinutes     int             `json:"interval_minutes"`
	EngagementThreshold int64           `json:"engagement_threshold"`
}

// Get handles GET /api/runtime
func (h *RuntimeHandler) Get(c *fiber.Ctx) error {
	credentials := h.cfg.CredentialStatus()
	platforms := make([]platformRuntime, 0, len(models.Platforms))
	for _, p := range models.Platforms {
		settings := h.cfg.Platforms[p]
		platforms = append(platforms, platformRuntime{
			Platform:            p,
			Configured:          credentials[p],
			IntervalMinutes:     int(settings.Interval / time.Minute),
			EngagementThreshold: settings.EngagementThreshold,
		})
	}

	warnings := h.cfg.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return c.JSON(fiber.Map{
		"platforms":        platforms,
		"telegram":         h.cfg.TelegramBotToken != "" && h.cfg.TelegramChannelID != "",
		"warnings":         warnings,
		"muted_terms":      h.mutedTerms,
		"uptime_seconds":   int64(time.Since(h.startedAt).Seconds()),
		"go_version":       runtime.Version(),
		"goroutines":       runtime.NumGoroutine(),
		"config_directory": h.cfg.ConfigDirectory,
	})
}
