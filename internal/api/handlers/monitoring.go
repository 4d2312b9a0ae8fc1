package handlers

import (
	"github.com/amaumene/reelwatch/internal/scheduler"
	"github.com/gofiber/fiber/v2"
)

// MonitorControl starts and stops the polling loops
type MonitorControl interface {
	Start() scheduler.Status
	Stop() scheduler.Status
	Status() scheduler.State
}

// MonitoringHandler exposes the control surface of the scheduler
type MonitoringHandler struct {
	control MonitorControl
}

// NewMonitoringHandler creates a new monitoring handler
func NewMonitoringHandler(control MonitorControl) *MonitoringHandler {
	return &MonitoringHandler{control: control}
}

// Start handles POST /api/start-monitoring
func (h *MonitoringHandler) Start(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": h.control.Start()})
}

// Stop handles POST /api/stop-monitoring
func (h *MonitoringHandler) Stop(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": h.control.Stop()})
}

// Status handles GET /api/monitoring/status
func (h *MonitoringHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.control.Status())
}
