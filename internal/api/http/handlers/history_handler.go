package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eaata/helpdesk/internal/api/dto"
	"github.com/eaata/helpdesk/internal/service"
)

// HistoryHandler exposes the status trail of tickets.
type HistoryHandler struct {
	service *service.HistoryService
}

// NewHistoryHandler constructs handler.
func NewHistoryHandler(historyService *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{service: historyService}
}

// ListHistory GET /tickets/:id/history.
func (h *HistoryHandler) ListHistory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.service.ListHistory(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryResponses(entries)})
}
