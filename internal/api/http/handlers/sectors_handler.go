package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eaata/helpdesk/internal/api/dto"
	"github.com/eaata/helpdesk/internal/service"
	apperrors "github.com/eaata/helpdesk/pkg/util/errorutil"
)

// SectorsHandler exposes the sector registry.
type SectorsHandler struct {
	service *service.SectorService
}

// NewSectorsHandler constructs handler.
func NewSectorsHandler(sectorService *service.SectorService) *SectorsHandler {
	return &SectorsHandler{service: sectorService}
}

// CreateSector POST /sectors.
func (h *SectorsHandler) CreateSector(c *fiber.Ctx) error {
	var req dto.SectorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	sector, err := h.service.CreateSector(c.UserContext(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.SectorResponse{ID: sector.ID, Name: sector.Name}})
}

// ListSectors GET /sectors.
func (h *SectorsHandler) ListSectors(c *fiber.Ctx) error {
	sectors, err := h.service.ListSectors(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSectorResponses(sectors)})
}

// GetSector GET /sectors/:id.
func (h *SectorsHandler) GetSector(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	sector, err := h.service.GetSector(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SectorResponse{ID: sector.ID, Name: sector.Name}})
}

// DeleteSector DELETE /sectors/:id.
func (h *SectorsHandler) DeleteSector(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteSector(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "deleted": true}})
}
