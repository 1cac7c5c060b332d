package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/eaata/helpdesk/internal/api/dto"
	"github.com/eaata/helpdesk/internal/config"
	apperrors "github.com/eaata/helpdesk/pkg/util/errorutil"
)

// ConfigHandler reads and rewrites the database section of the config file.
// Changes take effect on the next start.
type ConfigHandler struct {
	path   string
	logger *zap.Logger
}

// NewConfigHandler constructs handler for the file at path.
func NewConfigHandler(path string, logger *zap.Logger) *ConfigHandler {
	return &ConfigHandler{path: path, logger: logger}
}

// GetDatabase GET /config/db.
func (h *ConfigHandler) GetDatabase(c *fiber.Ctx) error {
	fc, err := config.LoadFile(h.path)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": fc.Redacted()})
}

// SaveDatabase POST /config/db.
func (h *ConfigHandler) SaveDatabase(c *fiber.Ctx) error {
	var req dto.DatabaseConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	fc := req.ToFileConfig()
	if err := fc.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	if err := config.SaveFile(h.path, fc); err != nil {
		return apperrors.NewInternalError(err)
	}
	h.logger.Info("database config saved", zap.String("path", h.path), zap.String("type", fc.Type))
	return c.JSON(fiber.Map{"data": fiber.Map{
		"config":          fc.Redacted(),
		"restartRequired": true,
	}})
}
