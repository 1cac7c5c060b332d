package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/eaata/helpdesk/internal/api/dto"
	apperrors "github.com/eaata/helpdesk/pkg/util/errorutil"
)

// paramID reads a positive integer route parameter.
func paramID(c *fiber.Ctx, name string) (int64, error) {
	raw := c.Params(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, map[string]any{name: raw})
	}
	return id, nil
}

// optionalTime parses a timestamp field; nil and blank mean absent.
func optionalTime(field string, value *string, loc *time.Location) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := dto.ParseTimestamp(*value, loc)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid "+field, map[string]any{field: *value})
	}
	return &t, nil
}

func queryString(c *fiber.Ctx, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

func sendPDF(c *fiber.Ctx, filename string, body []byte) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+filename)
	return c.Send(body)
}

func utcNow() time.Time {
	return time.Now().UTC()
}
