package handlers

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/eaata/helpdesk/internal/storage"
	apperrors "github.com/eaata/helpdesk/pkg/util/errorutil"
)

// UploadsHandler stores and serves ticket screenshots.
type UploadsHandler struct {
	uploads *storage.Uploads
}

// NewUploadsHandler constructs handler.
func NewUploadsHandler(uploads *storage.Uploads) *UploadsHandler {
	return &UploadsHandler{uploads: uploads}
}

// UploadImage POST /upload/image (multipart field "file").
func (h *UploadsHandler) UploadImage(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file required", nil)
	}
	f, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer f.Close()

	stored, err := h.uploads.Save(header.Filename, f)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": stored})
}

// DeleteImage DELETE /upload/image/:filename.
func (h *UploadsHandler) DeleteImage(c *fiber.Ctx) error {
	name := c.Params("filename")
	if err := h.uploads.Delete(name); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"filename": name, "deleted": true}})
}

// ServeImage GET /upload/uploads/:filename.
func (h *UploadsHandler) ServeImage(c *fiber.Ctx) error {
	name := c.Params("filename")
	f, err := h.uploads.Open(name)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return apperrors.NewInternalError(err)
	}
	c.Type(filepath.Ext(name))
	return c.SendStream(f, int(info.Size()))
}
