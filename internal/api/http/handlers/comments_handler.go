package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eaata/helpdesk/internal/api/dto"
	"github.com/eaata/helpdesk/internal/service"
	apperrors "github.com/eaata/helpdesk/pkg/util/errorutil"
)

// CommentsHandler manages the comment thread of a ticket.
type CommentsHandler struct {
	service *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService) *CommentsHandler {
	return &CommentsHandler{service: commentService}
}

// AddComment POST /tickets/:id/comments.
func (h *CommentsHandler) AddComment(c *fiber.Ctx) error {
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.service.AddComment(c.UserContext(), ticketID, service.CommentInput{
		Autor:          req.Autor,
		Conteudo:       req.Conteudo,
		AttachmentURL:  req.AttachmentURL,
		AttachmentName: req.AttachmentName,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *CommentsHandler) ListComments(c *fiber.Ctx) error {
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	comments, err := h.service.ListComments(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentResponses(comments)})
}

// UpdateComment PATCH /tickets/comments/:commentId.
func (h *CommentsHandler) UpdateComment(c *fiber.Ctx) error {
	id, err := paramID(c, "commentId")
	if err != nil {
		return err
	}
	var req dto.UpdateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.service.UpdateComment(c.UserContext(), id, service.CommentUpdateInput{
		Autor:          req.Autor,
		Conteudo:       req.Conteudo,
		AttachmentURL:  req.AttachmentURL,
		AttachmentName: req.AttachmentName,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// DeleteComment DELETE /tickets/comments/:commentId.
func (h *CommentsHandler) DeleteComment(c *fiber.Ctx) error {
	id, err := paramID(c, "commentId")
	if err != nil {
		return err
	}
	if err := h.service.DeleteComment(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "deleted": true}})
}
