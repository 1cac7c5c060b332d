package dto

import (
	"time"

	"github.com/eaata/helpdesk/internal/domain"
)

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Autor          string  `json:"autor"`
	Conteudo       string  `json:"conteudo"`
	AttachmentURL  *string `json:"attachmentUrl"`
	AttachmentName *string `json:"attachmentName"`
}

// UpdateCommentRequest payload; absent fields are left unchanged.
type UpdateCommentRequest struct {
	Autor          *string `json:"autor"`
	Conteudo       *string `json:"conteudo"`
	AttachmentURL  *string `json:"attachmentUrl"`
	AttachmentName *string `json:"attachmentName"`
}

// CommentResponse is the wire form of a comment.
type CommentResponse struct {
	ID             int64     `json:"id"`
	TicketID       int64     `json:"ticketId"`
	Autor          string    `json:"autor"`
	Conteudo       string    `json:"conteudo"`
	AttachmentURL  *string   `json:"attachmentUrl"`
	AttachmentName *string   `json:"attachmentName"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewCommentResponse maps a comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:             c.ID,
		TicketID:       c.TicketID,
		Autor:          c.Autor,
		Conteudo:       c.Conteudo,
		AttachmentURL:  c.AttachmentURL,
		AttachmentName: c.AttachmentName,
		CreatedAt:      c.CreatedAt,
	}
}

// NewCommentResponses maps a comment list.
func NewCommentResponses(comments []domain.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, NewCommentResponse(&comments[i]))
	}
	return out
}

// SectorRequest payload.
type SectorRequest struct {
	Name string `json:"name"`
}

// SectorResponse is the wire form of a sector.
type SectorResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewSectorResponses maps sectors.
func NewSectorResponses(sectors []domain.Sector) []SectorResponse {
	out := make([]SectorResponse, 0, len(sectors))
	for _, s := range sectors {
		out = append(out, SectorResponse{ID: s.ID, Name: s.Name})
	}
	return out
}
