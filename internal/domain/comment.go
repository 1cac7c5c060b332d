package domain

import (
	"strings"
	"time"
)

// Comment is a note left on a ticket thread, optionally carrying an attachment.
type Comment struct {
	ID             int64
	TicketID       int64
	Autor          string
	Conteudo       string
	AttachmentURL  *string
	AttachmentName *string
	CreatedAt      time.Time
}

// HasContent reports whether the comment carries text or an attachment.
func (c *Comment) HasContent() bool {
	if strings.TrimSpace(c.Conteudo) != "" {
		return true
	}
	return c.AttachmentURL != nil && strings.TrimSpace(*c.AttachmentURL) != ""
}
