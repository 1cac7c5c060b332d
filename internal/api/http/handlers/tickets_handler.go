package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/eaata/helpdesk/internal/api/dto"
	"github.com/eaata/helpdesk/internal/domain"
	"github.com/eaata/helpdesk/internal/pdfreport"
	"github.com/eaata/helpdesk/internal/service"
	"github.com/eaata/helpdesk/internal/storage"
	apperrors "github.com/eaata/helpdesk/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	comments *service.CommentService
	reports  *service.ReportService
	uploads  *storage.Uploads
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, comments *service.CommentService, reports *service.ReportService, uploads *storage.Uploads) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, comments: comments, reports: reports, uploads: uploads}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dueDate, err := optionalTime("dueDate", req.DueDate, h.reports.Location())
	if err != nil {
		return err
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Department:  req.Department,
		OpenedBy:    req.OpenedBy,
		ImagePath:   req.ImagePath,
		DueDate:     dueDate,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, utcNow())})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := h.parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets, utcNow())})
}

// Departments GET /tickets/departments.
func (h *TicketsHandler) Departments(c *fiber.Ctx) error {
	departments, err := h.tickets.Departments(c.UserContext())
	if err != nil {
		return err
	}
	if departments == nil {
		departments = []string{}
	}
	return c.JSON(fiber.Map{"data": departments})
}

// ByPeriod GET /tickets/report/period.
func (h *TicketsHandler) ByPeriod(c *fiber.Ctx) error {
	q, err := h.reports.ParseQuery(c.Query("startDate"), c.Query("endDate"), c.Query("sector"))
	if err != nil {
		return err
	}
	tickets, _, err := h.reports.TicketsInPeriod(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets, utcNow())})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, utcNow())})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Department:  req.Department,
		OpenedBy:    req.OpenedBy,
		ImagePath:   req.ImagePath,
	}
	if req.Status != nil {
		status := domain.TicketStatus(strings.TrimSpace(*req.Status))
		input.Status = &status
	}
	if req.DueDate != nil {
		if strings.TrimSpace(*req.DueDate) == "" {
			input.ClearDueDate = true
		} else if input.DueDate, err = optionalTime("dueDate", req.DueDate, h.reports.Location()); err != nil {
			return err
		}
	}

	ticket, err := h.tickets.UpdateTicket(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, utcNow())})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "deleted": true}})
}

// TicketPDF GET /tickets/:id/pdf.
func (h *TicketsHandler) TicketPDF(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	comments, err := h.comments.ListComments(c.UserContext(), id)
	if err != nil {
		return err
	}

	body, err := pdfreport.RenderTicket(pdfreport.TicketInput{
		Ticket:    *ticket,
		Comments:  comments,
		ImageFile: h.imageFile(ticket),
		Location:  h.reports.Location(),
		Now:       utcNow(),
	})
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return sendPDF(c, fmt.Sprintf("ticket-%d.pdf", id), body)
}

// imageFile resolves the ticket screenshot to a stored upload, if there is one.
func (h *TicketsHandler) imageFile(t *domain.Ticket) string {
	if h.uploads == nil || t.ImagePath == nil {
		return ""
	}
	name, ok := storage.NameFromURL(*t.ImagePath)
	if !ok || !h.uploads.Exists(name) {
		return ""
	}
	path, err := h.uploads.Path(name)
	if err != nil {
		return ""
	}
	return path
}

func (h *TicketsHandler) parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	filter := service.TicketListFilter{
		Department: queryString(c, "department"),
		SearchTerm: queryString(c, "search"),
		Limit:      c.QueryInt("limit", 0),
		Offset:     c.QueryInt("offset", 0),
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return filter, apperrors.NewValidationError("limit and offset must not be negative", nil)
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filter.Statuses = append(filter.Statuses, domain.TicketStatus(part))
			}
		}
	}

	loc := h.reports.Location()
	var err error
	if filter.CreatedFrom, err = optionalTime("createdFrom", queryString(c, "createdFrom"), loc); err != nil {
		return filter, err
	}
	if filter.CreatedTo, err = optionalTime("createdTo", queryString(c, "createdTo"), loc); err != nil {
		return filter, err
	}
	if filter.CreatedTo != nil && len(strings.TrimSpace(c.Query("createdTo"))) == len(dto.DateLayout) {
		end := filter.CreatedTo.Add(24*time.Hour - time.Millisecond)
		filter.CreatedTo = &end
	}
	return filter, nil
}
