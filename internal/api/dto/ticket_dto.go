package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/eaata/helpdesk/internal/domain"
)

// DateLayout is the calendar-day form accepted wherever a timestamp is.
const DateLayout = "2006-01-02"

// ParseTimestamp accepts RFC3339 (with or without fractional seconds) or a bare
// YYYY-MM-DD, read as midnight in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, errors.New("expected YYYY-MM-DD or RFC3339 timestamp")
	}
	return t.UTC(), nil
}

// FlexTime decodes the timestamp forms clients send. null and "" decode to the zero time.
type FlexTime struct {
	time.Time
}

func (f *FlexTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		f.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		f.Time = time.Time{}
		return nil
	}
	t, err := ParseTimestamp(s, time.Local)
	if err != nil {
		return err
	}
	f.Time = t
	return nil
}

func (f FlexTime) MarshalJSON() ([]byte, error) {
	if f.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Time)
}

func (f *FlexTime) ptr() *time.Time {
	if f == nil || f.IsZero() {
		return nil
	}
	t := f.Time.UTC()
	return &t
}

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Department  string  `json:"department"`
	OpenedBy    *string `json:"openedBy"`
	ImagePath   *string `json:"imagePath"`
	DueDate     *string `json:"dueDate"`
}

// UpdateTicketRequest payload; absent fields are left unchanged. An empty dueDate clears it.
type UpdateTicketRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Department  *string `json:"department"`
	Status      *string `json:"status"`
	OpenedBy    *string `json:"openedBy"`
	ImagePath   *string `json:"imagePath"`
	DueDate     *string `json:"dueDate"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID             int64               `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Department     string              `json:"department"`
	Status         domain.TicketStatus `json:"status"`
	OpenedBy       *string             `json:"openedBy"`
	ImagePath      *string             `json:"imagePath"`
	DueDate        *FlexTime           `json:"dueDate"`
	ClosedAt       *FlexTime           `json:"closedAt"`
	CreatedAt      FlexTime            `json:"createdAt"`
	UpdatedAt      FlexTime            `json:"updatedAt"`
	IsOverdue      bool                `json:"isOverdue"`
	ResolutionDays *int                `json:"resolutionDays,omitempty"`
}

// NewTicketResponse maps a ticket; now decides the overdue flag.
func NewTicketResponse(t *domain.Ticket, now time.Time) TicketResponse {
	return TicketResponse{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Department:     t.Department,
		Status:         t.Status,
		OpenedBy:       t.OpenedBy,
		ImagePath:      t.ImagePath,
		DueDate:        flexPtr(t.DueDate),
		ClosedAt:       flexPtr(t.ClosedAt),
		CreatedAt:      FlexTime{t.CreatedAt},
		UpdatedAt:      FlexTime{t.UpdatedAt},
		IsOverdue:      t.IsOverdue(now),
		ResolutionDays: t.ResolutionDays(),
	}
}

// NewTicketResponses maps a ticket list.
func NewTicketResponses(tickets []domain.Ticket, now time.Time) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i], now))
	}
	return out
}

// ToDomain converts a client-supplied ticket back to the domain type.
func (r TicketResponse) ToDomain() domain.Ticket {
	return domain.Ticket{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Department:  r.Department,
		Status:      r.Status,
		OpenedBy:    r.OpenedBy,
		ImagePath:   r.ImagePath,
		DueDate:     r.DueDate.ptr(),
		ClosedAt:    r.ClosedAt.ptr(),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func flexPtr(t *time.Time) *FlexTime {
	if t == nil {
		return nil
	}
	return &FlexTime{*t}
}
