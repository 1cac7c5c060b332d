package service

import (
	"context"
	"strings"
	"time"

	"github.com/eaata/helpdesk/internal/domain"
	"github.com/eaata/helpdesk/internal/repository"
	apperrors "github.com/eaata/helpdesk/pkg/util/errorutil"
)

const reportDateLayout = "2006-01-02"

// ReportService aggregates tickets over a period.
type ReportService struct {
	tickets repository.TicketRepository
	sectors repository.SectorRepository
	loc     *time.Location
	now     func() time.Time
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	TicketRepo repository.TicketRepository
	SectorRepo repository.SectorRepository
	Location   *time.Location
	Clock      func() time.Time
}

// ReportQuery selects the tickets a report covers.
type ReportQuery struct {
	Start  time.Time
	End    time.Time
	Sector string
}

// Report is the aggregated view over a period.
type Report struct {
	Period      domain.DateRange
	Sector      string
	GeneratedAt time.Time
	Metrics     domain.ReportMetrics
	Departments []domain.DepartmentGroup
	Tickets     []domain.Ticket
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	clock := deps.Clock
	if clock == nil {
		clock = utcNow
	}
	return &ReportService{tickets: deps.TicketRepo, sectors: deps.SectorRepo, loc: loc, now: clock}
}

// Location returns the timezone reports are computed in.
func (s *ReportService) Location() *time.Location {
	return s.loc
}

// ParseQuery validates raw start/end/sector values.
func (s *ReportService) ParseQuery(startRaw, endRaw, sector string) (ReportQuery, error) {
	if strings.TrimSpace(startRaw) == "" || strings.TrimSpace(endRaw) == "" {
		return ReportQuery{}, apperrors.NewValidationError("startDate and endDate required", nil)
	}
	start, err := ParseReportDate(startRaw, s.loc)
	if err != nil {
		return ReportQuery{}, apperrors.NewValidationError("invalid startDate", map[string]any{"startDate": startRaw})
	}
	end, err := ParseReportDate(endRaw, s.loc)
	if err != nil {
		return ReportQuery{}, apperrors.NewValidationError("invalid endDate", map[string]any{"endDate": endRaw})
	}
	return ReportQuery{Start: start, End: end, Sector: strings.TrimSpace(sector)}, nil
}

// ParseReportDate accepts a calendar day (YYYY-MM-DD, read in loc) or an RFC3339 timestamp.
func ParseReportDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(reportDateLayout, value, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// TicketsInPeriod returns tickets created inside the whole-day range of q,
// oldest first, restricted to q.Sector when set.
func (s *ReportService) TicketsInPeriod(ctx context.Context, q ReportQuery) ([]domain.Ticket, domain.DateRange, error) {
	period := domain.DayRange(q.Start, q.End, s.loc)
	if period.End.Before(period.Start) {
		return nil, period, apperrors.NewValidationError("endDate before startDate", nil)
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		CreatedFrom: &period.Start,
		CreatedTo:   &period.End,
		OldestFirst: true,
	})
	if err != nil {
		return nil, period, err
	}
	return domain.FilterByDepartment(tickets, q.Sector), period, nil
}

// BuildReport computes metrics and department groups for q.
func (s *ReportService) BuildReport(ctx context.Context, q ReportQuery) (*Report, error) {
	tickets, period, err := s.TicketsInPeriod(ctx, q)
	if err != nil {
		return nil, err
	}

	var names []string
	if q.Sector != "" {
		names = []string{q.Sector}
	} else {
		sectors, err := s.sectors.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, sector := range sectors {
			names = append(names, sector.Name)
		}
	}

	now := s.now()
	return &Report{
		Period:      period,
		Sector:      q.Sector,
		GeneratedAt: now,
		Metrics:     domain.Summarize(tickets, now),
		Departments: domain.GroupByDepartment(tickets, names, now),
		Tickets:     tickets,
	}, nil
}
