package dto

import (
	"time"

	"github.com/eaata/helpdesk/internal/domain"
)

// MetricsPayload mirrors domain.ReportMetrics on the wire.
type MetricsPayload struct {
	Total           int `json:"total"`
	Open            int `json:"open"`
	InProgress      int `json:"inProgress"`
	Resolved        int `json:"resolved"`
	Pending         int `json:"pending"`
	CompletedOnTime int `json:"completedOnTime"`
	Overdue         int `json:"overdue"`
	CompletionRate  int `json:"completionRate"`
}

// NewMetricsPayload maps metrics.
func NewMetricsPayload(m domain.ReportMetrics) MetricsPayload {
	return MetricsPayload(m)
}

// ToDomain converts metrics back.
func (m MetricsPayload) ToDomain() domain.ReportMetrics {
	return domain.ReportMetrics(m)
}

// ChartPoint is one entry of a client chart series.
type ChartPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// DepartmentPayload is one department bucket.
type DepartmentPayload struct {
	Name       string `json:"name"`
	NoSector   bool   `json:"noSector"`
	Total      int    `json:"total"`
	Open       int    `json:"open"`
	InProgress int    `json:"inProgress"`
	Resolved   int    `json:"resolved"`
	Overdue    int    `json:"overdue"`
}

// ReportDataPayload is the report body the desktop client posts back for printing.
// Nil Metrics or Tickets mean the field was missing.
type ReportDataPayload struct {
	Title          string              `json:"title,omitempty"`
	Period         string              `json:"period,omitempty"`
	Summary        string              `json:"summary,omitempty"`
	Metrics        *MetricsPayload     `json:"metrics"`
	Tickets        []TicketResponse    `json:"tickets"`
	StatusData     []ChartPoint        `json:"statusData,omitempty"`
	DepartmentData []ChartPoint        `json:"departmentData,omitempty"`
	Departments    []DepartmentPayload `json:"departments,omitempty"`
}

// GeneratePDFRequest is the body of POST /report/generate-pdf.
type GeneratePDFRequest struct {
	ReportData *ReportDataPayload `json:"reportData"`
	ReportType string             `json:"reportType"`
	StartDate  string             `json:"startDate"`
	EndDate    string             `json:"endDate"`
}

// ReportSummaryResponse is the JSON report for a period.
type ReportSummaryResponse struct {
	StartDate      time.Time           `json:"startDate"`
	EndDate        time.Time           `json:"endDate"`
	Sector         string              `json:"sector,omitempty"`
	GeneratedAt    time.Time           `json:"generatedAt"`
	Metrics        MetricsPayload      `json:"metrics"`
	StatusData     []ChartPoint        `json:"statusData"`
	DepartmentData []ChartPoint        `json:"departmentData"`
	Departments    []DepartmentPayload `json:"departments"`
	Tickets        []TicketResponse    `json:"tickets"`
}

// NewReportSummaryResponse assembles the summary body.
func NewReportSummaryResponse(period domain.DateRange, sector string, generatedAt time.Time, m domain.ReportMetrics, groups []domain.DepartmentGroup, tickets []domain.Ticket) ReportSummaryResponse {
	departments := make([]DepartmentPayload, 0, len(groups))
	departmentData := make([]ChartPoint, 0, len(groups))
	for _, g := range groups {
		departments = append(departments, DepartmentPayload{
			Name:       g.Name,
			NoSector:   g.NoSector,
			Total:      g.Total,
			Open:       g.Open,
			InProgress: g.InProgress,
			Resolved:   g.Resolved,
			Overdue:    g.Overdue,
		})
		departmentData = append(departmentData, ChartPoint{Name: g.Name, Value: g.Total})
	}
	return ReportSummaryResponse{
		StartDate:   period.Start,
		EndDate:     period.End,
		Sector:      sector,
		GeneratedAt: generatedAt,
		Metrics:     NewMetricsPayload(m),
		StatusData: []ChartPoint{
			{Name: domain.TicketStatusOpen.Label(), Value: m.Open},
			{Name: domain.TicketStatusInProgress.Label(), Value: m.InProgress},
			{Name: domain.TicketStatusClosed.Label(), Value: m.Resolved},
		},
		DepartmentData: departmentData,
		Departments:    departments,
		Tickets:        NewTicketResponses(tickets, generatedAt),
	}
}

// ReportTitle names a report type for the cover page.
func ReportTitle(reportType string) string {
	switch reportType {
	case "weekly":
		return "Weekly report"
	case "monthly":
		return "Monthly report"
	case "yearly", "annual":
		return "Yearly report"
	}
	return "Ticket report"
}
