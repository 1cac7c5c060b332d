package handlers

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/eaata/helpdesk/internal/api/dto"
	"github.com/eaata/helpdesk/internal/domain"
	"github.com/eaata/helpdesk/internal/pdfreport"
	"github.com/eaata/helpdesk/internal/service"
	apperrors "github.com/eaata/helpdesk/pkg/util/errorutil"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ReportHandler serves period summaries and their PDF renditions.
type ReportHandler struct {
	reports *service.ReportService
	sectors *service.SectorService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService, sectors *service.SectorService) *ReportHandler {
	return &ReportHandler{reports: reports, sectors: sectors}
}

// Summary GET /report/summary.
func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	report, err := h.build(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewReportSummaryResponse(
		report.Period, report.Sector, report.GeneratedAt, report.Metrics, report.Departments, report.Tickets,
	)})
}

// PDF GET /report/pdf renders the stored tickets of a period.
func (h *ReportHandler) PDF(c *fiber.Ctx) error {
	report, err := h.build(c)
	if err != nil {
		return err
	}
	sectors, err := h.sectorOrder(c, report.Sector)
	if err != nil {
		return err
	}
	tickets := report.Tickets
	if tickets == nil {
		tickets = []domain.Ticket{}
	}

	reportType := c.Query("reportType")
	loc := h.reports.Location()
	body, err := renderReport(pdfreport.ReportInput{
		Title:    dto.ReportTitle(reportType),
		Period:   formatPeriod(report.Period.Start.In(loc).Format(dto.DateLayout), report.Period.End.In(loc).Format(dto.DateLayout)),
		Metrics:  &report.Metrics,
		Tickets:  tickets,
		Sectors:  sectors,
		Location: loc,
		Now:      report.GeneratedAt,
	})
	if err != nil {
		return err
	}
	return sendPDF(c, reportFilename(reportType, c.Query("startDate"), c.Query("endDate")), body)
}

// GeneratePDF POST /report/generate-pdf renders a report the client already computed.
func (h *ReportHandler) GeneratePDF(c *fiber.Ctx) error {
	var req dto.GeneratePDFRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ReportData == nil {
		return apperrors.NewValidationError("reportData required", nil)
	}
	data := req.ReportData

	var metrics *domain.ReportMetrics
	if data.Metrics != nil {
		m := data.Metrics.ToDomain()
		metrics = &m
	}
	var tickets []domain.Ticket
	if data.Tickets != nil {
		tickets = make([]domain.Ticket, 0, len(data.Tickets))
		for _, t := range data.Tickets {
			tickets = append(tickets, t.ToDomain())
		}
	}
	sectors, err := h.sectorOrder(c, "")
	if err != nil {
		return err
	}

	title := data.Title
	if title == "" {
		title = dto.ReportTitle(req.ReportType)
	}
	period := data.Period
	if period == "" {
		period = formatPeriod(req.StartDate, req.EndDate)
	}
	body, err := renderReport(pdfreport.ReportInput{
		Title:    title,
		Summary:  data.Summary,
		Period:   period,
		Metrics:  metrics,
		Tickets:  tickets,
		Sectors:  sectors,
		Location: h.reports.Location(),
		Now:      utcNow(),
	})
	if err != nil {
		return err
	}
	return sendPDF(c, reportFilename(req.ReportType, req.StartDate, req.EndDate), body)
}

func (h *ReportHandler) build(c *fiber.Ctx) (*service.Report, error) {
	q, err := h.reports.ParseQuery(c.Query("startDate"), c.Query("endDate"), c.Query("sector"))
	if err != nil {
		return nil, err
	}
	return h.reports.BuildReport(c.UserContext(), q)
}

// sectorOrder returns the department page order: the requested sector alone or the registry.
func (h *ReportHandler) sectorOrder(c *fiber.Ctx, sector string) ([]string, error) {
	if sector != "" {
		return []string{sector}, nil
	}
	return h.sectors.SectorNames(c.UserContext())
}

func renderReport(in pdfreport.ReportInput) ([]byte, error) {
	body, err := pdfreport.RenderReport(in)
	switch {
	case errors.Is(err, pdfreport.ErrIncompleteReport):
		return nil, apperrors.NewValidationError("incomplete report data", map[string]any{
			"required": []string{"metrics", "tickets"},
		})
	case err != nil:
		return nil, apperrors.NewInternalError(err)
	}
	return body, nil
}

func formatPeriod(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	switch {
	case start != "" && end != "":
		return start + " to " + end
	case start != "":
		return "from " + start
	case end != "":
		return "until " + end
	}
	return ""
}

// reportFilename builds report-<type>-<start>-<end>.pdf from sanitized parts.
func reportFilename(reportType, start, end string) string {
	kind := unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(reportType), "")
	if kind == "" {
		kind = "custom"
	}
	name := "report-" + kind
	for _, part := range []string{start, end} {
		if len(part) > len(dto.DateLayout) {
			part = part[:len(dto.DateLayout)]
		}
		if part = unsafeFilenameChars.ReplaceAllString(part, ""); part != "" {
			name += "-" + part
		}
	}
	return fmt.Sprintf("%s.pdf", name)
}
