package pdfreport

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/eaata/helpdesk/internal/domain"
)

// ErrIncompleteReport is returned before any drawing when metrics or tickets are missing.
var ErrIncompleteReport = errors.New("report data incomplete: metrics and tickets are required")

const (
	defaultReportTitle = "Ticket report"
	descriptionLimit   = 600
	chartHeight        = 60.0
	chartLabelHeight   = 10.0
	rowChartHeight     = 7.0
	rowLabelWidth      = 45.0
	statusBarHeight    = 8.0
)

// ReportInput is everything a period report needs.
type ReportInput struct {
	Title   string
	Summary string
	Period  string
	Metrics *domain.ReportMetrics
	// Tickets must be non-nil; an empty slice renders an empty report.
	Tickets []domain.Ticket
	// Sectors fixes the order of department pages for known sectors.
	Sectors  []string
	Location *time.Location
	Now      time.Time
}

func (in ReportInput) validate() error {
	if in.Metrics == nil || in.Tickets == nil {
		return ErrIncompleteReport
	}
	return nil
}

// RenderReport draws the full report into memory and returns the PDF bytes.
func RenderReport(in ReportInput) (out []byte, err error) {
	defer recoverRender(&err)
	w, err := renderReport(in)
	if err != nil {
		return nil, err
	}
	return w.doc.bytes()
}

type reportWriter struct {
	doc    *document
	in     ReportInput
	groups []domain.DepartmentGroup
	stage  stage
	dept   int
	trace  []stage
	chart  ChartLayout
}

func renderReport(in ReportInput) (*reportWriter, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	if in.Title == "" {
		in.Title = defaultReportTitle
	}
	w := &reportWriter{
		doc:    newDocument(in.Title, in.Now, in.Location),
		in:     in,
		groups: domain.GroupByDepartment(in.Tickets, in.Sectors, in.Now),
		stage:  stageCover,
	}
	if err := w.run(); err != nil {
		return nil, err
	}
	return w, nil
}

// run walks the pages in order: cover, summary, one page per non-empty department.
func (w *reportWriter) run() error {
	for w.stage != stageDone {
		w.trace = append(w.trace, w.stage)
		switch w.stage {
		case stageCover:
			w.cover()
			w.stage = stageSummary
		case stageSummary:
			w.summary()
			w.dept = -1
			w.stage = w.nextDepartment()
		case stageDepartment:
			w.department(w.groups[w.dept])
			w.stage = w.nextDepartment()
		}
		if err := w.doc.pdf.Error(); err != nil {
			return fmt.Errorf("%w: %s page: %v", ErrRender, w.trace[len(w.trace)-1], err)
		}
	}
	return nil
}

func (w *reportWriter) nextDepartment() stage {
	for w.dept+1 < len(w.groups) {
		w.dept++
		if w.groups[w.dept].Total > 0 {
			return stageDepartment
		}
	}
	return stageDone
}

func (w *reportWriter) cover() {
	d := w.doc
	pdf := d.pdf
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	d.fill(rgb{248, 249, 250})
	pdf.Rect(0, 0, pageW, pageH, "F")

	pdf.SetY(80)
	d.font("B", 24, colorTitle)
	pdf.CellFormat(0, 14, d.tr(w.in.Title), "", 1, "C", false, 0, "")
	if w.in.Period != "" {
		pdf.Ln(6)
		d.font("", 16, colorMuted)
		pdf.CellFormat(0, 10, d.tr("Period: "+w.in.Period), "", 1, "C", false, 0, "")
	}
	pdf.Ln(8)
	d.font("", 12, colorMuted)
	pdf.CellFormat(0, 8, d.tr("Generated on "+w.in.Now.In(d.loc).Format(timeLayout)), "", 1, "C", false, 0, "")
}

func (w *reportWriter) summary() {
	d := w.doc
	pdf := d.pdf
	m := w.in.Metrics
	pdf.AddPage()

	d.heading("Executive summary", 18)
	if w.in.Summary != "" {
		d.font("", 11, colorText)
		d.paragraph(w.in.Summary, 5)
		pdf.Ln(4)
	}

	d.font("B", 12, colorText)
	d.line("General metrics", 7)
	d.font("", 11, colorText)
	items := []string{
		fmt.Sprintf("Total tickets: %d", m.Total),
		fmt.Sprintf("Open: %d", m.Open),
		fmt.Sprintf("In progress: %d", m.InProgress),
		fmt.Sprintf("Resolved: %d", m.Resolved),
		fmt.Sprintf("Completed on time: %d (%d%%)", m.CompletedOnTime, domain.Percent(m.CompletedOnTime, m.Total)),
		fmt.Sprintf("Overdue: %d", m.Overdue),
		fmt.Sprintf("Completion rate: %d%%", m.CompletionRate),
	}
	for i, item := range items {
		d.line(fmt.Sprintf("%d. %s", i+1, item), 6)
	}
	pdf.Ln(4)

	d.font("B", 12, colorText)
	d.line("Distribution by sector", 7)
	d.font("", 11, colorText)
	total := len(w.in.Tickets)
	for _, g := range w.groups {
		d.ensureSpace(6)
		d.line(fmt.Sprintf("• %s: %d tickets (%d%%)", departmentLabel(g.Name), g.Total, domain.Percent(g.Total, total)), 6)
	}
	pdf.Ln(6)

	w.chart = PlanChart(len(w.groups), d.usableWidth())
	if len(w.groups) == 0 {
		return
	}
	if w.chart.Kind == ChartColumns {
		w.columnChart()
	} else {
		w.rowChart()
	}
}

func (w *reportWriter) maxGroupTotal() int {
	peak := 1
	for _, g := range w.groups {
		if g.Total > peak {
			peak = g.Total
		}
	}
	return peak
}

func (w *reportWriter) columnChart() {
	d := w.doc
	pdf := d.pdf
	layout := w.chart
	d.ensureSpace(chartHeight + chartLabelHeight + 10)

	left, _, _, _ := pdf.GetMargins()
	top := pdf.GetY() + 6
	base := top + chartHeight
	peak := float64(w.maxGroupTotal())

	pdf.SetDrawColor(colorMuted.r, colorMuted.g, colorMuted.b)
	pdf.SetLineWidth(0.3)
	pdf.Line(left, base, left+d.usableWidth(), base)

	d.fill(colorBar)
	for i, g := range w.groups {
		x := left + layout.Offset + float64(i)*(layout.BarWidth+layout.Gap)
		h := chartHeight * float64(g.Total) / peak
		if h > 0 {
			pdf.Rect(x, base-h, layout.BarWidth, h, "F")
		}
		d.font("B", 9, colorText)
		pdf.SetXY(x, base-h-5)
		pdf.CellFormat(layout.BarWidth, 5, strconv.Itoa(g.Total), "", 0, "C", false, 0, "")

		d.font("", 8, colorText)
		slot := layout.BarWidth + layout.Gap
		pdf.SetXY(x-layout.Gap/2, base+1)
		pdf.CellFormat(slot, 5, d.fit(departmentLabel(g.Name), slot-1), "", 0, "C", false, 0, "")
	}
	pdf.SetY(base + chartLabelHeight)
}

func (w *reportWriter) rowChart() {
	d := w.doc
	pdf := d.pdf
	left, _, _, _ := pdf.GetMargins()
	barMax := d.usableWidth() - rowLabelWidth - 15
	peak := float64(w.maxGroupTotal())

	d.fill(colorBar)
	for _, g := range w.groups {
		d.ensureSpace(rowChartHeight)
		y := pdf.GetY()
		d.font("", 9, colorText)
		pdf.SetXY(left, y)
		pdf.CellFormat(rowLabelWidth, rowChartHeight, d.fit(departmentLabel(g.Name), rowLabelWidth-2), "", 0, "L", false, 0, "")
		bw := barMax * float64(g.Total) / peak
		if bw > 0 {
			pdf.Rect(left+rowLabelWidth, y+1.5, bw, rowChartHeight-3, "F")
		}
		pdf.SetXY(left+rowLabelWidth+bw+2, y)
		pdf.CellFormat(13, rowChartHeight, strconv.Itoa(g.Total), "", 0, "L", false, 0, "")
		pdf.SetY(y + rowChartHeight)
	}
}

func (w *reportWriter) department(g domain.DepartmentGroup) {
	d := w.doc
	pdf := d.pdf
	pdf.AddPage()

	d.heading("Sector: "+departmentLabel(g.Name), 20)

	d.font("", 12, colorText)
	d.line(fmt.Sprintf("Total tickets: %d", g.Total), 7)
	d.line(fmt.Sprintf("Open: %d (%d%%)", g.Open, domain.Percent(g.Open, g.Total)), 7)
	d.line(fmt.Sprintf("In progress: %d (%d%%)", g.InProgress, domain.Percent(g.InProgress, g.Total)), 7)
	d.line(fmt.Sprintf("Resolved: %d (%d%%)", g.Resolved, domain.Percent(g.Resolved, g.Total)), 7)
	d.font("B", 12, colorOverdue)
	d.line(fmt.Sprintf("Overdue: %d", g.Overdue), 7)
	pdf.Ln(3)

	w.statusBar(g)
	pdf.Ln(4)

	d.heading("Tickets", 14)
	for _, t := range g.Tickets {
		w.ticketBlock(t)
	}
}

type segment struct {
	label string
	count int
	color rgb
}

// statusBar draws one bar split proportionally by status, followed by a legend.
func (w *reportWriter) statusBar(g domain.DepartmentGroup) {
	d := w.doc
	pdf := d.pdf
	segments := []segment{
		{domain.TicketStatusOpen.Label(), g.Open, colorOpen},
		{domain.TicketStatusInProgress.Label(), g.InProgress, colorInProgress},
		{"Resolved", g.Resolved, colorResolved},
	}

	d.ensureSpace(statusBarHeight + 12)
	left, _, _, _ := pdf.GetMargins()
	width := d.usableWidth()
	y := pdf.GetY()
	x := left
	if g.Total > 0 {
		for _, s := range segments {
			if s.count == 0 {
				continue
			}
			sw := width * float64(s.count) / float64(g.Total)
			d.fill(s.color)
			pdf.Rect(x, y, sw, statusBarHeight, "F")
			x += sw
		}
	}
	pdf.SetDrawColor(colorMuted.r, colorMuted.g, colorMuted.b)
	pdf.SetLineWidth(0.2)
	pdf.Rect(left, y, width, statusBarHeight, "D")

	ly := y + statusBarHeight + 3
	x = left
	d.font("", 9, colorText)
	for _, s := range segments {
		d.fill(s.color)
		pdf.Rect(x, ly+0.5, 4, 4, "F")
		label := d.tr(fmt.Sprintf("%s (%d)", s.label, s.count))
		pdf.SetXY(x+5, ly)
		lw := pdf.GetStringWidth(label) + 2
		pdf.CellFormat(lw, 5, label, "", 0, "L", false, 0, "")
		x += 5 + lw + 6
	}
	pdf.SetY(ly + 6)
}

func (w *reportWriter) ticketBlock(t domain.Ticket) {
	d := w.doc
	pdf := d.pdf
	width := d.usableWidth()
	desc := Truncate(PlainText(t.Description), descriptionLimit)

	d.font("B", 10, colorTitle)
	titleLines := d.lineCount(fmt.Sprintf("#%d %s", t.ID, t.Title), width)
	d.font("", 9, colorText)
	descLines := d.lineCount(desc, width)
	d.ensureSpace(float64(titleLines)*5 + 5 + float64(descLines)*4.5 + 4)

	d.font("B", 10, colorTitle)
	d.paragraph(fmt.Sprintf("#%d %s", t.ID, t.Title), 5)

	meta := fmt.Sprintf("Status: %s   Created: %s   Due: %s", t.Status.Label(), d.date(&t.CreatedAt), d.date(t.DueDate))
	if t.IsOverdue(w.in.Now) {
		meta += "   OVERDUE"
	}
	d.font("", 9, statusColor(t.Status))
	d.line(meta, 5)

	if desc != "" {
		d.font("", 9, colorText)
		d.paragraph(desc, 4.5)
	}
	pdf.Ln(2)
	d.rule()
	pdf.Ln(2)
}
