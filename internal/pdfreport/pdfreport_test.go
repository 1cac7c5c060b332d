package pdfreport

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eaata/helpdesk/internal/domain"
)

var testNow = time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)

func sampleTickets(depts ...string) []domain.Ticket {
	tickets := make([]domain.Ticket, 0, len(depts))
	for i, dept := range depts {
		status := domain.TicketStatuses[i%len(domain.TicketStatuses)]
		created := testNow.Add(-time.Duration(i+1) * time.Hour)
		t := domain.Ticket{
			ID:          int64(i + 1),
			Title:       fmt.Sprintf("Ticket %d", i+1),
			Description: "<p>Printer on the <b>second</b> floor</p><img src=\"x.png\">",
			Department:  dept,
			Status:      status,
			CreatedAt:   created,
			UpdatedAt:   created,
		}
		if status == domain.TicketStatusClosed {
			closed := created.Add(30 * time.Minute)
			t.ClosedAt = &closed
		}
		tickets = append(tickets, t)
	}
	return tickets
}

func reportInput(tickets []domain.Ticket, sectors ...string) ReportInput {
	m := domain.Summarize(tickets, testNow)
	return ReportInput{
		Title:    "Weekly report",
		Period:   "2024-04-08 to 2024-04-15",
		Metrics:  &m,
		Tickets:  tickets,
		Sectors:  sectors,
		Location: time.UTC,
		Now:      testNow,
	}
}

func TestRenderReportRejectsIncompleteInput(t *testing.T) {
	m := domain.ReportMetrics{}
	cases := map[string]ReportInput{
		"no metrics": {Tickets: []domain.Ticket{}},
		"no tickets": {Metrics: &m},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := RenderReport(in)
			if !errors.Is(err, ErrIncompleteReport) {
				t.Fatalf("err = %v, want ErrIncompleteReport", err)
			}
			if out != nil {
				t.Error("no bytes expected on validation failure")
			}
		})
	}
}

func TestRenderReportProducesPDF(t *testing.T) {
	out, err := RenderReport(reportInput(sampleTickets("IT", "IT", "HR", ""), "IT", "HR", "Finance"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", out[:8])
	}
}

func TestReportStagesSkipEmptyDepartments(t *testing.T) {
	w, err := renderReport(reportInput(sampleTickets("IT", "IT", "HR", ""), "IT", "HR", "Finance"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := []stage{stageCover, stageSummary, stageDepartment, stageDepartment, stageDepartment}
	if len(w.trace) != len(want) {
		t.Fatalf("trace = %v, want %v", w.trace, want)
	}
	for i := range want {
		if w.trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", w.trace, want)
		}
	}
	// Cover, summary, IT, HR and the no-sector page; Finance is empty.
	if got := w.doc.pdf.PageCount(); got != 5 {
		t.Errorf("pages = %d, want 5", got)
	}
	if w.chart.Kind != ChartColumns {
		t.Errorf("chart = %s, want columns", w.chart.Kind)
	}
}

func TestReportEmptyTicketsOnlyCoverAndSummary(t *testing.T) {
	w, err := renderReport(reportInput([]domain.Ticket{}))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := w.doc.pdf.PageCount(); got != 2 {
		t.Errorf("pages = %d, want 2", got)
	}
}

func TestReportManyGroupsUseRowChart(t *testing.T) {
	depts := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		depts = append(depts, fmt.Sprintf("Sector %02d", i))
	}
	w, err := renderReport(reportInput(sampleTickets(depts...)))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if w.chart.Kind != ChartRows {
		t.Errorf("chart = %s, want rows", w.chart.Kind)
	}
}

func TestReportLongDepartmentPaginates(t *testing.T) {
	depts := make([]string, 80)
	for i := range depts {
		depts[i] = "IT"
	}
	tickets := sampleTickets(depts...)
	long := strings.Repeat("Very long description text that wraps. ", 12)
	for i := range tickets {
		tickets[i].Description = "<p>" + long + "</p>"
	}
	w, err := renderReport(reportInput(tickets, "IT"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := w.doc.pdf.PageCount(); got <= 4 {
		t.Errorf("expected the IT section to span several pages, got %d pages", got)
	}
}

func TestPlanChart(t *testing.T) {
	cases := []struct {
		groups int
		width  float64
		kind   ChartKind
	}{
		{0, 180, ChartRows},
		{1, 180, ChartColumns},
		{8, 180, ChartColumns},
		{9, 180, ChartRows},
		{6, 80, ChartRows},
	}
	for _, tc := range cases {
		got := PlanChart(tc.groups, tc.width)
		if got.Kind != tc.kind {
			t.Errorf("PlanChart(%d, %.0f) kind = %s, want %s", tc.groups, tc.width, got.Kind, tc.kind)
		}
		if got.Kind == ChartColumns {
			if got.BarWidth < minBarWidth || got.BarWidth > maxBarWidth {
				t.Errorf("bar width %.2f out of bounds", got.BarWidth)
			}
			used := float64(tc.groups) * (got.BarWidth + got.Gap)
			if used > tc.width+0.001 {
				t.Errorf("bars overflow: %.2f > %.2f", used, tc.width)
			}
		}
	}
}

func TestPlainText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"<p>Hello <b>world</b></p><p>Two</p>", "Hello world\nTwo"},
		{"<p>see<img src='a.png'> it</p>", "see it"},
		{"<p>Manual <a href='/files/m.PDF'>download</a> here</p>", "Manual here"},
		{"<p><a href='https://x.io'>link</a></p>", "link"},
		{"line<br>break", "line\nbreak"},
	}
	for _, tc := range cases {
		if got := PlainText(tc.in); got != tc.want {
			t.Errorf("PlainText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 4); got != "a..." {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("çãõ", 10); got != "çãõ" {
		t.Errorf("Truncate = %q", got)
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestRenderTicket(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "shot.png")
	writePNG(t, imagePath)

	ticket := sampleTickets("IT")[0]
	url := "http://localhost/upload/uploads/a.png"
	name := "a.png"
	in := TicketInput{
		Ticket: ticket,
		Comments: []domain.Comment{
			{ID: 1, TicketID: ticket.ID, Autor: "Ana", Conteudo: "<p>Looking into it</p>", CreatedAt: testNow},
			{ID: 2, TicketID: ticket.ID, AttachmentURL: &url, AttachmentName: &name, CreatedAt: testNow},
		},
		ImageFile: imagePath,
		Location:  time.UTC,
		Now:       testNow,
	}
	out, err := RenderTicket(in)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Error("missing PDF header")
	}

	// Unreadable or unsupported images are skipped.
	bad := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, img := range []string{bad, filepath.Join(dir, "pic.webp"), filepath.Join(dir, "missing.jpg")} {
		in.ImageFile = img
		if _, err := RenderTicket(in); err != nil {
			t.Errorf("render with %s: %v", filepath.Base(img), err)
		}
	}
}
