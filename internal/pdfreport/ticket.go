package pdfreport

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/eaata/helpdesk/internal/domain"
)

const maxImageHeight = 90.0

// TicketInput is everything a single-ticket document needs.
type TicketInput struct {
	Ticket   domain.Ticket
	Comments []domain.Comment
	// ImageFile is the local path of the ticket screenshot, if one is stored.
	ImageFile string
	Location  *time.Location
	Now       time.Time
}

// RenderTicket draws one ticket with its comments.
func RenderTicket(in TicketInput) (out []byte, err error) {
	defer recoverRender(&err)
	d, err := renderTicket(in)
	if err != nil {
		return nil, err
	}
	return d.bytes()
}

func renderTicket(in TicketInput) (*document, error) {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	t := in.Ticket
	d := newDocument(fmt.Sprintf("Ticket #%d", t.ID), in.Now, in.Location)
	pdf := d.pdf
	pdf.AddPage()

	d.heading(fmt.Sprintf("Ticket #%d", t.ID), 20)
	d.font("B", 14, colorText)
	d.paragraph(t.Title, 7)
	pdf.Ln(3)

	fields := [][2]string{
		{"Status", t.Status.Label()},
		{"Sector", departmentLabel(t.Department)},
		{"Opened by", valueOr(t.OpenedBy)},
		{"Created", t.CreatedAt.In(d.loc).Format(timeLayout)},
		{"Updated", t.UpdatedAt.In(d.loc).Format(timeLayout)},
		{"Due date", d.date(t.DueDate)},
		{"Closed", d.date(t.ClosedAt)},
	}
	if days := t.ResolutionDays(); days != nil {
		fields = append(fields, [2]string{"Resolution time", strconv.Itoa(*days) + " day(s)"})
	}
	if t.IsOverdue(in.Now) {
		fields = append(fields, [2]string{"Overdue", "yes"})
	}
	for _, f := range fields {
		d.font("B", 10, colorText)
		pdf.CellFormat(40, 6, d.tr(f[0]+":"), "", 0, "L", false, 0, "")
		d.font("", 10, colorText)
		pdf.CellFormat(0, 6, d.tr(f[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	d.heading("Description", 14)
	d.font("", 10, colorText)
	if desc := PlainText(t.Description); desc != "" {
		d.paragraph(desc, 5)
	} else {
		d.line("(no description)", 5)
	}
	pdf.Ln(4)

	if in.ImageFile != "" {
		embedImage(d, in.ImageFile)
	}

	d.ensureSpace(20)
	d.heading(fmt.Sprintf("Comments (%d)", len(in.Comments)), 14)
	for _, c := range in.Comments {
		commentBlock(d, c)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return d, nil
}

// embedImage draws the screenshot scaled to the page. Formats fpdf cannot read
// are skipped rather than failing the document.
func embedImage(d *document, path string) {
	pdf := d.pdf
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "jpg", "jpeg", "png", "gif":
	default:
		return
	}
	opts := fpdf.ImageOptions{ImageType: ext, ReadDpi: true}
	info := pdf.RegisterImageOptions(path, opts)
	if pdf.Err() || info == nil {
		pdf.ClearError()
		return
	}

	w, h := info.Extent()
	maxW := d.usableWidth()
	if w > maxW {
		h = h * maxW / w
		w = maxW
	}
	if h > maxImageHeight {
		w = w * maxImageHeight / h
		h = maxImageHeight
	}
	d.ensureSpace(h + 4)
	left, _, _, _ := pdf.GetMargins()
	pdf.ImageOptions(path, left, pdf.GetY(), w, h, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + h + 4)
}

func commentBlock(d *document, c domain.Comment) {
	pdf := d.pdf
	text := PlainText(c.Conteudo)
	d.font("", 10, colorText)
	lines := d.lineCount(text, d.usableWidth())
	d.ensureSpace(6 + float64(lines)*5 + 10)

	author := c.Autor
	if author == "" {
		author = "Anonymous"
	}
	d.font("B", 10, colorTitle)
	d.line(fmt.Sprintf("%s - %s", author, c.CreatedAt.In(d.loc).Format(timeLayout)), 6)
	if text != "" {
		d.font("", 10, colorText)
		d.paragraph(text, 5)
	}
	if c.AttachmentURL != nil {
		name := *c.AttachmentURL
		if c.AttachmentName != nil {
			name = *c.AttachmentName
		}
		d.font("I", 9, colorMuted)
		d.paragraph("Attachment: "+name, 5)
	}
	pdf.Ln(2)
	d.rule()
	pdf.Ln(2)
}

func valueOr(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
