// Package pdfreport renders ticket reports and single tickets as PDF documents.
package pdfreport

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/eaata/helpdesk/internal/domain"
)

// ErrRender wraps failures raised while drawing.
var ErrRender = errors.New("pdf rendering failed")

const (
	pageMargin = 15.0
	fontFamily = "Helvetica"
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02 15:04"
)

type rgb struct{ r, g, b int }

var (
	colorTitle      = rgb{44, 62, 80}
	colorMuted      = rgb{127, 140, 141}
	colorText       = rgb{51, 51, 51}
	colorOpen       = rgb{52, 152, 219}
	colorInProgress = rgb{243, 156, 18}
	colorResolved   = rgb{46, 204, 113}
	colorOverdue    = rgb{231, 76, 60}
	colorBar        = rgb{41, 128, 185}
	colorRule       = rgb{210, 215, 220}
)

func statusColor(s domain.TicketStatus) rgb {
	switch s {
	case domain.TicketStatusInProgress:
		return colorInProgress
	case domain.TicketStatusClosed:
		return colorResolved
	default:
		return colorOpen
	}
}

// document wraps an fpdf instance with the helpers both renderers share.
type document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	loc *time.Location
}

func newDocument(title string, created time.Time, loc *time.Location) *document {
	if loc == nil {
		loc = time.Local
	}
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("helpdesk", true)
	if !created.IsZero() {
		pdf.SetCreationDate(created)
	}
	pdf.AliasNbPages("")

	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), loc: loc}
	pdf.SetFooterFunc(func() {
		if pdf.PageNo() == 1 {
			return
		}
		pdf.SetY(-12)
		d.font("I", 8, colorMuted)
		pdf.CellFormat(0, 6, fmt.Sprintf("%d / {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return d
}

func (d *document) font(style string, size float64, c rgb) {
	d.pdf.SetFont(fontFamily, style, size)
	d.pdf.SetTextColor(c.r, c.g, c.b)
}

func (d *document) fill(c rgb) {
	d.pdf.SetFillColor(c.r, c.g, c.b)
}

func (d *document) usableWidth() float64 {
	w, _ := d.pdf.GetPageSize()
	left, _, right, _ := d.pdf.GetMargins()
	return w - left - right
}

func (d *document) bodyHeight() float64 {
	_, h := d.pdf.GetPageSize()
	_, top, _, bottom := d.pdf.GetMargins()
	return h - top - bottom
}

func (d *document) remaining() float64 {
	_, h := d.pdf.GetPageSize()
	_, _, _, bottom := d.pdf.GetMargins()
	return h - bottom - d.pdf.GetY()
}

// ensureSpace starts a new page when less than h millimetres are left.
// Blocks taller than a page only get a fresh page.
func (d *document) ensureSpace(h float64) bool {
	if h > d.bodyHeight() {
		h = d.bodyHeight()
	}
	if d.remaining() < h {
		d.pdf.AddPage()
		return true
	}
	return false
}

func (d *document) heading(text string, size float64) {
	d.font("B", size, colorTitle)
	d.pdf.MultiCell(0, size*0.5, d.tr(text), "", "L", false)
	d.pdf.Ln(2)
}

func (d *document) paragraph(text string, lineHeight float64) {
	d.pdf.MultiCell(0, lineHeight, d.tr(text), "", "L", false)
}

func (d *document) line(text string, h float64) {
	d.pdf.CellFormat(0, h, d.tr(text), "", 1, "L", false, 0, "")
}

func (d *document) rule() {
	left, _, _, _ := d.pdf.GetMargins()
	y := d.pdf.GetY()
	d.pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	d.pdf.SetLineWidth(0.2)
	d.pdf.Line(left, y, left+d.usableWidth(), y)
}

// lineCount estimates how many lines text wraps to at width w with the current font.
func (d *document) lineCount(text string, w float64) int {
	if text == "" {
		return 0
	}
	return len(d.pdf.SplitLines([]byte(d.tr(text)), w))
}

// fit shortens text until it is at most w wide with the current font.
func (d *document) fit(text string, w float64) string {
	if d.pdf.GetStringWidth(d.tr(text)) <= w {
		return d.tr(text)
	}
	r := []rune(text)
	for len(r) > 1 {
		r = r[:len(r)-1]
		candidate := d.tr(string(r) + "...")
		if d.pdf.GetStringWidth(candidate) <= w {
			return candidate
		}
	}
	return d.tr(string(r))
}

func (d *document) date(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.In(d.loc).Format(dateLayout)
}

func (d *document) bytes() ([]byte, error) {
	if err := d.pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}

func recoverRender(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrRender, r)
	}
}

func departmentLabel(name string) string {
	if name == "" {
		return domain.NoSectorLabel
	}
	return name
}
