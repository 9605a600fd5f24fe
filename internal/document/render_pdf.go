package document

import (
	"bytes"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

const (
	pdfMargin       = 54.0 // 0.75in in points
	pdfBulletIndent = 14.0
	pdfLineHeight   = 13.0
)

// RenderPDF lays resume text out on Letter pages.
func RenderPDF(text string) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, l := range classify(text) {
		switch l.kind {
		case lineBlank, lineDivider:
			pdf.Ln(pdfLineHeight / 2)
		case lineTitle:
			pdf.SetFont("Helvetica", "B", 16)
			pdf.SetTextColor(0, 0, 0)
			pdf.MultiCell(0, 20, tr(l.text), "", "C", false)
			pdf.Ln(4)
		case lineHeading:
			pdf.Ln(4)
			pdf.SetFont("Helvetica", "B", 12)
			pdf.SetTextColor(0x2c, 0x3e, 0x50)
			pdf.MultiCell(0, 16, tr(l.text), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		case lineBullet:
			pdf.SetLeftMargin(pdfMargin + pdfBulletIndent)
			pdf.SetX(pdfMargin + pdfBulletIndent)
			writeInline(pdf, tr, "• "+l.text)
			pdf.SetLeftMargin(pdfMargin)
		default:
			writeInline(pdf, tr, l.text)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Format: "PDF", Cause: errors.Wrap(err, "write PDF")}
	}
	return buf.Bytes(), nil
}

// writeInline writes a 10pt line, rendering its first **x** span bold.
func writeInline(pdf *fpdf.Fpdf, tr func(string) string, s string) {
	pdf.SetTextColor(0, 0, 0)
	before, bold, after, ok := splitBold(s)
	pdf.SetFont("Helvetica", "", 10)
	if !ok {
		pdf.Write(pdfLineHeight, tr(s))
		pdf.Ln(pdfLineHeight)
		return
	}
	pdf.Write(pdfLineHeight, tr(before))
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Write(pdfLineHeight, tr(bold))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Write(pdfLineHeight, tr(after))
	pdf.Ln(pdfLineHeight)
}
