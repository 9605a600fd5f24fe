package document

import (
	"bytes"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/stypes"
	"github.com/pkg/errors"
)

// DOCXContentType is the MIME type of rendered DOCX files.
const DOCXContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const docxHeadingColor = "2C3E50"

// RenderDOCX writes resume text as a Word document, one paragraph per non-empty line.
// Dividers become empty spacer paragraphs.
func RenderDOCX(text string) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, &RenderError{Format: "DOCX", Cause: errors.Wrap(err, "create document")}
	}

	for _, l := range classify(text) {
		switch l.kind {
		case lineBlank:
		case lineDivider:
			doc.AddEmptyParagraph()
		case lineTitle:
			p := doc.AddEmptyParagraph()
			p.Justification(stypes.JustificationCenter)
			p.AddText(l.text).Bold(true).Size(16)
		case lineHeading:
			doc.AddEmptyParagraph().AddText(l.text).Bold(true).Size(12).Color(docxHeadingColor)
		case lineBullet:
			addRuns(doc.AddEmptyParagraph(), "• "+l.text)
		default:
			addRuns(doc.AddEmptyParagraph(), l.text)
		}
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, &RenderError{Format: "DOCX", Cause: errors.Wrap(err, "write DOCX")}
	}
	return buf.Bytes(), nil
}

// addRuns appends s to p, turning **x** spans into bold runs.
func addRuns(p *docx.Paragraph, s string) {
	for _, r := range boldRuns(s) {
		run := p.AddText(r.text)
		if r.bold {
			run.Bold(true)
		}
	}
}
