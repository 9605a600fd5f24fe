// Package document turns uploaded resume files into text, checks that the text is usable,
// and renders finished resumes to PDF and DOCX.
package document

import (
	"archive/zip"
	"bytes"
	"html"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/jonathan/resume-forge/internal/ingestion"
)

// Kind is the detected file type of an upload.
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindDOCX    Kind = "docx"
	KindText    Kind = "txt"
	KindUnknown Kind = "unknown"
)

const docxDocumentPath = "word/document.xml"

var (
	paragraphRe = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	textRunRe   = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*)?>(.*?)</w:t>`)
)

// DetectKind maps a filename to its kind by lower-cased extension.
func DetectKind(filename string) Kind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDOCX
	case ".txt", ".text":
		return KindText
	default:
		return KindUnknown
	}
}

// DetectAndExtract extracts text from data according to the filename's extension.
// There is no fallback between formats: a PDF that fails to parse is an error.
func DetectAndExtract(filename string, data []byte) (Kind, string, error) {
	kind := DetectKind(filename)

	var (
		text string
		err  error
	)
	switch kind {
	case KindPDF:
		text, err = extractPDF(data)
	case KindDOCX:
		text, err = extractDOCX(data)
	default:
		text = decodeText(data)
	}
	if err != nil {
		return kind, "", &ExtractionError{Kind: kind, Cause: err}
	}

	return kind, ingestion.CleanText(text), nil
}

func extractPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", errors.Wrap(err, "open PDF")
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", errors.Wrapf(err, "extract page %d", i)
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n"), nil
}

// extractDOCX reads word/document.xml and returns the text of each non-empty paragraph,
// one per line.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", errors.Wrap(err, "DOCX is not a zip archive")
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != docxDocumentPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", errors.Wrapf(err, "open %s", f.Name)
		}
		docXML, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", errors.Wrapf(err, "read %s", f.Name)
		}
		break
	}
	if docXML == nil {
		return "", errors.Errorf("%s not found", docxDocumentPath)
	}

	var lines []string
	for _, para := range paragraphRe.FindAllString(string(docXML), -1) {
		var b strings.Builder
		for _, run := range textRunRe.FindAllStringSubmatch(para, -1) {
			b.WriteString(html.UnescapeString(run[1]))
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// decodeText reads bytes as UTF-8, falling back to Latin-1 when they are not valid UTF-8.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return norm.NFC.String(string(data))
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "")
	}
	return norm.NFC.String(string(decoded))
}
