package pdf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/inkwell-pdf/inkwell/internal/domain"
)

// ─── Document Generation ────────────────────────────────────────────────────
// These handlers build new documents rather than transforming uploads.

const bodyLineHeight = 14

func newDocument() *gofpdf.Fpdf {
	doc := gofpdf.New("P", "pt", "A4", "")
	doc.SetMargins(54, 54, 54)
	doc.SetFont("Helvetica", "", 11)
	doc.AddPage()
	return doc
}

func output(doc *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return buf.Bytes(), nil
}

// TextToPDF lays plain text out into a paginated document.
func TextToPDF(text, title string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text", domain.ErrMissingParameter)
	}
	doc := newDocument()
	if title != "" {
		doc.SetFont("Helvetica", "B", 16)
		doc.MultiCell(0, 20, title, "", "L", false)
		doc.Ln(10)
		doc.SetFont("Helvetica", "", 11)
	}
	doc.MultiCell(0, bodyLineHeight, text, "", "L", false)
	return output(doc)
}

// HTMLToPDF renders basic HTML markup (paragraphs, bold, italics,
// links, line breaks) into a document.
func HTMLToPDF(html string) ([]byte, error) {
	if html == "" {
		return nil, fmt.Errorf("%w: html", domain.ErrMissingParameter)
	}
	doc := newDocument()
	tr := doc.HTMLBasicNew()
	tr.Write(bodyLineHeight, html)
	return output(doc)
}

// MarkdownToPDF converts Markdown (GFM) to HTML and renders it.
func MarkdownToPDF(markdown string) ([]byte, error) {
	if markdown == "" {
		return nil, fmt.Errorf("%w: markdown", domain.ErrMissingParameter)
	}
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var html bytes.Buffer
	if err := md.Convert([]byte(markdown), &html); err != nil {
		return nil, fmt.Errorf("parse markdown: %w", err)
	}
	return HTMLToPDF(html.String())
}

// ImagesToPDF places each image on its own A4 page, centered, in input
// order.
func ImagesToPDF(images [][]byte) ([]byte, error) {
	if len(images) == 0 {
		return nil, domain.ErrNoInputFile
	}
	readers := make([]io.Reader, len(images))
	for i, img := range images {
		readers[i] = bytes.NewReader(img)
	}
	imp, err := api.Import("form:A4, pos:c, scale:0.9 rel", types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("images to pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := api.ImportImages(nil, &buf, readers, imp, conf()); err != nil {
		return nil, fmt.Errorf("images to pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// ─── Form Generation ────────────────────────────────────────────────────────

// FormFieldSpec describes one field of a generated form layout.
type FormFieldSpec struct {
	Label string `json:"label"`
	Type  string `json:"type"` // text, multiline, checkbox, signature, date
}

// CreateForm generates a printable form layout: a title followed by a
// labeled input area per field.
func CreateForm(title string, fields []FormFieldSpec) ([]byte, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: fields", domain.ErrMissingParameter)
	}
	doc := newDocument()
	if title != "" {
		doc.SetFont("Helvetica", "B", 18)
		doc.MultiCell(0, 24, title, "", "L", false)
		doc.Ln(12)
	}

	pageW, _ := doc.GetPageSize()
	left, _, right, _ := doc.GetMargins()
	usable := pageW - left - right

	for _, f := range fields {
		doc.SetFont("Helvetica", "", 11)
		doc.MultiCell(0, bodyLineHeight, f.Label, "", "L", false)
		doc.Ln(2)
		x, y := doc.GetX(), doc.GetY()
		switch f.Type {
		case "checkbox":
			doc.Rect(x, y, 12, 12, "D")
			doc.SetY(y + 18)
		case "multiline":
			doc.Rect(x, y, usable, 72, "D")
			doc.SetY(y + 78)
		case "signature":
			doc.Line(x, y+28, x+usable*0.6, y+28)
			doc.SetFont("Helvetica", "I", 8)
			doc.Text(x, y+40, "Signature")
			doc.SetY(y + 48)
		case "date":
			doc.Rect(x, y, 120, 20, "D")
			doc.SetY(y + 26)
		default: // text
			doc.Rect(x, y, usable, 20, "D")
			doc.SetY(y + 26)
		}
		doc.Ln(8)
	}
	return output(doc)
}
