package pdf

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/inkwell-pdf/inkwell/internal/domain"
)

// ─── Generation ─────────────────────────────────────────────────────────────

func TestTextToPDF(t *testing.T) {
	out, err := TextToPDF("Hello from inkwell.\nSecond line.", "Greeting")
	if err != nil {
		t.Fatalf("TextToPDF() error: %v", err)
	}
	if got := pageCount(t, out); got < 1 {
		t.Errorf("page count = %d, want >= 1", got)
	}
}

func TestTextToPDF_RequiresText(t *testing.T) {
	if _, err := TextToPDF("", ""); !errors.Is(err, domain.ErrMissingParameter) {
		t.Errorf("err = %v, want ErrMissingParameter", err)
	}
}

func TestHTMLToPDF(t *testing.T) {
	out, err := HTMLToPDF("<p>Hello <b>world</b>, this is <i>inkwell</i>.</p>")
	if err != nil {
		t.Fatalf("HTMLToPDF() error: %v", err)
	}
	if got := pageCount(t, out); got < 1 {
		t.Errorf("page count = %d, want >= 1", got)
	}
}

func TestMarkdownToPDF(t *testing.T) {
	src := "# Title\n\nSome **bold** text and a [link](https://example.com).\n"
	out, err := MarkdownToPDF(src)
	if err != nil {
		t.Fatalf("MarkdownToPDF() error: %v", err)
	}
	if got := pageCount(t, out); got < 1 {
		t.Errorf("page count = %d, want >= 1", got)
	}
}

func TestCreateForm(t *testing.T) {
	fields := []FormFieldSpec{
		{Label: "Full name", Type: "text"},
		{Label: "Comments", Type: "multiline"},
		{Label: "I agree", Type: "checkbox"},
		{Label: "Sign here", Type: "signature"},
		{Label: "Date", Type: "date"},
	}
	out, err := CreateForm("Intake Form", fields)
	if err != nil {
		t.Fatalf("CreateForm() error: %v", err)
	}
	if got := pageCount(t, out); got < 1 {
		t.Errorf("page count = %d, want >= 1", got)
	}
}

func TestCreateForm_RequiresFields(t *testing.T) {
	if _, err := CreateForm("Empty", nil); !errors.Is(err, domain.ErrMissingParameter) {
		t.Errorf("err = %v, want ErrMissingParameter", err)
	}
}

// ─── Split ──────────────────────────────────────────────────────────────────

func TestSplitAll(t *testing.T) {
	doc := makePDF(t, 3)

	archive, err := SplitAll(context.Background(), doc)
	if err != nil {
		t.Fatalf("SplitAll() error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 3 {
		t.Fatalf("archive has %d entries, want 3", len(zr.File))
	}
	wantNames := []string{"page_0001.pdf", "page_0002.pdf", "page_0003.pdf"}
	for i, f := range zr.File {
		if f.Name != wantNames[i] {
			t.Errorf("entry %d = %q, want %q", i, f.Name, wantNames[i])
		}
	}
}

// ─── Sign ───────────────────────────────────────────────────────────────────

func TestSignText(t *testing.T) {
	doc := makePDF(t, 2)
	params := SignParams{
		Page: 2, X: 100, Y: 120,
		Name: "Grace Hopper", Title: "Rear Admiral", ShowDate: true,
	}
	out, err := SignText(doc, "Grace Hopper", params, time.Now())
	if err != nil {
		t.Fatalf("SignText() error: %v", err)
	}
	if got := pageCount(t, out); got != 2 {
		t.Errorf("page count after sign = %d, want 2", got)
	}
}

func TestSignText_PageOutOfRange(t *testing.T) {
	doc := makePDF(t, 2)
	params := SignParams{Page: 5, X: 100, Y: 120}
	if _, err := SignText(doc, "x", params, time.Now()); !errors.Is(err, domain.ErrInvalidPageRange) {
		t.Errorf("err = %v, want ErrInvalidPageRange", err)
	}
}

// ─── Certificate stamp ──────────────────────────────────────────────────────

func TestStampCertificate(t *testing.T) {
	doc := makePDF(t, 1)
	out, err := StampCertificate(doc, "0b7d7c3e")
	if err != nil {
		t.Fatalf("StampCertificate() error: %v", err)
	}
	if got := pageCount(t, out); got != 1 {
		t.Errorf("page count = %d, want 1", got)
	}
}
