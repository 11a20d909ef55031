package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/inkwell-pdf/inkwell/internal/app/certify"
	"github.com/inkwell-pdf/inkwell/internal/domain"
	"github.com/inkwell-pdf/inkwell/internal/pdf"
)

// Deps are the collaborators handlers close over. Certify is required
// for add_certificate and verify; every other handler is stateless.
type Deps struct {
	Certify *certify.Service

	// CertificateTTL bounds issued certificates; zero means no expiry.
	CertificateTTL time.Duration
}

// userIDKey carries the authenticated user through handler invocations.
type userIDKey struct{}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID extracts the authenticated user id, "" when anonymous.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// NewRegistry builds the full operation table. Construction fails if
// any entry is missing a cost, usage text, or handler, so a partial
// table can never reach the dispatcher.
func NewRegistry(deps Deps) (*Registry, error) {
	return newRegistry([]Operation{
		{Name: "merge", Cost: 2, Usage: "files (2+ PDFs); concatenates all pages in input order",
			Handler: handleMerge},
		{Name: "split", Cost: 2, Usage: "file; optional range=1-3,5 (omit to split every page into a ZIP)",
			Handler: handleSplit},
		{Name: "extract_pages", Cost: 1, Usage: "file; range=1-3,5 selects pages to keep",
			Handler: handleExtractPages},
		{Name: "rotate", Cost: 1, Usage: "file; angle=90|180|270|-90|-180|-270; pages=all|odd|even|range",
			Handler: handleRotate},
		{Name: "reorder_pages", Cost: 1, Usage: "file; order=3,1,2,4 (a permutation of every page)",
			Handler: handleReorder},
		{Name: "delete_pages", Cost: 1, Usage: "file; range=pages to remove (cannot remove all)",
			Handler: handleDeletePages},
		{Name: "compress", Cost: 3, Usage: "file; rewrites the document with optimized resources",
			Handler: handleCompress},
		{Name: "watermark", Cost: 2, Usage: "file; text=...; position=center|diagonal|header|footer; opacity=0.3; pages=all|odd|even|range",
			Handler: handleWatermark},
		{Name: "protect", Cost: 2, Usage: "file; password=...; optional owner_password",
			Handler: handleProtect},
		{Name: "unlock", Cost: 3, Usage: "file; password=...",
			Handler: handleUnlock},
		{Name: "add_page_numbers", Cost: 1, Usage: "file; stamps 'n of N' at the bottom of every page",
			Handler: handlePageNumbers},
		{Name: "add_date_stamp", Cost: 1, Usage: "file; optional position=top-left..bottom-right; optional date=2006-01-02",
			Handler: handleDateStamp},
		{Name: "sign", Cost: 3, Usage: "file (+ optional signature image as second file); page, x, y; text= for a typed signature; name, title, reason, show_date",
			Handler: handleSign},
		{Name: "add_initials", Cost: 2, Usage: "file; initials=... stamped on every page",
			Handler: handleInitials},
		{Name: "add_certificate", Cost: 5, Usage: "file; signer=...; optional reason; issues and stamps a certificate",
			Handler: deps.handleAddCertificate},
		{Name: "verify", Cost: 1, Usage: "file; certificate_id=...; returns a JSON validity verdict",
			Handler: deps.handleVerify},
		{Name: "fill", Cost: 3, Usage: "file; fields={\"name\":\"value\",...} JSON object",
			Handler: handleFill},
		{Name: "create_form", Cost: 5, Usage: "fields=[{\"label\":...,\"type\":text|multiline|checkbox|signature|date}] JSON; optional title",
			Handler: handleCreateForm},
		{Name: "flatten_form", Cost: 2, Usage: "file; locks every form field read-only",
			Handler: handleFlattenForm},
		{Name: "extract_fields", Cost: 1, Usage: "file; returns the form fields as JSON",
			Handler: handleExtractFields},
		{Name: "images-to-pdf", Cost: 2, Usage: "files (images); one centered image per A4 page",
			Handler: handleImagesToPDF},
		{Name: "html-to-pdf", Cost: 3, Usage: "html=... or an uploaded HTML file",
			Handler: handleHTMLToPDF},
		{Name: "markdown-to-pdf", Cost: 2, Usage: "markdown=... or an uploaded Markdown file",
			Handler: handleMarkdownToPDF},
		{Name: "text-to-pdf", Cost: 1, Usage: "text=...; optional title",
			Handler: handleTextToPDF},
	})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func firstFile(req *Request) ([]byte, error) {
	if len(req.Files) == 0 {
		return nil, domain.ErrNoInputFile
	}
	return req.Files[0], nil
}

// textInput returns the named parameter, falling back to the first
// uploaded file for operations that accept either.
func textInput(req *Request, param string) (string, error) {
	if v := req.Param(param); v != "" {
		return v, nil
	}
	if len(req.Files) > 0 {
		return string(req.Files[0]), nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrMissingParameter, param)
}

func pdfResult(b []byte, filename, message string) *Result {
	return &Result{Bytes: b, ContentType: "application/pdf", Filename: filename, Message: message}
}

// ─── Structural handlers ────────────────────────────────────────────────────

func handleMerge(_ context.Context, req *Request) (*Result, error) {
	out, err := pdf.Merge(req.Files)
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "merged.pdf", fmt.Sprintf("merged %d documents", len(req.Files))), nil
}

func handleSplit(ctx context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	if rangeExpr := req.Param("range"); rangeExpr != "" {
		out, err := pdf.ExtractPages(doc, rangeExpr)
		if err != nil {
			return nil, err
		}
		return pdfResult(out, "split.pdf", "extracted "+rangeExpr), nil
	}
	archive, err := pdf.SplitAll(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &Result{
		Bytes:       archive,
		ContentType: "application/zip",
		Filename:    "pages.zip",
		Message:     "split into single pages",
	}, nil
}

func handleExtractPages(_ context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	rangeExpr := req.Param("range")
	if rangeExpr == "" {
		return nil, fmt.Errorf("%w: range", domain.ErrMissingParameter)
	}
	out, err := pdf.ExtractPages(doc, rangeExpr)
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "extracted.pdf", "extracted "+rangeExpr), nil
}

func handleRotate(_ context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	angle, err := strconv.Atoi(req.Param("angle"))
	if err != nil {
		return nil, domain.ErrInvalidRotation
	}
	out, err := pdf.Rotate(doc, angle, req.Param("pages"))
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "rotated.pdf", fmt.Sprintf("rotated by %d degrees", angle)), nil
}

func handleReorder(_ context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(req.Param("order"), ",")
	order := make([]int, 0, len(parts))
	for _, part := range parts {
		p, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidOrder, req.Param("order"))
		}
		order = append(order, p)
	}
	out, err := pdf.Reorder(doc, order)
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "reordered.pdf", "pages reordered"), nil
}

func handleDeletePages(_ context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	rangeExpr := req.Param("range")
	if rangeExpr == "" {
		return nil, fmt.Errorf("%w: range", domain.ErrMissingParameter)
	}
	out, err := pdf.DeletePages(doc, rangeExpr)
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "trimmed.pdf", "deleted "+rangeExpr), nil
}

func handleCompress(_ context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	out, err := pdf.Compress(doc)
	if err != nil {
		return nil, err
	}
	saved := len(doc) - len(out)
	return pdfResult(out, "compressed.pdf", fmt.Sprintf("saved %d bytes", saved)), nil
}

// ─── Stamp handlers ─────────────────────────────────────────────────────────

func handleWatermark(_ context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	position := pdf.WatermarkPosition(req.Param("position"))
	if position == "" {
		position = pdf.WatermarkDiagonal
	}
	opacity, _ := strconv.ParseFloat(req.Param("opacity"), 64)
	out, err := pdf.Watermark(doc, req.Param("text"), position, opacity, req.Param("pages"))
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "watermarked.pdf", "watermark applied"), nil
}

func handleProtect(_ context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	out, err := pdf.Protect(doc, req.Param("password"), req.Param("owner_password"))
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "protected.pdf", "document encrypted"), nil
}

func handleUnlock(_ context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	out, err := pdf.Unlock(doc, req.Param("password"))
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "unlocked.pdf", "document decrypted"), nil
}

func handlePageNumbers(_ context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	out, err := pdf.AddPageNumbers(doc)
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "numbered.pdf", "page numbers added"), nil
}

func handleDateStamp(_ context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	when := time.Now()
	if d := req.Param("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrMissingParameter)
		}
		when = parsed
	}
	out, err := pdf.AddDateStamp(doc, when, req.Param("position"))
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "dated.pdf", "date stamp added"), nil
}

// ─── Signature handlers ─────────────────────────────────────────────────────

func signParams(req *Request) (pdf.SignParams, error) {
	page, err := strconv.Atoi(req.Param("page"))
	if err != nil {
		return pdf.SignParams{}, fmt.Errorf("%w: page", domain.ErrMissingParameter)
	}
	x, _ := strconv.ParseFloat(req.Param("x"), 64)
	y, _ := strconv.ParseFloat(req.Param("y"), 64)
	scale, _ := strconv.ParseFloat(req.Param("scale"), 64)
	return pdf.SignParams{
		Page: page, X: x, Y: y, Scale: scale,
		Name:     req.Param("name"),
		Title:    req.Param("title"),
		Reason:   req.Param("reason"),
		ShowDate: req.Param("show_date") == "true",
	}, nil
}

func handleSign(_ context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	params, err := signParams(req)
	if err != nil {
		return nil, err
	}
	var out []byte
	if len(req.Files) >= 2 {
		// Second upload is the drawn or scanned signature image.
		out, err = pdf.SignImage(doc, req.Files[1], params, time.Now())
	} else {
		out, err = pdf.SignText(doc, req.Param("text"), params, time.Now())
	}
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "signed.pdf", "signature placed"), nil
}

func handleInitials(_ context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	out, err := pdf.AddInitials(doc, req.Param("initials"))
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "initialed.pdf", "initials added"), nil
}

// ─── Certificate handlers ───────────────────────────────────────────────────

func (d Deps) handleAddCertificate(ctx context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	signer := req.Param("signer")
	if signer == "" {
		return nil, fmt.Errorf("%w: signer", domain.ErrMissingParameter)
	}
	// The certificate hashes the stamped artifact, so the delivered file
	// is exactly what later verification expects.
	cert, stamped, err := d.Certify.IssueForArtifact(ctx, UserID(ctx), signer, req.Param("reason"), d.CertificateTTL,
		func(certID string) ([]byte, error) {
			return pdf.StampCertificate(doc, certID)
		})
	if err != nil {
		return nil, err
	}
	return pdfResult(stamped, "certified.pdf", "certificate "+cert.ID+" issued"), nil
}

func (d Deps) handleVerify(ctx context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	certID := req.Param("certificate_id")
	if certID == "" {
		return nil, fmt.Errorf("%w: certificate_id", domain.ErrMissingParameter)
	}
	verdict, err := d.Certify.Verify(ctx, certID, doc)
	if err != nil {
		return nil, err
	}
	return &Result{JSON: verdict, Message: verdict.Reason}, nil
}

// ─── Form handlers ──────────────────────────────────────────────────────────

func handleFill(_ context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	raw := req.Param("fields")
	if raw == "" {
		return nil, fmt.Errorf("%w: fields", domain.ErrMissingParameter)
	}
	var values map[string]string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("%w: fields must be a JSON object of name to value", domain.ErrMissingParameter)
	}
	out, filled, err := pdf.FillForm(doc, values)
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "filled.pdf", fmt.Sprintf("filled %d fields", filled)), nil
}

func handleCreateForm(_ context.Context, req *Request) (*Result, error) {
	raw := req.Param("fields")
	if raw == "" {
		return nil, fmt.Errorf("%w: fields", domain.ErrMissingParameter)
	}
	var fields []pdf.FormFieldSpec
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("%w: fields must be a JSON array of field specs", domain.ErrMissingParameter)
	}
	out, err := pdf.CreateForm(req.Param("title"), fields)
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "form.pdf", fmt.Sprintf("form with %d fields", len(fields))), nil
}

func handleFlattenForm(_ context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	out, err := pdf.FlattenForm(doc)
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "flattened.pdf", "form fields locked"), nil
}

func handleExtractFields(_ context.Context, req *Request) (*Result, error) {
	doc, err := firstFile(req)
	if err != nil {
		return nil, err
	}
	fields, err := pdf.ExtractFields(doc)
	if err != nil {
		return nil, err
	}
	return &Result{
		JSON:    map[string]any{"fields": fields, "count": len(fields)},
		Message: fmt.Sprintf("%d fields", len(fields)),
	}, nil
}

// ─── Conversion handlers ────────────────────────────────────────────────────

func handleImagesToPDF(_ context.Context, req *Request) (*Result, error) {
	out, err := pdf.ImagesToPDF(req.Files)
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "images.pdf", fmt.Sprintf("%d images imported", len(req.Files))), nil
}

func handleHTMLToPDF(_ context.Context, req *Request) (*Result, error) {
	html, err := textInput(req, "html")
	if err != nil {
		return nil, err
	}
	out, err := pdf.HTMLToPDF(html)
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "document.pdf", "html rendered"), nil
}

func handleMarkdownToPDF(_ context.Context, req *Request) (*Result, error) {
	markdown, err := textInput(req, "markdown")
	if err != nil {
		return nil, err
	}
	out, err := pdf.MarkdownToPDF(markdown)
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "document.pdf", "markdown rendered"), nil
}

func handleTextToPDF(_ context.Context, req *Request) (*Result, error) {
	text, err := textInput(req, "text")
	if err != nil {
		return nil, err
	}
	out, err := pdf.TextToPDF(text, req.Param("title"))
	if err != nil {
		return nil, err
	}
	return pdfResult(out, "document.pdf", "text rendered"), nil
}
