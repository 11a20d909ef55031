package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/inkwell-pdf/inkwell/internal/domain"
)

// conf returns the library configuration used for every transform.
// Relaxed validation accepts the slightly malformed files real users
// upload.
func conf() *model.Configuration {
	c := model.NewDefaultConfiguration()
	c.ValidationMode = model.ValidationRelaxed
	return c
}

// PageCount returns the number of pages in the document.
func PageCount(doc []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(doc), conf())
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return n, nil
}

// ─── Structural Operations ──────────────────────────────────────────────────

// Merge concatenates all pages from all inputs in input order.
func Merge(docs [][]byte) ([]byte, error) {
	if len(docs) < 2 {
		return nil, domain.ErrNotEnoughInputs
	}
	readers := make([]io.ReadSeeker, len(docs))
	for i, d := range docs {
		readers[i] = bytes.NewReader(d)
	}
	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, conf()); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	return buf.Bytes(), nil
}

// ExtractPages produces a document containing exactly the pages selected
// by the range expression, in ascending order regardless of the order
// implied by the expression.
func ExtractPages(doc []byte, rangeExpr string) ([]byte, error) {
	count, err := PageCount(doc)
	if err != nil {
		return nil, err
	}
	pages, err := ParseRange(rangeExpr, count)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := api.Trim(bytes.NewReader(doc), &buf, selection(pages), conf()); err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}
	return buf.Bytes(), nil
}

// Rotate adds angle to the existing rotation of every selected page.
// Angle must be a multiple of 90 in [-270, 270], excluding 0.
func Rotate(doc []byte, angle int, selector string) ([]byte, error) {
	switch angle {
	case 90, 180, 270, -90, -180, -270:
	default:
		return nil, domain.ErrInvalidRotation
	}
	count, err := PageCount(doc)
	if err != nil {
		return nil, err
	}
	pages, err := ParseSelector(selector, count)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := api.Rotate(bytes.NewReader(doc), &buf, angle, pages, conf()); err != nil {
		return nil, fmt.Errorf("rotate: %w", err)
	}
	return buf.Bytes(), nil
}

// Reorder rearranges pages according to order, a 1-indexed permutation
// of every page, e.g. [3,1,2,4] for a 4-page document.
func Reorder(doc []byte, order []int) ([]byte, error) {
	count, err := PageCount(doc)
	if err != nil {
		return nil, err
	}
	if len(order) != count {
		return nil, fmt.Errorf("%w: got %d entries for a %d-page document",
			domain.ErrInvalidOrder, len(order), count)
	}
	seen := make(map[int]bool, count)
	for _, p := range order {
		if p < 1 || p > count || seen[p] {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidOrder, order)
		}
		seen[p] = true
	}
	sel := make([]string, len(order))
	for i, p := range order {
		sel[i] = strconv.Itoa(p)
	}
	var buf bytes.Buffer
	if err := api.Collect(bytes.NewReader(doc), &buf, sel, conf()); err != nil {
		return nil, fmt.Errorf("reorder pages: %w", err)
	}
	return buf.Bytes(), nil
}

// DeletePages removes the pages selected by the range expression.
// Removing every page is refused.
func DeletePages(doc []byte, rangeExpr string) ([]byte, error) {
	count, err := PageCount(doc)
	if err != nil {
		return nil, err
	}
	pages, err := ParseRange(rangeExpr, count)
	if err != nil {
		return nil, err
	}
	if len(pages) == count {
		return nil, domain.ErrNoPagesLeft
	}
	var buf bytes.Buffer
	if err := api.RemovePages(bytes.NewReader(doc), &buf, selection(pages), conf()); err != nil {
		return nil, fmt.Errorf("delete pages: %w", err)
	}
	return buf.Bytes(), nil
}

// Compress rewrites the document with optimized resource usage.
func Compress(doc []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(doc), &buf, conf()); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

// ─── Protection ─────────────────────────────────────────────────────────────

// Protect encrypts the document. An empty owner password falls back to
// the user password.
func Protect(doc []byte, userPW, ownerPW string) ([]byte, error) {
	if userPW == "" {
		return nil, fmt.Errorf("%w: password", domain.ErrMissingParameter)
	}
	if ownerPW == "" {
		ownerPW = userPW
	}
	c := conf()
	c.UserPW = userPW
	c.OwnerPW = ownerPW
	var buf bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(doc), &buf, c); err != nil {
		return nil, fmt.Errorf("protect: %w", err)
	}
	return buf.Bytes(), nil
}

// Unlock decrypts a protected document given its password.
func Unlock(doc []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: password", domain.ErrMissingParameter)
	}
	c := conf()
	c.UserPW = password
	c.OwnerPW = password
	var buf bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(doc), &buf, c); err != nil {
		return nil, fmt.Errorf("unlock: %w", err)
	}
	return buf.Bytes(), nil
}

// ─── Stamps ─────────────────────────────────────────────────────────────────

// WatermarkPosition is a placement preset for text watermarks.
type WatermarkPosition string

const (
	WatermarkCenter   WatermarkPosition = "center"
	WatermarkDiagonal WatermarkPosition = "diagonal"
	WatermarkHeader   WatermarkPosition = "header"
	WatermarkFooter   WatermarkPosition = "footer"
)

func watermarkDesc(pos WatermarkPosition, opacity float64) (string, error) {
	if opacity <= 0 || opacity > 1 {
		opacity = 0.3
	}
	switch pos {
	case WatermarkCenter:
		return fmt.Sprintf("pos:c, rot:0, scale:0.6 rel, op:%.2f", opacity), nil
	case WatermarkDiagonal:
		return fmt.Sprintf("pos:c, rot:45, scale:0.6 rel, op:%.2f", opacity), nil
	case WatermarkHeader:
		return fmt.Sprintf("pos:tc, off:0 -24, rot:0, scale:0.3 rel, op:%.2f", opacity), nil
	case WatermarkFooter:
		return fmt.Sprintf("pos:bc, off:0 24, rot:0, scale:0.3 rel, op:%.2f", opacity), nil
	default:
		return "", fmt.Errorf("%w: unknown watermark position %q", domain.ErrMissingParameter, pos)
	}
}

// Watermark draws text across the selected pages using a placement
// preset. The original page content is untouched underneath.
func Watermark(doc []byte, text string, pos WatermarkPosition, opacity float64, selector string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text", domain.ErrMissingParameter)
	}
	count, err := PageCount(doc)
	if err != nil {
		return nil, err
	}
	pages, err := ParseSelector(selector, count)
	if err != nil {
		return nil, err
	}
	desc, err := watermarkDesc(pos, opacity)
	if err != nil {
		return nil, err
	}
	wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}
	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(doc), &buf, pages, wm, conf()); err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}
	return buf.Bytes(), nil
}

// AddPageNumbers stamps "n of N" at the bottom center of every page.
func AddPageNumbers(doc []byte) ([]byte, error) {
	wm, err := api.TextWatermark("%p of %P",
		"fontname:Helvetica, points:10, pos:bc, off:0 14, rot:0, op:1", true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("page numbers: %w", err)
	}
	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(doc), &buf, nil, wm, conf()); err != nil {
		return nil, fmt.Errorf("page numbers: %w", err)
	}
	return buf.Bytes(), nil
}

// cornerPlacements maps an edge preset to stamp position and offset.
var cornerPlacements = map[string]string{
	"top-left":      "pos:tl, off:20 -20",
	"top-center":    "pos:tc, off:0 -20",
	"top-right":     "pos:tr, off:-20 -20",
	"bottom-left":   "pos:bl, off:20 20",
	"bottom-center": "pos:bc, off:0 20",
	"bottom-right":  "pos:br, off:-20 20",
}

func cornerDesc(position string) (string, error) {
	placement, ok := cornerPlacements[position]
	if !ok {
		return "", fmt.Errorf("%w: unknown position %q", domain.ErrMissingParameter, position)
	}
	return fmt.Sprintf("fontname:Helvetica, points:10, %s, rot:0, op:0.8", placement), nil
}

// AddDateStamp stamps the given date at an edge preset on every page.
// Presets: top-left … bottom-right; default is bottom-right.
func AddDateStamp(doc []byte, when time.Time, position string) ([]byte, error) {
	if position == "" {
		position = "bottom-right"
	}
	desc, err := cornerDesc(position)
	if err != nil {
		return nil, err
	}
	wm, err := api.TextWatermark(when.Format("2006-01-02"), desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("date stamp: %w", err)
	}
	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(doc), &buf, nil, wm, conf()); err != nil {
		return nil, fmt.Errorf("date stamp: %w", err)
	}
	return buf.Bytes(), nil
}

// AddInitials stamps short initials text in the bottom-right corner of
// every page.
func AddInitials(doc []byte, initials string) ([]byte, error) {
	if initials == "" {
		return nil, fmt.Errorf("%w: initials", domain.ErrMissingParameter)
	}
	wm, err := api.TextWatermark(initials,
		"fontname:Helvetica-Bold, points:12, pos:br, off:-20 20, rot:0, op:0.8", true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("initials: %w", err)
	}
	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(doc), &buf, nil, wm, conf()); err != nil {
		return nil, fmt.Errorf("initials: %w", err)
	}
	return buf.Bytes(), nil
}

// StampCertificate writes the certificate id into the footer of every
// page so the printed artifact references its attestation.
func StampCertificate(doc []byte, certID string) ([]byte, error) {
	wm, err := api.TextWatermark("Certificate "+certID,
		"fontname:Helvetica, points:7, pos:bc, off:0 8, rot:0, op:0.6", true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("certificate stamp: %w", err)
	}
	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(doc), &buf, nil, wm, conf()); err != nil {
		return nil, fmt.Errorf("certificate stamp: %w", err)
	}
	return buf.Bytes(), nil
}
