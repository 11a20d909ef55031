package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/inkwell-pdf/inkwell/internal/domain"
)

// ─── Signatures ─────────────────────────────────────────────────────────────

// SignParams places a signature at explicit coordinates on one page.
// X and Y are points from the bottom-left corner of the page.
type SignParams struct {
	Page  int // 1-indexed
	X, Y  float64
	Scale float64 // image scale; <= 0 means 0.25

	// Optional caption lines rendered under the signature.
	Name, Title, Reason string
	ShowDate            bool
}

func (p SignParams) validate(pageCount int) error {
	if p.Page < 1 || p.Page > pageCount {
		return fmt.Errorf("%w: page %d of %d", domain.ErrInvalidPageRange, p.Page, pageCount)
	}
	return nil
}

func (p SignParams) caption(now time.Time) string {
	var lines []string
	if p.Name != "" {
		lines = append(lines, p.Name)
	}
	if p.Title != "" {
		lines = append(lines, p.Title)
	}
	if p.Reason != "" {
		lines = append(lines, p.Reason)
	}
	if p.ShowDate {
		lines = append(lines, now.Format("2006-01-02"))
	}
	return strings.Join(lines, " · ")
}

// SignImage stamps a drawn or uploaded signature image at the given
// coordinates, followed by the optional caption line beneath it.
func SignImage(doc, signature []byte, p SignParams, now time.Time) ([]byte, error) {
	count, err := PageCount(doc)
	if err != nil {
		return nil, err
	}
	if err := p.validate(count); err != nil {
		return nil, err
	}
	scale := p.Scale
	if scale <= 0 {
		scale = 0.25
	}
	desc := fmt.Sprintf("pos:bl, off:%.2f %.2f, scale:%.2f abs, rot:0, op:1", p.X, p.Y, scale)
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(signature), desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	pages := []string{strconv.Itoa(p.Page)}
	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(doc), &buf, pages, wm, conf()); err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return addCaption(buf.Bytes(), p, now)
}

// SignText stamps a typed signature in an oblique face at the given
// coordinates, followed by the optional caption line.
func SignText(doc []byte, text string, p SignParams, now time.Time) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text", domain.ErrMissingParameter)
	}
	count, err := PageCount(doc)
	if err != nil {
		return nil, err
	}
	if err := p.validate(count); err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("fontname:Helvetica-Oblique, points:22, pos:bl, off:%.2f %.2f, rot:0, op:1", p.X, p.Y)
	wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	pages := []string{strconv.Itoa(p.Page)}
	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(doc), &buf, pages, wm, conf()); err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return addCaption(buf.Bytes(), p, now)
}

func addCaption(doc []byte, p SignParams, now time.Time) ([]byte, error) {
	caption := p.caption(now)
	if caption == "" {
		return doc, nil
	}
	desc := fmt.Sprintf("fontname:Helvetica, points:9, pos:bl, off:%.2f %.2f, rot:0, op:1", p.X, p.Y-14)
	wm, err := api.TextWatermark(caption, desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("sign caption: %w", err)
	}
	pages := []string{strconv.Itoa(p.Page)}
	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(doc), &buf, pages, wm, conf()); err != nil {
		return nil, fmt.Errorf("sign caption: %w", err)
	}
	return buf.Bytes(), nil
}
