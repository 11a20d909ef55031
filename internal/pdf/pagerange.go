// Package pdf implements the document transform handlers. Every
// function is pure over document bytes: bytes in, bytes out, no state
// between calls.
package pdf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/inkwell-pdf/inkwell/internal/domain"
)

// ─── Page Range Parsing ─────────────────────────────────────────────────────

// ParseRange resolves a 1-indexed page-range expression such as
// "1-3,5,7-9" into a deduplicated, ascending list of 0-indexed page
// positions. Pages outside [1, pageCount] are clipped, not rejected; an
// expression that selects nothing after clipping is an error.
func ParseRange(expr string, pageCount int) ([]int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty expression", domain.ErrInvalidPageRange)
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", domain.ErrInvalidPageRange, expr)
		}
		lo, hi, err := parseSegment(part)
		if err != nil {
			return nil, err
		}
		for p := lo; p <= hi; p++ {
			if p >= 1 && p <= pageCount {
				seen[p-1] = true
			}
		}
	}

	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: %q selects nothing in a %d-page document",
			domain.ErrEmptyPageRange, expr, pageCount)
	}
	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}

func parseSegment(part string) (lo, hi int, err error) {
	if a, b, found := strings.Cut(part, "-"); found {
		lo, err = strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q", domain.ErrInvalidPageRange, part)
		}
		hi, err = strconv.Atoi(strings.TrimSpace(b))
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q", domain.ErrInvalidPageRange, part)
		}
		if lo < 1 || hi < lo {
			return 0, 0, fmt.Errorf("%w: descending or non-positive range %q", domain.ErrInvalidPageRange, part)
		}
		return lo, hi, nil
	}
	p, err := strconv.Atoi(part)
	if err != nil || p < 1 {
		return 0, 0, fmt.Errorf("%w: %q", domain.ErrInvalidPageRange, part)
	}
	return p, p, nil
}

// selection converts 0-indexed positions into the 1-indexed page
// selection strings the PDF library expects.
func selection(pages []int) []string {
	sel := make([]string, len(pages))
	for i, p := range pages {
		sel[i] = strconv.Itoa(p + 1)
	}
	return sel
}

// ParseSelector maps a page selector ("all", "odd", "even", or a page
// range expression) to a page selection. A nil return selects all pages.
func ParseSelector(sel string, pageCount int) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(sel)) {
	case "", "all":
		return nil, nil
	case "odd":
		return []string{"odd"}, nil
	case "even":
		return []string{"even"}, nil
	default:
		pages, err := ParseRange(sel, pageCount)
		if err != nil {
			return nil, err
		}
		return selection(pages), nil
	}
}
