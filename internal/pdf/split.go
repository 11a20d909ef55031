package pdf

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"
)

// SplitAll extracts every page into its own single-page document and
// packages the set as a ZIP archive (page_0001.pdf, page_0002.pdf, …).
// Pages are extracted concurrently; the archive preserves page order.
func SplitAll(ctx context.Context, doc []byte) ([]byte, error) {
	count, err := PageCount(doc)
	if err != nil {
		return nil, err
	}

	pages := make([][]byte, count)
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for i := 1; i <= count; i++ {
		eg.Go(func() error {
			var buf bytes.Buffer
			if err := api.Trim(bytes.NewReader(doc), &buf, []string{strconv.Itoa(i)}, conf()); err != nil {
				return fmt.Errorf("extract page %d: %w", i, err)
			}
			pages[i-1] = buf.Bytes()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	for i, page := range pages {
		w, err := zw.Create(fmt.Sprintf("page_%04d.pdf", i+1))
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(page); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return archive.Bytes(), nil
}
