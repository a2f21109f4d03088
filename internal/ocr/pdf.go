package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// FitzRasterizer renders PDF pages to PNG files next to the source PDF, so a
// remote OCR service sharing that directory can read them.
type FitzRasterizer struct {
	dpi float64
}

// NewFitzRasterizer creates a rasterizer rendering at dpi.
func NewFitzRasterizer(dpi int) *FitzRasterizer {
	if dpi <= 0 {
		dpi = 300
	}
	return &FitzRasterizer{dpi: float64(dpi)}
}

func (r *FitzRasterizer) Rasterize(ctx context.Context, pdfPath string) ([]string, func(), error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, func() {}, errors.New("pdf has no pages")
	}

	dir := filepath.Dir(pdfPath)
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))

	paths := make([]string, 0, pageCount)
	cleanup := func() {
		for _, p := range paths {
			_ = os.Remove(p)
		}
	}

	for i := 0; i < pageCount; i++ {
		if err := ctx.Err(); err != nil {
			cleanup()
			return nil, func() {}, err
		}

		img, err := doc.ImageDPI(i, r.dpi)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("rendering page %d: %w", i+1, err)
		}

		out := filepath.Join(dir, fmt.Sprintf("%s_page_%d.png", stem, i+1))
		if err := writePNG(out, img); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("writing page %d: %w", i+1, err)
		}
		paths = append(paths, out)
	}

	return paths, cleanup, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
