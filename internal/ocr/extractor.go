// Package ocr recognises text in document images and PDFs through a
// pluggable backend.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"paperledger/internal/domain"
	"paperledger/internal/port"
)

// Region is one detected line of text. Confidence is in [0, 1].
type Region struct {
	Text       string
	Confidence float64
}

// Backend recognises text in a single image file.
type Backend interface {
	Recognize(ctx context.Context, imagePath string) ([]Region, error)
	Ping(ctx context.Context) error
}

// Rasterizer renders each page of a PDF to an image file.
type Rasterizer interface {
	// Rasterize returns the page image paths in page order and a cleanup func
	// that removes them.
	Rasterize(ctx context.Context, pdfPath string) ([]string, func(), error)
}

// Extractor implements port.TextExtractor on top of a Backend.
type Extractor struct {
	backend    Backend
	rasterizer Rasterizer
	logger     *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRasterizer overrides the PDF rasterizer.
func WithRasterizer(r Rasterizer) Option {
	return func(e *Extractor) { e.rasterizer = r }
}

// WithLogger sets the logger used for per-page warnings.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor creates an Extractor. PDFs are rasterised with go-fitz at
// 300 DPI unless another Rasterizer is supplied.
func NewExtractor(backend Backend, opts ...Option) *Extractor {
	e := &Extractor{
		backend:    backend,
		rasterizer: NewFitzRasterizer(300),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ port.TextExtractor = (*Extractor)(nil)

func (e *Extractor) Extract(ctx context.Context, filePath string) (*port.OCRResult, error) {
	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newError(ReasonFileMissing, errors.New(filepath.Base(filePath)))
		}
		return nil, newError(ReasonBackend, err)
	}

	fileType, ok := domain.FileTypeFromPath(filePath)
	if !ok {
		return nil, newError(ReasonUnsupportedFormat, fmt.Errorf("extension %q", filepath.Ext(filePath)))
	}

	if fileType == domain.FileTypePDF {
		return e.extractPDF(ctx, filePath)
	}

	regions, err := e.backend.Recognize(ctx, filePath)
	if err != nil {
		return nil, err
	}
	text, confidence := summarize(regions)
	return &port.OCRResult{Text: text, Confidence: confidence, Pages: 1}, nil
}

func (e *Extractor) Ping(ctx context.Context) error {
	return e.backend.Ping(ctx)
}

type pageText struct {
	number     int
	text       string
	confidence float64
}

func (e *Extractor) extractPDF(ctx context.Context, pdfPath string) (*port.OCRResult, error) {
	pages, cleanup, err := e.rasterizer.Rasterize(ctx, pdfPath)
	if err != nil {
		return nil, newError(ReasonNoPages, err)
	}
	defer cleanup()

	var extracted []pageText
	for i, page := range pages {
		regions, err := e.backend.Recognize(ctx, page)
		if err != nil {
			e.logger.Warn("page recognition failed",
				zap.String("file", filepath.Base(pdfPath)), zap.Int("page", i+1), zap.Error(err))
			continue
		}
		text, confidence := summarize(regions)
		if strings.TrimSpace(text) == "" {
			e.logger.Warn("page produced no text",
				zap.String("file", filepath.Base(pdfPath)), zap.Int("page", i+1))
			continue
		}
		extracted = append(extracted, pageText{number: i + 1, text: text, confidence: confidence})
	}

	return combinePages(extracted, len(pages))
}

// combinePages joins page texts with page separators and averages their
// confidences. Zero extractable pages is a failure.
func combinePages(pages []pageText, total int) (*port.OCRResult, error) {
	if len(pages) == 0 {
		return nil, newError(ReasonNoPages, fmt.Errorf("0 of %d pages produced text", total))
	}

	parts := make([]string, 0, len(pages))
	sum := 0.0
	for _, p := range pages {
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n\n%s", p.number, p.text))
		sum += p.confidence
	}
	return &port.OCRResult{
		Text:       strings.Join(parts, "\n\n"),
		Confidence: round2(sum / float64(len(pages))),
		Pages:      len(pages),
	}, nil
}

// summarize joins region texts line by line and returns the mean region
// confidence on a 0-100 scale.
func summarize(regions []Region) (string, float64) {
	if len(regions) == 0 {
		return "", 0
	}
	lines := make([]string, 0, len(regions))
	sum := 0.0
	for _, r := range regions {
		lines = append(lines, r.Text)
		sum += r.Confidence
	}
	return strings.Join(lines, "\n"), round2(sum / float64(len(regions)) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
