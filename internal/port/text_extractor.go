package port

import "context"

// OCRResult is the recognised text of one file.
type OCRResult struct {
	Text string
	// Confidence is the mean region confidence on a 0-100 scale, 0 when nothing was detected.
	Confidence float64
	Pages      int
}

// TextExtractor runs optical character recognition on a local file.
type TextExtractor interface {
	Extract(ctx context.Context, filePath string) (*OCRResult, error)
	Ping(ctx context.Context) error
}
