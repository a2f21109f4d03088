package port

import "context"

// StructuredExtractor asks a generative model to turn OCR text into a JSON
// document and returns the model's reply verbatim.
type StructuredExtractor interface {
	Extract(ctx context.Context, ocrText string, tagNames []string) (string, error)
	Ping(ctx context.Context) error
	Model() string
}
