package ocr

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// TesseractBackend runs the tesseract engine in-process. The engine is not
// safe for concurrent use, so calls are serialised.
type TesseractBackend struct {
	languages []string
	mu        sync.Mutex
}

// NewTesseractBackend creates a backend for a "+"-separated language list such as "fra+eng".
func NewTesseractBackend(language string) *TesseractBackend {
	var langs []string
	for _, l := range strings.Split(language, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &TesseractBackend{languages: langs}
}

func (t *TesseractBackend) Recognize(ctx context.Context, imagePath string) ([]Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(ReasonBackend, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(t.languages...); err != nil {
		return nil, newError(ReasonBackend, err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, newError(ReasonBackend, err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, newError(ReasonBackend, err)
	}

	regions := make([]Region, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		regions = append(regions, Region{Text: text, Confidence: box.Confidence / 100})
	}
	return regions, nil
}

func (t *TesseractBackend) Ping(_ context.Context) error {
	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if client.Version() == "" {
		return newError(ReasonUnreachable, errors.New("tesseract engine unavailable"))
	}
	return nil
}
