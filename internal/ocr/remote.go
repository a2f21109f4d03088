package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// RemoteBackend calls an OCR service over HTTP. The service resolves the file
// by base name inside an uploads volume shared with this process.
type RemoteBackend struct {
	baseURL string
	client  *http.Client
}

// NewRemoteBackend creates a RemoteBackend for the service at baseURL.
func NewRemoteBackend(baseURL string, timeout time.Duration) *RemoteBackend {
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &RemoteBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type ocrRequest struct {
	FilePath string `json:"file_path"`
}

type ocrResponse struct {
	ExtractedText []struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"extracted_text"`
	Error string `json:"error"`
}

func (b *RemoteBackend) Recognize(ctx context.Context, imagePath string) ([]Region, error) {
	bodyBytes, err := json.Marshal(ocrRequest{FilePath: filepath.Base(imagePath)})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/ocr", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, newError(ReasonUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(ReasonUnreachable, err)
	}

	var out ocrResponse
	decodeErr := json.Unmarshal(respBody, &out)

	if resp.StatusCode != http.StatusOK {
		msg := out.Error
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, msg)
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, newError(ReasonFileMissing, cause)
		case http.StatusServiceUnavailable:
			return nil, newError(ReasonUnreachable, cause)
		default:
			return nil, newError(ReasonBackend, cause)
		}
	}
	if decodeErr != nil {
		return nil, newError(ReasonBackend, fmt.Errorf("decoding response: %w", decodeErr))
	}

	regions := make([]Region, 0, len(out.ExtractedText))
	for _, line := range out.ExtractedText {
		regions = append(regions, Region{Text: line.Text, Confidence: line.Confidence})
	}
	return regions, nil
}

// Ping reports the service as reachable unless it cannot be contacted or
// says it is not ready.
func (b *RemoteBackend) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/ocr", http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return newError(ReasonUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return newError(ReasonUnreachable, errors.New("service not ready"))
	}
	return nil
}
