// Package ollama implements structured extraction against an Ollama server's
// generate API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"paperledger/internal/config"
	"paperledger/internal/llm"
	"paperledger/internal/port"
)

const providerName = "ollama"

func init() {
	llm.RegisterProvider(providerName, func(cfg *config.LLMConfig) (port.StructuredExtractor, error) {
		return NewClient(cfg), nil
	})
}

// Client implements port.StructuredExtractor using POST /api/generate.
type Client struct {
	host        string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

// NewClient creates an Ollama client from the LLM config.
func NewClient(cfg *config.LLMConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = "mistral"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}
	return &Client{
		host:        strings.TrimRight(cfg.Host, "/"),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		client:      &http.Client{Timeout: timeout},
	}
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) Extract(ctx context.Context, ocrText string, tagNames []string) (string, error) {
	if strings.TrimSpace(ocrText) == "" {
		return "", &llm.Error{Provider: providerName, Reason: llm.ReasonEmptyInput}
	}

	bodyBytes, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: llm.BuildExtractionPrompt(ocrText, tagNames),
		Stream: false,
		Options: generateOptions{
			Temperature: c.temperature,
			NumPredict:  c.maxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", llm.TransportError(providerName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.TransportError(providerName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", llm.StatusError(providerName, resp, respBody)
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return "", &llm.Error{Provider: providerName, Reason: llm.ReasonEmptyResponse}
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &llm.Error{Provider: providerName, Reason: llm.ReasonInvalidResponse, Err: err}
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", &llm.Error{Provider: providerName, Reason: llm.ReasonEmptyResponse}
	}
	return out.Response, nil
}

// Ping checks that the server answers GET /api/tags.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return llm.TransportError(providerName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return llm.StatusError(providerName, resp, body)
	}
	return nil
}
