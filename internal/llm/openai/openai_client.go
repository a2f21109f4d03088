// Package openai implements structured extraction against any server that
// speaks the OpenAI chat completions API.
package openai

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

const providerName = "openai"

func init() {
	llm.RegisterProvider(providerName, func(cfg *config.LLMConfig) (port.StructuredExtractor, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm.api_key is required for provider %s", providerName)
		}
		return NewClient(cfg), nil
	})
}

// Client implements port.StructuredExtractor using POST /chat/completions.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

// NewClient creates a chat completions client. cfg.Host is the API base URL,
// for example https://api.openai.com/v1.
func NewClient(cfg *config.LLMConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.Host, "/"),
		apiKey:      cfg.APIKey,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) Extract(ctx context.Context, ocrText string, tagNames []string) (string, error) {
	if strings.TrimSpace(ocrText) == "" {
		return "", &llm.Error{Provider: providerName, Reason: llm.ReasonEmptyInput}
	}

	bodyBytes, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: llm.BuildExtractionPrompt(ocrText, tagNames)},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

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

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &llm.Error{Provider: providerName, Reason: llm.ReasonInvalidResponse, Err: err}
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", &llm.Error{Provider: providerName, Reason: llm.ReasonEmptyResponse}
	}
	return out.Choices[0].Message.Content, nil
}

// Ping checks that GET /models answers with the configured key.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

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
