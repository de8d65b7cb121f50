package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pocketchat-app/pocketchat/backend/internal/config"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1500

	// emptyReply stands in for a 200 answer that carried no usable choice.
	emptyReply = "(no response)"
)

// Request describes a single completion call. Nil Temperature/MaxTokens fall
// back to the package defaults.
type Request struct {
	SystemPrompt string
	UserMessage  string
	Temperature  *float64
	MaxTokens    *int
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient 使用配置创建一个补全客户端实例。
func NewClient(cfg config.AIConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{},
	}, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
}

// Complete performs one chat completion round trip and returns the assistant
// text. The caller guarantees req.UserMessage is non-empty. A 200 answer
// without choice content yields the "(no response)" placeholder instead of
// an error.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	body := completionRequest{
		Model:       c.model,
		Messages:    buildMessages(req.SystemPrompt, req.UserMessage),
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	if req.Temperature != nil {
		body.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		body.MaxTokens = *req.MaxTokens
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("encode request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return emptyReply, nil
	}

	return parsed.Choices[0].Message.Content, nil
}

// buildMessages assembles the single-turn payload: the system instruction
// (when non-blank) followed by the latest user utterance.
func buildMessages(systemPrompt, userMessage string) []wireMessage {
	messages := make([]wireMessage, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, wireMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, wireMessage{Role: "user", Content: userMessage})
	return messages
}
