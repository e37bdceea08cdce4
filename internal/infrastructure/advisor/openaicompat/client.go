// Package openaicompat implements the type advisor against any
// chat-completions compatible endpoint (Azure OpenAI, OpenAI, vLLM, ...).
package openaicompat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
	"github.com/matrixlabs/ai-converter/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	guard      *resilience.Guard
	observe    func(outcome string, duration time.Duration)
}

const defaultHTTPTimeout = 60 * time.Second

// New builds a client against baseURL. timeout bounds the whole HTTP
// exchange and should match the caller's per-request deadline; zero or
// negative falls back to a generous default.
func New(baseURL, model, apiKey string, timeout time.Duration, guard *resilience.Guard) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		guard:      guard,
	}
}

// SetObserver installs a per-call outcome hook; outcome is "success" or
// "error".
func (c *Client) SetObserver(fn func(outcome string, duration time.Duration)) {
	c.observe = fn
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Suggest asks the model for per-column type suggestions. The reply is
// normalized and clamped before it reaches the orchestrator; any transport
// or parse problem surfaces as an error the orchestrator absorbs into its
// fallback path.
func (c *Client) Suggest(ctx context.Context, req domain.AdviceRequest) (domain.Advice, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildAdvicePrompt(req)},
		},
		Temperature:    0.2,
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	var content string
	started := time.Now()
	err := c.guard.Do(ctx, func(ctx context.Context) error {
		var callErr error
		content, callErr = c.complete(ctx, payload)
		return callErr
	})
	if c.observe != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.observe(outcome, time.Since(started))
	}
	if err != nil {
		return domain.Advice{}, wrapTemporaryIfNeeded("suggest column types", err)
	}

	var advice domain.Advice
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &advice); err != nil {
		return domain.Advice{}, fmt.Errorf("parse advisor reply: %w", err)
	}
	normalizeAdvice(&advice)
	return advice, nil
}

func (c *Client) complete(ctx context.Context, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("post chat completion: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &HTTPStatusError{
			Operation:  "chat completion",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty completion choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// normalizeAdvice maps free-form type names onto the closed enum, drops
// suggestions the engine cannot act on, and clamps confidences.
func normalizeAdvice(advice *domain.Advice) {
	out := advice.PerColumn[:0]
	for _, s := range advice.PerColumn {
		t := normalizeType(string(s.SuggestedType))
		if t == "" {
			continue
		}
		s.SuggestedType = t
		s.Confidence = clamp(s.Confidence, 0, 100)
		out = append(out, s)
	}
	advice.PerColumn = out
	advice.AggregateConfidence = clamp(advice.AggregateConfidence, 0, 100)
}

func normalizeType(raw string) domain.ColumnType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "boolean", "bool":
		return domain.TypeBoolean
	case "integer", "int":
		return domain.TypeInteger
	case "numeric", "number", "float", "double", "decimal":
		return domain.TypeNumeric
	case "datetime", "date", "timestamp":
		return domain.TypeDatetime
	case "email":
		return domain.TypeEmail
	case "text", "string":
		return domain.TypeText
	default:
		return ""
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
