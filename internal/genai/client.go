// Package genai calls a hosted text-generation model over its REST API.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mentorhub/internal/status"
	"mentorhub/monitoring"
	"mentorhub/utils"

	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-1.5-flash"
)

// Result is one generation. JSON is set when a response schema was requested.
type Result struct {
	Text string
	JSON json.RawMessage
}

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Breaker    *utils.CircuitBreaker
	Monitor    *monitoring.Monitor
}

type Client struct {
	cfg Config
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("genai: api key is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Breaker == nil {
		cfg.Breaker = utils.NewCircuitBreaker("genai", utils.BreakerSettings{})
	}
	return &Client{cfg: cfg}, nil
}

// Generate sends prompt to the model. A non-nil schema asks for a JSON
// response of that shape; output that is not valid JSON is an error.
func (c *Client) Generate(ctx context.Context, prompt string, schema map[string]any) (Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return Result{}, fmt.Errorf("%w: prompt is required", status.ErrGeneration)
	}

	start := time.Now()
	out, err := c.cfg.Breaker.Execute(ctx, func(ctx context.Context) (any, error) {
		return c.generate(ctx, prompt, schema)
	})
	if err != nil {
		c.cfg.Monitor.TrackGeneration("error", time.Since(start))
		return Result{}, fmt.Errorf("%w: %v", status.ErrGeneration, err)
	}
	c.cfg.Monitor.TrackGeneration("success", time.Since(start))
	return out.(Result), nil
}

func (c *Client) generate(ctx context.Context, prompt string, schema map[string]any) (Result, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": []map[string]any{{"text": prompt}}},
		},
	}
	if schema != nil {
		body["generationConfig"] = map[string]any{
			"responseMimeType": "application/json",
			"responseSchema":   schema,
		}
	}
	requestBody, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("marshal generate request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(c.cfg.Model), url.QueryEscape(c.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return Result{}, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		// The URL carries the key; report only the failure kind.
		if ue, ok := err.(*url.Error); ok {
			return Result{}, fmt.Errorf("generate request failed: %w", ue.Err)
		}
		return Result{}, fmt.Errorf("generate request failed: %w", err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read generate response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := gjson.GetBytes(payload, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(payload[:min(len(payload), 512)]))
		}
		return Result{}, fmt.Errorf("generate request status %d: %s", res.StatusCode, msg)
	}

	text := strings.TrimSpace(gjson.GetBytes(payload, "candidates.0.content.parts.0.text").String())
	if text == "" {
		reason := gjson.GetBytes(payload, "promptFeedback.blockReason").String()
		if reason == "" {
			reason = gjson.GetBytes(payload, "candidates.0.finishReason").String()
		}
		return Result{}, fmt.Errorf("generate response has no text (reason %q)", reason)
	}

	result := Result{Text: text}
	if schema != nil {
		raw := stripFence(text)
		if !gjson.Valid(raw) {
			return Result{}, fmt.Errorf("generate response is not valid JSON")
		}
		result.JSON = json.RawMessage(raw)
	}
	return result, nil
}

// stripFence removes a ```json ... ``` wrapper some models add around JSON.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
