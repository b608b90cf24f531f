package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
)

// HTTPOracleConfig configures the chat-completions oracle adapter.
type HTTPOracleConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DefaultHTTPOracleConfig returns sensible defaults.
func DefaultHTTPOracleConfig() HTTPOracleConfig {
	return HTTPOracleConfig{
		Model:       DefaultModel,
		Temperature: 0.2,
		MaxTokens:   512,
		Timeout:     60 * time.Second,
	}
}

// HTTPOracle implements Oracle against an OpenAI-compatible chat-completions
// endpoint.
type HTTPOracle struct {
	cfg         HTTPOracleConfig
	httpClient  *http.Client
	retryConfig RetryConfig
	log         *logrus.Logger
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// NewHTTPOracle creates an oracle backed by an OpenAI-compatible endpoint.
func NewHTTPOracle(cfg HTTPOracleConfig, log *logrus.Logger) *HTTPOracle {
	if log == nil {
		log = logrus.New()
	}
	defaults := DefaultHTTPOracleConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	return &HTTPOracle{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		retryConfig: DefaultRetryConfig(),
		log:         log,
	}
}

// Complete sends the prompt as a single user message and returns the first
// choice's content.
func (h *HTTPOracle) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       h.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: h.cfg.Temperature,
		MaxTokens:   h.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal oracle request: %w", err)
	}

	resp, err := executeWithRetry(ctx, h.retryConfig, func() (*http.Response, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.BaseURL, bytes.NewReader(body))
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Content-Type", "application/json")
		if h.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
		}
		return h.httpClient.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("oracle returned HTTP %d: %s", resp.StatusCode, string(data))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode oracle response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("oracle response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// HealthCheck verifies the endpoint is reachable.
func (h *HTTPOracle) HealthCheck(ctx context.Context) error {
	_, err := h.Complete(ctx, "ping")
	return err
}
