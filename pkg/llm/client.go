// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package llm provides the LLM connector used by the planner and
// synthesizer. The wire contract is transport-tolerant and minimal: a
// chat endpoint accepting {prompt, model, temperature, max_tokens} and
// returning {response}.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// contextWindow is the assumed model context size in tokens. Prompts
// are truncated so that prompt plus completion fit inside it.
const contextWindow = 8192

var (
	// ErrUnavailable reports that the LLM endpoint could not be
	// reached or returned a non-success status.
	ErrUnavailable = errors.New("llm unavailable")

	// ErrTimeout reports that the LLM call exceeded its deadline.
	ErrTimeout = errors.New("llm timeout")
)

// Request is one completion request.
type Request struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Response is the completion result.
type Response struct {
	Text string
}

// Provider is a pluggable LLM backend.
type Provider interface {
	// Complete sends one prompt and returns the completion.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider name.
	Name() string

	// Model returns the default model identifier.
	Model() string
}

// Config holds configuration for the HTTP client.
type Config struct {
	Endpoint    string        // Required: full URL of the chat endpoint
	Model       string        // Default model, e.g. "qwen2.5"
	Temperature float64       // Default 0.3
	MaxTokens   int           // Default 2048
	Timeout     time.Duration // Default 30s
	Logger      *zap.Logger
}

// Client is the HTTP implementation of Provider.
type Client struct {
	endpoint    string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient creates an HTTP LLM client.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "qwen2.5"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Client{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return "http" }

// Model returns the default model identifier.
func (c *Client) Model() string { return c.model }

type chatRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Complete sends one prompt to the chat endpoint. Transport failures
// and non-2xx statuses surface as ErrUnavailable; deadline overruns as
// ErrTimeout. Neither is retried here: the orchestrator's fallback
// path keeps the latency bound instead.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.maxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = c.temperature
	}

	// Keep the prompt inside the model's context window, leaving room
	// for the completion.
	if budget := contextWindow - req.MaxTokens; budget > 0 {
		truncated := GetTokenCounter().Truncate(req.Prompt, budget)
		if len(truncated) < len(req.Prompt) {
			c.logger.Warn("prompt truncated to token budget",
				zap.Int("budget", budget))
			req.Prompt = truncated
		}
	}

	body, err := json.Marshal(chatRequest{
		Prompt:      req.Prompt,
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, httpResp.StatusCode, snippet)
	}

	var parsed chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	c.logger.Debug("llm completion",
		zap.String("model", req.Model),
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Int("response_len", len(parsed.Response)),
		zap.Duration("latency", time.Since(start)))

	return &Response{Text: parsed.Response}, nil
}

func isClientTimeout(err error) bool {
	var ue interface{ Timeout() bool }
	return errors.As(err, &ue) && ue.Timeout()
}
