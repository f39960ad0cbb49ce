// File: internal/inference/client.go

// Package inference talks to a local Ollama server. The client sends one
// prompt plus one screenshot per call and hands the raw reply text back;
// whether the reply parses into anything usable is the decision package's
// problem.
package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/api/schemas"
	"github.com/xkilldash9x/deskpilot/internal/config"
)

// Error marks an inference-class failure: connection refused, timeout,
// non-2xx status, an unreadable body, or a reply carrying no decodable
// JSON at all. It is distinct from a schema breach in a decoded decision.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("inference %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// generateRequest is the Ollama /api/generate payload. Streaming is always
// off; the agent wants exactly one complete reply per screenshot.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Images  []string        `json:"images,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Client is the Ollama-backed InferenceClient.
type Client struct {
	log         *zap.Logger
	httpClient  *http.Client
	endpoint    string
	model       string
	temperature float64
	topP        float64

	readyRetries  int
	readyInterval time.Duration
}

var _ schemas.InferenceClient = (*Client)(nil)

// sleep is swappable in tests so readiness retries do not slow the suite.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NewClient builds a Client from configuration.
func NewClient(cfg config.InferenceConfig, logger *zap.Logger) *Client {
	return &Client{
		log:           logger.Named("inference"),
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		model:         cfg.Model,
		temperature:   cfg.Temperature,
		topP:          cfg.TopP,
		readyRetries:  cfg.ReadyRetries,
		readyInterval: cfg.ReadyInterval,
	}
}

// Generate sends the prompt and PNG screenshot to /api/generate and returns
// the raw reply text.
func (c *Client) Generate(ctx context.Context, prompt string, screenshot []byte) (string, error) {
	payload := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: c.temperature,
			TopP:        c.topP,
		},
	}
	if len(screenshot) > 0 {
		payload.Images = []string{base64.StdEncoding.EncodeToString(screenshot)}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &Error{Op: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", &Error{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Op: "generate", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &Error{Op: "generate", Err: fmt.Errorf("status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))}
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &Error{Op: "decode response", Err: err}
	}

	c.log.Debug("Model replied",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("reply_bytes", len(decoded.Response)))
	return decoded.Response, nil
}

// Ping checks that the Ollama server answers /api/version.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/version", nil)
	if err != nil {
		return &Error{Op: "build ping", Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: "ping", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Op: "ping", Err: fmt.Errorf("status %s", resp.Status)}
	}
	return nil
}

// WaitReady pings the server until it answers, the configured retries run
// out, or the context is cancelled. The agent calls this once at startup so
// the first real instruction does not race a still-loading model server.
func (c *Client) WaitReady(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt <= c.readyRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.readyInterval); err != nil {
				return err
			}
		}
		if lastErr = c.Ping(ctx); lastErr == nil {
			if attempt > 0 {
				c.log.Info("Inference service became ready", zap.Int("attempts", attempt+1))
			}
			return nil
		}
		c.log.Warn("Inference service not ready",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", c.readyRetries+1),
			zap.Error(lastErr))
	}
	return fmt.Errorf("inference service unreachable after %d attempts: %w", c.readyRetries+1, lastErr)
}
