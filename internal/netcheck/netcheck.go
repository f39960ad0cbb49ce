// File: internal/netcheck/netcheck.go

// Package netcheck answers one question: does the machine currently reach
// the internet. The answer feeds the prompt builder so the model knows when
// waiting beats clicking.
package netcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/config"
)

// Checker probes a well-known URL over plain HTTP.
type Checker struct {
	log        *zap.Logger
	httpClient *http.Client
	checkURL   string
	maxWait    time.Duration
}

// pollInterval spaces the probes inside WaitForInternet.
const pollInterval = 5 * time.Second

// NewChecker builds a Checker from configuration.
func NewChecker(cfg config.NetworkConfig, logger *zap.Logger) *Checker {
	return &Checker{
		log:        logger.Named("netcheck"),
		httpClient: &http.Client{Timeout: cfg.CheckTimeout},
		checkURL:   cfg.CheckURL,
		maxWait:    cfg.MaxWait,
	}
}

// Available reports whether the probe URL answered with a 2xx. Any error is
// treated as offline; the distinction does not matter to the caller.
func (c *Checker) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.checkURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// WaitForInternet blocks until connectivity appears, the configured maximum
// wait elapses, or the context is cancelled. It probes immediately, then
// every few seconds.
func (c *Checker) WaitForInternet(ctx context.Context) error {
	deadline, cancel := context.WithTimeout(ctx, c.maxWait)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if c.Available(deadline) {
			return nil
		}
		c.log.Info("Waiting for internet connectivity", zap.String("url", c.checkURL))
		select {
		case <-deadline.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("no internet connectivity after %s", c.maxWait)
		case <-ticker.C:
		}
	}
}
