// File: internal/netcheck/netcheck_test.go
package netcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/config"
)

func newTestChecker(t *testing.T, handler http.Handler, maxWait time.Duration) *Checker {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewChecker(config.NetworkConfig{
		CheckURL:     server.URL,
		CheckTimeout: time.Second,
		MaxWait:      maxWait,
	}, zap.NewNop())
}

func TestAvailable(t *testing.T) {
	t.Run("2xx means online", func(t *testing.T) {
		c := newTestChecker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}), time.Second)
		assert.True(t, c.Available(context.Background()))
	})

	t.Run("5xx means offline", func(t *testing.T) {
		c := newTestChecker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}), time.Second)
		assert.False(t, c.Available(context.Background()))
	})

	t.Run("unreachable host means offline", func(t *testing.T) {
		c := NewChecker(config.NetworkConfig{
			CheckURL:     "http://127.0.0.1:1",
			CheckTimeout: 200 * time.Millisecond,
			MaxWait:      time.Second,
		}, zap.NewNop())
		assert.False(t, c.Available(context.Background()))
	})
}

func TestWaitForInternet(t *testing.T) {
	t.Run("returns immediately when online", func(t *testing.T) {
		c := newTestChecker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}), time.Second)
		assert.NoError(t, c.WaitForInternet(context.Background()))
	})

	t.Run("times out when offline", func(t *testing.T) {
		c := newTestChecker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}), 100*time.Millisecond)

		err := c.WaitForInternet(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no internet connectivity")
	})

	t.Run("honors caller cancellation", func(t *testing.T) {
		c := newTestChecker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}), time.Minute)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := c.WaitForInternet(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
