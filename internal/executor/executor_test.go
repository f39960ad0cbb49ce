// File: internal/executor/executor_test.go
package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/api/schemas"
	"github.com/xkilldash9x/deskpilot/internal/config"
)

// mockInjector records every primitive call and can be told to fail.
type mockInjector struct {
	calls   []string
	failOn  string
	failErr error
}

func (m *mockInjector) record(format string, args ...interface{}) error {
	call := fmt.Sprintf(format, args...)
	m.calls = append(m.calls, call)
	if m.failOn != "" && call == m.failOn {
		return m.failErr
	}
	return nil
}

func (m *mockInjector) MoveTo(_ context.Context, x, y int, duration float64) error {
	return m.record("move(%d,%d,%.2f)", x, y, duration)
}
func (m *mockInjector) Click(_ context.Context, x, y int) error {
	return m.record("click(%d,%d)", x, y)
}
func (m *mockInjector) RightClick(_ context.Context, x, y int) error {
	return m.record("rightclick(%d,%d)", x, y)
}
func (m *mockInjector) MiddleClick(_ context.Context, x, y int) error {
	return m.record("middleclick(%d,%d)", x, y)
}
func (m *mockInjector) TypeText(_ context.Context, text string) error {
	return m.record("type(%s)", text)
}
func (m *mockInjector) PressKey(_ context.Context, key string) error {
	return m.record("key(%s)", key)
}
func (m *mockInjector) PressCombo(_ context.Context, keys []string) error {
	return m.record("combo(%v)", keys)
}
func (m *mockInjector) Scroll(_ context.Context, dir schemas.ScrollDirection, amount int) error {
	return m.record("scroll(%s,%d)", dir, amount)
}
func (m *mockInjector) ScreenSize(_ context.Context) (int, int, error) {
	return 1920, 1080, nil
}

var _ schemas.InputInjector = (*mockInjector)(nil)

// fakeClock drives the package-level now/sleep hooks so tests never block.
type fakeClock struct {
	current time.Time
	slept   []time.Duration
}

func installFakeClock(t *testing.T) *fakeClock {
	t.Helper()
	fc := &fakeClock{current: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}

	restoreNow, restoreSleep := now, sleep
	t.Cleanup(func() { now, sleep = restoreNow, restoreSleep })

	now = func() time.Time { return fc.current }
	sleep = func(ctx context.Context, d time.Duration) error {
		if d <= 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fc.slept = append(fc.slept, d)
		fc.current = fc.current.Add(d)
		return nil
	}
	return fc
}

func newTestExecutor(t *testing.T) (*Executor, *mockInjector, *fakeClock) {
	t.Helper()
	fc := installFakeClock(t)
	inj := &mockInjector{}
	exec := NewExecutor(config.ExecutorConfig{
		MinActionSpacing: 100 * time.Millisecond,
		SettleDelay:      100 * time.Millisecond,
	}, inj, zap.NewNop())
	return exec, inj, fc
}

func TestExecuteClick(t *testing.T) {
	exec, inj, _ := newTestExecutor(t)

	outcome := exec.Execute(context.Background(), schemas.NewClickDecision(500, 300, "test"))

	require.True(t, outcome.Success, outcome.Error)
	assert.Equal(t, schemas.ActionClick, outcome.Action)
	assert.NotEmpty(t, outcome.ID)
	// 800px manhattan distance from the origin moves in 0.5s (clamped).
	assert.Equal(t, []string{"move(500,300,0.50)", "click(500,300)"}, inj.calls)
}

func TestMoveDuration(t *testing.T) {
	assert.Equal(t, 0.1, moveDuration(0, 0), "zero distance clamps up")
	assert.Equal(t, 0.1, moveDuration(50, 30), "short hops clamp up")
	assert.Equal(t, 0.3, moveDuration(200, 100), "mid-range scales linearly")
	assert.Equal(t, 0.3, moveDuration(-200, -100), "direction does not matter")
	assert.Equal(t, 0.5, moveDuration(1500, 900), "long moves clamp down")
}

func TestPointerTracking(t *testing.T) {
	exec, inj, _ := newTestExecutor(t)

	exec.Execute(context.Background(), schemas.NewClickDecision(500, 300, ""))
	// Second click 150px away: 0.15s move.
	outcome := exec.Execute(context.Background(), schemas.NewClickDecision(600, 350, ""))

	require.True(t, outcome.Success)
	assert.Equal(t, "move(600,350,0.15)", inj.calls[2])
}

func TestExecuteType(t *testing.T) {
	exec, inj, _ := newTestExecutor(t)

	outcome := exec.Execute(context.Background(), schemas.NewTypeDecision("hello world", ""))

	require.True(t, outcome.Success)
	assert.Equal(t, []string{"type(hello world)"}, inj.calls)
}

func TestExecuteKey(t *testing.T) {
	t.Run("single key", func(t *testing.T) {
		exec, inj, _ := newTestExecutor(t)
		outcome := exec.Execute(context.Background(), schemas.NewKeyDecision("enter", ""))
		require.True(t, outcome.Success)
		assert.Equal(t, []string{"key(enter)"}, inj.calls)
	})

	t.Run("chord splits on plus", func(t *testing.T) {
		exec, inj, _ := newTestExecutor(t)
		outcome := exec.Execute(context.Background(), schemas.NewKeyDecision("ctrl+shift+t", ""))
		require.True(t, outcome.Success)
		assert.Equal(t, []string{"combo([ctrl shift t])"}, inj.calls)
	})

	t.Run("chord parts are trimmed", func(t *testing.T) {
		exec, inj, _ := newTestExecutor(t)
		outcome := exec.Execute(context.Background(), schemas.NewKeyDecision("ctrl + c", ""))
		require.True(t, outcome.Success)
		assert.Equal(t, []string{"combo([ctrl c])"}, inj.calls)
	})
}

func TestExecuteScroll(t *testing.T) {
	exec, inj, _ := newTestExecutor(t)

	outcome := exec.Execute(context.Background(), schemas.NewScrollDecision(schemas.ScrollDown, 5, ""))

	require.True(t, outcome.Success)
	assert.Equal(t, []string{"scroll(down,5)"}, inj.calls)
}

func TestExecuteWait(t *testing.T) {
	exec, inj, fc := newTestExecutor(t)

	outcome := exec.Execute(context.Background(), schemas.NewWaitDecision(2, ""))

	require.True(t, outcome.Success)
	assert.Empty(t, inj.calls, "wait touches no injector primitive")
	// 2s wait plus the settle delay.
	assert.Equal(t, []time.Duration{2 * time.Second, 100 * time.Millisecond}, fc.slept)
}

func TestActionSpacing(t *testing.T) {
	t.Run("back-to-back actions wait out the gap", func(t *testing.T) {
		exec, _, fc := newTestExecutor(t)

		exec.Execute(context.Background(), schemas.NewKeyDecision("enter", ""))
		fc.slept = nil
		// The fake clock has not advanced since the first action
		// completed, so the full spacing must be slept.
		exec.Execute(context.Background(), schemas.NewKeyDecision("tab", ""))

		require.NotEmpty(t, fc.slept)
		assert.Equal(t, 100*time.Millisecond, fc.slept[0])
	})

	t.Run("an old action earns no sleep", func(t *testing.T) {
		exec, _, fc := newTestExecutor(t)

		exec.Execute(context.Background(), schemas.NewKeyDecision("enter", ""))
		fc.current = fc.current.Add(time.Second)
		fc.slept = nil

		exec.Execute(context.Background(), schemas.NewKeyDecision("tab", ""))
		// Only the settle delay remains.
		assert.Equal(t, []time.Duration{100 * time.Millisecond}, fc.slept)
	})

	t.Run("first action never waits", func(t *testing.T) {
		exec, _, fc := newTestExecutor(t)
		exec.Execute(context.Background(), schemas.NewKeyDecision("enter", ""))
		assert.Equal(t, []time.Duration{100 * time.Millisecond}, fc.slept)
	})
}

func TestFailureHandling(t *testing.T) {
	t.Run("injector failure is folded into the outcome", func(t *testing.T) {
		exec, inj, _ := newTestExecutor(t)
		inj.failOn = "click(500,300)"
		inj.failErr = errors.New("device wedged")

		outcome := exec.Execute(context.Background(), schemas.NewClickDecision(500, 300, ""))

		assert.False(t, outcome.Success)
		assert.Contains(t, outcome.Error, "device wedged")
		assert.Equal(t, schemas.ActionClick, outcome.Action)
		assert.NotEmpty(t, outcome.ID)
	})

	t.Run("a failed action still counts for spacing", func(t *testing.T) {
		exec, inj, fc := newTestExecutor(t)
		inj.failOn = "key(enter)"
		inj.failErr = errors.New("boom")

		exec.Execute(context.Background(), schemas.NewKeyDecision("enter", ""))
		fc.slept = nil

		inj.failOn = ""
		exec.Execute(context.Background(), schemas.NewKeyDecision("tab", ""))
		require.NotEmpty(t, fc.slept)
		assert.Equal(t, 100*time.Millisecond, fc.slept[0])
	})

	t.Run("unknown action yields a failed outcome", func(t *testing.T) {
		exec, _, _ := newTestExecutor(t)
		outcome := exec.Execute(context.Background(), schemas.Decision{Action: "teleport"})
		assert.False(t, outcome.Success)
		assert.Contains(t, outcome.Error, "no handler")
	})

	t.Run("cancelled context fails the wait", func(t *testing.T) {
		exec, _, _ := newTestExecutor(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		outcome := exec.Execute(ctx, schemas.NewWaitDecision(5, ""))
		assert.False(t, outcome.Success)
	})
}
