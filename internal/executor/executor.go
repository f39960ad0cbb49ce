// File: internal/executor/executor.go

// Package executor turns gated decisions into injector calls. It owns the
// pacing rules: a minimum spacing between actions, a human-speed pointer
// move, and a short settle delay after each action so the next screenshot
// sees the result.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/api/schemas"
	"github.com/xkilldash9x/deskpilot/internal/config"
)

// Pointer move pacing, in seconds. The move duration scales with manhattan
// distance and is clamped to this range.
const (
	minMoveDuration = 0.1
	maxMoveDuration = 0.5
)

// now and sleep are swappable in tests.
var (
	now   = time.Now
	sleep = func(ctx context.Context, d time.Duration) error {
		if d <= 0 {
			return nil
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
)

type handler func(ctx context.Context, d schemas.Decision) error

// Executor dispatches decisions to an InputInjector. It is single-threaded
// by contract: the agent loop issues one action at a time.
type Executor struct {
	log         *zap.Logger
	injector    schemas.InputInjector
	minSpacing  time.Duration
	settleDelay time.Duration
	handlers    map[schemas.ActionType]handler

	// lastCompleted is the completion instant of the previous action. The
	// spacing rule measures from completion, not start, so a slow action
	// never earns the next one a head start.
	lastCompleted time.Time

	// pointerX/Y track where the pointer was last placed. The injector has
	// no position query, so the executor is the source of truth.
	pointerX, pointerY int
}

// NewExecutor builds an Executor over the given injector.
func NewExecutor(cfg config.ExecutorConfig, injector schemas.InputInjector, logger *zap.Logger) *Executor {
	e := &Executor{
		log:         logger.Named("executor"),
		injector:    injector,
		minSpacing:  cfg.MinActionSpacing,
		settleDelay: cfg.SettleDelay,
	}
	e.registerHandlers()
	return e
}

func (e *Executor) registerHandlers() {
	e.handlers = map[schemas.ActionType]handler{
		schemas.ActionClick:    e.execClick,
		schemas.ActionTypeText: e.execType,
		schemas.ActionKey:      e.execKey,
		schemas.ActionScroll:   e.execScroll,
		schemas.ActionWait:     e.execWait,
	}
}

// Execute runs one decision and reports the outcome. Injector failures are
// folded into the outcome rather than propagated: a failed click is a fact
// to record, not a reason to stop the agent.
func (e *Executor) Execute(ctx context.Context, d schemas.Decision) schemas.ActionOutcome {
	outcome := schemas.ActionOutcome{
		ID:     uuid.NewString(),
		Action: d.Action,
	}

	err := e.run(ctx, d)
	outcome.Success = err == nil
	outcome.Timestamp = now()
	if err != nil {
		outcome.Error = err.Error()
		e.log.Warn("Action failed",
			zap.String("action", string(d.Action)),
			zap.String("outcome_id", outcome.ID),
			zap.Error(err))
	} else {
		e.log.Info("Action executed",
			zap.String("action", string(d.Action)),
			zap.String("outcome_id", outcome.ID),
			zap.String("reasoning", d.Reasoning))
	}
	return outcome
}

func (e *Executor) run(ctx context.Context, d schemas.Decision) error {
	h, ok := e.handlers[d.Action]
	if !ok {
		return fmt.Errorf("no handler for action %q", d.Action)
	}

	if err := e.enforceSpacing(ctx); err != nil {
		return err
	}
	if err := h(ctx, d); err != nil {
		// A failed action still counts for spacing.
		e.lastCompleted = now()
		return err
	}
	if err := sleep(ctx, e.settleDelay); err != nil {
		return err
	}
	e.lastCompleted = now()
	return nil
}

// enforceSpacing sleeps off whatever remains of the minimum gap since the
// previous action completed.
func (e *Executor) enforceSpacing(ctx context.Context) error {
	if e.lastCompleted.IsZero() {
		return nil
	}
	elapsed := now().Sub(e.lastCompleted)
	if remaining := e.minSpacing - elapsed; remaining > 0 {
		return sleep(ctx, remaining)
	}
	return nil
}

// moveDuration scales the pointer travel time with manhattan distance, one
// second per thousand pixels, clamped so short hops still look deliberate
// and long ones do not crawl.
func moveDuration(dx, dy int) float64 {
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	d := float64(dx+dy) / 1000.0
	if d < minMoveDuration {
		return minMoveDuration
	}
	if d > maxMoveDuration {
		return maxMoveDuration
	}
	return d
}

func (e *Executor) execClick(ctx context.Context, d schemas.Decision) error {
	dur := moveDuration(d.X-e.pointerX, d.Y-e.pointerY)
	if err := e.injector.MoveTo(ctx, d.X, d.Y, dur); err != nil {
		return fmt.Errorf("move to (%d, %d): %w", d.X, d.Y, err)
	}
	e.pointerX, e.pointerY = d.X, d.Y
	if err := e.injector.Click(ctx, d.X, d.Y); err != nil {
		return fmt.Errorf("click at (%d, %d): %w", d.X, d.Y, err)
	}
	return nil
}

func (e *Executor) execType(ctx context.Context, d schemas.Decision) error {
	if err := e.injector.TypeText(ctx, d.Text); err != nil {
		return fmt.Errorf("type text: %w", err)
	}
	return nil
}

// execKey treats a '+' in the key string as a chord separator: "ctrl+c"
// presses ctrl, then c, and releases in reverse. A bare name is a single
// press.
func (e *Executor) execKey(ctx context.Context, d schemas.Decision) error {
	if strings.Contains(d.Key, "+") {
		parts := strings.Split(d.Key, "+")
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}
		if err := e.injector.PressCombo(ctx, parts); err != nil {
			return fmt.Errorf("press combo %q: %w", d.Key, err)
		}
		return nil
	}
	if err := e.injector.PressKey(ctx, d.Key); err != nil {
		return fmt.Errorf("press key %q: %w", d.Key, err)
	}
	return nil
}

func (e *Executor) execScroll(ctx context.Context, d schemas.Decision) error {
	if err := e.injector.Scroll(ctx, d.Direction, d.Amount); err != nil {
		return fmt.Errorf("scroll %s by %d: %w", d.Direction, d.Amount, err)
	}
	return nil
}

func (e *Executor) execWait(ctx context.Context, d schemas.Decision) error {
	return sleep(ctx, time.Duration(d.Duration*float64(time.Second)))
}
