// File: internal/orchestrator/orchestrator.go
// Description: Drives the perceive-decide-act loop. It is injected with fully
// configured components via interfaces, making it decoupled and testable.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/api/schemas"
	"github.com/xkilldash9x/deskpilot/internal/config"
	"github.com/xkilldash9x/deskpilot/internal/decision"
	"github.com/xkilldash9x/deskpilot/internal/inference"
	"github.com/xkilldash9x/deskpilot/internal/safety"
)

// Stage names the furthest point an instruction reached in the pipeline.
// The pipeline is strictly linear; a failure at any stage short-circuits
// straight to recording.
type Stage string

const (
	StagePolled   Stage = "polled"
	StageCaptured Stage = "captured"
	StageDecided  Stage = "decided"
	StageGated    Stage = "gated"
	StageExecuted Stage = "executed"
)

// ActionRunner executes one gated decision. Satisfied by executor.Executor.
type ActionRunner interface {
	Execute(ctx context.Context, d schemas.Decision) schemas.ActionOutcome
}

// ScreenSizer reports the current screen bounds. Satisfied by any
// schemas.InputInjector.
type ScreenSizer interface {
	ScreenSize(ctx context.Context) (width, height int, err error)
}

// ConnectivityChecker reports whether the internet is reachable. Satisfied
// by netcheck.Checker.
type ConnectivityChecker interface {
	Available(ctx context.Context) bool
}

// InstructionResult is the record of one instruction's trip through the
// pipeline.
type InstructionResult struct {
	Instruction string
	Stage       Stage
	// Outcome is set when the pipeline reached execution.
	Outcome *schemas.ActionOutcome
	// Denial is set when the safety gate refused the decision.
	Denial *safety.Denial
	// Err is set for pipeline failures: capture errors, transport errors,
	// unusable model replies.
	Err error
}

// sleep is swappable in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
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

// Orchestrator owns the agent loop. It is strictly single-threaded: one
// instruction is carried through the whole pipeline before the next is
// looked at.
type Orchestrator struct {
	cfg      config.AgentConfig
	log      *zap.Logger
	source   schemas.CommandSource
	capturer schemas.ScreenCapturer
	client   schemas.InferenceClient
	prompts  *inference.PromptBuilder
	gate     *safety.Gate
	runner   ActionRunner
	screen   ScreenSizer
	net      ConnectivityChecker
}

// New creates an Orchestrator with its dependencies injected.
func New(
	cfg config.AgentConfig,
	logger *zap.Logger,
	source schemas.CommandSource,
	capturer schemas.ScreenCapturer,
	client schemas.InferenceClient,
	prompts *inference.PromptBuilder,
	gate *safety.Gate,
	runner ActionRunner,
	screen ScreenSizer,
	net ConnectivityChecker,
) (*Orchestrator, error) {
	if source == nil || capturer == nil || client == nil || prompts == nil ||
		gate == nil || runner == nil || screen == nil || net == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	return &Orchestrator{
		cfg:      cfg,
		log:      logger.Named("orchestrator"),
		source:   source,
		capturer: capturer,
		client:   client,
		prompts:  prompts,
		gate:     gate,
		runner:   runner,
		screen:   screen,
		net:      net,
	}, nil
}

// Run polls for instructions and processes them until the context is
// cancelled. Cancellation is honored between instructions; an instruction
// already in flight is carried to its record.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.log.Info("Agent loop started",
		zap.Duration("polling_interval", o.cfg.PollingInterval),
		zap.Duration("command_delay", o.cfg.CommandDelay))

	for {
		if ctx.Err() != nil {
			o.log.Info("Agent loop stopping")
			return nil
		}

		batch, err := o.source.Poll()
		if err != nil {
			o.log.Error("Polling failed, backing off",
				zap.Duration("backoff", o.cfg.ErrorBackoff), zap.Error(err))
			if err := sleep(ctx, o.cfg.ErrorBackoff); err != nil {
				return nil
			}
			continue
		}

		for i, instruction := range batch {
			if ctx.Err() != nil {
				// The remaining batch stays unattempted and will
				// re-surface after a restart.
				o.log.Info("Agent loop stopping mid-batch",
					zap.Int("remaining", len(batch)-i))
				return nil
			}
			if i > 0 {
				if err := sleep(ctx, o.cfg.CommandDelay); err != nil {
					return nil
				}
			}
			o.Process(ctx, instruction)
		}

		if err := sleep(ctx, o.cfg.PollingInterval); err != nil {
			return nil
		}
	}
}

// Process carries one instruction through the full pipeline and records it.
// The instruction is marked attempted no matter how the pipeline ended, so a
// failed instruction is never silently retried on the next poll.
func (o *Orchestrator) Process(ctx context.Context, instruction string) InstructionResult {
	log := o.log.With(zap.String("instruction", instruction))
	log.Info("Processing instruction")

	result := o.pipeline(ctx, instruction, log)
	o.record(result, log)
	return result
}

func (o *Orchestrator) pipeline(ctx context.Context, instruction string, log *zap.Logger) InstructionResult {
	result := InstructionResult{Instruction: instruction, Stage: StagePolled}

	// Capture.
	screenshot, err := o.capturer.Capture(ctx)
	if err != nil {
		result.Err = fmt.Errorf("capture screen: %w", err)
		return result
	}
	result.Stage = StageCaptured

	// Decide. Connectivity is only probed when the instruction mentions
	// something internet-dependent; the answer shapes the prompt.
	online := true
	if inference.NeedsInternet(instruction) {
		online = o.net.Available(ctx)
		log.Debug("Connectivity checked", zap.Bool("online", online))
	}
	prompt := o.prompts.Build(instruction, online)

	reply, err := o.client.Generate(ctx, prompt, screenshot)
	if err != nil {
		result.Err = fmt.Errorf("model query: %w", err)
		return result
	}

	d, err := decision.Parse(reply)
	if err != nil {
		result.Err = fmt.Errorf("model reply unusable: %w", err)
		return result
	}
	result.Stage = StageDecided
	log.Info("Model decided",
		zap.String("action", string(d.Action)),
		zap.String("reasoning", d.Reasoning))

	// Gate.
	width, height, err := o.screen.ScreenSize(ctx)
	if err != nil {
		result.Err = fmt.Errorf("query screen size: %w", err)
		return result
	}
	if err := o.gate.Check(d, width, height); err != nil {
		var denial *safety.Denial
		if errors.As(err, &denial) {
			result.Denial = denial
			return result
		}
		result.Err = err
		return result
	}
	result.Stage = StageGated

	// Execute. Failures are already folded into the outcome.
	outcome := o.runner.Execute(ctx, d)
	result.Outcome = &outcome
	result.Stage = StageExecuted
	return result
}

// record logs the terminal state and marks the instruction attempted.
func (o *Orchestrator) record(result InstructionResult, log *zap.Logger) {
	switch {
	case result.Denial != nil:
		log.Warn("Instruction denied by safety gate",
			zap.String("stage", string(result.Stage)),
			zap.String("reason", result.Denial.Reason))
	case result.Err != nil:
		log.Error("Instruction failed",
			zap.String("stage", string(result.Stage)),
			zap.Error(result.Err))
	case result.Outcome != nil && !result.Outcome.Success:
		log.Warn("Instruction executed with failure",
			zap.String("outcome_id", result.Outcome.ID),
			zap.String("error", result.Outcome.Error))
	default:
		log.Info("Instruction completed",
			zap.String("outcome_id", result.Outcome.ID))
	}

	if err := o.source.MarkAttempted(result.Instruction); err != nil {
		// Worst case the instruction runs again after a restart; this log
		// line is the only trace of that hazard.
		log.Error("Could not record attempt", zap.Error(err))
	}
}
