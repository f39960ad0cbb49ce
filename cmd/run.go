// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/deskpilot/internal/commands"
	"github.com/xkilldash9x/deskpilot/internal/driver/chromium"
	"github.com/xkilldash9x/deskpilot/internal/executor"
	"github.com/xkilldash9x/deskpilot/internal/inference"
	"github.com/xkilldash9x/deskpilot/internal/netcheck"
	"github.com/xkilldash9x/deskpilot/internal/observability"
	"github.com/xkilldash9x/deskpilot/internal/orchestrator"
	"github.com/xkilldash9x/deskpilot/internal/safety"
)

// newRunCmd creates and configures the `run` command, the main agent loop.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Starts the agent loop: poll commands, decide, and act",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Context from main.go is signal-aware.
			ctx := cmd.Context()
			logger := observability.GetLogger()
			defer observability.Sync()

			source, err := commands.NewSource(cfg.Commands, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize command source: %w", err)
			}

			client := inference.NewClient(cfg.Inference, logger)
			if err := client.WaitReady(ctx); err != nil {
				return fmt.Errorf("inference service not ready: %w", err)
			}

			prompts := inference.NewPromptBuilder(cfg.Commands.RulesFile, logger)

			checker := netcheck.NewChecker(cfg.Network, logger)
			if err := checker.WaitForInternet(ctx); err != nil {
				return fmt.Errorf("startup connectivity wait failed: %w", err)
			}

			drv, err := chromium.NewDriver(ctx, cfg.Driver, logger)
			if err != nil {
				return fmt.Errorf("failed to start driver: %w", err)
			}
			defer drv.Close()

			if err := drv.SelfTest(ctx); err != nil {
				return fmt.Errorf("driver self-test failed: %w", err)
			}

			gate := safety.NewGate(cfg.Safety)
			runner := executor.NewExecutor(cfg.Executor, drv, logger)

			orch, err := orchestrator.New(cfg.Agent, logger, source, drv, client, prompts, gate, runner, drv, checker)
			if err != nil {
				return fmt.Errorf("failed to create orchestrator: %w", err)
			}

			if err := orch.Run(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Info("Agent stopped by signal")
					return nil
				}
				return err
			}
			return nil
		},
	}
}
