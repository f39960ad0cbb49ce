// File: internal/safety/gate.go

// Package safety holds the last pure checkpoint between a validated model
// decision and the hardware. The gate never performs I/O; it judges a
// Decision against fixed policy plus the current screen size and nothing
// else, which keeps every rule unit-testable.
package safety

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/deskpilot/api/schemas"
	"github.com/xkilldash9x/deskpilot/internal/config"
)

// Denial explains why the gate refused a decision. It is an error so callers
// can thread it through ordinary error paths, but it represents policy, not
// failure.
type Denial struct {
	Action schemas.ActionType
	Reason string
}

func (d *Denial) Error() string {
	return fmt.Sprintf("action %q denied: %s", d.Action, d.Reason)
}

// Gate applies the safety policy. Construct it once at startup; it is
// stateless and safe for concurrent use.
type Gate struct {
	bottomBand    int
	exclusions    []config.ExclusionRect
	maxTextLength int
	forbiddenText []string
	deniedKeys    map[string]struct{}
	maxWaitSecs   float64
}

// NewGate builds a Gate from configuration. Forbidden substrings and denied
// keys are lowercased once here so checks stay allocation-free.
func NewGate(cfg config.SafetyConfig) *Gate {
	g := &Gate{
		bottomBand:    cfg.BottomBandHeight,
		exclusions:    cfg.Exclusions,
		maxTextLength: cfg.MaxTextLength,
		maxWaitSecs:   cfg.MaxWaitSecs,
		deniedKeys:    make(map[string]struct{}, len(cfg.DeniedKeys)),
	}
	for _, s := range cfg.ForbiddenText {
		g.forbiddenText = append(g.forbiddenText, strings.ToLower(s))
	}
	for _, k := range cfg.DeniedKeys {
		g.deniedKeys[strings.ToLower(k)] = struct{}{}
	}
	return g
}

// Check judges one decision against the policy given the current screen
// dimensions. A nil return means the decision may be executed; otherwise the
// returned error is a *Denial naming the rule that fired.
func (g *Gate) Check(d schemas.Decision, screenW, screenH int) error {
	switch d.Action {
	case schemas.ActionClick:
		return g.checkClick(d, screenW, screenH)
	case schemas.ActionTypeText:
		return g.checkType(d)
	case schemas.ActionKey:
		return g.checkKey(d)
	case schemas.ActionScroll:
		// Scrolling happens at the current pointer position and moves no
		// data; nothing to refuse.
		return nil
	case schemas.ActionWait:
		return g.checkWait(d)
	default:
		return &Denial{Action: d.Action, Reason: "unrecognized action"}
	}
}

func (g *Gate) checkClick(d schemas.Decision, screenW, screenH int) error {
	if d.X < 0 || d.X >= screenW || d.Y < 0 || d.Y >= screenH {
		return &Denial{
			Action: d.Action,
			Reason: fmt.Sprintf("coordinates (%d, %d) outside screen %dx%d", d.X, d.Y, screenW, screenH),
		}
	}
	// The bottom strip holds the taskbar; one stray click there can close
	// or launch things far outside the current instruction.
	if d.Y >= screenH-g.bottomBand {
		return &Denial{
			Action: d.Action,
			Reason: fmt.Sprintf("coordinates (%d, %d) inside the bottom %dpx band", d.X, d.Y, g.bottomBand),
		}
	}
	for _, r := range g.exclusions {
		if d.X >= r.MinX && d.X <= r.MaxX && d.Y >= r.MinY && d.Y <= r.MaxY {
			return &Denial{
				Action: d.Action,
				Reason: fmt.Sprintf("coordinates (%d, %d) inside exclusion [%d,%d]x[%d,%d]", d.X, d.Y, r.MinX, r.MaxX, r.MinY, r.MaxY),
			}
		}
	}
	return nil
}

func (g *Gate) checkType(d schemas.Decision) error {
	if g.maxTextLength > 0 && len(d.Text) > g.maxTextLength {
		return &Denial{
			Action: d.Action,
			Reason: fmt.Sprintf("text longer than %d characters", g.maxTextLength),
		}
	}
	lower := strings.ToLower(d.Text)
	for _, pattern := range g.forbiddenText {
		if strings.Contains(lower, pattern) {
			return &Denial{
				Action: d.Action,
				Reason: fmt.Sprintf("text contains forbidden fragment %q", pattern),
			}
		}
	}
	return nil
}

// checkKey matches the whole key string against the deny list. Matching is
// exact, not substring: "ctrl+alt+del" is denied while "ctrl+alt+delete+x"
// is a different chord and passes.
func (g *Gate) checkKey(d schemas.Decision) error {
	if _, denied := g.deniedKeys[strings.ToLower(strings.TrimSpace(d.Key))]; denied {
		return &Denial{
			Action: d.Action,
			Reason: fmt.Sprintf("key %q is on the deny list", d.Key),
		}
	}
	return nil
}

func (g *Gate) checkWait(d schemas.Decision) error {
	if d.Duration <= 0 || d.Duration > g.maxWaitSecs {
		return &Denial{
			Action: d.Action,
			Reason: fmt.Sprintf("wait of %gs outside (0, %g]", d.Duration, g.maxWaitSecs),
		}
	}
	return nil
}
