// File: api/schemas/decision.go
package schemas

import "time"

// ActionType enumerates the closed set of actions the model may propose.
// SafetyGate and ActionExecutor switch exhaustively over this set; adding a
// new action requires touching both.
type ActionType string

const (
	ActionClick    ActionType = "click"  // Move the pointer and click at absolute coordinates.
	ActionTypeText ActionType = "type"   // Emit text character by character.
	ActionKey      ActionType = "key"    // Press a single key or a '+'-joined chord.
	ActionScroll   ActionType = "scroll" // Scroll at the current pointer position.
	ActionWait     ActionType = "wait"   // Block for a duration, letting the screen settle.
)

// ScrollDirection constrains the scroll payload to the four axis directions.
type ScrollDirection string

const (
	ScrollUp    ScrollDirection = "up"
	ScrollDown  ScrollDirection = "down"
	ScrollLeft  ScrollDirection = "left"
	ScrollRight ScrollDirection = "right"
)

// Decision is the validated, fully-typed action proposal derived from one
// model reply. Only the payload fields relevant to Action are populated; the
// constructors below are the sole intended way to build one, so a Decision in
// circulation always satisfies that invariant. A Decision is never mutated
// after construction - a rejected Decision is discarded, not repaired.
type Decision struct {
	Action ActionType

	// click
	X, Y int

	// type
	Text string

	// key: a single key name or a '+'-joined combination, e.g. "enter", "ctrl+c".
	Key string

	// scroll
	Direction ScrollDirection
	Amount    int

	// wait, in seconds.
	Duration float64

	// Reasoning is the model's free-text justification. Informational only.
	Reasoning string
}

// NewClickDecision builds a click Decision at absolute screen coordinates.
func NewClickDecision(x, y int, reasoning string) Decision {
	return Decision{Action: ActionClick, X: x, Y: y, Reasoning: reasoning}
}

// NewTypeDecision builds a type Decision carrying the text to emit.
func NewTypeDecision(text, reasoning string) Decision {
	return Decision{Action: ActionTypeText, Text: text, Reasoning: reasoning}
}

// NewKeyDecision builds a key Decision for a single key or chord.
func NewKeyDecision(key, reasoning string) Decision {
	return Decision{Action: ActionKey, Key: key, Reasoning: reasoning}
}

// NewScrollDecision builds a scroll Decision. A non-positive amount is
// normalized to the conventional three notches.
func NewScrollDecision(dir ScrollDirection, amount int, reasoning string) Decision {
	if amount <= 0 {
		amount = 3
	}
	return Decision{Action: ActionScroll, Direction: dir, Amount: amount, Reasoning: reasoning}
}

// NewWaitDecision builds a wait Decision for duration seconds.
func NewWaitDecision(duration float64, reasoning string) Decision {
	return Decision{Action: ActionWait, Duration: duration, Reasoning: reasoning}
}

// ActionOutcome records the result of executing one Decision. It is produced
// by the executor and consumed by the orchestrator for bookkeeping; long-term
// archival is out of scope for the core.
type ActionOutcome struct {
	ID        string     `json:"id"`
	Action    ActionType `json:"action"`
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
