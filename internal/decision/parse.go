// File: internal/decision/parse.go

// Package decision turns raw model replies into validated action proposals.
// Parsing is split into two steps so each failure mode is distinct: span
// extraction finds the JSON object inside conversational filler, and
// validation checks the decoded object against the per-action schema. A
// reply with no decodable JSON at all is an inference-class failure, the
// same bucket as a transport error; ValidationError is reserved for JSON
// that decoded fine but breaches the schema.
package decision

import (
	"fmt"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/deskpilot/api/schemas"
	"github.com/xkilldash9x/deskpilot/internal/inference"
)

// ValidationError reports a reply whose JSON decoded cleanly but does not
// describe a usable Decision. Callers use it to tell a schema breach apart
// from inference failures.
type ValidationError struct {
	Reason string
	// Raw is the offending reply or extracted span, truncated for logs.
	Raw string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid model decision: %s", e.Reason)
}

const rawSnippetLimit = 500

func newValidationError(reason, raw string) *ValidationError {
	if len(raw) > rawSnippetLimit {
		raw = raw[:rawSnippetLimit] + "..."
	}
	return &ValidationError{Reason: reason, Raw: raw}
}

// newMalformedError wraps a reply with no decodable JSON as an
// inference-class error, keeping a truncated snippet for the log.
func newMalformedError(reason, raw string) *inference.Error {
	if len(raw) > rawSnippetLimit {
		raw = raw[:rawSnippetLimit] + "..."
	}
	return &inference.Error{Op: "parse reply", Err: fmt.Errorf("%s: %q", reason, raw)}
}

// wireDecision mirrors the JSON shape the model is instructed to produce.
// Coordinates come as a two-element array, numbers may arrive as floats.
type wireDecision struct {
	Action      string    `json:"action"`
	Coordinates []float64 `json:"coordinates"`
	Text        *string   `json:"text"`
	Key         string    `json:"key"`
	Direction   string    `json:"direction"`
	Amount      *float64  `json:"amount"`
	Duration    *float64  `json:"duration"`
	Reasoning   string    `json:"reasoning"`
}

// ExtractJSON returns the span from the first '{' to the last '}' of the
// reply. Models wrap their JSON in prose and markdown fences no matter how
// firmly the prompt forbids it, so the span is located positionally instead
// of by unwrapping any particular framing.
func ExtractJSON(reply string) (string, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return "", newMalformedError("no JSON object in reply", reply)
	}
	return reply[start : end+1], nil
}

// Parse extracts, decodes and validates one model reply. Extraction and
// decode failures return an *inference.Error; a decoded object that fails
// the schema returns a *ValidationError.
func Parse(reply string) (schemas.Decision, error) {
	span, err := ExtractJSON(reply)
	if err != nil {
		return schemas.Decision{}, err
	}

	var wire wireDecision
	if err := json.UnmarshalFromString(span, &wire); err != nil {
		return schemas.Decision{}, newMalformedError(fmt.Sprintf("malformed JSON: %v", err), span)
	}
	return validate(wire, span)
}

func validate(wire wireDecision, span string) (schemas.Decision, error) {
	action := schemas.ActionType(strings.ToLower(strings.TrimSpace(wire.Action)))

	switch action {
	case schemas.ActionClick:
		if len(wire.Coordinates) != 2 {
			return schemas.Decision{}, newValidationError("click requires a two-element coordinates array", span)
		}
		x := int(wire.Coordinates[0])
		y := int(wire.Coordinates[1])
		return schemas.NewClickDecision(x, y, wire.Reasoning), nil

	case schemas.ActionTypeText:
		if wire.Text == nil {
			return schemas.Decision{}, newValidationError("type requires a text field", span)
		}
		return schemas.NewTypeDecision(*wire.Text, wire.Reasoning), nil

	case schemas.ActionKey:
		if strings.TrimSpace(wire.Key) == "" {
			return schemas.Decision{}, newValidationError("key requires a key field", span)
		}
		return schemas.NewKeyDecision(wire.Key, wire.Reasoning), nil

	case schemas.ActionScroll:
		dir := schemas.ScrollDirection(strings.ToLower(wire.Direction))
		switch dir {
		case schemas.ScrollUp, schemas.ScrollDown, schemas.ScrollLeft, schemas.ScrollRight:
		default:
			return schemas.Decision{}, newValidationError("scroll requires a direction of up, down, left or right", span)
		}
		amount := 0
		if wire.Amount != nil {
			amount = int(*wire.Amount)
		}
		return schemas.NewScrollDecision(dir, amount, wire.Reasoning), nil

	case schemas.ActionWait:
		// Absent duration falls back to a short default; an explicit
		// non-positive one is the model's mistake.
		duration := 1.0
		if wire.Duration != nil {
			duration = *wire.Duration
		}
		if duration <= 0 {
			return schemas.Decision{}, newValidationError("wait duration must be positive", span)
		}
		return schemas.NewWaitDecision(duration, wire.Reasoning), nil

	default:
		return schemas.Decision{}, newValidationError(fmt.Sprintf("unknown action %q", wire.Action), span)
	}
}
