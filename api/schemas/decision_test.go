package schemas

import (
	"testing"
	"time"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionConstructors(t *testing.T) {
	t.Run("Click", func(t *testing.T) {
		d := NewClickDecision(640, 360, "center of dialog")
		assert.Equal(t, ActionClick, d.Action)
		assert.Equal(t, 640, d.X)
		assert.Equal(t, 360, d.Y)
		assert.Equal(t, "center of dialog", d.Reasoning)
	})

	t.Run("ScrollDefaultsAmount", func(t *testing.T) {
		d := NewScrollDecision(ScrollDown, 0, "")
		assert.Equal(t, 3, d.Amount)

		d = NewScrollDecision(ScrollUp, -5, "")
		assert.Equal(t, 3, d.Amount)

		d = NewScrollDecision(ScrollUp, 7, "")
		assert.Equal(t, 7, d.Amount)
	})

	t.Run("Wait", func(t *testing.T) {
		d := NewWaitDecision(2.5, "page load")
		assert.Equal(t, ActionWait, d.Action)
		assert.Equal(t, 2.5, d.Duration)
	})
}

func TestActionOutcomeJSON(t *testing.T) {
	out := ActionOutcome{
		ID:        "abc-123",
		Action:    ActionKey,
		Success:   true,
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(out)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"id":"abc-123"`)
	assert.Contains(t, s, `"action":"key"`)
	// Empty error is omitted from the wire form.
	assert.NotContains(t, s, `"error"`)
}
