// File: internal/inference/prompt_test.go
package inference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNeedsInternet(t *testing.T) {
	assert.True(t, NeedsInternet("open Chrome and go to the news"))
	assert.True(t, NeedsInternet("check my GMAIL inbox"))
	assert.True(t, NeedsInternet("search the web for recipes"))
	assert.False(t, NeedsInternet("open notepad"))
	assert.False(t, NeedsInternet("type hello world"))
}

func TestPromptBuilder(t *testing.T) {
	t.Run("falls back to built-in rules", func(t *testing.T) {
		b := NewPromptBuilder(filepath.Join(t.TempDir(), "missing.txt"), zap.NewNop())
		prompt := b.Build("open notepad", true)

		assert.Contains(t, prompt, "AUTOMATION SAFETY RULES")
		assert.Contains(t, prompt, "USER COMMAND: open notepad")
		assert.Contains(t, prompt, "Respond ONLY with valid JSON")
	})

	t.Run("loads rules from file", func(t *testing.T) {
		rulesFile := filepath.Join(t.TempDir(), "rules.txt")
		require.NoError(t, os.WriteFile(rulesFile, []byte("CUSTOM RULE: be gentle\n"), 0o644))

		b := NewPromptBuilder(rulesFile, zap.NewNop())
		prompt := b.Build("open notepad", true)

		assert.Contains(t, prompt, "CUSTOM RULE: be gentle")
		assert.NotContains(t, prompt, "AUTOMATION SAFETY RULES")
	})

	t.Run("empty rules file falls back to built-in rules", func(t *testing.T) {
		rulesFile := filepath.Join(t.TempDir(), "rules.txt")
		require.NoError(t, os.WriteFile(rulesFile, []byte("  \n"), 0o644))

		b := NewPromptBuilder(rulesFile, zap.NewNop())
		assert.Contains(t, b.Build("open notepad", true), "AUTOMATION SAFETY RULES")
	})

	t.Run("offline internet-dependent instruction gets the wait nudge", func(t *testing.T) {
		b := NewPromptBuilder("", zap.NewNop())
		prompt := b.Build("open chrome", false)

		assert.Contains(t, prompt, "internet is not currently available")
		assert.Contains(t, prompt, `"action": "wait"`)
	})

	t.Run("online internet-dependent instruction gets the status note", func(t *testing.T) {
		b := NewPromptBuilder("", zap.NewNop())
		prompt := b.Build("open chrome", true)

		assert.Contains(t, prompt, "Internet connection is available")
		assert.NotContains(t, prompt, "internet is not currently available")
	})

	t.Run("offline state is irrelevant for local instructions", func(t *testing.T) {
		b := NewPromptBuilder("", zap.NewNop())
		prompt := b.Build("open notepad", false)

		assert.NotContains(t, prompt, "INTERNET STATUS")
		assert.NotContains(t, prompt, "internet is not currently available")
	})
}
