package chromium

import (
	"testing"

	"github.com/chromedp/cdproto/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKey(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"Enter", "enter", "Enter"},
		{"ReturnAlias", "return", "Enter"},
		{"EscShort", "esc", "Escape"},
		{"EscapeLong", "escape", "Escape"},
		{"Space", "space", " "},
		{"ArrowUp", "up", "ArrowUp"},
		{"PageDown", "pagedown", "PageDown"},
		{"FunctionKey", "f5", "F5"},
		{"FunctionKeyHigh", "F12", "F12"},
		{"WinAlias", "win", "Meta"},
		{"SingleChar", "a", "a"},
		{"SingleDigit", "7", "7"},
		{"MixedCase", "ENTER", "Enter"},
		{"Whitespace", "  tab ", "Tab"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := lookupKey(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("UnknownName", func(t *testing.T) {
		_, err := lookupKey("hyperspace")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown key name")
	})
}

func TestLookupModifier(t *testing.T) {
	cases := []struct {
		in   string
		want input.Modifier
	}{
		{"ctrl", input.ModifierCtrl},
		{"Control", input.ModifierCtrl},
		{"alt", input.ModifierAlt},
		{"shift", input.ModifierShift},
		{"win", input.ModifierMeta},
		{"meta", input.ModifierMeta},
		{"cmd", input.ModifierMeta},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := lookupModifier(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("NotAModifier", func(t *testing.T) {
		_, err := lookupModifier("enter")
		require.Error(t, err)
	})
}
