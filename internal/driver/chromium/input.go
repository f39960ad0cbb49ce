// File: internal/driver/chromium/input.go
package chromium

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/deskpilot/api/schemas"
)

// moveSteps is the number of intermediate mouseMoved events per pointer
// travel. Pages that track the cursor see a path, not a teleport.
const moveSteps = 12

// wheelNotch is the pixel delta of one scroll notch.
const wheelNotch = 100.0

// MoveTo glides the pointer to (x, y) over roughly duration seconds by
// emitting interpolated mouseMoved events.
func (d *Driver) MoveTo(ctx context.Context, x, y int, duration float64) error {
	fromX, fromY := d.pointer()
	toX, toY := float64(x), float64(y)
	stepPause := time.Duration(duration / moveSteps * float64(time.Second))

	var actions []chromedp.Action
	for i := 1; i <= moveSteps; i++ {
		t := float64(i) / moveSteps
		px := fromX + (toX-fromX)*t
		py := fromY + (toY-fromY)*t
		actions = append(actions,
			input.DispatchMouseEvent(input.MouseMoved, px, py),
			chromedp.Sleep(stepPause),
		)
	}
	if err := d.run(ctx, actions...); err != nil {
		return fmt.Errorf("move pointer: %w", err)
	}
	d.setPointer(toX, toY)
	return nil
}

func (d *Driver) clickWith(ctx context.Context, button input.MouseButton, x, y int) error {
	px, py := float64(x), float64(y)
	press := input.DispatchMouseEvent(input.MousePressed, px, py).
		WithButton(button).
		WithClickCount(1)
	release := input.DispatchMouseEvent(input.MouseReleased, px, py).
		WithButton(button).
		WithClickCount(1)

	if err := d.run(ctx, press, release); err != nil {
		return fmt.Errorf("%s click: %w", button, err)
	}
	d.setPointer(px, py)
	return nil
}

// Click presses and releases the left button at (x, y).
func (d *Driver) Click(ctx context.Context, x, y int) error {
	return d.clickWith(ctx, input.Left, x, y)
}

// RightClick presses and releases the right button at (x, y).
func (d *Driver) RightClick(ctx context.Context, x, y int) error {
	return d.clickWith(ctx, input.Right, x, y)
}

// MiddleClick presses and releases the middle button at (x, y).
func (d *Driver) MiddleClick(ctx context.Context, x, y int) error {
	return d.clickWith(ctx, input.Middle, x, y)
}

// TypeText emits the text one rune at a time so the page sees individual
// keystrokes rather than a paste.
func (d *Driver) TypeText(ctx context.Context, text string) error {
	for _, r := range text {
		if err := d.run(ctx, chromedp.KeyEvent(string(r))); err != nil {
			return fmt.Errorf("type rune %q: %w", r, err)
		}
	}
	return nil
}

// PressKey presses and releases a single named key.
func (d *Driver) PressKey(ctx context.Context, key string) error {
	cdpKey, err := lookupKey(key)
	if err != nil {
		return err
	}
	down := input.DispatchKeyEvent(input.KeyDown).WithKey(cdpKey)
	up := input.DispatchKeyEvent(input.KeyUp).WithKey(cdpKey)
	if err := d.run(ctx, down, up); err != nil {
		return fmt.Errorf("press key %q: %w", key, err)
	}
	return nil
}

// PressCombo dispatches a modifier chord. All but the final element must be
// modifier names; the final element is the key pressed under them.
func (d *Driver) PressCombo(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("empty key combination")
	}

	var modifiers input.Modifier
	for _, name := range keys[:len(keys)-1] {
		m, err := lookupModifier(name)
		if err != nil {
			return err
		}
		modifiers |= m
	}

	last := keys[len(keys)-1]
	// A chord of nothing but modifiers, e.g. "ctrl+shift", presses the
	// final modifier as the key itself.
	cdpKey, err := lookupKey(last)
	if err != nil {
		return err
	}

	down := input.DispatchKeyEvent(input.KeyDown).WithModifiers(modifiers).WithKey(cdpKey)
	up := input.DispatchKeyEvent(input.KeyUp).WithModifiers(modifiers).WithKey(cdpKey)
	if err := d.run(ctx, down, up); err != nil {
		return fmt.Errorf("press combo %v: %w", keys, err)
	}
	return nil
}

// Scroll emits wheel events at the tracked pointer position.
func (d *Driver) Scroll(ctx context.Context, direction schemas.ScrollDirection, amount int) error {
	px, py := d.pointer()

	var dx, dy float64
	switch direction {
	case schemas.ScrollUp:
		dy = -wheelNotch
	case schemas.ScrollDown:
		dy = wheelNotch
	case schemas.ScrollLeft:
		dx = -wheelNotch
	case schemas.ScrollRight:
		dx = wheelNotch
	default:
		return fmt.Errorf("unknown scroll direction %q", direction)
	}

	var actions []chromedp.Action
	for i := 0; i < amount; i++ {
		actions = append(actions,
			input.DispatchMouseEvent(input.MouseWheel, px, py).
				WithDeltaX(dx).
				WithDeltaY(dy))
	}
	if err := d.run(ctx, actions...); err != nil {
		return fmt.Errorf("scroll %s: %w", direction, err)
	}
	return nil
}

// namedKeys maps the friendly key names the model emits to DOM key values.
// Single characters fall through and are used verbatim.
var namedKeys = map[string]string{
	"enter":       "Enter",
	"return":      "Enter",
	"tab":         "Tab",
	"esc":         "Escape",
	"escape":      "Escape",
	"space":       " ",
	"backspace":   "Backspace",
	"delete":      "Delete",
	"del":         "Delete",
	"insert":      "Insert",
	"home":        "Home",
	"end":         "End",
	"pageup":      "PageUp",
	"pagedown":    "PageDown",
	"up":          "ArrowUp",
	"down":        "ArrowDown",
	"left":        "ArrowLeft",
	"right":       "ArrowRight",
	"ctrl":        "Control",
	"control":     "Control",
	"alt":         "Alt",
	"shift":       "Shift",
	"win":         "Meta",
	"meta":        "Meta",
	"cmd":         "Meta",
	"capslock":    "CapsLock",
	"printscreen": "PrintScreen",
}

func lookupKey(name string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if k, ok := namedKeys[lower]; ok {
		return k, nil
	}
	// F1..F24 keep their canonical capitalization.
	if len(lower) >= 2 && lower[0] == 'f' {
		if _, err := fmt.Sscanf(lower, "f%d", new(int)); err == nil {
			return "F" + lower[1:], nil
		}
	}
	runes := []rune(lower)
	if len(runes) == 1 {
		return string(runes), nil
	}
	return "", fmt.Errorf("unknown key name %q", name)
}

func lookupModifier(name string) (input.Modifier, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ctrl", "control":
		return input.ModifierCtrl, nil
	case "alt":
		return input.ModifierAlt, nil
	case "shift":
		return input.ModifierShift, nil
	case "win", "meta", "cmd", "super":
		return input.ModifierMeta, nil
	default:
		return 0, fmt.Errorf("unknown modifier %q", name)
	}
}
