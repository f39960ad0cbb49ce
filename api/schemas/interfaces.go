package schemas

import "context"

// -- Perception & Actuation Interfaces --

// ScreenCapturer produces a PNG-encoded screenshot of the current desktop.
// A nil error implies the returned bytes are a decodable image.
type ScreenCapturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// InputInjector exposes the low-level input primitives the executor dispatches
// to. Implementations drive one pointer and one keyboard, so callers must not
// invoke primitives concurrently.
type InputInjector interface {
	// MoveTo moves the pointer to absolute screen coordinates over roughly
	// the given duration in seconds.
	MoveTo(ctx context.Context, x, y int, duration float64) error
	Click(ctx context.Context, x, y int) error
	RightClick(ctx context.Context, x, y int) error
	MiddleClick(ctx context.Context, x, y int) error
	// TypeText emits the text one character at a time.
	TypeText(ctx context.Context, text string) error
	// PressKey presses and releases a single named key (e.g. "enter").
	PressKey(ctx context.Context, key string) error
	// PressCombo holds a chord of keys, given in press order, then releases
	// them in reverse order.
	PressCombo(ctx context.Context, keys []string) error
	// Scroll scrolls at the current pointer position.
	Scroll(ctx context.Context, direction ScrollDirection, amount int) error
	// ScreenSize returns the current screen bounds in pixels.
	ScreenSize(ctx context.Context) (width, height int, err error)
}

// -- Decision Interfaces --

// InferenceClient is the contract with the vision model service. Generate
// sends one prompt plus one PNG screenshot and returns the raw reply text.
// Transport failures, timeouts and non-2xx statuses surface as errors;
// interpreting the reply text is the caller's concern.
type InferenceClient interface {
	Generate(ctx context.Context, prompt string, screenshot []byte) (string, error)
	// Ping reports whether the inference service is reachable.
	Ping(ctx context.Context) error
}

// -- Command Intake Interfaces --

// CommandSource owns the durable queue of pending instructions and the record
// of already-attempted ones.
type CommandSource interface {
	// Poll returns new, valid, not-yet-attempted instructions in store
	// order. When the backing store is unchanged since the previous call it
	// returns nil without re-reading instruction bodies.
	Poll() ([]string, error)
	// MarkAttempted durably records the instruction as attempted. It is
	// called for every dispatched instruction, whether or not the pipeline
	// downstream succeeded.
	MarkAttempted(instruction string) error
}
