// File: internal/driver/chromium/driver.go

// Package chromium drives a Chromium instance over the DevTools protocol and
// exposes it as the agent's screen and input device. The browser surface
// stands in for a desktop: screenshots come from the page compositor and
// input lands as trusted CDP events.
package chromium

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/api/schemas"
	"github.com/xkilldash9x/deskpilot/internal/config"
)

// startupTimeout bounds the initial liveness check after launch.
const startupTimeout = 30 * time.Second

// Driver owns one browser process and one tab. It implements both
// schemas.ScreenCapturer and schemas.InputInjector.
type Driver struct {
	log *zap.Logger
	cfg config.DriverConfig

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	// mu guards the tracked pointer position, used as the anchor for
	// wheel events.
	mu       sync.Mutex
	pointerX float64
	pointerY float64
}

var (
	_ schemas.ScreenCapturer = (*Driver)(nil)
	_ schemas.InputInjector  = (*Driver)(nil)
)

// NewDriver launches the browser and verifies it responds before returning.
func NewDriver(ctx context.Context, cfg config.DriverConfig, logger *zap.Logger) (*Driver, error) {
	d := &Driver{
		log: logger.Named("chromium"),
		cfg: cfg,
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, d.allocatorOptions()...)
	d.allocCancel = allocCancel

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	d.browserCtx = browserCtx
	d.browserCancel = browserCancel

	startCtx, cancel := context.WithTimeout(browserCtx, startupTimeout)
	defer cancel()
	startURL := cfg.StartURL
	if startURL == "" {
		startURL = "about:blank"
	}
	if err := chromedp.Run(startCtx, chromedp.Navigate(startURL)); err != nil {
		d.Close()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	d.log.Info("Browser launched",
		zap.Bool("headless", cfg.Headless),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height))
	return d, nil
}

func (d *Driver) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{},
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(d.cfg.Width, d.cfg.Height),
		chromedp.Flag("headless", d.cfg.Headless),
		chromedp.Flag("disable-extensions", true),
	)
	for _, arg := range d.cfg.Args {
		opts = append(opts, chromedp.Flag(arg, true))
	}
	return opts
}

// Close tears down the tab and the browser process. Safe to call more than
// once.
func (d *Driver) Close() {
	if d.browserCancel != nil {
		d.browserCancel()
	}
	if d.allocCancel != nil {
		d.allocCancel()
	}
}

// run executes chromedp actions against the driver's tab, bounded by the
// caller's context.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := mergeContext(d.browserCtx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// mergeContext derives a child of base that is also cancelled when aux is.
func mergeContext(base, aux context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(base)
	stop := context.AfterFunc(aux, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}

// Capture returns a PNG screenshot of the visible viewport.
func (d *Driver) Capture(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

// ScreenSize reports the CSS viewport dimensions of the tab.
func (d *Driver) ScreenSize(ctx context.Context) (int, int, error) {
	var width, height int
	action := chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, _, _, cssVisualViewport, _, err := page.GetLayoutMetrics().Do(ctx)
		if err != nil {
			return err
		}
		if cssVisualViewport == nil {
			return fmt.Errorf("no visual viewport in layout metrics")
		}
		width = int(cssVisualViewport.ClientWidth)
		height = int(cssVisualViewport.ClientHeight)
		return nil
	})
	if err := d.run(ctx, action); err != nil {
		return 0, 0, fmt.Errorf("query layout metrics: %w", err)
	}
	return width, height, nil
}

// SelfTest captures one frame and queries the viewport, proving both halves
// of the driver work before the agent loop starts.
func (d *Driver) SelfTest(ctx context.Context) error {
	if _, err := d.Capture(ctx); err != nil {
		return fmt.Errorf("driver self-test: %w", err)
	}
	w, h, err := d.ScreenSize(ctx)
	if err != nil {
		return fmt.Errorf("driver self-test: %w", err)
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("driver self-test: implausible screen size %dx%d", w, h)
	}
	d.log.Debug("Driver self-test passed", zap.Int("width", w), zap.Int("height", h))
	return nil
}

func (d *Driver) setPointer(x, y float64) {
	d.mu.Lock()
	d.pointerX, d.pointerY = x, y
	d.mu.Unlock()
}

func (d *Driver) pointer() (float64, float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pointerX, d.pointerY
}
