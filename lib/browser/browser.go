// Package browser wraps chromedp with the narrow page surface the
// extraction engine needs: navigate, wait for a selector, snapshot the
// rendered document. One Session owns one headless browser process;
// callers that want isolation between units of work open a fresh
// Session per unit and close it unconditionally.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// ErrWaitTimeout reports that a selector did not appear within its
// allotted wait. Callers treat this as "element absent", not as a
// driver failure.
var ErrWaitTimeout = errors.New("timed out waiting for selector")

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Options struct {
	Headless   bool          `json:"headless"`
	UserAgent  string        `json:"user_agent"`
	Viewport   Viewport      `json:"viewport"`
	NavTimeout time.Duration `json:"-"`
}

type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Viewport.Width == 0 {
		o.Viewport.Width = 1920
	}
	if o.Viewport.Height == 0 {
		o.Viewport.Height = 1080
	}
	if o.NavTimeout == 0 {
		o.NavTimeout = time.Second * 30
	}
	return o
}

type Session struct {
	opts        Options
	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewSession launches a browser process and opens one tab. An error
// here means the driver itself is unusable, which callers should treat
// as fatal rather than per-page.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(opts.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	s := &Session{
		opts:        opts,
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}

	// run an action eagerly so a broken chrome install fails here
	// instead of on the first navigation
	err := s.run(opts.NavTimeout, chromedp.EmulateViewport(
		int64(opts.Viewport.Width),
		int64(opts.Viewport.Height),
	))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	return s, nil
}

// waits in this package deliberately run to their own timeout instead
// of aborting on caller cancellation mid-action; the caller context is
// only consulted between actions
func (s *Session) run(timeout time.Duration, actions ...chromedp.Action) error {
	runCtx := s.tabCtx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.run(s.opts.NavTimeout, chromedp.Navigate(url))
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// WaitVisible blocks until the selector matches a visible element or
// the timeout elapses, in which case ErrWaitTimeout is returned.
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.run(timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrWaitTimeout
	}
	return err
}

// HTML snapshots the full rendered document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var html string
	err := s.run(s.opts.NavTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return "", fmt.Errorf("snapshotting document: %w", err)
	}
	return html, nil
}

// Close tears the browser down. Errors are returned for logging but a
// failed close leaves nothing usable behind either way.
func (s *Session) Close() error {
	err := chromedp.Cancel(s.tabCtx)
	s.cancelTab()
	s.cancelAlloc()
	return err
}
