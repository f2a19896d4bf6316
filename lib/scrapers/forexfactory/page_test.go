package forexfactory

import (
	"context"
	"time"

	"ffcal/lib/browser"
)

// fakePage serves a static HTML document and reports selectors visible
// only when they are listed in visible. It records navigations so tests
// can assert on fragment URLs.
type fakePage struct {
	html      string
	visible   map[string]bool
	navigated []string

	navigateErr error
	htmlErr     error
}

func newFakePage(html string, visible ...string) *fakePage {
	p := &fakePage{html: html, visible: map[string]bool{}}
	for _, selector := range visible {
		p.visible[selector] = true
	}
	return p
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	if p.navigateErr != nil {
		return p.navigateErr
	}
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *fakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if p.visible[selector] {
		return nil
	}
	return browser.ErrWaitTimeout
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	if p.htmlErr != nil {
		return "", p.htmlErr
	}
	return p.html, nil
}
