package browser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"matchworker/logger"
	"matchworker/pkg/errors"

	"github.com/chromedp/chromedp"
)

// Session is the synchronous browsing contract the scraping stages run against.
// A session drives exactly one page at a time and must be closed on every exit path.
type Session interface {
	// Load navigates to the URL and waits for the document to be ready
	Load(url string) error

	// CurrentURL returns the URL of the page currently loaded
	CurrentURL() (string, error)

	// HTML returns the outer HTML of the current document
	HTML() (string, error)

	// WaitVisible waits until the selector matches a visible element
	WaitVisible(selector string, timeout time.Duration) error

	// ScrollIntoView scrolls the first matching element into the viewport
	ScrollIntoView(selector string) error

	// Click dispatches a native click on the first matching element
	Click(selector string, timeout time.Duration) error

	// ClickJS clicks the first matching element from page JavaScript
	ClickJS(selector string) error

	// Evaluate runs a JavaScript expression, decoding the result into out when non-nil
	Evaluate(js string, out interface{}) error

	// Screenshot captures the viewport to a PNG file
	Screenshot(path string) error

	// Sleep pauses the calling goroutine, giving the page time to settle
	Sleep(d time.Duration)

	// Close releases the browser
	Close() error
}

// Options configures a Chrome session
type Options struct {
	Headless  bool
	UserAgent string
}

// ChromeSession implements Session on a dedicated headless Chrome via chromedp
type ChromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
	log         *logger.Logger
}

// NewChromeSession launches a browser and returns a ready session
func NewChromeSession(opts Options) (*ChromeSession, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	s := &ChromeSession{
		ctx:         ctx,
		cancel:      cancel,
		cancelAlloc: cancelAlloc,
		log:         logger.ForBrowser(),
	}

	// Start the browser before handing the session out
	if err := chromedp.Run(ctx); err != nil {
		s.Close()
		return nil, errors.NewNavigation("session", "failed to launch browser", err)
	}

	s.log.Info().Bool("headless", opts.Headless).Msg("Browser session started")
	return s, nil
}

// Load navigates to the URL and waits for the document body
func (s *ChromeSession) Load(url string) error {
	err := chromedp.Run(s.ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return errors.NewNavigation("load", fmt.Sprintf("failed to load %s", url), err)
	}
	s.log.Debug().Str("url", url).Msg("Page loaded")
	return nil
}

// CurrentURL returns the URL of the currently loaded page
func (s *ChromeSession) CurrentURL() (string, error) {
	var url string
	if err := chromedp.Run(s.ctx, chromedp.Location(&url)); err != nil {
		return "", errors.NewNavigation("location", "failed to read current URL", err)
	}
	return url, nil
}

// HTML returns the outer HTML of the current document
func (s *ChromeSession) HTML() (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", errors.NewNavigation("html", "failed to capture page HTML", err)
	}
	return html, nil
}

// WaitVisible waits until the selector matches a visible element
func (s *ChromeSession) WaitVisible(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.WaitVisible(selector, queryOption(selector))); err != nil {
		return errors.NewInteraction("wait", fmt.Sprintf("element not visible: %s", selector), err)
	}
	return nil
}

// ScrollIntoView scrolls the first matching element into the viewport
func (s *ChromeSession) ScrollIntoView(selector string) error {
	if err := chromedp.Run(s.ctx, chromedp.ScrollIntoView(selector, queryOption(selector))); err != nil {
		return errors.NewInteraction("scroll", fmt.Sprintf("failed to scroll to %s", selector), err)
	}
	return nil
}

// Click dispatches a native click on the first matching element
func (s *ChromeSession) Click(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Click(selector, queryOption(selector))); err != nil {
		return errors.NewInteraction("click", fmt.Sprintf("failed to click %s", selector), err)
	}
	return nil
}

const clickScript = `(function(sel) {
	var el;
	if (sel.charAt(0) === '/' || sel.charAt(0) === '(') {
		el = document.evaluate(sel, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	} else {
		el = document.querySelector(sel);
	}
	if (!el) {
		return false;
	}
	el.click();
	return true;
})(%q)`

// ClickJS clicks the first matching element from page JavaScript. This bypasses
// hit testing, so it still works when an overlay intercepts the native click.
func (s *ChromeSession) ClickJS(selector string) error {
	var clicked bool
	js := fmt.Sprintf(clickScript, selector)
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		return errors.NewInteraction("click_js", fmt.Sprintf("script click failed for %s", selector), err)
	}
	if !clicked {
		return errors.NewInteraction("click_js", fmt.Sprintf("no element matched %s", selector), nil)
	}
	return nil
}

// Evaluate runs a JavaScript expression in the page
func (s *ChromeSession) Evaluate(js string, out interface{}) error {
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(js, out)); err != nil {
		return errors.NewInteraction("evaluate", "script evaluation failed", err)
	}
	return nil
}

// Screenshot captures the viewport to a PNG file
func (s *ChromeSession) Screenshot(path string) error {
	var buf []byte
	if err := chromedp.Run(s.ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return errors.NewInteraction("screenshot", "failed to capture screenshot", err)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return errors.NewInteraction("screenshot", fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}

// Sleep pauses the calling goroutine
func (s *ChromeSession) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Close releases the browser and the allocator
func (s *ChromeSession) Close() error {
	s.cancel()
	s.cancelAlloc()
	return nil
}

// queryOption picks XPath search semantics for path-like selectors
func queryOption(selector string) chromedp.QueryOption {
	if strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(") {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}
