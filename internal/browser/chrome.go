package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// textScript reads the rendered text of the first element matching a CSS
// selector. The element being absent is reported in the result rather than
// as a script error.
const textScript = `(() => {
	const el = document.querySelector(%s);
	return el === null ? {found: false, text: ""} : {found: true, text: el.innerText};
})()`

// Chrome is a page session backed by a headless Chrome instance driven over
// the DevTools protocol. Unlike Session it runs the page's scripts, so it
// can read labels that are inserted client-side.
//
// One browser process is started per Chrome and all navigations share a
// single tab. Release it with Close.
type Chrome struct {
	implicitWait time.Duration
	userAgent    string
	proxyServer  string
	execPath     string
	waitSelector string

	allocCancel context.CancelFunc
	tabCtx      context.Context //nolint:containedctx // chromedp binds the tab to a context
	tabCancel   context.CancelFunc

	mu      sync.Mutex
	started bool
	loaded  bool
	closed  bool
}

// ChromeOption configures a Chrome.
type ChromeOption func(*Chrome)

// WithChromeImplicitWait sets the time allowed for each navigation,
// including the wait for the selector given to WithWaitSelector.
func WithChromeImplicitWait(d time.Duration) ChromeOption {
	return func(c *Chrome) {
		c.implicitWait = d
	}
}

// WithChromeUserAgent sets the browser's User-Agent.
func WithChromeUserAgent(ua string) ChromeOption {
	return func(c *Chrome) {
		c.userAgent = ua
	}
}

// WithProxyServer routes the browser through proxy, for example
// "socks5://127.0.0.1:9050". Chrome resolves host names through a SOCKS5
// proxy, so no lookup leaks outside of it.
func WithProxyServer(proxy string) ChromeOption {
	return func(c *Chrome) {
		c.proxyServer = proxy
	}
}

// WithExecPath sets the Chrome or Chromium executable. By default chromedp
// searches the usual install locations and PATH.
func WithExecPath(path string) ChromeOption {
	return func(c *Chrome) {
		c.execPath = path
	}
}

// WithWaitSelector makes Navigate wait until an element matching selector
// is visible before it returns.
func WithWaitSelector(selector string) ChromeOption {
	return func(c *Chrome) {
		c.waitSelector = selector
	}
}

// NewChrome prepares a headless Chrome session. The browser process is not
// launched until Start or the first Navigate.
func NewChrome(opts ...ChromeOption) *Chrome {
	c := &Chrome{
		implicitWait: DefaultImplicitWait,
		userAgent:    DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	allocOpts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+4)
	allocOpts = append(allocOpts, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.UserAgent(c.userAgent))
	if c.proxyServer != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(c.proxyServer))
	}
	if c.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.execPath))
	}
	if os.Geteuid() == 0 {
		// Chrome refuses to start as root with its sandbox enabled.
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	c.allocCancel = allocCancel
	c.tabCtx = tabCtx
	c.tabCancel = tabCancel
	return c
}

// Start launches the browser. Calling it is optional, but it surfaces a
// missing or broken Chrome install before the first lookup does.
func (c *Chrome) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start()
}

// start must be called with c.mu held.
//
// Design decision: The browser is launched by a Run on the bare tab context,
// never on a derived one. chromedp ties the browser's lifetime to the context
// of the first Run, so starting it under a navigation deadline would kill the
// whole browser when that deadline passed.
func (c *Chrome) start() error {
	if c.closed {
		return ErrClosed
	}
	if c.started {
		return nil
	}
	if err := chromedp.Run(c.tabCtx); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	c.started = true
	return nil
}

// Navigate loads url in the tab and, when a wait selector is set, waits for
// it to become visible. Both steps share one implicit-wait deadline, and
// the wait stops early when ctx is done.
// On failure the current page is cleared, so a later Text call returns
// ErrNoPage.
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.start(); err != nil {
		return err
	}
	c.loaded = false

	runCtx, cancel := c.actionContext()
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	actions := []chromedp.Action{chromedp.Navigate(url)}
	if c.waitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(c.waitSelector, chromedp.ByQuery))
	}
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("load %s: %w", url, ctxErr)
		}
		return fmt.Errorf("load %s: %w", url, err)
	}

	c.loaded = true
	return nil
}

// Text returns the whitespace-trimmed rendered text of the first element
// matching selector in the current page. It does not wait for the element.
func (c *Chrome) Text(selector string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrClosed
	}
	if !c.loaded {
		return "", ErrNoPage
	}

	quoted, err := json.Marshal(selector)
	if err != nil {
		return "", fmt.Errorf("quote selector: %w", err)
	}

	runCtx, cancel := c.actionContext()
	defer cancel()

	var result struct {
		Found bool   `json:"found"`
		Text  string `json:"text"`
	}
	if err := chromedp.Run(runCtx, chromedp.Evaluate(fmt.Sprintf(textScript, quoted), &result)); err != nil {
		return "", fmt.Errorf("read %s: %w", selector, err)
	}
	if !result.Found {
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return strings.TrimSpace(result.Text), nil
}

// Close shuts the browser down. It is safe to call more than once.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.loaded = false

	var err error
	if c.started {
		err = chromedp.Cancel(c.tabCtx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	}
	c.tabCancel()
	c.allocCancel()
	return err
}

// actionContext returns a child of the tab context bounded by the implicit
// wait. Cancelling it aborts the running action but keeps the tab open.
func (c *Chrome) actionContext() (context.Context, context.CancelFunc) {
	if c.implicitWait > 0 {
		return context.WithTimeout(c.tabCtx, c.implicitWait)
	}
	return context.WithCancel(c.tabCtx)
}
