package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Defaults applied by New.
const (
	// DefaultImplicitWait bounds how long a single navigation may take.
	DefaultImplicitWait = 10 * time.Second

	// DefaultUserAgent is sent with every navigation.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	// DefaultMaxBodySize caps the bytes read from a response body.
	DefaultMaxBodySize = 5 * 1024 * 1024
)

var (
	// ErrClosed is returned by Navigate after Close.
	ErrClosed = errors.New("browser session is closed")

	// ErrNoPage is returned by Text when no page is loaded.
	ErrNoPage = errors.New("no page loaded")

	// ErrElementNotFound is returned by Text when the selector matches nothing.
	ErrElementNotFound = errors.New("element not found")
)

// StatusError is returned by Navigate for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d loading %s", e.StatusCode, e.URL)
}

// Session is an HTTP-backed page session.
type Session struct {
	client       *http.Client
	implicitWait time.Duration
	userAgent    string
	maxBodySize  int64

	mu     sync.Mutex
	doc    *goquery.Document
	closed bool
}

// Option configures a Session.
type Option func(*Session)

// WithImplicitWait sets the time allowed for each navigation.
// It is fixed for the lifetime of the session.
func WithImplicitWait(d time.Duration) Option {
	return func(s *Session) {
		s.implicitWait = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Session) {
		s.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum number of body bytes parsed per page.
func WithMaxBodySize(n int64) Option {
	return func(s *Session) {
		s.maxBodySize = n
	}
}

// New creates a Session using client for all requests.
// A nil client means http.DefaultClient.
func New(client *http.Client, opts ...Option) *Session {
	if client == nil {
		client = http.DefaultClient
	}

	s := &Session{
		client:       client,
		implicitWait: DefaultImplicitWait,
		userAgent:    DefaultUserAgent,
		maxBodySize:  DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Navigate loads url and makes it the current page.
// On failure the current page is cleared, so a later Text call cannot
// observe a stale document.
//
// Design decision: The implicit wait is applied as a deadline on ctx rather
// than relying on http.Client.Timeout. The injected client may come from
// the caller with any timeout, or none; the deadline makes the session's
// own limit hold regardless, and it also covers reading the body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.doc = nil

	if s.implicitWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.implicitWait)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("load %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, s.maxBodySize))
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return fmt.Errorf("parse %s: %w", url, err)
	}

	s.doc = doc
	return nil
}

// Text returns the whitespace-trimmed text of the first element matching
// selector on the current page.
func (s *Session) Text(selector string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return "", ErrNoPage
	}

	sel := s.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return strings.TrimSpace(sel.Text()), nil
}

// Close releases the session. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.doc = nil
	s.client.CloseIdleConnections()
	return nil
}
