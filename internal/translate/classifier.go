package translate

import (
	"context"
	"errors"
	"strings"
)

// Page is a rendered-page collaborator, typically a browser session.
// Navigate replaces the current document; Text reads the rendered text of
// the first element matching a CSS selector in the current document.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Text(selector string) (string, error)
}

// Classifier decides whether text is English using a translation Page.
type Classifier struct {
	page     Page
	encoder  *Encoder
	selector string
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithEncoder sets the encoder used to build query URLs.
func WithEncoder(e *Encoder) ClassifierOption {
	return func(c *Classifier) {
		c.encoder = e
	}
}

// WithSelector overrides the CSS selector of the label element.
func WithSelector(selector string) ClassifierOption {
	return func(c *Classifier) {
		c.selector = selector
	}
}

// NewClassifier creates a Classifier that drives page.
func NewClassifier(page Page, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		page:     page,
		selector: DefaultSelector,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.encoder == nil {
		c.encoder = NewEncoder(DefaultTable())
	}
	return c
}

// IsEnglish loads the translation query for text and reports whether the
// first token of the detected-language label is exactly "ENGLISH".
//
// A page that fails to load, lacks the label element, or renders an empty
// label yields a *LookupError matching ErrLookupFailure. Context
// cancellation is returned as is.
func (c *Classifier) IsEnglish(ctx context.Context, text string) (bool, error) {
	url := c.encoder.EncodeURL(text)

	if err := c.page.Navigate(ctx, url); err != nil {
		if errors.Is(err, context.Canceled) {
			return false, err
		}
		return false, &LookupError{Text: text, URL: url, Err: err}
	}

	content, err := c.page.Text(c.selector)
	if err != nil {
		return false, &LookupError{Text: text, URL: url, Err: err}
	}

	fields := strings.Fields(content)
	if len(fields) == 0 {
		return false, &LookupError{Text: text, URL: url}
	}

	return fields[0] == englishLabel, nil
}
