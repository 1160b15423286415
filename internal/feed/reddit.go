package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/nao1215/couponscout/internal/model"
)

// Defaults for the Reddit source.
const (
	// DefaultBaseURL is the Reddit web host.
	DefaultBaseURL = "https://www.reddit.com"

	// DefaultSubreddit is the coupon forum scanned by default.
	DefaultSubreddit = "FreeUdemyCoupons"

	// DefaultLimit is the number of newest posts requested.
	DefaultLimit = 10

	// DefaultUserAgent identifies the client to Reddit, which rejects
	// generic agents.
	DefaultUserAgent = "couponscout/1.0 (+https://github.com/nao1215/couponscout)"

	// maxFeedSize caps the listing body.
	maxFeedSize = 5 * 1024 * 1024
)

// linkLabel is the anchor text Reddit uses for a post's outbound link.
const linkLabel = "[link]"

// Source produces posts sorted newest first.
type Source interface {
	Posts(ctx context.Context) ([]model.Post, error)
}

// Reddit reads the "new" listing of one subreddit.
type Reddit struct {
	client    *http.Client
	baseURL   string
	subreddit string
	limit     int
	userAgent string
	logger    *slog.Logger
	parser    *gofeed.Parser
}

// RedditOption configures a Reddit source.
type RedditOption func(*Reddit)

// WithBaseURL overrides the Reddit host, mainly for tests.
func WithBaseURL(u string) RedditOption {
	return func(r *Reddit) {
		r.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithSubreddit sets the subreddit name, with or without the "r/" prefix.
func WithSubreddit(name string) RedditOption {
	return func(r *Reddit) {
		r.subreddit = strings.TrimPrefix(strings.TrimPrefix(name, "/"), "r/")
	}
}

// WithLimit sets how many posts are requested.
func WithLimit(n int) RedditOption {
	return func(r *Reddit) {
		r.limit = n
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) RedditOption {
	return func(r *Reddit) {
		r.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RedditOption {
	return func(r *Reddit) {
		r.logger = logger
	}
}

// NewReddit creates a Reddit source using client.
// A nil client means http.DefaultClient.
func NewReddit(client *http.Client, opts ...RedditOption) *Reddit {
	if client == nil {
		client = http.DefaultClient
	}

	r := &Reddit{
		client:    client,
		baseURL:   DefaultBaseURL,
		subreddit: DefaultSubreddit,
		limit:     DefaultLimit,
		userAgent: DefaultUserAgent,
		logger:    slog.Default(),
		parser:    gofeed.NewParser(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subreddit returns the subreddit name.
func (r *Reddit) Subreddit() string {
	return r.subreddit
}

// ListingURL returns the URL of the Atom listing.
func (r *Reddit) ListingURL() string {
	q := url.Values{}
	if r.limit > 0 {
		q.Set("limit", strconv.Itoa(r.limit))
	}

	u := fmt.Sprintf("%s/r/%s/new/.rss", r.baseURL, url.PathEscape(r.subreddit))
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// Posts fetches the listing and returns its posts newest first.
// Entries without a timestamp are skipped.
func (r *Reddit) Posts(ctx context.Context) ([]model.Post, error) {
	listing := r.ListingURL()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listing, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch r/%s: %w", r.subreddit, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch r/%s: unexpected status %d", r.subreddit, resp.StatusCode)
	}

	parsed, err := r.parser.Parse(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("parse r/%s feed: %w", r.subreddit, err)
	}

	posts := make([]model.Post, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		post, ok := toPost(item)
		if !ok {
			r.logger.Debug("skipping feed entry without timestamp", "title", item.Title)
			continue
		}
		posts = append(posts, post)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	r.logger.Info("fetched feed",
		"subreddit", r.subreddit,
		"entries", len(parsed.Items),
		"posts", len(posts),
	)

	return posts, nil
}

// toPost converts a feed entry. It reports false when the entry has no
// usable timestamp.
func toPost(item *gofeed.Item) (model.Post, bool) {
	created := item.PublishedParsed
	if created == nil {
		created = item.UpdatedParsed
	}
	if created == nil {
		return model.Post{}, false
	}

	link := outboundLink(item.Content)
	if link == "" {
		link = outboundLink(item.Description)
	}
	if link == "" {
		link = item.Link
	}

	return model.Post{
		Title:     strings.TrimSpace(item.Title),
		CreatedAt: created.UTC(),
		URL:       link,
		Permalink: item.Link,
	}, true
}

// outboundLink returns the href of the "[link]" anchor in an entry body.
func outboundLink(content string) string {
	if content == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}

	var href string
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != linkLabel {
			return true
		}
		href, _ = s.Attr("href")
		return false
	})
	return strings.TrimSpace(href)
}
