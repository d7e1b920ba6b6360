package scrape

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pulse/internal/resilience"
)

const redditCommentLimit = "100"

// RedditScraper reads a Reddit thread through its public JSON listing.
type RedditScraper struct {
	client    *http.Client
	retry     resilience.Policy
	userAgent string
}

// NewRedditScraper creates a RedditScraper. A nil hc uses a 20s client.
func NewRedditScraper(hc *http.Client) *RedditScraper {
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	return &RedditScraper{
		client:    hc,
		retry:     resilience.DefaultPolicy().Logged("reddit", "thread"),
		userAgent: browserUA,
	}
}

// WithUserAgent overrides the browser User-Agent sent to Reddit. Reddit
// blocks most non-browser agents, so an empty ua keeps the default.
func (r *RedditScraper) WithUserAgent(ua string) *RedditScraper {
	if ua != "" {
		r.userAgent = ua
	}
	return r
}

// Name implements Scraper.
func (r *RedditScraper) Name() string { return SourceReddit }

// Supports reports whether url is a Reddit page.
func (r *RedditScraper) Supports(url string) bool {
	return DetectSource(url) == SourceReddit
}

// Scrape fetches the thread's post and top-level comments as plain text.
func (r *RedditScraper) Scrape(ctx context.Context, threadURL string) (*Result, error) {
	jsonURL, err := RedditJSONURL(threadURL)
	if err != nil {
		return nil, err
	}

	body, err := resilience.DoVal(ctx, r.retry, func(ctx context.Context) ([]byte, error) {
		return r.fetch(ctx, jsonURL)
	})
	if err != nil {
		return nil, eris.Wrap(err, "reddit: fetch thread")
	}

	title, text, err := parseRedditThread(body)
	if err != nil {
		return nil, err
	}
	return &Result{
		Page:   Page{URL: threadURL, Title: title, Text: text, StatusCode: http.StatusOK},
		Source: r.Name(),
	}, nil
}

func (r *RedditScraper) fetch(ctx context.Context, jsonURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jsonURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "reddit: create request")
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "reddit: execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "reddit: read body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resilience.HTTPError("reddit", resp.StatusCode, string(body))
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") || strings.HasPrefix(strings.TrimSpace(string(body)), "<") {
		return nil, eris.New("reddit: received HTML instead of JSON (request blocked)")
	}
	return body, nil
}

// RedditJSONURL converts a thread URL into its JSON listing URL.
func RedditJSONURL(threadURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(threadURL))
	if err != nil || u.Host == "" {
		return "", eris.Errorf("reddit: invalid url %q", threadURL)
	}
	path := strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(path, ".json") {
		path += ".json"
	}
	u.Path = path
	u.RawQuery = url.Values{"limit": {redditCommentLimit}}.Encode()
	u.Fragment = ""
	return u.String(), nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				Title    string `json:"title"`
				Selftext string `json:"selftext"`
				Body     string `json:"body"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// parseRedditThread formats the [post, comments] listing pair.
func parseRedditThread(body []byte) (title, text string, err error) {
	var listings []redditListing
	if err := json.Unmarshal(body, &listings); err != nil {
		return "", "", eris.Wrap(err, "reddit: decode thread")
	}
	if len(listings) == 0 || len(listings[0].Data.Children) == 0 {
		return "", "", eris.New("reddit: thread has no post")
	}

	post := listings[0].Data.Children[0].Data
	var comments []string
	if len(listings) > 1 {
		for _, c := range listings[1].Data.Children {
			if c.Kind != "t1" {
				continue
			}
			if b := strings.TrimSpace(c.Data.Body); b != "" {
				comments = append(comments, b)
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("POST: ")
	sb.WriteString(post.Title)
	sb.WriteString("\n\n")
	sb.WriteString(post.Selftext)
	sb.WriteString("\n\nCOMMENTS:\n")
	sb.WriteString(strings.Join(comments, "\n\n"))
	return post.Title, sb.String(), nil
}
