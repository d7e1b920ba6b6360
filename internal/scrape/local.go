package scrape

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

const (
	localMaxBody  = 1 << 20
	localMinBody  = 100
	browserUA     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	localName     = "local_http"
	blockElements = "script, style, noscript, nav, footer, header, svg, iframe"
)

// LocalScraper fetches HTML directly and extracts its visible text. It costs
// nothing, so it runs before the paid scrapers and falls through when blocked.
type LocalScraper struct {
	client *http.Client
}

// NewLocalScraper creates a LocalScraper with sensible timeouts.
func NewLocalScraper() *LocalScraper {
	return &LocalScraper{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// NewLocalScraperWithClient creates a LocalScraper using hc.
func NewLocalScraperWithClient(hc *http.Client) *LocalScraper {
	return &LocalScraper{client: hc}
}

// Name implements Scraper.
func (l *LocalScraper) Name() string { return localName }

// Supports implements Scraper.
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches url, rejects blocked pages, and returns the page text.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, localMaxBody))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	if blocked, kind := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("local_http: blocked (%s)", kind)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}
	if len(body) < localMinBody {
		return nil, eris.New("local_http: empty page")
	}

	title, text, err := ExtractText(body)
	if err != nil {
		return nil, err
	}
	return &Result{
		Page: Page{
			URL:        targetURL,
			Title:      title,
			Text:       text,
			StatusCode: resp.StatusCode,
		},
		Source: localName,
	}, nil
}

// ExtractText returns the title and visible text of an HTML document, one
// block element per line.
func ExtractText(html []byte) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", "", eris.Wrap(err, "local_http: parse html")
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(blockElements).Remove()

	var lines []string
	doc.Find("body").Find("h1, h2, h3, h4, p, li, blockquote, td").Each(func(_ int, s *goquery.Selection) {
		// Nested matches are emitted by their innermost block.
		if s.Find("p, li, blockquote, td").Length() > 0 {
			return
		}
		if line := collapseSpace(s.Text()); line != "" {
			lines = append(lines, line)
		}
	})
	if len(lines) == 0 {
		if line := collapseSpace(doc.Find("body").Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return title, strings.Join(lines, "\n"), nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
