package scrape

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/company-finder/internal/model"
)

const (
	localUserAgent   = "Mozilla/5.0 (compatible; CompanyFinder/1.0)"
	maxLocalBodySize = 2 << 20
	minLocalBodySize = 100
)

// LocalScraper fetches HTML directly over net/http. It is free but gives up
// on anti-bot pages so the chain can fall through to Jina or Firecrawl.
type LocalScraper struct {
	client *http.Client
}

// NewLocalScraper creates a LocalScraper. A nil client selects one with a
// 15s timeout.
func NewLocalScraper(client *http.Client) *LocalScraper {
	if client == nil {
		client = &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		}
	}
	return &LocalScraper{client: client}
}

func (l *LocalScraper) Name() string           { return "local_http" }
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches a URL, rejects blocked and non-HTML responses, and decodes
// the body to UTF-8.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", localUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLocalBodySize))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	if bt := DetectBlock(resp, body); bt != BlockNone {
		return nil, eris.Errorf("local_http: blocked (%s)", bt)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}

	ctype := resp.Header.Get("Content-Type")
	mediaType, params, _ := mime.ParseMediaType(ctype)
	if ctype != "" && mediaType != "text/html" && mediaType != "application/xhtml+xml" {
		return nil, eris.Errorf("local_http: unsupported content type %q", mediaType)
	}
	if len(bytes.TrimSpace(body)) < minLocalBodySize {
		return nil, eris.New("local_http: empty page")
	}

	html, err := decodeHTML(body, params["charset"])
	if err != nil {
		return nil, eris.Wrap(err, "local_http: decode body")
	}

	finalURL := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Result{
		Page: model.Page{
			URL:        finalURL,
			Title:      pageTitle(html),
			HTML:       html,
			StatusCode: resp.StatusCode,
			FetchedAt:  time.Now().UTC(),
		},
		Source: "local_http",
	}, nil
}

var metaCharsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset=["']?\s*([a-z0-9_\-:.]+)`)

// decodeHTML converts body to UTF-8 using the header charset, else a <meta>
// charset declaration in the first 1024 bytes. Unknown labels are an error.
func decodeHTML(body []byte, headerCharset string) (string, error) {
	label := strings.TrimSpace(headerCharset)
	if label == "" {
		head := body
		if len(head) > 1024 {
			head = head[:1024]
		}
		if m := metaCharsetRe.FindSubmatch(head); m != nil {
			label = string(m[1])
		}
	}
	if label == "" {
		return string(body), nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", eris.Wrapf(err, "unknown charset %q", label)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return string(body), nil
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func pageTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
