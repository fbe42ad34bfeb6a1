// Package scraper fetches best-effort plain text for a page, either through
// a reader proxy that returns text or by converting the HTML itself.
package scraper

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/compscope/internal/domain"
	"github.com/kailas-cloud/compscope/internal/metrics"
)

// DefaultUserAgent is sent on direct page fetches.
const DefaultUserAgent = "Mozilla/5.0 (compatible; compscope/1.0)"

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 4 << 20

// Config holds fetcher settings.
type Config struct {
	ReaderBaseURL  string // e.g. "https://r.jina.ai/"; empty = fetch pages directly
	ReaderAPIKey   string
	Timeout        time.Duration
	MaxChars       int
	UserAgent      string
	RequestsPerSec float64 // 0 = unlimited
	Logger         *zap.Logger
	HTTPClient     *http.Client // optional, for tests
}

// Fetcher retrieves page text. It never returns errors: any failure yields ("", false).
type Fetcher struct {
	readerBase string
	readerKey  string
	maxChars   int
	userAgent  string
	client     *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = domain.MaxEmbeddingChars
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), max(1, int(cfg.RequestsPerSec)))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		readerBase: cfg.ReaderBaseURL,
		readerKey:  cfg.ReaderAPIKey,
		maxChars:   maxChars,
		userAgent:  ua,
		client:     client,
		limiter:    limiter,
		logger:     logger,
	}
}

// Fetch returns the text of target, capped at MaxChars. ok is false when the
// page could not be retrieved or has no text.
func (f *Fetcher) Fetch(ctx context.Context, target string) (string, bool) {
	pageURL := withScheme(target)
	if pageURL == "" {
		metrics.FetchTotal.WithLabelValues("error").Inc()
		return "", false
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			metrics.FetchTotal.WithLabelValues("error").Inc()
			return "", false
		}
	}

	var (
		text string
		err  error
	)
	if f.readerBase != "" {
		text, err = f.viaReader(ctx, pageURL)
	} else {
		text, err = f.direct(ctx, pageURL)
	}
	if err != nil {
		f.logger.Debug("Fetch failed", zap.String("url", pageURL), zap.Error(err))
		metrics.FetchTotal.WithLabelValues("error").Inc()
		return "", false
	}

	text = domain.TruncateText(strings.TrimSpace(text), f.maxChars)
	if text == "" {
		metrics.FetchTotal.WithLabelValues("empty").Inc()
		return "", false
	}

	metrics.FetchTotal.WithLabelValues("ok").Inc()
	return text, true
}

func (f *Fetcher) viaReader(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.readerBase+pageURL, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain")
	if f.readerKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.readerKey)
	}

	body, _, err := f.get(req)
	if err != nil {
		return "", err
	}
	return collapseWhitespace(string(body)), nil
}

func (f *Fetcher) direct(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9")

	body, contentType, err := f.get(req)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(contentType, "text/plain") {
		return collapseWhitespace(string(body)), nil
	}
	return htmlToText(string(body))
}

func (f *Fetcher) get(req *http.Request) ([]byte, string, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

type statusError struct{ code int }

func (e *statusError) Error() string { return "unexpected status " + http.StatusText(e.code) }

// htmlToText drops non-content elements and returns the collapsed body text.
func htmlToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, svg, iframe, nav, footer, header, form").Remove()

	var parts []string
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		parts = append(parts, title)
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok && strings.TrimSpace(desc) != "" {
		parts = append(parts, strings.TrimSpace(desc))
	}
	parts = append(parts, doc.Find("body").Text())

	return collapseWhitespace(strings.Join(parts, " ")), nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// withScheme inserts https:// when target has no scheme.
func withScheme(target string) string {
	t := strings.TrimSpace(target)
	if t == "" {
		return ""
	}
	if strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://") {
		return t
	}
	return "https://" + strings.TrimPrefix(t, "//")
}
