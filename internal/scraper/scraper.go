package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/kino-draws/internal/logger"
)

const (
	ArchiveURL = "https://grkino.com/arhiva.php"
	UserAgent  = "kino-draws/1.0 (github.com/pfrederiksen/kino-draws)"
	Timeout    = 10 * time.Second

	// DefaultTableSelector matches the archive table by id or class
	DefaultTableSelector = "table[id*=arhiva], table[class*=arhiva]"
	// DefaultMarker is the line that starts a draw block on the text page
	DefaultMarker = "Extragere"

	maxBodyBytes = 10 << 20
)

// Scraper handles fetching and parsing the Keno draw archive
type Scraper struct {
	client        *http.Client
	url           string
	tableSelector string
	marker        string
	log           *logger.Logger
}

// Option configures a Scraper
type Option func(*Scraper)

// WithURL sets the page to fetch
func WithURL(url string) Option {
	return func(s *Scraper) { s.url = url }
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithTableSelector sets the CSS selector used to find the archive table
func WithTableSelector(selector string) Option {
	return func(s *Scraper) {
		if selector != "" {
			s.tableSelector = selector
		}
	}
}

// WithMarker sets the marker line used by ParseText
func WithMarker(marker string) Option {
	return func(s *Scraper) {
		if marker != "" {
			s.marker = marker
		}
	}
}

// WithLogger sets the logger for diagnostics
func WithLogger(log *logger.Logger) Option {
	return func(s *Scraper) { s.log = log }
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		url:           ArchiveURL,
		tableSelector: DefaultTableSelector,
		marker:        DefaultMarker,
		log:           logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the page the scraper fetches
func (s *Scraper) URL() string {
	return s.url
}

// Fetch performs one GET of the archive page and returns the body.
// Network failures and non-2xx statuses are returned as *TransportError.
func (s *Scraper) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &TransportError{URL: s.url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: s.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: s.url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{URL: s.url, Err: fmt.Errorf("reading body: %w", err)}
	}

	s.log.Debug("Fetched page", logger.Fields{
		"url":    s.url,
		"status": resp.StatusCode,
		"bytes":  len(body),
	})
	return body, nil
}

func newDocument(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// normalizeSpace collapses runs of whitespace into single spaces
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
