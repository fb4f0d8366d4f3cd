package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"MarketRadar/internal/domain"
	"MarketRadar/internal/ports"
)

const papersMaxItems = 50

// PapersAdapter scrapes an HTML-only provider (the daily papers page) that
// exposes no feed. The page carries no publication timestamps, so records are
// stamped with ingestion time.
type PapersAdapter struct {
	client   *http.Client
	siteName string
	pageURL  string
	baseURL  string
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.SourceAdapter = (*PapersAdapter)(nil)

// NewPapersAdapter wires an HTTP client and the page to scrape. Relative
// links are resolved against the page's origin.
func NewPapersAdapter(client *http.Client, siteName, pageURL string, logger *slog.Logger) *PapersAdapter {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &PapersAdapter{
		client:   client,
		siteName: siteName,
		pageURL:  pageURL,
		baseURL:  pageOrigin(pageURL),
		logger:   logger,
		now:      time.Now,
	}
}

// Name identifies the provider.
func (p *PapersAdapter) Name() string { return p.siteName }

// Fetch downloads and scrapes the page.
func (p *PapersAdapter) Fetch(ctx context.Context) ([]domain.Record, error) {
	doc, err := p.fetchDocument(ctx)
	if err != nil {
		return nil, err
	}
	return p.extractPapers(doc), nil
}

func (p *PapersAdapter) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "MarketRadar/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// extractPapers walks the article blocks, skipping any without a heading.
func (p *PapersAdapter) extractPapers(doc *goquery.Document) []domain.Record {
	now := p.now()
	var records []domain.Record

	doc.Find("article").EachWithBreak(func(i int, article *goquery.Selection) bool {
		if i >= papersMaxItems {
			return false
		}

		title := strings.TrimSpace(article.Find("h3").First().Text())
		if title == "" {
			return true
		}

		link, _ := article.Find("a").First().Attr("href")
		if link != "" && !strings.HasPrefix(link, "http") {
			link = p.baseURL + link
		}

		summary := strings.TrimSpace(article.Find("p").First().Text())

		records = append(records, domain.Record{
			Source:      p.siteName,
			Title:       title,
			Body:        summary,
			Link:        link,
			Category:    domain.CategoryResearch,
			PublishedAt: now,
		})
		return true
	})

	return records
}

// pageOrigin reduces a page URL to its scheme://host prefix.
func pageOrigin(pageURL string) string {
	trimmed := pageURL
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(trimmed, scheme) {
			host, _, _ := strings.Cut(trimmed[len(scheme):], "/")
			return scheme + host
		}
	}
	return ""
}
