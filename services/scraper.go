package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wikiquiz/utils"

	"github.com/PuerkitoBio/goquery"
)

// Wikipedia serves stripped-down pages to unidentified clients, so the
// fetcher sends a regular browser User-Agent.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ScrapeResult is the structured extraction of one Wikipedia page.
type ScrapeResult struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Sections    []string `json:"sections"`
	CleanedText string   `json:"cleaned_text"`
	RawHTML     string   `json:"raw_html,omitempty"`
}

// PageScraper fetches a page and extracts its text content.
type PageScraper interface {
	Scrape(ctx context.Context, pageURL string) (*ScrapeResult, error)
}

// Scraper fetches Wikipedia pages over HTTP and extracts title, summary,
// section headings and cleaned body text from the returned markup.
type Scraper struct {
	client *http.Client
}

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: timeout},
	}
}

// Scrape performs a single GET of pageURL and parses the result. The URL is
// expected to have passed ValidateWikipediaURL already.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (*ScrapeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: fetching %s", ErrTimeout, pageURL)
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: Wikipedia page returned status %d", ErrNotFound, resp.StatusCode)
	}

	// The raw document is stored as fetched; extraction parses a copy.
	rawHTML, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: fetching %s", ErrTimeout, pageURL)
		}
		return nil, fmt.Errorf("%w: reading page body: %v", ErrFetchFailed, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing page markup: %v", ErrFetchFailed, err)
	}

	result := extract(doc)
	result.RawHTML = string(rawHTML)
	return result, nil
}

func extract(doc *goquery.Document) *ScrapeResult {
	title := "No title found"
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		if text := strings.TrimSpace(h1.Text()); text != "" {
			title = text
		}
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	summary := ""
	if len(paragraphs) > 0 {
		summary = utils.CleanWikipediaText(paragraphs[0], utils.SummaryMaxLength)
	}

	sections := []string{}
	doc.Find("h2").Each(func(_ int, h2 *goquery.Selection) {
		heading := strings.TrimSpace(strings.ReplaceAll(h2.Text(), "[edit]", ""))
		if heading != "" {
			sections = append(sections, heading)
		}
	})

	cleanedText := utils.CleanWikipediaText(strings.Join(paragraphs, "\n"), utils.DefaultMaxTextLength)

	return &ScrapeResult{
		Title:       title,
		Summary:     summary,
		Sections:    sections,
		CleanedText: cleanedText,
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
