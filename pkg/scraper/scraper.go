package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"github.com/xhad/topics/internal/models"
	"github.com/xhad/topics/internal/retry"
	"golang.org/x/time/rate"
)

type ScraperConfig struct {
	BaseURL           string
	MaxDepth          int     // pages followed past the listing page; 0 reads the listing only
	RateLimit         float64 // requests per second
	IgnorePatterns    []string
	AllowedExtensions []string
	Timeout           time.Duration

	// ItemSelector matches one news item. Headline, description and link are
	// looked up inside each item so they always pair 1:1.
	ItemSelector        string
	HeadlineSelector    string
	DescriptionSelector string
	LinkSelector        string
	// FollowSelector matches pagination links. Empty disables following.
	FollowSelector string

	MaxDocuments  int // 0 means unlimited
	RetryAttempts int
	RetryDelay    time.Duration
	UserAgent     string

	OnProgress func(url string)
}

type Scraper struct {
	config   ScraperConfig
	client   *http.Client
	visited  map[string]bool
	limiter  *rate.Limiter
	baseHost string
}

func NewWithConfig(config ScraperConfig) (*Scraper, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxDepth < 0 {
		return nil, &models.ConfigurationError{Field: "source.max_depth", Message: "must not be negative"}
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}
	if config.ItemSelector == "" {
		config.ItemSelector = "article"
	}
	if config.HeadlineSelector == "" {
		config.HeadlineSelector = "h1, h2, h3"
	}
	if config.DescriptionSelector == "" {
		config.DescriptionSelector = "p"
	}
	if config.LinkSelector == "" {
		config.LinkSelector = "a[href]"
	}
	if config.RetryAttempts == 0 {
		config.RetryAttempts = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "topics/1.0 (+https://github.com/xhad/topics)"
	}

	parsedURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Scraper{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		visited:  make(map[string]bool),
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		baseHost: parsedURL.Host,
	}, nil
}

func New(baseURL string) *Scraper {
	s, _ := NewWithConfig(ScraperConfig{
		BaseURL: baseURL,
	})
	return s
}

func (s *Scraper) shouldProcessURL(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	// Check if URL is from the same host
	if parsedURL.Host != s.baseHost {
		return false
	}

	// Check extensions
	ext := strings.ToLower(parsedURL.Path)
	validExt := false
	for _, allowedExt := range s.config.AllowedExtensions {
		if strings.HasSuffix(ext, allowedExt) {
			validExt = true
			break
		}
	}
	if !validExt {
		return false
	}

	// Check ignore patterns
	for _, pattern := range s.config.IgnorePatterns {
		if strings.Contains(urlStr, pattern) {
			return false
		}
	}

	return true
}

var noisePatterns = []string{
	"Cookie Policy",
	"Accept Cookies",
	"Privacy Policy",
	"Terms of Service",
	"Read more",
}

func cleanContent(content string) string {
	for _, pattern := range noisePatterns {
		content = strings.ReplaceAll(content, pattern, "")
	}
	return strings.Join(strings.Fields(content), " ")
}

// Fetch reads the listing page at urlStr and the pages reachable through
// FollowSelector, returning one document per news item.
func (s *Scraper) Fetch(ctx context.Context, urlStr string) ([]models.Document, error) {
	s.visited = make(map[string]bool)
	if !s.shouldProcessURL(urlStr) {
		return nil, fmt.Errorf("url %s is outside %s or filtered", urlStr, s.config.BaseURL)
	}

	var documents []models.Document
	if err := s.scrapeRecursive(ctx, urlStr, 0, &documents); err != nil {
		return documents, err
	}
	if len(documents) == 0 {
		log.Warn().Str("url", urlStr).Str("selector", s.config.ItemSelector).Msg("No news items matched")
	}
	return documents, nil
}

func (s *Scraper) full(documents []models.Document) bool {
	return s.config.MaxDocuments > 0 && len(documents) >= s.config.MaxDocuments
}

func (s *Scraper) scrapeRecursive(ctx context.Context, urlStr string, depth int, documents *[]models.Document) error {
	if depth > s.config.MaxDepth || s.visited[urlStr] || s.full(*documents) {
		return nil
	}

	if !s.shouldProcessURL(urlStr) {
		return nil
	}

	s.visited[urlStr] = true
	if s.config.OnProgress != nil {
		s.config.OnProgress(urlStr)
	}

	doc, header, err := s.fetchPage(ctx, urlStr)
	if err != nil {
		return err
	}

	pageURL, err := url.Parse(urlStr)
	if err != nil {
		return err
	}

	found := 0
	doc.Find(s.config.ItemSelector).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if s.full(*documents) {
			return false
		}

		headline := cleanContent(item.Find(s.config.HeadlineSelector).First().Text())
		if headline == "" {
			return true
		}
		description := cleanContent(item.Find(s.config.DescriptionSelector).First().Text())

		link := urlStr
		if href, ok := item.Find(s.config.LinkSelector).First().Attr("href"); ok {
			if ref, err := url.Parse(href); err == nil {
				link = pageURL.ResolveReference(ref).String()
			}
		}

		*documents = append(*documents, models.Document{
			URL:     link,
			Title:   headline,
			Content: description,
			Metadata: map[string]interface{}{
				"depth":        depth,
				"page":         urlStr,
				"time":         time.Now(),
				"contentType":  header.Get("Content-Type"),
				"lastModified": header.Get("Last-Modified"),
			},
		})
		found++
		return true
	})
	log.Debug().Str("url", urlStr).Int("depth", depth).Int("items", found).Msg("Scraped page")

	if s.config.FollowSelector == "" || depth >= s.config.MaxDepth {
		return nil
	}

	// Find and follow pagination links
	doc.Find(s.config.FollowSelector).Each(func(_ int, selection *goquery.Selection) {
		href, exists := selection.Attr("href")
		if !exists {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			log.Warn().Err(err).Str("href", href).Msg("Error parsing URL")
			return
		}

		next := pageURL.ResolveReference(ref)
		next.Fragment = ""
		if err := s.scrapeRecursive(ctx, next.String(), depth+1, documents); err != nil {
			log.Warn().Err(err).Str("url", next.String()).Msg("Error scraping URL")
		}
	})

	return nil
}

func (s *Scraper) fetchPage(ctx context.Context, urlStr string) (*goquery.Document, http.Header, error) {
	var (
		doc    *goquery.Document
		header http.Header
	)

	cfg := retry.RetryConfig{
		MaxAttempts: s.config.RetryAttempts,
		Delay:       s.config.RetryDelay,
		Backoff:     true,
	}
	err := retry.WithRetry(ctx, cfg, func() error {
		// Apply rate limiting
		if err := s.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("User-Agent", s.config.UserAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, urlStr)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return err
		}
		header = resp.Header
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return doc, header, nil
}
