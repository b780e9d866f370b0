// Package feed reads RSS and Atom feeds into documents.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"
	"github.com/xhad/topics/internal/models"
	"github.com/xhad/topics/internal/retry"
)

type ReaderConfig struct {
	Timeout       time.Duration
	MaxDocuments  int // 0 means unlimited
	RetryAttempts int
	RetryDelay    time.Duration
	UserAgent     string
}

type Reader struct {
	config ReaderConfig
	parser *gofeed.Parser
}

func NewReader(config ReaderConfig) *Reader {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
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

	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: config.Timeout}
	parser.UserAgent = config.UserAgent

	return &Reader{config: config, parser: parser}
}

// Fetch downloads the feed at url and returns one document per item that has a title.
func (r *Reader) Fetch(ctx context.Context, url string) ([]models.Document, error) {
	var parsed *gofeed.Feed
	err := retry.WithRetry(ctx, retry.RetryConfig{
		MaxAttempts: r.config.RetryAttempts,
		Delay:       r.config.RetryDelay,
		Backoff:     true,
	}, func() error {
		f, err := r.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			var httpErr gofeed.HTTPError
			if errors.As(err, &httpErr) && httpErr.StatusCode < 500 {
				return retry.Permanent(err)
			}
			if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
				return retry.Permanent(err)
			}
			return err
		}
		parsed = f
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error parsing feed %s: %w", url, err)
	}

	docs := make([]models.Document, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if r.config.MaxDocuments > 0 && len(docs) >= r.config.MaxDocuments {
			break
		}

		title := stripHTML(item.Title)
		if title == "" {
			continue
		}
		description := stripHTML(item.Description)
		if description == "" {
			description = stripHTML(item.Content)
		}

		doc := models.Document{
			URL:     item.Link,
			Title:   title,
			Content: description,
			Metadata: map[string]interface{}{
				"feed": parsed.Title,
				"guid": item.GUID,
			},
		}
		if item.PublishedParsed != nil {
			doc.Published = *item.PublishedParsed
		}
		if len(item.Categories) > 0 {
			doc.Metadata["categories"] = item.Categories
		}
		docs = append(docs, doc)
	}

	log.Info().Str("url", url).Str("feed", parsed.Title).Int("items", len(docs)).Msg("Loaded feed")
	return docs, nil
}

// stripHTML returns the visible text of an HTML fragment with whitespace collapsed.
func stripHTML(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
