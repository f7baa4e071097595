// Package feed ingests candidate articles from configured RSS feeds. It
// produces plain Documents; scoring and selection happen downstream.
package feed

import (
	"context"
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/graphdesk/newsgraph/internal/config"
	"github.com/graphdesk/newsgraph/internal/model"
)

const defaultMaxAgeHours = 48

// Fetcher fetches candidate documents from one feed.
type Fetcher interface {
	Fetch(ctx context.Context, feed config.FeedConfig) ([]model.Document, error)
}

// RSSFetcher implements Fetcher over RSS/Atom via gofeed.
type RSSFetcher struct {
	parser *gofeed.Parser
}

// NewRSSFetcher creates an RSSFetcher.
func NewRSSFetcher() *RSSFetcher {
	return &RSSFetcher{parser: gofeed.NewParser()}
}

// Fetch pulls one feed and converts fresh items into Documents.
func (f *RSSFetcher) Fetch(ctx context.Context, feedCfg config.FeedConfig) ([]model.Document, error) {
	parsed, err := f.parser.ParseURLWithContext(feedCfg.URL, ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: fetch %s", feedCfg.Name)
	}

	maxAge := time.Duration(feedCfg.MaxAgeHours) * time.Hour
	if maxAge <= 0 {
		maxAge = defaultMaxAgeHours * time.Hour
	}

	now := time.Now()
	cutoff := now.Add(-maxAge)

	docs := make([]model.Document, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		// An unknown publish date is kept (the metadata score component
		// penalizes it); a known stale date is dropped.
		if !published.IsZero() && published.Before(cutoff) {
			continue
		}

		text := item.Content
		if text == "" {
			text = item.Description
		}

		docs = append(docs, model.Document{
			DocID:       docID(item.Link, item.Title),
			Source:      feedCfg.Name,
			Title:       strings.TrimSpace(item.Title),
			URL:         item.Link,
			PublishedAt: published,
			Text:        StripHTML(text),
		})
	}

	return docs, nil
}

// FetchAll pulls every configured feed concurrently. A failing feed is
// logged and skipped; one broken publisher must not sink the day's run.
func FetchAll(ctx context.Context, fetcher Fetcher, feeds []config.FeedConfig) []model.Document {
	var mu sync.Mutex
	var all []model.Document

	g, gCtx := errgroup.WithContext(ctx)
	for _, fc := range feeds {
		fc := fc
		g.Go(func() error {
			docs, err := fetcher.Fetch(gCtx, fc)
			if err != nil {
				zap.L().Warn("feed: fetch failed",
					zap.String("feed", fc.Name),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			all = append(all, docs...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("feed: ingestion complete",
		zap.Int("feeds", len(feeds)),
		zap.Int("documents", len(all)),
	)
	return all
}

// TierMap returns source name → tier for the selector.
func TierMap(feeds []config.FeedConfig) map[string]int {
	m := make(map[string]int, len(feeds))
	for _, f := range feeds {
		m[f.Name] = f.Tier
	}
	return m
}

// SignalMap returns source name → signal type for the selector.
func SignalMap(feeds []config.FeedConfig) map[string]model.SignalType {
	m := make(map[string]model.SignalType, len(feeds))
	for _, f := range feeds {
		m[f.Name] = model.SignalType(f.Signal)
	}
	return m
}

var (
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	entityRe = regexp.MustCompile(`&[a-zA-Z#0-9]+;`)
)

// StripHTML removes tags and common entities and collapses whitespace.
// Boilerplate-heavy feeds ship markup inside descriptions; the scorer wants
// prose.
func StripHTML(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = entityRe.ReplaceAllStringFunc(s, func(e string) string {
		switch e {
		case "&amp;":
			return "&"
		case "&lt;":
			return "<"
		case "&gt;":
			return ">"
		case "&quot;", "&#34;":
			return `"`
		case "&#39;", "&apos;":
			return "'"
		case "&nbsp;":
			return " "
		default:
			return " "
		}
	})
	return strings.Join(strings.Fields(s), " ")
}

// docID derives a stable document ID from the item link (or title when the
// link is missing), so re-fetching a feed does not duplicate documents.
func docID(link, title string) string {
	key := link
	if key == "" {
		key = title
	}
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", sum[:8])
}
