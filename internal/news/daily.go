// Package news fetches the latest Statistics Canada "The Daily" releases
// shown on the home page.
package news

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/canviz/canadaindata/internal/config"
	"github.com/canviz/canadaindata/internal/infra"
	"github.com/canviz/canadaindata/pkg/models"
)

const cacheKey = "news:daily"

// Daily reads the release feed with caching and rate limiting.
type Daily struct {
	feedURL  string
	maxItems int
	cache    *infra.Cache
	limiter  *infra.RateLimiter
	parser   *gofeed.Parser
	logger   *zap.Logger
}

// NewDaily creates a headline source from the news settings.
func NewDaily(cfg config.NewsConfig, logger *zap.Logger) *Daily {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.FeedCacheTTL()
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Daily{
		feedURL:  cfg.FeedURL,
		maxItems: cfg.MaxItems,
		cache:    infra.NewCache(ttl),
		limiter:  infra.NewRateLimiter(1, 2*time.Second),
		parser:   gofeed.NewParser(),
		logger:   logger,
	}
}

// Latest returns the newest releases, at most the configured number.
func (d *Daily) Latest(ctx context.Context) ([]models.Headline, error) {
	v, err := d.cache.GetOrLoad(ctx, cacheKey, d.fetch)
	if err != nil {
		return nil, err
	}
	return v.([]models.Headline), nil
}

// Refresh drops the cached feed.
func (d *Daily) Refresh() {
	d.cache.Invalidate(cacheKey)
}

func (d *Daily) fetch(ctx context.Context) (any, error) {
	if d.feedURL == "" {
		return nil, fmt.Errorf("news: no feed URL configured")
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, _, err := infra.DoGet(ctx, d.feedURL, nil)
	if err != nil {
		d.logger.Warn("headline fetch failed", zap.String("url", d.feedURL), zap.Error(err))
		return nil, err
	}
	defer body.Close()

	feed, err := d.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", d.feedURL, err)
	}

	items := make([]models.Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		h := models.Headline{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			h.PublishedAt = *item.PublishedParsed
		}
		items = append(items, h)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if d.maxItems > 0 && len(items) > d.maxItems {
		items = items[:d.maxItems]
	}
	d.logger.Debug("headlines fetched", zap.Int("count", len(items)))
	return items, nil
}

// cleanHTML strips markup from a feed description.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
