package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
)

// Item is a raw feed entry before release parsing.
type Item struct {
	Title     string
	Category  string
	Link      string
	Published time.Time
}

// Client fetches and parses an RSS feed of releases.
type Client struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		parser:  gofeed.NewParser(),
		timeout: timeout,
	}
}

// Fetch downloads the feed and returns its items. Items without a link are
// dropped; items without a parsed publish date fall back to the fetch time.
func (c *Client) Fetch(url string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	parsed, err := c.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", url, err)
	}

	now := time.Now()
	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry.Link == "" {
			continue
		}

		published := now
		if entry.PublishedParsed != nil {
			published = *entry.PublishedParsed
		}

		category := ""
		if len(entry.Categories) > 0 {
			category = entry.Categories[0]
		}

		items = append(items, Item{
			Title:     entry.Title,
			Category:  category,
			Link:      entry.Link,
			Published: published,
		})
	}

	return items, nil
}
