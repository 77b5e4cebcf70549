package rss

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	feeds "mspmon/internal/feeds/domain"
)

// Fetcher downloads and parses an RSS 2.0 advisory feed.
type Fetcher struct {
	name   string
	url    string
	client *http.Client
}

// NewFetcher constructs an RSS fetcher.
func NewFetcher(name, url string) (*Fetcher, error) {
	if name == "" {
		return nil, errors.New("rss: empty feed name")
	}
	if url == "" {
		return nil, errors.New("rss: empty feed url")
	}
	return &Fetcher{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Name returns the feed name.
func (f *Fetcher) Name() string { return f.name }

// Fetch downloads the feed and returns its parsed items. Items without a
// parseable publish date keep a zero time and are rejected downstream.
func (f *Fetcher) Fetch(ctx context.Context) ([]feeds.Item, error) {
	if f == nil || f.client == nil {
		return nil, errors.New("rss: nil fetcher")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rss: feed %s returned status %d: %s", f.name, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

// Parse decodes raw RSS 2.0 XML into feed items.
func Parse(data []byte) ([]feeds.Item, error) {
	var doc rssDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rss: parse: %w", err)
	}
	items := make([]feeds.Item, 0, len(doc.Channel.Items))
	for _, raw := range doc.Channel.Items {
		items = append(items, feeds.Item{
			Title:     strings.TrimSpace(raw.Title),
			Link:      strings.TrimSpace(raw.Link),
			GUID:      strings.TrimSpace(raw.GUID),
			Published: parseDate(raw.PubDate),
			Summary:   strings.TrimSpace(raw.Description),
		})
	}
	return items, nil
}

func parseDate(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
