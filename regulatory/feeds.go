package regulatory

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	gdprFeedURL  = "https://edpb.europa.eu/news/news_en"
	hipaaFeedURL = "https://www.ecfr.gov/current/title-45/subtitle-A/subchapter-C/part-164"

	feedFetchTimeout = 10 * time.Second
	maxFeedEntries   = 20
)

// rssFeed is the subset of the RSS 2.0 schema the trackers read.
type rssFeed struct {
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Description string `xml:"description"`
			Link        string `xml:"link"`
			PubDate     string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

// RSSFetcher fetches a regulatory RSS feed over HTTP.
type RSSFetcher struct {
	source  string
	tracker string
	url     string
	client  *http.Client
}

// NewGDPRFetcher creates the EDPB news fetcher
func NewGDPRFetcher() *RSSFetcher {
	return newRSSFetcher("GDPR", "gdpr_live_tracker", gdprFeedURL)
}

// NewHIPAAFetcher creates the eCFR part-164 fetcher
func NewHIPAAFetcher() *RSSFetcher {
	return newRSSFetcher("HIPAA", "hipaa_live_tracker", hipaaFeedURL)
}

// NewRSSFetcher creates a fetcher for an arbitrary regulatory feed
func NewRSSFetcher(source, tracker, url string) *RSSFetcher {
	return newRSSFetcher(source, tracker, url)
}

func newRSSFetcher(source, tracker, url string) *RSSFetcher {
	return &RSSFetcher{
		source:  source,
		tracker: tracker,
		url:     url,
		client:  &http.Client{Timeout: feedFetchTimeout},
	}
}

// Source returns the regulation name this feed covers
func (f *RSSFetcher) Source() string { return f.source }

// TrackerName returns the tracker identifier used in issue sources
func (f *RSSFetcher) TrackerName() string { return f.tracker }

// Fetch downloads and parses the feed.
func (f *RSSFetcher) Fetch(ctx context.Context) ([]FeedEntry, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]FeedEntry, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		entries = append(entries, FeedEntry{
			Title:     item.Title,
			Summary:   item.Description,
			Link:      item.Link,
			Published: item.PubDate,
		})
		if len(entries) == maxFeedEntries {
			break
		}
	}

	return entries, nil
}
