package feed

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/maauso/jobfeed-api/internal/source"
)

// Compile-time check that RSSAdapter implements Adapter.
var _ Adapter = (*RSSAdapter)(nil)

const rssAccept = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"

// RSSAdapter fetches RSS 2.0, RSS 1.0 and Atom feeds.
//
// Per item it extracts title, link, publication date and description.
// Many job boards add non-standard <company> and <location> elements to
// their items; those are picked up when present.
type RSSAdapter struct {
	client *Client
}

// NewRSSAdapter creates an RSSAdapter.
func NewRSSAdapter(client *Client) *RSSAdapter {
	if client == nil {
		client = NewClient()
	}
	return &RSSAdapter{client: client}
}

// Fetch implements Adapter.
func (a *RSSAdapter) Fetch(ctx context.Context, src source.JobSource) ([]RawRecord, error) {
	body, err := a.client.get(ctx, src.URL, rssAccept)
	if err != nil {
		return nil, err
	}
	return ParseRSS(body)
}

// ParseRSS extracts raw records from feed markup.
func ParseRSS(body []byte) ([]RawRecord, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	records := make([]RawRecord, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		rec := RawRecord{
			Title:       item.Title,
			Link:        item.Link,
			Published:   item.Published,
			Description: item.Description,
		}
		if rec.Link == "" && len(item.Links) > 0 {
			rec.Link = item.Links[0]
		}
		if rec.Published == "" {
			rec.Published = item.Updated
		}
		if rec.Description == "" {
			rec.Description = item.Content
		}
		if item.Custom != nil {
			rec.Company = item.Custom["company"]
			rec.Location = item.Custom["location"]
		}
		records = append(records, rec)
	}
	return records, nil
}
