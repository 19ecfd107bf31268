package sitegen

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

const jsonFeedVersion = "https://jsonfeed.org/version/1.1"

type jsonFeed struct {
	Version     string           `json:"version"`
	Title       string           `json:"title"`
	HomePageURL string           `json:"home_page_url"`
	FeedURL     string           `json:"feed_url"`
	Description string           `json:"description,omitempty"`
	Language    string           `json:"language,omitempty"`
	Authors     []jsonFeedAuthor `json:"authors,omitempty"`
	Items       []jsonFeedItem   `json:"items"`
}

type jsonFeedAuthor struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

type jsonFeedItem struct {
	ID            string   `json:"id"`
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Summary       string   `json:"summary,omitempty"`
	ContentText   string   `json:"content_text"`
	Image         string   `json:"image,omitempty"`
	DatePublished string   `json:"date_published"`
	Tags          []string `json:"tags,omitempty"`
}

// RenderJSONFeed encodes articles as a JSON Feed document in the order given.
func RenderJSONFeed(cfg SiteConfig, articles []Article) ([]byte, error) {
	if err := validateAll(articles); err != nil {
		return nil, err
	}
	base := cfg.URL
	feed := jsonFeed{
		Version:     jsonFeedVersion,
		Title:       cfg.Name,
		HomePageURL: BuildURL(base),
		FeedURL:     BuildURL(base, JSONFeedFile),
		Description: cfg.Description,
		Language:    cfg.Language,
		Items:       make([]jsonFeedItem, 0, len(articles)),
	}
	if cfg.AuthorName != "" {
		feed.Authors = []jsonFeedAuthor{{Name: cfg.AuthorName, URL: BuildURL(base)}}
	}
	for _, a := range articles {
		articleURL := BuildURL(base, a.Link())
		feed.Items = append(feed.Items, jsonFeedItem{
			ID:            articleURL,
			URL:           articleURL,
			Title:         a.Title,
			Summary:       a.Description,
			ContentText:   a.Description,
			Image:         absoluteImage(base, a.Image),
			DatePublished: a.Published.UTC().Format(time.RFC3339),
			Tags:          a.Tags,
		})
	}
	b, err := json.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sitegen: encode json feed: %w", err)
	}
	return append(b, '\n'), nil
}
