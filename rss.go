package sitegen

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
)

type rssXML struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	ContentNS string     `xml:"xmlns:content,attr"`
	AtomNS    string     `xml:"xmlns:atom,attr"`
	DCNS      string     `xml:"xmlns:dc,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string      `xml:"title"`
	Link          string      `xml:"link"`
	Description   string      `xml:"description"`
	Language      string      `xml:"language,omitempty"`
	LastBuildDate string      `xml:"lastBuildDate,omitempty"`
	AtomLink      rssAtomLink `xml:"atom:link"`
	Items         []rssItem   `xml:"item"`
}

type rssAtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Content     rssCDATA `xml:"content:encoded"`
	Author      string   `xml:"author,omitempty"`
	Creator     string   `xml:"dc:creator,omitempty"`
	Categories  []string `xml:"category"`
	PubDate     string   `xml:"pubDate"`
	GUID        rssGUID  `xml:"guid"`
}

type rssCDATA struct {
	Text string `xml:",cdata"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// RenderRSS encodes articles as an RSS 2.0 document. Articles are emitted in
// the order given; callers pass the newest-first ordering.
func RenderRSS(cfg SiteConfig, articles []Article) ([]byte, error) {
	if err := validateAll(articles); err != nil {
		return nil, err
	}
	base := cfg.URL
	author := feedAuthor(cfg)
	items := make([]rssItem, 0, len(articles))
	for _, a := range articles {
		articleURL := BuildURL(base, a.Link())
		items = append(items, rssItem{
			Title:       a.Title,
			Link:        articleURL,
			Description: a.Description,
			Content:     rssCDATA{Text: a.Description},
			Author:      author,
			Creator:     cfg.AuthorName,
			Categories:  a.Tags,
			PubDate:     a.Published.UTC().Format(time.RFC1123Z),
			GUID:        rssGUID{IsPermaLink: true, Value: articleURL},
		})
	}
	feed := rssXML{
		Version:   "2.0",
		ContentNS: "http://purl.org/rss/1.0/modules/content/",
		AtomNS:    "http://www.w3.org/2005/Atom",
		DCNS:      "http://purl.org/dc/elements/1.1/",
		Channel: rssChannel{
			Title:         cfg.Name,
			Link:          BuildURL(base),
			Description:   cfg.Description,
			Language:      cfg.Language,
			LastBuildDate: lastBuildDate(articles),
			AtomLink: rssAtomLink{
				Href: BuildURL(base, RSSFile),
				Rel:  "self",
				Type: "application/rss+xml",
			},
			Items: items,
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(feed); err != nil {
		return nil, fmt.Errorf("sitegen: encode rss: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// feedAuthor formats the RSS author element, which must lead with an email.
// Without an email the author name goes out as dc:creator only.
func feedAuthor(cfg SiteConfig) string {
	switch {
	case cfg.AuthorEmail != "" && cfg.AuthorName != "":
		return cfg.AuthorEmail + " (" + cfg.AuthorName + ")"
	case cfg.AuthorEmail != "":
		return cfg.AuthorEmail
	default:
		return ""
	}
}

// lastBuildDate is the newest publish date rather than the wall clock so that
// rebuilding unchanged content gives identical bytes.
func lastBuildDate(articles []Article) string {
	var newest time.Time
	for _, a := range articles {
		if a.Published.After(newest) {
			newest = a.Published
		}
	}
	if newest.IsZero() {
		return ""
	}
	return newest.UTC().Format(time.RFC1123Z)
}

func validateAll(articles []Article) error {
	for _, a := range articles {
		if err := a.Validate(); err != nil {
			name := a.Source
			if name == "" {
				name = a.Slug
			}
			return fmt.Errorf("%w: %s: %v", ErrMalformedContent, name, err)
		}
	}
	return nil
}
