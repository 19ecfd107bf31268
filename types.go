package sitegen

import "time"

// Article is a single Markdown document with its front matter decoded.
type Article struct {
	Title       string
	Description string
	Image       string // absolute URL or path relative to the content dir
	Tags        []string
	Slug        string // derived from the file name
	Published   time.Time
	Body        string // raw Markdown
	Source      string // path inside the content filesystem
}

// Link returns the site-relative path of the article page.
func (a Article) Link() string {
	return "/articles/" + a.Slug
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	Image       string // og:image
	OGType      string // "website" or "article"
}

// Listing is everything a listing page needs: its slice of articles and the
// navigation computed for it.
type Listing struct {
	Articles   []Article
	Pagination Pagination
	Tag        string
	Tags       []string
}
