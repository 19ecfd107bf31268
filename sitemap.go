package sitegen

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// RouteLister enumerates the site's static routes (about pages and the like)
// that live outside the article corpus.
type RouteLister interface {
	StaticRoutes() []string
}

// StaticRoutes is a fixed RouteLister.
type StaticRoutes []string

// StaticRoutes returns the routes.
func (r StaticRoutes) StaticRoutes() []string { return r }

// RenderSitemap encodes the site root, every static route, listing pages
// 2..totalPages and one entry per article, in that order. Duplicate
// locations are dropped.
func RenderSitemap(cfg SiteConfig, routes RouteLister, totalPages int, articles []Article) ([]byte, error) {
	if err := validateAll(articles); err != nil {
		return nil, err
	}
	base := cfg.URL
	seen := make(map[string]struct{})
	var urls []sitemapURL
	add := func(loc, lastMod string) {
		if _, ok := seen[loc]; ok {
			return
		}
		seen[loc] = struct{}{}
		urls = append(urls, sitemapURL{Loc: loc, LastMod: lastMod})
	}

	add(BuildURL(base), "")
	if routes != nil {
		for _, r := range routes.StaticRoutes() {
			r = strings.TrimSpace(r)
			if r == "" || r == "/" {
				continue
			}
			add(BuildURL(base, r), "")
		}
	}
	for n := 2; n <= totalPages; n++ {
		add(BuildURL(base, PagePath(n)), "")
	}
	for _, a := range articles {
		add(BuildURL(base, a.Link()), a.Published.UTC().Format("2006-01-02"))
	}

	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(sitemap); err != nil {
		return nil, fmt.Errorf("sitegen: encode sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// RenderRobots returns a robots.txt allowing everything and pointing at the sitemap.
func RenderRobots(cfg SiteConfig) []byte {
	return []byte(fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s\n", BuildURL(cfg.URL, SitemapFile)))
}
