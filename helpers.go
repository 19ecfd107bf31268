package sitegen

import (
	"net/url"
	"path"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goliatone/go-slug"
)

// Slugify converts a title or file name to a URL-safe slug.
func Slugify(s string) string {
	out, err := slug.Normalize(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return out
}

// BuildURL joins a base URL with site-relative path segments.
// With no segments it returns the base with a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	if len(pathSegments) == 0 {
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		return u.String()
	}
	u.Path = path.Join("/", u.Path, path.Join(pathSegments...))
	return u.String()
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// FilterRelatedArticles finds articles that share at least one tag with current.
func FilterRelatedArticles(current Article, articles []Article) []Article {
	tagSet := make(map[string]struct{})
	for _, t := range current.Tags {
		if tag := normalizeTag(t); tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	var related []Article
	for _, a := range articles {
		if a.Slug == current.Slug {
			continue
		}
		for _, t := range a.Tags {
			if _, ok := tagSet[normalizeTag(t)]; ok {
				related = append(related, a)
				break
			}
		}
	}
	return related
}

// JoinTags joins tags with ", ".
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
	}
	if cfg.AuthorName != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.AuthorName,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ArticleJsonLD returns a JSON-LD string for a BlogPosting schema.
func ArticleJsonLD(a Article, cfg SiteConfig) string {
	articleURL := BuildURL(cfg.URL, a.Link())
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      a.Title,
		"description":   a.Description,
		"datePublished": a.Published.Format("2006-01-02"),
		"url":           articleURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   articleURL,
		},
	}
	if img := absoluteImage(cfg.URL, a.Image); img != "" {
		data["image"] = img
	}
	if cfg.AuthorName != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.AuthorName,
		}
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	if len(a.Tags) > 0 {
		data["keywords"] = JoinTags(a.Tags)
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// PublicImage returns image when it can be linked from a page: an absolute
// URL or a site path. A file beside the Markdown source is only reachable
// after the generator has published it, so it yields "".
func PublicImage(image string) string {
	if isLocalImage(image) {
		return ""
	}
	return image
}

// absoluteImage resolves a site-relative image path against base. Absolute
// URLs pass through; unpublished local files yield "".
func absoluteImage(base, image string) string {
	image = PublicImage(image)
	if image == "" {
		return ""
	}
	if u, err := url.Parse(image); err == nil && u.IsAbs() {
		return image
	}
	return BuildURL(base, image)
}
