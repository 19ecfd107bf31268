// Package views holds the default page templates. Sites that want their own
// markup pass different ViewFuncs to the generator and the server.
package views

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/sitegen"
	"github.com/eringen/sitegen/markdown"
)

const dateLayout = "January 2, 2006"

// Default returns the built-in views for cfg.
func Default(cfg sitegen.SiteConfig) sitegen.ViewFuncs {
	cfg = cfg.WithDefaults()
	return sitegen.ViewFuncs{
		Index: func(l sitegen.Listing) templ.Component {
			return Index(cfg, l)
		},
		Article: func(a sitegen.Article, related []sitegen.Article) templ.Component {
			return ArticlePage(cfg, a, related)
		},
		NotFound: func() templ.Component {
			return message(cfg, "Not found", "The page you are looking for does not exist.")
		},
		ServerError: func() templ.Component {
			return message(cfg, "Something went wrong", "Please try again later.")
		},
	}
}

// Index renders a listing page, either a page of the full corpus or the
// articles for one tag.
func Index(cfg sitegen.SiteConfig, l sitegen.Listing) templ.Component {
	meta := sitegen.PageMeta{
		Title:       cfg.Name,
		Description: cfg.Description,
		URL:         sitegen.BuildURL(cfg.URL, sitegen.PagePath(l.Pagination.CurrentPage)),
		OGType:      "website",
	}
	switch {
	case l.Tag != "":
		meta.Title = "#" + l.Tag + " | " + cfg.Name
		meta.URL = sitegen.BuildURL(cfg.URL, "tags", l.Tag)
	case l.Pagination.CurrentPage > 1:
		meta.Title = fmt.Sprintf("Page %d | %s", l.Pagination.CurrentPage, cfg.Name)
	}
	return layout(cfg, meta, sitegen.WebsiteJsonLD(cfg), func(ctx context.Context, b *bytes.Buffer) error {
		if l.Tag != "" {
			fmt.Fprintf(b, `<h1>Tagged %s</h1>`, esc(l.Tag))
		}
		writeTags(b, l.Tags, l.Tag)
		if len(l.Articles) == 0 {
			b.WriteString(`<p class="empty">No articles yet.</p>`)
		}
		for _, a := range l.Articles {
			b.WriteString(`<article class="summary">`)
			fmt.Fprintf(b, `<h2><a href="%s">%s</a></h2>`, markdown.SafeURL(a.Link()), esc(a.Title))
			writeDate(b, a)
			if a.Description != "" {
				fmt.Fprintf(b, `<p>%s</p>`, esc(a.Description))
			}
			b.WriteString(`</article>`)
		}
		writePagination(b, l.Pagination)
		return nil
	})
}

// ArticlePage renders one article with links to related articles.
func ArticlePage(cfg sitegen.SiteConfig, a sitegen.Article, related []sitegen.Article) templ.Component {
	meta := sitegen.PageMeta{
		Title:       a.Title + " | " + cfg.Name,
		Description: a.Description,
		URL:         sitegen.BuildURL(cfg.URL, a.Link()),
		Image:       sitegen.PublicImage(a.Image),
		OGType:      "article",
	}
	return layout(cfg, meta, sitegen.ArticleJsonLD(a, cfg), func(ctx context.Context, b *bytes.Buffer) error {
		b.WriteString(`<article class="article">`)
		fmt.Fprintf(b, `<h1>%s</h1>`, esc(a.Title))
		writeDate(b, a)
		if img := sitegen.PublicImage(a.Image); img != "" {
			if src := markdown.SafeURL(img); src != "" {
				fmt.Fprintf(b, `<img class="cover" src="%s" alt="%s">`, src, esc(a.Title))
			}
		}
		writeTags(b, a.Tags, "")
		b.WriteString(`<div class="body">`)
		if err := markdown.Markdown(a.Body).Render(ctx, b); err != nil {
			return err
		}
		b.WriteString(`</div></article>`)
		if len(related) > 0 {
			b.WriteString(`<aside class="related"><h2>Related</h2><ul>`)
			for _, r := range related {
				fmt.Fprintf(b, `<li><a href="%s">%s</a></li>`, markdown.SafeURL(r.Link()), esc(r.Title))
			}
			b.WriteString(`</ul></aside>`)
		}
		return nil
	})
}

func message(cfg sitegen.SiteConfig, title, text string) templ.Component {
	meta := sitegen.PageMeta{Title: title + " | " + cfg.Name, OGType: "website"}
	return layout(cfg, meta, "", func(_ context.Context, b *bytes.Buffer) error {
		fmt.Fprintf(b, `<h1>%s</h1><p>%s</p><p><a href="/">Home</a></p>`, esc(title), esc(text))
		return nil
	})
}

func layout(cfg sitegen.SiteConfig, meta sitegen.PageMeta, jsonLD string, body func(context.Context, *bytes.Buffer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b bytes.Buffer
		fmt.Fprintf(&b, `<!DOCTYPE html><html lang="%s"><head><meta charset="utf-8">`, esc(cfg.Language))
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		fmt.Fprintf(&b, `<title>%s</title>`, esc(meta.Title))
		if meta.Description != "" {
			fmt.Fprintf(&b, `<meta name="description" content="%s">`, esc(meta.Description))
			fmt.Fprintf(&b, `<meta property="og:description" content="%s">`, esc(meta.Description))
		}
		fmt.Fprintf(&b, `<meta property="og:title" content="%s">`, esc(meta.Title))
		fmt.Fprintf(&b, `<meta property="og:type" content="%s">`, esc(meta.OGType))
		fmt.Fprintf(&b, `<meta property="og:site_name" content="%s">`, esc(cfg.Name))
		if meta.URL != "" {
			fmt.Fprintf(&b, `<link rel="canonical" href="%s">`, esc(meta.URL))
			fmt.Fprintf(&b, `<meta property="og:url" content="%s">`, esc(meta.URL))
		}
		if meta.Image != "" {
			if img := markdown.SafeURL(meta.Image); img != "" {
				fmt.Fprintf(&b, `<meta property="og:image" content="%s">`, img)
			}
		}
		fmt.Fprintf(&b, `<link rel="alternate" type="application/rss+xml" title="%s" href="/%s">`, esc(cfg.Name), sitegen.RSSFile)
		fmt.Fprintf(&b, `<link rel="alternate" type="application/feed+json" title="%s" href="/%s">`, esc(cfg.Name), sitegen.JSONFeedFile)
		b.WriteString(`<link rel="stylesheet" href="/public/styles.css">`)
		if jsonLD != "" {
			fmt.Fprintf(&b, `<script type="application/ld+json">%s</script>`, jsonLD)
		}
		b.WriteString(`</head><body>`)
		fmt.Fprintf(&b, `<header><a class="site" href="/">%s</a></header><main>`, esc(cfg.Name))
		if err := body(ctx, &b); err != nil {
			return err
		}
		b.WriteString(`</main><footer>`)
		if cfg.AuthorName != "" {
			fmt.Fprintf(&b, `<p>&copy; %s</p>`, esc(cfg.AuthorName))
		}
		fmt.Fprintf(&b, `<p><a href="/%s">RSS</a> &middot; <a href="/%s">JSON Feed</a></p>`, sitegen.RSSFile, sitegen.JSONFeedFile)
		b.WriteString(`</footer></body></html>`)
		_, err := w.Write(b.Bytes())
		return err
	})
}

func writeDate(b *bytes.Buffer, a sitegen.Article) {
	fmt.Fprintf(b, `<time datetime="%s">%s</time>`,
		a.Published.Format("2006-01-02"), a.Published.Format(dateLayout))
}

func writeTags(b *bytes.Buffer, tags []string, active string) {
	if len(tags) == 0 {
		return
	}
	b.WriteString(`<ul class="tags">`)
	for _, t := range tags {
		key := sitegen.TagSlug(t)
		if key == "" {
			continue
		}
		class := "tag"
		if key == sitegen.TagSlug(active) {
			class += " active"
		}
		fmt.Fprintf(b, `<li><a class="%s" href="/tags/%s">%s</a></li>`, class, key, esc(t))
	}
	b.WriteString(`</ul>`)
}

func writePagination(b *bytes.Buffer, p sitegen.Pagination) {
	if p.TotalPages <= 1 {
		return
	}
	b.WriteString(`<nav class="pagination">`)
	if p.HasPrevious {
		fmt.Fprintf(b, `<a rel="prev" href="%s">Newer</a>`, sitegen.PagePath(p.PreviousPage))
	}
	fmt.Fprintf(b, `<span>Page %d of %d</span>`, p.CurrentPage, p.TotalPages)
	if p.HasNext {
		fmt.Fprintf(b, `<a rel="next" href="%s">Older</a>`, sitegen.PagePath(p.NextPage))
	}
	b.WriteString(`</nav>`)
}

func esc(s string) string {
	return templ.EscapeString(s)
}
