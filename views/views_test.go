package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/sitegen"
)

var cfg = sitegen.SiteConfig{
	Name:        "Test <Blog>",
	URL:         "https://example.com",
	Description: "Notes & thoughts",
	AuthorName:  "Jane",
}

func sample() sitegen.Article {
	return sitegen.Article{
		Title:       `Hello "world"`,
		Description: "A <first> post",
		Image:       "/images/hello.jpg",
		Tags:        []string{"go", "web"},
		Slug:        "hello",
		Published:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Body:        "## Intro\n\nSome *text*.\n\n<script>alert(1)</script>\n",
	}
}

func TestArticlePage(t *testing.T) {
	var buf bytes.Buffer
	v := Default(cfg)
	other := sample()
	other.Slug, other.Title = "other", "Other"
	require.NoError(t, v.Article(sample(), []sitegen.Article{other}).Render(context.Background(), &buf))
	html := buf.String()

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, `<title>Hello &#34;world&#34; | Test &lt;Blog&gt;</title>`)
	assert.Contains(t, html, `<link rel="canonical" href="https://example.com/articles/hello">`)
	assert.Contains(t, html, `<meta property="og:type" content="article">`)
	assert.Contains(t, html, `<meta property="og:image" content="/images/hello.jpg">`)
	assert.Contains(t, html, `<time datetime="2024-03-01">March 1, 2024</time>`)
	assert.Contains(t, html, `<h2 id="intro">Intro</h2>`)
	assert.Contains(t, html, `<em>text</em>`)
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, `<a class="tag" href="/tags/go">go</a>`)
	assert.Contains(t, html, `<li><a href="/articles/other">Other</a></li>`)
	assert.Contains(t, html, `"@type":"BlogPosting"`)
	assert.Contains(t, html, `href="/rss.xml"`)
	assert.Contains(t, html, `href="/feed.json"`)
}

func TestIndexPagination(t *testing.T) {
	var buf bytes.Buffer
	l := sitegen.Listing{
		Articles:   []sitegen.Article{sample()},
		Pagination: sitegen.Pagination{CurrentPage: 2, TotalPages: 3, HasPrevious: true, PreviousPage: 1, HasNext: true, NextPage: 3},
		Tags:       []string{"go", "web"},
	}
	require.NoError(t, Default(cfg).Index(l).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, `<title>Page 2 | Test &lt;Blog&gt;</title>`)
	assert.Contains(t, html, `<link rel="canonical" href="https://example.com/page/2">`)
	assert.Contains(t, html, `<a rel="prev" href="/">Newer</a>`)
	assert.Contains(t, html, `<a rel="next" href="/page/3">Older</a>`)
	assert.Contains(t, html, `<span>Page 2 of 3</span>`)
	assert.Contains(t, html, `<p>A &lt;first&gt; post</p>`)
}

func TestIndexForTagAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	l := sitegen.Listing{Pagination: sitegen.Pagination{CurrentPage: 1}, Tag: "web", Tags: []string{"go", "web"}}
	require.NoError(t, Default(cfg).Index(l).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, `<h1>Tagged web</h1>`)
	assert.Contains(t, html, `<a class="tag active" href="/tags/web">web</a>`)
	assert.Contains(t, html, "No articles yet.")
	assert.NotContains(t, html, `class="pagination"`)
}

func TestErrorPages(t *testing.T) {
	v := Default(cfg)
	var buf bytes.Buffer
	require.NoError(t, v.NotFound().Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "<h1>Not found</h1>")

	buf.Reset()
	require.NoError(t, v.ServerError().Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "<h1>Something went wrong</h1>")
}

func TestArticlePageLeavesLocalImageOut(t *testing.T) {
	a := sample()
	a.Image = "cover.png"
	var buf bytes.Buffer
	require.NoError(t, Default(cfg).Article(a, nil).Render(context.Background(), &buf))
	html := buf.String()

	assert.NotContains(t, html, "cover.png")
	assert.NotContains(t, html, `class="cover"`)
}

func TestTagLinksUseSlugs(t *testing.T) {
	a := sample()
	a.Tags = []string{"Go Tips", "+++"}
	var buf bytes.Buffer
	require.NoError(t, Default(cfg).Article(a, nil).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, `<a class="tag" href="/tags/go-tips">Go Tips</a>`)
	assert.NotContains(t, html, `href="/tags/+`)
}
