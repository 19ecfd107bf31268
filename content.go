package sitegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-slug"
)

// SortDirection orders records by a field.
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// SortByPublished is the only sortable field.
const SortByPublished = "published"

// OffsetFunc maps a 1-based page number to the index of its first record.
type OffsetFunc func(pageNumber, perPage int) int

// SequentialOffset places page n directly after page n-1.
func SequentialOffset(pageNumber, perPage int) int {
	return (pageNumber - 1) * perPage
}

// LegacyOffset reproduces the page offset the site originally shipped with:
// page 1 starts at 0 and page n > 1 starts at n*perPage, so the records
// between perPage and 2*perPage are never listed.
func LegacyOffset(pageNumber, perPage int) int {
	if pageNumber > 1 {
		return pageNumber * perPage
	}
	return 0
}

// Repository is an immutable, in-memory view over a set of articles.
// Every query copies out of it; nothing is evaluated lazily.
type Repository struct {
	articles []Article // discovery order
	offset   OffsetFunc
}

// NewRepository creates a Repository over a copy of articles. Their order is
// taken as discovery order and breaks ties when sorting.
func NewRepository(articles []Article) *Repository {
	cp := make([]Article, len(articles))
	copy(cp, articles)
	return &Repository{articles: cp, offset: SequentialOffset}
}

// WithOffset returns a Repository sharing the same records that pages with fn.
func (r *Repository) WithOffset(fn OffsetFunc) *Repository {
	if fn == nil {
		fn = SequentialOffset
	}
	return &Repository{articles: r.articles, offset: fn}
}

// Len returns the number of articles.
func (r *Repository) Len() int {
	return len(r.articles)
}

// FetchAll returns every article in discovery order. When fields are given,
// each record keeps only those fields and the rest are zeroed.
func (r *Repository) FetchAll(fields ...string) ([]Article, error) {
	out := make([]Article, len(r.articles))
	copy(out, r.articles)
	if len(fields) == 0 {
		return out, nil
	}
	for i := range out {
		p, err := project(out[i], fields)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// FetchSorted returns every article ordered by field. Equal keys keep
// discovery order.
func (r *Repository) FetchSorted(field string, dir SortDirection) ([]Article, error) {
	if strings.ToLower(strings.TrimSpace(field)) != SortByPublished {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSort, field)
	}
	out := make([]Article, len(r.articles))
	copy(out, r.articles)
	switch dir {
	case Asc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Published.Before(out[j].Published)
		})
	case Desc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Published.After(out[j].Published)
		})
	default:
		return nil, fmt.Errorf("%w: direction %q", ErrUnsupportedSort, dir)
	}
	return out, nil
}

// FetchPage returns one page of the newest-first ordering. Page numbers start
// at 1; a page that resolves to no records is ErrNotFound.
func (r *Repository) FetchPage(pageNumber, perPage int) ([]Article, error) {
	if pageNumber < 1 || perPage < 1 {
		return nil, ErrNotFound
	}
	sorted, err := r.FetchSorted(SortByPublished, Desc)
	if err != nil {
		return nil, err
	}
	start := r.offset(pageNumber, perPage)
	if start < 0 || start >= len(sorted) {
		return nil, ErrNotFound
	}
	end := start + perPage
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[start:end], nil
}

// PageCount returns how many listing pages FetchPage can serve for perPage.
func (r *Repository) PageCount(perPage int) int {
	n := 0
	for {
		if _, err := r.FetchPage(n+1, perPage); err != nil {
			return n
		}
		n++
	}
}

// Get returns the article with the given slug.
func (r *Repository) Get(slug string) (Article, error) {
	for _, a := range r.articles {
		if a.Slug == slug {
			return a, nil
		}
	}
	return Article{}, ErrNotFound
}

// FilterByTag returns a Repository holding only articles tagged with tag.
// Matching is case-insensitive.
func (r *Repository) FilterByTag(tag string) *Repository {
	want := normalizeTag(tag)
	var kept []Article
	for _, a := range r.articles {
		for _, t := range a.Tags {
			if normalizeTag(t) == want {
				kept = append(kept, a)
				break
			}
		}
	}
	return &Repository{articles: kept, offset: r.offset}
}

// Tags returns the sorted, deduplicated set of tags across all articles.
func (r *Repository) Tags() []string {
	set := make(map[string]struct{})
	for _, a := range r.articles {
		for _, t := range a.Tags {
			if n := normalizeTag(t); n != "" {
				set[n] = struct{}{}
			}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

func project(a Article, fields []string) (Article, error) {
	var p Article
	for _, f := range fields {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "title":
			p.Title = a.Title
		case "description":
			p.Description = a.Description
		case "image":
			p.Image = a.Image
		case "tags":
			p.Tags = a.Tags
		case "slug":
			p.Slug = a.Slug
		case "published":
			p.Published = a.Published
		case "body":
			p.Body = a.Body
		case "source":
			p.Source = a.Source
		default:
			return Article{}, fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
	}
	return p, nil
}

// TagSlug returns the slug a tag is listed under, or "" when it has none.
func TagSlug(t string) string { return normalizeTag(t) }

// normalizeTag maps a tag to the slug used for its page path, its links and
// the index. A tag with no valid slug form maps to "".
func normalizeTag(t string) string {
	n := Slugify(strings.ToLower(t))
	if n == "" || !slug.IsValid(n) {
		return ""
	}
	return n
}
