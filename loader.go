package sitegen

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-slug"
)

// publishedLayouts are the accepted formats for the published front matter key.
var publishedLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

type frontMatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Image       string   `yaml:"image"`
	Tags        []string `yaml:"tags"`
	Published   string   `yaml:"published"`
	Draft       bool     `yaml:"draft"`
}

// LoadDirectory reads every Markdown file under dir in fsys, in lexical path
// order, and returns the parsed articles. Drafts are skipped. Any file with
// malformed front matter, a missing required field or a duplicate slug fails
// the whole load with ErrMalformedContent.
func LoadDirectory(ctx context.Context, fsys fs.FS, dir string) ([]Article, error) {
	if dir == "" {
		dir = "."
	}
	var paths []string
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(path.Ext(p), ".md") {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sitegen: walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	articles := make([]Article, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("sitegen: read %s: %w", p, err)
		}
		a, draft, err := ParseArticle(p, src)
		if err != nil {
			return nil, err
		}
		if draft {
			continue
		}
		if prev, ok := seen[a.Slug]; ok {
			return nil, fmt.Errorf("%w: %s: slug %q already used by %s", ErrMalformedContent, p, a.Slug, prev)
		}
		seen[a.Slug] = p
		articles = append(articles, a)
	}
	return articles, nil
}

// ParseArticle decodes a single Markdown document. The slug comes from the
// file name. It reports whether the document is marked as a draft.
func ParseArticle(name string, src []byte) (Article, bool, error) {
	var fm frontMatter
	body, err := frontmatter.MustParse(bytes.NewReader(src), &fm)
	if err != nil {
		return Article{}, false, fmt.Errorf("%w: %s: front matter: %v", ErrMalformedContent, name, err)
	}

	a := Article{
		Title:       strings.TrimSpace(fm.Title),
		Description: strings.TrimSpace(fm.Description),
		Image:       strings.TrimSpace(fm.Image),
		Slug:        slugFromName(name),
		Body:        string(body),
		Source:      name,
	}
	a.Tags, err = normalizeTags(fm.Tags)
	if err != nil {
		return Article{}, false, fmt.Errorf("%w: %s: %v", ErrMalformedContent, name, err)
	}
	if raw := strings.TrimSpace(fm.Published); raw != "" {
		a.Published, err = parsePublished(raw)
		if err != nil {
			return Article{}, false, fmt.Errorf("%w: %s: published %q is not a date", ErrMalformedContent, name, raw)
		}
	}
	if err := a.Validate(); err != nil {
		return Article{}, false, fmt.Errorf("%w: %s: %v", ErrMalformedContent, name, err)
	}
	return a, fm.Draft, nil
}

// Validate checks the fields every artifact depends on.
func (a Article) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Title, validation.Required),
		validation.Field(&a.Slug, validation.Required, validation.By(validSlug)),
		validation.Field(&a.Published, validation.Required),
		validation.Field(&a.Tags, validation.Each(validation.Required, validation.By(validSlug))),
	)
}

func validSlug(value interface{}) error {
	s, _ := value.(string)
	if s != "" && !slug.IsValid(s) {
		return validation.NewError("validation_slug_invalid", "must be a lowercase URL slug")
	}
	return nil
}

func slugFromName(name string) string {
	base := path.Base(name)
	base = strings.TrimSuffix(base, path.Ext(base))
	if slug.IsValid(base) {
		return base
	}
	return Slugify(base)
}

func parsePublished(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range publishedLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// normalizeTags turns tags into slugs and drops blanks and repeats, keeping
// the order of first appearance. A tag with no slug form is an error.
func normalizeTags(tags []string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if strings.TrimSpace(t) == "" {
			continue
		}
		n := normalizeTag(t)
		if n == "" {
			return nil, fmt.Errorf("tag %q has no slug form", t)
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}
