package sitegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/a-h/templ"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Artifact file names at the root of the output tree.
const (
	RSSFile      = "rss.xml"
	JSONFeedFile = "feed.json"
	SitemapFile  = "sitemap.xml"
	RobotsFile   = "robots.txt"
	indexFile    = "index.html"
)

// BuildResult summarizes a finished build.
type BuildResult struct {
	OutputDir string
	Artifacts []string // paths relative to OutputDir, sorted
	Articles  int
	Pages     int
}

// Generator turns a set of articles into a complete static site.
type Generator struct {
	cfg       SiteConfig
	views     ViewFuncs
	routes    RouteLister
	contentFS fs.FS
	log       logrus.FieldLogger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRoutes sets the collaborator listing static routes for the sitemap.
// Defaults to SiteConfig.StaticRoutes.
func WithRoutes(r RouteLister) GeneratorOption {
	return func(g *Generator) { g.routes = r }
}

// WithContentFS lets the generator read local cover images referenced by articles.
// Without it, article images are published as written.
func WithContentFS(fsys fs.FS) GeneratorOption {
	return func(g *Generator) { g.contentFS = fsys }
}

// NewGenerator creates a Generator.
func NewGenerator(cfg SiteConfig, views ViewFuncs, log logrus.FieldLogger, opts ...GeneratorOption) *Generator {
	cfg.setDefaults()
	if log == nil {
		log = logrus.StandardLogger()
	}
	g := &Generator{
		cfg:    cfg,
		views:  views,
		routes: StaticRoutes(cfg.StaticRoutes),
		log:    log.WithField("component", "generator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Build renders every artifact for articles and writes them to the output
// directory. Artifacts are assembled in memory and staged next to the output
// directory; the previous output is only replaced once everything succeeded.
func (g *Generator) Build(ctx context.Context, articles []Article) (*BuildResult, error) {
	set, pages, err := g.Render(ctx, articles)
	if err != nil {
		return nil, err
	}
	if err := g.publish(set); err != nil {
		return nil, err
	}
	res := &BuildResult{
		OutputDir: g.cfg.OutputDir,
		Artifacts: set.paths(),
		Articles:  len(articles),
		Pages:     pages,
	}
	g.log.WithFields(logrus.Fields{
		"articles":  res.Articles,
		"pages":     res.Pages,
		"artifacts": len(res.Artifacts),
		"output":    res.OutputDir,
	}).Info("build complete")
	return res, nil
}

// Render produces every artifact in memory without touching the disk. It
// returns the artifact set and the number of listing pages.
func (g *Generator) Render(ctx context.Context, articles []Article) (*ArtifactSet, int, error) {
	if err := validateAll(articles); err != nil {
		return nil, 0, err
	}
	repo := NewRepository(articles).WithOffset(g.cfg.offsetFunc())
	sorted, err := repo.FetchSorted(SortByPublished, Desc)
	if err != nil {
		return nil, 0, err
	}

	set := newArtifactSet()
	sorted, err = g.publishCovers(sorted, set)
	if err != nil {
		return nil, 0, err
	}
	// Covers rewrite Image, so page slices come from the rewritten records.
	repo = NewRepository(sorted).WithOffset(g.cfg.offsetFunc())

	listings, err := g.planListings(repo)
	if err != nil {
		return nil, 0, err
	}
	tags := repo.Tags()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		for _, l := range listings {
			l.Tags = tags
			if err := g.renderComponent(ctx, set, listingFile(l.Pagination.CurrentPage), g.views.Index(l)); err != nil {
				return err
			}
		}
		return nil
	})
	eg.Go(func() error {
		for _, a := range sorted {
			related := FilterRelatedArticles(a, sorted)
			file := path.Join("articles", a.Slug, indexFile)
			if err := g.renderComponent(ctx, set, file, g.views.Article(a, related)); err != nil {
				return err
			}
		}
		return nil
	})
	eg.Go(func() error {
		for _, tag := range tags {
			tagged, err := repo.FilterByTag(tag).FetchSorted(SortByPublished, Desc)
			if err != nil {
				return err
			}
			l := Listing{
				Articles:   tagged,
				Pagination: Pagination{CurrentPage: 1, TotalPages: 1},
				Tag:        tag,
				Tags:       tags,
			}
			file := path.Join("tags", tag, indexFile)
			if err := g.renderComponent(ctx, set, file, g.views.Index(l)); err != nil {
				return err
			}
		}
		return nil
	})
	eg.Go(func() error {
		b, err := RenderRSS(g.cfg, sorted)
		if err != nil {
			return err
		}
		set.put(RSSFile, b)
		return nil
	})
	eg.Go(func() error {
		b, err := RenderJSONFeed(g.cfg, sorted)
		if err != nil {
			return err
		}
		set.put(JSONFeedFile, b)
		return nil
	})
	eg.Go(func() error {
		b, err := RenderSitemap(g.cfg, g.routes, len(listings), sorted)
		if err != nil {
			return err
		}
		set.put(SitemapFile, b)
		return nil
	})
	eg.Go(func() error {
		set.put(RobotsFile, RenderRobots(g.cfg))
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, 0, err
	}
	return set, len(listings), nil
}

// planListings slices the sorted corpus into listing pages. An empty corpus
// still yields a first page so the site has an index.
func (g *Generator) planListings(repo *Repository) ([]Listing, error) {
	perPage := g.cfg.PerPage
	if repo.Len() == 0 {
		p, err := PlanPage(1, 0, perPage)
		if err != nil {
			return nil, err
		}
		return []Listing{{Pagination: p}}, nil
	}

	var listings []Listing
	for n := 1; ; n++ {
		page, err := repo.FetchPage(n, perPage)
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		p, err := PlanPage(n, repo.Len(), perPage)
		if err != nil {
			return nil, err
		}
		listings = append(listings, Listing{Articles: page, Pagination: p})
	}
	// With the legacy offset the last planned pages can be empty; navigation
	// must stop at the last page actually written.
	last := len(listings)
	if last > 0 && last < listings[0].Pagination.TotalPages {
		g.log.WithField("planned", listings[0].Pagination.TotalPages).
			WithField("written", last).
			Warn("legacy page offset leaves trailing pages empty")
		for i := range listings {
			listings[i].Pagination.TotalPages = last
			listings[i].Pagination.HasNext = i+1 < last
			if !listings[i].Pagination.HasNext {
				listings[i].Pagination.NextPage = 0
			}
		}
	}
	return listings, nil
}

// publishCovers processes local cover images and points each article's
// Image at the published copy.
func (g *Generator) publishCovers(articles []Article, set *ArtifactSet) ([]Article, error) {
	if g.contentFS == nil {
		return articles, nil
	}
	out := make([]Article, len(articles))
	copy(out, articles)
	for i, a := range out {
		if !isLocalImage(a.Image) {
			continue
		}
		file, data, err := coverImage(g.contentFS, a, g.cfg.MaxImageWidth)
		if err != nil {
			return nil, err
		}
		set.put(file, data)
		out[i].Image = "/" + file
		g.log.WithField("slug", a.Slug).WithField("artifact", file).Debug("cover image processed")
	}
	return out, nil
}

func (g *Generator) renderComponent(ctx context.Context, set *ArtifactSet, file string, cmp templ.Component) error {
	if cmp == nil {
		return fmt.Errorf("sitegen: no view for %s", file)
	}
	var buf bytes.Buffer
	if err := cmp.Render(ctx, &buf); err != nil {
		return fmt.Errorf("sitegen: render %s: %w", file, err)
	}
	set.put(file, buf.Bytes())
	return nil
}

// publish writes the set to a staging directory and swaps it in for the
// output directory. Files from the public directory are copied first so
// generated artifacts win on conflicts.
func (g *Generator) publish(set *ArtifactSet) error {
	out := filepath.Clean(g.cfg.OutputDir)
	staging := out + ".staging"
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("sitegen: clear staging: %w", err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("sitegen: create staging: %w", err)
	}
	if g.cfg.PublicDir != "" {
		if info, err := os.Stat(g.cfg.PublicDir); err == nil && info.IsDir() {
			if err := os.CopyFS(staging, os.DirFS(g.cfg.PublicDir)); err != nil {
				os.RemoveAll(staging)
				return fmt.Errorf("sitegen: copy public dir: %w", err)
			}
		}
	}
	for _, p := range set.paths() {
		dst := filepath.Join(staging, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			os.RemoveAll(staging)
			return err
		}
		if err := os.WriteFile(dst, set.get(p), 0o644); err != nil {
			os.RemoveAll(staging)
			return fmt.Errorf("sitegen: write %s: %w", p, err)
		}
		g.log.WithField("artifact", p).Debug("artifact written")
	}
	return swapDir(staging, out)
}

// rename is replaced in tests to simulate a failing swap.
var rename = os.Rename

// swapDir moves staging into place at out. The previous out is parked next
// to it and restored if the swap fails.
func swapDir(staging, out string) error {
	old := out + ".old"
	if err := os.RemoveAll(old); err != nil {
		os.RemoveAll(staging)
		return fmt.Errorf("sitegen: clear previous output: %w", err)
	}
	hadOutput := false
	if _, err := os.Stat(out); err == nil {
		if err := rename(out, old); err != nil {
			os.RemoveAll(staging)
			return fmt.Errorf("sitegen: park previous output: %w", err)
		}
		hadOutput = true
	}
	if err := rename(staging, out); err != nil {
		os.RemoveAll(staging)
		if hadOutput {
			if rerr := rename(old, out); rerr != nil {
				return fmt.Errorf("sitegen: publish output: %w (previous output left at %s: %v)", err, old, rerr)
			}
		}
		return fmt.Errorf("sitegen: publish output: %w", err)
	}
	if hadOutput {
		if err := os.RemoveAll(old); err != nil {
			return fmt.Errorf("sitegen: remove previous output: %w", err)
		}
	}
	return nil
}

// listingFile is the output path of listing page n.
func listingFile(n int) string {
	if n <= 1 {
		return indexFile
	}
	return path.Join(PagePath(n)[1:], indexFile)
}

// ArtifactSet collects rendered files keyed by their path in the output tree.
// Emitters running concurrently add to it.
type ArtifactSet struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newArtifactSet() *ArtifactSet {
	return &ArtifactSet{files: make(map[string][]byte)}
}

func (s *ArtifactSet) put(p string, b []byte) {
	s.mu.Lock()
	s.files[p] = b
	s.mu.Unlock()
}

func (s *ArtifactSet) get(p string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[p]
}

// Get returns the content of the artifact at p, or nil.
func (s *ArtifactSet) Get(p string) []byte {
	return s.get(p)
}

func (s *ArtifactSet) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.files))
	for p := range s.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Paths returns the sorted artifact paths.
func (s *ArtifactSet) Paths() []string {
	return s.paths()
}
