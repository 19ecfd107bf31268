package sitegen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/a-h/templ"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubViews renders just enough to assert on.
func stubViews() ViewFuncs {
	return ViewFuncs{
		Index: func(l Listing) templ.Component {
			return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
				fmt.Fprintf(w, "tag=%s page=%d/%d next=%d prev=%d:", l.Tag, l.Pagination.CurrentPage,
					l.Pagination.TotalPages, l.Pagination.NextPage, l.Pagination.PreviousPage)
				for _, a := range l.Articles {
					fmt.Fprintf(w, " %s", a.Slug)
				}
				return nil
			})
		},
		Article: func(a Article, related []Article) templ.Component {
			return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
				fmt.Fprintf(w, "article=%s image=%s related=%s", a.Slug, a.Image, strings.Join(slugs(related), ","))
				return nil
			})
		},
		NotFound: func() templ.Component {
			return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
				_, err := io.WriteString(w, "not found page")
				return err
			})
		},
		ServerError: func() templ.Component {
			return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
				_, err := io.WriteString(w, "server error page")
				return err
			})
		},
	}
}

func quietLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

func buildConfig(t *testing.T) SiteConfig {
	t.Helper()
	dir := t.TempDir()
	public := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(public, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(public, "styles.css"), []byte("body{}"), 0o644))
	cfg := testConfig()
	cfg.OutputDir = filepath.Join(dir, "dist")
	cfg.PublicDir = public
	cfg.PerPage = 2
	return cfg
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		out[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestBuildWritesSite(t *testing.T) {
	cfg := buildConfig(t)
	log, hook := quietLogger()
	gen := NewGenerator(cfg, stubViews(), log, WithRoutes(StaticRoutes{"/about"}))

	res, err := gen.Build(context.Background(), corpus())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Articles)
	assert.Equal(t, 2, res.Pages)

	tree := readTree(t, cfg.OutputDir)
	for _, p := range []string{
		"index.html", "page/2/index.html",
		"articles/a/index.html", "articles/b/index.html", "articles/c/index.html", "articles/d/index.html",
		"tags/go/index.html", "tags/web/index.html",
		RSSFile, JSONFeedFile, SitemapFile, RobotsFile, "styles.css",
	} {
		assert.Contains(t, tree, p)
	}
	assert.Equal(t, "tag= page=1/2 next=2 prev=0: b d", tree["index.html"])
	assert.Equal(t, "tag= page=2/2 next=0 prev=1: c a", tree["page/2/index.html"])
	assert.Equal(t, "tag=web page=1/1 next=0 prev=0: b c", tree["tags/web/index.html"])
	assert.Equal(t, "article=b image= related=c,a", tree["articles/b/index.html"])
	assert.Contains(t, tree[SitemapFile], "https://example.com/about")
	assert.Equal(t, "body{}", tree["styles.css"])
	assert.NotContains(t, res.Artifacts, "styles.css")

	_, err = os.Stat(cfg.OutputDir + ".staging")
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, "build complete", hook.LastEntry().Message)
}

func TestBuildIsIdempotent(t *testing.T) {
	cfg := buildConfig(t)
	log, _ := quietLogger()
	gen := NewGenerator(cfg, stubViews(), log)

	_, err := gen.Build(context.Background(), corpus())
	require.NoError(t, err)
	first := readTree(t, cfg.OutputDir)

	_, err = gen.Build(context.Background(), corpus())
	require.NoError(t, err)
	assert.Equal(t, first, readTree(t, cfg.OutputDir))
}

func TestFailedBuildKeepsPreviousOutput(t *testing.T) {
	cfg := buildConfig(t)
	log, _ := quietLogger()
	gen := NewGenerator(cfg, stubViews(), log)

	_, err := gen.Build(context.Background(), corpus())
	require.NoError(t, err)
	before := readTree(t, cfg.OutputDir)

	bad := corpus()
	bad[0].Published = bad[0].Published.AddDate(1, 0, 0)
	bad[1].Title = ""
	_, err = gen.Build(context.Background(), bad)
	require.ErrorIs(t, err, ErrMalformedContent)
	assert.Equal(t, before, readTree(t, cfg.OutputDir))
}

func TestBuildEmptyCorpus(t *testing.T) {
	cfg := buildConfig(t)
	log, _ := quietLogger()
	res, err := NewGenerator(cfg, stubViews(), log).Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)

	tree := readTree(t, cfg.OutputDir)
	assert.Equal(t, "tag= page=1/0 next=0 prev=0:", tree["index.html"])
	assert.NotContains(t, tree, "page/2/index.html")
	assert.Contains(t, tree, RSSFile)
}

func TestRenderLegacyOffsetClampsNavigation(t *testing.T) {
	cfg := testConfig()
	cfg.PerPage = 2
	cfg.LegacyPageOffset = true
	log, hook := quietLogger()

	set, pages, err := NewGenerator(cfg, stubViews(), log).Render(context.Background(), numbered(7))
	require.NoError(t, err)
	assert.Equal(t, 3, pages)
	assert.Equal(t, "tag= page=1/3 next=2 prev=0: post-06 post-05", string(set.Get("index.html")))
	assert.Equal(t, "tag= page=2/3 next=3 prev=1: post-02 post-01", string(set.Get("page/2/index.html")))
	assert.Equal(t, "tag= page=3/3 next=0 prev=2: post-00", string(set.Get("page/3/index.html")))
	assert.Nil(t, set.Get("page/4/index.html"))

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRenderMissingView(t *testing.T) {
	views := stubViews()
	views.Article = func(Article, []Article) templ.Component { return nil }
	log, _ := quietLogger()
	_, _, err := NewGenerator(testConfig(), views, log).Render(context.Background(), corpus())
	assert.Error(t, err)
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRenderProcessesCoverImages(t *testing.T) {
	articles := corpus()
	articles[0].Source = "posts/a.md"
	articles[0].Image = "a-cover.png"
	articles[1].Image = "https://cdn.example.com/b.png"
	contentFS := fstest.MapFS{"posts/a-cover.png": {Data: pngImage(t, 1600, 400)}}

	log, _ := quietLogger()
	gen := NewGenerator(testConfig(), stubViews(), log, WithContentFS(contentFS))
	set, _, err := gen.Render(context.Background(), articles)
	require.NoError(t, err)

	data := set.Get("images/a.jpg")
	require.NotNil(t, data)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())

	assert.Contains(t, string(set.Get("articles/a/index.html")), "image=/images/a.jpg")
	assert.Contains(t, string(set.Get("articles/b/index.html")), "image=https://cdn.example.com/b.png")
	assert.Contains(t, string(set.Get(JSONFeedFile)), "https://example.com/images/a.jpg")
}

func TestRenderMissingCoverImage(t *testing.T) {
	articles := corpus()
	articles[0].Image = "missing.png"
	log, _ := quietLogger()
	gen := NewGenerator(testConfig(), stubViews(), log, WithContentFS(fstest.MapFS{}))
	_, _, err := gen.Render(context.Background(), articles)
	assert.ErrorIs(t, err, ErrMalformedContent)
}

func TestRenderRejectsTagsOutsideSlugForm(t *testing.T) {
	for _, tag := range []string{"..", "../../escaped", "a/b", "a,b"} {
		t.Run(tag, func(t *testing.T) {
			articles := corpus()
			articles[0].Tags = []string{tag}
			log, _ := quietLogger()
			_, _, err := NewGenerator(testConfig(), stubViews(), log).Render(context.Background(), articles)
			assert.ErrorIs(t, err, ErrMalformedContent)
		})
	}
}

func TestBuildWithTraversalTagWritesNothingOutside(t *testing.T) {
	cfg := buildConfig(t)
	log, _ := quietLogger()
	gen := NewGenerator(cfg, stubViews(), log)
	_, err := gen.Build(context.Background(), corpus())
	require.NoError(t, err)
	before := readTree(t, cfg.OutputDir)

	articles := corpus()
	articles[2].Tags = []string{"../../escaped"}
	_, err = gen.Build(context.Background(), articles)
	require.ErrorIs(t, err, ErrMalformedContent)

	root := filepath.Dir(cfg.OutputDir)
	_, err = os.Stat(filepath.Join(root, "escaped"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(filepath.Dir(root), "escaped"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, before, readTree(t, cfg.OutputDir))
	assert.Equal(t, "tag= page=1/2 next=2 prev=0: b d", before["index.html"])
}

func TestFailedSwapKeepsPreviousOutput(t *testing.T) {
	cfg := buildConfig(t)
	log, _ := quietLogger()
	gen := NewGenerator(cfg, stubViews(), log)
	_, err := gen.Build(context.Background(), corpus())
	require.NoError(t, err)
	before := readTree(t, cfg.OutputDir)

	staging := cfg.OutputDir + ".staging"
	rename = func(from, to string) error {
		if from == staging {
			return fmt.Errorf("rename %s: disk full", from)
		}
		return os.Rename(from, to)
	}
	t.Cleanup(func() { rename = os.Rename })

	more := append(corpus(), article("e", day(2024, 6, 1)))
	_, err = gen.Build(context.Background(), more)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, before, readTree(t, cfg.OutputDir))

	for _, dir := range []string{staging, cfg.OutputDir + ".old"} {
		_, err = os.Stat(dir)
		assert.True(t, os.IsNotExist(err), dir)
	}
}

func TestBuildLeavesNoParkedOutput(t *testing.T) {
	cfg := buildConfig(t)
	log, _ := quietLogger()
	gen := NewGenerator(cfg, stubViews(), log)
	for i := 0; i < 2; i++ {
		_, err := gen.Build(context.Background(), corpus())
		require.NoError(t, err)
	}
	for _, dir := range []string{cfg.OutputDir + ".staging", cfg.OutputDir + ".old"} {
		_, err := os.Stat(dir)
		assert.True(t, os.IsNotExist(err), dir)
	}
}

func TestRenderLeavesUnprocessedLocalImagesOutOfFeeds(t *testing.T) {
	articles := corpus()
	articles[1].Image = "cover.png"
	log, _ := quietLogger()
	set, _, err := NewGenerator(testConfig(), stubViews(), log).Render(context.Background(), articles)
	require.NoError(t, err)

	assert.NotContains(t, string(set.Get(JSONFeedFile)), "cover.png")
	assert.NotContains(t, string(set.Get(RSSFile)), "cover.png")
}
