package sitegen

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func article(slug string, published time.Time, tags ...string) Article {
	return Article{
		Title:       "Title " + slug,
		Description: "About " + slug,
		Tags:        tags,
		Slug:        slug,
		Published:   published,
		Body:        "# " + slug + "\n\nBody of " + slug + ".\n",
		Source:      slug + ".md",
	}
}

// corpus is in discovery order; b and d share a publish date.
func corpus() []Article {
	return []Article{
		article("a", day(2024, 1, 1), "go"),
		article("b", day(2024, 3, 1), "go", "web"),
		article("c", day(2024, 2, 1), "web"),
		article("d", day(2024, 3, 1)),
	}
}

func numbered(n int) []Article {
	out := make([]Article, n)
	for i := range out {
		out[i] = article(fmt.Sprintf("post-%02d", i), day(2024, 1, 1).AddDate(0, 0, i))
	}
	return out
}

func slugs(articles []Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Slug
	}
	return out
}

func TestFetchAllKeepsDiscoveryOrder(t *testing.T) {
	repo := NewRepository(corpus())
	all, err := repo.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, slugs(all))
	assert.Equal(t, "# a\n\nBody of a.\n", all[0].Body)
}

func TestFetchAllProjectsFields(t *testing.T) {
	repo := NewRepository(corpus())
	got, err := repo.FetchAll("slug", "Title")
	require.NoError(t, err)
	require.Len(t, got, 4)
	for _, a := range got {
		assert.NotEmpty(t, a.Slug)
		assert.NotEmpty(t, a.Title)
		assert.Empty(t, a.Body)
		assert.Empty(t, a.Description)
		assert.Nil(t, a.Tags)
		assert.True(t, a.Published.IsZero())
	}
}

func TestFetchAllUnknownField(t *testing.T) {
	_, err := NewRepository(corpus()).FetchAll("slug", "author")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestFetchSorted(t *testing.T) {
	repo := NewRepository(corpus())

	desc, err := repo.FetchSorted(SortByPublished, Desc)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d", "c", "a"}, slugs(desc))
	for i := 1; i < len(desc); i++ {
		assert.False(t, desc[i].Published.After(desc[i-1].Published), "not non-increasing at %d", i)
	}

	asc, err := repo.FetchSorted("published", Asc)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b", "d"}, slugs(asc))
	assert.ElementsMatch(t, slugs(desc), slugs(asc))
}

func TestFetchSortedRejectsUnsupported(t *testing.T) {
	repo := NewRepository(corpus())
	_, err := repo.FetchSorted("title", Desc)
	assert.ErrorIs(t, err, ErrUnsupportedSort)
	_, err = repo.FetchSorted(SortByPublished, "sideways")
	assert.ErrorIs(t, err, ErrUnsupportedSort)
}

func TestFetchSortedDoesNotMutate(t *testing.T) {
	src := corpus()
	repo := NewRepository(src)
	sorted, err := repo.FetchSorted(SortByPublished, Desc)
	require.NoError(t, err)
	sorted[0].Title = "changed"

	all, err := repo.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, slugs(all))
	assert.Equal(t, "Title b", all[1].Title)
	assert.Equal(t, "a", src[0].Slug)
}

func TestFetchPageSequential(t *testing.T) {
	repo := NewRepository(numbered(7))
	sorted, err := repo.FetchSorted(SortByPublished, Desc)
	require.NoError(t, err)

	var joined []Article
	for n, want := range []int{3, 3, 1} {
		page, err := repo.FetchPage(n+1, 3)
		require.NoError(t, err)
		assert.Len(t, page, want)
		joined = append(joined, page...)
	}
	assert.Equal(t, slugs(sorted), slugs(joined))
	assert.Equal(t, 3, repo.PageCount(3))

	_, err = repo.FetchPage(4, 3)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.FetchPage(0, 3)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.FetchPage(1, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchPageLegacyOffset(t *testing.T) {
	repo := NewRepository(numbered(7)).WithOffset(LegacyOffset)
	sorted, err := repo.FetchSorted(SortByPublished, Desc)
	require.NoError(t, err)

	p1, err := repo.FetchPage(1, 2)
	require.NoError(t, err)
	assert.Equal(t, slugs(sorted[0:2]), slugs(p1))

	p2, err := repo.FetchPage(2, 2)
	require.NoError(t, err)
	assert.Equal(t, slugs(sorted[4:6]), slugs(p2), "records 2 and 3 are skipped")

	p3, err := repo.FetchPage(3, 2)
	require.NoError(t, err)
	assert.Equal(t, slugs(sorted[6:7]), slugs(p3))

	_, err = repo.FetchPage(4, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 3, repo.PageCount(2))
}

func TestFetchPageEmptyRepository(t *testing.T) {
	repo := NewRepository(nil)
	_, err := repo.FetchPage(1, 5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, repo.PageCount(5))
}

func TestGet(t *testing.T) {
	repo := NewRepository(corpus())
	a, err := repo.Get("c")
	require.NoError(t, err)
	assert.Equal(t, "Title c", a.Title)

	_, err = repo.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilterByTagAndTags(t *testing.T) {
	repo := NewRepository(corpus())
	assert.Equal(t, []string{"go", "web"}, repo.Tags())

	web := repo.FilterByTag(" WEB ")
	all, err := web.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, slugs(all))

	assert.Zero(t, repo.FilterByTag("rust").Len())
}
