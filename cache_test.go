package sitegen

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleCacheReloadsAfterInvalidate(t *testing.T) {
	s := setupTestStore(t)
	log, _ := quietLogger()
	fsys := fstest.MapFS{
		"one.md": md("title: One\npublished: 2024-01-01\n", "1"),
	}
	cache := NewArticleCache(s, fsys, time.Hour, SequentialOffset, log)
	ctx := context.Background()

	repo, err := cache.Repository(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Len())

	fsys["two.md"] = md("title: Two\npublished: 2024-01-02\n", "2")
	repo, err = cache.Repository(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Len(), "served from cache within the TTL")

	cache.Invalidate()
	repo, err = cache.Repository(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.Len())

	indexed, err := s.ListArticles(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, slugs(indexed))
}

func TestArticleCacheExpires(t *testing.T) {
	s := setupTestStore(t)
	log, _ := quietLogger()
	fsys := fstest.MapFS{"one.md": md("title: One\npublished: 2024-01-01\n", "1")}
	cache := NewArticleCache(s, fsys, 10*time.Millisecond, SequentialOffset, log)
	ctx := context.Background()

	_, err := cache.Repository(ctx)
	require.NoError(t, err)
	delete(fsys, "one.md")
	time.Sleep(20 * time.Millisecond)

	repo, err := cache.Repository(ctx)
	require.NoError(t, err)
	assert.Zero(t, repo.Len())
}

func TestArticleCachePropagatesLoadErrors(t *testing.T) {
	s := setupTestStore(t)
	log, _ := quietLogger()
	fsys := fstest.MapFS{"bad.md": md("published: 2024-01-01\n", "no title")}
	cache := NewArticleCache(s, fsys, time.Hour, SequentialOffset, log)

	_, err := cache.Repository(context.Background())
	assert.ErrorIs(t, err, ErrMalformedContent)
}

func TestArticleCacheUsesOffset(t *testing.T) {
	s := setupTestStore(t)
	log, _ := quietLogger()
	fsys := fstest.MapFS{}
	for _, a := range numbered(5) {
		fsys[a.Slug+".md"] = md("title: "+a.Title+"\npublished: "+a.Published.Format("2006-01-02")+"\n", a.Body)
	}
	cache := NewArticleCache(s, fsys, time.Hour, LegacyOffset, log)

	repo, err := cache.Repository(context.Background())
	require.NoError(t, err)
	page, err := repo.FetchPage(2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"post-00"}, slugs(page))
}
