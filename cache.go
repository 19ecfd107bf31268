package sitegen

import (
	"context"
	"io/fs"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ArticleCache keeps the current corpus in memory for serve mode. When the
// TTL lapses the next read reloads the content directory, rewrites the Store
// and rebuilds the Repository from it.
type ArticleCache struct {
	mu      sync.RWMutex
	repo    *Repository
	fetched time.Time
	ttl     time.Duration
	offset  OffsetFunc

	store     *Store
	contentFS fs.FS
	log       logrus.FieldLogger
}

// NewArticleCache creates an ArticleCache that loads Markdown from fsys into s.
func NewArticleCache(s *Store, fsys fs.FS, ttl time.Duration, offset OffsetFunc, log logrus.FieldLogger) *ArticleCache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ArticleCache{
		store:     s,
		contentFS: fsys,
		ttl:       ttl,
		offset:    offset,
		log:       log.WithField("component", "cache"),
	}
}

func (c *ArticleCache) valid() bool {
	return c.repo != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *ArticleCache) Invalidate() {
	c.mu.Lock()
	c.repo = nil
	c.mu.Unlock()
}

func (c *ArticleCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	articles, err := LoadDirectory(ctx, c.contentFS, ".")
	if err != nil {
		return err
	}
	if err := c.store.ReplaceAll(ctx, articles); err != nil {
		return err
	}
	indexed, err := c.store.ListArticles(ctx, "")
	if err != nil {
		return err
	}
	c.repo = NewRepository(indexed).WithOffset(c.offset)
	c.fetched = time.Now()
	c.log.WithField("count", len(indexed)).Info("content reloaded")
	return nil
}

// Repository returns the current corpus, reloading it first when stale.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *ArticleCache) Repository(ctx context.Context) (*Repository, error) {
	c.mu.RLock()
	if c.valid() {
		repo := c.repo
		c.mu.RUnlock()
		return repo, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c.repo, nil
}
