package sitegen

import (
	"io/fs"
	"os"
	"strings"
	"time"
)

// SiteConfig holds all configuration for a sitegen site. Generation code
// reads only this struct, never the process environment.
type SiteConfig struct {
	Name        string // Site name (default "Blog")
	URL         string // Canonical base URL (default "http://localhost:3000")
	Description string // Site description for feeds and meta tags
	Language    string // Feed language (default "en")
	AuthorName  string // Fixed author identity on every feed entry
	AuthorEmail string

	ContentDir string // Markdown source directory (default "content")
	OutputDir  string // Build output directory (default "dist")
	PublicDir  string // Static assets copied into the build and served under /public (default "public")
	PerPage    int    // Articles per listing page (default 5)

	// LegacyPageOffset pages with the n*perPage offset of the first release
	// instead of (n-1)*perPage.
	LegacyPageOffset bool

	// StaticRoutes are extra site-relative paths listed in the sitemap.
	StaticRoutes []string

	MaxImageWidth int // Cover images wider than this are scaled down (default 800)

	Addr          string        // Listen address for serve mode (default ":3000")
	IndexPath     string        // SQLite article index for serve mode (default "data/index.db")
	CacheTTL      time.Duration // Article cache TTL in serve mode (default 1min)
	SubscribeRate int           // Newsletter signups per IP per minute (default 5)

	NewsletterEndpoint string // GraphQL endpoint receiving signups
	NewsletterToken    string // Bearer token for the GraphQL endpoint
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimRight(c.URL, "/")
	if c.Language == "" {
		c.Language = "en"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.OutputDir == "" {
		c.OutputDir = "dist"
	}
	if c.PublicDir == "" {
		c.PublicDir = "public"
	}
	if c.PerPage <= 0 {
		c.PerPage = DefaultPerPage
	}
	if c.MaxImageWidth <= 0 {
		c.MaxImageWidth = 800
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.IndexPath == "" {
		c.IndexPath = "data/index.db"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Minute
	}
	if c.SubscribeRate <= 0 {
		c.SubscribeRate = 5
	}
}

// WithDefaults returns a copy of c with every unset field defaulted.
func (c SiteConfig) WithDefaults() SiteConfig {
	c.setDefaults()
	return c
}

func (c SiteConfig) offsetFunc() OffsetFunc {
	if c.LegacyPageOffset {
		return LegacyOffset
	}
	return SequentialOffset
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithContent sets the filesystem the article cache loads Markdown from.
// Defaults to os.DirFS(SiteConfig.ContentDir).
func WithContent(fsys fs.FS) Option {
	return func(a *App) {
		a.contentFS = fsys
	}
}

// WithSubscriber replaces the newsletter client used by the signup endpoint.
func WithSubscriber(s Subscriber) Option {
	return func(a *App) {
		a.subscriber = s
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
