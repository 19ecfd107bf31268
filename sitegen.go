// Package sitegen builds a static blog from a directory of Markdown articles.
// It renders paginated listing pages, article pages, an RSS feed, a JSON
// Feed and a sitemap, and can serve the same content over HTTP together with
// a newsletter signup endpoint.
//
// Views are supplied by the caller through ViewFuncs so that the pipeline
// never depends on a particular set of templates.
package sitegen

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eringen/sitegen/newsletter"
)

// ViewFuncs holds the templ components the generator and the server call
// when rendering pages.
type ViewFuncs struct {
	Index       func(listing Listing) templ.Component
	Article     func(article Article, related []Article) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// Subscriber forwards a newsletter signup and returns the upstream response.
type Subscriber interface {
	Subscribe(ctx context.Context, s newsletter.Signup) ([]byte, error)
}

// App serves the site over HTTP. It wires together the article index,
// cache, handlers, middleware, and user-provided templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *ArticleCache
	Views  ViewFuncs
	Log    logrus.FieldLogger

	limiter      *RateLimiter
	subscriber   Subscriber
	contentFS    fs.FS
	customRoutes []func(*App)
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, log logrus.FieldLogger, opts ...Option) *App {
	cfg.setDefaults()
	if log == nil {
		log = logrus.StandardLogger()
	}

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  views,
		Log:    log,
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init opens the article index, primes the cache and registers middleware
// and routes. Start calls it; tests call it directly.
func (a *App) Init(ctx context.Context) error {
	if a.contentFS == nil {
		a.contentFS = os.DirFS(a.Config.ContentDir)
	}
	if a.subscriber == nil {
		a.subscriber = newsletter.NewClient(a.Config.NewsletterEndpoint, a.Config.NewsletterToken)
	}

	store, err := NewStore(a.Config.IndexPath)
	if err != nil {
		return fmt.Errorf("sitegen: init store: %w", err)
	}
	a.Store = store

	a.Cache = NewArticleCache(a.Store, a.contentFS, a.Config.CacheTTL, a.Config.offsetFunc(), a.Log)
	if _, err := a.Cache.Repository(ctx); err != nil {
		return fmt.Errorf("sitegen: load content: %w", err)
	}

	a.limiter = NewRateLimiter(a.Config.SubscribeRate, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the app and serves until the server is shut down.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}
	a.Log.WithField("addr", a.Config.Addr).Info("serving")
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.PublicDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/"+RSSFile, a.handleRSS)
	e.GET("/"+JSONFeedFile, a.handleJSONFeed)

	e.GET("/", a.handleIndex)
	e.GET("/page/:n", a.handlePage)
	e.GET("/articles/:slug", a.handleArticle)
	e.GET("/tags/:tag", a.handleTag)

	e.POST("/api/newsletter", a.handleSubscribe)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
