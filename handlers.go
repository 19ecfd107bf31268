package sitegen

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

func (a *App) handleIndex(c echo.Context) error {
	return a.renderListing(c, 1)
}

func (a *App) handlePage(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		return ErrNotFound
	}
	if n == 1 {
		return c.Redirect(http.StatusMovedPermanently, PagePath(1))
	}
	return a.renderListing(c, n)
}

func (a *App) renderListing(c echo.Context, n int) error {
	ctx := c.Request().Context()
	listing, err := a.listing(ctx, n)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Index(listing))
}

// listing builds listing page n. An empty corpus still has a first page.
func (a *App) listing(ctx context.Context, n int) (Listing, error) {
	repo, err := a.Cache.Repository(ctx)
	if err != nil {
		return Listing{}, err
	}
	perPage := a.Config.PerPage
	tags, err := a.Store.ListTags(ctx)
	if err != nil {
		return Listing{}, err
	}
	if repo.Len() == 0 {
		p, err := PlanPage(n, 0, perPage)
		if err != nil {
			return Listing{}, err
		}
		return Listing{Pagination: p, Tags: tags}, nil
	}
	articles, err := repo.FetchPage(n, perPage)
	if err != nil {
		return Listing{}, err
	}
	p, err := PlanPage(n, repo.Len(), perPage)
	if err != nil {
		return Listing{}, err
	}
	if last := repo.PageCount(perPage); last < p.TotalPages {
		p.TotalPages = last
		p.HasNext = n < last
		if !p.HasNext {
			p.NextPage = 0
		}
	}
	return Listing{Articles: articles, Pagination: p, Tags: tags}, nil
}

func (a *App) handleArticle(c echo.Context) error {
	ctx := c.Request().Context()
	repo, err := a.Cache.Repository(ctx)
	if err != nil {
		return err
	}
	article, err := a.Store.GetArticle(ctx, c.Param("slug"))
	if err != nil {
		return err
	}
	sorted, err := repo.FetchSorted(SortByPublished, Desc)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Article(article, FilterRelatedArticles(article, sorted)))
}

func (a *App) handleTag(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := a.Cache.Repository(ctx); err != nil {
		return err
	}
	tag := normalizeTag(c.Param("tag"))
	if tag == "" {
		return ErrNotFound
	}
	tagged, err := a.Store.ListArticles(ctx, tag)
	if err != nil {
		return err
	}
	if len(tagged) == 0 {
		return ErrNotFound
	}
	sorted, err := NewRepository(tagged).FetchSorted(SortByPublished, Desc)
	if err != nil {
		return err
	}
	tags, err := a.Store.ListTags(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Index(Listing{
		Articles:   sorted,
		Pagination: Pagination{CurrentPage: 1, TotalPages: 1},
		Tag:        tag,
		Tags:       tags,
	}))
}

// sortedArticles returns the newest-first corpus for feed handlers.
func (a *App) sortedArticles(ctx context.Context) (*Repository, []Article, error) {
	repo, err := a.Cache.Repository(ctx)
	if err != nil {
		return nil, nil, err
	}
	sorted, err := repo.FetchSorted(SortByPublished, Desc)
	if err != nil {
		return nil, nil, err
	}
	return repo, sorted, nil
}

func (a *App) handleRSS(c echo.Context) error {
	_, sorted, err := a.sortedArticles(c.Request().Context())
	if err != nil {
		return err
	}
	b, err := RenderRSS(a.Config, sorted)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", b)
}

func (a *App) handleJSONFeed(c echo.Context) error {
	_, sorted, err := a.sortedArticles(c.Request().Context())
	if err != nil {
		return err
	}
	b, err := RenderJSONFeed(a.Config, sorted)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/feed+json; charset=utf-8", b)
}

func (a *App) handleSitemap(c echo.Context) error {
	repo, sorted, err := a.sortedArticles(c.Request().Context())
	if err != nil {
		return err
	}
	pages := repo.PageCount(a.Config.PerPage)
	if pages == 0 {
		pages = 1
	}
	b, err := RenderSitemap(a.Config, StaticRoutes(a.Config.StaticRoutes), pages, sorted)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", b)
}

func (a *App) handleRobots(c echo.Context) error {
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, RenderRobots(a.Config))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if errors.Is(err, ErrNotFound) {
		a.renderError(c, http.StatusNotFound, a.Views.NotFound)
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		a.renderError(c, http.StatusNotFound, a.Views.NotFound)
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Log.WithError(err).WithField("uri", c.Request().RequestURI).Error("server error")
		a.renderError(c, code, a.Views.ServerError)
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

func (a *App) renderError(c echo.Context, code int, view func() templ.Component) {
	if view == nil {
		_ = c.String(code, http.StatusText(code))
		return
	}
	_ = RenderStatus(c, code, view())
}

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	if c.Request().Method == http.MethodHead {
		return nil
	}
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}
