package sitegen

import "errors"

var (
	// ErrNotFound is returned when a page, slug or tag resolves to no content.
	ErrNotFound = errors.New("sitegen: no content found")
	// ErrMalformedContent is returned when an article is missing a required
	// field or its front matter cannot be parsed. It aborts a build.
	ErrMalformedContent = errors.New("sitegen: malformed content")
	// ErrUnknownField is returned when a projection names a field Article does not have.
	ErrUnknownField = errors.New("sitegen: unknown field")
	// ErrUnsupportedSort is returned when sorting by anything other than the publish date.
	ErrUnsupportedSort = errors.New("sitegen: unsupported sort field")
)
