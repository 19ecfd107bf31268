package sitegen

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/sitegen/newsletter"
)

// handleSubscribe forwards a newsletter signup. Failures answer 500 with the
// message as a JSON string; success relays the upstream body.
func (a *App) handleSubscribe(c echo.Context) error {
	if !a.limiter.Allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, "Too many requests. Try again later.")
	}

	var s newsletter.Signup
	if err := c.Echo().JSONSerializer.Deserialize(c, &s); err != nil {
		a.Log.WithError(err).Warn("newsletter: bad request body")
		return c.JSON(http.StatusInternalServerError, "Invalid request body")
	}
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.Email = strings.TrimSpace(s.Email)
	if err := s.Validate(); err != nil {
		return c.JSON(http.StatusInternalServerError, err.Error())
	}

	body, err := a.subscriber.Subscribe(c.Request().Context(), s)
	if err != nil {
		a.Log.WithError(err).WithField("email", s.Email).Warn("newsletter: signup failed")
		return c.JSON(http.StatusInternalServerError, err.Error())
	}
	a.Log.WithField("email", s.Email).Info("newsletter: subscribed")
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
}
