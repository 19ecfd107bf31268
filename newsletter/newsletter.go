// Package newsletter forwards newsletter signups to a GraphQL API.
//
// A signup is a single POST with no retry. The upstream's uniqueness
// violation is reported as ErrAlreadySubscribed; every other upstream error
// message is passed through unchanged.
package newsletter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goccy/go-json"
)

// DefaultMutation creates one subscriber record.
const DefaultMutation = `mutation CreateSubscriber($firstName: String!, $email: String!) {
  createSubscriber(data: { firstName: $firstName, email: $email }) {
    _id
    firstName
    email
  }
}`

// uniqueViolation is the upstream message for a duplicate record.
const uniqueViolation = "instance not unique"

var (
	// ErrAlreadySubscribed is returned when the email is already on the list.
	ErrAlreadySubscribed = errors.New("Email already subscribed.")
	// ErrNotConfigured is returned when no endpoint has been set.
	ErrNotConfigured = errors.New("Newsletter is not configured")
)

// Signup is the data a reader submits.
type Signup struct {
	FirstName string `json:"firstName"`
	Email     string `json:"email"`
}

// Validate reports the first missing or malformed field. Messages are meant
// to be shown to the reader as is.
func (s Signup) Validate() error {
	if err := validation.Validate(s.FirstName, validation.Required.Error("First name is required")); err != nil {
		return err
	}
	if err := validation.Validate(s.Email, validation.Required.Error("Email is required")); err != nil {
		return err
	}
	return validation.Validate(s.Email, is.EmailFormat.Error("Email is invalid"))
}

// UpstreamError is a failure reported by the GraphQL API or its transport.
type UpstreamError struct {
	Status  int // HTTP status, 0 when the request never completed
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// Client sends signups to a GraphQL endpoint.
type Client struct {
	endpoint string
	token    string
	mutation string
	http     *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithMutation replaces DefaultMutation. The mutation receives the
// $firstName and $email variables.
func WithMutation(m string) ClientOption {
	return func(c *Client) { c.mutation = m }
}

// NewClient creates a Client posting to endpoint with a bearer token.
func NewClient(endpoint, token string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: strings.TrimSpace(endpoint),
		token:    token,
		mutation: DefaultMutation,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Subscribe sends s upstream once and returns the raw response body on success.
func (c *Client) Subscribe(ctx context.Context, s Signup) ([]byte, error) {
	if c.endpoint == "" {
		return nil, ErrNotConfigured
	}
	payload, err := json.Marshal(graphQLRequest{
		Query: c.mutation,
		Variables: map[string]any{
			"firstName": s.FirstName,
			"email":     s.Email,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("newsletter: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("newsletter: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: err.Error()}
	}

	var parsed graphQLResponse
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		return nil, mapErrors(resp.StatusCode, parsed)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("upstream returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}
	return body, nil
}

func mapErrors(status int, r graphQLResponse) error {
	for _, e := range r.Errors {
		if strings.Contains(strings.ToLower(e.Message), uniqueViolation) {
			return ErrAlreadySubscribed
		}
	}
	return &UpstreamError{Status: status, Message: r.Errors[0].Message}
}
