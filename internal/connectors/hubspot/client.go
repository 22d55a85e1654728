package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

const (
	// DefaultBaseURL is the HubSpot API endpoint.
	DefaultBaseURL = "https://api.hubapi.com"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of retries after a 429 response.
	MaxRetries = 3

	// RetryDelay is the fallback delay when no Retry-After header is sent.
	RetryDelay = 2 * time.Second

	// ProactiveRate stays under HubSpot's 110 requests per 10 seconds.
	ProactiveRate = 10

	// PageLimit is the CRM API page size.
	PageLimit = 100

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"
)

// Object is one CRM object as returned by the v3 objects API.
// Property values arrive as strings regardless of their logical type.
type Object struct {
	ID           string                    `json:"id"`
	Properties   map[string]string         `json:"properties"`
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
	Associations map[string]associationSet `json:"associations,omitempty"`
}

type associationSet struct {
	Results []Association `json:"results"`
}

// Association references one associated CRM object.
type Association struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// AssociatedIDs returns the IDs of associated objects of the given kind.
func (o *Object) AssociatedIDs(kind string) []string {
	set, ok := o.Associations[kind]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(set.Results))
	for _, a := range set.Results {
		ids = append(ids, a.ID)
	}
	return ids
}

type listResponse struct {
	Results []Object `json:"results"`
	Paging  *struct {
		Next struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging,omitempty"`
}

// Client is a minimal HubSpot CRM v3 client with proactive throttling
// and reactive 429 backoff.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = base }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client authenticated with a private app token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(ProactiveRate), ProactiveRate),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping verifies credentials with a minimal request.
func (c *Client) Ping(ctx context.Context) error {
	query := url.Values{"limit": {"1"}}
	var out listResponse
	return c.get(ctx, "/crm/v3/objects/tickets", query, &out)
}

// ListObjects pages through all CRM objects of the given type.
func (c *Client) ListObjects(ctx context.Context, objectType string, properties, associations []string) ([]Object, error) {
	var all []Object
	after := ""
	for {
		query := url.Values{"limit": {strconv.Itoa(PageLimit)}}
		for _, p := range properties {
			query.Add("properties", p)
		}
		for _, a := range associations {
			query.Add("associations", a)
		}
		if after != "" {
			query.Set("after", after)
		}

		var page listResponse
		if err := c.get(ctx, "/crm/v3/objects/"+objectType, query, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)

		if page.Paging == nil || page.Paging.Next.After == "" {
			return all, nil
		}
		after = page.Paging.Next.After
	}
}

// GetObject fetches one CRM object by ID.
func (c *Client) GetObject(ctx context.Context, objectType, id string, properties []string) (*Object, error) {
	query := url.Values{}
	for _, p := range properties {
		query.Add("properties", p)
	}
	var out Object
	if err := c.get(ctx, "/crm/v3/objects/"+objectType+"/"+id, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get performs one authenticated GET with throttling and 429 retries.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
		if err != nil {
			return domain.NewError(domain.KindSource, "build request", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return domain.NewError(domain.KindSource, "hubspot request", err).
				WithContext("path", path)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return domain.NewError(domain.KindSource, "read response", err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if err := c.backoff(ctx, resp, attempt); err != nil {
				return err
			}
			continue
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return domain.NewError(domain.KindSource, "hubspot auth", fmt.Errorf("status %d", resp.StatusCode)).
				WithContext("path", path)
		case resp.StatusCode >= 400:
			return domain.NewError(domain.KindSource, "hubspot request",
				fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200))).
				WithContext("path", path)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return domain.NewError(domain.KindParsing, "decode response", err).
				WithContext("path", path)
		}
		return nil
	}
	return fmt.Errorf("%w: retries exhausted after %d attempts", domain.ErrRateLimited, MaxRetries+1)
}

// backoff waits for Retry-After, or an exponential fallback.
func (c *Client) backoff(ctx context.Context, resp *http.Response, attempt int) error {
	delay := RetryDelay << attempt
	if retryAfter := resp.Header.Get(HeaderRetryAfter); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			delay = time.Duration(seconds) * time.Second
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
