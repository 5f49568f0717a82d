package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rubiojr/estatedesk/pkg/core"
	"github.com/rubiojr/estatedesk/pkg/log"
	"github.com/rubiojr/estatedesk/pkg/version"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the backend answers 404.
var ErrNotFound = errors.New("not found")

// StatusError carries a non-2xx backend answer.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: backend returned status %d", e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Options configures a Client.
type Options struct {
	BaseURL string
	// Token, when set, is sent as a bearer token on every request.
	Token   string
	Timeout time.Duration
	// RequestsPerSecond caps outbound requests; 0 disables the limit.
	RequestsPerSecond float64
	// HTTPClient overrides the transport (tests). Token is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the property-management REST backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("backend base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend base URL must be http or https, got %q", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	hc := opts.HTTPClient
	if hc == nil {
		if opts.Token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
			hc = oauth2.NewClient(context.Background(), ts)
		} else {
			hc = &http.Client{}
		}
		hc.Timeout = timeout
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL: base,
		http:    hc,
		limiter: limiter,
		logger:  log.ForService("backend"),
	}, nil
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do performs a request and decodes a JSON answer into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "estatedesk/"+version.Version)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("failed to close response body: %v", err)
		}
	}()
	c.logger.Debugf("%s %s -> %d in %s", method, req.URL.RequestURI(), resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// ListParams are the query options accepted by every entity endpoint.
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

// ListEntity fetches one page of records for the entity. A response without
// the entity's key yields an empty slice.
func (c *Client) ListEntity(ctx context.Context, entity core.Entity, params ListParams) ([]core.Record, error) {
	query := entityQuery(entity, params)

	var payload map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, entity.Path, query, &payload); err != nil {
		return nil, err
	}

	raw, ok := payload[entity.ResponseKey]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return []core.Record{}, nil
	}

	var records []core.Record
	if err := decodeNumbers(raw, &records); err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", entity.ResponseKey, err)
	}
	if records == nil {
		records = []core.Record{}
	}
	return records, nil
}

// decodeNumbers keeps numbers as json.Number so large identifiers survive
// untouched.
func decodeNumbers(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(out)
}

func entityQuery(entity core.Entity, params ListParams) url.Values {
	page := params.Page
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	if params.Limit > 0 {
		limitParam := entity.LimitParam
		if limitParam == "" {
			limitParam = "limit"
		}
		query.Set(limitParam, strconv.Itoa(params.Limit))
	}
	if s := strings.TrimSpace(params.Search); s != "" {
		query.Set("search", s)
	}
	for k, v := range entity.FixedParams {
		query.Set(k, v)
	}
	return query
}
