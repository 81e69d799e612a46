package client

import (
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
)

const defaultUserAgent = "ccdb-go-client"

// Client is the ccdb API entry point. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	referer   string
	userAgent string
	obs       *observer
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ccdb: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.New("ccdb: base url must be absolute")
	}
	base.Path = strings.TrimSuffix(base.Path, "/")

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = http.DefaultClient
	}
	ua := cfg.userAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &Client{base: base, http: hc, referer: cfg.referer, userAgent: ua, obs: obs}, nil
}

// Search runs one page of results with aggregations.
func (c *Client) Search(ctx context.Context, q Query) (_ *SearchResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	var out SearchResponse
	if err = c.getJSON(ctx, "/search", q.Values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Document returns a single complaint by id.
func (c *Client) Document(ctx context.Context, id string) (_ *Hit, err error) {
	start := time.Now()
	defer func() { c.obs.observe("document", start, err) }()

	var out Hit
	if err = c.getJSON(ctx, "/document/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SuggestZip returns zip codes starting with text.
func (c *Client) SuggestZip(ctx context.Context, text string) (_ []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("suggest_zip", start, err) }()

	var out []string
	if err = c.getJSON(ctx, "/_suggest_zip", url.Values{"text": {text}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Export streams an export of q into w and returns the bytes copied. The
// response is never buffered in memory.
func (c *Client) Export(ctx context.Context, q Query, f Format, w io.Writer) (n int64, err error) {
	start := time.Now()
	defer func() { c.obs.observe("export", start, err) }()

	if f != FormatCSV && f != FormatJSON {
		return 0, fmt.Errorf("ccdb: unsupported export format %q", f)
	}
	v := q.Values()
	v.Set("format", string(f))

	resp, err := c.do(ctx, "/search", v)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	n, err = io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("ccdb: copy export: %w", err)
	}
	return n, nil
}

// Health reports the service health. A degraded or failing service is not
// an error.
func (c *Client) Health(ctx context.Context) (_ HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("health", start, err) }()

	req, err := c.newRequest(ctx, "/health", nil)
	if err != nil {
		return HealthStatus{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("ccdb: health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out HealthStatus
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return HealthStatus{}, fmt.Errorf("ccdb: decode health: %w", err)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	resp, err := c.do(ctx, path, q)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ccdb: decode %s: %w", path, err)
	}
	return nil
}

// do sends a GET and turns non-2xx responses into *APIError.
func (c *Client) do(ctx context.Context, path string, q url.Values) (*http.Response, error) {
	req, err := c.newRequest(ctx, path, q)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ccdb: GET %s: %w", path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()
	return nil, decodeError(resp)
}

func (c *Client) newRequest(ctx context.Context, path string, q url.Values) (*http.Request, error) {
	u := *c.base
	u.Path += path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("ccdb: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}
	return req, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}
	for _, key := range []string{"error", "detail"} {
		if raw, ok := body[key]; ok {
			var msg string
			if json.Unmarshal(raw, &msg) == nil {
				apiErr.Message = msg
				return apiErr
			}
		}
	}

	apiErr.Fields = make(map[string][]string, len(body))
	for field, raw := range body {
		var msgs []string
		if json.Unmarshal(raw, &msgs) == nil {
			apiErr.Fields[field] = msgs
		}
	}
	return apiErr
}
