// Package opendata proxies the government open-data APIs the copilot cites
// (BLS, Federal Register, College Scorecard, Regulations.gov) and a generic
// allow-listed GET pass-through.
package opendata

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hecopilot/copilot-backend/internal/apperr"
	"github.com/hecopilot/copilot-backend/internal/logging"
	"github.com/hecopilot/copilot-backend/internal/metrics"
)

const (
	DefaultTimeout      = 20 * time.Second
	DefaultMaxBodyBytes = 5 << 20
	maxRedirects        = 10
)

// Response is an upstream reply as the client hands it back and caches it.
type Response struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

type ClientOptions struct {
	Timeout           time.Duration
	RequestsPerSecond int
	Cache             Cache
	CacheTTL          time.Duration
	MaxBodyBytes      int64
	// HTTPClient replaces the default client; its Timeout is kept if set.
	HTTPClient *http.Client
}

// Client is shared by every open-data call: one rate limiter, one timeout,
// one optional response cache.
type Client struct {
	http     *http.Client
	limiter  *rate.Limiter
	cache    Cache
	cacheTTL time.Duration
	maxBody  int64
}

type redirectCheckKey struct{}

// withRedirectCheck makes every redirect hop of requests carrying ctx pass
// check before it is followed.
func withRedirectCheck(ctx context.Context, check func(*http.Request) error) context.Context {
	return context.WithValue(ctx, redirectCheckKey{}, check)
}

func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	hc := &http.Client{}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		hc = &copied
	}
	if hc.Timeout == 0 {
		hc.Timeout = opts.Timeout
	}
	hc.CheckRedirect = guardRedirect(hc.CheckRedirect)

	return &Client{
		http:     hc,
		limiter:  rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.RequestsPerSecond),
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		maxBody:  opts.MaxBodyBytes,
	}
}

func guardRedirect(next func(*http.Request, []*http.Request) error) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if check, ok := req.Context().Value(redirectCheckKey{}).(func(*http.Request) error); ok {
			if err := check(req); err != nil {
				return err
			}
		}
		if next != nil {
			return next(req, via)
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}
}

// Do sends req and returns the upstream reply whatever its status. Only
// transport failures are errors. Successful replies are cached under a key
// derived from method, URL and body.
func (c *Client) Do(ctx context.Context, upstream string, req *http.Request, body []byte) (*Response, error) {
	logger := logging.New(ctx)
	key := cacheKey(req, body)

	if c.cache != nil {
		if cached, ok := c.cacheGet(ctx, key); ok {
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperr.Upstream(upstream+": "+err.Error(), err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstreamCall(upstream, time.Since(start), err)
		logger.LogError(upstream, err)
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperr.Upstream(upstream+" request failed: "+err.Error(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		metrics.RecordUpstreamCall(upstream, time.Since(start), err)
		return nil, apperr.Upstream(upstream+" read failed: "+err.Error(), err)
	}
	if int64(len(data)) > c.maxBody {
		err = fmt.Errorf("body exceeds %d bytes", c.maxBody)
		metrics.RecordUpstreamCall(upstream, time.Since(start), err)
		logger.LogWarnf(upstream, "upstream reply larger than %d bytes", c.maxBody)
		return nil, apperr.Upstream(fmt.Sprintf("%s response exceeds %d bytes", upstream, c.maxBody), err)
	}

	out := &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}
	if !out.OK() {
		err = fmt.Errorf("status %d", resp.StatusCode)
		logger.LogWarnf(upstream, "upstream returned status %d", resp.StatusCode)
	}
	metrics.RecordUpstreamCall(upstream, time.Since(start), err)

	if c.cache != nil && out.OK() {
		c.cacheSet(ctx, key, out)
	}
	return out, nil
}

// GetJSON performs a GET and decodes a 2xx JSON body into out. Non-2xx
// replies become Upstream errors carrying the body verbatim.
func (c *Client) GetJSON(ctx context.Context, upstream, url string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperr.Upstream("create request: "+err.Error(), err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(ctx, upstream, req, nil)
	if err != nil {
		return err
	}
	return decode(upstream, resp, out)
}

// PostJSON sends payload as a JSON body and decodes a 2xx reply into out.
func (c *Client) PostJSON(ctx context.Context, upstream, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperr.Upstream("encode request: "+err.Error(), err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return apperr.Upstream("create request: "+err.Error(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(ctx, upstream, req, body)
	if err != nil {
		return err
	}
	return decode(upstream, resp, out)
}

func decode(upstream string, resp *Response, out any) error {
	if !resp.OK() {
		return apperr.Upstream(fmt.Sprintf("%s error %d: %s", upstream, resp.Status, strings.TrimSpace(string(resp.Body))), nil)
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return apperr.Upstream(fmt.Sprintf("%s returned invalid JSON: %v", upstream, err), err)
	}
	return nil
}

func (c *Client) cacheGet(ctx context.Context, key string) (*Response, bool) {
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		logging.New(ctx).LogWarnf("opendata.cache", "get %s: %v", key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var r Response
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, false
	}
	return &r, true
}

func (c *Client) cacheSet(ctx context.Context, key string, r *Response) {
	raw, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.cacheTTL); err != nil {
		logging.New(ctx).LogWarnf("opendata.cache", "set %s: %v", key, err)
	}
}

func cacheKey(req *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(req.Method))
	h.Write([]byte{0})
	h.Write([]byte(req.URL.String()))
	h.Write([]byte{0})
	h.Write([]byte(req.Header.Get("X-Api-Key")))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
