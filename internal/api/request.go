package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"dota-tracker/internal/domain"

	"github.com/valyala/fasthttp"
)

// RequestObserver receives one call per provider request with its outcome,
// and the provider's rate-limit headers whenever a response carries them.
// A header that is absent or unparsable is reported as -1.
type RequestObserver interface {
	ObserveRequest(source, outcome string)
	ObserveRateLimit(source string, limit, remaining int)
}

const (
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeTransient = "transient"
)

type httpClient struct {
	source   string
	client   *fasthttp.Client
	timeout  time.Duration
	headers  map[string]string
	observer RequestObserver
}

func newHTTPClient(source string, timeout time.Duration, observer RequestObserver) *httpClient {
	return &httpClient{
		source:  source,
		timeout: timeout,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		headers:  map[string]string{},
		observer: observer,
	}
}

func headerInt(resp *fasthttp.Response, key string) int {
	val, err := strconv.Atoi(string(resp.Header.Peek(key)))
	if err != nil {
		return -1
	}
	return val
}

func (c *httpClient) updateRateLimit(resp *fasthttp.Response) {
	limit := headerInt(resp, "X-Rate-Limit-Limit-Minute")
	remaining := headerInt(resp, "X-Rate-Limit-Remaining-Minute")
	if limit < 0 && remaining < 0 {
		return
	}
	if c.observer != nil {
		c.observer.ObserveRateLimit(c.source, limit, remaining)
	}
}

func (c *httpClient) observe(outcome string) {
	if c.observer != nil {
		c.observer.ObserveRequest(c.source, outcome)
	}
}

// doRequest performs a GET and classifies every failure as either
// domain.ErrNotFound (404) or domain.ErrTransient.
func doRequest[T any](ctx context.Context, c *httpClient, url string) (*T, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		c.observe(OutcomeTransient)
		return nil, fmt.Errorf("%s: decode response: %w: %w", c.source, domain.ErrTransient, err)
	}
	c.observe(OutcomeOK)
	return &result, nil
}

func (c *httpClient) get(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		c.observe(OutcomeTransient)
		return nil, fmt.Errorf("%s: %w: %w", c.source, domain.ErrTransient, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		c.observe(OutcomeTransient)
		return nil, fmt.Errorf("%s: request failed: %w: %w", c.source, domain.ErrTransient, err)
	}

	c.updateRateLimit(resp)

	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusNotFound:
		c.observe(OutcomeNotFound)
		return nil, fmt.Errorf("%s: %w", c.source, domain.ErrNotFound)
	case status != fasthttp.StatusOK:
		c.observe(OutcomeTransient)
		return nil, fmt.Errorf("%s: API error %d: %w", c.source, status, domain.ErrTransient)
	}

	// resp is released on return
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
