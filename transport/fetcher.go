package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-webmention/core"
)

const defaultResponseBodyLimit int64 = core.DefaultMaxResponseBytes

// HTTPDoer is the pre-configured transport the engines send requests
// through. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Request struct {
	Method  string
	URL     *url.URL
	Headers map[string]string
	Body    []byte
	// DiscardBody drains the response without keeping it.
	DiscardBody bool
}

// Fetcher executes a single request and returns the response with its body
// read into memory. It never retries.
type Fetcher struct {
	Client               HTTPDoer
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
}

func NewFetcher(client HTTPDoer) *Fetcher {
	if client == nil {
		client = NewHTTPClient(Options{})
	}
	return &Fetcher{
		Client:               client,
		DefaultHeaders:       map[string]string{},
		MaxResponseBodyBytes: defaultResponseBodyLimit,
	}
}

func (f *Fetcher) Do(ctx context.Context, req Request) (core.Representation, error) {
	if f == nil || f.Client == nil {
		return core.Representation{}, core.InternalError("transport: fetcher requires an http client", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.URL == nil || req.URL.String() == "" {
		return core.Representation{}, core.MalformedRequest("transport: request url is required", nil)
	}
	method := strings.TrimSpace(strings.ToUpper(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	target := req.URL.String()

	var body io.Reader = http.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return core.Representation{}, core.WrapMalformedRequest(
			err,
			"transport: create http request",
			map[string]any{"method": method, "url": target},
		)
	}
	for key, value := range f.DefaultHeaders {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	for key, value := range req.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	startedAt := time.Now()
	httpRes, err := f.Client.Do(httpReq)
	if err != nil {
		return core.Representation{}, core.TransportFailure(
			err,
			"transport: execute http request",
			map[string]any{"method": method, "url": target},
		)
	}
	defer httpRes.Body.Close()

	rep := core.Representation{
		StatusCode: httpRes.StatusCode,
		Reason:     ReasonPhrase(httpRes),
		Header:     httpRes.Header.Clone(),
		URL:        effectiveURL(httpRes, req.URL),
	}
	if rep.Header == nil {
		rep.Header = http.Header{}
	}

	limit := f.MaxResponseBodyBytes
	if limit <= 0 {
		limit = defaultResponseBodyLimit
	}
	if req.DiscardBody {
		_, _ = io.Copy(io.Discard, io.LimitReader(httpRes.Body, limit))
		return rep, nil
	}
	payload, err := io.ReadAll(io.LimitReader(httpRes.Body, limit+1))
	if err != nil {
		return core.Representation{}, core.TransportFailure(
			err,
			"transport: read response body",
			map[string]any{"url": target, "status_code": httpRes.StatusCode},
		)
	}
	if int64(len(payload)) > limit {
		return core.Representation{}, core.TransportFailure(
			nil,
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", limit),
			map[string]any{
				"url":              target,
				"status_code":      httpRes.StatusCode,
				"response_limit_b": limit,
				"duration_ms":      time.Since(startedAt).Milliseconds(),
			},
		)
	}
	rep.Body = payload
	return rep, nil
}

// ReasonPhrase returns the reason phrase of the status line, falling back
// to the standard text for the code.
func ReasonPhrase(res *http.Response) string {
	if res == nil {
		return ""
	}
	status := strings.TrimSpace(res.Status)
	prefix := strconv.Itoa(res.StatusCode)
	if strings.HasPrefix(status, prefix) {
		if reason := strings.TrimSpace(strings.TrimPrefix(status, prefix)); reason != "" {
			return reason
		}
	}
	return http.StatusText(res.StatusCode)
}

func effectiveURL(res *http.Response, requested *url.URL) *url.URL {
	if res != nil && res.Request != nil && res.Request.URL != nil {
		out := *res.Request.URL
		return &out
	}
	out := *requested
	return &out
}
