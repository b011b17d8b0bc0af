package transport

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-webmention/core"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Options struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRedirects int
	// Base is the round tripper wrapped by tracing and the user agent.
	// Defaults to http.DefaultTransport.
	Base http.RoundTripper
}

func OptionsFromConfig(cfg core.Config) Options {
	return Options{
		UserAgent:    cfg.UserAgent,
		Timeout:      time.Duration(cfg.Transport.TimeoutSeconds) * time.Second,
		MaxRedirects: cfg.Transport.MaxRedirects,
	}
}

// NewHTTPClient builds the default client: traced transport, fixed user
// agent, bounded redirects and an overall timeout.
func NewHTTPClient(opts Options) *http.Client {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = core.DefaultUserAgent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = core.DefaultTimeoutSeconds * time.Second
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = core.DefaultMaxRedirects
	}

	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(userAgentTransport{
			base:      base,
			userAgent: userAgent,
		}),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("transport: stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}
