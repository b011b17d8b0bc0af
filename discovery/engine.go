// Package discovery locates the webmention endpoint a target advertises.
package discovery

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/goliatone/go-webmention/core"
	"github.com/goliatone/go-webmention/link"
	"github.com/goliatone/go-webmention/transport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/goliatone/go-webmention/discovery")

const acceptHeader = "text/html, application/xhtml+xml;q=0.9, */*;q=0.1"

// Engine performs endpoint discovery with exactly one GET per call.
type Engine struct {
	Fetcher  *transport.Fetcher
	Observer *core.Observer
}

func NewEngine(client transport.HTTPDoer) *Engine {
	return &Engine{
		Fetcher:  transport.NewFetcher(client),
		Observer: core.NewObserver(nil, nil),
	}
}

// Discover fetches target once. A Link header with the webmention relation
// wins; otherwise the first <link> or <a> carrying it in document order;
// otherwise the endpoint is absent. Relative references resolve against
// the effective response URL.
func (e *Engine) Discover(ctx context.Context, target *url.URL) (result core.DiscoveryResult, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := tracer.Start(ctx, "Discover", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	startedAt := time.Now()
	fields := map[string]any{"target": urlString(target)}
	defer func() {
		fields["signal"] = string(result.Signal)
		if endpoint, ok := result.Endpoint.Get(); ok {
			fields["endpoint"] = endpoint.String()
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("webmention.discovery.signal", string(result.Signal)))
		e.observer().Observe(ctx, startedAt, "discover", err, fields)
	}()

	if e == nil || e.Fetcher == nil {
		return noEndpoint(), core.InternalError("discovery: engine requires a fetcher", nil)
	}
	if target == nil || !target.IsAbs() {
		return noEndpoint(), core.MalformedRequest("discovery: target must be an absolute URL", map[string]any{"target": urlString(target)})
	}
	span.SetAttributes(attribute.String("webmention.target", target.String()))

	rep, err := e.Fetcher.Do(ctx, transport.Request{
		Method:  http.MethodGet,
		URL:     target,
		Headers: map[string]string{"Accept": acceptHeader},
	})
	if err != nil {
		return noEndpoint(), err
	}
	fields["status_code"] = rep.StatusCode

	base := rep.URL
	if base == nil {
		base = target
	}

	for _, candidate := range link.ParseHeader(rep.Header.Values("Link"), base) {
		if candidate.HasRelation(core.RelWebmention) {
			return core.DiscoveryResult{
				Endpoint: core.Some(candidate.URL),
				Signal:   core.DiscoverySignalHeader,
			}, nil
		}
	}

	if !link.IsHTML(rep) {
		e.observer().Debug(ctx, "discovery: no header signal and body is not html", map[string]any{
			"target":     target.String(),
			"media_type": rep.MediaType(),
		})
		return noEndpoint(), nil
	}
	rep.URL = base
	links, err := link.ExtractHTML(rep, core.RelWebmention)
	if err != nil {
		return noEndpoint(), err
	}
	if len(links) > 0 {
		return core.DiscoveryResult{
			Endpoint: core.Some(links[0].URL),
			Signal:   core.DiscoverySignalHTML,
		}, nil
	}
	return noEndpoint(), nil
}

func (e *Engine) observer() *core.Observer {
	if e == nil {
		return nil
	}
	return e.Observer
}

func noEndpoint() core.DiscoveryResult {
	return core.DiscoveryResult{
		Endpoint: core.None[*url.URL](),
		Signal:   core.DiscoverySignalNone,
	}
}

func urlString(value *url.URL) string {
	if value == nil {
		return ""
	}
	return value.String()
}
