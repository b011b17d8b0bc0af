package verify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goliatone/go-webmention/core"
	"github.com/goliatone/go-webmention/transport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/goliatone/go-webmention/verify")

// Engine confirms that a source document links to a target.
type Engine struct {
	Fetcher  *transport.Fetcher
	Registry *Registry
	Observer *core.Observer
}

// NewEngine uses DefaultRegistry when registry is nil.
func NewEngine(client transport.HTTPDoer, registry *Registry) *Engine {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Engine{
		Fetcher:  transport.NewFetcher(client),
		Registry: registry,
		Observer: core.NewObserver(nil, nil),
	}
}

// Verify fetches the mention source once, negotiating the registered media
// types, and dispatches on the exact media type of the response. The
// verifier sees the literal target. It returns false when the source does
// not link to target.
func (e *Engine) Verify(ctx context.Context, mention core.Webmention) (valid bool, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := tracer.Start(ctx, "Verify", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	startedAt := time.Now()
	source := mention.Source
	target := mention.TargetLiteral()
	fields := map[string]any{
		"source": urlString(source),
		"target": target,
	}
	defer func() {
		fields["valid"] = valid
		span.SetAttributes(attribute.Bool("webmention.verified", valid))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		e.observer().Observe(ctx, startedAt, "verify", err, fields)
	}()

	if e == nil || e.Fetcher == nil || e.Registry == nil {
		return false, core.InternalError("verify: engine requires a fetcher and a registry", nil)
	}
	if source == nil || !source.IsAbs() || target == "" {
		return false, core.MalformedRequest("verify: source must be an absolute URL and target is required", map[string]any{
			"source": urlString(source),
			"target": target,
		})
	}

	rep, err := e.Fetcher.Do(ctx, transport.Request{
		Method:  http.MethodGet,
		URL:     source,
		Headers: map[string]string{"Accept": e.Registry.AcceptHeader()},
	})
	if err != nil {
		return false, err
	}
	fields["status_code"] = rep.StatusCode

	if rep.StatusCode == http.StatusNotAcceptable {
		return false, core.UnsupportedContentType(
			"verify: source offers none of the supported media types",
			map[string]any{"source": source.String(), "accept": e.Registry.AcceptHeader()},
		)
	}
	if !rep.IsSuccess() {
		return false, core.SourceUnavailable(
			rep.StatusCode,
			rep.Reason,
			fmt.Sprintf("verify: source responded with status %d %s", rep.StatusCode, rep.Reason),
			map[string]any{"source": source.String()},
		)
	}

	mediaType := rep.MediaType()
	fields["media_type"] = mediaType
	verifier, ok := e.Registry.Lookup(mediaType)
	if !ok {
		return false, core.UnsupportedContentType(
			fmt.Sprintf("verify: no verifier for content type %q", rep.ContentType()),
			map[string]any{"source": source.String(), "media_type": mediaType},
		)
	}
	e.observer().Debug(ctx, "verify: dispatching to verifier", map[string]any{
		"source":     source.String(),
		"media_type": mediaType,
	})
	span.SetAttributes(attribute.String("webmention.media_type", mediaType))
	return verifier.IsValid(rep, target)
}

func (e *Engine) observer() *core.Observer {
	if e == nil {
		return nil
	}
	return e.Observer
}
