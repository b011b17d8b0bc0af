// Package notify sends the webmention notification to a receiver endpoint.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-webmention/core"
	"github.com/goliatone/go-webmention/transport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/goliatone/go-webmention/notify")

const FormContentType = core.MediaTypeForm + "; charset=UTF-8"

type Dispatcher struct {
	Fetcher  *transport.Fetcher
	Observer *core.Observer
}

func NewDispatcher(client transport.HTTPDoer) *Dispatcher {
	return &Dispatcher{
		Fetcher:  transport.NewFetcher(client),
		Observer: core.NewObserver(nil, nil),
	}
}

// EncodeForm renders the notification body from the literal pair. source
// always precedes target.
func EncodeForm(mention core.Webmention) string {
	return "source=" + url.QueryEscape(mention.SourceLiteral()) + "&target=" + url.QueryEscape(mention.TargetLiteral())
}

// Notify posts one notification to endpoint. Any 2xx status is accepted;
// 201 with a Location header yields a monitor location. Every other status
// is a protocol violation. The endpoint query string is kept on the
// request URL and never copied into the body.
func (d *Dispatcher) Notify(
	ctx context.Context,
	endpoint *url.URL,
	mention core.Webmention,
) (outcome core.NotificationOutcome, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := tracer.Start(ctx, "Notify", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	startedAt := time.Now()
	fields := map[string]any{
		"endpoint": urlString(endpoint),
		"source":   mention.SourceLiteral(),
		"target":   mention.TargetLiteral(),
	}
	defer func() {
		if outcome.StatusCode != 0 {
			fields["status_code"] = outcome.StatusCode
			span.SetAttributes(attribute.Int("http.response.status_code", outcome.StatusCode))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		d.observer().Observe(ctx, startedAt, "notify", err, fields)
	}()

	if d == nil || d.Fetcher == nil {
		return core.NotificationOutcome{}, core.InternalError("notify: dispatcher requires a fetcher", nil)
	}
	if endpoint == nil || !endpoint.IsAbs() {
		return core.NotificationOutcome{}, core.MalformedRequest("notify: endpoint must be an absolute URL", map[string]any{
			"endpoint": urlString(endpoint),
		})
	}
	if mention.Source == nil || mention.Target == nil {
		return core.NotificationOutcome{}, core.MalformedRequest("notify: source and target are required", nil)
	}
	span.SetAttributes(
		attribute.String("webmention.endpoint", core.RedactURL(endpoint)),
		attribute.String("webmention.source", mention.SourceLiteral()),
		attribute.String("webmention.target", mention.TargetLiteral()),
	)

	rep, err := d.Fetcher.Do(ctx, transport.Request{
		Method:      http.MethodPost,
		URL:         endpoint,
		Headers:     map[string]string{"Content-Type": FormContentType},
		Body:        []byte(EncodeForm(mention)),
		DiscardBody: true,
	})
	if err != nil {
		return core.NotificationOutcome{}, err
	}

	outcome = core.NotificationOutcome{
		Accepted:        rep.IsSuccess(),
		StatusCode:      rep.StatusCode,
		Reason:          rep.Reason,
		MonitorLocation: core.None[*url.URL](),
	}
	if !outcome.Accepted {
		return outcome, core.ProtocolViolation(
			rep.StatusCode,
			rep.Reason,
			fmt.Sprintf("notify: endpoint responded with status %d %s", rep.StatusCode, rep.Reason),
			map[string]any{"endpoint": endpoint.String()},
		)
	}

	if rep.StatusCode == http.StatusCreated {
		if location := strings.TrimSpace(rep.Header.Get("Location")); location != "" {
			base := rep.URL
			if base == nil {
				base = endpoint
			}
			monitor, parseErr := core.ResolveReference(base, location)
			if parseErr != nil {
				d.observer().Warn(ctx, "notify: ignoring unparsable Location header", map[string]any{
					"endpoint": endpoint.String(),
					"location": location,
					"error":    parseErr.Error(),
				})
			} else {
				outcome.MonitorLocation = core.Some(monitor)
				fields["monitor_location"] = monitor.String()
			}
		}
	}
	return outcome, nil
}

func (d *Dispatcher) observer() *core.Observer {
	if d == nil {
		return nil
	}
	return d.Observer
}

func urlString(value *url.URL) string {
	if value == nil {
		return ""
	}
	return value.String()
}
