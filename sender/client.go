// Package sender delivers a webmention: discover the target's endpoint,
// then notify it.
package sender

import (
	"context"
	"net/url"
	"time"

	"github.com/goliatone/go-webmention/core"
	"github.com/goliatone/go-webmention/discovery"
	"github.com/goliatone/go-webmention/notify"
	"github.com/goliatone/go-webmention/transport"
)

// Discoverer locates the endpoint advertised by a target.
type Discoverer interface {
	Discover(ctx context.Context, target *url.URL) (core.DiscoveryResult, error)
}

// Notifier posts a notification to an endpoint.
type Notifier interface {
	Notify(ctx context.Context, endpoint *url.URL, mention core.Webmention) (core.NotificationOutcome, error)
}

type SendResult struct {
	Endpoint *url.URL
	Signal   core.DiscoverySignal
	Outcome  core.NotificationOutcome
}

type Client struct {
	Discoverer Discoverer
	Notifier   Notifier
	Observer   *core.Observer
}

// NewClient wires the default discovery and notification engines over a
// shared HTTP client.
func NewClient(client transport.HTTPDoer) *Client {
	return &Client{
		Discoverer: discovery.NewEngine(client),
		Notifier:   notify.NewDispatcher(client),
		Observer:   core.NewObserver(nil, nil),
	}
}

// Send validates the pair, discovers the endpoint of target and notifies
// it once. A target without an endpoint fails with EndpointNotFound.
func (c *Client) Send(ctx context.Context, source *url.URL, target *url.URL) (SendResult, error) {
	mention, err := core.NewWebmention(source, target)
	if err != nil {
		return SendResult{}, err
	}
	return c.SendMention(ctx, mention)
}

// SendRaw parses source and target and sends them as supplied. The
// notification body carries the literal values.
func (c *Client) SendRaw(ctx context.Context, rawSource string, rawTarget string) (SendResult, error) {
	mention, err := core.ParseWebmention(rawSource, rawTarget)
	if err != nil {
		return SendResult{}, err
	}
	return c.SendMention(ctx, mention)
}

// SendMention delivers an already validated mention.
func (c *Client) SendMention(ctx context.Context, mention core.Webmention) (result SendResult, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() {
		if result.Endpoint != nil {
			fields["endpoint"] = result.Endpoint.String()
		}
		if result.Outcome.StatusCode != 0 {
			fields["status_code"] = result.Outcome.StatusCode
		}
		c.observer().Observe(ctx, startedAt, "send", err, fields)
	}()

	if c == nil || c.Discoverer == nil || c.Notifier == nil {
		return SendResult{}, core.InternalError("sender: client requires a discoverer and a notifier", nil)
	}
	if mention.Source == nil || mention.Target == nil {
		return SendResult{}, core.MalformedRequest("sender: source and target are required", nil)
	}
	fields["source"] = mention.SourceLiteral()
	fields["target"] = mention.TargetLiteral()

	discovered, err := c.Discoverer.Discover(ctx, mention.Target)
	if err != nil {
		return SendResult{}, err
	}
	result.Signal = discovered.Signal
	endpoint, ok := discovered.Endpoint.Get()
	if !ok {
		return result, core.EndpointNotFound(
			"sender: target does not advertise a webmention endpoint",
			map[string]any{"target": mention.TargetLiteral()},
		)
	}
	result.Endpoint = endpoint

	outcome, err := c.Notifier.Notify(ctx, endpoint, mention)
	result.Outcome = outcome
	return result, err
}

func (c *Client) observer() *core.Observer {
	if c == nil {
		return nil
	}
	return c.Observer
}

var (
	_ Discoverer = (*discovery.Engine)(nil)
	_ Notifier   = (*notify.Dispatcher)(nil)
)
