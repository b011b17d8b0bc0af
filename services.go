// Package webmention sends and receives webmentions.
//
// New wires endpoint discovery, notification and verification over one
// HTTP client. The engines are also usable on their own from the
// discovery, notify, verify, sender and inbound packages.
package webmention

import (
	"context"
	"strings"

	"github.com/goliatone/go-webmention/adapters/gologger"
	"github.com/goliatone/go-webmention/core"
	"github.com/goliatone/go-webmention/discovery"
	"github.com/goliatone/go-webmention/inbound"
	"github.com/goliatone/go-webmention/notify"
	"github.com/goliatone/go-webmention/sender"
	"github.com/goliatone/go-webmention/transport"
	"github.com/goliatone/go-webmention/verify"
)

type Config = core.Config

type Webmention = core.Webmention
type DiscoveryResult = core.DiscoveryResult
type NotificationOutcome = core.NotificationOutcome
type SendResult = sender.SendResult
type Receipt = inbound.Receipt
type Handler = inbound.Handler
type HandlerFunc = inbound.HandlerFunc
type Verifier = verify.Verifier

func DefaultConfig() Config {
	return core.DefaultConfig()
}

type Option func(*serviceOptions)

type serviceOptions struct {
	logger         core.Logger
	loggerProvider core.LoggerProvider
	metrics        core.MetricsRecorder
	client         transport.HTTPDoer
	registry       *verify.Registry
	handler        inbound.Handler
}

func WithLogger(logger core.Logger) Option {
	return func(o *serviceOptions) { o.logger = logger }
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(o *serviceOptions) { o.loggerProvider = provider }
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(o *serviceOptions) { o.metrics = recorder }
}

// WithHTTPClient replaces the client built from Config.
func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(o *serviceOptions) { o.client = client }
}

// WithRegistry replaces the default html/text/json verifiers.
func WithRegistry(registry *verify.Registry) Option {
	return func(o *serviceOptions) { o.registry = registry }
}

// WithHandler sets the callback for verified inbound mentions. Without one
// accepted mentions are only logged.
func WithHandler(handler inbound.Handler) Option {
	return func(o *serviceOptions) { o.handler = handler }
}

type Service struct {
	config    Config
	logger    core.Logger
	observer  *core.Observer
	client    transport.HTTPDoer
	discovery *discovery.Engine
	notifier  *notify.Dispatcher
	verifier  *verify.Engine
	sender    *sender.Client
	receiver  *inbound.Receiver
}

func New(cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := serviceOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	_, logger := gologger.Resolve(cfg.ServiceName, options.loggerProvider, options.logger)
	observer := core.NewObserver(logger, options.metrics)

	client := options.client
	if client == nil {
		client = transport.NewHTTPClient(transport.OptionsFromConfig(cfg))
	}
	fetcher := transport.NewFetcher(client)
	if cfg.Transport.MaxResponseBytes > 0 {
		fetcher.MaxResponseBodyBytes = cfg.Transport.MaxResponseBytes
	}

	registry := options.registry
	if registry == nil {
		registry = verify.DefaultRegistry()
	}

	svc := &Service{
		config:    cfg,
		logger:    logger,
		observer:  observer,
		client:    client,
		discovery: &discovery.Engine{Fetcher: fetcher, Observer: observer},
		notifier:  &notify.Dispatcher{Fetcher: fetcher, Observer: observer},
		verifier:  &verify.Engine{Fetcher: fetcher, Registry: registry, Observer: observer},
	}
	svc.sender = &sender.Client{
		Discoverer: svc.discovery,
		Notifier:   svc.notifier,
		Observer:   observer,
	}

	handler := options.handler
	if handler == nil {
		handler = inbound.HandlerFunc(svc.logReceipt)
	}
	svc.receiver = inbound.NewReceiver(svc.verifier, handler)
	svc.receiver.Observer = observer
	for _, host := range cfg.Receiver.AllowedTargetHosts {
		if host = strings.TrimSpace(host); host != "" {
			svc.receiver.AllowedTargetHosts = append(svc.receiver.AllowedTargetHosts, host)
		}
	}
	return svc, nil
}

func (s *Service) logReceipt(ctx context.Context, receipt inbound.Receipt) error {
	s.logger.WithContext(ctx).Info("webmention accepted",
		"receipt_id", receipt.ID,
		"source", receipt.Webmention.SourceLiteral(),
		"target", receipt.Webmention.TargetLiteral(),
	)
	return nil
}

func (s *Service) Config() Config { return s.config }

func (s *Service) Logger() core.Logger { return s.logger }

func (s *Service) HTTPClient() transport.HTTPDoer { return s.client }

func (s *Service) Discovery() *discovery.Engine { return s.discovery }

func (s *Service) Notifier() *notify.Dispatcher { return s.notifier }

func (s *Service) Verifier() *verify.Engine { return s.verifier }

func (s *Service) Sender() *sender.Client { return s.sender }

func (s *Service) Receiver() *inbound.Receiver { return s.receiver }

// Send delivers a webmention from source to target.
func (s *Service) Send(ctx context.Context, rawSource string, rawTarget string) (SendResult, error) {
	return s.sender.SendRaw(ctx, rawSource, rawTarget)
}

// Discover reports the endpoint advertised by target.
func (s *Service) Discover(ctx context.Context, rawTarget string) (DiscoveryResult, error) {
	target, err := core.ParseMentionURL("target", rawTarget)
	if err != nil {
		return DiscoveryResult{}, err
	}
	return s.discovery.Discover(ctx, target)
}

// Verify reports whether source links to target without invoking the
// inbound handler.
func (s *Service) Verify(ctx context.Context, rawSource string, rawTarget string) (bool, error) {
	mention, err := core.ParseWebmention(rawSource, rawTarget)
	if err != nil {
		return false, err
	}
	return s.verifier.Verify(ctx, mention)
}

// Receive validates, verifies and hands an inbound mention to the handler.
func (s *Service) Receive(ctx context.Context, rawSource string, rawTarget string) (Receipt, error) {
	return s.receiver.Receive(ctx, rawSource, rawTarget)
}
