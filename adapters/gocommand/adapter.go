// Package gocommand exposes webmention commands and queries on a go-command
// registry and the global dispatcher.
package gocommand

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	wmcommand "github.com/goliatone/go-webmention/command"
	"github.com/goliatone/go-webmention/core"
	"github.com/goliatone/go-webmention/inbound"
	wmquery "github.com/goliatone/go-webmention/query"
	"github.com/goliatone/go-webmention/sender"
)

// Handlers are the webmention operations a Bus can expose. Nil entries are
// skipped.
type Handlers struct {
	Send     command.Commander[wmcommand.SendMessage]
	Receive  command.Commander[wmcommand.ReceiveMessage]
	Discover command.Querier[wmquery.DiscoverMessage, core.DiscoveryResult]
	Verify   command.Querier[wmquery.VerifyMessage, wmquery.VerifyResult]
}

// Bus records webmention handlers in a registry and owns their dispatcher
// subscriptions until Close.
type Bus struct {
	registry *command.Registry

	mu            sync.Mutex
	subscriptions []commanddispatcher.Subscription
	types         []string
}

func NewBus(registry *command.Registry) *Bus {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &Bus{registry: registry}
}

func (b *Bus) Registry() *command.Registry {
	if b == nil {
		return nil
	}
	return b.registry
}

// MessageTypes lists the message types currently subscribed, in
// registration order.
func (b *Bus) MessageTypes() []string {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.types...)
}

// Register subscribes every non-nil handler. Registration is all or
// nothing: when one handler fails, the subscriptions made by this call are
// released.
func (b *Bus) Register(handlers Handlers, runnerOpts ...runner.Option) error {
	if b == nil || b.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var added []commanddispatcher.Subscription
	var types []string
	rollback := func(err error) error {
		for _, sub := range added {
			sub.Unsubscribe()
		}
		return err
	}
	add := func(messageType string, subscribe func() (commanddispatcher.Subscription, error)) error {
		sub, err := subscribe()
		if err != nil {
			return fmt.Errorf("gocommand: register %s: %w", messageType, err)
		}
		added = append(added, sub)
		types = append(types, messageType)
		return nil
	}

	if handlers.Send != nil {
		if err := add(wmcommand.TypeSend, func() (commanddispatcher.Subscription, error) {
			return registerCommand(b.registry, handlers.Send, runnerOpts...)
		}); err != nil {
			return rollback(err)
		}
	}
	if handlers.Receive != nil {
		if err := add(wmcommand.TypeReceive, func() (commanddispatcher.Subscription, error) {
			return registerCommand(b.registry, handlers.Receive, runnerOpts...)
		}); err != nil {
			return rollback(err)
		}
	}
	if handlers.Discover != nil {
		if err := add(wmquery.TypeDiscover, func() (commanddispatcher.Subscription, error) {
			return registerQuery(b.registry, handlers.Discover, runnerOpts...)
		}); err != nil {
			return rollback(err)
		}
	}
	if handlers.Verify != nil {
		if err := add(wmquery.TypeVerify, func() (commanddispatcher.Subscription, error) {
			return registerQuery(b.registry, handlers.Verify, runnerOpts...)
		}); err != nil {
			return rollback(err)
		}
	}

	b.subscriptions = append(b.subscriptions, added...)
	b.types = append(b.types, types...)
	return nil
}

// Close releases every subscription held by the bus.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subscriptions {
		sub.Unsubscribe()
	}
	b.subscriptions = nil
	b.types = nil
}

// Send dispatches a SendMessage and returns the result stored by the
// command.
func Send(ctx context.Context, source string, target string) (sender.SendResult, error) {
	msg := wmcommand.SendMessage{Source: source, Target: target}
	if err := ValidateMessageContract(msg); err != nil {
		return sender.SendResult{}, err
	}
	collector := command.NewResult[sender.SendResult]()
	err := commanddispatcher.Dispatch(command.ContextWithResult(ctx, collector), msg)
	result, _ := collector.Load()
	return result, err
}

// Receive dispatches a ReceiveMessage and returns the stored receipt.
func Receive(ctx context.Context, source string, target string) (inbound.Receipt, error) {
	msg := wmcommand.ReceiveMessage{Source: source, Target: target}
	if err := ValidateMessageContract(msg); err != nil {
		return inbound.Receipt{}, err
	}
	collector := command.NewResult[inbound.Receipt]()
	err := commanddispatcher.Dispatch(command.ContextWithResult(ctx, collector), msg)
	receipt, _ := collector.Load()
	return receipt, err
}

func Discover(ctx context.Context, target string) (core.DiscoveryResult, error) {
	return commanddispatcher.Query[wmquery.DiscoverMessage, core.DiscoveryResult](
		ctx,
		wmquery.DiscoverMessage{Target: target},
	)
}

func Verify(ctx context.Context, source string, target string) (wmquery.VerifyResult, error) {
	return commanddispatcher.Query[wmquery.VerifyMessage, wmquery.VerifyResult](
		ctx,
		wmquery.VerifyMessage{Source: source, Target: target},
	)
}

// ValidateMessageContract enforces Type() plus the optional Validate()
// contract before a message reaches the dispatcher.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

func registerCommand[T any](
	registry *command.Registry,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := registry.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func registerQuery[T any, R any](
	registry *command.Registry,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	subscription := commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	if err := registry.RegisterCommand(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}
