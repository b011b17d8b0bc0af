package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-webmention/inbound"
	"github.com/goliatone/go-webmention/sender"
)

type Sender interface {
	SendRaw(ctx context.Context, rawSource string, rawTarget string) (sender.SendResult, error)
}

type Receiver interface {
	Receive(ctx context.Context, rawSource string, rawTarget string) (inbound.Receipt, error)
}

type SendCommand struct {
	sender Sender
}

func NewSendCommand(sender Sender) *SendCommand {
	return &SendCommand{sender: sender}
}

func (c *SendCommand) Execute(ctx context.Context, msg SendMessage) error {
	if c == nil || c.sender == nil {
		return commandDependencyError("command: webmention sender is required")
	}
	out, err := c.sender.SendRaw(ctx, msg.Source, msg.Target)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ReceiveCommand struct {
	receiver Receiver
}

func NewReceiveCommand(receiver Receiver) *ReceiveCommand {
	return &ReceiveCommand{receiver: receiver}
}

func (c *ReceiveCommand) Execute(ctx context.Context, msg ReceiveMessage) error {
	if c == nil || c.receiver == nil {
		return commandDependencyError("command: webmention receiver is required")
	}
	out, err := c.receiver.Receive(ctx, msg.Source, msg.Target)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
