package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-webmention/inbound"
	"github.com/goliatone/go-webmention/sender"
)

var (
	_ gocmd.Commander[SendMessage]    = (*SendCommand)(nil)
	_ gocmd.Commander[ReceiveMessage] = (*ReceiveCommand)(nil)

	_ Sender   = (*sender.Client)(nil)
	_ Receiver = (*inbound.Receiver)(nil)
)
