package webmention

import (
	"fmt"

	"github.com/goliatone/go-webmention/adapters/gocommand"
	wmcommand "github.com/goliatone/go-webmention/command"
	wmquery "github.com/goliatone/go-webmention/query"
)

type Commands struct {
	Send    *wmcommand.SendCommand
	Receive *wmcommand.ReceiveCommand
}

type Queries struct {
	Discover *wmquery.DiscoverQuery
	Verify   *wmquery.VerifyQuery
}

// Facade exposes a Service through go-command commands and queries.
type Facade struct {
	service  *Service
	commands Commands
	queries  Queries
}

func NewFacade(service *Service) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("webmention: service is required")
	}
	return &Facade{
		service: service,
		commands: Commands{
			Send:    wmcommand.NewSendCommand(service.Sender()),
			Receive: wmcommand.NewReceiveCommand(service.Receiver()),
		},
		queries: Queries{
			Discover: wmquery.NewDiscoverQuery(service.Discovery()),
			Verify:   wmquery.NewVerifyQuery(service.Verifier()),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() *Service {
	if f == nil {
		return nil
	}
	return f.service
}

// Handlers returns the commands and queries in the form a gocommand.Bus
// registers.
func (f *Facade) Handlers() gocommand.Handlers {
	if f == nil {
		return gocommand.Handlers{}
	}
	return gocommand.Handlers{
		Send:     f.commands.Send,
		Receive:  f.commands.Receive,
		Discover: f.queries.Discover,
		Verify:   f.queries.Verify,
	}
}

// Register exposes every command and query on bus. Closing the bus
// releases them.
func (f *Facade) Register(bus *gocommand.Bus) error {
	if f == nil {
		return fmt.Errorf("webmention: facade is required")
	}
	return bus.Register(f.Handlers())
}
