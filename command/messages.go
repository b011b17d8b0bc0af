package command

import "strings"

const (
	TypeSend    = "webmention.command.send"
	TypeReceive = "webmention.command.receive"
)

// SendMessage asks for a webmention from Source to be delivered to the
// endpoint advertised by Target.
type SendMessage struct {
	Source string
	Target string
}

func (SendMessage) Type() string { return TypeSend }

func (m SendMessage) Validate() error {
	return validatePair(m.Source, m.Target)
}

// ReceiveMessage carries an inbound notification that still has to be
// validated and verified.
type ReceiveMessage struct {
	Source string
	Target string
}

func (ReceiveMessage) Type() string { return TypeReceive }

func (m ReceiveMessage) Validate() error {
	return validatePair(m.Source, m.Target)
}

func validatePair(source string, target string) error {
	if strings.TrimSpace(source) == "" {
		return commandValidationError("source", "source is required")
	}
	if strings.TrimSpace(target) == "" {
		return commandValidationError("target", "target is required")
	}
	return nil
}
