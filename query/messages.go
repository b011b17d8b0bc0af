package query

import (
	"strings"

	"github.com/goliatone/go-webmention/core"
)

const (
	TypeDiscover = "webmention.query.discover"
	TypeVerify   = "webmention.query.verify"
)

type DiscoverMessage struct {
	Target string
}

func (DiscoverMessage) Type() string { return TypeDiscover }

func (m DiscoverMessage) Validate() error {
	if strings.TrimSpace(m.Target) == "" {
		return queryValidationError("target", "target is required")
	}
	return nil
}

type VerifyMessage struct {
	Source string
	Target string
}

func (VerifyMessage) Type() string { return TypeVerify }

func (m VerifyMessage) Validate() error {
	if strings.TrimSpace(m.Source) == "" {
		return queryValidationError("source", "source is required")
	}
	if strings.TrimSpace(m.Target) == "" {
		return queryValidationError("target", "target is required")
	}
	return nil
}

// VerifyResult reports whether Source links to Target.
type VerifyResult struct {
	Webmention core.Webmention
	Valid      bool
}
