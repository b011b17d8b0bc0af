package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-webmention/core"
	"github.com/goliatone/go-webmention/discovery"
	"github.com/goliatone/go-webmention/verify"
)

var (
	_ gocmd.Querier[DiscoverMessage, core.DiscoveryResult] = (*DiscoverQuery)(nil)
	_ gocmd.Querier[VerifyMessage, VerifyResult]           = (*VerifyQuery)(nil)

	_ Discoverer = (*discovery.Engine)(nil)
	_ Verifier   = (*verify.Engine)(nil)
)
