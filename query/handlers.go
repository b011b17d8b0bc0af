package query

import (
	"context"
	"net/url"

	"github.com/goliatone/go-webmention/core"
)

type Discoverer interface {
	Discover(ctx context.Context, target *url.URL) (core.DiscoveryResult, error)
}

type Verifier interface {
	Verify(ctx context.Context, mention core.Webmention) (bool, error)
}

type DiscoverQuery struct {
	discoverer Discoverer
}

func NewDiscoverQuery(discoverer Discoverer) *DiscoverQuery {
	return &DiscoverQuery{discoverer: discoverer}
}

func (q *DiscoverQuery) Query(ctx context.Context, msg DiscoverMessage) (core.DiscoveryResult, error) {
	if q == nil || q.discoverer == nil {
		return core.DiscoveryResult{}, queryDependencyError("query: endpoint discoverer is required")
	}
	target, err := core.ParseMentionURL("target", msg.Target)
	if err != nil {
		return core.DiscoveryResult{}, err
	}
	return q.discoverer.Discover(ctx, target)
}

// VerifyQuery checks a pair without invoking any receiver side effects.
type VerifyQuery struct {
	verifier Verifier
}

func NewVerifyQuery(verifier Verifier) *VerifyQuery {
	return &VerifyQuery{verifier: verifier}
}

func (q *VerifyQuery) Query(ctx context.Context, msg VerifyMessage) (VerifyResult, error) {
	if q == nil || q.verifier == nil {
		return VerifyResult{}, queryDependencyError("query: mention verifier is required")
	}
	mention, err := core.ParseWebmention(msg.Source, msg.Target)
	if err != nil {
		return VerifyResult{}, err
	}
	valid, err := q.verifier.Verify(ctx, mention)
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{Webmention: mention, Valid: valid}, nil
}
