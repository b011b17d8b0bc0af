package query

import (
	"context"
	"errors"
	"net/url"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-webmention/core"
)

type stubDiscoverer struct {
	discoverFn func(ctx context.Context, target *url.URL) (core.DiscoveryResult, error)
}

func (s stubDiscoverer) Discover(ctx context.Context, target *url.URL) (core.DiscoveryResult, error) {
	return s.discoverFn(ctx, target)
}

type stubVerifier struct {
	verifyFn func(ctx context.Context, mention core.Webmention) (bool, error)
}

func (s stubVerifier) Verify(ctx context.Context, mention core.Webmention) (bool, error) {
	return s.verifyFn(ctx, mention)
}

func TestDiscoverQuery_QueryDelegates(t *testing.T) {
	endpoint, _ := url.Parse("https://wm.example/endpoint")
	called := false
	qry := NewDiscoverQuery(stubDiscoverer{discoverFn: func(_ context.Context, target *url.URL) (core.DiscoveryResult, error) {
		called = true
		if target.String() != "https://b.example/page" {
			t.Fatalf("unexpected target %q", target)
		}
		return core.DiscoveryResult{Endpoint: core.Some(endpoint), Signal: core.DiscoverySignalHeader}, nil
	}})

	result, err := qry.Query(context.Background(), DiscoverMessage{Target: " https://b.example/page "})
	if err != nil {
		t.Fatalf("query discover: %v", err)
	}
	if !called {
		t.Fatalf("expected discoverer invocation")
	}
	got, ok := result.Endpoint.Get()
	if !ok || got.String() != endpoint.String() {
		t.Fatalf("unexpected discovery result %#v", result)
	}
}

func TestDiscoverQuery_RejectsInvalidTargetWithoutDiscovery(t *testing.T) {
	qry := NewDiscoverQuery(stubDiscoverer{discoverFn: func(context.Context, *url.URL) (core.DiscoveryResult, error) {
		t.Fatalf("discoverer must not be called")
		return core.DiscoveryResult{}, nil
	}})
	_, err := qry.Query(context.Background(), DiscoverMessage{Target: "mailto:someone@example.com"})
	if !core.IsMalformedRequest(err) {
		t.Fatalf("expected malformed request, got %v", err)
	}
}

func TestVerifyQuery_QueryReportsValidity(t *testing.T) {
	qry := NewVerifyQuery(stubVerifier{verifyFn: func(_ context.Context, mention core.Webmention) (bool, error) {
		return mention.Source.Host == "a.example" && mention.TargetLiteral() == "HTTPS://b.example/page", nil
	}})
	result, err := qry.Query(context.Background(), VerifyMessage{Source: "https://a.example/post", Target: "HTTPS://b.example/page"})
	if err != nil {
		t.Fatalf("query verify: %v", err)
	}
	if !result.Valid || result.Webmention.Source.String() != "https://a.example/post" {
		t.Fatalf("unexpected verify result %#v", result)
	}
}

func TestVerifyQuery_PropagatesVerifierErrors(t *testing.T) {
	failure := core.UnsupportedContentType("no verifier for image/png", nil)
	qry := NewVerifyQuery(stubVerifier{verifyFn: func(context.Context, core.Webmention) (bool, error) {
		return false, failure
	}})
	_, err := qry.Query(context.Background(), VerifyMessage{Source: "https://a.example/post", Target: "https://b.example/page"})
	if !errors.Is(err, failure) {
		t.Fatalf("expected verifier error, got %v", err)
	}
}

func TestMessages_ValidateReturnsRichError(t *testing.T) {
	err := (VerifyMessage{Target: "https://b.example/"}).Validate()
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation || rich.TextCode != core.ErrorMalformedRequest {
		t.Fatalf("unexpected envelope %#v", rich)
	}
	if err := (DiscoverMessage{}).Validate(); err == nil {
		t.Fatalf("expected missing target rejection")
	}
}

func TestQueries_NilDependencyReturnsRichError(t *testing.T) {
	var discover *DiscoverQuery
	_, err := discover.Query(context.Background(), DiscoverMessage{Target: "https://b.example/"})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal envelope, got %v", err)
	}
	_, err = NewVerifyQuery(nil).Query(context.Background(), VerifyMessage{})
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal envelope, got %v", err)
	}
}
