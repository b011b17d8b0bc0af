package core

import (
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestKindErrors_CarryEnvelopeAndSentinel(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		textCode string
		code     int
		sentinel error
		is       func(error) bool
	}{
		{"malformed", MalformedRequest("bad", nil), ErrorMalformedRequest, http.StatusBadRequest, ErrMalformedRequest, IsMalformedRequest},
		{"transport", TransportFailure(errors.New("eof"), "fetch", nil), ErrorTransportFailure, http.StatusBadGateway, ErrTransportFailure, IsTransportFailure},
		{"protocol", ProtocolViolation(404, "Not Found", "notify", nil), ErrorProtocolViolation, http.StatusBadGateway, ErrProtocolViolation, IsProtocolViolation},
		{"unsupported", UnsupportedContentType("image/png", nil), ErrorUnsupportedContentType, http.StatusBadRequest, ErrUnsupportedContentType, IsUnsupportedContentType},
		{"parse", ParseFailure(errors.New("eof"), "parse", nil), ErrorParseFailure, http.StatusBadGateway, ErrParseFailure, IsParseFailure},
		{"endpoint", EndpointNotFound("none", nil), ErrorEndpointNotFound, http.StatusNotFound, ErrEndpointNotFound, IsEndpointNotFound},
		{"rejected", VerificationRejected(nil, "no link", nil), ErrorVerificationRejected, http.StatusBadRequest, ErrVerificationRejected, IsVerificationRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var rich *goerrors.Error
			if !goerrors.As(tc.err, &rich) {
				t.Fatalf("expected go-errors envelope, got %T", tc.err)
			}
			if rich.TextCode != tc.textCode {
				t.Fatalf("expected %q text code, got %q", tc.textCode, rich.TextCode)
			}
			if rich.Code != tc.code {
				t.Fatalf("expected status %d, got %d", tc.code, rich.Code)
			}
			if !tc.is(tc.err) {
				t.Fatalf("expected classifier to match")
			}
			if !errors.Is(tc.err, tc.sentinel) {
				t.Fatalf("expected errors.Is to find sentinel")
			}
		})
	}
}

func TestClassifiers_DoNotCrossMatch(t *testing.T) {
	err := UnsupportedContentType("image/png", nil)
	if IsTransportFailure(err) || IsMalformedRequest(err) || IsParseFailure(err) {
		t.Fatalf("unsupported content type matched another kind")
	}
	if IsProtocolViolation(nil) {
		t.Fatalf("nil must not classify")
	}
}

func TestProtocolViolation_CarriesStatus(t *testing.T) {
	err := ProtocolViolation(http.StatusNotFound, "Not Found", "notify endpoint", nil)
	status, ok := StatusFromError(err)
	if !ok {
		t.Fatalf("expected status error in chain")
	}
	if status.StatusCode != http.StatusNotFound || status.Reason != "Not Found" {
		t.Fatalf("unexpected status: %#v", status)
	}
}

func TestMapError_AssignsStableCodes(t *testing.T) {
	mapped := MapError(errors.New("boom"))
	if mapped == nil || mapped.Code == 0 || mapped.TextCode == "" {
		t.Fatalf("expected envelope with code and text code, got %#v", mapped)
	}

	mapped = MapError(EndpointNotFound("no endpoint", nil))
	if mapped.TextCode != ErrorEndpointNotFound {
		t.Fatalf("expected endpoint not found code, got %q", mapped.TextCode)
	}
	if MapError(nil) != nil {
		t.Fatalf("expected nil mapping for nil error")
	}
}
