package verify

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-webmention/core"
)

// Verifier decides whether a fetched source representation links to the
// target. target is the literal value the sender supplied and matches only
// byte for byte. A false result is a normal negative outcome, not an error.
type Verifier interface {
	MediaType() string
	IsValid(rep core.Representation, target string) (bool, error)
}

// Registry maps media types to verifiers in registration order. It is
// immutable once built and safe for concurrent use.
type Registry struct {
	order  []Verifier
	byType map[string]Verifier
}

func NewRegistry(verifiers ...Verifier) (*Registry, error) {
	registry := &Registry{
		order:  make([]Verifier, 0, len(verifiers)),
		byType: make(map[string]Verifier, len(verifiers)),
	}
	for _, verifier := range verifiers {
		if verifier == nil {
			return nil, fmt.Errorf("verify: verifier is nil")
		}
		mediaType := normalizeMediaType(verifier.MediaType())
		if mediaType == "" {
			return nil, fmt.Errorf("verify: verifier media type is required")
		}
		if _, exists := registry.byType[mediaType]; exists {
			return nil, fmt.Errorf("verify: verifier for media type %q already registered", mediaType)
		}
		registry.byType[mediaType] = verifier
		registry.order = append(registry.order, verifier)
	}
	if len(registry.order) == 0 {
		return nil, fmt.Errorf("verify: at least one verifier is required")
	}
	return registry, nil
}

// DefaultRegistry holds the HTML, plain text and JSON verifiers, in that
// order.
func DefaultRegistry() *Registry {
	registry, err := NewRegistry(HTMLVerifier{}, TextVerifier{}, JSONVerifier{})
	if err != nil {
		panic(err)
	}
	return registry
}

func (r *Registry) Lookup(mediaType string) (Verifier, bool) {
	if r == nil {
		return nil, false
	}
	verifier, ok := r.byType[normalizeMediaType(mediaType)]
	return verifier, ok
}

// MediaTypes lists the registered media types in registration order.
func (r *Registry) MediaTypes() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.order))
	for _, verifier := range r.order {
		out = append(out, normalizeMediaType(verifier.MediaType()))
	}
	return out
}

// AcceptHeader joins the media types with ", ".
func (r *Registry) AcceptHeader() string {
	return strings.Join(r.MediaTypes(), ", ")
}

func normalizeMediaType(mediaType string) string {
	return strings.ToLower(strings.TrimSpace(mediaType))
}
