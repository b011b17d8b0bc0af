package inbound

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-webmention/core"
	"github.com/google/uuid"
)

const (
	ParamSource = "source"
	ParamTarget = "target"
)

// MentionVerifier confirms that the mention source links to its literal
// target.
type MentionVerifier interface {
	Verify(ctx context.Context, mention core.Webmention) (bool, error)
}

// Handler receives mentions that passed validation and verification.
type Handler interface {
	HandleWebmention(ctx context.Context, receipt Receipt) error
}

type HandlerFunc func(ctx context.Context, receipt Receipt) error

func (f HandlerFunc) HandleWebmention(ctx context.Context, receipt Receipt) error {
	return f(ctx, receipt)
}

// Request is an inbound notification as received over HTTP.
type Request struct {
	ContentType string
	Form        url.Values
}

type Receipt struct {
	ID         string
	Webmention core.Webmention
	ReceivedAt time.Time
}

type Receiver struct {
	Verifier MentionVerifier
	Handler  Handler
	// AllowedTargetHosts limits accepted targets. Empty accepts any host.
	AllowedTargetHosts []string
	Observer           *core.Observer
	Now                func() time.Time
	NewID              func() string
}

func NewReceiver(verifier MentionVerifier, handler Handler) *Receiver {
	return &Receiver{
		Verifier: verifier,
		Handler:  handler,
		Observer: core.NewObserver(nil, nil),
		Now: func() time.Time {
			return time.Now().UTC()
		},
		NewID: uuid.NewString,
	}
}

// ReceiveForm checks the content type and extracts the source and target
// parameters before delegating to Receive.
func (r *Receiver) ReceiveForm(ctx context.Context, req Request) (Receipt, error) {
	if mediaType := core.ParseMediaType(req.ContentType); mediaType != core.MediaTypeForm {
		return Receipt{}, core.MalformedRequest(
			fmt.Sprintf("content type must be %s", core.MediaTypeForm),
			map[string]any{"content_type": req.ContentType},
		)
	}
	return r.Receive(ctx, req.Form.Get(ParamSource), req.Form.Get(ParamTarget))
}

// Receive validates the pair, verifies it and invokes the handler. No
// outbound request is made for a malformed pair.
func (r *Receiver) Receive(ctx context.Context, rawSource string, rawTarget string) (receipt Receipt, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	fields := map[string]any{
		"source": strings.TrimSpace(rawSource),
		"target": strings.TrimSpace(rawTarget),
	}
	defer func() {
		if receipt.ID != "" {
			fields["receipt_id"] = receipt.ID
		}
		r.observer().Observe(ctx, startedAt, "receive", err, fields)
	}()

	if r == nil || r.Verifier == nil || r.Handler == nil {
		return Receipt{}, inboundInternal("inbound: receiver requires a verifier and a handler", nil)
	}

	mention, err := core.ParseWebmention(rawSource, rawTarget)
	if err != nil {
		return Receipt{}, err
	}
	if !r.targetAllowed(mention.Target) {
		return Receipt{}, core.MalformedRequest(
			fmt.Sprintf("target host %q is not handled by this endpoint", mention.Target.Hostname()),
			map[string]any{"target": mention.TargetLiteral()},
		)
	}

	valid, err := r.Verifier.Verify(ctx, mention)
	if err != nil {
		return Receipt{}, err
	}
	if !valid {
		return Receipt{}, core.VerificationRejected(
			nil,
			"source does not link to target",
			map[string]any{"source": mention.SourceLiteral(), "target": mention.TargetLiteral()},
		)
	}

	receipt = Receipt{
		ID:         r.newID(),
		Webmention: mention,
		ReceivedAt: r.now(),
	}
	if err := r.Handler.HandleWebmention(ctx, receipt); err != nil {
		return Receipt{}, inboundWrapInternal(err, "inbound: webmention handler failed", map[string]any{
			"receipt_id": receipt.ID,
		})
	}
	return receipt, nil
}

func (r *Receiver) targetAllowed(target *url.URL) bool {
	if len(r.AllowedTargetHosts) == 0 {
		return true
	}
	host := strings.ToLower(target.Hostname())
	for _, allowed := range r.AllowedTargetHosts {
		if strings.ToLower(strings.TrimSpace(allowed)) == host {
			return true
		}
	}
	return false
}

func (r *Receiver) observer() *core.Observer {
	if r == nil {
		return nil
	}
	return r.Observer
}

func (r *Receiver) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now()
}

func (r *Receiver) newID() string {
	if r.NewID == nil {
		return uuid.NewString()
	}
	return r.NewID()
}
