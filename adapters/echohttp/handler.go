// Package echohttp exposes the inbound receiver as an echo route.
package echohttp

import (
	"context"
	"net/http"
	"time"

	"github.com/goliatone/go-webmention/core"
	"github.com/goliatone/go-webmention/inbound"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/goliatone/go-webmention/adapters/echohttp")

// FormReceiver is satisfied by *inbound.Receiver.
type FormReceiver interface {
	ReceiveForm(ctx context.Context, req inbound.Request) (inbound.Receipt, error)
}

type Handler interface {
	Receive(c echo.Context) error
}

type handler struct {
	receiver FormReceiver
}

func NewHandler(receiver FormReceiver) Handler {
	return &handler{receiver: receiver}
}

// Receive answers 200 once the mention is verified and handled, 400 for
// any rejection and 500 when the handler itself fails.
func (h handler) Receive(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Webmention.Handler.Receive")
	defer span.End()

	if h.receiver == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "receiver is not configured"})
	}

	req := c.Request()
	if err := req.ParseForm(); err != nil {
		malformed := core.WrapMalformedRequest(err, "request body is not a valid form", nil)
		span.RecordError(malformed)
		return errorResponse(c, malformed)
	}

	receipt, err := h.receiver.ReceiveForm(ctx, inbound.Request{
		ContentType: req.Header.Get(echo.HeaderContentType),
		Form:        req.PostForm,
	})
	if err != nil {
		span.RecordError(err)
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"content": echo.Map{
			"id":          receipt.ID,
			"source":      receipt.Webmention.SourceLiteral(),
			"target":      receipt.Webmention.TargetLiteral(),
			"received_at": receipt.ReceivedAt.Format(time.RFC3339),
		},
	})
}

func errorResponse(c echo.Context, err error) error {
	body := echo.Map{
		"status":  "error",
		"message": inbound.ResponseMessage(err),
	}
	if code := core.TextCodeOf(err); code != "" {
		body["code"] = code
	}
	return c.JSON(inbound.ResponseStatus(err), body)
}

// Register mounts the receiver at path, defaulting to core.DefaultReceiverPath.
func Register(e *echo.Echo, path string, h Handler, middleware ...echo.MiddlewareFunc) {
	if path == "" {
		path = core.DefaultReceiverPath
	}
	e.POST(path, h.Receive, middleware...)
}
