package inbound

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-webmention/core"
)

// ResponseStatus returns the HTTP status a receiver answers err with.
// Every rejection is a 400 except internal failures.
func ResponseStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	mapped := core.MapError(err)
	if mapped == nil || mapped.Category == goerrors.CategoryInternal {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// ResponseMessage returns the diagnostic message for err.
func ResponseMessage(err error) string {
	if err == nil {
		return ""
	}
	mapped := core.MapError(err)
	if mapped == nil || mapped.Category == goerrors.CategoryInternal {
		return "webmention could not be processed"
	}
	return mapped.Message
}

func inboundInternal(message string, metadata map[string]any) error {
	return core.InternalError(message, metadata)
}

func inboundWrapInternal(source error, message string, metadata map[string]any) error {
	return core.WrapInternal(source, message, metadata)
}
