package core

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorMalformedRequest       = "WEBMENTION_MALFORMED_REQUEST"
	ErrorTransportFailure       = "WEBMENTION_TRANSPORT_FAILURE"
	ErrorProtocolViolation      = "WEBMENTION_PROTOCOL_VIOLATION"
	ErrorUnsupportedContentType = "WEBMENTION_UNSUPPORTED_CONTENT_TYPE"
	ErrorParseFailure           = "WEBMENTION_PARSE_FAILURE"
	ErrorEndpointNotFound       = "WEBMENTION_ENDPOINT_NOT_FOUND"
	ErrorVerificationRejected   = "WEBMENTION_VERIFICATION_REJECTED"
	ErrorInternal               = "WEBMENTION_INTERNAL_ERROR"
)

var (
	ErrMalformedRequest       = errors.New("webmention: malformed request")
	ErrTransportFailure       = errors.New("webmention: transport failure")
	ErrProtocolViolation      = errors.New("webmention: protocol violation")
	ErrUnsupportedContentType = errors.New("webmention: unsupported content type")
	ErrParseFailure           = errors.New("webmention: parse failure")
	ErrEndpointNotFound       = errors.New("webmention: endpoint not found")
	ErrVerificationRejected   = errors.New("webmention: verification rejected")
)

// StatusError carries an HTTP status that made an exchange fail.
type StatusError struct {
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Reason) == "" {
		return "unexpected status " + strconv.Itoa(e.StatusCode)
	}
	return "unexpected status " + strconv.Itoa(e.StatusCode) + " " + e.Reason
}

// StatusFromError extracts the StatusError carried by err, if any.
func StatusFromError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr != nil {
		return statusErr, true
	}
	return nil, false
}

func MalformedRequest(message string, metadata map[string]any) error {
	return newKindError(ErrMalformedRequest, nil, message, goerrors.CategoryBadInput, http.StatusBadRequest, ErrorMalformedRequest, metadata)
}

func WrapMalformedRequest(cause error, message string, metadata map[string]any) error {
	return newKindError(ErrMalformedRequest, cause, message, goerrors.CategoryBadInput, http.StatusBadRequest, ErrorMalformedRequest, metadata)
}

func TransportFailure(cause error, message string, metadata map[string]any) error {
	return newKindError(ErrTransportFailure, cause, message, goerrors.CategoryExternal, http.StatusBadGateway, ErrorTransportFailure, metadata)
}

// ProtocolViolation reports a response status outside the success class.
func ProtocolViolation(statusCode int, reason string, message string, metadata map[string]any) error {
	metadata = withStatus(metadata, statusCode, reason)
	return newKindError(
		ErrProtocolViolation,
		&StatusError{StatusCode: statusCode, Reason: reason},
		message,
		goerrors.CategoryExternal,
		http.StatusBadGateway,
		ErrorProtocolViolation,
		metadata,
	)
}

// SourceUnavailable reports a non-success status while fetching a document.
// It is a transport failure that still carries the status.
func SourceUnavailable(statusCode int, reason string, message string, metadata map[string]any) error {
	metadata = withStatus(metadata, statusCode, reason)
	return newKindError(
		ErrTransportFailure,
		&StatusError{StatusCode: statusCode, Reason: reason},
		message,
		goerrors.CategoryExternal,
		http.StatusBadGateway,
		ErrorTransportFailure,
		metadata,
	)
}

func UnsupportedContentType(message string, metadata map[string]any) error {
	return newKindError(ErrUnsupportedContentType, nil, message, goerrors.CategoryOperation, http.StatusBadRequest, ErrorUnsupportedContentType, metadata)
}

func ParseFailure(cause error, message string, metadata map[string]any) error {
	return newKindError(ErrParseFailure, cause, message, goerrors.CategoryExternal, http.StatusBadGateway, ErrorParseFailure, metadata)
}

func EndpointNotFound(message string, metadata map[string]any) error {
	return newKindError(ErrEndpointNotFound, nil, message, goerrors.CategoryNotFound, http.StatusNotFound, ErrorEndpointNotFound, metadata)
}

func VerificationRejected(cause error, message string, metadata map[string]any) error {
	return newKindError(ErrVerificationRejected, cause, message, goerrors.CategoryValidation, http.StatusBadRequest, ErrorVerificationRejected, metadata)
}

func InternalError(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorInternal)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func WrapInternal(cause error, message string, metadata map[string]any) error {
	if cause == nil {
		return InternalError(message, metadata)
	}
	err := goerrors.Wrap(cause, goerrors.CategoryInternal, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorInternal)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func newKindError(
	sentinel error,
	cause error,
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	source := sentinel
	if cause != nil {
		source = errors.Join(sentinel, cause)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func withStatus(metadata map[string]any, statusCode int, reason string) map[string]any {
	out := make(map[string]any, len(metadata)+2)
	for key, value := range metadata {
		out[key] = value
	}
	out["status_code"] = statusCode
	if strings.TrimSpace(reason) != "" {
		out["reason"] = reason
	}
	return out
}

// TextCodeOf returns the text code of the go-errors envelope in err.
func TextCodeOf(err error) string {
	var rich *goerrors.Error
	if err == nil || !goerrors.As(err, &rich) || rich == nil {
		return ""
	}
	return rich.TextCode
}

func IsMalformedRequest(err error) bool {
	return isKind(err, ErrMalformedRequest, ErrorMalformedRequest)
}

func IsTransportFailure(err error) bool {
	return isKind(err, ErrTransportFailure, ErrorTransportFailure)
}

func IsProtocolViolation(err error) bool {
	return isKind(err, ErrProtocolViolation, ErrorProtocolViolation)
}

func IsUnsupportedContentType(err error) bool {
	return isKind(err, ErrUnsupportedContentType, ErrorUnsupportedContentType)
}

func IsParseFailure(err error) bool {
	return isKind(err, ErrParseFailure, ErrorParseFailure)
}

func IsEndpointNotFound(err error) bool {
	return isKind(err, ErrEndpointNotFound, ErrorEndpointNotFound)
}

func IsVerificationRejected(err error) bool {
	return isKind(err, ErrVerificationRejected, ErrorVerificationRejected)
}

func isKind(err error, sentinel error, textCode string) bool {
	if err == nil {
		return false
	}
	if TextCodeOf(err) == textCode {
		return true
	}
	return errors.Is(err, sentinel)
}

// MapError converts any error into a go-errors envelope carrying an HTTP
// status and a text code.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return ensureErrorEnvelope(rich)
	}

	switch {
	case errors.Is(err, ErrMalformedRequest):
		return newEnvelope(err.Error(), goerrors.CategoryBadInput, ErrorMalformedRequest)
	case errors.Is(err, ErrUnsupportedContentType):
		return newEnvelope(err.Error(), goerrors.CategoryOperation, ErrorUnsupportedContentType)
	case errors.Is(err, ErrEndpointNotFound):
		return newEnvelope(err.Error(), goerrors.CategoryNotFound, ErrorEndpointNotFound)
	case errors.Is(err, ErrTransportFailure), errors.Is(err, ErrProtocolViolation), errors.Is(err, ErrParseFailure):
		return newEnvelope(err.Error(), goerrors.CategoryExternal, ErrorTransportFailure)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func newEnvelope(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = HTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorMalformedRequest
	case goerrors.CategoryNotFound:
		return ErrorEndpointNotFound
	case goerrors.CategoryOperation:
		return ErrorUnsupportedContentType
	case goerrors.CategoryExternal:
		return ErrorTransportFailure
	default:
		return ErrorInternal
	}
}

// HTTPStatus maps an error category to the status a receiver replies with.
func HTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation, goerrors.CategoryOperation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
