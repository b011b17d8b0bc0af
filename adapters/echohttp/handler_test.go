package echohttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-webmention/core"
	"github.com/goliatone/go-webmention/inbound"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifierFunc func(ctx context.Context, mention core.Webmention) (bool, error)

func (f verifierFunc) Verify(ctx context.Context, mention core.Webmention) (bool, error) {
	return f(ctx, mention)
}

func newReceiver(valid bool, handlerErr error) (*inbound.Receiver, *[]inbound.Receipt) {
	var handled []inbound.Receipt
	receiver := inbound.NewReceiver(
		verifierFunc(func(context.Context, core.Webmention) (bool, error) { return valid, nil }),
		inbound.HandlerFunc(func(_ context.Context, receipt inbound.Receipt) error {
			handled = append(handled, receipt)
			return handlerErr
		}),
	)
	receiver.NewID = func() string { return "rcpt_1" }
	receiver.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return receiver, &handled
}

func post(t *testing.T, e *echo.Echo, contentType string, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, core.DefaultReceiverPath, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	payload := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec, payload
}

func TestReceive_AcceptsVerifiedMention(t *testing.T) {
	receiver, handled := newReceiver(true, nil)
	e := echo.New()
	Register(e, "", NewHandler(receiver))

	form := url.Values{"source": {"https://a.example/post"}, "target": {"https://b.example/page"}}
	rec, payload := post(t, e, echo.MIMEApplicationForm, form.Encode())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", payload["status"])
	content, ok := payload["content"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "rcpt_1", content["id"])
	assert.Equal(t, "https://a.example/post", content["source"])
	assert.Equal(t, "2026-01-02T03:04:05Z", content["received_at"])
	assert.Len(t, *handled, 1)
}

func TestReceive_RejectionsAreBadRequest(t *testing.T) {
	cases := []struct {
		name        string
		valid       bool
		contentType string
		body        string
		code        string
	}{
		{"identical urls", true, echo.MIMEApplicationForm, "source=https%3A%2F%2Fx.example%2Fa&target=https%3A%2F%2Fx.example%2Fa", core.ErrorMalformedRequest},
		{"missing target", true, echo.MIMEApplicationForm, "source=https%3A%2F%2Fa.example%2F", core.ErrorMalformedRequest},
		{"json body", true, echo.MIMEApplicationJSON, `{"source":"https://a.example/","target":"https://b.example/"}`, core.ErrorMalformedRequest},
		{"no link in source", false, echo.MIMEApplicationForm, "source=https%3A%2F%2Fa.example%2F&target=https%3A%2F%2Fb.example%2F", core.ErrorVerificationRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			receiver, handled := newReceiver(tc.valid, nil)
			e := echo.New()
			Register(e, core.DefaultReceiverPath, NewHandler(receiver))

			rec, payload := post(t, e, tc.contentType, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "error", payload["status"])
			assert.Equal(t, tc.code, payload["code"])
			assert.NotEmpty(t, payload["message"])
			assert.Empty(t, *handled)
		})
	}
}

func TestReceive_HandlerFailureIsInternalServerError(t *testing.T) {
	receiver, _ := newReceiver(true, assert.AnError)
	e := echo.New()
	Register(e, "", NewHandler(receiver))

	form := url.Values{"source": {"https://a.example/post"}, "target": {"https://b.example/page"}}
	rec, payload := post(t, e, echo.MIMEApplicationForm, form.Encode())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "webmention could not be processed", payload["message"])
}

func TestReceive_MissingReceiver(t *testing.T) {
	e := echo.New()
	Register(e, "", NewHandler(nil))
	rec, _ := post(t, e, echo.MIMEApplicationForm, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
