package core

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"
)

// RelWebmention is the relation token that advertises a receiver endpoint.
const RelWebmention = "webmention"

const (
	MediaTypeHTML = "text/html"
	MediaTypeText = "text/plain"
	MediaTypeJSON = "application/json"
	MediaTypeForm = "application/x-www-form-urlencoded"
)

// Webmention is a validated (source, target) pair. Build it with
// NewWebmention or ParseWebmention.
type Webmention struct {
	Source *url.URL
	Target *url.URL

	rawSource string
	rawTarget string
}

// NewWebmention validates an already parsed pair.
func NewWebmention(source *url.URL, target *url.URL) (Webmention, error) {
	if err := validateMentionURL("source", source); err != nil {
		return Webmention{}, err
	}
	if err := validateMentionURL("target", target); err != nil {
		return Webmention{}, err
	}
	if source.String() == target.String() {
		return Webmention{}, MalformedRequest(
			"source and target URL must not be identical",
			map[string]any{"source": source.String(), "target": target.String()},
		)
	}
	return Webmention{Source: cloneURL(source), Target: cloneURL(target)}, nil
}

// ParseWebmention parses and validates raw source and target values as they
// arrive from a form post or a command line.
func ParseWebmention(rawSource string, rawTarget string) (Webmention, error) {
	source, err := ParseMentionURL("source", rawSource)
	if err != nil {
		return Webmention{}, err
	}
	target, err := ParseMentionURL("target", rawTarget)
	if err != nil {
		return Webmention{}, err
	}
	mention, err := NewWebmention(source, target)
	if err != nil {
		return Webmention{}, err
	}
	mention.rawSource = strings.TrimSpace(rawSource)
	mention.rawTarget = strings.TrimSpace(rawTarget)
	return mention, nil
}

// ParseMentionURL parses one absolute http(s) URL. The parameter name is only
// used for diagnostics.
func ParseMentionURL(param string, raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, MalformedRequest(
			fmt.Sprintf("required parameter '%s' is missing", param),
			map[string]any{"parameter": param},
		)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, WrapMalformedRequest(
			err,
			fmt.Sprintf("parameter '%s' has invalid URL syntax", param),
			map[string]any{"parameter": param, "value": raw},
		)
	}
	if err := validateMentionURL(param, parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func validateMentionURL(param string, value *url.URL) error {
	if value == nil {
		return MalformedRequest(
			fmt.Sprintf("required parameter '%s' is missing", param),
			map[string]any{"parameter": param},
		)
	}
	scheme := strings.ToLower(value.Scheme)
	if scheme != "http" && scheme != "https" {
		return MalformedRequest(
			fmt.Sprintf("URL scheme of parameter '%s' is not supported: %q", param, value.Scheme),
			map[string]any{"parameter": param, "value": value.String()},
		)
	}
	if value.Host == "" {
		return MalformedRequest(
			fmt.Sprintf("parameter '%s' must be an absolute URL with a host", param),
			map[string]any{"parameter": param, "value": value.String()},
		)
	}
	return nil
}

// SourceLiteral returns the source exactly as it was supplied to
// ParseWebmention. Pairs built from parsed URLs fall back to the serialized
// URL.
func (w Webmention) SourceLiteral() string {
	if w.rawSource != "" {
		return w.rawSource
	}
	return urlString(w.Source)
}

// TargetLiteral returns the target exactly as it was supplied. Verification
// compares against this value, so scheme case and percent-encoding are kept.
func (w Webmention) TargetLiteral() string {
	if w.rawTarget != "" {
		return w.rawTarget
	}
	return urlString(w.Target)
}

func (w Webmention) String() string {
	return fmt.Sprintf("source=%s target=%s", urlString(w.Source), urlString(w.Target))
}

// Link is an absolute URI with the relation tokens it was declared with.
// Tokens are lower-cased.
type Link struct {
	URL       *url.URL
	Relations []string
}

func (l Link) HasRelation(token string) bool {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return false
	}
	for _, rel := range l.Relations {
		if rel == token {
			return true
		}
	}
	return false
}

// Optional holds a value that may be absent. The zero value is absent.
type Optional[T any] struct {
	value   T
	present bool
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

func (o Optional[T]) IsPresent() bool {
	return o.present
}

func (o Optional[T]) OrElse(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}

// DiscoverySignal names the tier that produced a discovery result.
type DiscoverySignal string

const (
	DiscoverySignalHeader DiscoverySignal = "header"
	DiscoverySignalHTML   DiscoverySignal = "html"
	DiscoverySignalNone   DiscoverySignal = "none"
)

type DiscoveryResult struct {
	Endpoint Optional[*url.URL]
	Signal   DiscoverySignal
}

type NotificationOutcome struct {
	Accepted        bool
	StatusCode      int
	Reason          string
	MonitorLocation Optional[*url.URL]
}

// Representation is a fetched HTTP response with its body fully read.
// URL is the effective request URL reported by the transport, which is the
// post-redirect location when redirects were followed.
type Representation struct {
	StatusCode int
	Reason     string
	Header     http.Header
	Body       []byte
	URL        *url.URL
}

func (r Representation) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r Representation) ContentType() string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

// MediaType returns the lower-cased media type without parameters, or ""
// when the response declared none or an unparsable one.
func (r Representation) MediaType() string {
	return ParseMediaType(r.ContentType())
}

// BodyReader returns the body decoded to UTF-8 using the declared charset,
// falling back to sniffing.
func (r Representation) BodyReader() (io.Reader, error) {
	if len(r.Body) == 0 {
		return bytes.NewReader(nil), nil
	}
	reader, err := charset.NewReader(bytes.NewReader(r.Body), r.ContentType())
	if err != nil {
		return nil, ParseFailure(err, "decode response body", map[string]any{
			"content_type": r.ContentType(),
			"url":          urlString(r.URL),
		})
	}
	return reader, nil
}

// Text returns the decoded body as a string.
func (r Representation) Text() (string, error) {
	reader, err := r.BodyReader()
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", ParseFailure(err, "decode response body", map[string]any{
			"content_type": r.ContentType(),
			"url":          urlString(r.URL),
		})
	}
	return string(decoded), nil
}

// ParseMediaType normalizes a Content-Type header value to its media type.
func ParseMediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mediaType)
}

// ResolveReference resolves ref against base. A nil base leaves ref as is.
func ResolveReference(base *url.URL, ref string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}
	if base == nil {
		return parsed, nil
	}
	return base.ResolveReference(parsed), nil
}

func cloneURL(in *url.URL) *url.URL {
	if in == nil {
		return nil
	}
	out := *in
	if in.User != nil {
		user := *in.User
		out.User = &user
	}
	return &out
}

func urlString(value *url.URL) string {
	if value == nil {
		return ""
	}
	return value.String()
}
