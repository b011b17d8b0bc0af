package core

import (
	"net/url"
	"strings"
)

const RedactedValue = "[REDACTED]"

// RedactSensitiveMap copies metadata, masking values under sensitive keys
// and sensitive query parameters inside URL strings.
func RedactSensitiveMap(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return map[string]any{}
	}
	return redactSensitiveMap(metadata)
}

func redactSensitiveMap(source map[string]any) map[string]any {
	target := make(map[string]any, len(source))
	for key, value := range source {
		if shouldRedactKey(key) {
			target[key] = RedactedValue
			continue
		}
		target[key] = redactSensitiveValue(value)
	}
	return target
}

func redactSensitiveValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return redactSensitiveMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = redactSensitiveValue(typed[i])
		}
		return out
	case string:
		return RedactURLString(typed)
	case *url.URL:
		return RedactURL(typed)
	default:
		return value
	}
}

// RedactURL returns the URL with sensitive query values and userinfo
// password masked. Endpoints commonly carry access tokens in the query.
func RedactURL(value *url.URL) string {
	if value == nil {
		return ""
	}
	out := cloneURL(value)
	if out.User != nil {
		if _, ok := out.User.Password(); ok {
			out.User = url.UserPassword(out.User.Username(), RedactedValue)
		}
	}
	if out.RawQuery != "" {
		query, err := url.ParseQuery(out.RawQuery)
		if err == nil {
			changed := false
			for key := range query {
				if shouldRedactKey(key) {
					query[key] = []string{RedactedValue}
					changed = true
				}
			}
			if changed {
				out.RawQuery = query.Encode()
			}
		}
	}
	return out.String()
}

// RedactURLString leaves anything that is not an absolute URL untouched.
func RedactURLString(raw string) string {
	if !strings.Contains(raw, "://") {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || !parsed.IsAbs() {
		return raw
	}
	if parsed.RawQuery == "" && parsed.User == nil {
		return raw
	}
	return RedactURL(parsed)
}

func shouldRedactKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}
	sensitiveTokens := []string{
		"password",
		"secret",
		"token",
		"authorization",
		"api_key",
		"apikey",
		"access_key",
		"credential",
		"signature",
	}
	for _, token := range sensitiveTokens {
		if strings.Contains(key, token) {
			return true
		}
	}
	return false
}
