package verify

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/goliatone/go-webmention/core"
	"github.com/goliatone/go-webmention/link"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLVerifier looks for a[href] or img, video, audio [src] attributes
// exactly equal to the target. Attribute values are not resolved or
// normalized.
type HTMLVerifier struct{}

func (HTMLVerifier) MediaType() string { return core.MediaTypeHTML }

func (HTMLVerifier) IsValid(rep core.Representation, target string) (bool, error) {
	if target == "" {
		return false, nil
	}
	doc, err := link.ParseDocument(rep)
	if err != nil {
		return false, err
	}
	found := false
	link.Walk(doc.Root, func(node *html.Node) bool {
		if found {
			return false
		}
		var attr string
		switch node.DataAtom {
		case atom.A:
			attr = "href"
		case atom.Img, atom.Video, atom.Audio:
			attr = "src"
		default:
			return true
		}
		if value, ok := link.Attr(node, attr); ok && value == target {
			found = true
			return false
		}
		return true
	})
	return found, nil
}

// TextVerifier accepts a plain text body that contains the target.
type TextVerifier struct{}

func (TextVerifier) MediaType() string { return core.MediaTypeText }

func (TextVerifier) IsValid(rep core.Representation, target string) (bool, error) {
	if target == "" {
		return false, nil
	}
	text, err := rep.Text()
	if err != nil {
		return false, err
	}
	return strings.Contains(text, target), nil
}

// JSONVerifier accepts a JSON document in which any string value equals
// the target.
type JSONVerifier struct{}

func (JSONVerifier) MediaType() string { return core.MediaTypeJSON }

func (JSONVerifier) IsValid(rep core.Representation, target string) (bool, error) {
	if target == "" {
		return false, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(rep.Body))
	decoder.UseNumber()
	var document any
	if err := decoder.Decode(&document); err != nil {
		return false, core.ParseFailure(err, "verify: could not parse JSON document", map[string]any{
			"url": urlString(rep.URL),
		})
	}
	if err := decoder.Decode(new(any)); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return false, core.ParseFailure(err, "verify: JSON document has trailing data", map[string]any{
			"url": urlString(rep.URL),
		})
	}
	return containsString(document, target), nil
}

// containsString walks decoded JSON values. Object keys are not values.
func containsString(value any, want string) bool {
	switch typed := value.(type) {
	case string:
		return typed == want
	case []any:
		for _, item := range typed {
			if containsString(item, want) {
				return true
			}
		}
	case map[string]any:
		for _, item := range typed {
			if containsString(item, want) {
				return true
			}
		}
	}
	return false
}

func urlString(value *url.URL) string {
	if value == nil {
		return ""
	}
	return value.String()
}
