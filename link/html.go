package link

import (
	"net/url"
	"strings"

	"github.com/goliatone/go-webmention/core"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML representation with its resolution base.
type Document struct {
	Root *html.Node
	// Base is the first <base href> resolved against the response URL,
	// or the response URL itself.
	Base *url.URL
}

// IsHTML reports whether the representation declares an HTML media type.
func IsHTML(rep core.Representation) bool {
	switch rep.MediaType() {
	case core.MediaTypeHTML, "application/xhtml+xml":
		return true
	default:
		return false
	}
}

// ParseDocument decodes and parses the representation body as HTML.
func ParseDocument(rep core.Representation) (Document, error) {
	reader, err := rep.BodyReader()
	if err != nil {
		return Document{}, err
	}
	root, err := html.Parse(reader)
	if err != nil {
		return Document{}, core.ParseFailure(err, "link: could not parse HTML document", map[string]any{
			"url": urlString(rep.URL),
		})
	}
	return Document{Root: root, Base: documentBase(root, rep.URL)}, nil
}

// ExtractHTML returns the <link> and <a> elements that carry both href and
// rel, in document order, resolved against the document base. A non-empty
// rel keeps only links declaring that relation. Non-HTML representations
// yield no links.
func ExtractHTML(rep core.Representation, rel string) ([]core.Link, error) {
	if !IsHTML(rep) {
		return []core.Link{}, nil
	}
	doc, err := ParseDocument(rep)
	if err != nil {
		return nil, err
	}
	return doc.Links(rel), nil
}

func (d Document) Links(rel string) []core.Link {
	links := []core.Link{}
	Walk(d.Root, func(node *html.Node) bool {
		if node.DataAtom != atom.Link && node.DataAtom != atom.A {
			return true
		}
		href, hasHref := Attr(node, "href")
		relValue, hasRel := Attr(node, "rel")
		if !hasHref || !hasRel {
			return true
		}
		candidate := core.Link{Relations: relationTokens(relValue)}
		if rel != "" && !candidate.HasRelation(rel) {
			return true
		}
		resolved, err := core.ResolveReference(d.Base, href)
		if err != nil {
			return true
		}
		candidate.URL = resolved
		links = append(links, candidate)
		return true
	})
	return links
}

// Walk visits element nodes in document order. Returning false from visit
// skips the node's children. Template contents are never visited.
func Walk(root *html.Node, visit func(*html.Node) bool) {
	if root == nil {
		return
	}
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			if node.DataAtom == atom.Template {
				return
			}
			if !visit(node) {
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
}

// Attr returns the value of the named attribute.
func Attr(node *html.Node, name string) (string, bool) {
	for _, attr := range node.Attr {
		if attr.Namespace == "" && strings.EqualFold(attr.Key, name) {
			return attr.Val, true
		}
	}
	return "", false
}

func documentBase(root *html.Node, responseURL *url.URL) *url.URL {
	var base *url.URL
	Walk(root, func(node *html.Node) bool {
		if base != nil {
			return false
		}
		if node.DataAtom != atom.Base {
			return true
		}
		href, ok := Attr(node, "href")
		if !ok {
			return true
		}
		resolved, err := core.ResolveReference(responseURL, href)
		if err == nil {
			base = resolved
		}
		return false
	})
	if base != nil {
		return base
	}
	return responseURL
}

func urlString(value *url.URL) string {
	if value == nil {
		return ""
	}
	return value.String()
}
