package link

import (
	"net/url"
	"strings"

	"github.com/goliatone/go-webmention/core"
)

// ParseHeader parses Link header field values (RFC 8288) in order. Each
// value may hold several comma separated link-values. References are
// resolved against base; link-values that cannot be parsed are skipped.
func ParseHeader(values []string, base *url.URL) []core.Link {
	links := make([]core.Link, 0, len(values))
	for _, value := range values {
		p := headerParser{input: value}
		for {
			ref, params, ok := p.next()
			if !ok {
				break
			}
			if ref == nil {
				continue
			}
			resolved, err := core.ResolveReference(base, *ref)
			if err != nil {
				continue
			}
			links = append(links, core.Link{
				URL:       resolved,
				Relations: relationTokens(params["rel"]),
			})
		}
	}
	return links
}

// relationTokens splits a rel value into lower-cased tokens.
func relationTokens(value string) []string {
	fields := strings.Fields(value)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		tokens = append(tokens, strings.ToLower(field))
	}
	return tokens
}

type headerParser struct {
	input string
	pos   int
}

// next returns the next link-value. ref is nil when the link-value was
// malformed and skipped. ok is false at the end of input.
func (p *headerParser) next() (ref *string, params map[string]string, ok bool) {
	p.skip(" \t,")
	if p.eof() {
		return nil, nil, false
	}
	if p.input[p.pos] != '<' {
		p.skipLinkValue()
		return nil, nil, true
	}
	end := strings.IndexByte(p.input[p.pos+1:], '>')
	if end < 0 {
		p.pos = len(p.input)
		return nil, nil, true
	}
	target := p.input[p.pos+1 : p.pos+1+end]
	p.pos += end + 2

	params = map[string]string{}
	for {
		p.skip(" \t")
		if p.eof() {
			break
		}
		switch p.input[p.pos] {
		case ',':
			p.pos++
			return &target, params, true
		case ';':
			p.pos++
			name, value := p.param()
			if name == "" {
				continue
			}
			// only the first occurrence of a parameter counts
			if _, seen := params[name]; !seen {
				params[name] = value
			}
		default:
			p.skipLinkValue()
			return nil, nil, true
		}
	}
	return &target, params, true
}

func (p *headerParser) param() (string, string) {
	p.skip(" \t")
	start := p.pos
	for !p.eof() && !strings.ContainsRune("=;, \t", rune(p.input[p.pos])) {
		p.pos++
	}
	name := strings.ToLower(p.input[start:p.pos])
	p.skip(" \t")
	if p.eof() || p.input[p.pos] != '=' {
		return name, ""
	}
	p.pos++
	p.skip(" \t")
	if !p.eof() && p.input[p.pos] == '"' {
		return name, p.quoted()
	}
	start = p.pos
	for !p.eof() && !strings.ContainsRune(";, \t", rune(p.input[p.pos])) {
		p.pos++
	}
	return name, p.input[start:p.pos]
}

func (p *headerParser) quoted() string {
	p.pos++ // opening quote
	var out strings.Builder
	for !p.eof() {
		c := p.input[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.input):
			out.WriteByte(p.input[p.pos+1])
			p.pos += 2
		case c == '"':
			p.pos++
			return out.String()
		default:
			out.WriteByte(c)
			p.pos++
		}
	}
	return out.String()
}

// skipLinkValue advances past the current link-value, honoring quoted
// strings and angle brackets.
func (p *headerParser) skipLinkValue() {
	inQuotes := false
	inBrackets := false
	for !p.eof() {
		c := p.input[p.pos]
		p.pos++
		switch {
		case inQuotes && c == '\\':
			p.pos++
		case c == '"' && !inBrackets:
			inQuotes = !inQuotes
		case c == '<' && !inQuotes:
			inBrackets = true
		case c == '>' && !inQuotes:
			inBrackets = false
		case c == ',' && !inQuotes && !inBrackets:
			return
		}
	}
}

func (p *headerParser) skip(chars string) {
	for !p.eof() && strings.IndexByte(chars, p.input[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *headerParser) eof() bool {
	return p.pos >= len(p.input)
}
