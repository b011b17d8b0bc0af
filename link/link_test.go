package link

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/goliatone/go-webmention/core"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return parsed
}

func htmlRep(t *testing.T, location string, body string) core.Representation {
	t.Helper()
	return core.Representation{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:       []byte(body),
		URL:        mustParse(t, location),
	}
}

func TestParseHeader(t *testing.T) {
	base := mustParse(t, "https://example.com/posts/1")
	cases := []struct {
		name   string
		values []string
		want   []string
		rels   [][]string
	}{
		{
			name:   "quoted rel",
			values: []string{`<https://example.com/wm>; rel="webmention"`},
			want:   []string{"https://example.com/wm"},
			rels:   [][]string{{"webmention"}},
		},
		{
			name:   "token rel relative uri",
			values: []string{`</endpoint?x=1>; rel=webmention`},
			want:   []string{"https://example.com/endpoint?x=1"},
			rels:   [][]string{{"webmention"}},
		},
		{
			name:   "rel list and case",
			values: []string{`<https://example.com/wm>; rel="Webmention somethingelse"`},
			want:   []string{"https://example.com/wm"},
			rels:   [][]string{{"webmention", "somethingelse"}},
		},
		{
			name:   "multiple link values in one field",
			values: []string{`<https://a.example/x,y>; rel="me"; title="a, b", <https://b.example/>; rel=webmention`},
			want:   []string{"https://a.example/x,y", "https://b.example/"},
			rels:   [][]string{{"me"}, {"webmention"}},
		},
		{
			name:   "multiple fields keep order",
			values: []string{`<https://first.example/>; rel="other"`, `<https://second.example/>; rel="webmention"`},
			want:   []string{"https://first.example/", "https://second.example/"},
			rels:   [][]string{{"other"}, {"webmention"}},
		},
		{
			name:   "first rel parameter wins",
			values: []string{`<https://example.com/wm>; rel="webmention"; rel="other"`},
			want:   []string{"https://example.com/wm"},
			rels:   [][]string{{"webmention"}},
		},
		{
			name:   "malformed value skipped",
			values: []string{`garbage; rel=webmention, <https://ok.example/>; rel=webmention`},
			want:   []string{"https://ok.example/"},
			rels:   [][]string{{"webmention"}},
		},
		{
			name:   "link without rel",
			values: []string{`<https://example.com/style.css>; type="text/css"`},
			want:   []string{"https://example.com/style.css"},
			rels:   [][]string{{}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			links := ParseHeader(tc.values, base)
			if len(links) != len(tc.want) {
				t.Fatalf("expected %d links, got %d: %#v", len(tc.want), len(links), links)
			}
			for i, link := range links {
				if link.URL.String() != tc.want[i] {
					t.Fatalf("link %d: expected %q, got %q", i, tc.want[i], link.URL)
				}
				if len(link.Relations) != len(tc.rels[i]) {
					t.Fatalf("link %d: expected relations %v, got %v", i, tc.rels[i], link.Relations)
				}
				for j, rel := range tc.rels[i] {
					if link.Relations[j] != rel {
						t.Fatalf("link %d: expected relations %v, got %v", i, tc.rels[i], link.Relations)
					}
				}
			}
		})
	}
}

func TestExtractHTML_DocumentOrderAndResolution(t *testing.T) {
	body := `<!doctype html>
<html><head>
<link rel="stylesheet" href="/style.css">
</head><body>
<!-- <link rel="webmention" href="/commented"> -->
<a href="/first" rel="webmention">first</a>
<link href="https://other.example/second" rel="Webmention me">
<a href="/no-rel">plain</a>
<a rel="webmention">missing href</a>
<template><link rel="webmention" href="/templated"></template>
</body></html>`
	links, err := ExtractHTML(htmlRep(t, "https://example.com/post/1", body), core.RelWebmention)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := []string{"https://example.com/first", "https://other.example/second"}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %#v", len(want), links)
	}
	for i, link := range links {
		if link.URL.String() != want[i] {
			t.Fatalf("link %d: expected %q, got %q", i, want[i], link.URL)
		}
	}
}

func TestExtractHTML_AllRelationsWhenUnfiltered(t *testing.T) {
	body := `<link rel="stylesheet" href="/a.css"><a rel="tag" href="tags/go">go</a>`
	links, err := ExtractHTML(htmlRep(t, "https://example.com/blog/", body), "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %#v", links)
	}
	if links[1].URL.String() != "https://example.com/blog/tags/go" {
		t.Fatalf("unexpected relative resolution %q", links[1].URL)
	}
}

func TestExtractHTML_HonorsBaseElement(t *testing.T) {
	body := `<html><head><base href="https://cdn.example/root/"></head>
<body><a rel="webmention" href="endpoint">wm</a></body></html>`
	links, err := ExtractHTML(htmlRep(t, "https://example.com/post", body), core.RelWebmention)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(links) != 1 || links[0].URL.String() != "https://cdn.example/root/endpoint" {
		t.Fatalf("expected base-resolved link, got %#v", links)
	}
}

func TestExtractHTML_EmptyHrefResolvesToPage(t *testing.T) {
	body := `<link rel="webmention" href="">`
	links, err := ExtractHTML(htmlRep(t, "https://example.com/post?id=4", body), core.RelWebmention)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(links) != 1 || links[0].URL.String() != "https://example.com/post?id=4" {
		t.Fatalf("expected page url, got %#v", links)
	}
}

func TestExtractHTML_NonHTMLYieldsNothing(t *testing.T) {
	rep := core.Representation{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(`{"href":"<a rel=\"webmention\" href=\"/x\">"}`),
		URL:        mustParse(t, "https://example.com/"),
	}
	links, err := ExtractHTML(rep, core.RelWebmention)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected no links, got %#v", links)
	}
}

func TestExtractHTML_EmptyBody(t *testing.T) {
	links, err := ExtractHTML(htmlRep(t, "https://example.com/", ""), core.RelWebmention)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected no links, got %#v", links)
	}
}
