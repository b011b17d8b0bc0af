package gologger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/pterm/pterm"
)

func TestResolveDeterministicFallback(t *testing.T) {
	loggerOnly := &capturingLogger{id: "logger"}
	providerLogger := &capturingLogger{id: "provider"}
	provider := &capturingProvider{logger: providerLogger}

	var resolvedProvider glog.LoggerProvider
	_, resolved := Resolve("webmention", provider, loggerOnly)
	got := resolved.(*capturingLogger)
	if got.id != "provider" {
		t.Fatalf("expected provider logger precedence, got %q", got.id)
	}

	resolvedProvider, resolved = Resolve("webmention", nil, loggerOnly)
	got = resolved.(*capturingLogger)
	if got.id != "logger" {
		t.Fatalf("expected direct logger when provider is nil, got %q", got.id)
	}
	if resolvedProvider == nil {
		t.Fatalf("expected provider wrapper from logger")
	}

	_, resolved = Resolve("webmention", nil, nil)
	if resolved == nil {
		t.Fatalf("expected nop logger fallback")
	}
}

func TestPtermLogger_WritesMessageAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewPtermLogger("webmention", PtermOptions{Level: "debug", Writer: &buf, JSON: true})

	logger.Info("receive succeeded", "source", "https://a.example/post")
	out := buf.String()
	if !strings.Contains(out, "receive succeeded") {
		t.Fatalf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "https://a.example/post") {
		t.Fatalf("expected field value in output, got %q", out)
	}

	buf.Reset()
	logger.GetLogger("verify").WithContext(context.Background()).Debug("dispatching", "media_type", "text/html")
	if !strings.Contains(buf.String(), "text/html") {
		t.Fatalf("expected debug output, got %q", buf.String())
	}
}

func TestPtermLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewPtermLogger("webmention", PtermOptions{Level: "error", Writer: &buf})
	logger.Info("ignored")
	logger.Debug("ignored")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below level, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]pterm.LogLevel{
		"DEBUG":   pterm.LogLevelDebug,
		" warn ":  pterm.LogLevelWarn,
		"off":     pterm.LogLevelDisabled,
		"":        pterm.LogLevelInfo,
		"verbose": pterm.LogLevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("level %q: expected %v, got %v", input, want, got)
		}
	}
}

var (
	_ glog.Logger         = (*capturingLogger)(nil)
	_ glog.LoggerProvider = (*capturingProvider)(nil)
)

type capturingProvider struct {
	logger *capturingLogger
}

func (p *capturingProvider) GetLogger(string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type capturingLogger struct {
	id string
}

func (l *capturingLogger) Trace(string, ...any) {}
func (l *capturingLogger) Debug(string, ...any) {}
func (l *capturingLogger) Info(string, ...any)  {}
func (l *capturingLogger) Warn(string, ...any)  {}
func (l *capturingLogger) Error(string, ...any) {}
func (l *capturingLogger) Fatal(string, ...any) {}

func (l *capturingLogger) WithContext(context.Context) glog.Logger {
	return l
}
