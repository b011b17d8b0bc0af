package gologger

import (
	"context"
	"io"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/pterm/pterm"
)

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

// ParseLevel maps a textual level onto pterm. Unknown values fall back to
// info.
func ParseLevel(level string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "fatal":
		return pterm.LogLevelFatal
	case "off", "disabled", "none":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelInfo
	}
}

// PtermLogger writes glog calls through a pterm logger. Arguments are
// interpreted as alternating key/value pairs.
type PtermLogger struct {
	name   string
	logger *pterm.Logger
}

type PtermOptions struct {
	Level  string
	Writer io.Writer
	JSON   bool
}

func NewPtermLogger(name string, opts PtermOptions) *PtermLogger {
	logger := pterm.DefaultLogger.WithLevel(ParseLevel(opts.Level))
	if opts.Writer != nil {
		logger = logger.WithWriter(opts.Writer)
	}
	if opts.JSON {
		logger = logger.WithFormatter(pterm.LogFormatterJSON)
	}
	return &PtermLogger{name: strings.TrimSpace(name), logger: logger}
}

func (l *PtermLogger) Trace(msg string, args ...any) {
	l.logger.Trace(msg, l.args(args))
}

func (l *PtermLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, l.args(args))
}

func (l *PtermLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.args(args))
}

func (l *PtermLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, l.args(args))
}

func (l *PtermLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, l.args(args))
}

func (l *PtermLogger) Fatal(msg string, args ...any) {
	l.logger.Fatal(msg, l.args(args))
}

func (l *PtermLogger) WithContext(context.Context) glog.Logger {
	return l
}

// GetLogger returns a logger sharing level and writer, tagged with name.
func (l *PtermLogger) GetLogger(name string) glog.Logger {
	return &PtermLogger{name: strings.TrimSpace(name), logger: l.logger}
}

func (l *PtermLogger) args(args []any) []pterm.LoggerArgument {
	if l.name != "" {
		args = append([]any{"logger", l.name}, args...)
	}
	if len(args)%2 != 0 {
		args = append(args, "")
	}
	return l.logger.Args(args...)
}

var (
	_ glog.Logger         = (*PtermLogger)(nil)
	_ glog.LoggerProvider = (*PtermLogger)(nil)
)
