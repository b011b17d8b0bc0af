package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type capturedHistogram struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedCounter
	histograms []capturedHistogram
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedHistogram{name: name, value: value, tags: cloneTags(tags)})
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFields(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFields(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFields(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := *l.records
	out := make([]capturedLog, len(items))
	copy(out, items)
	return out
}

func TestObserver_RecordsSuccess(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	observer := NewObserver(logger, metrics)

	observer.Observe(context.Background(), time.Now().Add(-5*time.Millisecond), "discover", nil, map[string]any{
		"target": "https://example.com/post",
		"signal": DiscoverySignalHeader,
	})

	if !hasCounter(metrics.counters, "webmention.discover.total", "success") {
		t.Fatalf("expected webmention.discover.total success counter, got %#v", metrics.counters)
	}
	if !hasHistogram(metrics.histograms, "webmention.discover.duration_ms", "success") {
		t.Fatalf("expected webmention.discover.duration_ms histogram")
	}
	if metrics.counters[0].tags["signal"] != "header" {
		t.Fatalf("expected signal tag, got %#v", metrics.counters[0].tags)
	}
	if !hasLog(logger.snapshot(), "info", "discover succeeded", "discover") {
		t.Fatalf("expected discover succeeded log")
	}
}

func TestObserver_RecordsFailureWithErrorCode(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	observer := NewObserver(logger, metrics)

	err := TransportFailure(errors.New("dial tcp: refused"), "fetch source", nil)
	observer.Observe(context.Background(), time.Now(), "Verify", err, nil)

	if !hasCounter(metrics.counters, "webmention.verify.total", "failure") {
		t.Fatalf("expected failure counter, got %#v", metrics.counters)
	}
	if metrics.counters[0].tags["error_code"] != ErrorTransportFailure {
		t.Fatalf("expected error_code tag, got %#v", metrics.counters[0].tags)
	}
	logs := logger.snapshot()
	if !hasLog(logs, "error", "verify failed", "verify") {
		t.Fatalf("expected verify failed log, got %#v", logs)
	}
	if logs[0].fields["error_code"] != ErrorTransportFailure {
		t.Fatalf("expected error_code field, got %#v", logs[0].fields)
	}
}

func TestObserver_RedactsEndpointTokensInLogs(t *testing.T) {
	logger := newCaptureLogger()
	observer := NewObserver(logger, nil)

	observer.Observe(context.Background(), time.Now(), "notify", nil, map[string]any{
		"endpoint": "https://wm.example/endpoint?token=s3cret",
	})

	logs := logger.snapshot()
	if len(logs) == 0 {
		t.Fatalf("expected a log record")
	}
	endpoint, _ := logs[0].fields["endpoint"].(string)
	if strings.Contains(endpoint, "s3cret") {
		t.Fatalf("expected endpoint token to be redacted, got %q", endpoint)
	}
}

func TestObserver_NilIsNoop(t *testing.T) {
	var observer *Observer
	observer.Observe(context.Background(), time.Now(), "notify", nil, nil)
	observer.Debug(context.Background(), "ignored", nil)
}

func hasCounter(items []capturedCounter, name string, status string) bool {
	for _, item := range items {
		if item.name == name && item.tags["status"] == status {
			return true
		}
	}
	return false
}

func hasHistogram(items []capturedHistogram, name string, status string) bool {
	for _, item := range items {
		if item.name == name && item.tags["status"] == status {
			return true
		}
	}
	return false
}

func hasLog(items []capturedLog, level string, msg string, eventType string) bool {
	for _, item := range items {
		if item.level == level && item.msg == msg && item.fields["event_type"] == eventType {
			return true
		}
	}
	return false
}
