package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

func testLogger() (*bolt.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(Config{Level: "trace", Format: "json", Output: buf}), buf
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"info", bolt.INFO},
		{"WARN", bolt.WARN},
		{"warning", bolt.WARN},
		{"error", bolt.ERROR},
		{"unknown", bolt.INFO},
		{"", bolt.INFO},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{"request id", RequestID("req-1"), `"request_id":"req-1"`},
		{"chart", Chart("Sales by Region"), `"chart":"Sales by Region"`},
		{"chart kind", ChartKind("bar"), `"chart_kind":"bar"`},
		{"component", Component("render"), `"component":"render"`},
		{"duration", Duration(250 * time.Millisecond), `"duration_ms":250`},
		{"count", Count("rows", 12), `"rows":12`},
		{"str", Str("provider", "gemini"), `"provider":"gemini"`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			logger, buf := testLogger()
			tt.field(logger.Info()).Msg("test")
			if !bytes.Contains(buf.Bytes(), []byte(tt.want)) {
				t.Errorf("expected %s in output: %s", tt.want, buf.String())
			}
		})
	}
}

func TestErrorField(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	ErrorField(errors.New("boom"))(logger.Error()).Msg("failed")
	if !bytes.Contains(buf.Bytes(), []byte("boom")) {
		t.Errorf("expected error text in output: %s", buf.String())
	}

	logger, buf = testLogger()
	ErrorField(nil)(logger.Info()).Msg("fine")
	if !bytes.Contains(buf.Bytes(), []byte("fine")) {
		t.Errorf("nil error should still log: %s", buf.String())
	}
}

func TestInitReplacesDefault(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Config{Level: "debug", Format: "json", Output: buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Info().Add(Component("api")).Add(RequestID("abc")).Msg("hello")

	out := buf.String()
	for _, want := range []string{`"component":"api"`, `"request_id":"abc"`, "hello"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("expected %s in output: %s", want, out)
		}
	}
	if Get() == nil {
		t.Fatal("Get() returned nil")
	}
}

func TestRequestIDContext(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "req-9")
	if got := RequestIDFrom(ctx); got != "req-9" {
		t.Fatalf("RequestIDFrom = %q", got)
	}
	if got := RequestIDFrom(context.Background()); got != "" {
		t.Fatalf("empty context returned %q", got)
	}

	logger, buf := testLogger()
	FromContext(ctx)(logger.Info()).Msg("with id")
	if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"req-9"`)) {
		t.Errorf("expected request id in output: %s", buf.String())
	}

	logger, buf = testLogger()
	FromContext(context.Background())(logger.Info()).Msg("without id")
	if bytes.Contains(buf.Bytes(), []byte("request_id")) {
		t.Errorf("unexpected request id in output: %s", buf.String())
	}
}
