//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"telegram-imgbb-uploader/internal/config"
)

func TestWith_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, config.LogConfig{Level: "debug", Format: "json"}, false)

	ctx := WithTraceID(context.Background(), "01HTRACE")
	ctx = WithTgID(ctx, 42)
	With(ctx, base).Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	if line["trace_id"] != "01HTRACE" {
		t.Errorf("trace_id missing: %v", line)
	}
	if line["tg_id"] != float64(42) {
		t.Errorf("tg_id missing: %v", line)
	}
	if _, ok := line["chat_id"]; ok {
		t.Errorf("chat_id should be absent: %v", line)
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, config.LogConfig{Level: "warn", Format: "json"}, false)
	l.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %s", buf.String())
	}
	l.Warn().Msg("kept")
	if buf.Len() == 0 {
		t.Fatalf("warn should be written")
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("short", false); got != "***" {
		t.Errorf("short secret: got %q", got)
	}
	if got := Redact("0123456789abcdef", false); got != "0123...ef" {
		t.Errorf("long secret: got %q", got)
	}
	if got := Redact("0123456789abcdef", true); got != "0123456789abcdef" {
		t.Errorf("dev should not redact: got %q", got)
	}
}
