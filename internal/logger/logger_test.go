package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriterJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithModule("match").WithField("score", 0.5).Info("comparison complete")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if record["message"] != "comparison complete" {
		t.Errorf("Expected message key, got %v", record["message"])
	}
	if record["level"] != "info" {
		t.Errorf("Expected lowercase level 'info', got %v", record["level"])
	}
	if record["module"] != "match" {
		t.Errorf("Expected module 'match', got %v", record["module"])
	}
	if record["score"] != 0.5 {
		t.Errorf("Expected score 0.5, got %v", record["score"])
	}
	if _, ok := record["timestamp"]; !ok {
		t.Error("Expected timestamp key in output")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)

	log.Info("should be dropped")
	log.Debug("should be dropped")
	if buf.Len() != 0 {
		t.Errorf("Expected no output below warn level, got %q", buf.String())
	}

	log.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("Expected warn output, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), `"level":"warning"`) {
		t.Errorf("Expected warn level renamed to 'warning', got %q", buf.String())
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.WithFields(map[string]any{"a": 1, "b": "two"}).Debug("fields")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if record["a"] != float64(1) || record["b"] != "two" {
		t.Errorf("Expected fields a=1 b=two, got %v", record)
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
		nil, // skipped
	)
	log := slog.New(h)

	log.Info("hello")

	if !strings.Contains(a.String(), "hello") {
		t.Error("first handler did not receive record")
	}
	if !strings.Contains(b.String(), "hello") {
		t.Error("second handler did not receive record")
	}
}

func TestNewWithOptionsWithoutToken(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions("info", &buf, Options{})

	log.Info("local only")
	if !strings.Contains(buf.String(), "local only") {
		t.Errorf("Expected local output, got %q", buf.String())
	}
}
