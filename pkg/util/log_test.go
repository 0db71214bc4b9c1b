package util

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

// captureLog sends log output to a buffer for the rest of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	out, level, formatter := Logger.Out, Logger.Level, Logger.Formatter
	t.Cleanup(func() {
		Logger.SetOutput(out)
		Logger.SetLevel(level)
		Logger.SetFormatter(formatter)
	})
	var buf bytes.Buffer
	SetLogOutput(&buf)
	return &buf
}

func TestSetLogLevel(t *testing.T) {
	captureLog(t)

	tests := []struct {
		level   string
		want    logrus.Level
		wantErr bool
	}{
		{"debug", logrus.DebugLevel, false},
		{"warn", logrus.WarnLevel, false},
		{"warning", logrus.WarnLevel, false},
		{"error", logrus.ErrorLevel, false},
		{"loud", logrus.ErrorLevel, true},
	}
	for _, tt := range tests {
		err := SetLogLevel(tt.level)
		if (err != nil) != tt.wantErr {
			t.Errorf("SetLogLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
		}
		if Logger.Level != tt.want {
			t.Errorf("after SetLogLevel(%q) level = %v, want %v", tt.level, Logger.Level, tt.want)
		}
	}
}

func TestSetJSONFormat(t *testing.T) {
	buf := captureLog(t)
	SetJSONFormat()

	WithFeature("vpc", "domain").Warn("resolved")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v: %s", err, buf.String())
	}
	if entry["feature"] != "vpc" || entry["property"] != "domain" || entry["msg"] != "resolved" {
		t.Errorf("entry = %v", entry)
	}
}

func TestWithFeature(t *testing.T) {
	buf := captureLog(t)

	WithFeature("bgp", "router_id").Warn("one")
	WithFeature("bgp", "").Warn("two")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "feature=bgp") || !strings.Contains(lines[0], "property=router_id") {
		t.Errorf("line 1 missing feature context: %s", lines[0])
	}
	if strings.Contains(lines[1], "property=") {
		t.Errorf("line 2 should omit an empty property: %s", lines[1])
	}
}

func TestWithDevice(t *testing.T) {
	buf := captureLog(t)
	WithDevice("sw1").Warn("x")
	if !strings.Contains(buf.String(), "device=sw1") {
		t.Errorf("missing device field: %s", buf.String())
	}
}

func TestDebugfRespectsLevel(t *testing.T) {
	buf := captureLog(t)

	SetLogLevel("warn")
	Debugf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Errorf("debug output should be suppressed at warn level, got %q", buf.String())
	}

	SetLogLevel("debug")
	Debugf("shown %d", 2)
	if !strings.Contains(buf.String(), "shown 2") {
		t.Errorf("expected debug output, got %q", buf.String())
	}
}
