package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := Setup(&buf, "info", "json")
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	log.Debug("hidden")
	log.Info("shown", "userID", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if rec["msg"] != "shown" || rec["userID"] != float64(7) {
		t.Errorf("record = %v", rec)
	}
}

func TestSetup_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	log, err := Setup(&buf, "DEBUG", "")
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	log.Debug("visible")
	if !strings.Contains(buf.String(), "level=DEBUG msg=visible") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSetup_Invalid(t *testing.T) {
	if _, err := Setup(&bytes.Buffer{}, "loud", "text"); err == nil {
		t.Error("Setup() with bad level: error = nil")
	}
	if _, err := Setup(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("Setup() with bad format: error = nil")
	}
}
