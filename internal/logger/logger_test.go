package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer

	log, err := New("debug", "json", &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.WithField("user_id", "u1").Debug("user logged in")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %q", buf.String())
	}
	if entry["msg"] != "user logged in" || entry["user_id"] != "u1" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer

	log, err := New("warn", "text", &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Info("hidden")
	log.Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("output = %q", buf.String())
	}
	if log.GetLevel() != logrus.WarnLevel {
		t.Errorf("level = %v", log.GetLevel())
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New("loud", "text", nil); err == nil {
		t.Error("unknown level should fail")
	}
	if _, err := New("info", "xml", nil); err == nil {
		t.Error("unknown format should fail")
	}
}
