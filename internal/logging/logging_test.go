package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"lg/nutri-coach-go-api/internal/config"
)

func TestNew_Level(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = "debug"
	if got := New(cfg, "test").GetLevel(); got != logrus.DebugLevel {
		t.Errorf("level = %s, want debug", got)
	}

	cfg.Log.Level = "chatty"
	if got := New(cfg, "test").GetLevel(); got != logrus.InfoLevel {
		t.Errorf("unknown level should fall back to info, got %s", got)
	}
}

func TestNew_Format(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	logger := New(cfg, "test")
	var buf bytes.Buffer
	logger.Out = &buf

	logger.WithField("user_id", 7).Info("[test] hello")
	out := buf.String()
	if !strings.Contains(out, `msg="[test] hello"`) || !strings.Contains(out, "user_id=7") {
		t.Errorf("unexpected log line: %s", out)
	}
}

// TestNew_LogstashHook verifies the UDP hook attaches without a listener,
// since UDP dial does not handshake.
func TestNew_LogstashHook(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.LogstashEnable = true
	cfg.Log.LogstashURL = "127.0.0.1:5959"

	logger := New(cfg, "test")
	if len(logger.Hooks[logrus.InfoLevel]) != 1 {
		t.Errorf("expected one hook at info level, got %d", len(logger.Hooks[logrus.InfoLevel]))
	}
}
