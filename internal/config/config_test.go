package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", c.Server.Port)
	}
	if c.OpenAI.Model != "gpt-4o-mini" || c.OpenAI.BaseURL != "https://api.openai.com" {
		t.Errorf("OpenAI = %+v", c.OpenAI)
	}
	if c.RateLimit.PerMinute != 5 || c.RateLimit.PerHour != 30 {
		t.Errorf("RateLimit = %+v, want 5/30", c.RateLimit)
	}
	if c.RabbitMQ.Queue != "activity-snapshot" || c.Worker.Concurrency != 4 || c.Worker.Port != 3001 {
		t.Errorf("worker settings = %+v / %d", c.RabbitMQ, c.Worker.Concurrency)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	yml := "server:\n  port: 8080\ndb:\n  url: postgres://file\nratelimit:\n  per_minute: 2\nlog:\n  elk:\n    enable: true\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DB_URL", "postgres://env")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:9999/")

	c, err := load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080 from file", c.Server.Port)
	}
	if c.DB.URL != "postgres://env" {
		t.Errorf("DB.URL = %q, want env override", c.DB.URL)
	}
	if c.OpenAI.BaseURL != "http://localhost:9999" {
		t.Errorf("OpenAI.BaseURL = %q, want trailing slash trimmed", c.OpenAI.BaseURL)
	}
	if c.RateLimit.PerMinute != 2 || c.RateLimit.PerHour != 30 {
		t.Errorf("RateLimit = %+v", c.RateLimit)
	}
	if !c.Log.ElkEnable {
		t.Error("Log.ElkEnable should be true from file")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("DB_URL", "")
	c, err := load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Validate(); err == nil {
		t.Error("expected error without db.url")
	}
	c.DB.URL = "postgres://x"
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	c.RateLimit.PerHour = 0
	if err := c.Validate(); err == nil {
		t.Error("expected error for zero hourly limit")
	}
}
