package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.yaml.in/yaml/v4"
)

// isolate points Load at an empty directory so a developer's .env or
// config.yaml cannot leak into the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{
		"HABITS_CONFIG", "BOT_TOKEN", "HABITS_BOT_TOKEN", "HABITS_TIMEZONE",
		"HABITS_DB_DRIVER", "HABITS_DB_PATH", "HABITS_LISTEN_ADDR", "HABITS_API_BASE",
		"HABITS_LOG_LEVEL", "HABITS_LOG_FORMAT", "HABITS_LOG_FILE", "HABITS_POLL_TIMEOUT",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func TestLoad_MissingConfig(t *testing.T) {
	isolate(t)
	t.Setenv("HABITS_CONFIG", "nonexistent.yaml")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoad_CustomConfig(t *testing.T) {
	dir := isolate(t)
	configFile := filepath.Join(dir, "custom.yaml")
	t.Setenv("HABITS_CONFIG", configFile)

	c := Default()
	c.Storage = StorageConfig{Driver: DriverBolt, Path: "/var/lib/habitbot/habits.bolt"}
	c.Timezone = "Europe/Moscow"
	d, err := yaml.Marshal(&c)
	if err != nil {
		t.Fatalf("failed to marshal config: %v", err)
	}
	if err := os.WriteFile(configFile, d, 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatal("error opening config:", err)
	}
	if got.Storage != c.Storage || got.Timezone != "Europe/Moscow" {
		t.Fatalf("got %+v", got)
	}
}

func TestLoad_DotEnvAndOverrides(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BOT_TOKEN=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("poll_timeout: 30\nlisten_addr: \":9999\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HABITS_DB_PATH", "/tmp/x.db")
	t.Setenv("HABITS_LISTEN_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BotToken != "from-dotenv" {
		t.Errorf("BotToken = %q", cfg.BotToken)
	}
	if cfg.PollTimeout != 30 {
		t.Errorf("PollTimeout = %d", cfg.PollTimeout)
	}
	if cfg.Storage.Path != "/tmp/x.db" {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.ListenAddr != "" {
		t.Errorf("ListenAddr = %q, want disabled", cfg.ListenAddr)
	}
}

func TestLoad_HabitsBotTokenWins(t *testing.T) {
	isolate(t)
	t.Setenv("BOT_TOKEN", "plain")
	t.Setenv("HABITS_BOT_TOKEN", "namespaced")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BotToken != "namespaced" {
		t.Fatalf("BotToken = %q", cfg.BotToken)
	}
}

func TestLoad_BadPollTimeout(t *testing.T) {
	isolate(t)
	t.Setenv("HABITS_POLL_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"driver", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"path", func(c *Config) { c.Storage.Path = "" }},
		{"poll", func(c *Config) { c.PollTimeout = 0 }},
		{"timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLocation(t *testing.T) {
	c := Default()
	loc, err := c.Location()
	if err != nil || loc != time.Local {
		t.Fatalf("Local = %v, %v", loc, err)
	}
	c.Timezone = "UTC"
	loc, err = c.Location()
	if err != nil || loc.String() != "UTC" {
		t.Fatalf("UTC = %v, %v", loc, err)
	}
}
