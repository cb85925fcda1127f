package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	os.Unsetenv(EnvPort)
	os.Unsetenv(EnvLogLevel)
	os.Unsetenv(EnvMediaDir)
	os.Unsetenv(EnvConfigFile)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != DefaultLogLevel {
		t.Errorf("LogLevel() = %q, want %q", cfg.LogLevel(), DefaultLogLevel)
	}
	if cfg.MediaDir() != filepath.Join(cfg.DataDir(), "media") {
		t.Errorf("MediaDir() = %q, want under data dir", cfg.MediaDir())
	}
	if cfg.JobMaxAge() != 24*time.Hour {
		t.Errorf("JobMaxAge() = %v, want 24h", cfg.JobMaxAge())
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	os.Setenv(EnvPort, "9000")
	os.Setenv(EnvMediaDir, "/srv/media")
	defer os.Unsetenv(EnvPort)
	defer os.Unsetenv(EnvMediaDir)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9000 {
		t.Errorf("Port() = %d, want 9000", cfg.Port())
	}
	if cfg.MediaDir() != "/srv/media" {
		t.Errorf("MediaDir() = %q, want /srv/media", cfg.MediaDir())
	}
}

func TestNew_Headless(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE"} {
		os.Setenv(EnvHeadless, v)
		cfg, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.Headless() {
			t.Errorf("Headless() = false with %s=%q", EnvHeadless, v)
		}
	}
	os.Setenv(EnvHeadless, "0")
	defer os.Unsetenv(EnvHeadless)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Headless() {
		t.Error("Headless() = true with SUBEDIT_HEADLESS=0")
	}
}

func TestNew_InvalidPort(t *testing.T) {
	for _, v := range []string{"abc", "0", "70000"} {
		os.Setenv(EnvPort, v)
		if _, err := New(); err == nil {
			t.Errorf("New() with port %q should fail", v)
		}
	}
	os.Unsetenv(EnvPort)
}

func TestNew_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "port: 9100\nlog_level: debug\nmedia_dir: /srv/yaml-media\njob_max_age_hours: 48\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv(EnvConfigFile, path)
	defer os.Unsetenv(EnvConfigFile)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9100 {
		t.Errorf("Port() = %d, want 9100", cfg.Port())
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("LogLevel() = %q, want debug", cfg.LogLevel())
	}
	if cfg.MediaDir() != "/srv/yaml-media" {
		t.Errorf("MediaDir() = %q, want /srv/yaml-media", cfg.MediaDir())
	}
	if cfg.JobMaxAge() != 48*time.Hour {
		t.Errorf("JobMaxAge() = %v, want 48h", cfg.JobMaxAge())
	}
}

func TestNew_EnvBeatsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("port: 9100\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv(EnvConfigFile, path)
	os.Setenv(EnvPort, "9200")
	defer os.Unsetenv(EnvConfigFile)
	defer os.Unsetenv(EnvPort)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9200 {
		t.Errorf("Port() = %d, want env override 9200", cfg.Port())
	}
}

func TestNew_MissingExplicitFile(t *testing.T) {
	os.Setenv(EnvConfigFile, "/nonexistent/config.yaml")
	defer os.Unsetenv(EnvConfigFile)

	if _, err := New(); err == nil {
		t.Error("New() with a missing explicit config file should fail")
	}
}

func TestDBPath(t *testing.T) {
	os.Setenv(EnvDataDir, "/tmp/subedit-test")
	defer os.Unsetenv(EnvDataDir)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath() != "/tmp/subedit-test/"+DBFilename {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
}
