package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, name := range []string{"PORT", "DATA_DIR", "UPLOAD_DIR", "SCORES_DIR", "UPLOAD_PASSWORD", "CONFIG_FILE", "CONVERT_TIMEOUT_SECONDS"} {
		t.Setenv(name, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "5000" {
		t.Fatalf("Port = %q, want 5000", cfg.Port)
	}
	if cfg.UploadPassword != "changeme" {
		t.Fatalf("UploadPassword = %q, want changeme", cfg.UploadPassword)
	}
	if cfg.ConvertTimeout != 2*time.Minute {
		t.Fatalf("ConvertTimeout = %v, want 2m", cfg.ConvertTimeout)
	}
	if cfg.UploadDir != filepath.Join(".", "uploads") {
		t.Fatalf("UploadDir = %q, want ./uploads", cfg.UploadDir)
	}
	if cfg.RatingsCSV != filepath.Join(".", "ratings.csv") {
		t.Fatalf("RatingsCSV = %q", cfg.RatingsCSV)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DATA_DIR", "/var/lib/renditions")
	t.Setenv("CONVERT_TIMEOUT_SECONDS", "30")
	t.Setenv("SUBMIT_RATE_PER_MINUTE", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.UploadDir != "/var/lib/renditions/uploads" {
		t.Fatalf("UploadDir = %q", cfg.UploadDir)
	}
	if cfg.ArenaMatchesCSV != "/var/lib/renditions/model_arena_matches.csv" {
		t.Fatalf("ArenaMatchesCSV = %q", cfg.ArenaMatchesCSV)
	}
	if cfg.ConvertTimeout != 30*time.Second {
		t.Fatalf("ConvertTimeout = %v, want 30s", cfg.ConvertTimeout)
	}
	if cfg.SubmitRatePerMinute != 5 {
		t.Fatalf("SubmitRatePerMinute = %d, want 5", cfg.SubmitRatePerMinute)
	}
}

func TestLoadConfigFileThenEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "port: \"9000\"\nmusescore_bin: /opt/mscore\nmax_upload_mb: 25\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7000" {
		t.Fatalf("Port = %q, env should win over file", cfg.Port)
	}
	if cfg.MusescoreBin != "/opt/mscore" {
		t.Fatalf("MusescoreBin = %q, want file value", cfg.MusescoreBin)
	}
	if cfg.MaxUploadMB != 25 {
		t.Fatalf("MaxUploadMB = %d, want 25", cfg.MaxUploadMB)
	}
}

func TestLoadBadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("port: [not, a, string"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail on malformed YAML")
	}
}
