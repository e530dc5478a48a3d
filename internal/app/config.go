package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amolab/amorate-backend/internal/platform/envutil"
)

// Config is resolved in three layers: built-in defaults, then an optional
// YAML file named by CONFIG_FILE, then environment variables. Environment
// wins so a container deploy can override a baked-in config file.
type Config struct {
	Port    string
	LogMode string

	DataDir   string
	UploadDir string
	ScoresDir string

	RatingsCSV      string
	MetadataCSV     string
	ArenaMatchesCSV string

	UploadPassword       string
	UploadPasswordBcrypt string

	MusescoreBin   string
	ConvertTimeout time.Duration

	SubmitRatePerMinute int
	MaxUploadMB         int64
}

type fileConfig struct {
	Port                  string `yaml:"port"`
	LogMode               string `yaml:"log_mode"`
	DataDir               string `yaml:"data_dir"`
	UploadDir             string `yaml:"upload_dir"`
	ScoresDir             string `yaml:"scores_dir"`
	UploadPassword        string `yaml:"upload_password"`
	UploadPasswordBcrypt  string `yaml:"upload_password_bcrypt"`
	MusescoreBin          string `yaml:"musescore_bin"`
	ConvertTimeoutSeconds int    `yaml:"convert_timeout_seconds"`
	SubmitRatePerMinute   int    `yaml:"submit_rate_per_minute"`
	MaxUploadMB           int    `yaml:"max_upload_mb"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                "5000",
		DataDir:             ".",
		UploadPassword:      "changeme",
		MusescoreBin:        "musescore",
		ConvertTimeout:      2 * time.Minute,
		SubmitRatePerMinute: 60,
		MaxUploadMB:         100,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.DataDir = envutil.String("DATA_DIR", cfg.DataDir)
	cfg.UploadDir = envutil.String("UPLOAD_DIR", cfg.UploadDir)
	cfg.ScoresDir = envutil.String("SCORES_DIR", cfg.ScoresDir)
	cfg.UploadPassword = envutil.String("UPLOAD_PASSWORD", cfg.UploadPassword)
	cfg.UploadPasswordBcrypt = envutil.String("UPLOAD_PASSWORD_BCRYPT", cfg.UploadPasswordBcrypt)
	cfg.MusescoreBin = envutil.String("MUSESCORE_BIN", cfg.MusescoreBin)
	cfg.ConvertTimeout = envutil.Seconds("CONVERT_TIMEOUT_SECONDS", cfg.ConvertTimeout)
	cfg.SubmitRatePerMinute = envutil.Int("SUBMIT_RATE_PER_MINUTE", cfg.SubmitRatePerMinute)
	cfg.MaxUploadMB = int64(envutil.Int("MAX_UPLOAD_MB", int(cfg.MaxUploadMB)))

	if cfg.UploadDir == "" {
		cfg.UploadDir = filepath.Join(cfg.DataDir, "uploads")
	}
	if cfg.ScoresDir == "" {
		cfg.ScoresDir = filepath.Join(cfg.DataDir, "scores")
	}
	cfg.RatingsCSV = filepath.Join(cfg.DataDir, "ratings.csv")
	cfg.MetadataCSV = filepath.Join(cfg.DataDir, "metadata.csv")
	cfg.ArenaMatchesCSV = filepath.Join(cfg.DataDir, "model_arena_matches.csv")

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if fc.Port != "" {
		c.Port = fc.Port
	}
	if fc.LogMode != "" {
		c.LogMode = fc.LogMode
	}
	if fc.DataDir != "" {
		c.DataDir = fc.DataDir
	}
	if fc.UploadDir != "" {
		c.UploadDir = fc.UploadDir
	}
	if fc.ScoresDir != "" {
		c.ScoresDir = fc.ScoresDir
	}
	if fc.UploadPassword != "" {
		c.UploadPassword = fc.UploadPassword
	}
	if fc.UploadPasswordBcrypt != "" {
		c.UploadPasswordBcrypt = fc.UploadPasswordBcrypt
	}
	if fc.MusescoreBin != "" {
		c.MusescoreBin = fc.MusescoreBin
	}
	if fc.ConvertTimeoutSeconds > 0 {
		c.ConvertTimeout = time.Duration(fc.ConvertTimeoutSeconds) * time.Second
	}
	if fc.SubmitRatePerMinute > 0 {
		c.SubmitRatePerMinute = fc.SubmitRatePerMinute
	}
	if fc.MaxUploadMB > 0 {
		c.MaxUploadMB = int64(fc.MaxUploadMB)
	}
	return nil
}
