// Package config provides configuration management for the SubEdit Agent.
// Defaults are overridden first by an optional YAML config file, then by
// environment variables (a local .env file is honored in development).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort     = 8747
	DefaultLogLevel = "info"
	DefaultDataDir  = ".subedit"

	// Environment variable names
	EnvPort       = "SUBEDIT_PORT"
	EnvLogLevel   = "SUBEDIT_LOG_LEVEL"
	EnvDataDir    = "SUBEDIT_DATA_DIR"
	EnvMediaDir   = "SUBEDIT_MEDIA_DIR"
	EnvConfigFile = "SUBEDIT_CONFIG_FILE"
	EnvHeadless   = "SUBEDIT_HEADLESS"
	EnvPython     = "SUBEDIT_PYTHON"

	// Database filename
	DBFilename = "subedit.db"

	// Job retention
	DefaultJobMaxAgeHours = 24
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	MediaDir() string
	JobMaxAge() time.Duration
	Headless() bool
	PythonPath() string
}

// fileConfig mirrors the optional YAML config file.
type fileConfig struct {
	Port           int    `yaml:"port"`
	LogLevel       string `yaml:"log_level"`
	DataDir        string `yaml:"data_dir"`
	MediaDir       string `yaml:"media_dir"`
	JobMaxAgeHours int    `yaml:"job_max_age_hours"`
	Headless       bool   `yaml:"headless"`
	Python         string `yaml:"python"`
}

// EnvConfig layers environment variables over the YAML file over
// defaults.
type EnvConfig struct {
	port           int
	logLevel       string
	dataDir        string
	mediaDir       string
	jobMaxAgeHours int
	headless       bool
	pythonPath     string
}

// New creates a new EnvConfig. A .env file in the working directory is
// loaded into the environment first, if present.
func New() (*EnvConfig, error) {
	godotenv.Load()

	cfg := &EnvConfig{
		port:           DefaultPort,
		logLevel:       DefaultLogLevel,
		dataDir:        defaultDataDir(),
		jobMaxAgeHours: DefaultJobMaxAgeHours,
	}

	if err := cfg.applyFile(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.mediaDir == "" {
		cfg.mediaDir = filepath.Join(cfg.dataDir, "media")
	}
	return cfg, nil
}

func (c *EnvConfig) applyFile() error {
	path := os.Getenv(EnvConfigFile)
	explicit := path != ""
	if !explicit {
		path = filepath.Join(c.dataDir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		if explicit {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Port != 0 {
		c.port = fc.Port
	}
	if fc.LogLevel != "" {
		c.logLevel = fc.LogLevel
	}
	if fc.DataDir != "" {
		c.dataDir = fc.DataDir
	}
	if fc.MediaDir != "" {
		c.mediaDir = fc.MediaDir
	}
	if fc.JobMaxAgeHours != 0 {
		c.jobMaxAgeHours = fc.JobMaxAgeHours
	}
	if fc.Headless {
		c.headless = true
	}
	if fc.Python != "" {
		c.pythonPath = fc.Python
	}
	return nil
}

func (c *EnvConfig) applyEnv() error {
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		c.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		c.logLevel = ll
	}
	if dd := os.Getenv(EnvDataDir); dd != "" {
		c.dataDir = dd
	}
	if md := os.Getenv(EnvMediaDir); md != "" {
		c.mediaDir = md
	}
	if h := os.Getenv(EnvHeadless); h != "" {
		c.headless = h == "1" || strings.EqualFold(h, "true")
	}
	if p := os.Getenv(EnvPython); p != "" {
		c.pythonPath = p
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// MediaDir returns the directory media files are served from
func (c *EnvConfig) MediaDir() string {
	return c.mediaDir
}

// JobMaxAge returns how long finished transcription jobs are retained
func (c *EnvConfig) JobMaxAge() time.Duration {
	return time.Duration(c.jobMaxAgeHours) * time.Hour
}

// Headless reports whether the system tray should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// PythonPath returns the python binary for the speech CLI, empty for
// auto-detection
func (c *EnvConfig) PythonPath() string {
	return c.pythonPath
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
