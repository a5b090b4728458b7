package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath names the environment variable that points at the config
	// file. The preload library has no command line, so this is its only knob.
	EnvConfigPath = "UNLINK_SHRED_CONFIG"

	DefaultConfigPath   = "/etc/unlink-shred/config.yaml"
	DefaultUtilityPath  = "/usr/bin/shred"
	DefaultAuditLogPath = "/var/log/unlink-shred/audit.log"
)

type LoggingCfg struct {
	RotationDays int `yaml:"rotation_days" json:"rotation_days"` // Days to keep audit logs before rotation
}

type MetricsCfg struct {
	TextfilePath string `yaml:"textfile_path" json:"textfile_path"` // node_exporter textfile collector target; empty disables
}

type Config struct {
	UtilityPath     string     `yaml:"utility_path" json:"utility_path"`
	AuditLogPath    string     `yaml:"audit_log_path" json:"audit_log_path"`
	DatabasePath    string     `yaml:"database_path" json:"database_path"` // SQLite audit history; empty disables
	ExcludePrefixes []string   `yaml:"exclude_prefixes" json:"exclude_prefixes"`
	DryRun          bool       `yaml:"dry_run" json:"dry_run"` // Decide and audit, but never run the utility
	Logging         LoggingCfg `yaml:"logging" json:"logging"`
	Metrics         MetricsCfg `yaml:"metrics" json:"metrics"`
}

var (
	errInvalidPath      = errors.New("path must be absolute")
	errNegativeRotation = errors.New("logging.rotation_days cannot be negative")
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	// validateAndDefault cannot fail on an empty config
	_ = cfg.validateAndDefault()
	return cfg
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by UNLINK_SHRED_CONFIG, or
// DefaultConfigPath. A missing file is not an error and yields Default();
// the preload layer must keep working on hosts that were never configured.
func LoadFromEnv() (*Config, error) {
	path := strings.TrimSpace(os.Getenv(EnvConfigPath))
	if path == "" {
		path = DefaultConfigPath
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// empty file
			return cfg, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if c.UtilityPath == "" {
		c.UtilityPath = DefaultUtilityPath
	}
	if c.AuditLogPath == "" {
		c.AuditLogPath = DefaultAuditLogPath
	}

	if c.Logging.RotationDays < 0 {
		return errNegativeRotation
	}
	if c.Logging.RotationDays == 0 {
		c.Logging.RotationDays = 30 // Default: keep logs for 30 days
	}

	if c.ExcludePrefixes == nil {
		// Writing into pseudo filesystems has side effects, never shred there
		c.ExcludePrefixes = []string{"/proc", "/sys", "/dev"}
	}

	var err error
	if c.UtilityPath, err = cleanAbsolute(c.UtilityPath); err != nil {
		return fmt.Errorf("utility_path: %w", err)
	}
	if c.AuditLogPath, err = cleanAbsolute(c.AuditLogPath); err != nil {
		return fmt.Errorf("audit_log_path: %w", err)
	}
	if c.DatabasePath != "" {
		if c.DatabasePath, err = cleanAbsolute(c.DatabasePath); err != nil {
			return fmt.Errorf("database_path: %w", err)
		}
	}
	if c.Metrics.TextfilePath != "" {
		if c.Metrics.TextfilePath, err = cleanAbsolute(c.Metrics.TextfilePath); err != nil {
			return fmt.Errorf("metrics.textfile_path: %w", err)
		}
	}

	cleaned := make([]string, 0, len(c.ExcludePrefixes))
	for _, p := range c.ExcludePrefixes {
		cp, err := cleanAbsolute(p)
		if err != nil {
			return fmt.Errorf("exclude_prefixes: %w", err)
		}
		cleaned = append(cleaned, cp)
	}
	c.ExcludePrefixes = cleaned

	return nil
}

func cleanAbsolute(p string) (string, error) {
	if p == "" {
		return "", errInvalidPath
	}
	cp := filepath.Clean(p)
	if !filepath.IsAbs(cp) {
		return "", fmt.Errorf("%w: %s", errInvalidPath, p)
	}
	return cp, nil
}
