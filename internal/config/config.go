package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"apiguard/internal/errors"
)

// CollectorKind selects how a target's raw export is produced.
type CollectorKind string

const (
	// CollectorToolchain invokes the API digester binary for the target
	CollectorToolchain CollectorKind = "toolchain"
	// CollectorSCIP reads a pre-built SCIP index for the target
	CollectorSCIP CollectorKind = "scip"
)

// TargetConfig describes one tracked unit of public API surface.
type TargetConfig struct {
	Name      string        `json:"name" mapstructure:"name"`
	Collector CollectorKind `json:"collector" mapstructure:"collector"`

	// Toolchain collector settings
	Command string   `json:"command,omitempty" mapstructure:"command"`
	Args    []string `json:"args,omitempty" mapstructure:"args"`

	// SCIP collector settings
	IndexPath string `json:"indexPath,omitempty" mapstructure:"indexPath"`
}

// PolicyConfig contains breaking-change policy settings.
type PolicyConfig struct {
	Mode            string `json:"mode" mapstructure:"mode"` // semver or strict
	FailOnAdditions bool   `json:"failOnAdditions" mapstructure:"failOnAdditions"`
}

// ExportConfig contains raw export invocation settings.
type ExportConfig struct {
	TimeoutMs int `json:"timeoutMs" mapstructure:"timeoutMs"`
}

// HistoryConfig contains run-history settings.
type HistoryConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// Config represents the complete apiguard configuration
type Config struct {
	Version     int            `json:"version" mapstructure:"version"`
	BaselineDir string         `json:"baselineDir" mapstructure:"baselineDir"`
	Targets     []TargetConfig `json:"targets" mapstructure:"targets"`
	Policy      PolicyConfig   `json:"policy" mapstructure:"policy"`
	Export      ExportConfig   `json:"export" mapstructure:"export"`
	History     HistoryConfig  `json:"history" mapstructure:"history"`
	Logging     LoggingConfig  `json:"logging" mapstructure:"logging"`
}

const currentConfigVersion = 1

// ConfigDirName is the per-repository directory holding config, baselines,
// and the history database.
const ConfigDirName = ".apiguard"

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:     currentConfigVersion,
		BaselineDir: filepath.Join(ConfigDirName, "baselines"),
		Targets:     []TargetConfig{},
		Policy: PolicyConfig{
			Mode:            "semver",
			FailOnAdditions: false,
		},
		Export: ExportConfig{
			// A full module build can take a while; generous but finite.
			TimeoutMs: 600000,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .apiguard/config.json under repoRoot.
// A missing config file yields the defaults.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	v.SetDefault("version", currentConfigVersion)
	v.SetDefault("baselineDir", filepath.Join(ConfigDirName, "baselines"))
	v.SetDefault("policy.mode", "semver")
	v.SetDefault("policy.failOnAdditions", false)
	v.SetDefault("export.timeoutMs", 600000)
	v.SetDefault("history.enabled", true)
	v.SetDefault("logging.format", "human")
	v.SetDefault("logging.level", "info")

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ConfigDirName))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, errors.New(errors.ConfigInvalid, "failed to read config", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "failed to parse config", err)
	}

	return &cfg, nil
}

// Save writes the configuration to .apiguard/config.json under repoRoot.
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ConfigDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != currentConfigVersion {
		return errors.New(errors.ConfigInvalid,
			fmt.Sprintf("unsupported config version %d", c.Version), nil)
	}
	if c.Policy.Mode != "semver" && c.Policy.Mode != "strict" {
		return errors.New(errors.ConfigInvalid,
			fmt.Sprintf("unknown policy mode %q", c.Policy.Mode), nil)
	}
	seen := make(map[string]bool, len(c.Targets))
	for _, t := range c.Targets {
		if t.Name == "" {
			return errors.New(errors.ConfigInvalid, "target with empty name", nil)
		}
		if seen[t.Name] {
			return errors.New(errors.ConfigInvalid,
				fmt.Sprintf("duplicate target %q", t.Name), nil)
		}
		seen[t.Name] = true
		switch t.Collector {
		case CollectorToolchain, "":
			// Command may be empty, in which case the engine uses its default.
		case CollectorSCIP:
			if t.IndexPath == "" {
				return errors.New(errors.ConfigInvalid,
					fmt.Sprintf("target %q uses scip collector without indexPath", t.Name), nil)
			}
		default:
			return errors.New(errors.ConfigInvalid,
				fmt.Sprintf("target %q has unknown collector %q", t.Name, t.Collector), nil)
		}
	}
	return nil
}

// Target returns the configuration for the named target.
func (c *Config) Target(name string) (TargetConfig, bool) {
	for _, t := range c.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return TargetConfig{}, false
}
