package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// yamlConfig mirrors Config but with every field optional, so a partial
// sentinel.yaml only needs to set what it wants to change. Durations are
// strings (time.ParseDuration) to keep the file human-writable.
type yamlConfig struct {
	Region     string                   `yaml:"region"`
	Collection *yamlCollectionConfig    `yaml:"collection"`
	Detect     *yamlDetectConfig        `yaml:"detect"`
	Scheduler  *yamlSchedulerConfig     `yaml:"scheduler"`
	Safety     *yamlSafetyConfig        `yaml:"safety"`
	RCA        *RCAConfig               `yaml:"rca"`
}

type yamlCollectionConfig struct {
	HardTimeout  string            `yaml:"hard_timeout" validate:"omitempty"`
	SoftTimeouts map[string]string `yaml:"soft_timeouts"`
	TrailRetries int               `yaml:"trail_retries" validate:"omitempty,min=0"`
	TrailBackoff string            `yaml:"trail_backoff"`
}

type yamlDetectConfig struct {
	TTLSeconds int    `yaml:"ttl_seconds" validate:"omitempty,min=1"`
	CacheDir   string `yaml:"cache_dir"`
}

type yamlSchedulerConfig struct {
	TickInterval         string `yaml:"tick_interval"`
	HeartbeatInterval    string `yaml:"heartbeat_interval"`
	DailyReportInterval  string `yaml:"daily_report_interval"`
	DailyReportCron      string `yaml:"daily_report_cron"`
	SecurityScanInterval string `yaml:"security_scan_interval"`
}

type yamlSafetyConfig struct {
	Cooldown       *yamlCooldownConfig       `yaml:"cooldown"`
	CircuitBreaker *yamlCircuitBreakerConfig `yaml:"circuit_breaker"`
	ApprovalTTL    string                    `yaml:"approval_ttl_seconds"`
}

type yamlCooldownConfig struct {
	L1 string `yaml:"l1"`
	L2 string `yaml:"l2"`
	L3 string `yaml:"l3"`
}

type yamlCircuitBreakerConfig struct {
	FailureThreshold uint32 `yaml:"failure_threshold" validate:"omitempty,min=1"`
	WindowSeconds    string `yaml:"window_seconds"`
	OpenSeconds      string `yaml:"open_seconds"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
//
// Steps performed:
//  1. Start from built-in defaults (DefaultConfig)
//  2. Load sentinel.yaml from configDir, if present
//  3. Expand ${VAR} environment references
//  4. Parse durations and merge the override onto the defaults
//  5. Validate the assembled configuration
//  6. Return Config ready for use
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg := DefaultConfig()
	cfg.configDir = configDir

	override, err := loadYAMLOverride(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := mergeOverride(cfg, override); err != nil {
		return nil, fmt.Errorf("failed to merge configuration: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"region", stats.Region,
		"heartbeat_interval", stats.HeartbeatInterval,
		"detect_ttl_seconds", stats.DetectTTLSeconds)

	return cfg, nil
}

// loadYAMLOverride reads sentinel.yaml from configDir. A missing file is
// not an error — the built-in defaults are used as-is.
func loadYAMLOverride(configDir string) (*yamlConfig, error) {
	path := filepath.Join(configDir, "sentinel.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, NewLoadError(path, err)
	}

	data = ExpandEnv(data)

	var cfg yamlConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	return &cfg, nil
}

var structValidator = validator.New()

// validateConfig runs struct-tag validation plus cross-field sanity checks
// that validator tags can't express (e.g. every declared source has a
// soft timeout strictly less than the hard timeout).
func validateConfig(cfg *Config) error {
	if cfg.Region == "" {
		return NewValidationError("region", "", ErrMissingRequiredField)
	}
	if cfg.Detect.TTLSeconds < 1 {
		return NewValidationError("detect.ttl_seconds", "", ErrInvalidValue)
	}
	if cfg.Detect.CacheDir == "" {
		return NewValidationError("detect.cache_dir", "", ErrMissingRequiredField)
	}
	for name, soft := range cfg.Collection.SoftTimeouts {
		if soft <= 0 || soft > cfg.Collection.HardTimeout {
			return NewValidationError("collection.soft_timeouts."+name, "",
				fmt.Errorf("%w: must be >0 and <= hard_timeout (%s)", ErrInvalidValue, cfg.Collection.HardTimeout))
		}
	}
	if cfg.RCA.ConfidenceUpgradeThreshold < 0 || cfg.RCA.ConfidenceUpgradeThreshold > 1 {
		return NewValidationError("rca.confidence_upgrade_threshold", "", ErrInvalidValue)
	}
	if err := structValidator.Struct(cfg); err != nil {
		return err
	}
	return nil
}
