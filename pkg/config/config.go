package config

import "time"

// Config is the umbrella configuration object returned by Initialize and
// threaded through every component constructor. It covers every option
// in the configuration surface (region, collection timeouts, detection
// TTL/cache directory, scheduler intervals, safety cooldowns/circuit
// breaker, approval TTL, RCA confidence threshold).
type Config struct {
	configDir string

	Region     string           `validate:"required"`
	Collection CollectionConfig `validate:"required"`
	Detect     DetectConfig     `validate:"required"`
	Scheduler  SchedulerConfig  `validate:"required"`
	Safety     SafetyConfig     `validate:"required"`
	RCA        RCAConfig        `validate:"required"`
}

// CollectionConfig controls EventCorrelator timeouts.
type CollectionConfig struct {
	HardTimeout  time.Duration            `yaml:"hard_timeout" validate:"required"`
	SoftTimeouts map[string]time.Duration `yaml:"soft_timeouts"`
	TrailRetries int                      `yaml:"trail_retries" validate:"min=0"`
	TrailBackoff time.Duration            `yaml:"trail_backoff"`
}

// DetectConfig controls DetectAgent TTL and cache location.
type DetectConfig struct {
	TTLSeconds int    `yaml:"ttl_seconds" validate:"min=1"`
	CacheDir   string `yaml:"cache_dir" validate:"required"`
}

// SchedulerConfig controls ProactiveScheduler task intervals.
type SchedulerConfig struct {
	TickInterval         time.Duration `yaml:"tick_interval" validate:"required"`
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval" validate:"required"`
	DailyReportInterval  time.Duration `yaml:"daily_report_interval" validate:"required"`
	DailyReportCron      string        `yaml:"daily_report_cron" validate:"required"`
	SecurityScanInterval time.Duration `yaml:"security_scan_interval" validate:"required"`
}

// SafetyConfig controls SafetyLayer cooldowns, circuit breaker, and approvals.
type SafetyConfig struct {
	Cooldown       CooldownConfig       `yaml:"cooldown"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	ApprovalTTL    time.Duration        `yaml:"approval_ttl_seconds" validate:"required"`
}

// CooldownConfig holds per-risk-level cooldown windows.
type CooldownConfig struct {
	L1 time.Duration `yaml:"l1" validate:"required"`
	L2 time.Duration `yaml:"l2" validate:"required"`
	L3 time.Duration `yaml:"l3" validate:"required"`
}

// CircuitBreakerConfig configures the per-SOP circuit breaker.
type CircuitBreakerConfig struct {
	FailureThreshold uint32        `yaml:"failure_threshold" validate:"min=1"`
	WindowSeconds    time.Duration `yaml:"window_seconds" validate:"required"`
	OpenSeconds      time.Duration `yaml:"open_seconds" validate:"required"`
}

// RCAConfig controls the RCA analyzer's escalation heuristics.
type RCAConfig struct {
	ConfidenceUpgradeThreshold float64 `yaml:"confidence_upgrade_threshold" validate:"min=0,max=1"`
}

// ConfigDir returns the directory configuration was loaded from.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// Stats summarizes the active configuration for startup logging.
type Stats struct {
	Region               string
	HeartbeatInterval    time.Duration
	DailyReportInterval  time.Duration
	SecurityScanInterval time.Duration
	DetectTTLSeconds     int
}

// Stats returns a snapshot of configuration for health/startup logging.
func (c *Config) Stats() Stats {
	return Stats{
		Region:               c.Region,
		HeartbeatInterval:    c.Scheduler.HeartbeatInterval,
		DailyReportInterval:  c.Scheduler.DailyReportInterval,
		SecurityScanInterval: c.Scheduler.SecurityScanInterval,
		DetectTTLSeconds:     c.Detect.TTLSeconds,
	}
}
