package config

import "time"

// DefaultConfig returns the built-in configuration values. A YAML file
// loaded via Initialize is merged on top of this (non-zero fields
// override), so operators only need to specify what they want to change.
func DefaultConfig() *Config {
	return &Config{
		Region: "us-east-1",
		Collection: CollectionConfig{
			HardTimeout: 30 * time.Second,
			SoftTimeouts: map[string]time.Duration{
				"metrics": 5 * time.Second,
				"alarms":  3 * time.Second,
				"trail":   6 * time.Second,
				"anomaly": 5 * time.Second,
				"health":  4 * time.Second,
			},
			TrailRetries: 2,
			TrailBackoff: 200 * time.Millisecond,
		},
		Detect: DetectConfig{
			TTLSeconds: 300,
			CacheDir:   "./data/detect-cache",
		},
		Scheduler: SchedulerConfig{
			TickInterval:         30 * time.Second,
			HeartbeatInterval:    300 * time.Second,
			DailyReportInterval:  86400 * time.Second,
			DailyReportCron:      "0 8 * * *",
			SecurityScanInterval: 43200 * time.Second,
		},
		Safety: SafetyConfig{
			Cooldown: CooldownConfig{
				L1: 5 * time.Minute,
				L2: 15 * time.Minute,
				L3: 60 * time.Minute,
			},
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold: 3,
				WindowSeconds:    10 * time.Minute,
				OpenSeconds:      60 * time.Second,
			},
			ApprovalTTL: 30 * time.Minute,
		},
		RCA: RCAConfig{
			ConfidenceUpgradeThreshold: 0.70,
		},
	}
}
