package config

import (
	"fmt"
	"time"

	"dario.cat/mergo"
)

// mergeOverride merges a user-supplied partial YAML config onto the
// built-in defaults. Non-zero fields in override win; zero-value fields
// (the operator didn't set them) keep the default. Duration fields arrive
// as strings and are parsed before merging so mergo compares like-typed
// structs.
func mergeOverride(base *Config, override *yamlConfig) error {
	if override == nil {
		return nil
	}

	if override.Region != "" {
		base.Region = override.Region
	}

	if override.Collection != nil {
		src, err := toCollectionConfig(override.Collection)
		if err != nil {
			return fmt.Errorf("collection config: %w", err)
		}
		if err := mergo.Merge(&base.Collection, src, mergo.WithOverride); err != nil {
			return fmt.Errorf("merging collection config: %w", err)
		}
	}
	if override.Detect != nil {
		src := DetectConfig{TTLSeconds: override.Detect.TTLSeconds, CacheDir: override.Detect.CacheDir}
		if err := mergo.Merge(&base.Detect, src, mergo.WithOverride); err != nil {
			return fmt.Errorf("merging detect config: %w", err)
		}
	}
	if override.Scheduler != nil {
		src, err := toSchedulerConfig(override.Scheduler)
		if err != nil {
			return fmt.Errorf("scheduler config: %w", err)
		}
		if err := mergo.Merge(&base.Scheduler, src, mergo.WithOverride); err != nil {
			return fmt.Errorf("merging scheduler config: %w", err)
		}
	}
	if override.Safety != nil {
		src, err := toSafetyConfig(override.Safety)
		if err != nil {
			return fmt.Errorf("safety config: %w", err)
		}
		if err := mergo.Merge(&base.Safety, src, mergo.WithOverride); err != nil {
			return fmt.Errorf("merging safety config: %w", err)
		}
	}
	if override.RCA != nil {
		if err := mergo.Merge(&base.RCA, *override.RCA, mergo.WithOverride); err != nil {
			return fmt.Errorf("merging rca config: %w", err)
		}
	}

	return nil
}

func parseDur(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, NewValidationError(field, "", fmt.Errorf("invalid duration %q: %w", value, err))
	}
	return d, nil
}

func toCollectionConfig(y *yamlCollectionConfig) (CollectionConfig, error) {
	hard, err := parseDur("collection.hard_timeout", y.HardTimeout)
	if err != nil {
		return CollectionConfig{}, err
	}
	backoff, err := parseDur("collection.trail_backoff", y.TrailBackoff)
	if err != nil {
		return CollectionConfig{}, err
	}
	var soft map[string]time.Duration
	if len(y.SoftTimeouts) > 0 {
		soft = make(map[string]time.Duration, len(y.SoftTimeouts))
		for name, v := range y.SoftTimeouts {
			d, err := parseDur("collection.soft_timeouts."+name, v)
			if err != nil {
				return CollectionConfig{}, err
			}
			soft[name] = d
		}
	}
	return CollectionConfig{
		HardTimeout:  hard,
		SoftTimeouts: soft,
		TrailRetries: y.TrailRetries,
		TrailBackoff: backoff,
	}, nil
}

func toSchedulerConfig(y *yamlSchedulerConfig) (SchedulerConfig, error) {
	tick, err := parseDur("scheduler.tick_interval", y.TickInterval)
	if err != nil {
		return SchedulerConfig{}, err
	}
	heartbeat, err := parseDur("scheduler.heartbeat_interval", y.HeartbeatInterval)
	if err != nil {
		return SchedulerConfig{}, err
	}
	dailyReport, err := parseDur("scheduler.daily_report_interval", y.DailyReportInterval)
	if err != nil {
		return SchedulerConfig{}, err
	}
	secScan, err := parseDur("scheduler.security_scan_interval", y.SecurityScanInterval)
	if err != nil {
		return SchedulerConfig{}, err
	}
	return SchedulerConfig{
		TickInterval:         tick,
		HeartbeatInterval:    heartbeat,
		DailyReportInterval:  dailyReport,
		DailyReportCron:      y.DailyReportCron,
		SecurityScanInterval: secScan,
	}, nil
}

func toSafetyConfig(y *yamlSafetyConfig) (SafetyConfig, error) {
	var cfg SafetyConfig

	if y.Cooldown != nil {
		l1, err := parseDur("safety.cooldown.l1", y.Cooldown.L1)
		if err != nil {
			return cfg, err
		}
		l2, err := parseDur("safety.cooldown.l2", y.Cooldown.L2)
		if err != nil {
			return cfg, err
		}
		l3, err := parseDur("safety.cooldown.l3", y.Cooldown.L3)
		if err != nil {
			return cfg, err
		}
		cfg.Cooldown = CooldownConfig{L1: l1, L2: l2, L3: l3}
	}

	if y.CircuitBreaker != nil {
		window, err := parseDur("safety.circuit_breaker.window_seconds", y.CircuitBreaker.WindowSeconds)
		if err != nil {
			return cfg, err
		}
		open, err := parseDur("safety.circuit_breaker.open_seconds", y.CircuitBreaker.OpenSeconds)
		if err != nil {
			return cfg, err
		}
		cfg.CircuitBreaker = CircuitBreakerConfig{
			FailureThreshold: y.CircuitBreaker.FailureThreshold,
			WindowSeconds:    window,
			OpenSeconds:      open,
		}
	}

	ttl, err := parseDur("safety.approval_ttl_seconds", y.ApprovalTTL)
	if err != nil {
		return cfg, err
	}
	cfg.ApprovalTTL = ttl

	return cfg, nil
}
