// Package sources defines the cloud data sources EventCorrelator fans out
// to, and AWS SDK v2-backed implementations of each.
package sources

import (
	"context"
	"time"

	"github.com/aegisops/sentinel/pkg/model"
)

// Names of the built-in data sources, used as map keys in SourceStatus and
// as the per-source soft-timeout configuration keys.
const (
	NameMetrics = "metrics"
	NameAlarms  = "alarms"
	NameTrail   = "trail"
	NameAnomaly = "anomaly"
	NameHealth  = "health"
)

// MetricsSource fetches recent metric data points for the given resources.
type MetricsSource interface {
	FetchMetrics(ctx context.Context, services []string, lookback time.Duration) ([]model.MetricDataPoint, error)
}

// AlarmsSource fetches currently evaluated alarms.
type AlarmsSource interface {
	FetchAlarms(ctx context.Context, services []string) ([]model.AlarmInfo, error)
}

// TrailSource fetches recent control-plane audit events.
type TrailSource interface {
	FetchTrailEvents(ctx context.Context, services []string, lookback time.Duration) ([]model.TrailEvent, error)
}

// HealthSource fetches provider-announced service health events.
type HealthSource interface {
	FetchHealthEvents(ctx context.Context, services []string) ([]model.HealthEvent, error)
}

// AnomalySource wraps a provider-side anomaly detector. Defaults to an
// internal, metrics-derived implementation (see Correlator's threshold
// table) when no provider integration is configured.
type AnomalySource interface {
	FetchAnomalies(ctx context.Context, services []string, lookback time.Duration) ([]model.Anomaly, error)
}
