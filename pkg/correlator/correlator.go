// Package correlator implements EventCorrelator: the concurrent multi-source
// telemetry collector at the base of the incident pipeline.
package correlator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/aegisops/sentinel/pkg/config"
	"github.com/aegisops/sentinel/pkg/model"
	"github.com/aegisops/sentinel/pkg/sources"
)

// Correlator fans out to every configured data source in parallel under a
// bounded timeout and returns one CorrelatedEvent. Collect never fails:
// individual source failures are recorded in source_status and the
// aggregate is still returned.
type Correlator struct {
	region  string
	cfg     config.CollectionConfig
	metrics sources.MetricsSource
	alarms  sources.AlarmsSource
	trail   sources.TrailSource
	health  sources.HealthSource
	anomaly sources.AnomalySource
}

// New builds a Correlator. Any source may be nil, in which case that
// source is reported as an error in source_status rather than panicking —
// this lets a deployment run with a partial cloud-source configuration.
func New(region string, cfg config.CollectionConfig, metrics sources.MetricsSource, alarms sources.AlarmsSource, trail sources.TrailSource, health sources.HealthSource, anomaly sources.AnomalySource) *Correlator {
	if anomaly == nil {
		anomaly = sources.NoopAnomalySource{}
	}
	return &Correlator{
		region:  region,
		cfg:     cfg,
		metrics: metrics,
		alarms:  alarms,
		trail:   trail,
		health:  health,
		anomaly: anomaly,
	}
}

type sourceResult struct {
	name    string
	status  model.SourceStatus
	errMsg  string
	metrics []model.MetricDataPoint
	alarms  []model.AlarmInfo
	trail   []model.TrailEvent
	health  []model.HealthEvent
	anomaly []model.Anomaly
}

// Collect gathers metrics, alarms, trail events, provider anomalies, and
// health events for the given services over lookback, deriving the
// threshold-based anomaly set and the recent-changes projection before
// returning. The hard timeout from cfg bounds the whole call; individual
// sources additionally respect their own soft timeout.
func (c *Correlator) Collect(ctx context.Context, services []string, lookback time.Duration, includeTrail, includeHealth bool) *model.CorrelatedEvent {
	start := time.Now()
	collectionID := newCollectionID()

	event := model.NewCorrelatedEvent(collectionID, c.region, start)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.HardTimeout)
	defer cancel()

	names := []string{sources.NameMetrics, sources.NameAlarms, sources.NameAnomaly}
	if includeTrail {
		names = append(names, sources.NameTrail)
	}
	if includeHealth {
		names = append(names, sources.NameHealth)
	}

	results := make(chan sourceResult, len(names))
	var wg sync.WaitGroup

	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			results <- c.collectOne(ctx, name, services, lookback)
		}(name)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		event.SourceStatus[r.name] = r.status
		if r.errMsg != "" {
			event.SourceErrors[r.name] = r.errMsg
		}
		event.Metrics = append(event.Metrics, r.metrics...)
		event.Alarms = append(event.Alarms, r.alarms...)
		event.TrailEvents = append(event.TrailEvents, r.trail...)
		event.HealthEvents = append(event.HealthEvents, r.health...)
		event.Anomalies = append(event.Anomalies, r.anomaly...)
	}

	event.Anomalies = append(event.Anomalies, deriveAnomalies(event.Metrics)...)
	event.RecentChanges = deriveRecentChanges(event.TrailEvents)
	event.DurationMs = time.Since(start).Milliseconds()

	return event
}

func (c *Correlator) collectOne(ctx context.Context, name string, services []string, lookback time.Duration) sourceResult {
	soft, ok := c.cfg.SoftTimeouts[name]
	if !ok {
		soft = 5 * time.Second
	}
	sctx, cancel := context.WithTimeout(ctx, soft)
	defer cancel()

	switch name {
	case sources.NameMetrics:
		return fetch(sctx, name, func(ctx context.Context) ([]model.MetricDataPoint, error) {
			if c.metrics == nil {
				return nil, errNotConfigured
			}
			return c.metrics.FetchMetrics(ctx, services, lookback)
		}, func(r *sourceResult, v []model.MetricDataPoint) { r.metrics = v })

	case sources.NameAlarms:
		return fetch(sctx, name, func(ctx context.Context) ([]model.AlarmInfo, error) {
			if c.alarms == nil {
				return nil, errNotConfigured
			}
			return c.alarms.FetchAlarms(ctx, services)
		}, func(r *sourceResult, v []model.AlarmInfo) { r.alarms = v })

	case sources.NameTrail:
		return fetch(sctx, name, func(ctx context.Context) ([]model.TrailEvent, error) {
			if c.trail == nil {
				return nil, errNotConfigured
			}
			return c.trail.FetchTrailEvents(ctx, services, lookback)
		}, func(r *sourceResult, v []model.TrailEvent) { r.trail = v })

	case sources.NameHealth:
		return fetch(sctx, name, func(ctx context.Context) ([]model.HealthEvent, error) {
			if c.health == nil {
				return nil, errNotConfigured
			}
			return c.health.FetchHealthEvents(ctx, services)
		}, func(r *sourceResult, v []model.HealthEvent) { r.health = v })

	case sources.NameAnomaly:
		return fetch(sctx, name, func(ctx context.Context) ([]model.Anomaly, error) {
			return c.anomaly.FetchAnomalies(ctx, services, lookback)
		}, func(r *sourceResult, v []model.Anomaly) { r.anomaly = v })

	default:
		return sourceResult{name: name, status: model.SourceStatusError, errMsg: "unknown source"}
	}
}

var errNotConfigured = &notConfiguredError{}

type notConfiguredError struct{}

func (e *notConfiguredError) Error() string { return "source not configured" }

// fetch runs fn, classifies timeouts vs. other errors, and logs failures —
// individual source failures never abort their peers.
func fetch[T any](ctx context.Context, name string, fn func(context.Context) (T, error), assign func(*sourceResult, T)) sourceResult {
	r := sourceResult{name: name, status: model.SourceStatusOK}

	v, err := fn(ctx)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			r.status = model.SourceStatusTimeout
		} else {
			r.status = model.SourceStatusError
		}
		r.errMsg = err.Error()
		slog.Warn("collection source failed", "source", name, "status", r.status, "error", err)
		return r
	}

	assign(&r, v)
	return r
}

func newCollectionID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "00000000000000000000000000"
	}
	return hex.EncodeToString(buf)
}
