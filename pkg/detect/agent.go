// Package detect implements DetectAgent: a single-flight wrapper around
// the correlator that caches the latest detection result and persists it
// to disk.
package detect

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aegisops/sentinel/pkg/model"
)

// Correlator is the subset of correlator.Correlator DetectAgent depends on.
type Correlator interface {
	Collect(ctx context.Context, services []string, lookback time.Duration, includeTrail, includeHealth bool) *model.CorrelatedEvent
}

// Status is the snapshot returned by Health().
type Status struct {
	Status           string  `json:"status"` // "idle" | "collecting"
	LatestDetectID   string  `json:"latest_detect_id,omitempty"`
	LatestAgeSeconds float64 `json:"latest_age_seconds,omitempty"`
	LatestFreshness  string  `json:"latest_freshness,omitempty"`
	CacheSize        int     `json:"cache_size"`
}

// Agent wraps a Correlator with single-flight coalescing, a latest-result
// cache, and a by-ID lookup. Exactly one RunDetection call per Agent talks
// to the correlator at a time; concurrent callers observe the same result.
type Agent struct {
	correlator Correlator
	defaultTTL int
	cacheDir   string

	group singleflight.Group

	mu      sync.RWMutex
	latest  *model.DetectResult
	byID    map[string]*model.DetectResult
	collecting bool
}

// New builds a DetectAgent. defaultTTLSeconds and cacheDir come from
// config.DetectConfig.
func New(correlator Correlator, defaultTTLSeconds int, cacheDir string) *Agent {
	return &Agent{
		correlator: correlator,
		defaultTTL: defaultTTLSeconds,
		cacheDir:   cacheDir,
		byID:       make(map[string]*model.DetectResult),
	}
}

// RunDetection runs (or joins an in-flight) collection cycle and returns a
// DetectResult. services may be nil (collect everything configured).
// ttl defaults to the agent's configured TTL when <= 0.
func (a *Agent) RunDetection(ctx context.Context, services []string, lookback time.Duration, source model.DetectSource, ttl time.Duration) (*model.DetectResult, error) {
	if ttl <= 0 {
		ttl = time.Duration(a.defaultTTL) * time.Second
	}

	// Single-flight key is fixed per agent: at most one collection in
	// flight regardless of the requested parameters, matching the
	// "no concurrent calls to the correlator from the same agent" contract.
	v, err, _ := a.group.Do("detect", func() (any, error) {
		a.setCollecting(true)
		defer a.setCollecting(false)

		event := a.correlator.Collect(ctx, services, lookback, true, true)

		result := &model.DetectResult{
			DetectID:          newDetectID(),
			Timestamp:         time.Now(),
			Source:            source,
			Region:            event.Region,
			TTLSeconds:        int(ttl.Seconds()),
			CorrelatedEvent:   event,
			AnomaliesDetected: event.Anomalies,
		}

		a.store(result)
		a.persist(result)

		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*model.DetectResult), nil
}

func (a *Agent) setCollecting(v bool) {
	a.mu.Lock()
	a.collecting = v
	a.mu.Unlock()
}

func (a *Agent) store(result *model.DetectResult) {
	a.mu.Lock()
	a.latest = result
	a.byID[result.DetectID] = result
	a.mu.Unlock()
}

// Latest returns the most recent DetectResult, or nil if none exists yet.
func (a *Agent) Latest() *model.DetectResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// LatestFresh returns the latest result only if it is not stale.
func (a *Agent) LatestFresh() *model.DetectResult {
	a.mu.RLock()
	latest := a.latest
	a.mu.RUnlock()

	if latest == nil || latest.IsStale(time.Now()) {
		return nil
	}
	return latest
}

// GetByID looks up a previously produced result by its detect_id.
func (a *Agent) GetByID(detectID string) *model.DetectResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.byID[detectID]
}

// Health reports the agent's current activity and latest-result freshness.
func (a *Agent) Health() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := Status{CacheSize: len(a.byID)}
	if a.collecting {
		s.Status = "collecting"
	} else {
		s.Status = "idle"
	}

	if a.latest != nil {
		now := time.Now()
		s.LatestDetectID = a.latest.DetectID
		s.LatestAgeSeconds = a.latest.AgeSeconds(now)
		s.LatestFreshness = string(a.latest.FreshnessLabel(now))
	}

	return s
}

func newDetectID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		slog.Error("detect id generation fell back to zero value", "error", err)
		return "0000000000000000"
	}
	return hex.EncodeToString(buf)
}
