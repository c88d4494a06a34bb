package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetectResult_FreshnessLabel(t *testing.T) {
	now := time.Now()

	fresh := &DetectResult{Timestamp: now.Add(-10 * time.Second), TTLSeconds: 300}
	assert.Equal(t, FreshnessFresh, fresh.FreshnessLabel(now))
	assert.False(t, fresh.IsStale(now))

	warm := &DetectResult{Timestamp: now.Add(-120 * time.Second), TTLSeconds: 300}
	assert.Equal(t, FreshnessWarm, warm.FreshnessLabel(now))
	assert.False(t, warm.IsStale(now))

	stale := &DetectResult{Timestamp: now.Add(-301 * time.Second), TTLSeconds: 300}
	assert.Equal(t, FreshnessStale, stale.FreshnessLabel(now))
	assert.True(t, stale.IsStale(now))
}

func TestDetectResult_AgeSeconds(t *testing.T) {
	now := time.Now()
	d := &DetectResult{Timestamp: now.Add(-90 * time.Second), TTLSeconds: 300}

	assert.InDelta(t, 90, d.AgeSeconds(now), 0.01)
}
