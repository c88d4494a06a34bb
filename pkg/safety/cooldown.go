package safety

import (
	"sync"
	"time"

	"github.com/aegisops/sentinel/pkg/config"
	"github.com/aegisops/sentinel/pkg/model"
)

// cooldownLedger tracks the last execution time per SOP (globally) and per
// (sop_id, resource_id) target, and computes how much of the configured
// window remains.
type cooldownLedger struct {
	cfg config.CooldownConfig

	mu        sync.Mutex
	global    map[string]time.Time
	perTarget map[string]time.Time
}

func newCooldownLedger(cfg config.CooldownConfig) *cooldownLedger {
	return &cooldownLedger{
		cfg:       cfg,
		global:    make(map[string]time.Time),
		perTarget: make(map[string]time.Time),
	}
}

func (l *cooldownLedger) windowFor(risk model.RiskLevel) time.Duration {
	switch risk {
	case model.RiskLevelL1:
		return l.cfg.L1
	case model.RiskLevelL2:
		return l.cfg.L2
	case model.RiskLevelL3:
		return l.cfg.L3
	default:
		return 0
	}
}

func targetKey(sopID, resourceID string) string {
	return sopID + "\x00" + resourceID
}

// remaining returns the longer of the SOP-global cooldown and any
// per-resource cooldown across resourceIDs. Zero means nothing is active.
func (l *cooldownLedger) remaining(sopID string, resourceIDs []string, risk model.RiskLevel, now time.Time) time.Duration {
	window := l.windowFor(risk)
	if window <= 0 {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var longest time.Duration
	if last, ok := l.global[sopID]; ok {
		if r := window - now.Sub(last); r > longest {
			longest = r
		}
	}
	for _, rid := range resourceIDs {
		if last, ok := l.perTarget[targetKey(sopID, rid)]; ok {
			if r := window - now.Sub(last); r > longest {
				longest = r
			}
		}
	}

	if longest < 0 {
		return 0
	}
	return longest
}

// record stamps sopID and every (sopID, resourceID) pair with now, starting
// a fresh cooldown window for each.
func (l *cooldownLedger) record(sopID string, resourceIDs []string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.global[sopID] = now
	for _, rid := range resourceIDs {
		l.perTarget[targetKey(sopID, rid)] = now
	}
}
