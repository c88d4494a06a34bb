package safety

import (
	"sync"

	"github.com/sony/gobreaker"

	"github.com/aegisops/sentinel/pkg/config"
	"github.com/aegisops/sentinel/pkg/model"
)

// circuitManager owns one gobreaker.TwoStepCircuitBreaker per SOP. The
// two-step form lets Check() peek at the current state without consuming
// a request slot, while RecordExecution() separately reports the outcome
// of an execution that already happened outside the breaker's control.
type circuitManager struct {
	cfg config.CircuitBreakerConfig

	mu       sync.Mutex
	breakers map[string]*gobreaker.TwoStepCircuitBreaker
}

func newCircuitManager(cfg config.CircuitBreakerConfig) *circuitManager {
	return &circuitManager{
		cfg:      cfg,
		breakers: make(map[string]*gobreaker.TwoStepCircuitBreaker),
	}
}

func (m *circuitManager) get(sopID string) *gobreaker.TwoStepCircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cb, ok := m.breakers[sopID]; ok {
		return cb
	}

	cb := gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
		Name:     sopID,
		Interval: m.cfg.WindowSeconds,
		Timeout:  m.cfg.OpenSeconds,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= m.cfg.FailureThreshold
		},
	})
	m.breakers[sopID] = cb
	return cb
}

func toCircuitState(s gobreaker.State) model.CircuitState {
	switch s {
	case gobreaker.StateOpen:
		return model.CircuitStateOpen
	case gobreaker.StateHalfOpen:
		return model.CircuitStateHalfOpen
	default:
		return model.CircuitStateClosed
	}
}

// state reports the breaker's current state for sopID without side effects.
func (m *circuitManager) state(sopID string) model.CircuitState {
	return toCircuitState(m.get(sopID).State())
}

// record reports whether an execution of sopID succeeded, advancing the
// breaker's consecutive-failure streak (and tripping it open) or resetting
// it on success.
func (m *circuitManager) record(sopID string, success bool) {
	cb := m.get(sopID)
	done, err := cb.Allow()
	if err != nil {
		// Already open, or a half-open probe slot is taken; nothing to record.
		return
	}
	done(success)
}

func (m *circuitManager) openCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, cb := range m.breakers {
		if cb.State() == gobreaker.StateOpen {
			n++
		}
	}
	return n
}
