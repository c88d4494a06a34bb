package safety

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aegisops/sentinel/pkg/config"
	"github.com/aegisops/sentinel/pkg/model"
)

func testCircuitConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		FailureThreshold: 3,
		WindowSeconds:    10 * time.Minute,
		OpenSeconds:      50 * time.Millisecond,
	}
}

func TestCircuitManager_StartsClosed(t *testing.T) {
	m := newCircuitManager(testCircuitConfig())
	assert.Equal(t, model.CircuitStateClosed, m.state("restart_ec2"))
}

func TestCircuitManager_TripsAfterConsecutiveFailures(t *testing.T) {
	m := newCircuitManager(testCircuitConfig())

	m.record("restart_ec2", false)
	m.record("restart_ec2", false)
	assert.Equal(t, model.CircuitStateClosed, m.state("restart_ec2"))

	m.record("restart_ec2", false)
	assert.Equal(t, model.CircuitStateOpen, m.state("restart_ec2"))
}

func TestCircuitManager_SuccessResetsStreak(t *testing.T) {
	m := newCircuitManager(testCircuitConfig())

	m.record("restart_ec2", false)
	m.record("restart_ec2", false)
	m.record("restart_ec2", true)
	m.record("restart_ec2", false)
	m.record("restart_ec2", false)

	assert.Equal(t, model.CircuitStateClosed, m.state("restart_ec2"))
}

func TestCircuitManager_HalfOpenAfterTimeout(t *testing.T) {
	m := newCircuitManager(testCircuitConfig())

	m.record("restart_ec2", false)
	m.record("restart_ec2", false)
	m.record("restart_ec2", false)
	require := assert.New(t)
	require.Equal(model.CircuitStateOpen, m.state("restart_ec2"))

	time.Sleep(80 * time.Millisecond)
	require.Equal(model.CircuitStateHalfOpen, m.state("restart_ec2"))
}

func TestCircuitManager_IndependentPerSOP(t *testing.T) {
	m := newCircuitManager(testCircuitConfig())

	m.record("restart_ec2", false)
	m.record("restart_ec2", false)
	m.record("restart_ec2", false)

	assert.Equal(t, model.CircuitStateOpen, m.state("restart_ec2"))
	assert.Equal(t, model.CircuitStateClosed, m.state("scale_asg"))
}

func TestCircuitManager_OpenCount(t *testing.T) {
	m := newCircuitManager(testCircuitConfig())

	m.record("restart_ec2", false)
	m.record("restart_ec2", false)
	m.record("restart_ec2", false)
	m.state("scale_asg") // touch a second breaker, stays closed

	assert.Equal(t, 1, m.openCount())
}
