package safety

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aegisops/sentinel/pkg/config"
	"github.com/aegisops/sentinel/pkg/model"
)

func testCooldownConfig() config.CooldownConfig {
	return config.CooldownConfig{
		L1: 5 * time.Minute,
		L2: 15 * time.Minute,
		L3: 60 * time.Minute,
	}
}

func TestCooldownLedger_NoPriorExecution_NoCooldown(t *testing.T) {
	l := newCooldownLedger(testCooldownConfig())
	remaining := l.remaining("restart_ec2", []string{"i-1"}, model.RiskLevelL1, time.Now())
	assert.Zero(t, remaining)
}

func TestCooldownLedger_RecentExecution_Blocks(t *testing.T) {
	l := newCooldownLedger(testCooldownConfig())
	now := time.Now()
	l.record("restart_ec2", []string{"i-1"}, now)

	remaining := l.remaining("restart_ec2", []string{"i-1"}, model.RiskLevelL1, now.Add(time.Minute))
	assert.InDelta(t, 4*time.Minute, remaining, float64(time.Second))
}

func TestCooldownLedger_PerResourceLongerThanGlobal_Wins(t *testing.T) {
	l := newCooldownLedger(testCooldownConfig())
	now := time.Now()

	l.record("restart_ec2", []string{"i-1"}, now.Add(-4*time.Minute))
	l.record("restart_ec2", []string{"i-2"}, now.Add(-1*time.Minute))

	remaining := l.remaining("restart_ec2", []string{"i-1", "i-2"}, model.RiskLevelL1, now)
	assert.InDelta(t, 4*time.Minute, remaining, float64(time.Second))
}

func TestCooldownLedger_L0_NeverCools(t *testing.T) {
	l := newCooldownLedger(testCooldownConfig())
	now := time.Now()
	l.record("describe_instances", nil, now)

	assert.Zero(t, l.remaining("describe_instances", nil, model.RiskLevelL0, now))
}

func TestCooldownLedger_WindowElapsed_NoCooldown(t *testing.T) {
	l := newCooldownLedger(testCooldownConfig())
	now := time.Now()
	l.record("restart_ec2", []string{"i-1"}, now.Add(-10*time.Minute))

	assert.Zero(t, l.remaining("restart_ec2", []string{"i-1"}, model.RiskLevelL1, now))
}
