package safety

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisops/sentinel/pkg/config"
	"github.com/aegisops/sentinel/pkg/model"
)

func testSafetyConfig() config.SafetyConfig {
	return config.SafetyConfig{
		Cooldown: config.CooldownConfig{
			L1: 5 * time.Minute,
			L2: 15 * time.Minute,
			L3: 60 * time.Minute,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			FailureThreshold: 3,
			WindowSeconds:    10 * time.Minute,
			OpenSeconds:      50 * time.Millisecond,
		},
		ApprovalTTL: 30 * time.Minute,
	}
}

func TestCheck_L0_AlwaysAuto(t *testing.T) {
	l := New(testSafetyConfig())
	check := l.Check("describe_instance", []string{"i-1"}, false, false, CheckContext{})

	assert.Equal(t, model.ExecutionModeAuto, check.ExecutionMode)
	assert.True(t, check.Passed)
}

func TestCheck_L1_HighConfidenceLowSeverity_Auto(t *testing.T) {
	l := New(testSafetyConfig())
	check := l.Check("restart_ec2", []string{"i-1"}, false, false, CheckContext{Confidence: 0.9, Severity: model.SeverityLow})

	assert.Equal(t, model.ExecutionModeAuto, check.ExecutionMode)
	assert.True(t, check.Passed)
}

func TestCheck_L1_LowConfidence_Notify(t *testing.T) {
	l := New(testSafetyConfig())
	check := l.Check("restart_ec2", []string{"i-1"}, false, false, CheckContext{Confidence: 0.5, Severity: model.SeverityLow})

	assert.Equal(t, model.ExecutionModeNotify, check.ExecutionMode)
	assert.True(t, check.Passed)
}

func TestCheck_L1_HighSeverity_Notify(t *testing.T) {
	l := New(testSafetyConfig())
	check := l.Check("restart_ec2", []string{"i-1"}, false, false, CheckContext{Confidence: 0.95, Severity: model.SeverityHigh})

	assert.Equal(t, model.ExecutionModeNotify, check.ExecutionMode)
}

func TestCheck_L2_Approval_NotPassed(t *testing.T) {
	l := New(testSafetyConfig())
	check := l.Check("modify_security_group", []string{"sg-1"}, false, false, CheckContext{Confidence: 0.95})

	assert.Equal(t, model.ExecutionModeApproval, check.ExecutionMode)
	assert.False(t, check.Passed)
}

func TestCheck_L3_ApprovalOrBlocked_NeverPassesWithoutForce(t *testing.T) {
	l := New(testSafetyConfig())
	check := l.Check("terminate_instance", []string{"i-1"}, false, false, CheckContext{Confidence: 0.99})

	assert.Contains(t, []model.ExecutionMode{model.ExecutionModeApproval, model.ExecutionModeBlocked}, check.ExecutionMode)
	assert.False(t, check.Passed)
	assert.NotEmpty(t, check.Warnings)
}

func TestCheck_Force_AlwaysPasses(t *testing.T) {
	l := New(testSafetyConfig())
	check := l.Check("terminate_instance", []string{"i-1"}, false, true, CheckContext{})

	assert.True(t, check.Passed)
}

func TestCheck_DryRun_ForcesPassedWithPreview(t *testing.T) {
	l := New(testSafetyConfig())
	check := l.Check("terminate_instance", []string{"i-1", "i-2"}, true, false, CheckContext{})

	assert.True(t, check.Passed)
	require.NotNil(t, check.DryRunPreview)
	assert.Equal(t, []string{"i-1", "i-2"}, check.DryRunPreview.ResourceIDs)
}

func TestCheck_CooldownBlocks(t *testing.T) {
	l := New(testSafetyConfig())
	l.RecordExecution("restart_ec2", []string{"i-1"}, true)

	check := l.Check("restart_ec2", []string{"i-1"}, false, false, CheckContext{Confidence: 0.9})

	assert.Equal(t, model.ExecutionModeBlocked, check.ExecutionMode)
	assert.False(t, check.Passed)
	require.NotNil(t, check.CooldownRemainingSeconds)
	assert.Greater(t, *check.CooldownRemainingSeconds, 0.0)
}

func TestCheck_ForceBypassesCooldown(t *testing.T) {
	l := New(testSafetyConfig())
	l.RecordExecution("restart_ec2", []string{"i-1"}, true)

	check := l.Check("restart_ec2", []string{"i-1"}, false, true, CheckContext{})
	assert.True(t, check.Passed)
}

func TestCheck_CircuitOpen_Blocks(t *testing.T) {
	l := New(testSafetyConfig())
	l.RecordExecution("restart_ec2", []string{"i-1"}, false)
	l.RecordExecution("restart_ec2", []string{"i-2"}, false)
	l.RecordExecution("restart_ec2", []string{"i-3"}, false)

	check := l.Check("restart_ec2", []string{"i-4"}, false, false, CheckContext{Confidence: 0.9})

	assert.Equal(t, model.ExecutionModeBlocked, check.ExecutionMode)
	assert.Equal(t, model.CircuitStateOpen, check.CircuitState)
}

func TestSnapshot_CreateAndGet(t *testing.T) {
	l := New(testSafetyConfig())
	snap := l.CreateSnapshot("restart_ec2", []string{"i-1"}, map[string]any{"state": "running"})

	assert.NotEmpty(t, snap.SnapshotID)
	assert.Equal(t, snap, l.GetSnapshot(snap.SnapshotID))
	assert.Nil(t, l.GetSnapshot("does-not-exist"))
}

func TestApproval_FullLifecycle(t *testing.T) {
	l := New(testSafetyConfig())
	approval := l.RequestApproval("modify_security_group", map[string]any{"incident_id": "inc-1"})

	pending := l.GetPendingApprovals()
	assert.Len(t, pending, 1)

	require.NoError(t, l.Approve(approval.ApprovalID, "oncall"))
	assert.Empty(t, l.GetPendingApprovals())

	err := l.Approve(approval.ApprovalID, "oncall")
	assert.ErrorIs(t, err, ErrApprovalAlreadyDecided)
}

func TestApproval_Reject(t *testing.T) {
	l := New(testSafetyConfig())
	approval := l.RequestApproval("terminate_instance", nil)

	require.NoError(t, l.Reject(approval.ApprovalID, "oncall", "too risky"))
	assert.Empty(t, l.GetPendingApprovals())
}

func TestApproval_UnknownID(t *testing.T) {
	l := New(testSafetyConfig())
	assert.ErrorIs(t, l.Approve("nope", "oncall"), ErrApprovalNotFound)
}

func TestStats_TracksChecksAndApprovals(t *testing.T) {
	l := New(testSafetyConfig())
	l.Check("describe_instance", nil, false, false, CheckContext{})
	l.Check("modify_security_group", nil, false, false, CheckContext{})
	l.RequestApproval("modify_security_group", nil)

	stats := l.Stats()
	assert.Equal(t, 2, stats.TotalChecks)
	assert.Equal(t, 1, stats.ByMode[model.ExecutionModeAuto])
	assert.Equal(t, 1, stats.ByMode[model.ExecutionModeApproval])
	assert.Equal(t, 1, stats.PendingApprovals)
}

func TestRecordExecution_UpdatesDailyCounters(t *testing.T) {
	l := New(testSafetyConfig())
	l.RecordExecution("restart_ec2", []string{"i-1"}, true)
	l.RecordExecution("restart_ec2", []string{"i-2"}, false)

	stats := l.Stats()
	assert.Equal(t, 2, stats.DailyExecutions)
	assert.Equal(t, 1, stats.DailyFailures)
}
