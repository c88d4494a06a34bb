package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisops/sentinel/pkg/config"
	"github.com/aegisops/sentinel/pkg/model"
	"github.com/aegisops/sentinel/pkg/orchestrator"
)

type fakeDetectAgent struct {
	result *model.DetectResult
	err    error
	calls  int32
}

func (f *fakeDetectAgent) RunDetection(ctx context.Context, services []string, lookback time.Duration, source model.DetectSource, ttl time.Duration) (*model.DetectResult, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeOrchestrator struct {
	mu     sync.Mutex
	calls  int
	record *model.IncidentRecord
}

func (f *fakeOrchestrator) HandleIncident(ctx context.Context, p orchestrator.HandleIncidentParams) *model.IncidentRecord {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.record != nil {
		return f.record
	}
	return &model.IncidentRecord{IncidentID: "inc-1", Status: model.IncidentStatusCompleted}
}

func (f *fakeOrchestrator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		TickInterval:         30 * time.Second,
		HeartbeatInterval:    300 * time.Second,
		DailyReportInterval:  86400 * time.Second,
		DailyReportCron:      "0 8 * * *",
		SecurityScanInterval: 43200 * time.Second,
	}
}

func TestNew_RejectsInvalidCron(t *testing.T) {
	cfg := testConfig()
	cfg.DailyReportCron = "not a cron"

	_, err := New(cfg, "us-east-1", &fakeDetectAgent{}, &fakeOrchestrator{})
	assert.Error(t, err)
}

func TestRunHeartbeat_NoAnomalies_NoTrigger(t *testing.T) {
	detect := &fakeDetectAgent{result: &model.DetectResult{DetectID: "d1"}}
	orch := &fakeOrchestrator{}
	s, err := New(testConfig(), "us-east-1", detect, orch)
	require.NoError(t, err)

	result := s.runHeartbeat(context.Background())

	assert.True(t, result.Ran)
	assert.Empty(t, result.Findings)
	assert.Equal(t, 0, orch.callCount())
	assert.Nil(t, s.LastDetectResult())
}

func TestRunHeartbeat_WithAnomalies_TriggersOrchestrator(t *testing.T) {
	detect := &fakeDetectAgent{result: &model.DetectResult{
		DetectID:          "d1",
		AnomaliesDetected: []model.Anomaly{{Type: "cpu_high", Resource: "i-1", Severity: model.SeverityHigh}},
	}}
	orch := &fakeOrchestrator{}
	s, err := New(testConfig(), "us-east-1", detect, orch)
	require.NoError(t, err)

	result := s.runHeartbeat(context.Background())

	assert.True(t, result.Ran)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "cpu_high", result.Findings[0].Type)

	assert.Eventually(t, func() bool { return orch.callCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "d1", s.LastDetectResult().DetectID)
}

func TestRunHeartbeat_Error_ReportsError(t *testing.T) {
	detect := &fakeDetectAgent{err: errors.New("aws unavailable")}
	s, err := New(testConfig(), "us-east-1", detect, &fakeOrchestrator{})
	require.NoError(t, err)

	result := s.runHeartbeat(context.Background())
	assert.False(t, result.Ran)
	assert.Equal(t, "aws unavailable", result.Error)
}

func TestRunTask_TracksConsecutiveFailures(t *testing.T) {
	detect := &fakeDetectAgent{err: errors.New("boom")}
	s, err := New(testConfig(), "us-east-1", detect, &fakeOrchestrator{})
	require.NoError(t, err)

	s.runTask(context.Background(), s.tasks[0])
	s.runTask(context.Background(), s.tasks[0])

	status := s.Status()
	assert.Equal(t, 2, status.ConsecutiveFailures)
	assert.Equal(t, "boom", status.LastError)
}

func TestRunTask_SuccessResetsConsecutiveFailures(t *testing.T) {
	detect := &fakeDetectAgent{err: errors.New("boom")}
	s, err := New(testConfig(), "us-east-1", detect, &fakeOrchestrator{})
	require.NoError(t, err)

	s.runTask(context.Background(), s.tasks[0])
	assert.Equal(t, 1, s.Status().ConsecutiveFailures)

	detect.err = nil
	detect.result = &model.DetectResult{DetectID: "d1"}
	s.runTask(context.Background(), s.tasks[0])
	assert.Equal(t, 0, s.Status().ConsecutiveFailures)
}

func TestTaskDue_NeverRunIsAlwaysDue(t *testing.T) {
	tk := &task{name: "t", enabled: true, interval: time.Minute}
	assert.True(t, tk.due(time.Now()))
}

func TestTaskDue_DisabledNeverDue(t *testing.T) {
	tk := &task{name: "t", enabled: false}
	assert.False(t, tk.due(time.Now()))
}

func TestTaskDue_IntervalElapsed(t *testing.T) {
	last := time.Now().Add(-2 * time.Minute)
	tk := &task{name: "t", enabled: true, interval: time.Minute, lastRun: &last}
	assert.True(t, tk.due(time.Now()))
}

func TestTaskDue_IntervalNotElapsed(t *testing.T) {
	last := time.Now().Add(-10 * time.Second)
	tk := &task{name: "t", enabled: true, interval: time.Minute, lastRun: &last}
	assert.False(t, tk.due(time.Now()))
}

func TestEnableTask_SetInterval(t *testing.T) {
	s, err := New(testConfig(), "us-east-1", &fakeDetectAgent{}, &fakeOrchestrator{})
	require.NoError(t, err)

	s.EnableTask("heartbeat", false)
	s.SetInterval("heartbeat", 10*time.Second)

	status := s.Status()
	assert.False(t, status.TasksEnabled["heartbeat"])
}

func TestTriggerEvent_Synchronous(t *testing.T) {
	orch := &fakeOrchestrator{record: &model.IncidentRecord{IncidentID: "inc-1", Status: model.IncidentStatusCompleted}}
	s, err := New(testConfig(), "us-east-1", &fakeDetectAgent{}, orch)
	require.NoError(t, err)

	result := s.TriggerEvent(context.Background(), "manual_check", map[string]any{"foo": "bar"})

	assert.True(t, result.Ran)
	assert.Empty(t, result.Error)
	assert.Equal(t, 1, orch.callCount())
}

func TestTriggerEvent_PropagatesFailure(t *testing.T) {
	orch := &fakeOrchestrator{record: &model.IncidentRecord{IncidentID: "inc-1", Status: model.IncidentStatusFailed, Error: "boom"}}
	s, err := New(testConfig(), "us-east-1", &fakeDetectAgent{}, orch)
	require.NoError(t, err)

	result := s.TriggerEvent(context.Background(), "manual_check", nil)
	assert.Equal(t, "boom", result.Error)
}

func TestStartStop_Idempotent(t *testing.T) {
	s, err := New(testConfig(), "us-east-1", &fakeDetectAgent{result: &model.DetectResult{}}, &fakeOrchestrator{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	s.Start(ctx)
	assert.True(t, s.Status().Running)

	s.Stop()
	s.Stop()
	assert.False(t, s.Status().Running)
}

func TestOnAlert_InvokedWhenFindingsPresent(t *testing.T) {
	detect := &fakeDetectAgent{result: &model.DetectResult{
		DetectID:          "d1",
		AnomaliesDetected: []model.Anomaly{{Type: "cpu_high", Resource: "i-1"}},
	}}
	s, err := New(testConfig(), "us-east-1", detect, &fakeOrchestrator{})
	require.NoError(t, err)

	received := make(chan ProactiveResult, 1)
	s.OnAlert(func(r ProactiveResult) { received <- r })

	s.runTask(context.Background(), s.tasks[0])

	select {
	case r := <-received:
		assert.Equal(t, "heartbeat", r.Task)
	case <-time.After(time.Second):
		t.Fatal("alert callback not invoked")
	}
}
