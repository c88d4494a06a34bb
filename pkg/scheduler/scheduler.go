// Package scheduler implements ProactiveScheduler: the single cooperative
// loop that owns the process clock, runs the built-in heartbeat/daily
// report/security scan tasks, and hands off any findings to the incident
// orchestrator.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aegisops/sentinel/pkg/config"
	"github.com/aegisops/sentinel/pkg/model"
	"github.com/aegisops/sentinel/pkg/orchestrator"
)

const (
	wakeInterval    = 30 * time.Second
	stopGrace       = 2 * time.Second
	dailyReportLookback = 24 * time.Hour
)

// DetectAgent is the subset of detect.Agent a proactive scan needs.
type DetectAgent interface {
	RunDetection(ctx context.Context, services []string, lookback time.Duration, source model.DetectSource, ttl time.Duration) (*model.DetectResult, error)
}

// Orchestrator is the subset of orchestrator.Orchestrator a proactive
// finding hands off to.
type Orchestrator interface {
	HandleIncident(ctx context.Context, p orchestrator.HandleIncidentParams) *model.IncidentRecord
}

// Finding is one anomaly surfaced by a proactive scan.
type Finding struct {
	Type        string         `json:"type"`
	Resource    string         `json:"resource"`
	Severity    model.Severity `json:"severity"`
	Description string         `json:"description"`
}

// ProactiveResult is the outcome of running one scheduled or ad-hoc task.
type ProactiveResult struct {
	Task     string    `json:"task"`
	Ran      bool      `json:"ran"`
	Findings []Finding `json:"findings,omitempty"`
	DetectID string    `json:"detect_id,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// AlertCallback is notified whenever a scheduled task produces findings.
type AlertCallback func(ProactiveResult)

type task struct {
	name     string
	enabled  bool
	interval time.Duration
	cron     *cronSchedule
	lastRun  *time.Time
	run      func(ctx context.Context) ProactiveResult
}

// due reports whether this task should run at now: never run yet, or its
// interval (or, for cron tasks, its next scheduled minute) has elapsed.
func (t *task) due(now time.Time) bool {
	if !t.enabled {
		return false
	}
	if t.lastRun == nil {
		return true
	}
	if t.cron != nil {
		return !now.Before(t.cron.next(*t.lastRun))
	}
	return now.Sub(*t.lastRun) >= t.interval
}

// Status is the scheduler's health snapshot, exposing the
// consecutive-failure counter the heartbeat loop's original
// swallow-and-sleep-on-error behavior hid from callers.
type Status struct {
	Running             bool            `json:"running"`
	TasksEnabled        map[string]bool `json:"tasks_enabled"`
	ConsecutiveFailures int             `json:"consecutive_failures"`
	LastError           string          `json:"last_error,omitempty"`
}

// Scheduler is ProactiveScheduler. Construct with New; safe for concurrent
// use. Start/Stop are idempotent.
type Scheduler struct {
	region       string
	detectAgent  DetectAgent
	orchestrator Orchestrator
	lookback     time.Duration

	mu                  sync.RWMutex
	tasks               []*task
	running             bool
	lastDetect          *model.DetectResult
	consecutiveFailures int
	lastError           string
	callbacks           []AlertCallback

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a ProactiveScheduler from its configuration section.
func New(cfg config.SchedulerConfig, region string, detectAgent DetectAgent, orch Orchestrator) (*Scheduler, error) {
	dailyCron, err := parseCron(cfg.DailyReportCron)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		region:       region,
		detectAgent:  detectAgent,
		orchestrator: orch,
		lookback:     15 * time.Minute,
		stopCh:       make(chan struct{}),
	}

	s.tasks = []*task{
		{name: "heartbeat", enabled: true, interval: cfg.HeartbeatInterval, run: s.runHeartbeat},
		{name: "daily_report", enabled: true, interval: cfg.DailyReportInterval, cron: dailyCron, run: s.runDailyReport},
		{name: "security_scan", enabled: true, interval: cfg.SecurityScanInterval, run: s.runSecurityScan},
	}

	return s, nil
}

// Start begins the scheduler's polling loop in a goroutine. Idempotent.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop signals the loop to exit and waits up to the graceful-stop budget
// for it to finish. Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopGrace):
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	log := slog.With("component", "proactive_scheduler", "region", s.region)
	log.Info("scheduler started")

	ticker := time.NewTicker(wakeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			log.Info("scheduler stopping")
			return
		case <-ctx.Done():
			log.Info("context cancelled, scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs every due task sequentially — tasks never overlap within one
// scheduler instance, bounding concurrent downstream AWS calls.
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now()

	s.mu.RLock()
	due := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.due(now) {
			due = append(due, t)
		}
	}
	s.mu.RUnlock()

	for _, t := range due {
		s.runTask(ctx, t)
	}
}

func (s *Scheduler) runTask(ctx context.Context, t *task) {
	result := t.run(ctx)

	now := time.Now()
	s.mu.Lock()
	t.lastRun = &now
	if result.Error != "" {
		s.consecutiveFailures++
		s.lastError = result.Error
	} else {
		s.consecutiveFailures = 0
	}
	s.mu.Unlock()

	if len(result.Findings) > 0 {
		s.notify(result)
	}
}

func (s *Scheduler) notify(result ProactiveResult) {
	s.mu.RLock()
	callbacks := append([]AlertCallback(nil), s.callbacks...)
	s.mu.RUnlock()

	for _, cb := range callbacks {
		cb(result)
	}
}

// OnAlert registers a callback invoked whenever a task produces findings.
func (s *Scheduler) OnAlert(cb AlertCallback) {
	s.mu.Lock()
	s.callbacks = append(s.callbacks, cb)
	s.mu.Unlock()
}

// EnableTask turns a built-in task on or off by name. No-op for unknown
// names.
func (s *Scheduler) EnableTask(name string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.name == name {
			t.enabled = enabled
			return
		}
	}
}

// SetInterval reconfigures a built-in task's interval. No-op for unknown
// names.
func (s *Scheduler) SetInterval(name string, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.name == name {
			t.interval = interval
			return
		}
	}
}

// LastDetectResult returns the most recent DetectResult produced by a
// proactive scan, or nil if none has run yet.
func (s *Scheduler) LastDetectResult() *model.DetectResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastDetect
}

// Status reports the scheduler's running state and consecutive-failure
// health signal.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enabled := make(map[string]bool, len(s.tasks))
	for _, t := range s.tasks {
		enabled[t.name] = t.enabled
	}

	return Status{
		Running:             s.running,
		TasksEnabled:        enabled,
		ConsecutiveFailures: s.consecutiveFailures,
		LastError:           s.lastError,
	}
}

// TriggerEvent runs a one-off "event" task synchronously and returns its
// result, bypassing the scheduled-task table entirely.
func (s *Scheduler) TriggerEvent(ctx context.Context, eventType string, data map[string]any) ProactiveResult {
	result := ProactiveResult{Task: "event", Ran: true}

	trigger := map[string]any{"event_type": eventType}
	for k, v := range data {
		trigger[k] = v
	}

	record := s.orchestrator.HandleIncident(ctx, orchestrator.HandleIncidentParams{
		TriggerType:     model.TriggerTypeProactive,
		TriggerData:     trigger,
		AutoExecute:     true,
		LookbackMinutes: 15,
	})
	if record.Status == model.IncidentStatusFailed {
		result.Error = record.Error
	}

	return result
}

func (s *Scheduler) runHeartbeat(ctx context.Context) ProactiveResult {
	return s.runScan(ctx, "heartbeat", s.lookback)
}

func (s *Scheduler) runDailyReport(ctx context.Context) ProactiveResult {
	return s.runScan(ctx, "daily_report", dailyReportLookback)
}

func (s *Scheduler) runSecurityScan(ctx context.Context) ProactiveResult {
	return s.runScan(ctx, "security_scan", s.lookback)
}

// runScan is the shared body of every built-in task: delegate to
// DetectAgent, convert anomalies to findings, and — if the scan surfaced
// anything — cache the DetectResult and hand a trigger to the orchestrator.
// An empty result is a silent OK: no news, no trigger.
func (s *Scheduler) runScan(ctx context.Context, name string, lookback time.Duration) ProactiveResult {
	result := ProactiveResult{Task: name}

	detect, err := s.detectAgent.RunDetection(ctx, nil, lookback, model.DetectSourceProactiveScan, 0)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Ran = true
	result.DetectID = detect.DetectID
	result.Findings = toFindings(detect.AnomaliesDetected)
	if len(result.Findings) == 0 {
		return result
	}

	s.mu.Lock()
	s.lastDetect = detect
	s.mu.Unlock()

	go s.orchestrator.HandleIncident(ctx, orchestrator.HandleIncidentParams{
		TriggerType:     model.TriggerTypeProactive,
		TriggerData:     map[string]any{"task": name, "detect_id": detect.DetectID},
		AutoExecute:     true,
		LookbackMinutes: 15,
		DetectResult:    detect,
	})

	return result
}

func toFindings(anomalies []model.Anomaly) []Finding {
	findings := make([]Finding, 0, len(anomalies))
	for _, a := range anomalies {
		findings = append(findings, Finding{Type: a.Type, Resource: a.Resource, Severity: a.Severity, Description: a.Description})
	}
	return findings
}
