// Package safety implements SafetyLayer: risk classification, cooldown
// enforcement, per-SOP circuit breaking, pre-execution snapshots, and the
// human approval workflow that gates automated remediation.
package safety

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aegisops/sentinel/pkg/config"
	"github.com/aegisops/sentinel/pkg/model"
)

// CheckContext carries the incident-level signals Check needs to pick an
// execution mode for L1 SOPs, plus any parameters to echo in a dry-run
// preview.
type CheckContext struct {
	Confidence float64
	Severity   model.Severity
	IncidentID string
	Params     map[string]any
}

type dailyCounters struct {
	executions int
	failures   int
}

// Stats summarizes SafetyLayer activity for an operations dashboard.
type Stats struct {
	TotalChecks         int                          `json:"total_checks"`
	ByMode              map[model.ExecutionMode]int   `json:"by_mode"`
	ByRisk              map[model.RiskLevel]int       `json:"by_risk"`
	CircuitBreakersOpen int                           `json:"circuit_breakers_open"`
	PendingApprovals    int                           `json:"pending_approvals"`
	DailyExecutions     int                           `json:"daily_executions"`
	DailyFailures       int                           `json:"daily_failures"`
}

// Layer is SafetyLayer. Construct with New; safe for concurrent use.
type Layer struct {
	cooldown    *cooldownLedger
	circuit     *circuitManager
	approvalTTL time.Duration

	mu          sync.RWMutex
	snapshots   map[string]*model.ExecutionSnapshot
	approvals   map[string]*model.PendingApproval
	totalChecks int
	byMode      map[model.ExecutionMode]int
	byRisk      map[model.RiskLevel]int
	dailyDate   string
	daily       dailyCounters
}

// New builds a SafetyLayer from its configuration section.
func New(cfg config.SafetyConfig) *Layer {
	return &Layer{
		cooldown:    newCooldownLedger(cfg.Cooldown),
		circuit:     newCircuitManager(cfg.CircuitBreaker),
		approvalTTL: cfg.ApprovalTTL,
		snapshots:   make(map[string]*model.ExecutionSnapshot),
		approvals:   make(map[string]*model.PendingApproval),
		byMode:      make(map[model.ExecutionMode]int),
		byRisk:      make(map[model.RiskLevel]int),
	}
}

// Check runs the full gate: risk classification, circuit breaker, cooldown,
// execution-mode selection, and dry-run preview assembly.
func (l *Layer) Check(sopID string, resourceIDs []string, dryRun, force bool, ctx CheckContext) model.SafetyCheck {
	now := time.Now()
	l.maybeResetDaily(now)

	risk := ClassifyRisk(sopID)
	check := model.SafetyCheck{SOPID: sopID, RiskLevel: risk}

	check.CircuitState = l.circuit.state(sopID)
	if check.CircuitState == model.CircuitStateOpen && !force {
		check.ExecutionMode = model.ExecutionModeBlocked
		check.Reason = fmt.Sprintf("circuit breaker open for %s", sopID)
		l.recordCheck(risk, check.ExecutionMode)
		return check
	}

	if !force {
		if remaining := l.cooldown.remaining(sopID, resourceIDs, risk, now); remaining > 0 {
			secs := remaining.Seconds()
			check.ExecutionMode = model.ExecutionModeBlocked
			check.Reason = "cooldown active"
			check.CooldownRemainingSeconds = &secs
			l.recordCheck(risk, check.ExecutionMode)
			return check
		}
	}

	check.ExecutionMode = executionModeFor(risk, ctx)
	check.Passed = force || check.ExecutionMode == model.ExecutionModeAuto || check.ExecutionMode == model.ExecutionModeNotify
	check.Reason = "ok"

	if risk == model.RiskLevelL3 {
		check.Warnings = append(check.Warnings, fmt.Sprintf("%s is classified L3 (destructive): review carefully before approving", sopID))
	}

	if dryRun {
		check.Passed = true
		check.DryRunPreview = &model.DryRunPreview{
			ResourceIDs:          resourceIDs,
			Params:               ctx.Params,
			EstimatedBlastRadius: estimateBlastRadius(risk, len(resourceIDs)),
		}
	}

	l.recordCheck(risk, check.ExecutionMode)
	return check
}

// executionModeFor picks the execution mode for a risk level, consulting
// incident context only for the L1 auto-vs-notify split.
func executionModeFor(risk model.RiskLevel, ctx CheckContext) model.ExecutionMode {
	switch risk {
	case model.RiskLevelL0:
		return model.ExecutionModeAuto
	case model.RiskLevelL1:
		if ctx.Confidence >= 0.8 && ctx.Severity != model.SeverityHigh {
			return model.ExecutionModeAuto
		}
		return model.ExecutionModeNotify
	default:
		return model.ExecutionModeApproval
	}
}

func estimateBlastRadius(risk model.RiskLevel, resourceCount int) string {
	if resourceCount == 0 {
		return "no resources targeted"
	}
	switch risk {
	case model.RiskLevelL3:
		return fmt.Sprintf("%d resource(s), destructive and likely irreversible", resourceCount)
	case model.RiskLevelL2:
		return fmt.Sprintf("%d resource(s), configuration change", resourceCount)
	default:
		return fmt.Sprintf("%d resource(s), low impact", resourceCount)
	}
}

// CreateSnapshot records the pre-execution state of resourceIDs so a
// remediation can be reasoned about (or manually rolled back) after the
// fact. Snapshots live only for the process's lifetime.
func (l *Layer) CreateSnapshot(sopID string, resourceIDs []string, preState map[string]any) *model.ExecutionSnapshot {
	snap := &model.ExecutionSnapshot{
		SnapshotID:  uuid.NewString(),
		SOPID:       sopID,
		ResourceIDs: resourceIDs,
		PreState:    preState,
		CreatedAt:   time.Now(),
	}

	l.mu.Lock()
	l.snapshots[snap.SnapshotID] = snap
	l.mu.Unlock()

	return snap
}

// GetSnapshot looks up a previously created snapshot, or nil if unknown.
func (l *Layer) GetSnapshot(snapshotID string) *model.ExecutionSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshots[snapshotID]
}

// RecordExecution reports the outcome of an actual remediation attempt,
// starting a fresh cooldown window and advancing (or resetting) the SOP's
// circuit breaker.
func (l *Layer) RecordExecution(sopID string, resourceIDs []string, success bool) {
	now := time.Now()
	l.maybeResetDaily(now)

	l.cooldown.record(sopID, resourceIDs, now)
	l.circuit.record(sopID, success)

	l.mu.Lock()
	l.daily.executions++
	if !success {
		l.daily.failures++
	}
	l.mu.Unlock()
}

// RequestApproval opens a pending human decision for sopID.
func (l *Layer) RequestApproval(sopID string, ctx map[string]any) *model.PendingApproval {
	approval := &model.PendingApproval{
		ApprovalID:  uuid.NewString(),
		SOPID:       sopID,
		RequestedAt: time.Now(),
		Context:     ctx,
		Status:      model.ApprovalStatusPending,
	}

	l.mu.Lock()
	l.approvals[approval.ApprovalID] = approval
	l.mu.Unlock()

	return approval
}

// Approve transitions a pending approval to approved.
func (l *Layer) Approve(approvalID, actor string) error {
	return l.decide(approvalID, actor, model.ApprovalStatusApproved, "")
}

// Reject transitions a pending approval to rejected, recording reason.
func (l *Layer) Reject(approvalID, actor, reason string) error {
	return l.decide(approvalID, actor, model.ApprovalStatusRejected, reason)
}

func (l *Layer) decide(approvalID, actor string, status model.ApprovalStatus, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	approval, ok := l.approvals[approvalID]
	if !ok {
		return ErrApprovalNotFound
	}
	if approval.Status == model.ApprovalStatusPending && time.Since(approval.RequestedAt) > l.approvalTTL {
		approval.Status = model.ApprovalStatusExpired
		return ErrApprovalExpired
	}
	if approval.Status != model.ApprovalStatusPending {
		return ErrApprovalAlreadyDecided
	}

	now := time.Now()
	approval.Status = status
	approval.DecidedBy = actor
	approval.DecidedAt = &now
	approval.Reason = reason
	return nil
}

// GetPendingApprovals returns still-open approvals, oldest first, expiring
// any that have outlived approvalTTL as it goes.
func (l *Layer) GetPendingApprovals() []*model.PendingApproval {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	pending := make([]*model.PendingApproval, 0)
	for _, a := range l.approvals {
		if a.Status != model.ApprovalStatusPending {
			continue
		}
		if now.Sub(a.RequestedAt) > l.approvalTTL {
			a.Status = model.ApprovalStatusExpired
			continue
		}
		pending = append(pending, a)
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].RequestedAt.Before(pending[j].RequestedAt)
	})
	return pending
}

func (l *Layer) recordCheck(risk model.RiskLevel, mode model.ExecutionMode) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.totalChecks++
	l.byMode[mode]++
	l.byRisk[risk]++
}

// maybeResetDaily zeroes the per-day execution/failure counters the first
// time it observes a new local calendar day. Idempotent within a day.
func (l *Layer) maybeResetDaily(now time.Time) {
	day := now.Format("2006-01-02")

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.dailyDate != day {
		l.dailyDate = day
		l.daily = dailyCounters{}
	}
}

// Stats summarizes SafetyLayer activity since process start (except the
// daily counters, which reset at local midnight).
func (l *Layer) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pendingCount := 0
	for _, a := range l.approvals {
		if a.Status == model.ApprovalStatusPending {
			pendingCount++
		}
	}

	byMode := make(map[model.ExecutionMode]int, len(l.byMode))
	for k, v := range l.byMode {
		byMode[k] = v
	}
	byRisk := make(map[model.RiskLevel]int, len(l.byRisk))
	for k, v := range l.byRisk {
		byRisk[k] = v
	}

	return Stats{
		TotalChecks:         l.totalChecks,
		ByMode:              byMode,
		ByRisk:              byRisk,
		CircuitBreakersOpen: l.circuit.openCount(),
		PendingApprovals:    pendingCount,
		DailyExecutions:     l.daily.executions,
		DailyFailures:       l.daily.failures,
	}
}
