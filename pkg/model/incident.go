package model

import "time"

// TriggerType identifies what originated an incident.
type TriggerType string

const (
	TriggerTypeAlarm      TriggerType = "alarm"
	TriggerTypeAnomaly    TriggerType = "anomaly"
	TriggerTypeHealthEvent TriggerType = "health_event"
	TriggerTypeManual     TriggerType = "manual"
	TriggerTypeProactive  TriggerType = "proactive"
)

// IncidentStatus is a stage in the orchestrator's state machine. Transitions
// are monotonic — a record never leaves a terminal state, and no status
// ever moves backward through the sequence below.
type IncidentStatus string

const (
	IncidentStatusTriggered       IncidentStatus = "triggered"
	IncidentStatusCollecting      IncidentStatus = "collecting"
	IncidentStatusAnalyzing       IncidentStatus = "analyzing"
	IncidentStatusSOPMatched      IncidentStatus = "sop_matched"
	IncidentStatusSafetyCheck     IncidentStatus = "safety_check"
	IncidentStatusExecuting       IncidentStatus = "executing"
	IncidentStatusWaitingApproval IncidentStatus = "waiting_approval"
	IncidentStatusCompleted       IncidentStatus = "completed"
	IncidentStatusFailed          IncidentStatus = "failed"
)

// statusRank gives each non-terminal status a position in the forward
// sequence so CanTransitionTo can reject backward moves.
var statusRank = map[IncidentStatus]int{
	IncidentStatusTriggered:   0,
	IncidentStatusCollecting:  1,
	IncidentStatusAnalyzing:   2,
	IncidentStatusSOPMatched:  3,
	IncidentStatusSafetyCheck: 4,
	IncidentStatusExecuting:   5,
}

// terminalStatuses never transition further.
var terminalStatuses = map[IncidentStatus]bool{
	IncidentStatusWaitingApproval: true,
	IncidentStatusCompleted:       true,
	IncidentStatusFailed:          true,
}

// CanTransitionTo reports whether moving from s to next respects the
// pipeline's monotonic ordering: terminal statuses never move again, and
// non-terminal statuses only advance to FAILED or to a strictly later rank.
func (s IncidentStatus) CanTransitionTo(next IncidentStatus) bool {
	if terminalStatuses[s] {
		return false
	}
	if next == IncidentStatusFailed {
		return true
	}
	if terminalStatuses[next] {
		return true
	}
	nextRank, ok := statusRank[next]
	if !ok {
		return false
	}
	return nextRank > statusRank[s]
}

// CollectionSummary is Stage 1's output, populated either by a fresh
// EventCorrelator.Collect call or by reusing a supplied DetectResult.
type CollectionSummary struct {
	CollectionID   string        `json:"collection_id"`
	Metrics        int           `json:"metrics"`
	Alarms         int           `json:"alarms"`
	TrailEvents    int           `json:"trail_events"`
	Anomalies      int           `json:"anomalies"`
	HealthEvents   int           `json:"health_events"`
	DurationMs     int64         `json:"duration_ms"`
	Source         string        `json:"source"` // "detect_agent_reuse" | "fresh_collection"
	DetectID       string        `json:"detect_id,omitempty"`
	DataAgeSeconds float64       `json:"data_age_seconds,omitempty"`
}

const (
	CollectionSourceReuse = "detect_agent_reuse"
	CollectionSourceFresh = "fresh_collection"
)

// IncidentRecord is the audit object of the pipeline. Created by
// IncidentOrchestrator, retained in memory, and immutable once Status
// reaches a terminal state.
type IncidentRecord struct {
	IncidentID  string         `json:"incident_id"`
	TriggerType TriggerType    `json:"trigger_type"`
	TriggerData map[string]any `json:"trigger_data"`
	Region      string         `json:"region"`
	Status      IncidentStatus `json:"status"`

	CollectionSummary *CollectionSummary `json:"collection_summary,omitempty"`
	RCAResult         *RCAResult         `json:"rca_result,omitempty"`
	MatchedSOPs       []MatchedSOP       `json:"matched_sops,omitempty"`
	SafetyCheck       *SafetyCheck       `json:"safety_check,omitempty"`
	ExecutionResult   *ExecutionResult   `json:"execution_result,omitempty"`

	CreatedAt    time.Time        `json:"created_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	DurationMs   int64            `json:"duration_ms"`
	StageTimings map[string]int64 `json:"stage_timings"`
	Error        string           `json:"error,omitempty"`
}

// NewIncidentRecord starts a record in the TRIGGERED state with empty,
// never-nil stage timings.
func NewIncidentRecord(incidentID string, triggerType TriggerType, triggerData map[string]any, region string, createdAt time.Time) *IncidentRecord {
	if triggerData == nil {
		triggerData = map[string]any{}
	}
	return &IncidentRecord{
		IncidentID:   incidentID,
		TriggerType:  triggerType,
		TriggerData:  triggerData,
		Region:       region,
		Status:       IncidentStatusTriggered,
		CreatedAt:    createdAt,
		StageTimings: make(map[string]int64),
	}
}

// Transition moves the record to next, enforcing monotonic ordering.
// Callers that violate the ordering get an error rather than silent
// corruption of the audit trail.
func (r *IncidentRecord) Transition(next IncidentStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return &InvalidTransitionError{From: r.Status, To: next}
	}
	r.Status = next
	return nil
}

// Finalize sets CompletedAt and DurationMs and re-derives DurationMs from
// the stage timing sum if the wall-clock figure would undercut it — this is
// the fix for the source behavior flagged in design notes, where an
// exception mid-stage left duration_ms reflecting only the finalization
// gap instead of the full stage sum.
func (r *IncidentRecord) Finalize(completedAt time.Time) {
	r.CompletedAt = &completedAt
	wallClock := completedAt.Sub(r.CreatedAt).Milliseconds()

	var stageSum int64
	for _, ms := range r.StageTimings {
		stageSum += ms
	}

	if wallClock < stageSum {
		wallClock = stageSum
	}
	r.DurationMs = wallClock
}

// InvalidTransitionError reports an attempted backward or otherwise
// disallowed status transition.
type InvalidTransitionError struct {
	From IncidentStatus
	To   IncidentStatus
}

func (e *InvalidTransitionError) Error() string {
	return "invalid incident status transition from " + string(e.From) + " to " + string(e.To)
}
