// Package model defines the data types shared across the incident pipeline:
// raw telemetry, the derived CorrelatedEvent and DetectResult, and the
// IncidentRecord audit object produced by the orchestrator.
package model

import "time"

// Statistic is the aggregation applied to a metric sample.
type Statistic string

const (
	StatisticAverage Statistic = "average"
	StatisticMaximum Statistic = "maximum"
	StatisticMinimum Statistic = "minimum"
	StatisticSum     Statistic = "sum"
)

// MetricDataPoint identifies one measured value from a cloud metric source.
// Immutable once created.
type MetricDataPoint struct {
	ResourceID string    `json:"resource_id"`
	MetricName string    `json:"metric_name"`
	Namespace  string    `json:"namespace"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Timestamp  time.Time `json:"timestamp"`
	Statistic  Statistic `json:"statistic"`
}

// AlarmState is the evaluation state of a cloud alarm.
type AlarmState string

const (
	AlarmStateOK              AlarmState = "OK"
	AlarmStateALARM           AlarmState = "ALARM"
	AlarmStateInsufficientData AlarmState = "INSUFFICIENT_DATA"
)

// Comparison is the operator an alarm uses against its threshold.
type Comparison string

const (
	ComparisonGreaterThan        Comparison = ">"
	ComparisonGreaterThanOrEqual Comparison = ">="
	ComparisonLessThan           Comparison = "<"
	ComparisonLessThanOrEqual    Comparison = "<="
)

// AlarmInfo describes an alarm at evaluation time. Alarms whose State is
// ALARM contribute to the derived anomaly set.
type AlarmInfo struct {
	Name       string     `json:"name"`
	State      AlarmState `json:"state"`
	Reason     string     `json:"reason"`
	MetricName string     `json:"metric_name"`
	Threshold  float64    `json:"threshold"`
	Comparison Comparison `json:"comparison"`
	ResourceID string     `json:"resource_id"`
	Timestamp  time.Time  `json:"timestamp"`
}

// TrailEvent is a control-plane audit record. Non-read-only events form the
// "recent changes" projection used by RCA.
type TrailEvent struct {
	EventTime    time.Time `json:"event_time"`
	EventName    string    `json:"event_name"`
	UserIdentity string    `json:"user_identity"`
	ResourceID   string    `json:"resource_id"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ReadOnly     bool      `json:"read_only"`
}

// RecentChange is the projection of a non-read-only TrailEvent used to
// enrich RCA evidence.
type RecentChange struct {
	EventName    string    `json:"event_name"`
	UserIdentity string    `json:"user_identity"`
	ResourceID   string    `json:"resource_id"`
	EventTime    time.Time `json:"event_time"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// HealthEvent is a provider-announced service event (e.g. an AWS Health
// Dashboard entry).
type HealthEvent struct {
	Service           string    `json:"service"`
	EventType         string    `json:"event_type"`
	Status            string    `json:"status"`
	AffectedResources []string  `json:"affected_resources"`
	Description       string    `json:"description"`
	StartTime         time.Time `json:"start_time"`
}

// Severity classifies the magnitude of a derived anomaly or RCA finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Anomaly is a derived finding produced by comparing a metric statistic
// against a per-metric threshold.
type Anomaly struct {
	Type        string   `json:"type"`
	Resource    string   `json:"resource"`
	Metric      string   `json:"metric"`
	Value       float64  `json:"value"`
	Threshold   float64  `json:"threshold"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}
