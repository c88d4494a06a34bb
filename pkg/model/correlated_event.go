package model

import "time"

// SourceStatus is the outcome of one data source's collection attempt
// within a single Collect call.
type SourceStatus string

const (
	SourceStatusOK      SourceStatus = "ok"
	SourceStatusError   SourceStatus = "error"
	SourceStatusTimeout SourceStatus = "timeout"
)

// CorrelatedEvent is the atomic output of one EventCorrelator.Collect cycle.
// Constructed by EventCorrelator, never mutated after return, and eligible
// for garbage collection once no DetectResult or IncidentRecord references
// it anymore.
type CorrelatedEvent struct {
	CollectionID string    `json:"collection_id"`
	Region       string    `json:"region"`
	StartedAt    time.Time `json:"started_at"`
	DurationMs   int64     `json:"duration_ms"`

	// SourceStatus maps every requested source name to its outcome; every
	// requested source appears even on total failure.
	SourceStatus map[string]SourceStatus `json:"source_status"`
	SourceErrors map[string]string       `json:"source_errors,omitempty"`

	Metrics       []MetricDataPoint `json:"metrics"`
	Alarms        []AlarmInfo       `json:"alarms"`
	TrailEvents   []TrailEvent      `json:"trail_events"`
	HealthEvents  []HealthEvent     `json:"health_events"`
	Anomalies     []Anomaly         `json:"anomalies"`
	RecentChanges []RecentChange    `json:"recent_changes"`
}

// NewCorrelatedEvent returns a CorrelatedEvent with every slice/map field
// initialized to empty (never nil), matching the "populated lists may be
// empty, never null" invariant.
func NewCorrelatedEvent(collectionID, region string, startedAt time.Time) *CorrelatedEvent {
	return &CorrelatedEvent{
		CollectionID:  collectionID,
		Region:        region,
		StartedAt:     startedAt,
		SourceStatus:  make(map[string]SourceStatus),
		SourceErrors:  make(map[string]string),
		Metrics:       []MetricDataPoint{},
		Alarms:        []AlarmInfo{},
		TrailEvents:   []TrailEvent{},
		HealthEvents:  []HealthEvent{},
		Anomalies:     []Anomaly{},
		RecentChanges: []RecentChange{},
	}
}
