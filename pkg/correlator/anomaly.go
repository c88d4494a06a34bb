package correlator

import (
	"fmt"
	"math"

	"github.com/aegisops/sentinel/pkg/model"
)

// anomalyThresholds maps a metric name to the value above which it fires an
// anomaly, plus the anomaly "type" label attached to the finding.
var anomalyThresholds = map[string]struct {
	threshold float64
	anomalyType string
}{
	"CPUUtilization":       {80, "cpu_high"},
	"MemoryUtilization":    {85, "memory_high"},
	"DiskSpaceUtilization": {90, "disk_high"},
	"Errors":               {10, "error_rate_high"},
	"ThrottledRequests":    {0, "throttling"},
}

// deriveAnomalies compares each metric data point's value against the
// per-metric threshold table, assigning severity by how far over threshold
// the value lands: >=95% of the metric's own scale maps to high, otherwise
// a value at least 10 points over threshold is medium, else low.
func deriveAnomalies(points []model.MetricDataPoint) []model.Anomaly {
	var anomalies []model.Anomaly

	for _, p := range points {
		rule, ok := anomalyThresholds[p.MetricName]
		if !ok || p.Value <= rule.threshold {
			continue
		}

		anomalies = append(anomalies, model.Anomaly{
			Type:        rule.anomalyType,
			Resource:    p.ResourceID,
			Metric:      p.MetricName,
			Value:       p.Value,
			Threshold:   rule.threshold,
			Severity:    severityFor(p.Value, rule.threshold),
			Description: fmt.Sprintf("%s on %s: %.2f exceeds threshold %.2f", p.MetricName, p.ResourceID, p.Value, rule.threshold),
		})
	}

	return anomalies
}

// severityFor maps value-vs-threshold to the severity bands from the
// correlation algorithm: high at 95 (percentage-scale saturation) or
// 1.1x threshold, whichever is stricter, so the high band never dips
// below the "value >= 1.1x threshold" floor regardless of metric scale;
// medium at threshold+10 or more; low otherwise.
func severityFor(value, threshold float64) model.Severity {
	highBand := math.Max(95, 1.1*threshold)
	switch {
	case value >= highBand:
		return model.SeverityHigh
	case value >= threshold+10:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// deriveRecentChanges filters trail events down to non-read-only entries,
// keeping only the fields RCA evidence needs.
func deriveRecentChanges(events []model.TrailEvent) []model.RecentChange {
	changes := make([]model.RecentChange, 0, len(events))
	for _, e := range events {
		if e.ReadOnly {
			continue
		}
		changes = append(changes, model.RecentChange{
			EventName:    e.EventName,
			UserIdentity: e.UserIdentity,
			ResourceID:   e.ResourceID,
			EventTime:    e.EventTime,
			ErrorCode:    e.ErrorCode,
			ErrorMessage: e.ErrorMessage,
		})
	}
	return changes
}
