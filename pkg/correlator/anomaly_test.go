package correlator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aegisops/sentinel/pkg/model"
)

func TestDeriveAnomalies_CPUHigh(t *testing.T) {
	points := []model.MetricDataPoint{
		{ResourceID: "i-abc", MetricName: "CPUUtilization", Value: 97, Timestamp: time.Now()},
	}

	anomalies := deriveAnomalies(points)

	assert.Len(t, anomalies, 1)
	assert.Equal(t, "cpu_high", anomalies[0].Type)
	assert.Equal(t, model.SeverityHigh, anomalies[0].Severity)
}

func TestDeriveAnomalies_BelowThreshold_NoAnomaly(t *testing.T) {
	points := []model.MetricDataPoint{
		{ResourceID: "i-abc", MetricName: "CPUUtilization", Value: 50, Timestamp: time.Now()},
	}

	assert.Empty(t, deriveAnomalies(points))
}

func TestDeriveAnomalies_DiskHigh_RespectsHighFloorInvariant(t *testing.T) {
	// DiskSpaceUtilization threshold is 90; 1.1x90=99 exceeds the flat
	// 95 floor, so a value of 95 must NOT be classified high.
	points := []model.MetricDataPoint{
		{ResourceID: "vol-1", MetricName: "DiskSpaceUtilization", Value: 95, Timestamp: time.Now()},
	}

	anomalies := deriveAnomalies(points)

	assert.Len(t, anomalies, 1)
	assert.Equal(t, model.SeverityLow, anomalies[0].Severity)
}

func TestDeriveAnomalies_HighSeverity_AlwaysMeetsInvariant(t *testing.T) {
	cases := []model.MetricDataPoint{
		{MetricName: "CPUUtilization", Value: 99},
		{MetricName: "MemoryUtilization", Value: 99},
		{MetricName: "DiskSpaceUtilization", Value: 100},
		{MetricName: "Errors", Value: 99},
		{MetricName: "ThrottledRequests", Value: 99},
	}

	for _, c := range cases {
		anomalies := deriveAnomalies([]model.MetricDataPoint{c})
		if len(anomalies) == 0 {
			continue
		}
		a := anomalies[0]
		if a.Severity == model.SeverityHigh {
			assert.GreaterOrEqual(t, a.Value, 1.1*a.Threshold, "metric %s", c.MetricName)
		}
	}
}

func TestDeriveRecentChanges_FiltersReadOnly(t *testing.T) {
	events := []model.TrailEvent{
		{EventName: "DescribeInstances", ReadOnly: true},
		{EventName: "TerminateInstances", ReadOnly: false, ResourceID: "i-1"},
	}

	changes := deriveRecentChanges(events)

	assert.Len(t, changes, 1)
	assert.Equal(t, "TerminateInstances", changes[0].EventName)
}

func TestDeriveRecentChanges_NeverNil(t *testing.T) {
	assert.NotNil(t, deriveRecentChanges(nil))
}
