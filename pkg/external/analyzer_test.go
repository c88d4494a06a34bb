package external

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aegisops/sentinel/pkg/model"
)

func TestPatternMatchAnalyzer_NilEvent_Healthy(t *testing.T) {
	a := NewPatternMatchAnalyzer("")
	result := a.Analyze(context.Background(), nil)

	assert.Equal(t, "healthy", result.PatternID)
	assert.Equal(t, model.SeverityLow, result.Severity)
	assert.LessOrEqual(t, result.Confidence, 0.3)
}

func TestPatternMatchAnalyzer_KnownAnomaly_Matches(t *testing.T) {
	a := NewPatternMatchAnalyzer("test-model")
	event := &model.CorrelatedEvent{
		Anomalies: []model.Anomaly{
			{Type: "cpu_high", Resource: "i-1", Value: 97, Threshold: 80, Severity: model.SeverityHigh},
		},
	}

	result := a.Analyze(context.Background(), event)

	assert.Equal(t, "cpu_saturation", result.PatternID)
	assert.Equal(t, model.SeverityHigh, result.Severity)
	assert.GreaterOrEqual(t, result.Confidence, 0.85)
	assert.Equal(t, "test-model", result.ModelID)
	assert.Contains(t, result.AffectedResources, "i-1")
}

func TestPatternMatchAnalyzer_UnknownAnomaly_LowConfidence(t *testing.T) {
	a := NewPatternMatchAnalyzer("")
	event := &model.CorrelatedEvent{
		Anomalies: []model.Anomaly{{Type: "something_new", Resource: "i-1"}},
	}

	result := a.Analyze(context.Background(), event)

	assert.Equal(t, "unknown", result.PatternID)
	assert.LessOrEqual(t, result.Confidence, 0.3)
}

func TestPatternMatchAnalyzer_PicksMostSevere(t *testing.T) {
	a := NewPatternMatchAnalyzer("")
	event := &model.CorrelatedEvent{
		Anomalies: []model.Anomaly{
			{Type: "error_rate_high", Resource: "i-1", Severity: model.SeverityLow},
			{Type: "cpu_high", Resource: "i-2", Severity: model.SeverityHigh},
		},
	}

	result := a.Analyze(context.Background(), event)
	assert.Equal(t, "cpu_saturation", result.PatternID)
}
