package external

import (
	"context"
	"fmt"

	"github.com/aegisops/sentinel/pkg/model"
)

// patternCatalog is the fast pattern-matcher's table: anomaly type to a
// known root-cause pattern. Anything not in the table falls through to the
// LLM-equivalent deep path, which this stub approximates with a generic
// low-confidence guess rather than an actual model call.
var patternCatalog = map[string]struct {
	patternID, patternName, rootCause string
	confidence                        float64
}{
	"cpu_high": {
		patternID: "cpu_saturation", patternName: "CPU saturation",
		rootCause: "sustained high CPU utilization on one or more resources", confidence: 0.9,
	},
	"memory_high": {
		patternID: "memory_pressure", patternName: "Memory pressure",
		rootCause: "memory utilization approaching capacity", confidence: 0.88,
	},
	"disk_high": {
		patternID: "disk_exhaustion", patternName: "Disk space exhaustion",
		rootCause: "disk utilization approaching capacity", confidence: 0.88,
	},
	"error_rate_high": {
		patternID: "error_spike", patternName: "Error rate spike",
		rootCause: "elevated error count on one or more resources", confidence: 0.82,
	},
	"throttling": {
		patternID: "throttling", patternName: "Request throttling",
		rootCause: "requests are being throttled, likely a provisioned-capacity limit", confidence: 0.8,
	},
}

// PatternMatchAnalyzer is the default RCAAnalyzer: a fast table lookup over
// the CorrelatedEvent's anomalies, escalating to a generic low-confidence
// guess when nothing in the catalog matches. It never returns an error; on
// an empty or nil event it reports "healthy".
type PatternMatchAnalyzer struct {
	ModelID string
}

// NewPatternMatchAnalyzer builds the default analyzer. modelID labels the
// RCAResult for audit purposes only (this stub performs no model calls).
func NewPatternMatchAnalyzer(modelID string) *PatternMatchAnalyzer {
	if modelID == "" {
		modelID = "pattern-matcher-v1"
	}
	return &PatternMatchAnalyzer{ModelID: modelID}
}

// Analyze never fails: on a nil event or one carrying no anomalies, it
// returns a "healthy" result with low confidence, matching the contract
// that callers can rely on a usable RCAResult under every condition.
func (a *PatternMatchAnalyzer) Analyze(ctx context.Context, event *model.CorrelatedEvent) *model.RCAResult {
	if event == nil || len(event.Anomalies) == 0 {
		return a.healthyResult()
	}

	best := event.Anomalies[0]
	for _, anomaly := range event.Anomalies[1:] {
		if severityRank(anomaly.Severity) > severityRank(best.Severity) {
			best = anomaly
		}
	}

	entry, ok := patternCatalog[best.Type]
	if !ok {
		return a.unknownResult(best)
	}

	affected := affectedResources(event.Anomalies)
	return &model.RCAResult{
		PatternID:         entry.patternID,
		PatternName:       entry.patternName,
		RootCause:         entry.rootCause,
		Severity:          best.Severity,
		Confidence:        entry.confidence,
		MatchedSymptoms:   []string{best.Type},
		Evidence:          []string{fmt.Sprintf("%s on %s: value=%.2f threshold=%.2f", best.Type, best.Resource, best.Value, best.Threshold)},
		AffectedResources: affected,
		ModelID:           a.ModelID,
	}
}

func (a *PatternMatchAnalyzer) healthyResult() *model.RCAResult {
	return &model.RCAResult{
		PatternID:  "healthy",
		RootCause:  "no anomalies observed",
		Severity:   model.SeverityLow,
		Confidence: 0.2,
		ModelID:    a.ModelID,
	}
}

func (a *PatternMatchAnalyzer) unknownResult(best model.Anomaly) *model.RCAResult {
	return &model.RCAResult{
		PatternID:         "unknown",
		RootCause:         fmt.Sprintf("unrecognized anomaly pattern: %s", best.Type),
		Severity:          model.SeverityLow,
		Confidence:        0.3,
		MatchedSymptoms:   []string{best.Type},
		AffectedResources: []string{best.Resource},
		ModelID:           a.ModelID,
	}
}

func severityRank(s model.Severity) int {
	switch s {
	case model.SeverityHigh:
		return 3
	case model.SeverityMedium:
		return 2
	case model.SeverityLow:
		return 1
	default:
		return 0
	}
}

func affectedResources(anomalies []model.Anomaly) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range anomalies {
		if a.Resource == "" || seen[a.Resource] {
			continue
		}
		seen[a.Resource] = true
		out = append(out, a.Resource)
	}
	return out
}
