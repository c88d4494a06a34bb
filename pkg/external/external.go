// Package external declares the black-box collaborators IncidentOrchestrator
// delegates to: the RCA analyzer, the SOP bridge, the SOP executor, and the
// knowledge base. The orchestrator never inspects their internals — it only
// stores what they return.
package external

import (
	"context"

	"github.com/aegisops/sentinel/pkg/model"
)

// RCAAnalyzer diagnoses a CorrelatedEvent into a probable root cause. A
// conforming analyzer must never return an error to the caller: on internal
// failure it returns a degraded RCAResult (severity low, confidence <= 0.3)
// rather than propagating the failure into the incident pipeline.
type RCAAnalyzer interface {
	Analyze(ctx context.Context, event *model.CorrelatedEvent) *model.RCAResult
}

// SOPBridge matches an RCAResult against known remediation playbooks. The
// matching strategy (keyword table, pattern ID, LLM inference) is opaque to
// the orchestrator; only the ordered MatchedSOP list matters.
type SOPBridge interface {
	Match(ctx context.Context, rca *model.RCAResult) []model.MatchedSOP
}

// ExecutionHandle is returned by SOPExecutor.Start. The execution itself
// proceeds out-of-band; the orchestrator does not wait on it.
type ExecutionHandle struct {
	ExecutionID string
}

// SOPExecutor starts a remediation SOP asynchronously.
type SOPExecutor interface {
	Start(ctx context.Context, sopID string, execContext map[string]any) (ExecutionHandle, error)
}

// SearchStrategy selects how deep KnowledgeBase.Search looks before
// returning.
type SearchStrategy string

const (
	SearchStrategyFast     SearchStrategy = "fast"
	SearchStrategySemantic SearchStrategy = "semantic"
	SearchStrategyDeep     SearchStrategy = "deep"
	SearchStrategyAuto     SearchStrategy = "auto"
)

// KnowledgeHit is one historical pattern match returned by Search.
type KnowledgeHit struct {
	PatternID string  `json:"pattern_id"`
	Summary   string  `json:"summary"`
	Score     float64 `json:"score"`
}

// SearchResult is the outcome of a KnowledgeBase.Search call.
type SearchResult struct {
	Hits        []KnowledgeHit `json:"hits"`
	LevelsTried []SearchStrategy `json:"levels_tried"`
	DurationMs  int64          `json:"duration_ms"`
}

// KnowledgePattern is a candidate entry for indexing.
type KnowledgePattern struct {
	PatternID string
	Summary   string
	Data      map[string]any
}

// KnowledgeBase stores and retrieves historical incident patterns that can
// enrich the RCA analyzer's prompt.
type KnowledgeBase interface {
	Search(ctx context.Context, query string, strategy SearchStrategy, filters map[string]any) (SearchResult, error)
	Index(ctx context.Context, pattern KnowledgePattern, qualityScore float64) bool
}
