package external

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// minIndexQuality rejects low-quality patterns from entering the store.
const minIndexQuality = 0.70

// InMemoryKnowledgeBase is the default KnowledgeBase: an in-process store
// of indexed patterns, searched by simple substring relevance. Search tries
// increasingly expensive strategies only when the caller asks for "auto"
// and the cheaper ones come back empty, mirroring the escalation shape the
// RCA analyzer itself uses.
type InMemoryKnowledgeBase struct {
	mu       sync.RWMutex
	patterns map[string]KnowledgePattern
}

// NewInMemoryKnowledgeBase builds an empty knowledge base.
func NewInMemoryKnowledgeBase() *InMemoryKnowledgeBase {
	return &InMemoryKnowledgeBase{patterns: make(map[string]KnowledgePattern)}
}

// Search looks up patterns whose summary contains query. "auto" starts at
// fast and escalates through semantic and deep until a match is found or
// every level has been tried.
func (kb *InMemoryKnowledgeBase) Search(ctx context.Context, query string, strategy SearchStrategy, filters map[string]any) (SearchResult, error) {
	start := time.Now()

	levels := []SearchStrategy{strategy}
	if strategy == SearchStrategyAuto {
		levels = []SearchStrategy{SearchStrategyFast, SearchStrategySemantic, SearchStrategyDeep}
	}

	var tried []SearchStrategy
	var hits []KnowledgeHit

	kb.mu.RLock()
	defer kb.mu.RUnlock()

	for _, level := range levels {
		tried = append(tried, level)
		hits = kb.search(query)
		if len(hits) > 0 {
			break
		}
	}

	return SearchResult{
		Hits:        hits,
		LevelsTried: tried,
		DurationMs:  time.Since(start).Milliseconds(),
	}, nil
}

func (kb *InMemoryKnowledgeBase) search(query string) []KnowledgeHit {
	if query == "" {
		return nil
	}

	var hits []KnowledgeHit
	for id, p := range kb.patterns {
		if strings.Contains(strings.ToLower(p.Summary), strings.ToLower(query)) {
			hits = append(hits, KnowledgeHit{PatternID: id, Summary: p.Summary, Score: 1.0})
		}
	}
	return hits
}

// Index stores pattern if qualityScore clears the acceptance bar. Patterns
// without an ID are assigned one.
func (kb *InMemoryKnowledgeBase) Index(ctx context.Context, pattern KnowledgePattern, qualityScore float64) bool {
	if qualityScore < minIndexQuality {
		return false
	}
	if pattern.PatternID == "" {
		pattern.PatternID = uuid.NewString()
	}

	kb.mu.Lock()
	kb.patterns[pattern.PatternID] = pattern
	kb.mu.Unlock()
	return true
}
