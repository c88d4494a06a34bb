package external

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnowledgeBase_IndexRejectsLowQuality(t *testing.T) {
	kb := NewInMemoryKnowledgeBase()
	ok := kb.Index(context.Background(), KnowledgePattern{Summary: "flaky thing"}, 0.5)
	assert.False(t, ok)
}

func TestKnowledgeBase_IndexAndSearch(t *testing.T) {
	kb := NewInMemoryKnowledgeBase()
	ok := kb.Index(context.Background(), KnowledgePattern{PatternID: "p1", Summary: "cpu saturation on web fleet"}, 0.8)
	require.True(t, ok)

	result, err := kb.Search(context.Background(), "saturation", SearchStrategyFast, nil)
	require.NoError(t, err)

	assert.Len(t, result.Hits, 1)
	assert.Equal(t, "p1", result.Hits[0].PatternID)
	assert.Equal(t, []SearchStrategy{SearchStrategyFast}, result.LevelsTried)
}

func TestKnowledgeBase_Search_AutoEscalatesUntilMatch(t *testing.T) {
	kb := NewInMemoryKnowledgeBase()
	require.True(t, kb.Index(context.Background(), KnowledgePattern{PatternID: "p1", Summary: "disk exhaustion"}, 0.9))

	result, err := kb.Search(context.Background(), "disk", SearchStrategyAuto, nil)
	require.NoError(t, err)
	assert.Len(t, result.Hits, 1)
	assert.Equal(t, []SearchStrategy{SearchStrategyFast}, result.LevelsTried)
}

func TestKnowledgeBase_Search_NoMatch_TriesAllLevels(t *testing.T) {
	kb := NewInMemoryKnowledgeBase()
	result, err := kb.Search(context.Background(), "nonexistent", SearchStrategyAuto, nil)
	require.NoError(t, err)

	assert.Empty(t, result.Hits)
	assert.Equal(t, []SearchStrategy{SearchStrategyFast, SearchStrategySemantic, SearchStrategyDeep}, result.LevelsTried)
}

func TestKnowledgeBase_Search_EmptyQuery_NoHits(t *testing.T) {
	kb := NewInMemoryKnowledgeBase()
	require.True(t, kb.Index(context.Background(), KnowledgePattern{PatternID: "p1", Summary: "anything"}, 0.9))

	result, err := kb.Search(context.Background(), "", SearchStrategyFast, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}
