package orchestrator

import (
	"sort"
	"sync"

	"github.com/aegisops/sentinel/pkg/model"
)

// incidentStore is the orchestrator's in-memory index, keyed by incident ID.
type incidentStore struct {
	mu        sync.RWMutex
	incidents map[string]*model.IncidentRecord
}

func newIncidentStore() *incidentStore {
	return &incidentStore{incidents: make(map[string]*model.IncidentRecord)}
}

func (s *incidentStore) put(record *model.IncidentRecord) {
	s.mu.Lock()
	s.incidents[record.IncidentID] = record
	s.mu.Unlock()
}

func (s *incidentStore) get(id string) *model.IncidentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.incidents[id]
}

func (s *incidentStore) list(limit int, status *model.IncidentStatus) []*model.IncidentRecord {
	s.mu.RLock()
	all := make([]*model.IncidentRecord, 0, len(s.incidents))
	for _, r := range s.incidents {
		if status != nil && r.Status != *status {
			continue
		}
		all = append(all, r)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

// Stats summarizes pipeline health across every retained incident.
type Stats struct {
	Total           int                           `json:"total"`
	ByStatus        map[model.IncidentStatus]int  `json:"by_status"`
	AvgDurationMs   float64                       `json:"avg_duration_ms"`
	AvgStageTimings map[string]float64            `json:"avg_stage_timings"`
	TargetMs        int64                         `json:"target_ms"`
	WithinTarget    bool                          `json:"within_target"`
}

func (s *incidentStore) stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := Stats{
		ByStatus:        make(map[model.IncidentStatus]int),
		AvgStageTimings: make(map[string]float64),
		TargetMs:        targetDurationMs,
	}

	if len(s.incidents) == 0 {
		out.WithinTarget = true
		return out
	}

	var totalDuration int64
	stageSums := make(map[string]int64)
	stageCounts := make(map[string]int)
	withinCount := 0

	for _, r := range s.incidents {
		out.Total++
		out.ByStatus[r.Status]++
		totalDuration += r.DurationMs
		if r.DurationMs <= targetDurationMs {
			withinCount++
		}
		for stage, ms := range r.StageTimings {
			stageSums[stage] += ms
			stageCounts[stage]++
		}
	}

	out.AvgDurationMs = float64(totalDuration) / float64(out.Total)
	for stage, sum := range stageSums {
		out.AvgStageTimings[stage] = float64(sum) / float64(stageCounts[stage])
	}
	// P99-style health signal: nearly every incident should finish inside
	// the target even though a handful of slow outliers are expected.
	out.WithinTarget = float64(withinCount)/float64(out.Total) >= 0.99

	return out
}
