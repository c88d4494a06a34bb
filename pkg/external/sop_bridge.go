package external

import (
	"context"
	"sort"

	"github.com/aegisops/sentinel/pkg/model"
)

// sopCatalog maps an RCA pattern ID to the SOPs it recommends, ordered by
// preference (first entry is the orchestrator's top pick).
var sopCatalog = map[string][]model.MatchedSOP{
	"cpu_saturation": {
		{SOPID: "scale_asg_out", Name: "Scale out the affected auto-scaling group", Severity: model.SeverityHigh, MatchConfidence: 0.9, MatchType: model.MatchTypeExactPattern},
		{SOPID: "restart_unhealthy_instance", Name: "Restart the saturated instance", Severity: model.SeverityMedium, MatchConfidence: 0.6, MatchType: model.MatchTypeKeyword},
	},
	"memory_pressure": {
		{SOPID: "restart_unhealthy_instance", Name: "Restart the affected instance", Severity: model.SeverityMedium, MatchConfidence: 0.85, MatchType: model.MatchTypeExactPattern},
	},
	"disk_exhaustion": {
		{SOPID: "modify_volume_size", Name: "Grow the affected volume", Severity: model.SeverityMedium, MatchConfidence: 0.8, MatchType: model.MatchTypeExactPattern},
	},
	"error_spike": {
		{SOPID: "failover_to_replica", Name: "Fail over to a healthy replica", Severity: model.SeverityHigh, MatchConfidence: 0.75, MatchType: model.MatchTypeKeyword},
	},
	"throttling": {
		{SOPID: "modify_provisioned_capacity", Name: "Raise provisioned capacity", Severity: model.SeverityMedium, MatchConfidence: 0.78, MatchType: model.MatchTypeKeyword},
	},
}

// KeywordSOPBridge is the default SOPBridge: a static pattern-ID table
// lookup. Entries are returned ordered by descending MatchConfidence.
type KeywordSOPBridge struct{}

// NewKeywordSOPBridge builds the default SOP bridge.
func NewKeywordSOPBridge() *KeywordSOPBridge {
	return &KeywordSOPBridge{}
}

// Match returns the catalog entries for rca.PatternID, or nil if the
// pattern is not recognized (e.g. "healthy" or "unknown").
func (b *KeywordSOPBridge) Match(ctx context.Context, rca *model.RCAResult) []model.MatchedSOP {
	if rca == nil {
		return nil
	}

	entries, ok := sopCatalog[rca.PatternID]
	if !ok {
		return nil
	}

	out := make([]model.MatchedSOP, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchConfidence > out[j].MatchConfidence
	})
	return out
}
