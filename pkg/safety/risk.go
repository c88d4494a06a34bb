package safety

import (
	"strings"

	"github.com/aegisops/sentinel/pkg/model"
)

// knownSOPPrefixes maps well-known SOP ID prefixes directly to a risk
// level, checked before the verb heuristic.
var knownSOPPrefixes = []struct {
	prefix string
	level  model.RiskLevel
}{
	{"describe_", model.RiskLevelL0},
	{"get_", model.RiskLevelL0},
	{"list_", model.RiskLevelL0},
	{"check_", model.RiskLevelL0},
	{"restart_", model.RiskLevelL1},
	{"reboot_", model.RiskLevelL1},
	{"scale_", model.RiskLevelL1},
	{"modify_", model.RiskLevelL2},
	{"update_", model.RiskLevelL2},
	{"failover_", model.RiskLevelL2},
	{"patch_", model.RiskLevelL2},
	{"terminate_", model.RiskLevelL3},
	{"delete_", model.RiskLevelL3},
	{"drop_", model.RiskLevelL3},
	{"destroy_", model.RiskLevelL3},
}

// verbsByLevel is the fallback heuristic, ordered most severe first so
// that an ID or action string matching more than one verb (e.g.
// "terminate_and_restart") resolves to the higher, safer-to-assume risk.
var verbsByLevel = []struct {
	level model.RiskLevel
	verbs []string
}{
	{model.RiskLevelL3, []string{"terminate", "delete", "drop", "destroy", "remove", "purge"}},
	{model.RiskLevelL2, []string{"modify", "update", "failover", "patch", "change", "migrate"}},
	{model.RiskLevelL1, []string{"restart", "reboot", "scale", "resize", "rotate"}},
	{model.RiskLevelL0, []string{"describe", "get", "list", "read", "check"}},
}

// ClassifyRisk derives a SOP's risk level from its ID. Known prefixes map
// directly; otherwise the action verb embedded anywhere in the ID (or its
// first step, if the caller folds that into sopID) decides it. An SOP ID
// matching nothing defaults to L2 so it requires operator attention
// instead of running unattended.
func ClassifyRisk(sopID string) model.RiskLevel {
	lower := strings.ToLower(sopID)

	for _, known := range knownSOPPrefixes {
		if strings.HasPrefix(lower, known.prefix) {
			return known.level
		}
	}

	for _, group := range verbsByLevel {
		for _, verb := range group.verbs {
			if strings.Contains(lower, verb) {
				return group.level
			}
		}
	}

	return model.RiskLevelL2
}
