package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aegisops/sentinel/pkg/model"
)

func TestClassifyRisk_KnownPrefixes(t *testing.T) {
	cases := map[string]model.RiskLevel{
		"describe_instance_health": model.RiskLevelL0,
		"restart_ec2_instance":     model.RiskLevelL1,
		"scale_asg_out":            model.RiskLevelL1,
		"modify_security_group":    model.RiskLevelL2,
		"failover_rds_instance":    model.RiskLevelL2,
		"terminate_instance":       model.RiskLevelL3,
		"delete_ebs_volume":        model.RiskLevelL3,
	}

	for sopID, want := range cases {
		assert.Equal(t, want, ClassifyRisk(sopID), sopID)
	}
}

func TestClassifyRisk_VerbFallback(t *testing.T) {
	assert.Equal(t, model.RiskLevelL1, ClassifyRisk("ec2_reboot_unhealthy_node"))
	assert.Equal(t, model.RiskLevelL3, ClassifyRisk("cleanup_orphaned_snapshots_remove"))
}

func TestClassifyRisk_AmbiguousID_PrefersMoreSevere(t *testing.T) {
	assert.Equal(t, model.RiskLevelL3, ClassifyRisk("terminate_then_restart_fleet"))
}

func TestClassifyRisk_Unknown_DefaultsL2(t *testing.T) {
	assert.Equal(t, model.RiskLevelL2, ClassifyRisk("sop-7f3a"))
}
