package sources

import (
	"testing"

	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"

	"github.com/aegisops/sentinel/pkg/model"
)

func TestNamespacesFor_KnownService(t *testing.T) {
	ns := namespacesFor([]string{"ec2"})
	assert.Equal(t, []string{"AWS/EC2"}, ns)
}

func TestNamespacesFor_Empty_ReturnsAll(t *testing.T) {
	ns := namespacesFor(nil)
	assert.NotEmpty(t, ns)
	assert.Contains(t, ns, "AWS/EC2")
	assert.Contains(t, ns, "AWS/RDS")
}

func TestNamespacesFor_UnknownService_Skipped(t *testing.T) {
	ns := namespacesFor([]string{"not-a-real-service"})
	assert.Empty(t, ns)
}

func TestToAlarmState(t *testing.T) {
	assert.Equal(t, model.AlarmStateALARM, toAlarmState(cwtypes.StateValueAlarm))
	assert.Equal(t, model.AlarmStateOK, toAlarmState(cwtypes.StateValueOk))
	assert.Equal(t, model.AlarmStateInsufficientData, toAlarmState(cwtypes.StateValueInsufficientData))
}

func TestToComparison(t *testing.T) {
	assert.Equal(t, model.ComparisonGreaterThan, toComparison(cwtypes.ComparisonOperatorGreaterThanThreshold))
	assert.Equal(t, model.ComparisonGreaterThanOrEqual, toComparison(cwtypes.ComparisonOperatorGreaterThanOrEqualToThreshold))
	assert.Equal(t, model.ComparisonLessThan, toComparison(cwtypes.ComparisonOperatorLessThanThreshold))
}
