package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsReadOnlyEventName(t *testing.T) {
	assert.False(t, isReadOnlyEventName("TerminateInstances"))
	assert.False(t, isReadOnlyEventName("CreateBucket"))
	assert.False(t, isReadOnlyEventName("ModifyDBInstance"))
	assert.True(t, isReadOnlyEventName("DescribeInstances"))
	assert.True(t, isReadOnlyEventName("ListBuckets"))
	assert.True(t, isReadOnlyEventName("GetObject"))
}
