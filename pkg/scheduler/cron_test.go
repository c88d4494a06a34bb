package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCron_RejectsWrongFieldCount(t *testing.T) {
	_, err := parseCron("0 8 * *")
	assert.Error(t, err)
}

func TestParseCron_DailyAt8(t *testing.T) {
	sched, err := parseCron("0 8 * * *")
	require.NoError(t, err)

	match := time.Date(2026, 7, 29, 8, 0, 0, 0, time.UTC)
	assert.True(t, sched.matches(match))

	noMatch := time.Date(2026, 7, 29, 8, 1, 0, 0, time.UTC)
	assert.False(t, sched.matches(noMatch))
}

func TestCronSchedule_Next_FindsNextOccurrence(t *testing.T) {
	sched, err := parseCron("0 8 * * *")
	require.NoError(t, err)

	after := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
	next := sched.next(after)

	assert.Equal(t, 2026, next.Year())
	assert.Equal(t, time.July, next.Month())
	assert.Equal(t, 30, next.Day())
	assert.Equal(t, 8, next.Hour())
	assert.Equal(t, 0, next.Minute())
}

func TestCronSchedule_Next_SameDayLater(t *testing.T) {
	sched, err := parseCron("0 8 * * *")
	require.NoError(t, err)

	after := time.Date(2026, 7, 29, 6, 0, 0, 0, time.UTC)
	next := sched.next(after)

	assert.Equal(t, 29, next.Day())
	assert.Equal(t, 8, next.Hour())
}
