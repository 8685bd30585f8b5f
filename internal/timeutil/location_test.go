package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLocationAndStartOfDay(t *testing.T) {
	prev := Location
	defer func() { Location = prev }()

	require.NoError(t, SetLocation("Asia/Seoul"))
	// 2024-03-31 20:00 UTC is already April 1st in Seoul
	ts := time.Date(2024, 3, 31, 20, 0, 0, 0, time.UTC)

	day := StartOfDay(ts)
	assert.Equal(t, 1, day.Day())
	assert.Equal(t, time.April, day.Month())

	month := StartOfMonth(ts)
	assert.Equal(t, "20240401", month.Format(OrderDayLayout))
}

func TestSetLocationRejectsUnknownZone(t *testing.T) {
	assert.Error(t, SetLocation("Nowhere/Atlantis"))
}

func TestSetClock(t *testing.T) {
	fixed := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	restore := SetClock(func() time.Time { return fixed })
	defer restore()

	assert.True(t, Now().Equal(fixed))
}
