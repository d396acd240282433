package departure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRequestValidation(t *testing.T) {
	tm := "14:30"
	valid := CreateRequestRequest{
		LeaveType:     "partial",
		DepartureDate: "2025-03-12",
		DepartureTime: &tm,
		Reason:        "Medical appointment",
		Destination:   "City hospital",
		UrgencyLevel:  "high",
	}
	require.NoError(t, valid.Validate())

	noTime := valid
	noTime.DepartureTime = nil
	assert.Error(t, noTime.Validate(), "partial leave requires a departure time")

	fullDay := valid
	fullDay.LeaveType = "full_day"
	fullDay.DepartureTime = nil
	assert.NoError(t, fullDay.Validate(), "full day leave needs no departure time")

	badUrgency := valid
	badUrgency.UrgencyLevel = "extreme"
	assert.Error(t, badUrgency.Validate())

	badDate := valid
	badDate.DepartureDate = "12-03-2025"
	assert.Error(t, badDate.Validate())
}

func TestCancelRequestValidation(t *testing.T) {
	assert.Error(t, CancelRequestRequest{CancellationReason: "nah"}.Validate())
	assert.Error(t, CancelRequestRequest{CancellationReason: "   ab   "}.Validate(), "whitespace does not count")
	assert.NoError(t, CancelRequestRequest{CancellationReason: "Plans changed"}.Validate())
}

func TestFilterNormalize(t *testing.T) {
	f := Filter{}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.Limit)

	f = Filter{Page: 3, Limit: 500}.Normalize()
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, 20, f.Limit)

	f = Filter{Page: 2, Limit: 50}.Normalize()
	assert.Equal(t, 50, f.Limit)
}

func TestLeaveWindowDisplay(t *testing.T) {
	tm := "14:30"
	partial := Request{
		LeaveType:     LeavePartial,
		DepartureDate: time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		DepartureTime: &tm,
	}
	dateStr, timeStr := partial.LeaveWindowDisplay()
	assert.Equal(t, "12 Mar 2025", dateStr)
	assert.Equal(t, "14:30", timeStr)

	fullDay := Request{
		LeaveType:     LeaveFullDay,
		DepartureDate: time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
	}
	_, timeStr = fullDay.LeaveWindowDisplay()
	assert.Equal(t, "Full Day", timeStr)
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusMoreInfoNeeded.IsTerminal())
}
