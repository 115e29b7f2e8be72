package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(t *testing.T, s string) ClockTime {
	t.Helper()
	c, err := ParseClock(s)
	require.NoError(t, err)
	return c
}

func intPtr(v int) *int { return &v }

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, ClockTime(570), c)
	assert.Equal(t, "09:30", c.String())

	c, err = ParseClock("18:05:00")
	require.NoError(t, err)
	assert.Equal(t, "18:05", c.String())

	for _, bad := range []string{"", "9h30", "24:00", "12:60", "-1:00", "-0:30", "09:30abc", "09:30:99", "+9:30"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestClockTimeJSON(t *testing.T) {
	data, err := json.Marshal(ClockTime(545))
	require.NoError(t, err)
	assert.JSONEq(t, `"09:05"`, string(data))

	var c ClockTime
	require.NoError(t, json.Unmarshal([]byte(`"14:45"`), &c))
	assert.Equal(t, ClockTime(14*60+45), c)
	assert.Error(t, json.Unmarshal([]byte(`"25:00"`), &c))
}

func TestAppointmentConflictsWith(t *testing.T) {
	base := func() *Appointment {
		return &Appointment{
			Date:           "2024-01-10",
			StartTime:      clock(t, "09:00"),
			EndTime:        clock(t, "09:30"),
			ProfessionalID: 1,
			Room:           RoomOne,
			PatientID:      intPtr(10),
			Status:         AppointmentScheduled,
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Appointment)
		want   bool
	}{
		{"same professional overlapping", func(c *Appointment) {
			c.Room, c.PatientID = RoomTwo, nil
			c.StartTime, c.EndTime = clock(t, "09:15"), clock(t, "09:45")
		}, true},
		{"same room different professional", func(c *Appointment) {
			c.ProfessionalID, c.PatientID = 2, intPtr(11)
			c.StartTime, c.EndTime = clock(t, "09:15"), clock(t, "09:45")
		}, true},
		{"same patient only", func(c *Appointment) {
			c.ProfessionalID, c.Room = 2, RoomTwo
			c.StartTime, c.EndTime = clock(t, "08:45"), clock(t, "09:10")
		}, true},
		{"back to back", func(c *Appointment) {
			c.StartTime, c.EndTime = clock(t, "09:30"), clock(t, "10:00")
		}, false},
		{"ends when other starts", func(c *Appointment) {
			c.StartTime, c.EndTime = clock(t, "08:30"), clock(t, "09:00")
		}, false},
		{"contained", func(c *Appointment) {
			c.StartTime, c.EndTime = clock(t, "09:05"), clock(t, "09:10")
		}, true},
		{"different date", func(c *Appointment) {
			c.Date = "2024-01-11"
		}, false},
		{"no shared resource", func(c *Appointment) {
			c.ProfessionalID, c.Room, c.PatientID = 2, RoomTwo, intPtr(11)
		}, false},
		{"both without patient", func(c *Appointment) {
			c.ProfessionalID, c.Room, c.PatientID = 2, RoomTwo, nil
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := base()
			if tt.name == "both without patient" {
				existing.PatientID = nil
			}
			candidate := base()
			tt.mutate(candidate)

			assert.Equal(t, tt.want, candidate.ConflictsWith(existing))
		})
	}
}

func TestCancelledNeverConflicts(t *testing.T) {
	existing := &Appointment{
		Date: "2024-01-10", StartTime: 540, EndTime: 570,
		ProfessionalID: 1, Room: RoomOne, Status: AppointmentCancelled,
	}
	candidate := *existing
	candidate.Status = AppointmentScheduled

	assert.True(t, candidate.SharesResource(existing))
	assert.True(t, candidate.Overlaps(existing))
	assert.False(t, candidate.ConflictsWith(existing))
}

func TestRoomValid(t *testing.T) {
	assert.True(t, RoomTwo.Valid())
	assert.False(t, Room("SALA_9").Valid())
	assert.False(t, Room("").Valid())
}
