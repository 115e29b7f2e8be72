package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AppointmentStatus is the lifecycle state of a booking
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "AGENDADO"
	AppointmentCompleted AppointmentStatus = "CONCLUIDO"
	AppointmentCancelled AppointmentStatus = "CANCELADO"
)

// Room is one of the clinic's fixed treatment rooms
type Room string

const (
	RoomOne   Room = "SALA_1"
	RoomTwo   Room = "SALA_2"
	RoomThree Room = "SALA_3"
)

// Rooms lists every bookable room
var Rooms = []Room{RoomOne, RoomTwo, RoomThree}

func (r Room) Valid() bool {
	for _, room := range Rooms {
		if r == room {
			return true
		}
	}
	return false
}

// ClockTime is a wall-clock time of day stored as minutes since midnight.
type ClockTime int

// ParseClock parses "HH:MM" or "HH:MM:SS"; seconds are dropped.
func ParseClock(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockTime(t.Hour()*60 + t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("invalid time %q", s)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Appointment is a time-bound claim on a professional, a room and
// optionally a patient over the half-open interval [StartTime, EndTime).
type Appointment struct {
	ID             int               `json:"id"`
	Date           string            `json:"date"` // YYYY-MM-DD
	StartTime      ClockTime         `json:"start_time"`
	EndTime        ClockTime         `json:"end_time"`
	ProfessionalID int               `json:"professional_id"`
	Room           Room              `json:"room"`
	PatientID      *int              `json:"patient_id"`
	Procedure      string            `json:"procedure"`
	Notes          string            `json:"notes"`
	Status         AppointmentStatus `json:"status"`
	CreatedBy      *int              `json:"created_by,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// AppointmentWithNames is the agenda view of an appointment
type AppointmentWithNames struct {
	Appointment
	ProfessionalName string `json:"professional_name"`
	PatientName      string `json:"patient_name"`
}

// Overlaps reports whether both appointments fall on the same date and their
// half-open intervals intersect. Back-to-back bookings do not overlap.
func (a *Appointment) Overlaps(other *Appointment) bool {
	return a.Date == other.Date &&
		other.StartTime < a.EndTime &&
		other.EndTime > a.StartTime
}

// SharesResource reports whether both appointments claim the same
// professional, the same room, or the same patient.
func (a *Appointment) SharesResource(other *Appointment) bool {
	if a.ProfessionalID == other.ProfessionalID || a.Room == other.Room {
		return true
	}
	return a.PatientID != nil && other.PatientID != nil && *a.PatientID == *other.PatientID
}

// ConflictsWith reports whether other blocks a. Cancelled rows never block.
func (a *Appointment) ConflictsWith(other *Appointment) bool {
	if other.Status == AppointmentCancelled {
		return false
	}
	return a.SharesResource(other) && a.Overlaps(other)
}

// CreateAppointmentRequest represents the request to book an appointment
type CreateAppointmentRequest struct {
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	ProfessionalID int    `json:"professional_id"`
	Room           Room   `json:"room"`
	PatientID      *int   `json:"patient_id"`
	Procedure      string `json:"procedure"`
	Notes          string `json:"notes"`
}

// RescheduleAppointmentRequest carries the fields to change; nil fields are kept.
type RescheduleAppointmentRequest struct {
	Date           *string `json:"date"`
	StartTime      *string `json:"start_time"`
	EndTime        *string `json:"end_time"`
	ProfessionalID *int    `json:"professional_id"`
	Room           *Room   `json:"room"`
	PatientID      *int    `json:"patient_id"`
	ClearPatient   bool    `json:"clear_patient"`
	Procedure      *string `json:"procedure"`
	Notes          *string `json:"notes"`
}
