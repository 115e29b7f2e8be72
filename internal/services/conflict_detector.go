package services

import (
	"context"

	"clinic-backend/internal/db"
	"clinic-backend/internal/models"
)

// AppointmentLister reads the live allocations of one day
type AppointmentLister interface {
	ListActiveOnDate(ctx context.Context, q db.DBTX, date string, excludeID *int) ([]*models.Appointment, error)
}

// ConflictDetector decides whether a proposed booking may be admitted
type ConflictDetector struct {
	repo AppointmentLister
}

func NewConflictDetector(repo AppointmentLister) *ConflictDetector {
	return &ConflictDetector{repo: repo}
}

// CheckConflict reports whether candidate overlaps a non-cancelled
// appointment on its date that shares its professional, room or patient.
// excludeID leaves one row out, so a reschedule is not blocked by its own
// previous slot. The candidate must already be validated.
func (d *ConflictDetector) CheckConflict(ctx context.Context, q db.DBTX, candidate *models.Appointment, excludeID *int) (bool, error) {
	existing, err := d.repo.ListActiveOnDate(ctx, q, candidate.Date, excludeID)
	if err != nil {
		return false, err
	}

	for _, other := range existing {
		if excludeID != nil && other.ID == *excludeID {
			continue
		}
		if candidate.ConflictsWith(other) {
			return true, nil
		}
	}
	return false, nil
}
