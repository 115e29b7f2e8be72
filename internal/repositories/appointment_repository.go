package repositories

import (
	"context"
	"fmt"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/db"
	"clinic-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AppointmentRepository struct {
	DB *pgxpool.Pool
}

func NewAppointmentRepository(db *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{DB: db}
}

const appointmentColumns = `a.id, to_char(a.date, 'YYYY-MM-DD'), to_char(a.start_time, 'HH24:MI'),
	to_char(a.end_time, 'HH24:MI'), a.professional_id, a.room, a.patient_id, a.procedure_label,
	a.notes, a.status, a.created_by, a.created_at, a.updated_at`

func scanAppointment(row pgx.Row, extra ...any) (*models.Appointment, error) {
	var a models.Appointment
	var start, end string
	dest := []any{&a.ID, &a.Date, &start, &end, &a.ProfessionalID, &a.Room, &a.PatientID,
		&a.Procedure, &a.Notes, &a.Status, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if a.StartTime, err = models.ParseClock(start); err != nil {
		return nil, err
	}
	if a.EndTime, err = models.ParseClock(end); err != nil {
		return nil, err
	}
	return &a, nil
}

// LockDate takes a transaction-scoped advisory lock for one agenda day so
// that concurrent schedulers of the same date run their conflict check and
// write one after the other. Released on commit or rollback.
func (r *AppointmentRepository) LockDate(ctx context.Context, q db.DBTX, date string) error {
	_, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('agenda:' || $1::text))`, date)
	return err
}

// ListActiveOnDate returns every non-cancelled appointment of date, leaving
// out excludeID when set.
func (r *AppointmentRepository) ListActiveOnDate(ctx context.Context, q db.DBTX, date string, excludeID *int) ([]*models.Appointment, error) {
	rows, err := q.Query(ctx,
		`SELECT `+appointmentColumns+`
		 FROM appointments a
		 WHERE a.date = $1
		   AND a.status <> $2
		   AND ($3::int IS NULL OR a.id <> $3)
		 ORDER BY a.start_time`,
		date, models.AppointmentCancelled, excludeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

// Create inserts a scheduled appointment. An exclusion-constraint violation
// is reported as a ConflictError.
func (r *AppointmentRepository) Create(ctx context.Context, q db.DBTX, a *models.Appointment) error {
	err := q.QueryRow(ctx,
		`INSERT INTO appointments(date, start_time, end_time, professional_id, room, patient_id,
		                          procedure_label, notes, status, created_by)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		a.Date, a.StartTime.String(), a.EndTime.String(), a.ProfessionalID, a.Room, a.PatientID,
		a.Procedure, a.Notes, a.Status, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return translateAppointmentError(err)
}

// GetForUpdate loads and row-locks an appointment inside a transaction
func (r *AppointmentRepository) GetForUpdate(ctx context.Context, q db.DBTX, id int) (*models.Appointment, error) {
	a, err := scanAppointment(q.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments a WHERE a.id = $1 FOR UPDATE`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("appointment", id)
	}
	return a, err
}

// Update rewrites the schedulable fields of an appointment
func (r *AppointmentRepository) Update(ctx context.Context, q db.DBTX, a *models.Appointment) error {
	err := q.QueryRow(ctx,
		`UPDATE appointments
		 SET date = $2, start_time = $3, end_time = $4, professional_id = $5, room = $6,
		     patient_id = $7, procedure_label = $8, notes = $9, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		a.ID, a.Date, a.StartTime.String(), a.EndTime.String(), a.ProfessionalID, a.Room,
		a.PatientID, a.Procedure, a.Notes,
	).Scan(&a.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("appointment", a.ID)
	}
	return translateAppointmentError(err)
}

// UpdateStatus moves an appointment to a new lifecycle state
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, q db.DBTX, id int, status models.AppointmentStatus) error {
	tag, err := q.Exec(ctx,
		`UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment", id)
	}
	return nil
}

// Get returns one appointment with professional and patient names
func (r *AppointmentRepository) Get(ctx context.Context, id int) (*models.AppointmentWithNames, error) {
	var view models.AppointmentWithNames
	a, err := scanAppointment(r.DB.QueryRow(ctx,
		`SELECT `+appointmentColumns+`, COALESCE(pr.name, ''), COALESCE(p.name, '')
		 FROM appointments a
		 LEFT JOIN professionals pr ON a.professional_id = pr.id
		 LEFT JOIN patients p ON a.patient_id = p.id
		 WHERE a.id = $1`, id), &view.ProfessionalName, &view.PatientName)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("appointment", id)
	}
	if err != nil {
		return nil, err
	}
	view.Appointment = *a
	return &view, nil
}

// ListByDate returns the agenda of one day, optionally for a single professional
func (r *AppointmentRepository) ListByDate(ctx context.Context, date string, professionalID *int) ([]*models.AppointmentWithNames, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+appointmentColumns+`, COALESCE(pr.name, ''), COALESCE(p.name, '')
		 FROM appointments a
		 LEFT JOIN professionals pr ON a.professional_id = pr.id
		 LEFT JOIN patients p ON a.patient_id = p.id
		 WHERE a.date = $1 AND ($2::int IS NULL OR a.professional_id = $2)
		 ORDER BY a.start_time, a.room`, date, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agenda []*models.AppointmentWithNames
	for rows.Next() {
		var view models.AppointmentWithNames
		a, err := scanAppointment(rows, &view.ProfessionalName, &view.PatientName)
		if err != nil {
			return nil, err
		}
		view.Appointment = *a
		agenda = append(agenda, &view)
	}
	return agenda, rows.Err()
}

func translateAppointmentError(err error) error {
	switch {
	case err == nil:
		return nil
	case db.HasCode(err, db.CodeExclusionViolation):
		return &apperr.ConflictError{}
	case db.HasCode(err, db.CodeForeignKeyViolation):
		return apperr.Validation("appointment", "unknown professional or patient")
	default:
		return fmt.Errorf("appointment write: %w", err)
	}
}
