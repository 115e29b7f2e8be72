package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/db"
	"clinic-backend/internal/metrics"
	"clinic-backend/internal/models"
	"clinic-backend/internal/timeutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("clinic-backend/services")

// AppointmentStore is the persistence surface of the scheduler
type AppointmentStore interface {
	AppointmentLister
	LockDate(ctx context.Context, q db.DBTX, date string) error
	Create(ctx context.Context, q db.DBTX, a *models.Appointment) error
	GetForUpdate(ctx context.Context, q db.DBTX, id int) (*models.Appointment, error)
	Update(ctx context.Context, q db.DBTX, a *models.Appointment) error
	UpdateStatus(ctx context.Context, q db.DBTX, id int, status models.AppointmentStatus) error
	Get(ctx context.Context, id int) (*models.AppointmentWithNames, error)
	ListByDate(ctx context.Context, date string, professionalID *int) ([]*models.AppointmentWithNames, error)
}

// PartyResolver looks up the patients and professionals a booking or sale refers to
type PartyResolver interface {
	GetPatient(ctx context.Context, q db.DBTX, id int) (*models.Patient, error)
	GetProfessional(ctx context.Context, q db.DBTX, id int) (*models.Professional, error)
}

// AgendaNotifier is told about every committed agenda change
type AgendaNotifier interface {
	AppointmentChanged(event string, a *models.Appointment)
}

// ScheduleResult is a committed appointment plus any post-commit warnings
type ScheduleResult struct {
	Appointment *models.Appointment `json:"appointment"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// Agenda events pushed to connected stations
const (
	EventAppointmentCreated     = "appointment.created"
	EventAppointmentRescheduled = "appointment.rescheduled"
	EventAppointmentCompleted   = "appointment.completed"
	EventAppointmentCancelled   = "appointment.cancelled"
)

type AppointmentService struct {
	tx       db.Transactor
	repo     AppointmentStore
	parties  PartyResolver
	detector *ConflictDetector
	auditor  Auditor
	notifier AgendaNotifier
	logger   *zap.Logger
}

func NewAppointmentService(tx db.Transactor, repo AppointmentStore, parties PartyResolver, auditor Auditor, logger *zap.Logger) *AppointmentService {
	return &AppointmentService{
		tx:       tx,
		repo:     repo,
		parties:  parties,
		detector: NewConflictDetector(repo),
		auditor:  auditor,
		logger:   logger,
	}
}

// SetNotifier wires the realtime agenda hub
func (s *AppointmentService) SetNotifier(n AgendaNotifier) {
	s.notifier = n
}

// Create books a new appointment with status Scheduled. The day is locked,
// the conflict detector consulted and the row inserted in one transaction.
func (s *AppointmentService) Create(ctx context.Context, actor *int, req *models.CreateAppointmentRequest) (*ScheduleResult, error) {
	ctx, span := tracer.Start(ctx, "AppointmentService.Create")
	defer span.End()

	a, err := appointmentFromRequest(req)
	if err != nil {
		return nil, err
	}
	a.Status = models.AppointmentScheduled
	a.CreatedBy = actor
	span.SetAttributes(attribute.String("appointment.date", a.Date))

	err = s.tx.InTx(ctx, func(ctx context.Context, q db.DBTX) error {
		if err := s.resolveParties(ctx, q, a); err != nil {
			return err
		}
		if err := s.admit(ctx, q, a, nil); err != nil {
			return err
		}
		return s.repo.Create(ctx, q, a)
	})
	if err != nil {
		return nil, s.fail("create appointment", err)
	}

	metrics.AppointmentsScheduled.WithLabelValues("create").Inc()
	warnings := recordAll(ctx, s.auditor, actor, auditEntry{
		action:     models.ActionCreateAppointment,
		entityKind: models.EntityAppointment,
		entityID:   a.ID,
		detail:     describeAppointment(a),
	})
	s.notify(EventAppointmentCreated, a)

	return &ScheduleResult{Appointment: a, Warnings: warnings}, nil
}

// Reschedule applies changes to a scheduled appointment and re-checks
// conflicts against every other row of the (possibly new) date.
func (s *AppointmentService) Reschedule(ctx context.Context, actor *int, id int, req *models.RescheduleAppointmentRequest) (*ScheduleResult, error) {
	ctx, span := tracer.Start(ctx, "AppointmentService.Reschedule")
	defer span.End()
	span.SetAttributes(attribute.Int("appointment.id", id))

	var before, after models.Appointment
	err := s.tx.InTx(ctx, func(ctx context.Context, q db.DBTX) error {
		current, err := s.repo.GetForUpdate(ctx, q, id)
		if err != nil {
			return err
		}
		if current.Status != models.AppointmentScheduled {
			return apperr.Validation("status", "only scheduled appointments can be rescheduled")
		}
		before = *current

		updated, err := applyReschedule(current, req)
		if err != nil {
			return err
		}
		if err := s.resolveParties(ctx, q, updated); err != nil {
			return err
		}
		if err := s.admit(ctx, q, updated, &updated.ID); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, q, updated); err != nil {
			return err
		}
		after = *updated
		return nil
	})
	if err != nil {
		return nil, s.fail("reschedule appointment", err)
	}

	metrics.AppointmentsScheduled.WithLabelValues("reschedule").Inc()
	warnings := recordAll(ctx, s.auditor, actor, auditEntry{
		action:     models.ActionEditAppointment,
		entityKind: models.EntityAppointment,
		entityID:   after.ID,
		detail:     fmt.Sprintf("de %s para %s", describeAppointment(&before), describeAppointment(&after)),
	})
	s.notify(EventAppointmentRescheduled, &after)

	return &ScheduleResult{Appointment: &after, Warnings: warnings}, nil
}

// Complete marks a scheduled appointment as completed
func (s *AppointmentService) Complete(ctx context.Context, actor *int, id int) (*ScheduleResult, error) {
	return s.transition(ctx, actor, id, models.AppointmentCompleted)
}

// Cancel marks a scheduled appointment as cancelled. A cancelled row stops
// being a conflict source immediately.
func (s *AppointmentService) Cancel(ctx context.Context, actor *int, id int) (*ScheduleResult, error) {
	return s.transition(ctx, actor, id, models.AppointmentCancelled)
}

func (s *AppointmentService) transition(ctx context.Context, actor *int, id int, to models.AppointmentStatus) (*ScheduleResult, error) {
	ctx, span := tracer.Start(ctx, "AppointmentService.transition")
	defer span.End()
	span.SetAttributes(attribute.Int("appointment.id", id), attribute.String("appointment.status", string(to)))

	var a models.Appointment
	err := s.tx.InTx(ctx, func(ctx context.Context, q db.DBTX) error {
		current, err := s.repo.GetForUpdate(ctx, q, id)
		if err != nil {
			return err
		}
		if current.Status != models.AppointmentScheduled {
			return apperr.Validation("status", fmt.Sprintf("appointment is %s, only scheduled appointments can change status", current.Status))
		}
		if err := s.repo.UpdateStatus(ctx, q, id, to); err != nil {
			return err
		}
		current.Status = to
		a = *current
		return nil
	})
	if err != nil {
		return nil, s.fail("update appointment status", err)
	}

	action, event, op := models.ActionCompleteAppointment, EventAppointmentCompleted, "complete"
	if to == models.AppointmentCancelled {
		action, event, op = models.ActionCancelAppointment, EventAppointmentCancelled, "cancel"
	}

	metrics.AppointmentsScheduled.WithLabelValues(op).Inc()
	warnings := recordAll(ctx, s.auditor, actor, auditEntry{
		action:     action,
		entityKind: models.EntityAppointment,
		entityID:   a.ID,
		detail:     describeAppointment(&a),
	})
	s.notify(event, &a)

	return &ScheduleResult{Appointment: &a, Warnings: warnings}, nil
}

// Get returns one appointment with names
func (s *AppointmentService) Get(ctx context.Context, id int) (*models.AppointmentWithNames, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("get appointment", err)
	}
	return a, nil
}

// ListByDate returns a day's agenda, optionally filtered by professional
func (s *AppointmentService) ListByDate(ctx context.Context, date string, professionalID *int) ([]*models.AppointmentWithNames, error) {
	if date == "" {
		date = timeutil.Today()
	}
	if _, err := timeutil.ParseDate(date); err != nil {
		return nil, apperr.Validation("date", "expected YYYY-MM-DD")
	}
	agenda, err := s.repo.ListByDate(ctx, date, professionalID)
	if err != nil {
		return nil, apperr.Persistence("list agenda", err)
	}
	return agenda, nil
}

// ListByProfessional returns one professional's agenda for a day
func (s *AppointmentService) ListByProfessional(ctx context.Context, professionalID int, date string) ([]*models.AppointmentWithNames, error) {
	if professionalID <= 0 {
		return nil, apperr.Validation("professional_id", "required")
	}
	return s.ListByDate(ctx, date, &professionalID)
}

// admit serializes schedulers of the same day and runs the conflict check
func (s *AppointmentService) admit(ctx context.Context, q db.DBTX, a *models.Appointment, excludeID *int) error {
	if err := s.repo.LockDate(ctx, q, a.Date); err != nil {
		return err
	}
	conflict, err := s.detector.CheckConflict(ctx, q, a, excludeID)
	if err != nil {
		return err
	}
	if conflict {
		return &apperr.ConflictError{}
	}
	return nil
}

func (s *AppointmentService) resolveParties(ctx context.Context, q db.DBTX, a *models.Appointment) error {
	prof, err := s.parties.GetProfessional(ctx, q, a.ProfessionalID)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Validation("professional_id", "unknown professional")
	}
	if err != nil {
		return err
	}
	if !prof.IsActive {
		return apperr.Validation("professional_id", "professional is inactive")
	}

	if a.PatientID != nil {
		_, err := s.parties.GetPatient(ctx, q, *a.PatientID)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Validation("patient_id", "unknown patient")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *AppointmentService) fail(op string, err error) error {
	if errors.Is(err, apperr.ErrConflict) {
		metrics.AppointmentConflicts.Inc()
	}
	err = apperr.Persistence(op, err)
	if errors.Is(err, apperr.ErrPersistence) {
		s.logger.Error(op+" failed", zap.Error(err))
	}
	return err
}

func (s *AppointmentService) notify(event string, a *models.Appointment) {
	if s.notifier != nil {
		s.notifier.AppointmentChanged(event, a)
	}
}

// appointmentFromRequest validates the shape of a booking request
func appointmentFromRequest(req *models.CreateAppointmentRequest) (*models.Appointment, error) {
	if req == nil {
		return nil, apperr.Validation("", "request body required")
	}
	a := &models.Appointment{
		Date:           strings.TrimSpace(req.Date),
		ProfessionalID: req.ProfessionalID,
		Room:           req.Room,
		PatientID:      req.PatientID,
		Procedure:      strings.TrimSpace(req.Procedure),
		Notes:          strings.TrimSpace(req.Notes),
	}

	if strings.TrimSpace(req.StartTime) == "" {
		return nil, apperr.Validation("start_time", "required")
	}
	start, err := models.ParseClock(req.StartTime)
	if err != nil {
		return nil, apperr.Validation("start_time", err.Error())
	}
	if strings.TrimSpace(req.EndTime) == "" {
		return nil, apperr.Validation("end_time", "required")
	}
	end, err := models.ParseClock(req.EndTime)
	if err != nil {
		return nil, apperr.Validation("end_time", err.Error())
	}
	a.StartTime, a.EndTime = start, end

	if err := validateAppointment(a); err != nil {
		return nil, err
	}
	return a, nil
}

// applyReschedule returns a copy of current with the requested changes
func applyReschedule(current *models.Appointment, req *models.RescheduleAppointmentRequest) (*models.Appointment, error) {
	if req == nil {
		return nil, apperr.Validation("", "request body required")
	}
	next := *current

	if req.Date != nil {
		next.Date = strings.TrimSpace(*req.Date)
	}
	if req.StartTime != nil {
		start, err := models.ParseClock(*req.StartTime)
		if err != nil {
			return nil, apperr.Validation("start_time", err.Error())
		}
		next.StartTime = start
	}
	if req.EndTime != nil {
		end, err := models.ParseClock(*req.EndTime)
		if err != nil {
			return nil, apperr.Validation("end_time", err.Error())
		}
		next.EndTime = end
	}
	if req.ProfessionalID != nil {
		next.ProfessionalID = *req.ProfessionalID
	}
	if req.Room != nil {
		next.Room = *req.Room
	}
	if req.ClearPatient {
		next.PatientID = nil
	} else if req.PatientID != nil {
		patientID := *req.PatientID
		next.PatientID = &patientID
	}
	if req.Procedure != nil {
		next.Procedure = strings.TrimSpace(*req.Procedure)
	}
	if req.Notes != nil {
		next.Notes = strings.TrimSpace(*req.Notes)
	}

	if err := validateAppointment(&next); err != nil {
		return nil, err
	}
	return &next, nil
}

func validateAppointment(a *models.Appointment) error {
	if a.Date == "" {
		return apperr.Validation("date", "required")
	}
	if _, err := timeutil.ParseDate(a.Date); err != nil {
		return apperr.Validation("date", "expected YYYY-MM-DD")
	}
	if a.ProfessionalID <= 0 {
		return apperr.Validation("professional_id", "required")
	}
	if a.Room == "" {
		return apperr.Validation("room", "required")
	}
	if !a.Room.Valid() {
		return apperr.Validation("room", fmt.Sprintf("unknown room %q", a.Room))
	}
	if a.PatientID != nil && *a.PatientID <= 0 {
		return apperr.Validation("patient_id", "invalid patient")
	}
	if a.EndTime <= a.StartTime {
		return apperr.Validation("end_time", "must be after start_time")
	}
	return nil
}

func describeAppointment(a *models.Appointment) string {
	return fmt.Sprintf("%s %s-%s %s profissional #%d", a.Date, a.StartTime, a.EndTime, a.Room, a.ProfessionalID)
}
