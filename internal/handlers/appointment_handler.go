package handlers

import (
	"context"
	"net/http"

	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"
	"clinic-backend/internal/services"
	"clinic-backend/pkg/utils"
)

// AppointmentScheduler is the agenda surface used by the handler
type AppointmentScheduler interface {
	Create(ctx context.Context, actor *int, req *models.CreateAppointmentRequest) (*services.ScheduleResult, error)
	Reschedule(ctx context.Context, actor *int, id int, req *models.RescheduleAppointmentRequest) (*services.ScheduleResult, error)
	Complete(ctx context.Context, actor *int, id int) (*services.ScheduleResult, error)
	Cancel(ctx context.Context, actor *int, id int) (*services.ScheduleResult, error)
	Get(ctx context.Context, id int) (*models.AppointmentWithNames, error)
	ListByDate(ctx context.Context, date string, professionalID *int) ([]*models.AppointmentWithNames, error)
	ListByProfessional(ctx context.Context, professionalID int, date string) ([]*models.AppointmentWithNames, error)
}

type AppointmentHandler struct {
	Service AppointmentScheduler
}

func NewAppointmentHandler(s AppointmentScheduler) *AppointmentHandler {
	return &AppointmentHandler{Service: s}
}

// Create books a new appointment
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAppointmentRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, err)
		return
	}

	result, err := h.Service.Create(r.Context(), middleware.ActorFromContext(r.Context()), &req)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, result)
}

// Reschedule changes time, room, professional or patient of a booking
func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	var req models.RescheduleAppointmentRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, err)
		return
	}

	result, err := h.Service.Reschedule(r.Context(), middleware.ActorFromContext(r.Context()), id, &req)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Complete)
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Cancel)
}

func (h *AppointmentHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, *int, int) (*services.ScheduleResult, error)) {
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	result, err := fn(r.Context(), middleware.ActorFromContext(r.Context()), id)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	appointment, err := h.Service.Get(r.Context(), id)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, appointment)
}

// ListByDate returns the agenda of a day (?date=YYYY-MM-DD, default today),
// optionally narrowed by ?professional_id=.
func (h *AppointmentHandler) ListByDate(w http.ResponseWriter, r *http.Request) {
	professionalID, err := utils.QueryInt(r, "professional_id")
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	appointments, err := h.Service.ListByDate(r.Context(), r.URL.Query().Get("date"), professionalID)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, appointments)
}

func (h *AppointmentHandler) ListByProfessional(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	appointments, err := h.Service.ListByProfessional(r.Context(), id, r.URL.Query().Get("date"))
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, appointments)
}
