package http

import (
	"net/http"

	"clinic-backend/internal/handlers"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups every HTTP handler mounted by the router
type Handlers struct {
	Auth        *handlers.AuthHandler
	Appointment *handlers.AppointmentHandler
	Invoice     *handlers.InvoiceHandler
	Cash        *handlers.CashHandler
	Product     *handlers.ProductHandler
	Audit       *handlers.AuditHandler
	Report      *handlers.ReportHandler
	Health      *handlers.HealthHandler
	Agenda      http.Handler
}

func NewRouter(h Handlers, authMiddleware *middleware.AuthMiddleware) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware)

	// Public routes
	r.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	// Reception stations follow the agenda live
	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(authMiddleware.Authenticate)
	ws.Handle("/agenda", h.Agenda).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)
	api.HandleFunc("/me", h.Auth.Me).Methods("GET")

	// Agenda - every staff role
	api.HandleFunc("/appointments", h.Appointment.ListByDate).Methods("GET")
	api.HandleFunc("/appointments", h.Appointment.Create).Methods("POST")
	api.HandleFunc("/appointments/{id}", h.Appointment.Get).Methods("GET")
	api.HandleFunc("/appointments/{id}", h.Appointment.Reschedule).Methods("PUT")
	api.HandleFunc("/appointments/{id}/complete", h.Appointment.Complete).Methods("POST")
	api.HandleFunc("/appointments/{id}/cancel", h.Appointment.Cancel).Methods("POST")
	api.HandleFunc("/professionals/{id}/appointments", h.Appointment.ListByProfessional).Methods("GET")

	// Products - restock is for finance
	api.HandleFunc("/products", h.Product.List).Methods("GET")
	api.HandleFunc("/products/low-stock", h.Product.LowStock).Methods("GET")
	api.HandleFunc("/products/{id}/movements", h.Product.Movements).Methods("GET")
	api.Handle("/products/{id}/restock",
		authMiddleware.RequireRole(models.RoleFinance)(http.HandlerFunc(h.Product.Restock))).Methods("POST")

	// Sales and the cash desk
	desk := authMiddleware.RequireRole(models.RoleReception, models.RoleFinance)

	invoices := api.PathPrefix("/invoices").Subrouter()
	invoices.Use(desk)
	invoices.HandleFunc("", h.Invoice.List).Methods("GET")
	invoices.HandleFunc("", h.Invoice.Post).Methods("POST")
	invoices.HandleFunc("/{id}", h.Invoice.Get).Methods("GET")
	invoices.HandleFunc("/{id}/receipt", h.Invoice.Receipt).Methods("GET")

	cash := api.PathPrefix("/cash").Subrouter()
	cash.Use(desk)
	cash.HandleFunc("", h.Cash.List).Methods("GET")
	cash.HandleFunc("", h.Cash.Create).Methods("POST")
	cash.HandleFunc("/summary", h.Cash.Summary).Methods("GET")

	// Reports - finance
	reports := api.PathPrefix("/reports").Subrouter()
	reports.Use(authMiddleware.RequireRole(models.RoleFinance))
	reports.HandleFunc("/invoices.csv", h.Report.InvoicesCSV).Methods("GET")
	reports.HandleFunc("/invoices.pdf", h.Report.InvoicesPDF).Methods("GET")
	reports.HandleFunc("/invoices/archive", h.Report.Archive).Methods("POST")

	// Audit trail - admin only
	audit := api.PathPrefix("/audit").Subrouter()
	audit.Use(authMiddleware.RequireRole())
	audit.HandleFunc("", h.Audit.List).Methods("GET")

	return r
}
