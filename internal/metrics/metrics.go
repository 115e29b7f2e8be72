package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clinic_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AppointmentsScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_appointment_operations_total",
			Help: "Committed appointment operations by kind",
		},
		[]string{"operation"},
	)

	AppointmentConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clinic_appointment_conflicts_total",
			Help: "Bookings rejected because a conflicting appointment exists",
		},
	)

	InvoicesPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clinic_invoices_posted_total",
			Help: "Invoices committed",
		},
	)

	InvoicesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_invoices_failed_total",
			Help: "Invoice postings rolled back, by reason",
		},
		[]string{"reason"},
	)

	StockShortfalls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clinic_stock_shortfalls_total",
			Help: "Guarded decrements that found insufficient stock",
		},
	)

	AuditFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clinic_audit_write_failures_total",
			Help: "Audit entries that could not be written after commit",
		},
	)
)
