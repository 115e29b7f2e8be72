package repositories

import (
	"context"
	"time"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/db"
	"clinic-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type InvoiceRepository struct {
	DB *pgxpool.Pool
}

func NewInvoiceRepository(db *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{DB: db}
}

// CreateHeader inserts the invoice header and fills in its id and timestamp
func (r *InvoiceRepository) CreateHeader(ctx context.Context, q db.DBTX, inv *models.Invoice) error {
	return q.QueryRow(ctx,
		`INSERT INTO invoices(patient_id, professional_id, payment_method, gross_total, discount, net_total, note, created_by)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		inv.PatientID, inv.ProfessionalID, inv.PaymentMethod,
		inv.GrossTotal, inv.Discount, inv.NetTotal, inv.Note, inv.CreatedBy,
	).Scan(&inv.ID, &inv.CreatedAt)
}

// CreateItem inserts one line of an invoice
func (r *InvoiceRepository) CreateItem(ctx context.Context, q db.DBTX, item *models.InvoiceItem) error {
	return q.QueryRow(ctx,
		`INSERT INTO invoice_items(invoice_id, position, kind, product_id, description, quantity, unit_price, line_total)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		item.InvoiceID, item.Position, item.Kind, item.ProductID, item.Description,
		item.Quantity, item.UnitPrice, item.LineTotal,
	).Scan(&item.ID)
}

// Get rebuilds a complete invoice (header, items, patient and professional)
// for reprinting.
func (r *InvoiceRepository) Get(ctx context.Context, id int) (*models.InvoiceWithDetails, error) {
	var invoice models.InvoiceWithDetails
	err := r.DB.QueryRow(ctx,
		`SELECT i.id, i.patient_id, i.professional_id, i.payment_method, i.gross_total,
		        i.discount, i.net_total, i.note, i.created_by, i.created_at,
		        COALESCE(p.name, ''), COALESCE(p.cpf, ''), COALESCE(pr.name, ''), COALESCE(u.name, '')
		 FROM invoices i
		 LEFT JOIN patients p ON i.patient_id = p.id
		 LEFT JOIN professionals pr ON i.professional_id = pr.id
		 LEFT JOIN users u ON i.created_by = u.id
		 WHERE i.id = $1`, id,
	).Scan(&invoice.ID, &invoice.PatientID, &invoice.ProfessionalID, &invoice.PaymentMethod,
		&invoice.GrossTotal, &invoice.Discount, &invoice.NetTotal, &invoice.Note,
		&invoice.CreatedBy, &invoice.CreatedAt,
		&invoice.PatientName, &invoice.PatientCPF, &invoice.ProfessionalName, &invoice.CreatedByName)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("invoice", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx,
		`SELECT id, invoice_id, position, kind, product_id, description, quantity, unit_price, line_total
		 FROM invoice_items WHERE invoice_id = $1 ORDER BY position`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.InvoiceItem
		err := rows.Scan(&item.ID, &item.InvoiceID, &item.Position, &item.Kind, &item.ProductID,
			&item.Description, &item.Quantity, &item.UnitPrice, &item.LineTotal)
		if err != nil {
			return nil, err
		}
		invoice.Items = append(invoice.Items, item)
	}

	return &invoice, rows.Err()
}

// ListByPeriod returns the invoices posted in [from, to)
func (r *InvoiceRepository) ListByPeriod(ctx context.Context, from, to time.Time) ([]*models.InvoiceSummary, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT i.id, i.created_at, COALESCE(p.name, ''), COALESCE(pr.name, ''), i.payment_method,
		        (SELECT COUNT(*) FROM invoice_items it WHERE it.invoice_id = i.id), i.net_total
		 FROM invoices i
		 LEFT JOIN patients p ON i.patient_id = p.id
		 LEFT JOIN professionals pr ON i.professional_id = pr.id
		 WHERE i.created_at >= $1 AND i.created_at < $2
		 ORDER BY i.created_at`, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.InvoiceSummary
	for rows.Next() {
		var s models.InvoiceSummary
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.PatientName, &s.ProfessionalName,
			&s.PaymentMethod, &s.ItemsCount, &s.NetTotal); err != nil {
			return nil, err
		}
		invoices = append(invoices, &s)
	}

	return invoices, rows.Err()
}
