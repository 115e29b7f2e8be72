package repositories

import (
	"context"
	"fmt"
	"strings"

	"clinic-backend/internal/db"
	"clinic-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CashMovementRepository struct {
	DB *pgxpool.Pool
}

func NewCashMovementRepository(db *pgxpool.Pool) *CashMovementRepository {
	return &CashMovementRepository{DB: db}
}

// CashMovementFilter narrows a movement listing; empty fields are ignored
type CashMovementFilter struct {
	From      string // YYYY-MM-DD, inclusive
	To        string // YYYY-MM-DD, inclusive
	Direction models.CashDirection
	InvoiceID *int
}

// Create appends a cash movement. Movements are never updated.
func (r *CashMovementRepository) Create(ctx context.Context, q db.DBTX, m *models.CashMovement) error {
	return q.QueryRow(ctx,
		`INSERT INTO cash_movements(date, description, direction, amount, payment_method,
		                            patient_label, note, invoice_id, created_by)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		m.Date, m.Description, m.Direction, m.Amount, m.PaymentMethod,
		m.PatientLabel, m.Note, m.InvoiceID, m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt)
}

// List returns movements matching filter, oldest first
func (r *CashMovementRepository) List(ctx context.Context, filter CashMovementFilter) ([]*models.CashMovement, error) {
	var conditions []string
	var args []any
	argNum := 1

	if filter.From != "" {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", argNum))
		args = append(args, filter.From)
		argNum++
	}
	if filter.To != "" {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", argNum))
		args = append(args, filter.To)
		argNum++
	}
	if filter.Direction != "" {
		conditions = append(conditions, fmt.Sprintf("direction = $%d", argNum))
		args = append(args, filter.Direction)
		argNum++
	}
	if filter.InvoiceID != nil {
		conditions = append(conditions, fmt.Sprintf("invoice_id = $%d", argNum))
		args = append(args, *filter.InvoiceID)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, to_char(date, 'YYYY-MM-DD'), description, direction, amount, payment_method,
		       patient_label, note, invoice_id, created_by, created_at
		FROM cash_movements
		%s
		ORDER BY date, id`, whereClause)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []*models.CashMovement
	for rows.Next() {
		var m models.CashMovement
		if err := rows.Scan(&m.ID, &m.Date, &m.Description, &m.Direction, &m.Amount,
			&m.PaymentMethod, &m.PatientLabel, &m.Note, &m.InvoiceID, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, &m)
	}
	return movements, rows.Err()
}
