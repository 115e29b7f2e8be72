package repositories

import (
	"context"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/db"
	"clinic-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PartyRepository resolves the patients and professionals referenced by
// appointments and invoices.
type PartyRepository struct {
	DB *pgxpool.Pool
}

func NewPartyRepository(db *pgxpool.Pool) *PartyRepository {
	return &PartyRepository{DB: db}
}

func (r *PartyRepository) GetPatient(ctx context.Context, q db.DBTX, id int) (*models.Patient, error) {
	var p models.Patient
	err := q.QueryRow(ctx,
		`SELECT id, name, cpf, phone, is_active, created_at FROM patients WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.CPF, &p.Phone, &p.IsActive, &p.CreatedAt)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("patient", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PartyRepository) GetProfessional(ctx context.Context, q db.DBTX, id int) (*models.Professional, error) {
	var p models.Professional
	err := q.QueryRow(ctx,
		`SELECT id, name, specialty, user_id, is_active, created_at FROM professionals WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Specialty, &p.UserID, &p.IsActive, &p.CreatedAt)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("professional", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProfessionals returns active professionals for the agenda columns
func (r *PartyRepository) ListProfessionals(ctx context.Context) ([]*models.Professional, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, specialty, user_id, is_active, created_at
		 FROM professionals WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var professionals []*models.Professional
	for rows.Next() {
		var p models.Professional
		if err := rows.Scan(&p.ID, &p.Name, &p.Specialty, &p.UserID, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		professionals = append(professionals, &p)
	}
	return professionals, rows.Err()
}
