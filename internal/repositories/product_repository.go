package repositories

import (
	"context"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/db"
	"clinic-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepository struct {
	DB *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{DB: db}
}

const productColumns = `id, name, sale_price, current_stock, min_stock, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.SalePrice, &p.CurrentStock, &p.MinStock,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

// Get returns a product by id using q, so it can run inside a transaction
func (r *ProductRepository) Get(ctx context.Context, q db.DBTX, id int) (*models.Product, error) {
	p, err := scanProduct(q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("product", id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DecrementStock subtracts quantity only when enough stock remains. The check
// and the write are one statement, so two concurrent sales of the last units
// cannot both succeed. It reports whether a row was changed.
func (r *ProductRepository) DecrementStock(ctx context.Context, q db.DBTX, productID, quantity int) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE products
		 SET current_stock = current_stock - $2, updated_at = NOW()
		 WHERE id = $1 AND current_stock >= $2`,
		productID, quantity,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// IncrementStock adds quantity to a product's stock
func (r *ProductRepository) IncrementStock(ctx context.Context, q db.DBTX, productID, quantity int) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE products SET current_stock = current_stock + $2, updated_at = NOW() WHERE id = $1`,
		productID, quantity,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CreateMovement appends a stock movement row
func (r *ProductRepository) CreateMovement(ctx context.Context, q db.DBTX, m *models.StockMovement) error {
	return q.QueryRow(ctx,
		`INSERT INTO stock_movements(product_id, quantity, reason, invoice_id, note, created_by)
		 VALUES($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		m.ProductID, m.Quantity, m.Reason, m.InvoiceID, m.Note, m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt)
}

// List returns active products ordered by name
func (r *ProductRepository) List(ctx context.Context) ([]*models.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE is_active ORDER BY name`)
}

// ListLowStock returns active products at or below their minimum stock
func (r *ProductRepository) ListLowStock(ctx context.Context) ([]*models.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products
		WHERE is_active AND current_stock <= min_stock ORDER BY current_stock, name`)
}

func (r *ProductRepository) list(ctx context.Context, query string) ([]*models.Product, error) {
	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ListMovements returns the newest movements of one product
func (r *ProductRepository) ListMovements(ctx context.Context, productID, limit int) ([]*models.StockMovement, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, product_id, quantity, reason, invoice_id, note, created_by, created_at
		 FROM stock_movements WHERE product_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []*models.StockMovement
	for rows.Next() {
		var m models.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Quantity, &m.Reason, &m.InvoiceID,
			&m.Note, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, &m)
	}
	return movements, rows.Err()
}
