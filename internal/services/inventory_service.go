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

	"go.uber.org/zap"
)

// ProductStore is the persistence surface of the inventory ledger
type ProductStore interface {
	Get(ctx context.Context, q db.DBTX, id int) (*models.Product, error)
	DecrementStock(ctx context.Context, q db.DBTX, productID, quantity int) (bool, error)
	IncrementStock(ctx context.Context, q db.DBTX, productID, quantity int) (bool, error)
	CreateMovement(ctx context.Context, q db.DBTX, m *models.StockMovement) error
	List(ctx context.Context) ([]*models.Product, error)
	ListLowStock(ctx context.Context) ([]*models.Product, error)
	ListMovements(ctx context.Context, productID, limit int) ([]*models.StockMovement, error)
}

type InventoryService struct {
	tx      db.Transactor
	repo    ProductStore
	auditor Auditor
	logger  *zap.Logger
}

func NewInventoryService(tx db.Transactor, repo ProductStore, auditor Auditor, logger *zap.Logger) *InventoryService {
	return &InventoryService{tx: tx, repo: repo, auditor: auditor, logger: logger}
}

// Decrement lowers a product's stock by quantity inside the caller's
// transaction, failing with InsufficientStockError when fewer units remain.
// A product that does not exist also affects no row and is reported the
// same way.
func (s *InventoryService) Decrement(ctx context.Context, q db.DBTX, productID, quantity int) error {
	if quantity <= 0 {
		return apperr.Validation("quantity", "must be greater than zero")
	}

	ok, err := s.repo.DecrementStock(ctx, q, productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock of product %d: %w", productID, err)
	}
	if !ok {
		metrics.StockShortfalls.Inc()
		return &apperr.InsufficientStockError{ProductID: productID, Requested: quantity}
	}
	return nil
}

// Product reads one product inside the caller's transaction
func (s *InventoryService) Product(ctx context.Context, q db.DBTX, id int) (*models.Product, error) {
	return s.repo.Get(ctx, q, id)
}

// RecordMovement appends a stock movement inside the caller's transaction
func (s *InventoryService) RecordMovement(ctx context.Context, q db.DBTX, m *models.StockMovement) error {
	if err := s.repo.CreateMovement(ctx, q, m); err != nil {
		return fmt.Errorf("record stock movement: %w", err)
	}
	return nil
}

// Restock adds units to a product in its own transaction and audits it
func (s *InventoryService) Restock(ctx context.Context, actor *int, productID int, req *models.RestockRequest) (*models.StockMovement, []string, error) {
	if req == nil || req.Quantity <= 0 {
		return nil, nil, apperr.Validation("quantity", "must be greater than zero")
	}

	movement := &models.StockMovement{
		ProductID: productID,
		Quantity:  req.Quantity,
		Reason:    models.StockRestock,
		Note:      strings.TrimSpace(req.Note),
		CreatedBy: actor,
	}

	err := s.tx.InTx(ctx, func(ctx context.Context, q db.DBTX) error {
		product, err := s.repo.Get(ctx, q, productID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return apperr.Validation("product_id", "product is inactive")
		}
		ok, err := s.repo.IncrementStock(ctx, q, productID, req.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("product", productID)
		}
		return s.RecordMovement(ctx, q, movement)
	})
	if err != nil {
		err = apperr.Persistence("restock product", err)
		if !errors.Is(err, apperr.ErrValidation) && !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Error("restock failed", zap.Int("product_id", productID), zap.Error(err))
		}
		return nil, nil, err
	}

	warnings := recordAll(ctx, s.auditor, actor, auditEntry{
		action:     models.ActionStockEntry,
		entityKind: models.EntityProduct,
		entityID:   productID,
		detail:     fmt.Sprintf("+%d unidades", req.Quantity),
	})
	return movement, warnings, nil
}

func (s *InventoryService) List(ctx context.Context) ([]*models.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Persistence("list products", err)
	}
	return products, nil
}

// ListLowStock returns the products at or below their minimum
func (s *InventoryService) ListLowStock(ctx context.Context) ([]*models.Product, error) {
	products, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, apperr.Persistence("list low stock", err)
	}
	return products, nil
}

func (s *InventoryService) ListMovements(ctx context.Context, productID, limit int) ([]*models.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	movements, err := s.repo.ListMovements(ctx, productID, limit)
	if err != nil {
		return nil, apperr.Persistence("list stock movements", err)
	}
	return movements, nil
}
