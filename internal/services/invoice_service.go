package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/cache"
	"clinic-backend/internal/db"
	"clinic-backend/internal/metrics"
	"clinic-backend/internal/models"
	"clinic-backend/internal/timeutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// InvoiceStore is the persistence surface of the posting transaction
type InvoiceStore interface {
	CreateHeader(ctx context.Context, q db.DBTX, inv *models.Invoice) error
	CreateItem(ctx context.Context, q db.DBTX, item *models.InvoiceItem) error
	Get(ctx context.Context, id int) (*models.InvoiceWithDetails, error)
	ListByPeriod(ctx context.Context, from, to time.Time) ([]*models.InvoiceSummary, error)
}

// InvoiceCache holds reprint views of posted invoices
type InvoiceCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
}

// PostResult is what a committed sale returns to the desk
type PostResult struct {
	InvoiceID      int             `json:"invoice_id"`
	CashMovementID int             `json:"cash_movement_id"`
	Invoice        *models.Invoice `json:"invoice"`
	Warnings       []string        `json:"warnings,omitempty"`
}

type InvoiceService struct {
	tx        db.Transactor
	invoices  InvoiceStore
	parties   PartyResolver
	inventory *InventoryService
	cash      *CashLedgerService
	auditor   Auditor
	cache     InvoiceCache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func NewInvoiceService(tx db.Transactor, invoices InvoiceStore, parties PartyResolver, inventory *InventoryService, cash *CashLedgerService, auditor Auditor, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{
		tx:        tx,
		invoices:  invoices,
		parties:   parties,
		inventory: inventory,
		cash:      cash,
		auditor:   auditor,
		cacheTTL:  time.Hour,
		logger:    logger,
	}
}

// SetCache enables the reprint cache
func (s *InvoiceService) SetCache(c InvoiceCache, ttl time.Duration) {
	s.cache = c
	if ttl > 0 {
		s.cacheTTL = ttl
	}
}

// Post commits a sale: header, items, stock decrements and the cash entry
// succeed or fail together. Totals are recomputed from the items and any
// caller-supplied total is overwritten. Audit entries are written after the
// commit and their failures come back as warnings.
func (s *InvoiceService) Post(ctx context.Context, actor *int, inv *models.Invoice) (*PostResult, error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.Post")
	defer span.End()

	if err := validateInvoice(inv); err != nil {
		metrics.InvoicesFailed.WithLabelValues("validation").Inc()
		return nil, err
	}
	inv.RecomputeTotals()
	if !inv.NetTotal.IsPositive() {
		metrics.InvoicesFailed.WithLabelValues("validation").Inc()
		return nil, apperr.Validation("items", "invoice total must be greater than zero")
	}
	inv.CreatedBy = actor
	span.SetAttributes(attribute.Int("invoice.items", len(inv.Items)))

	var movement models.CashMovement
	err := s.tx.InTx(ctx, func(ctx context.Context, q db.DBTX) error {
		patient, err := s.resolveSaleParties(ctx, q, inv)
		if err != nil {
			return err
		}
		if err := s.resolveProducts(ctx, q, inv); err != nil {
			return err
		}

		if err := s.invoices.CreateHeader(ctx, q, inv); err != nil {
			return fmt.Errorf("insert invoice header: %w", err)
		}

		for i := range inv.Items {
			item := &inv.Items[i]
			item.InvoiceID = inv.ID
			if err := s.invoices.CreateItem(ctx, q, item); err != nil {
				return fmt.Errorf("insert invoice item %d: %w", item.Position, err)
			}
			if item.Kind != models.ItemProduct {
				continue
			}
			if err := s.inventory.Decrement(ctx, q, *item.ProductID, item.Quantity); err != nil {
				return err
			}
			invoiceID := inv.ID
			if err := s.inventory.RecordMovement(ctx, q, &models.StockMovement{
				ProductID: *item.ProductID,
				Quantity:  -item.Quantity,
				Reason:    models.StockSale,
				InvoiceID: &invoiceID,
				Note:      fmt.Sprintf("Nota #%d", inv.ID),
				CreatedBy: actor,
			}); err != nil {
				return err
			}
		}

		invoiceID := inv.ID
		movement = models.CashMovement{
			Date:          timeutil.Today(),
			Description:   fmt.Sprintf("Nota #%d", inv.ID),
			Direction:     models.CashIn,
			Amount:        inv.NetTotal,
			PaymentMethod: inv.PaymentMethod,
			PatientLabel:  patient.Name,
			InvoiceID:     &invoiceID,
			CreatedBy:     actor,
		}
		return s.cash.Record(ctx, q, &movement)
	})
	if err != nil {
		resetInvoiceIDs(inv)
		reason := failureReason(err)
		metrics.InvoicesFailed.WithLabelValues(reason).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)

		err = apperr.Persistence("post invoice", err)
		if reason == "persistence" {
			s.logger.Error("invoice posting failed", zap.Error(err))
		} else {
			s.logger.Info("invoice rejected", zap.String("reason", reason), zap.Error(err))
		}
		return nil, err
	}

	metrics.InvoicesPosted.Inc()
	span.SetAttributes(attribute.Int("invoice.id", inv.ID))

	entries := []auditEntry{{
		action:     models.ActionCreateInvoice,
		entityKind: models.EntityInvoice,
		entityID:   inv.ID,
		detail:     fmt.Sprintf("%d itens, total %s, %s", len(inv.Items), inv.NetTotal.StringFixed(2), inv.PaymentMethod),
	}}
	for _, item := range inv.Items {
		if item.Kind != models.ItemProduct {
			continue
		}
		entries = append(entries, auditEntry{
			action:     models.ActionStockDecrement,
			entityKind: models.EntityProduct,
			entityID:   *item.ProductID,
			detail:     fmt.Sprintf("-%d (Nota #%d)", item.Quantity, inv.ID),
		})
	}
	entries = append(entries, auditEntry{
		action:     models.ActionCashEntry,
		entityKind: models.EntityCashMovement,
		entityID:   movement.ID,
		detail:     fmt.Sprintf("%s %s Nota #%d", movement.Direction, movement.Amount.StringFixed(2), inv.ID),
	})
	warnings := recordAll(ctx, s.auditor, actor, entries...)

	return &PostResult{
		InvoiceID:      inv.ID,
		CashMovementID: movement.ID,
		Invoice:        inv,
		Warnings:       warnings,
	}, nil
}

// Get rebuilds a posted invoice for reprinting. Posted invoices never change,
// so the view is cached once read.
func (s *InvoiceService) Get(ctx context.Context, id int) (*models.InvoiceWithDetails, error) {
	key := fmt.Sprintf(cache.InvoiceKeyFmt, id)
	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, key); ok {
			var cached models.InvoiceWithDetails
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	invoice, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("get invoice", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(invoice); err == nil {
			s.cache.Set(ctx, key, data, s.cacheTTL)
		}
	}
	return invoice, nil
}

// ListByPeriod lists invoices posted between two clinic-local dates, both
// inclusive.
func (s *InvoiceService) ListByPeriod(ctx context.Context, from, to string) ([]*models.InvoiceSummary, error) {
	start, end, err := parsePeriod(from, to)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoices.ListByPeriod(ctx, start, end)
	if err != nil {
		return nil, apperr.Persistence("list invoices", err)
	}
	return invoices, nil
}

func (s *InvoiceService) resolveSaleParties(ctx context.Context, q db.DBTX, inv *models.Invoice) (*models.Patient, error) {
	patient, err := s.parties.GetPatient(ctx, q, inv.PatientID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Validation("patient_id", "unknown patient")
	}
	if err != nil {
		return nil, err
	}

	prof, err := s.parties.GetProfessional(ctx, q, inv.ProfessionalID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Validation("professional_id", "unknown professional")
	}
	if err != nil {
		return nil, err
	}
	if !prof.IsActive {
		return nil, apperr.Validation("professional_id", "professional is inactive")
	}
	return patient, nil
}

// resolveProducts checks every product line and fills in missing descriptions
func (s *InvoiceService) resolveProducts(ctx context.Context, q db.DBTX, inv *models.Invoice) error {
	for i := range inv.Items {
		item := &inv.Items[i]
		if item.Kind != models.ItemProduct {
			continue
		}
		field := fmt.Sprintf("items[%d].product_id", i)
		product, err := s.inventory.Product(ctx, q, *item.ProductID)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Validation(field, "unknown product")
		}
		if err != nil {
			return err
		}
		if !product.IsActive {
			return apperr.Validation(field, "product is inactive")
		}
		if item.Description == "" {
			item.Description = product.Name
		}
	}
	return nil
}

func validateInvoice(inv *models.Invoice) error {
	if inv == nil {
		return apperr.Validation("", "request body required")
	}
	if len(inv.Items) == 0 {
		return apperr.Validation("items", "an invoice needs at least one item")
	}
	if inv.PatientID <= 0 {
		return apperr.Validation("patient_id", "required")
	}
	if inv.ProfessionalID <= 0 {
		return apperr.Validation("professional_id", "required")
	}
	if !inv.PaymentMethod.Valid() {
		return apperr.Validation("payment_method", fmt.Sprintf("unknown payment method %q", inv.PaymentMethod))
	}

	for i := range inv.Items {
		item := &inv.Items[i]
		item.Description = strings.TrimSpace(item.Description)
		prefix := fmt.Sprintf("items[%d]", i)

		switch item.Kind {
		case models.ItemProduct:
			if item.ProductID == nil || *item.ProductID <= 0 {
				return apperr.Validation(prefix+".product_id", "required for product items")
			}
		case models.ItemService:
			if item.ProductID != nil {
				return apperr.Validation(prefix+".product_id", "service items cannot reference a product")
			}
			if item.Description == "" {
				return apperr.Validation(prefix+".description", "required for service items")
			}
		default:
			return apperr.Validation(prefix+".kind", fmt.Sprintf("unknown item kind %q", item.Kind))
		}

		if item.Quantity <= 0 {
			return apperr.Validation(prefix+".quantity", "must be greater than zero")
		}
		if item.UnitPrice.IsNegative() {
			return apperr.Validation(prefix+".unit_price", "cannot be negative")
		}
		// unit_price is NUMERIC(12,2)
		if !item.UnitPrice.Equal(item.UnitPrice.Round(2)) {
			return apperr.Validation(prefix+".unit_price", "at most 2 decimal places")
		}
	}
	return nil
}

func resetInvoiceIDs(inv *models.Invoice) {
	inv.ID = 0
	inv.CreatedAt = time.Time{}
	for i := range inv.Items {
		inv.Items[i].ID = 0
		inv.Items[i].InvoiceID = 0
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, apperr.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, apperr.ErrValidation):
		return "validation"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	default:
		return "persistence"
	}
}

// parsePeriod turns two YYYY-MM-DD dates into the half-open instant range
// [from 00:00, day after to 00:00) in the clinic timezone. Empty bounds
// default to today.
func parsePeriod(from, to string) (time.Time, time.Time, error) {
	today := timeutil.Today()
	if from == "" {
		from = today
	}
	if to == "" {
		to = from
	}
	start, err := timeutil.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("from", "expected YYYY-MM-DD")
	}
	end, err := timeutil.ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("to", "expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperr.Validation("to", "must not be before from")
	}
	return start, end.AddDate(0, 0, 1), nil
}
