package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/db"
	"clinic-backend/internal/models"
	"clinic-backend/internal/repositories"
	"clinic-backend/internal/timeutil"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CashStore is the persistence surface of the cash ledger
type CashStore interface {
	Create(ctx context.Context, q db.DBTX, m *models.CashMovement) error
	List(ctx context.Context, filter repositories.CashMovementFilter) ([]*models.CashMovement, error)
}

type CashLedgerService struct {
	tx      db.Transactor
	repo    CashStore
	auditor Auditor
	logger  *zap.Logger
}

func NewCashLedgerService(tx db.Transactor, repo CashStore, auditor Auditor, logger *zap.Logger) *CashLedgerService {
	return &CashLedgerService{tx: tx, repo: repo, auditor: auditor, logger: logger}
}

// Record appends a movement inside the caller's transaction. The amount
// must be strictly positive; the direction carries the sign.
func (s *CashLedgerService) Record(ctx context.Context, q db.DBTX, m *models.CashMovement) error {
	if err := validateCashMovement(m); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, q, m); err != nil {
		return fmt.Errorf("record cash movement: %w", err)
	}
	return nil
}

// RecordManual records a desk movement (change fund, supplies, withdrawal)
// in its own transaction and audits it.
func (s *CashLedgerService) RecordManual(ctx context.Context, actor *int, req *models.CreateCashMovementRequest) (*models.CashMovement, []string, error) {
	if req == nil {
		return nil, nil, apperr.Validation("", "request body required")
	}
	m := &models.CashMovement{
		Date:          strings.TrimSpace(req.Date),
		Description:   strings.TrimSpace(req.Description),
		Direction:     req.Direction,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		PatientLabel:  strings.TrimSpace(req.PatientLabel),
		Note:          strings.TrimSpace(req.Note),
		CreatedBy:     actor,
	}
	if m.Date == "" {
		m.Date = timeutil.Today()
	}
	if err := validateCashMovement(m); err != nil {
		return nil, nil, err
	}

	err := s.tx.InTx(ctx, func(ctx context.Context, q db.DBTX) error {
		return s.Record(ctx, q, m)
	})
	if err != nil {
		s.logger.Error("manual cash movement failed", zap.Error(err))
		return nil, nil, apperr.Persistence("record cash movement", err)
	}

	warnings := recordAll(ctx, s.auditor, actor, auditEntry{
		action:     models.ActionCashEntry,
		entityKind: models.EntityCashMovement,
		entityID:   m.ID,
		detail:     fmt.Sprintf("%s %s %s", m.Direction, m.Amount.StringFixed(2), m.Description),
	})
	return m, warnings, nil
}

// List returns the movements between from and to, both inclusive
func (s *CashLedgerService) List(ctx context.Context, from, to string) ([]*models.CashMovement, error) {
	var start, end time.Time
	var err error
	if from != "" {
		if start, err = timeutil.ParseDate(from); err != nil {
			return nil, apperr.Validation("from", "expected YYYY-MM-DD")
		}
	}
	if to != "" {
		if end, err = timeutil.ParseDate(to); err != nil {
			return nil, apperr.Validation("to", "expected YYYY-MM-DD")
		}
	}
	if from != "" && to != "" && end.Before(start) {
		return nil, apperr.Validation("to", "must not be before from")
	}
	movements, err := s.repo.List(ctx, repositories.CashMovementFilter{From: from, To: to})
	if err != nil {
		return nil, apperr.Persistence("list cash movements", err)
	}
	return movements, nil
}

// DailySummary totals one day's movements, split by payment method
func (s *CashLedgerService) DailySummary(ctx context.Context, date string) (*models.CashSummary, error) {
	if date == "" {
		date = timeutil.Today()
	}
	movements, err := s.List(ctx, date, date)
	if err != nil {
		return nil, err
	}
	return Summarize(date, movements), nil
}

// Summarize folds movements into a CashSummary. Outflows count negatively
// in the per-method totals.
func Summarize(date string, movements []*models.CashMovement) *models.CashSummary {
	summary := &models.CashSummary{
		Date:     date,
		TotalIn:  decimal.Zero,
		TotalOut: decimal.Zero,
		ByMethod: make(map[models.PaymentMethod]decimal.Decimal),
	}
	for _, m := range movements {
		signed := m.Amount
		if m.Direction == models.CashOut {
			summary.TotalOut = summary.TotalOut.Add(m.Amount)
			signed = m.Amount.Neg()
		} else {
			summary.TotalIn = summary.TotalIn.Add(m.Amount)
		}
		summary.ByMethod[m.PaymentMethod] = summary.ByMethod[m.PaymentMethod].Add(signed)
		summary.Movements++
	}
	summary.Balance = summary.TotalIn.Sub(summary.TotalOut)
	return summary
}

func validateCashMovement(m *models.CashMovement) error {
	if m.Date == "" {
		return apperr.Validation("date", "required")
	}
	if _, err := timeutil.ParseDate(m.Date); err != nil {
		return apperr.Validation("date", "expected YYYY-MM-DD")
	}
	if m.Description == "" {
		return apperr.Validation("description", "required")
	}
	if !m.Direction.Valid() {
		return apperr.Validation("direction", fmt.Sprintf("unknown direction %q", m.Direction))
	}
	if !m.Amount.IsPositive() {
		return apperr.Validation("amount", "must be greater than zero")
	}
	if !m.PaymentMethod.Valid() {
		return apperr.Validation("payment_method", fmt.Sprintf("unknown payment method %q", m.PaymentMethod))
	}
	return nil
}
