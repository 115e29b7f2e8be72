package services

import (
	"context"
	"fmt"

	"clinic-backend/internal/metrics"
	"clinic-backend/internal/models"

	"go.uber.org/zap"
)

// AuditStore persists audit entries
type AuditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditLogFilter) ([]*models.AuditLog, error)
}

// Auditor records who did what. Record never panics and its error is never
// fatal for the caller's business operation.
type Auditor interface {
	Record(ctx context.Context, actor *int, action, entityKind string, entityID int, detail string) error
}

type AuditService struct {
	repo   AuditStore
	logger *zap.Logger
}

func NewAuditService(repo AuditStore, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Record appends one audit entry. A failed write is logged and counted and
// returned to the caller, who reports it as a warning.
func (s *AuditService) Record(ctx context.Context, actor *int, action, entityKind string, entityID int, detail string) error {
	id := entityID
	entry := &models.AuditLog{
		ActorUserID: actor,
		Action:      action,
		EntityKind:  entityKind,
		EntityID:    &id,
		Detail:      detail,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		metrics.AuditFailures.Inc()
		s.logger.Warn("audit write failed",
			zap.String("action", action),
			zap.String("entity_kind", entityKind),
			zap.Int("entity_id", entityID),
			zap.Error(err),
		)
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}

func (s *AuditService) List(ctx context.Context, filter models.AuditLogFilter) ([]*models.AuditLog, error) {
	return s.repo.List(ctx, filter)
}

// auditEntry is one pending Record call issued after a commit
type auditEntry struct {
	action     string
	entityKind string
	entityID   int
	detail     string
}

// recordAll writes entries in order and turns each failure into a warning
// message for the caller. Nothing is rolled back.
func recordAll(ctx context.Context, auditor Auditor, actor *int, entries ...auditEntry) []string {
	var warnings []string
	for _, e := range entries {
		if err := auditor.Record(ctx, actor, e.action, e.entityKind, e.entityID, e.detail); err != nil {
			warnings = append(warnings, fmt.Sprintf("audit entry %q was not recorded: %v", e.action, err))
		}
	}
	return warnings
}
