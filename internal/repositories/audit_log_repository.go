package repositories

import (
	"context"
	"fmt"
	"strings"

	"clinic-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditLogRepository struct {
	DB *pgxpool.Pool
}

func NewAuditLogRepository(db *pgxpool.Pool) *AuditLogRepository {
	return &AuditLogRepository{DB: db}
}

// Create appends an audit entry. It always runs on the pool, outside any
// business transaction.
func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO audit_logs(actor_user_id, action, entity_kind, entity_id, detail, created_at)
		 VALUES($1, $2, $3, $4, $5, NOW())
		 RETURNING id, created_at`,
		log.ActorUserID, log.Action, log.EntityKind, log.EntityID, log.Detail,
	).Scan(&log.ID, &log.CreatedAt)
}

// List returns audit entries newest first
func (r *AuditLogRepository) List(ctx context.Context, filter models.AuditLogFilter) ([]*models.AuditLog, error) {
	var conditions []string
	var args []any
	argNum := 1

	if filter.EntityKind != "" {
		conditions = append(conditions, fmt.Sprintf("a.entity_kind = $%d", argNum))
		args = append(args, filter.EntityKind)
		argNum++
	}
	if filter.EntityID != nil {
		conditions = append(conditions, fmt.Sprintf("a.entity_id = $%d", argNum))
		args = append(args, *filter.EntityID)
		argNum++
	}
	if filter.ActorUserID != nil {
		conditions = append(conditions, fmt.Sprintf("a.actor_user_id = $%d", argNum))
		args = append(args, *filter.ActorUserID)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT a.id, a.actor_user_id, COALESCE(u.name, 'Sistema'), a.action, a.entity_kind,
		       a.entity_id, a.detail, a.created_at
		FROM audit_logs a
		LEFT JOIN users u ON a.actor_user_id = u.id
		%s
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $%d`, whereClause, argNum)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.ActorUserID, &l.ActorName, &l.Action, &l.EntityKind,
			&l.EntityID, &l.Detail, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
