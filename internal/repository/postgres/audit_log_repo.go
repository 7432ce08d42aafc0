package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"eventhub/internal/domain"
)

const auditColumns = `id, user_id, action, entity_type, entity_id, metadata, ip_address, created_at`

type auditLogRepository struct {
	DB *sql.DB
}

// NewAuditLogRepository returns a domain.AuditLogRepository implemented with Postgres.
func NewAuditLogRepository(db *sql.DB) domain.AuditLogRepository {
	return &auditLogRepository{DB: db}
}

func scanAuditLog(s scanner) (*domain.AuditLog, error) {
	a := &domain.AuditLog{}
	var metadata []byte
	if err := s.Scan(&a.ID, &a.UserID, &a.Action, &a.EntityType, &a.EntityID, &metadata, &a.IPAddress, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Metadata = json.RawMessage(metadata)
	return a, nil
}

func (r *auditLogRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	// lib/pq sends []byte as bytea, so the JSON document goes over the wire as text.
	metadata := "{}"
	if len(a.Metadata) > 0 {
		metadata = string(a.Metadata)
	}
	query := `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, metadata, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, a.UserID, a.Action, a.EntityType, a.EntityID, metadata, a.IPAddress, a.CreatedAt).Scan(&a.ID)
	return mapErr(err, nil)
}

func (r *auditLogRepository) List(ctx context.Context, f domain.AuditFilter, params domain.PaginationParams) ([]*domain.AuditLog, int, error) {
	var args queryArgs
	var where whereClause
	if f.UserID != "" {
		where = append(where, "user_id = "+args.bind(f.UserID))
	}
	if f.EntityType != "" {
		where = append(where, "entity_type = "+args.bind(f.EntityType))
	}
	if f.EntityID != "" {
		where = append(where, "entity_id = "+args.bind(f.EntityID))
	}
	if f.Action != "" {
		where = append(where, "action = "+args.bind(f.Action))
	}
	if f.Since != nil {
		where = append(where, "created_at >= "+args.bind(*f.Since))
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+auditColumns+` FROM audit_logs`+where.String()+` ORDER BY created_at DESC, id`+pageClause(&args, params), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := make([]*domain.AuditLog, 0)
	for rows.Next() {
		a, err := scanAuditLog(rows)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
