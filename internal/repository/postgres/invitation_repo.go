package postgres

import (
	"context"
	"database/sql"
	"time"

	"eventhub/internal/domain"
)

const invitationColumns = `id, inviter_id, invitee_id, email, token, role, status, message, expires_at, accepted_at, created_at, updated_at`

type invitationRepository struct {
	DB *sql.DB
}

// NewInvitationRepository returns a domain.InvitationRepository implemented with Postgres.
func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{DB: db}
}

func scanInvitation(s scanner) (*domain.Invitation, error) {
	inv := &domain.Invitation{}
	if err := s.Scan(&inv.ID, &inv.InviterID, &inv.InviteeID, &inv.Email, &inv.Token, &inv.Role, &inv.Status, &inv.Message, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO invitations (inviter_id, email, token, role, status, message, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, inv.InviterID, inv.Email, inv.Token, inv.Role, inv.Status, inv.Message, inv.ExpiresAt, inv.CreatedAt, inv.UpdatedAt).Scan(&inv.ID)
	return mapErr(err, domain.ErrConflict)
}

func (r *invitationRepository) getOne(ctx context.Context, where string, args ...any) (*domain.Invitation, error) {
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE `+where, args...))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return inv, nil
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *invitationRepository) GetByToken(ctx context.Context, tokenHash string) (*domain.Invitation, error) {
	return r.getOne(ctx, `token = $1`, tokenHash)
}

func (r *invitationRepository) FindPending(ctx context.Context, inviterID, email string) (*domain.Invitation, error) {
	return r.getOne(ctx, `inviter_id = $1 AND email = $2 AND status = $3 AND expires_at > NOW() LIMIT 1`,
		inviterID, email, domain.InvitationPending)
}

func (r *invitationRepository) list(ctx context.Context, column, value string, params domain.PaginationParams) ([]*domain.Invitation, int, error) {
	var args queryArgs
	where := whereClause{column + " = " + args.bind(value)}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM invitations`+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+invitationColumns+` FROM invitations`+where.String()+` ORDER BY created_at DESC, id`+pageClause(&args, params), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invitations := make([]*domain.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, 0, err
		}
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return invitations, total, nil
}

func (r *invitationRepository) ListByInviter(ctx context.Context, inviterID string, params domain.PaginationParams) ([]*domain.Invitation, int, error) {
	return r.list(ctx, "inviter_id", inviterID, params)
}

func (r *invitationRepository) ListByEmail(ctx context.Context, email string, params domain.PaginationParams) ([]*domain.Invitation, int, error) {
	return r.list(ctx, "email", email, params)
}

// Accept flips a pending invitation to accepted. It returns ErrNotFound when
// the invitation is missing or no longer pending.
func (r *invitationRepository) Accept(ctx context.Context, id, inviteeID string, at time.Time) (*domain.Invitation, error) {
	query := `
		UPDATE invitations
		SET status = $1, invitee_id = $2, accepted_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
		RETURNING ` + invitationColumns
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, domain.InvitationAccepted, inviteeID, at, id, domain.InvitationPending))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return inv, nil
}

func (r *invitationRepository) UpdateStatus(ctx context.Context, id string, status domain.InvitationStatus) error {
	return execAffected(r.DB.ExecContext(ctx,
		`UPDATE invitations SET status = $1, updated_at = NOW() WHERE id = $2`, status, id))
}

func (r *invitationRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE invitations SET status = $1, updated_at = $2 WHERE status = $3 AND expires_at <= $2`,
		domain.InvitationExpired, now, domain.InvitationPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
