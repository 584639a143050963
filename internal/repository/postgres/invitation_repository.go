package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
)

type invitationRepository struct {
	db *sql.DB
}

func NewInvitationRepository(db *sql.DB) repository.InvitationRepository {
	return &invitationRepository{db: db}
}

const invitationColumns = `id, token, manager_id, invite_role, status, expires_on, used_on, redeemed_by_user_id, created_on`

func scanInvitation(row interface{ Scan(...any) error }) (*domain.Invitation, error) {
	var inv domain.Invitation
	var usedOn sql.NullTime
	var redeemedBy sql.NullInt32
	err := row.Scan(&inv.ID, &inv.Token, &inv.ManagerID, &inv.Role, &inv.Status,
		&inv.ExpiresOn, &usedOn, &redeemedBy, &inv.CreatedOn)
	if err != nil {
		return nil, err
	}
	if usedOn.Valid {
		t := usedOn.Time
		inv.UsedOn = &t
	}
	if redeemedBy.Valid {
		id := redeemedBy.Int32
		inv.RedeemedByUserID = &id
	}
	return &inv, nil
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) (*domain.Invitation, error) {
	query := fmt.Sprintf(`INSERT INTO invitations (token, manager_id, invite_role, status, expires_on)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, invitationColumns)
	created, err := scanInvitation(r.db.QueryRowContext(ctx, query,
		inv.Token, inv.ManagerID, inv.Role, domain.InvitationStatusPending, inv.ExpiresOn))
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}
	return created, nil
}

func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	query := fmt.Sprintf(`SELECT %s FROM invitations WHERE token = $1`, invitationColumns)
	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, token))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation by token: %w", err)
	}
	return inv, nil
}

func (r *invitationRepository) GetByID(ctx context.Context, id int32) (*domain.Invitation, error) {
	query := fmt.Sprintf(`SELECT %s FROM invitations WHERE id = $1`, invitationColumns)
	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation by id: %w", err)
	}
	return inv, nil
}
