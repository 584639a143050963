package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
)

type joinRequestRepository struct {
	db *sql.DB
}

func NewJoinRequestRepository(db *sql.DB) repository.JoinRequestRepository {
	return &joinRequestRepository{db: db}
}

const joinRequestColumns = `id, telegram_id, COALESCE(username, ''), manager_id, invite_role,
	invitation_id, status, COALESCE(reason, ''), created_on, decided_on, decided_by`

func scanJoinRequest(row interface{ Scan(...any) error }) (*domain.JoinRequest, error) {
	var jr domain.JoinRequest
	var decidedOn sql.NullTime
	var decidedBy sql.NullInt32
	err := row.Scan(&jr.ID, &jr.TelegramID, &jr.Username, &jr.ManagerID, &jr.Role,
		&jr.InvitationID, &jr.Status, &jr.Reason, &jr.CreatedOn, &decidedOn, &decidedBy)
	if err != nil {
		return nil, err
	}
	if decidedOn.Valid {
		t := decidedOn.Time
		jr.DecidedOn = &t
	}
	if decidedBy.Valid {
		id := decidedBy.Int32
		jr.DecidedBy = &id
	}
	return &jr, nil
}

func (r *joinRequestRepository) Create(ctx context.Context, req *domain.JoinRequest) (*domain.JoinRequest, error) {
	query := fmt.Sprintf(`INSERT INTO join_requests (telegram_id, username, manager_id, invite_role, invitation_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, joinRequestColumns)
	created, err := scanJoinRequest(r.db.QueryRowContext(ctx, query,
		req.TelegramID, req.Username, req.ManagerID, req.Role, req.InvitationID,
		domain.JoinRequestStatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to create join request: %w", err)
	}
	return created, nil
}

func (r *joinRequestRepository) GetByID(ctx context.Context, id int32) (*domain.JoinRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM join_requests WHERE id = $1`, joinRequestColumns)
	jr, err := scanJoinRequest(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get join request: %w", err)
	}
	return jr, nil
}

func (r *joinRequestRepository) FindPending(ctx context.Context, telegramID int64) (*domain.JoinRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM join_requests
		WHERE telegram_id = $1 AND status = $2
		ORDER BY created_on DESC LIMIT 1`, joinRequestColumns)
	jr, err := scanJoinRequest(r.db.QueryRowContext(ctx, query, telegramID, domain.JoinRequestStatusPending))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending join request: %w", err)
	}
	return jr, nil
}

func (r *joinRequestRepository) ListPendingByManager(ctx context.Context, managerID int32) ([]*domain.JoinRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM join_requests
		WHERE manager_id = $1 AND status = $2
		ORDER BY created_on`, joinRequestColumns)
	rows, err := r.db.QueryContext(ctx, query, managerID, domain.JoinRequestStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending join requests: %w", err)
	}
	defer rows.Close()

	var requests []*domain.JoinRequest
	for rows.Next() {
		jr, err := scanJoinRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan join request: %w", err)
		}
		requests = append(requests, jr)
	}
	return requests, rows.Err()
}

// Decide is a single conditional update guarded on status so that concurrent
// deciders cannot both win.
func (r *joinRequestRepository) Decide(ctx context.Context, id int32, status domain.JoinRequestStatus, reason string, decidedBy int32, decidedOn time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE join_requests
		SET status = $1, reason = NULLIF($2, ''), decided_by = $3, decided_on = $4
		WHERE id = $5 AND status = $6`,
		status, reason, decidedBy, decidedOn, id, domain.JoinRequestStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to decide join request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *joinRequestRepository) ExpirePending(ctx context.Context, cutoff time.Time) ([]*domain.JoinRequest, error) {
	query := `UPDATE join_requests jr
		SET status = $1, reason = $2, decided_on = $3
		FROM invitations inv
		WHERE jr.invitation_id = inv.id
		  AND jr.status = $4
		  AND inv.expires_on < $5
		RETURNING jr.id, jr.telegram_id, COALESCE(jr.username, ''), jr.manager_id, jr.invite_role,
			jr.invitation_id, jr.status, COALESCE(jr.reason, ''), jr.created_on, jr.decided_on, jr.decided_by`
	rows, err := r.db.QueryContext(ctx, query,
		domain.JoinRequestStatusRejected, domain.RejectReasonInvitationExpired,
		cutoff, domain.JoinRequestStatusPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to expire pending join requests: %w", err)
	}
	defer rows.Close()

	var expired []*domain.JoinRequest
	for rows.Next() {
		jr, err := scanJoinRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expired join request: %w", err)
		}
		expired = append(expired, jr)
	}
	return expired, rows.Err()
}
