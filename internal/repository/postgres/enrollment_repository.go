package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
)

type enrollmentRepository struct {
	db *sql.DB
}

func NewEnrollmentRepository(db *sql.DB) repository.EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

// FinalizeEnrollment commits the whole enrollment in one transaction: upsert
// the user row, consume the invitation, and insert the manager credential
// when one is supplied. The invitation update is guarded on status so only
// the first finalization consumes it; a repeat by the same identity is
// treated as an idempotent replay and returns the existing user.
func (r *enrollmentRepository) FinalizeEnrollment(ctx context.Context, fin *repository.EnrollmentFinalization) (*domain.Identity, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin enrollment transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := fmt.Sprintf(`INSERT INTO users (telegram_id, username, role, is_active, manager_id, first_name, last_name, phone)
		VALUES ($1, NULLIF($2, ''), $3, TRUE, $4, $5, $6, $7)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			role = EXCLUDED.role,
			is_active = TRUE,
			manager_id = EXCLUDED.manager_id,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone
		RETURNING %s`, userColumns)
	user, err := scanUser(tx.QueryRowContext(ctx, upsert,
		fin.TelegramID, fin.Username, fin.Role, fin.ManagerID,
		fin.FirstName, fin.LastName, fin.Phone))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	result, err := tx.ExecContext(ctx, `UPDATE invitations
		SET status = $1, used_on = NOW(), redeemed_by_user_id = $2
		WHERE id = $3 AND status = $4`,
		domain.InvitationStatusUsed, user.ID, fin.InvitationID, domain.InvitationStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to mark invitation used: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Already consumed. Tolerate a replay by the same identity,
		// which happens when a prior finalization committed but the
		// confirmation never reached the user.
		var redeemedBy sql.NullInt32
		err := tx.QueryRowContext(ctx,
			`SELECT redeemed_by_user_id FROM invitations WHERE id = $1`,
			fin.InvitationID).Scan(&redeemedBy)
		if err != nil {
			return nil, fmt.Errorf("failed to check invitation redemption: %w", err)
		}
		if !redeemedBy.Valid || redeemedBy.Int32 != user.ID {
			return nil, repository.ErrInvitationConsumed
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit enrollment: %w", err)
		}
		return user, nil
	}

	if fin.Login != "" {
		_, err = tx.ExecContext(ctx, `INSERT INTO manager_logins (login, password_hash, user_id, is_active)
			VALUES ($1, $2, $3, TRUE)
			ON CONFLICT (user_id) DO UPDATE SET
				login = EXCLUDED.login,
				password_hash = EXCLUDED.password_hash,
				is_active = TRUE`,
			fin.Login, fin.PasswordHash, user.ID)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return nil, repository.ErrDuplicateLogin
			}
			return nil, fmt.Errorf("failed to insert manager credential: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit enrollment: %w", err)
	}
	return user, nil
}
