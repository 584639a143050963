package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
)

type credentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) repository.CredentialRepository {
	return &credentialRepository{db: db}
}

const credentialColumns = `login, password_hash, user_id, is_active, created_on`

func scanCredential(row interface{ Scan(...any) error }) (*domain.ManagerCredential, error) {
	var c domain.ManagerCredential
	err := row.Scan(&c.Login, &c.PasswordHash, &c.UserID, &c.IsActive, &c.CreatedOn)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *credentialRepository) GetByLogin(ctx context.Context, login string) (*domain.ManagerCredential, error) {
	query := fmt.Sprintf(`SELECT %s FROM manager_logins WHERE login = $1`, credentialColumns)
	c, err := scanCredential(r.db.QueryRowContext(ctx, query, login))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential by login: %w", err)
	}
	return c, nil
}

func (r *credentialRepository) GetByUserID(ctx context.Context, userID int32) (*domain.ManagerCredential, error) {
	query := fmt.Sprintf(`SELECT %s FROM manager_logins WHERE user_id = $1`, credentialColumns)
	c, err := scanCredential(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential by user id: %w", err)
	}
	return c, nil
}
