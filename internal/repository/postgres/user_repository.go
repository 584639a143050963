package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, telegram_id, COALESCE(username, ''), role, is_active, manager_id,
	COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(phone, ''), created_on`

func scanUser(row interface{ Scan(...any) error }) (*domain.Identity, error) {
	var u domain.Identity
	var managerID sql.NullInt32
	err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.Role, &u.IsActive,
		&managerID, &u.FirstName, &u.LastName, &u.Phone, &u.CreatedOn)
	if err != nil {
		return nil, err
	}
	if managerID.Valid {
		id := managerID.Int32
		u.ManagerID = &id
	}
	return &u, nil
}

func (r *userRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.Identity, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE telegram_id = $1`, userColumns)
	u, err := scanUser(r.db.QueryRowContext(ctx, query, telegramID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by telegram id: %w", err)
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.Identity, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

func (r *userRepository) ListEmployees(ctx context.Context, managerID int32) ([]*domain.Identity, error) {
	query := fmt.Sprintf(`SELECT %s FROM users
		WHERE manager_id = $1 AND role = $2
		ORDER BY last_name, first_name`, userColumns)
	return r.queryUsers(ctx, query, managerID, domain.RoleEmployee)
}

func (r *userRepository) ListActiveEmployees(ctx context.Context, managerID int32) ([]*domain.Identity, error) {
	query := fmt.Sprintf(`SELECT %s FROM users
		WHERE manager_id = $1 AND role = $2 AND is_active = TRUE
		ORDER BY last_name, first_name`, userColumns)
	return r.queryUsers(ctx, query, managerID, domain.RoleEmployee)
}

func (r *userRepository) ListActiveAdmins(ctx context.Context) ([]*domain.Identity, error) {
	query := fmt.Sprintf(`SELECT %s FROM users
		WHERE role = $1 AND is_active = TRUE ORDER BY id`, userColumns)
	return r.queryUsers(ctx, query, domain.RoleAdmin)
}

func (r *userRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*domain.Identity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.Identity
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) Deactivate(ctx context.Context, id int32) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
