package service

import (
	"context"
	"errors"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
)

// requireActiveRole loads the identity behind telegramID and checks that it
// is active and holds one of the given roles. A missing user row maps to
// ErrUnauthorized, not ErrNotFound, so transports never leak membership.
func requireActiveRole(ctx context.Context, users repository.UserRepository, telegramID int64, roles ...domain.Role) (*domain.Identity, error) {
	user, err := users.GetByTelegramID(ctx, telegramID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	for _, role := range roles {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, ErrUnauthorized
}
