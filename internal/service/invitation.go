package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
)

type invitationService struct {
	users       repository.UserRepository
	invitations repository.InvitationRepository
	botUsername string
	validDays   int
	logger      *slog.Logger
}

func NewInvitationService(users repository.UserRepository, invitations repository.InvitationRepository, botUsername string, validDays int, logger *slog.Logger) InvitationService {
	return &invitationService{
		users:       users,
		invitations: invitations,
		botUsername: botUsername,
		validDays:   validDays,
		logger:      logger,
	}
}

func (s *invitationService) CreateInvitation(ctx context.Context, actorTelegramID int64, role domain.Role) (*domain.Invitation, string, error) {
	if role != domain.RoleEmployee && role != domain.RoleManager {
		return nil, "", ErrInvalidInput
	}

	allowed := []domain.Role{domain.RoleAdmin}
	if role == domain.RoleEmployee {
		allowed = append(allowed, domain.RoleManager)
	}
	actor, err := requireActiveRole(ctx, s.users, actorTelegramID, allowed...)
	if err != nil {
		return nil, "", err
	}

	inv := &domain.Invitation{
		Token:     uuid.NewString(),
		ManagerID: actor.ID,
		Role:      role,
		ExpiresOn: time.Now().AddDate(0, 0, s.validDays),
	}
	created, err := s.invitations.Create(ctx, inv)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create invitation: %w", err)
	}

	link := fmt.Sprintf("https://t.me/%s?start=%s", s.botUsername, created.Token)
	s.logger.Info("invitation created",
		"invitation_id", created.ID,
		"role", created.Role,
		"manager_id", created.ManagerID)
	return created, link, nil
}
