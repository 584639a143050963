package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
	"staffbot-backend/internal/security"
)

type dashboardAuthService struct {
	users       repository.UserRepository
	credentials repository.CredentialRepository
	tokens      *security.TokenManager
	logger      *slog.Logger
}

func NewDashboardAuthService(users repository.UserRepository, credentials repository.CredentialRepository, tokens *security.TokenManager, logger *slog.Logger) DashboardAuthService {
	return &dashboardAuthService{
		users:       users,
		credentials: credentials,
		tokens:      tokens,
		logger:      logger,
	}
}

func (s *dashboardAuthService) Login(ctx context.Context, login, password string) (string, *domain.Identity, error) {
	cred, err := s.credentials.GetByLogin(ctx, login)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, ErrUnauthorized
	}
	if err != nil {
		return "", nil, err
	}
	if !cred.IsActive {
		return "", nil, ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrUnauthorized
	}

	manager, err := s.users.GetByID(ctx, cred.UserID)
	if err != nil {
		return "", nil, ErrUnauthorized
	}
	if !manager.IsActive {
		return "", nil, ErrUnauthorized
	}
	if manager.Role != domain.RoleManager && manager.Role != domain.RoleAdmin {
		return "", nil, ErrUnauthorized
	}

	token, err := s.tokens.Generate(manager.ID, cred.Login)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("dashboard login", "user_id", manager.ID, "login", cred.Login)
	return token, manager, nil
}
