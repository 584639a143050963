package service

import (
	"context"
	"errors"
	"log/slog"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
)

type staffService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewStaffService(users repository.UserRepository, logger *slog.Logger) StaffService {
	return &staffService{users: users, logger: logger}
}

func (s *staffService) Identity(ctx context.Context, telegramID int64) (*domain.Identity, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *staffService) ListEmployees(ctx context.Context, managerTelegramID int64) ([]*domain.Identity, error) {
	manager, err := requireActiveRole(ctx, s.users, managerTelegramID, domain.RoleManager, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return s.users.ListEmployees(ctx, manager.ID)
}

func (s *staffService) DeactivateEmployee(ctx context.Context, managerTelegramID int64, employeeID int32) (*domain.Identity, error) {
	manager, err := requireActiveRole(ctx, s.users, managerTelegramID, domain.RoleManager, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	employee, err := s.users.GetByID(ctx, employeeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	// Managers can only deactivate their own employees.
	if employee.Role != domain.RoleEmployee {
		return nil, ErrUnauthorized
	}
	if manager.Role == domain.RoleManager &&
		(employee.ManagerID == nil || *employee.ManagerID != manager.ID) {
		return nil, ErrUnauthorized
	}

	if err := s.users.Deactivate(ctx, employee.ID); err != nil {
		return nil, err
	}
	employee.IsActive = false
	s.logger.Info("employee deactivated",
		"employee_id", employee.ID, "by_user_id", manager.ID)
	return employee, nil
}
