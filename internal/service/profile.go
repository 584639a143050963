package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
)

var loginIDPattern = regexp.MustCompile(`^[a-z0-9_.-]{3,32}$`)

const (
	maxNameLen  = 100
	maxPhoneLen = 32
	minPassword = 6
)

type profileService struct {
	users       repository.UserRepository
	joinReqs    repository.JoinRequestRepository
	enrollments repository.EnrollmentRepository
	logger      *slog.Logger
}

func NewProfileService(users repository.UserRepository, joinReqs repository.JoinRequestRepository, enrollments repository.EnrollmentRepository, logger *slog.Logger) ProfileService {
	return &profileService{
		users:       users,
		joinReqs:    joinReqs,
		enrollments: enrollments,
		logger:      logger,
	}
}

func (s *profileService) StartProfile(ctx context.Context, telegramID int64, joinRequestID int32) (*domain.JoinRequest, error) {
	jr, err := s.joinReqs.GetByID(ctx, joinRequestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotApproved
	}
	if err != nil {
		return nil, err
	}
	if jr.TelegramID != telegramID {
		return nil, ErrUnauthorized
	}
	if jr.Status != domain.JoinRequestStatusApproved {
		return nil, ErrNotApproved
	}
	return jr, nil
}

func (s *profileService) Finalize(ctx context.Context, in ProfileInput) (*domain.Identity, error) {
	jr, err := s.StartProfile(ctx, in.TelegramID, in.JoinRequestID)
	if err != nil {
		return nil, err
	}

	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	if firstName == "" || len(firstName) > maxNameLen || len(lastName) > maxNameLen {
		return nil, ErrInvalidInput
	}
	phone := NormalizePhone(in.Phone)
	if phone == "" {
		return nil, ErrInvalidInput
	}

	// The invitation issuer becomes the supervisor for both roles: the
	// scoping manager for employees, the granting admin for managers.
	managerID := jr.ManagerID
	fin := &repository.EnrollmentFinalization{
		TelegramID:   jr.TelegramID,
		Username:     in.Username,
		Role:         jr.Role,
		ManagerID:    &managerID,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        phone,
		InvitationID: jr.InvitationID,
	}

	if jr.Role == domain.RoleManager {
		login := strings.ToLower(strings.TrimSpace(in.LoginID))
		if !loginIDPattern.MatchString(login) {
			return nil, ErrInvalidLoginID
		}
		if len(in.Password) < minPassword {
			return nil, ErrInvalidInput
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		fin.Login = login
		fin.PasswordHash = string(hash)
	}

	user, err := s.enrollments.FinalizeEnrollment(ctx, fin)
	if errors.Is(err, repository.ErrDuplicateLogin) {
		return nil, ErrDuplicateLoginID
	}
	if errors.Is(err, repository.ErrInvitationConsumed) {
		return nil, ErrInvalidInvitation
	}
	if err != nil {
		return nil, fmt.Errorf("failed to finalize enrollment: %w", err)
	}

	s.logger.Info("enrollment finalized",
		"user_id", user.ID,
		"telegram_id", user.TelegramID,
		"role", user.Role)
	return user, nil
}

// NormalizePhone keeps one leading plus and the digits, dropping separators.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	phone := b.String()
	if phone == "" || phone == "+" || len(phone) > maxPhoneLen {
		return ""
	}
	return phone
}
