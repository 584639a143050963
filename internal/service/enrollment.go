package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
)

type enrollmentService struct {
	users       repository.UserRepository
	invitations repository.InvitationRepository
	joinReqs    repository.JoinRequestRepository
	notifier    Notifier
	logger      *slog.Logger
}

func NewEnrollmentService(users repository.UserRepository, invitations repository.InvitationRepository, joinReqs repository.JoinRequestRepository, notifier Notifier, logger *slog.Logger) EnrollmentService {
	return &enrollmentService{
		users:       users,
		invitations: invitations,
		joinReqs:    joinReqs,
		notifier:    notifier,
		logger:      logger,
	}
}

func (s *enrollmentService) OpenJoinRequest(ctx context.Context, telegramID int64, username, token string) (*domain.JoinRequest, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if user != nil && user.IsActive {
		return nil, ErrAlreadyMember
	}

	// The token is resolved and validated first, so a dead link is
	// reported as such even to someone who already has an open request.
	inv, err := s.invitations.GetByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidInvitation
	}
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.InvitationStatusPending {
		return nil, ErrInvalidInvitation
	}
	if inv.Expired(time.Now()) {
		return nil, ErrInvitationExpired
	}

	// An open request is re-presented rather than duplicated, so a user
	// tapping a live link twice does not spam the manager.
	if existing, err := s.joinReqs.FindPending(ctx, telegramID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	created, err := s.joinReqs.Create(ctx, &domain.JoinRequest{
		TelegramID:   telegramID,
		Username:     username,
		ManagerID:    inv.ManagerID,
		Role:         inv.Role,
		InvitationID: inv.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open join request: %w", err)
	}

	s.notifyDecider(ctx, created)
	s.logger.Info("join request opened",
		"join_request_id", created.ID,
		"telegram_id", created.TelegramID,
		"role", created.Role)
	return created, nil
}

func (s *enrollmentService) notifyDecider(ctx context.Context, jr *domain.JoinRequest) {
	name := jr.Username
	if name == "" {
		name = fmt.Sprintf("id %d", jr.TelegramID)
	}
	msg := Message{
		Text: fmt.Sprintf("New %s join request from @%s. Approve?", jr.Role, name),
		Actions: []Action{
			{Label: "Approve", Data: fmt.Sprintf("jr:approve:%d", jr.ID)},
			{Label: "Reject", Data: fmt.Sprintf("jr:reject:%d", jr.ID)},
		},
	}

	recipients := make(map[int64]bool)
	if manager, err := s.users.GetByID(ctx, jr.ManagerID); err == nil {
		recipients[manager.TelegramID] = true
	} else {
		s.logger.Warn("cannot notify scoping manager",
			"join_request_id", jr.ID, "error", err)
	}
	// Manager enrollment is decided by admins, so fan out to all of them.
	if jr.Role == domain.RoleManager {
		admins, err := s.users.ListActiveAdmins(ctx)
		if err != nil {
			s.logger.Warn("cannot list admins for notification",
				"join_request_id", jr.ID, "error", err)
		}
		for _, admin := range admins {
			recipients[admin.TelegramID] = true
		}
	}

	for telegramID := range recipients {
		if err := s.notifier.Notify(ctx, telegramID, msg); err != nil {
			s.logger.Warn("failed to notify decider",
				"join_request_id", jr.ID, "telegram_id", telegramID, "error", err)
		}
	}
}

func (s *enrollmentService) HandleDecision(ctx context.Context, deciderTelegramID int64, joinRequestID int32, approve bool) (*domain.JoinRequest, error) {
	decider, err := requireActiveRole(ctx, s.users, deciderTelegramID, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return nil, err
	}

	jr, err := s.joinReqs.GetByID(ctx, joinRequestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, err
	}
	// Managers decide only their own requests; admins decide any.
	if decider.Role == domain.RoleManager && decider.ID != jr.ManagerID {
		return nil, ErrUnauthorized
	}
	if jr.Status != domain.JoinRequestStatusPending {
		return nil, ErrNotPending
	}

	inv, err := s.invitations.GetByID(ctx, jr.InvitationID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	// An expired invitation overrides either decision: the request is
	// closed with the expiry reason, not a manager rejection, so the
	// requester is told to ask for a fresh link.
	if inv.Expired(now) {
		won, err := s.joinReqs.Decide(ctx, jr.ID, domain.JoinRequestStatusRejected,
			domain.RejectReasonInvitationExpired, decider.ID, now)
		if err != nil {
			return nil, err
		}
		if won {
			s.notifyRequester(ctx, jr.TelegramID,
				"Your invitation expired before it was approved. Ask for a new link.")
		}
		return nil, ErrInvitationExpired
	}

	status := domain.JoinRequestStatusRejected
	reason := domain.RejectReasonByManager
	if approve {
		status = domain.JoinRequestStatusApproved
		reason = ""
	}
	won, err := s.joinReqs.Decide(ctx, jr.ID, status, reason, decider.ID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrNotPending
	}

	jr.Status = status
	jr.Reason = reason
	jr.DecidedOn = &now
	deciderID := decider.ID
	jr.DecidedBy = &deciderID

	if approve {
		msg := Message{
			Text: "Your join request was approved. Tap below to complete your profile.",
			Actions: []Action{
				{Label: "Complete profile", Data: fmt.Sprintf("prof:start:%d", jr.ID)},
			},
		}
		if err := s.notifier.Notify(ctx, jr.TelegramID, msg); err != nil {
			s.logger.Warn("failed to notify requester of approval",
				"join_request_id", jr.ID, "error", err)
		}
	} else {
		s.notifyRequester(ctx, jr.TelegramID, "Your join request was rejected.")
	}

	s.logger.Info("join request decided",
		"join_request_id", jr.ID,
		"status", jr.Status,
		"decided_by", decider.ID)
	return jr, nil
}

func (s *enrollmentService) notifyRequester(ctx context.Context, telegramID int64, text string) {
	if err := s.notifier.Notify(ctx, telegramID, Message{Text: text}); err != nil {
		s.logger.Warn("failed to notify requester", "telegram_id", telegramID, "error", err)
	}
}

func (s *enrollmentService) PendingForManager(ctx context.Context, managerTelegramID int64) ([]*PendingRequest, error) {
	manager, err := requireActiveRole(ctx, s.users, managerTelegramID, domain.RoleManager, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	reqs, err := s.joinReqs.ListPendingByManager(ctx, manager.ID)
	if err != nil {
		return nil, err
	}

	pending := make([]*PendingRequest, 0, len(reqs))
	for _, jr := range reqs {
		pr := &PendingRequest{JoinRequest: jr}
		inv, err := s.invitations.GetByID(ctx, jr.InvitationID)
		if err != nil {
			s.logger.Warn("cannot resolve invitation deadline",
				"join_request_id", jr.ID, "error", err)
		} else {
			pr.ExpiresOn = inv.ExpiresOn
		}
		pending = append(pending, pr)
	}
	return pending, nil
}

func (s *enrollmentService) ExpireStale(ctx context.Context) (int, error) {
	expired, err := s.joinReqs.ExpirePending(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	for _, jr := range expired {
		s.notifyRequester(ctx, jr.TelegramID,
			"Your invitation expired before a decision was made. Ask for a new link.")
	}
	return len(expired), nil
}
