package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
)

func newEnrollmentFixture() (*mockUserRepo, *mockInvitationRepo, *mockJoinRequestRepo, *mockNotifier, EnrollmentService) {
	users := new(mockUserRepo)
	invitations := new(mockInvitationRepo)
	joinReqs := new(mockJoinRequestRepo)
	notifier := new(mockNotifier)
	svc := NewEnrollmentService(users, invitations, joinReqs, notifier, testLogger())
	return users, invitations, joinReqs, notifier, svc
}

func pendingInvitation(id, managerID int32, role domain.Role, expiresIn time.Duration) *domain.Invitation {
	return &domain.Invitation{
		ID:        id,
		Token:     "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee",
		ManagerID: managerID,
		Role:      role,
		Status:    domain.InvitationStatusPending,
		ExpiresOn: time.Now().Add(expiresIn),
	}
}

func TestOpenJoinRequest_HappyPath(t *testing.T) {
	users, invitations, joinReqs, notifier, svc := newEnrollmentFixture()

	users.On("GetByTelegramID", mock.Anything, int64(500)).Return(nil, repository.ErrNotFound)
	joinReqs.On("FindPending", mock.Anything, int64(500)).Return(nil, repository.ErrNotFound)

	inv := pendingInvitation(10, 7, domain.RoleEmployee, time.Hour)
	invitations.On("GetByToken", mock.Anything, inv.Token).Return(inv, nil)

	joinReqs.On("Create", mock.Anything, mock.MatchedBy(func(jr *domain.JoinRequest) bool {
		return jr.TelegramID == 500 && jr.ManagerID == 7 &&
			jr.Role == domain.RoleEmployee && jr.InvitationID == 10
	})).Return(&domain.JoinRequest{
		ID: 1, TelegramID: 500, ManagerID: 7, Role: domain.RoleEmployee,
		InvitationID: 10, Status: domain.JoinRequestStatusPending,
	}, nil)

	manager := activeUser(7, 700, domain.RoleManager)
	users.On("GetByID", mock.Anything, int32(7)).Return(manager, nil)
	notifier.On("Notify", mock.Anything, int64(700), mock.MatchedBy(func(msg Message) bool {
		return len(msg.Actions) == 2
	})).Return(nil)

	jr, err := svc.OpenJoinRequest(context.Background(), 500, "newbie", inv.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestStatusPending, jr.Status)
	notifier.AssertExpectations(t)
}

func TestOpenJoinRequest_RepresentsExistingPending(t *testing.T) {
	users, invitations, joinReqs, notifier, svc := newEnrollmentFixture()

	users.On("GetByTelegramID", mock.Anything, int64(500)).Return(nil, repository.ErrNotFound)
	inv := pendingInvitation(10, 7, domain.RoleEmployee, time.Hour)
	invitations.On("GetByToken", mock.Anything, inv.Token).Return(inv, nil)
	existing := &domain.JoinRequest{ID: 9, TelegramID: 500, Status: domain.JoinRequestStatusPending}
	joinReqs.On("FindPending", mock.Anything, int64(500)).Return(existing, nil)

	jr, err := svc.OpenJoinRequest(context.Background(), 500, "newbie", inv.Token)
	require.NoError(t, err)
	assert.Equal(t, int32(9), jr.ID)
	joinReqs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestOpenJoinRequest_DeadTokenReportedDespitePending(t *testing.T) {
	users, invitations, joinReqs, _, svc := newEnrollmentFixture()

	users.On("GetByTelegramID", mock.Anything, int64(500)).Return(nil, repository.ErrNotFound)

	used := pendingInvitation(11, 7, domain.RoleEmployee, time.Hour)
	used.Token = "bbbbbbbb-cccc-4ddd-8eee-ffffffffffff"
	used.Status = domain.InvitationStatusUsed
	invitations.On("GetByToken", mock.Anything, used.Token).Return(used, nil)

	expired := pendingInvitation(12, 7, domain.RoleEmployee, -time.Hour)
	expired.Token = "cccccccc-dddd-4eee-8fff-000000000000"
	invitations.On("GetByToken", mock.Anything, expired.Token).Return(expired, nil)

	// The open request must not mask the token's own verdict.
	_, err := svc.OpenJoinRequest(context.Background(), 500, "x", used.Token)
	assert.ErrorIs(t, err, ErrInvalidInvitation)

	_, err = svc.OpenJoinRequest(context.Background(), 500, "x", expired.Token)
	assert.ErrorIs(t, err, ErrInvitationExpired)

	joinReqs.AssertNotCalled(t, "FindPending", mock.Anything, mock.Anything)
}

func TestOpenJoinRequest_ActiveMemberRejected(t *testing.T) {
	users, _, _, _, svc := newEnrollmentFixture()

	users.On("GetByTelegramID", mock.Anything, int64(500)).
		Return(activeUser(3, 500, domain.RoleEmployee), nil)

	_, err := svc.OpenJoinRequest(context.Background(), 500, "x", "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee")
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestOpenJoinRequest_UsedTokenRejected(t *testing.T) {
	users, invitations, joinReqs, _, svc := newEnrollmentFixture()

	users.On("GetByTelegramID", mock.Anything, int64(500)).Return(nil, repository.ErrNotFound)
	joinReqs.On("FindPending", mock.Anything, int64(500)).Return(nil, repository.ErrNotFound)

	inv := pendingInvitation(10, 7, domain.RoleEmployee, time.Hour)
	inv.Status = domain.InvitationStatusUsed
	invitations.On("GetByToken", mock.Anything, inv.Token).Return(inv, nil)

	_, err := svc.OpenJoinRequest(context.Background(), 500, "x", inv.Token)
	assert.ErrorIs(t, err, ErrInvalidInvitation)
}

func TestOpenJoinRequest_ExpiredTokenRejected(t *testing.T) {
	users, invitations, joinReqs, _, svc := newEnrollmentFixture()

	users.On("GetByTelegramID", mock.Anything, int64(500)).Return(nil, repository.ErrNotFound)
	joinReqs.On("FindPending", mock.Anything, int64(500)).Return(nil, repository.ErrNotFound)

	inv := pendingInvitation(10, 7, domain.RoleEmployee, -time.Hour)
	invitations.On("GetByToken", mock.Anything, inv.Token).Return(inv, nil)

	_, err := svc.OpenJoinRequest(context.Background(), 500, "x", inv.Token)
	assert.ErrorIs(t, err, ErrInvitationExpired)
}

func TestOpenJoinRequest_NotificationFailureDoesNotAbort(t *testing.T) {
	users, invitations, joinReqs, notifier, svc := newEnrollmentFixture()

	users.On("GetByTelegramID", mock.Anything, int64(500)).Return(nil, repository.ErrNotFound)
	joinReqs.On("FindPending", mock.Anything, int64(500)).Return(nil, repository.ErrNotFound)

	inv := pendingInvitation(10, 7, domain.RoleEmployee, time.Hour)
	invitations.On("GetByToken", mock.Anything, inv.Token).Return(inv, nil)
	joinReqs.On("Create", mock.Anything, mock.Anything).Return(&domain.JoinRequest{
		ID: 1, TelegramID: 500, ManagerID: 7, Role: domain.RoleEmployee,
		InvitationID: 10, Status: domain.JoinRequestStatusPending,
	}, nil)
	users.On("GetByID", mock.Anything, int32(7)).Return(activeUser(7, 700, domain.RoleManager), nil)
	notifier.On("Notify", mock.Anything, int64(700), mock.Anything).Return(errors.New("chat blocked"))

	jr, err := svc.OpenJoinRequest(context.Background(), 500, "x", inv.Token)
	require.NoError(t, err)
	assert.Equal(t, int32(1), jr.ID)
}

func TestHandleDecision_ApproveNotifiesRequester(t *testing.T) {
	users, invitations, joinReqs, notifier, svc := newEnrollmentFixture()

	decider := activeUser(7, 700, domain.RoleManager)
	users.On("GetByTelegramID", mock.Anything, int64(700)).Return(decider, nil)

	jr := &domain.JoinRequest{
		ID: 1, TelegramID: 500, ManagerID: 7, Role: domain.RoleEmployee,
		InvitationID: 10, Status: domain.JoinRequestStatusPending,
	}
	joinReqs.On("GetByID", mock.Anything, int32(1)).Return(jr, nil)
	invitations.On("GetByID", mock.Anything, int32(10)).
		Return(pendingInvitation(10, 7, domain.RoleEmployee, time.Hour), nil)
	joinReqs.On("Decide", mock.Anything, int32(1), domain.JoinRequestStatusApproved, "", int32(7), mock.Anything).
		Return(true, nil)
	notifier.On("Notify", mock.Anything, int64(500), mock.MatchedBy(func(msg Message) bool {
		return len(msg.Actions) == 1
	})).Return(nil)

	decided, err := svc.HandleDecision(context.Background(), 700, 1, true)
	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestStatusApproved, decided.Status)
	notifier.AssertExpectations(t)
}

func TestHandleDecision_LoserGetsNotPending(t *testing.T) {
	users, invitations, joinReqs, _, svc := newEnrollmentFixture()

	users.On("GetByTelegramID", mock.Anything, int64(700)).Return(activeUser(7, 700, domain.RoleManager), nil)
	jr := &domain.JoinRequest{
		ID: 1, TelegramID: 500, ManagerID: 7, Role: domain.RoleEmployee,
		InvitationID: 10, Status: domain.JoinRequestStatusPending,
	}
	joinReqs.On("GetByID", mock.Anything, int32(1)).Return(jr, nil)
	invitations.On("GetByID", mock.Anything, int32(10)).
		Return(pendingInvitation(10, 7, domain.RoleEmployee, time.Hour), nil)
	// Another decider won between the read and the update.
	joinReqs.On("Decide", mock.Anything, int32(1), domain.JoinRequestStatusApproved, "", int32(7), mock.Anything).
		Return(false, nil)

	_, err := svc.HandleDecision(context.Background(), 700, 1, true)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestHandleDecision_AlreadyDecided(t *testing.T) {
	users, _, joinReqs, _, svc := newEnrollmentFixture()

	users.On("GetByTelegramID", mock.Anything, int64(700)).Return(activeUser(7, 700, domain.RoleManager), nil)
	joinReqs.On("GetByID", mock.Anything, int32(1)).Return(&domain.JoinRequest{
		ID: 1, ManagerID: 7, Status: domain.JoinRequestStatusApproved,
	}, nil)

	_, err := svc.HandleDecision(context.Background(), 700, 1, true)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestHandleDecision_ExpiredInvitationForcesReject(t *testing.T) {
	users, invitations, joinReqs, notifier, svc := newEnrollmentFixture()

	users.On("GetByTelegramID", mock.Anything, int64(700)).Return(activeUser(7, 700, domain.RoleManager), nil)
	jr := &domain.JoinRequest{
		ID: 1, TelegramID: 500, ManagerID: 7, Role: domain.RoleEmployee,
		InvitationID: 10, Status: domain.JoinRequestStatusPending,
	}
	joinReqs.On("GetByID", mock.Anything, int32(1)).Return(jr, nil)
	invitations.On("GetByID", mock.Anything, int32(10)).
		Return(pendingInvitation(10, 7, domain.RoleEmployee, -time.Hour), nil)
	joinReqs.On("Decide", mock.Anything, int32(1), domain.JoinRequestStatusRejected,
		domain.RejectReasonInvitationExpired, int32(7), mock.Anything).Return(true, nil)
	notifier.On("Notify", mock.Anything, int64(500), mock.Anything).Return(nil)

	_, err := svc.HandleDecision(context.Background(), 700, 1, true)
	assert.ErrorIs(t, err, ErrInvitationExpired)
	joinReqs.AssertExpectations(t)
}

func TestHandleDecision_ExpiredInvitationOverridesReject(t *testing.T) {
	users, invitations, joinReqs, notifier, svc := newEnrollmentFixture()

	users.On("GetByTelegramID", mock.Anything, int64(700)).Return(activeUser(7, 700, domain.RoleManager), nil)
	jr := &domain.JoinRequest{
		ID: 1, TelegramID: 500, ManagerID: 7, Role: domain.RoleEmployee,
		InvitationID: 10, Status: domain.JoinRequestStatusPending,
	}
	joinReqs.On("GetByID", mock.Anything, int32(1)).Return(jr, nil)
	invitations.On("GetByID", mock.Anything, int32(10)).
		Return(pendingInvitation(10, 7, domain.RoleEmployee, -time.Hour), nil)
	// An explicit reject still records the expiry reason, not a manager
	// rejection.
	joinReqs.On("Decide", mock.Anything, int32(1), domain.JoinRequestStatusRejected,
		domain.RejectReasonInvitationExpired, int32(7), mock.Anything).Return(true, nil)
	notifier.On("Notify", mock.Anything, int64(500), mock.Anything).Return(nil)

	_, err := svc.HandleDecision(context.Background(), 700, 1, false)
	assert.ErrorIs(t, err, ErrInvitationExpired)
	joinReqs.AssertExpectations(t)
}

func TestHandleDecision_ForeignManagerForbidden(t *testing.T) {
	users, _, joinReqs, _, svc := newEnrollmentFixture()

	users.On("GetByTelegramID", mock.Anything, int64(800)).Return(activeUser(8, 800, domain.RoleManager), nil)
	joinReqs.On("GetByID", mock.Anything, int32(1)).Return(&domain.JoinRequest{
		ID: 1, ManagerID: 7, Status: domain.JoinRequestStatusPending,
	}, nil)

	_, err := svc.HandleDecision(context.Background(), 800, 1, true)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHandleDecision_AdminMayDecideAnyRequest(t *testing.T) {
	users, invitations, joinReqs, notifier, svc := newEnrollmentFixture()

	users.On("GetByTelegramID", mock.Anything, int64(1)).Return(activeUser(1, 1, domain.RoleAdmin), nil)
	jr := &domain.JoinRequest{
		ID: 2, TelegramID: 500, ManagerID: 7, Role: domain.RoleEmployee,
		InvitationID: 10, Status: domain.JoinRequestStatusPending,
	}
	joinReqs.On("GetByID", mock.Anything, int32(2)).Return(jr, nil)
	invitations.On("GetByID", mock.Anything, int32(10)).
		Return(pendingInvitation(10, 7, domain.RoleEmployee, time.Hour), nil)
	joinReqs.On("Decide", mock.Anything, int32(2), domain.JoinRequestStatusRejected,
		domain.RejectReasonByManager, int32(1), mock.Anything).Return(true, nil)
	notifier.On("Notify", mock.Anything, int64(500), mock.Anything).Return(nil)

	decided, err := svc.HandleDecision(context.Background(), 1, 2, false)
	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestStatusRejected, decided.Status)
}

func TestPendingForManager_CarriesInvitationDeadline(t *testing.T) {
	users, invitations, joinReqs, _, svc := newEnrollmentFixture()

	users.On("GetByTelegramID", mock.Anything, int64(700)).Return(activeUser(7, 700, domain.RoleManager), nil)
	joinReqs.On("ListPendingByManager", mock.Anything, int32(7)).Return([]*domain.JoinRequest{
		{ID: 1, TelegramID: 500, ManagerID: 7, InvitationID: 10, Status: domain.JoinRequestStatusPending},
		{ID: 2, TelegramID: 600, ManagerID: 7, InvitationID: 11, Status: domain.JoinRequestStatusPending},
	}, nil)
	deadline := time.Now().Add(5 * time.Hour)
	inv := pendingInvitation(10, 7, domain.RoleEmployee, 5*time.Hour)
	inv.ExpiresOn = deadline
	invitations.On("GetByID", mock.Anything, int32(10)).Return(inv, nil)
	invitations.On("GetByID", mock.Anything, int32(11)).Return(nil, repository.ErrNotFound)

	pending, err := svc.PendingForManager(context.Background(), 700)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, deadline, pending[0].ExpiresOn)
	// A broken invitation link must not hide the request itself.
	assert.True(t, pending[1].ExpiresOn.IsZero())
}

func TestExpireStale_NotifiesEachRequester(t *testing.T) {
	_, _, joinReqs, notifier, svc := newEnrollmentFixture()

	expired := []*domain.JoinRequest{
		{ID: 1, TelegramID: 500},
		{ID: 2, TelegramID: 600},
	}
	joinReqs.On("ExpirePending", mock.Anything, mock.Anything).Return(expired, nil)
	notifier.On("Notify", mock.Anything, int64(500), mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything, int64(600), mock.Anything).Return(errors.New("blocked"))

	count, err := svc.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	notifier.AssertExpectations(t)
}
