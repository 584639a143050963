package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.Identity, error) {
	args := m.Called(ctx, telegramID)
	if u := args.Get(0); u != nil {
		return u.(*domain.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int32) (*domain.Identity, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*domain.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) ListEmployees(ctx context.Context, managerID int32) ([]*domain.Identity, error) {
	args := m.Called(ctx, managerID)
	if u := args.Get(0); u != nil {
		return u.([]*domain.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) ListActiveEmployees(ctx context.Context, managerID int32) ([]*domain.Identity, error) {
	args := m.Called(ctx, managerID)
	if u := args.Get(0); u != nil {
		return u.([]*domain.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) ListActiveAdmins(ctx context.Context) ([]*domain.Identity, error) {
	args := m.Called(ctx)
	if u := args.Get(0); u != nil {
		return u.([]*domain.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id int32) error {
	return m.Called(ctx, id).Error(0)
}

type mockInvitationRepo struct {
	mock.Mock
}

func (m *mockInvitationRepo) Create(ctx context.Context, inv *domain.Invitation) (*domain.Invitation, error) {
	args := m.Called(ctx, inv)
	if v := args.Get(0); v != nil {
		return v.(*domain.Invitation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInvitationRepo) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	args := m.Called(ctx, token)
	if v := args.Get(0); v != nil {
		return v.(*domain.Invitation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInvitationRepo) GetByID(ctx context.Context, id int32) (*domain.Invitation, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*domain.Invitation), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockJoinRequestRepo struct {
	mock.Mock
}

func (m *mockJoinRequestRepo) Create(ctx context.Context, req *domain.JoinRequest) (*domain.JoinRequest, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*domain.JoinRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockJoinRequestRepo) GetByID(ctx context.Context, id int32) (*domain.JoinRequest, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*domain.JoinRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockJoinRequestRepo) FindPending(ctx context.Context, telegramID int64) (*domain.JoinRequest, error) {
	args := m.Called(ctx, telegramID)
	if v := args.Get(0); v != nil {
		return v.(*domain.JoinRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockJoinRequestRepo) ListPendingByManager(ctx context.Context, managerID int32) ([]*domain.JoinRequest, error) {
	args := m.Called(ctx, managerID)
	if v := args.Get(0); v != nil {
		return v.([]*domain.JoinRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockJoinRequestRepo) Decide(ctx context.Context, id int32, status domain.JoinRequestStatus, reason string, decidedBy int32, decidedOn time.Time) (bool, error) {
	args := m.Called(ctx, id, status, reason, decidedBy, decidedOn)
	return args.Bool(0), args.Error(1)
}

func (m *mockJoinRequestRepo) ExpirePending(ctx context.Context, cutoff time.Time) ([]*domain.JoinRequest, error) {
	args := m.Called(ctx, cutoff)
	if v := args.Get(0); v != nil {
		return v.([]*domain.JoinRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCredentialRepo struct {
	mock.Mock
}

func (m *mockCredentialRepo) GetByLogin(ctx context.Context, login string) (*domain.ManagerCredential, error) {
	args := m.Called(ctx, login)
	if v := args.Get(0); v != nil {
		return v.(*domain.ManagerCredential), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCredentialRepo) GetByUserID(ctx context.Context, userID int32) (*domain.ManagerCredential, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.(*domain.ManagerCredential), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockEnrollmentRepo struct {
	mock.Mock
}

func (m *mockEnrollmentRepo) FinalizeEnrollment(ctx context.Context, fin *repository.EnrollmentFinalization) (*domain.Identity, error) {
	args := m.Called(ctx, fin)
	if v := args.Get(0); v != nil {
		return v.(*domain.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockReportRepo struct {
	mock.Mock
}

func (m *mockReportRepo) ListSites(ctx context.Context) ([]*domain.Site, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*domain.Site), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportRepo) ListDrones(ctx context.Context) ([]*domain.Drone, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*domain.Drone), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportRepo) CreateReport(ctx context.Context, report *domain.Report, flights []*domain.ReportFlight) (*domain.Report, error) {
	args := m.Called(ctx, report, flights)
	if v := args.Get(0); v != nil {
		return v.(*domain.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportRepo) GetReport(ctx context.Context, id int32) (*domain.Report, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*domain.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportRepo) GetReportFlights(ctx context.Context, reportID int32) ([]*domain.ReportFlight, error) {
	args := m.Called(ctx, reportID)
	if v := args.Get(0); v != nil {
		return v.([]*domain.ReportFlight), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportRepo) UpdateReport(ctx context.Context, report *domain.Report, flights []*domain.ReportFlight) error {
	return m.Called(ctx, report, flights).Error(0)
}

func (m *mockReportRepo) TrackByDates(ctx context.Context, managerID int32, dates []string) (map[int64][]*domain.Report, error) {
	args := m.Called(ctx, managerID, dates)
	if v := args.Get(0); v != nil {
		return v.(map[int64][]*domain.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, telegramID int64, msg Message) error {
	return m.Called(ctx, telegramID, msg).Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
