// Package repository defines the persistence interfaces the services depend
// on. Implementations live in the postgres subpackage.
package repository

import (
	"context"
	"errors"
	"time"

	"staffbot-backend/internal/domain"
)

// Sentinel errors surfaced by implementations.
var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateLogin maps unique-constraint violations on the manager
	// login column.
	ErrDuplicateLogin = errors.New("login already taken")
	// ErrInvitationConsumed is returned by FinalizeEnrollment when the
	// invitation was already redeemed by a different identity.
	ErrInvitationConsumed = errors.New("invitation already consumed")
	// ErrDuplicateReport maps the one-report-per-employee-per-date
	// constraint.
	ErrDuplicateReport = errors.New("report already submitted for this date")
)

type UserRepository interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.Identity, error)
	GetByID(ctx context.Context, id int32) (*domain.Identity, error)
	ListEmployees(ctx context.Context, managerID int32) ([]*domain.Identity, error)
	ListActiveEmployees(ctx context.Context, managerID int32) ([]*domain.Identity, error)
	ListActiveAdmins(ctx context.Context) ([]*domain.Identity, error)
	Deactivate(ctx context.Context, id int32) error
}

type InvitationRepository interface {
	Create(ctx context.Context, inv *domain.Invitation) (*domain.Invitation, error)
	GetByToken(ctx context.Context, token string) (*domain.Invitation, error)
	GetByID(ctx context.Context, id int32) (*domain.Invitation, error)
}

type JoinRequestRepository interface {
	Create(ctx context.Context, req *domain.JoinRequest) (*domain.JoinRequest, error)
	GetByID(ctx context.Context, id int32) (*domain.JoinRequest, error)
	// FindPending returns the open request for a telegram identity, or
	// ErrNotFound when none exists.
	FindPending(ctx context.Context, telegramID int64) (*domain.JoinRequest, error)
	ListPendingByManager(ctx context.Context, managerID int32) ([]*domain.JoinRequest, error)
	// Decide moves a request out of pending with a single conditional
	// update. It reports false when the request was no longer pending, so
	// exactly one caller observes true for any given request.
	Decide(ctx context.Context, id int32, status domain.JoinRequestStatus, reason string, decidedBy int32, decidedOn time.Time) (bool, error)
	// ExpirePending rejects every pending request whose invitation expired
	// before the cutoff and returns the affected requests.
	ExpirePending(ctx context.Context, cutoff time.Time) ([]*domain.JoinRequest, error)
}

type CredentialRepository interface {
	GetByLogin(ctx context.Context, login string) (*domain.ManagerCredential, error)
	GetByUserID(ctx context.Context, userID int32) (*domain.ManagerCredential, error)
}

// EnrollmentFinalization carries everything FinalizeEnrollment commits in one
// transaction.
type EnrollmentFinalization struct {
	TelegramID int64
	Username   string
	Role       domain.Role
	ManagerID  *int32
	FirstName  string
	LastName   string
	Phone      string

	InvitationID int32

	// Set only for manager enrollment.
	Login        string
	PasswordHash string
}

type EnrollmentRepository interface {
	// FinalizeEnrollment upserts the user row, marks the invitation used
	// and inserts the manager credential when present, all in one
	// transaction. Re-running for the same identity is a no-op returning
	// the existing user.
	FinalizeEnrollment(ctx context.Context, fin *EnrollmentFinalization) (*domain.Identity, error)
}

type ReportRepository interface {
	ListSites(ctx context.Context) ([]*domain.Site, error)
	ListDrones(ctx context.Context) ([]*domain.Drone, error)
	// CreateReport inserts the report and its flights in one transaction.
	CreateReport(ctx context.Context, report *domain.Report, flights []*domain.ReportFlight) (*domain.Report, error)
	GetReport(ctx context.Context, id int32) (*domain.Report, error)
	GetReportFlights(ctx context.Context, reportID int32) ([]*domain.ReportFlight, error)
	UpdateReport(ctx context.Context, report *domain.Report, flights []*domain.ReportFlight) error
	// TrackByDates returns, for each employee of the manager, which of the
	// given dates have a submitted report.
	TrackByDates(ctx context.Context, managerID int32, dates []string) (map[int64][]*domain.Report, error)
}
