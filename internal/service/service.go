// Package service holds the business rules between the transports (bot and
// HTTP API) and the repositories.
package service

import (
	"context"
	"time"

	"staffbot-backend/internal/domain"
)

// Action is one inline button attached to a notification.
type Action struct {
	Label string
	Data  string
}

// Message is a transport-neutral outbound notification.
type Message struct {
	Text    string
	Actions []Action
}

// Notifier delivers messages to a telegram identity. Delivery failures are
// logged by callers and never abort the state change that triggered them.
type Notifier interface {
	Notify(ctx context.Context, telegramID int64, msg Message) error
}

type InvitationService interface {
	// CreateInvitation mints a single-use invitation link. Employee
	// invitations may be created by active managers and admins; manager
	// invitations only by active admins.
	CreateInvitation(ctx context.Context, actorTelegramID int64, role domain.Role) (*domain.Invitation, string, error)
}

type EnrollmentService interface {
	// OpenJoinRequest validates the token and opens a pending request,
	// notifying the scoping manager. An existing pending request for the
	// same identity is returned as-is.
	OpenJoinRequest(ctx context.Context, telegramID int64, username, token string) (*domain.JoinRequest, error)
	// HandleDecision approves or rejects a pending request on behalf of
	// the decider. Exactly one concurrent decision wins; losers get
	// ErrNotPending.
	HandleDecision(ctx context.Context, deciderTelegramID int64, joinRequestID int32, approve bool) (*domain.JoinRequest, error)
	PendingForManager(ctx context.Context, managerTelegramID int64) ([]*PendingRequest, error)
	// ExpireStale force-rejects pending requests whose invitations have
	// expired and notifies the requesters. Returns the number expired.
	ExpireStale(ctx context.Context) (int, error)
}

// ProfileInput carries the collected profile fields into finalization.
type ProfileInput struct {
	JoinRequestID int32
	TelegramID    int64
	Username      string
	FirstName     string
	LastName      string
	Phone         string

	// Manager enrollment only.
	LoginID  string
	Password string
}

type ProfileService interface {
	// StartProfile checks that the identity holds an approved request and
	// returns it, so the transport can begin collecting fields.
	StartProfile(ctx context.Context, telegramID int64, joinRequestID int32) (*domain.JoinRequest, error)
	// Finalize validates the collected fields and commits the enrollment.
	Finalize(ctx context.Context, in ProfileInput) (*domain.Identity, error)
}

// PendingRequest pairs an open join request with its invitation deadline,
// so review surfaces can show how long the decision window stays open.
type PendingRequest struct {
	*domain.JoinRequest
	ExpiresOn time.Time
}

type StaffService interface {
	// Identity returns the member record behind a telegram id, or
	// ErrUnauthorized for unknown identities.
	Identity(ctx context.Context, telegramID int64) (*domain.Identity, error)
	ListEmployees(ctx context.Context, managerTelegramID int64) ([]*domain.Identity, error)
	DeactivateEmployee(ctx context.Context, managerTelegramID int64, employeeID int32) (*domain.Identity, error)
}

// ReportFlightInput is one flight row within a report submission.
type ReportFlightInput struct {
	FlightTimeMin   int32   `json:"flight_time_min"`
	AreaSqKm        float64 `json:"area_sq_km"`
	UAVRoverFile    string  `json:"uav_rover_file"`
	DroneBaseFileNo string  `json:"drone_base_file_no"`
}

// ReportInput is a full report submission or edit.
type ReportInput struct {
	ReportDate  string              `json:"report_date"`
	SiteID      int32               `json:"site_id"`
	DroneID     int32               `json:"drone_id"`
	PilotName   string              `json:"pilot_name"`
	CopilotName string              `json:"copilot_name"`
	BaseHeightM float64             `json:"base_height_m"`
	Remark      string              `json:"remark"`
	Flights     []ReportFlightInput `json:"flights"`
}

type ReportService interface {
	Masters(ctx context.Context) ([]*domain.Site, []*domain.Drone, error)
	// Submit files a report for the employee behind telegramID. One
	// report per employee per date.
	Submit(ctx context.Context, telegramID int64, in ReportInput) (*domain.Report, error)
	GetReport(ctx context.Context, managerUserID, reportID int32) (*domain.Report, []*domain.ReportFlight, error)
	UpdateReport(ctx context.Context, managerUserID, reportID int32, in ReportInput) error
	// Track returns the submission status of every active employee of the
	// manager across the requested dates.
	Track(ctx context.Context, managerUserID int32, dates []string) ([]*TrackRow, error)
}

// TrackRow is one employee line in the manager's submission-track view.
type TrackRow struct {
	Employee *domain.Identity            `json:"employee"`
	Reports  map[string][]*domain.Report `json:"reports"`
}

type DashboardAuthService interface {
	// Login verifies a manager credential and returns a signed session
	// token plus the manager identity.
	Login(ctx context.Context, login, password string) (string, *domain.Identity, error)
}
