package domain

import "time"

type JoinRequestStatus string

const (
	JoinRequestStatusPending  JoinRequestStatus = "pending"
	JoinRequestStatusApproved JoinRequestStatus = "approved"
	JoinRequestStatusRejected JoinRequestStatus = "rejected"
)

// Terminal reasons recorded with a rejection. A request rejected because its
// invitation expired carries a distinct reason so the requester can be told
// to ask for a fresh link rather than that a manager turned them down.
const (
	RejectReasonByManager         = "rejected_by_manager"
	RejectReasonInvitationExpired = "invitation_expired"
)

// JoinRequest is one attempt by an identity to redeem an invitation.
// ManagerID and Role are copied from the invitation at open time.
type JoinRequest struct {
	ID           int32             `json:"id"`
	TelegramID   int64             `json:"telegram_id"`
	Username     string            `json:"username,omitempty"`
	ManagerID    int32             `json:"manager_id"`
	Role         Role              `json:"role"`
	InvitationID int32             `json:"invitation_id"`
	Status       JoinRequestStatus `json:"status"`
	Reason       string            `json:"reason,omitempty"`
	CreatedOn    time.Time         `json:"created_on"`
	DecidedOn    *time.Time        `json:"decided_on,omitempty"`
	DecidedBy    *int32            `json:"decided_by,omitempty"`
}
