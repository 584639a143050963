package domain

import "time"

type InvitationStatus string

const (
	InvitationStatusPending InvitationStatus = "pending"
	InvitationStatusUsed    InvitationStatus = "used"
)

// Invitation is a single-use capability token scoping a role grant.
// Status only moves on redemption; expiry is always computed live from
// ExpiresOn, never trusted from a stored flag.
type Invitation struct {
	ID               int32            `json:"id"`
	Token            string           `json:"token"`
	ManagerID        int32            `json:"manager_id"`
	Role             Role             `json:"role"`
	Status           InvitationStatus `json:"status"`
	ExpiresOn        time.Time        `json:"expires_on"`
	UsedOn           *time.Time       `json:"used_on,omitempty"`
	RedeemedByUserID *int32           `json:"redeemed_by_user_id,omitempty"`
	CreatedOn        time.Time        `json:"created_on"`
}

func (inv *Invitation) Expired(now time.Time) bool {
	return now.After(inv.ExpiresOn)
}
