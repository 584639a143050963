package service

import "errors"

// Errors the transport layers map to user-facing replies and HTTP statuses.
var (
	// ErrInvalidInvitation covers unknown and already-consumed tokens.
	ErrInvalidInvitation = errors.New("invitation is invalid or already used")
	ErrInvitationExpired = errors.New("invitation has expired")
	// ErrNotPending is returned when a decision or finalization targets a
	// request that already left the expected state.
	ErrNotPending       = errors.New("request is not pending")
	ErrNotApproved      = errors.New("request is not approved")
	ErrAlreadyMember    = errors.New("identity is already an active member")
	ErrUnauthorized     = errors.New("actor is not authorized for this operation")
	ErrDuplicateLoginID = errors.New("login id is already taken")
	ErrInvalidLoginID   = errors.New("login id must be 3-32 chars of a-z 0-9 _ . -")
	ErrInvalidInput     = errors.New("invalid input")
)
