package models

import "time"

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
)

// ReferralInvite is an outstanding invitation into the referral network.
type ReferralInvite struct {
	ID         int          `json:"id"`
	ReferrerID int          `json:"referrer_id"`
	Email      string       `json:"email"`
	FirstName  string       `json:"first_name"`
	Role       string       `json:"role"`
	Token      string       `json:"token"`
	Status     InviteStatus `json:"status"`

	LastReminderSent *time.Time `json:"last_reminder_sent,omitempty"`
	AcceptedUserID   *int       `json:"accepted_user_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
