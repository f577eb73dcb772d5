package models

import "time"

type User struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	Onboarded    bool   `json:"onboarded"`

	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Location string `json:"location,omitempty"`

	ReferredBy *int `json:"referred_by,omitempty"`

	Reputation       int   `json:"reputation"`
	TotalDeals       int   `json:"total_deals"`
	AvailableTokens  int64 `json:"available_tokens"`
	LockedTokens     int64 `json:"locked_tokens"`
	SuccessfulStakes int   `json:"successful_stakes"`
	FailedStakes     int   `json:"failed_stakes"`

	TotalEarnings float64 `json:"total_earnings"`

	// Telegram chat for best-effort notifications; zero means not linked.
	TelegramChatID int64 `json:"-"`

	// refresh token storage, opaque string in the DB
	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`
	RefreshRevoked   bool       `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
