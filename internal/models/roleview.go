package models

import "time"

// RoleView is the redacted projection of a user record handed to callers.
// It is recomputed on every read and never persisted. Optional fields are
// pointers so redacted values disappear from the JSON payload entirely.
type RoleView struct {
	ID             string         `json:"id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Email          string         `json:"email"`
	PhoneNumber    string         `json:"phone_number"`
	ProfilePicture *string        `json:"profile_picture,omitempty"`
	Role           UserRole       `json:"role"`
	LastLogin      *time.Time     `json:"last_login,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	AccountStatus  *AccountStatus `json:"account_status,omitempty"`
	Verified       *bool          `json:"verified,omitempty"`
	Rating         *float64       `json:"rating,omitempty"`
	TotalTrips     *int           `json:"total_trips,omitempty"`
	ManagedRanks   []RankRef      `json:"managed_ranks,omitempty"`
}
