package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleRider      UserRole = "RIDER"
	RoleAdmin      UserRole = "ADMIN"
	RoleSuperAdmin UserRole = "SUPERADMIN"
)

// AccountStatus describes the lifecycle state of a user account.
type AccountStatus string

const (
	AccountActive    AccountStatus = "ACTIVE"
	AccountInactive  AccountStatus = "INACTIVE"
	AccountSuspended AccountStatus = "SUSPENDED"
	AccountBlocked   AccountStatus = "BLOCKED"
)

// PaymentMethod enumerates supported rider payment preferences.
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "CASH"
	PaymentCard        PaymentMethod = "CARD"
	PaymentMobileMoney PaymentMethod = "MOBILE_MONEY"
	PaymentWallet      PaymentMethod = "WALLET"
)

// User represents an application user stored in the users table.
type User struct {
	ID             string         `db:"id" json:"id"`
	FirstName      string         `db:"first_name" json:"first_name"`
	LastName       string         `db:"last_name" json:"last_name"`
	Email          string         `db:"email" json:"email"`
	PhoneNumber    string         `db:"phone_number" json:"phone_number"`
	PasswordHash   string         `db:"password_hash" json:"-"`
	ProfilePicture *string        `db:"profile_picture" json:"profile_picture,omitempty"`
	PaymentMethod  *PaymentMethod `db:"preferred_payment_method" json:"preferred_payment_method,omitempty"`
	AccountStatus  AccountStatus  `db:"account_status" json:"account_status"`
	Verified       bool           `db:"verified" json:"verified"`
	Rating         float64        `db:"rating" json:"rating"`
	TotalTrips     int            `db:"total_trips" json:"total_trips"`
	Role           UserRole       `db:"role" json:"role"`
	LastLogin      *time.Time     `db:"last_login" json:"last_login,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Status   *AccountStatus
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
