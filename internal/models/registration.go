package models

import "time"

// RequestStatus captures workflow states for onboarding requests.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestApproved  RequestStatus = "APPROVED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCancelled RequestStatus = "CANCELLED"
)

// RegistrationRequest stores a self-service application to become a rank
// admin, together with the initial rank selection. The password is encoded
// at submission time, so approval never sees the plaintext secret.
type RegistrationRequest struct {
	ID            string         `db:"id" json:"id"`
	FirstName     string         `db:"first_name" json:"first_name"`
	LastName      string         `db:"last_name" json:"last_name"`
	Email         string         `db:"email" json:"email"`
	PhoneNumber   string         `db:"phone_number" json:"phone_number"`
	PasswordHash  string         `db:"password_hash" json:"-"`
	PaymentMethod *PaymentMethod `db:"preferred_payment_method" json:"preferred_payment_method,omitempty"`
	Designation   *string        `db:"designation" json:"designation,omitempty"`
	Justification *string        `db:"justification" json:"justification,omitempty"`
	Experience    *string        `db:"professional_experience" json:"professional_experience,omitempty"`
	AdminNotes    *string        `db:"admin_notes" json:"admin_notes,omitempty"`
	Status        RequestStatus  `db:"status" json:"status"`
	ReviewNotes   *string        `db:"review_notes" json:"review_notes,omitempty"`
	ReviewedBy    *string        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`

	// SelectedRanks is loaded from the registration_request_ranks join table.
	SelectedRanks []RankRef `db:"-" json:"selected_ranks"`
}

// AssignmentRequest is an existing admin's application for one additional
// rank binding, reviewed by a super admin.
type AssignmentRequest struct {
	ID              string        `db:"id" json:"id"`
	RequestingAdmin string        `db:"requesting_admin_id" json:"requesting_admin_id"`
	RankID          string        `db:"rank_id" json:"rank_id"`
	Status          RequestStatus `db:"status" json:"status"`
	RequestReason   *string       `db:"request_reason" json:"request_reason,omitempty"`
	ResponseMessage *string       `db:"response_message" json:"response_message,omitempty"`
	ReviewedBy      *string       `db:"reviewed_by" json:"reviewed_by,omitempty"`
	RequestedAt     time.Time     `db:"requested_at" json:"requested_at"`
	RespondedAt     *time.Time    `db:"responded_at" json:"responded_at,omitempty"`
}

// AssignmentRequestFilter constrains assignment request listings.
type AssignmentRequestFilter struct {
	Status          []RequestStatus
	RequestingAdmin string
	RankID          string
	Limit           int
	Offset          int
}
