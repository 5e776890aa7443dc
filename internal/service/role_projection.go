package service

import "github.com/taxirank/rank-api/internal/models"

// projectionFields declares which optional user fields a role exposes. The
// credential hash is never part of a view.
type projectionFields struct {
	AccountStatus bool
	Verified      bool
	Rating        bool
	TotalTrips    bool
	ManagedRanks  bool
}

// projectionRules keys the field table by role. Roles missing from the table
// fall back to the full record minus the credential.
var projectionRules = map[models.UserRole]projectionFields{
	models.RoleRider: {
		AccountStatus: true,
		Verified:      true,
		Rating:        true,
		TotalTrips:    true,
	},
	models.RoleAdmin: {
		AccountStatus: true,
		Verified:      true,
		Rating:        true,
		ManagedRanks:  true,
	},
	models.RoleSuperAdmin: {},
}

var projectionFallback = projectionFields{
	AccountStatus: true,
	Verified:      true,
	Rating:        true,
	TotalTrips:    true,
	ManagedRanks:  true,
}

// ProjectUser computes the redacted view of a user record for the given
// role. It is a pure function over its inputs: identity fields always
// appear, the rest follow the field table, and redacted fields are absent
// rather than zeroed.
func ProjectUser(user *models.User, managedRanks []models.RankRef, role models.UserRole) models.RoleView {
	view := models.RoleView{
		ID:             user.ID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Email:          user.Email,
		PhoneNumber:    user.PhoneNumber,
		ProfilePicture: user.ProfilePicture,
		Role:           user.Role,
		LastLogin:      user.LastLogin,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}

	fields, ok := projectionRules[role]
	if !ok {
		fields = projectionFallback
	}

	if fields.AccountStatus {
		status := user.AccountStatus
		view.AccountStatus = &status
	}
	if fields.Verified {
		verified := user.Verified
		view.Verified = &verified
	}
	if fields.Rating {
		rating := user.Rating
		view.Rating = &rating
	}
	if fields.TotalTrips {
		trips := user.TotalTrips
		view.TotalTrips = &trips
	}
	if fields.ManagedRanks {
		view.ManagedRanks = managedRanks
	}

	return view
}
