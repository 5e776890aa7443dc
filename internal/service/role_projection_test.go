package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taxirank/rank-api/internal/models"
)

func projectionSubject(role models.UserRole) *models.User {
	last := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return &models.User{
		ID:            "user-1",
		FirstName:     "Thabo",
		LastName:      "Nkosi",
		Email:         "thabo@example.com",
		PhoneNumber:   "+27821234567",
		PasswordHash:  "$2a$10$secret",
		AccountStatus: models.AccountActive,
		Verified:      true,
		Rating:        4.6,
		TotalTrips:    128,
		Role:          role,
		LastLogin:     &last,
	}
}

func managedRanks() []models.RankRef {
	return []models.RankRef{{ID: "rank-1", Name: "Bree Street Rank", Code: "BREE", City: "Johannesburg"}}
}

func TestProjectUserRider(t *testing.T) {
	view := ProjectUser(projectionSubject(models.RoleRider), nil, models.RoleRider)

	require.Equal(t, "thabo@example.com", view.Email)
	require.NotNil(t, view.AccountStatus)
	require.NotNil(t, view.Verified)
	require.NotNil(t, view.Rating)
	require.NotNil(t, view.TotalTrips)
	require.Equal(t, 128, *view.TotalTrips)
	require.Nil(t, view.ManagedRanks)
}

func TestProjectUserAdmin(t *testing.T) {
	view := ProjectUser(projectionSubject(models.RoleAdmin), managedRanks(), models.RoleAdmin)

	require.NotNil(t, view.AccountStatus)
	require.NotNil(t, view.Verified)
	require.NotNil(t, view.Rating)
	require.Nil(t, view.TotalTrips)
	require.Len(t, view.ManagedRanks, 1)
	require.Equal(t, "BREE", view.ManagedRanks[0].Code)
}

func TestProjectUserSuperAdminIdentityOnly(t *testing.T) {
	view := ProjectUser(projectionSubject(models.RoleSuperAdmin), managedRanks(), models.RoleSuperAdmin)

	require.Equal(t, "user-1", view.ID)
	require.Equal(t, "Thabo", view.FirstName)
	require.Nil(t, view.AccountStatus)
	require.Nil(t, view.Verified)
	require.Nil(t, view.Rating)
	require.Nil(t, view.TotalTrips)
	require.Nil(t, view.ManagedRanks)
}

func TestProjectUserUnknownRoleGetsEverything(t *testing.T) {
	subject := projectionSubject("AUDITOR")
	view := ProjectUser(subject, managedRanks(), "AUDITOR")

	require.NotNil(t, view.AccountStatus)
	require.NotNil(t, view.Verified)
	require.NotNil(t, view.Rating)
	require.NotNil(t, view.TotalTrips)
	require.Len(t, view.ManagedRanks, 1)
}

func TestProjectUserValuesAreCopies(t *testing.T) {
	subject := projectionSubject(models.RoleRider)
	view := ProjectUser(subject, nil, models.RoleRider)

	subject.Rating = 1.0
	subject.Verified = false
	require.Equal(t, 4.6, *view.Rating)
	require.True(t, *view.Verified)
}
