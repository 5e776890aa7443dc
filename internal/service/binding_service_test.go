package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taxirank/rank-api/internal/models"
	appErrors "github.com/taxirank/rank-api/pkg/errors"
)

func newTestRank(id, name, code string) *models.Rank {
	return &models.Rank{ID: id, Name: name, Code: code, City: "Johannesburg", Province: "Gauteng", Active: true}
}

func newBindingFixture() (*BindingService, *bindingRepoStub, *userRepoStub, *rankRepoStub, *auditStub) {
	bindings := newBindingRepoStub()
	users := newUserRepoStub()
	ranks := newRankRepoStub(newTestRank("rank-1", "Bree Street Rank", "BREE"), newTestRank("rank-2", "Wanderers Rank", "WAND"))
	audit := &auditStub{}
	svc := NewBindingService(bindings, users, ranks, audit, nil, nil)
	return svc, bindings, users, ranks, audit
}

func TestBindingServiceAssign(t *testing.T) {
	svc, bindings, users, _, audit := newBindingFixture()
	rider := users.add(&models.User{Email: "thabo@example.com", Role: models.RoleRider})

	binding, err := svc.Assign(context.Background(), AssignBindingRequest{
		UserID:   rider.ID,
		RankCode: "BREE",
	}, "super-1")
	require.NoError(t, err)
	require.Equal(t, "rank-1", binding.RankID)
	require.True(t, binding.ManageDrivers)
	require.True(t, binding.ManageTerminals)
	require.Len(t, bindings.bindings, 1)
	require.Equal(t, models.RoleAdmin, users.users[rider.ID].Role)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionBindingCreate, audit.logs[0].Action)
}

func TestBindingServiceAssignPartialPermissions(t *testing.T) {
	svc, _, users, _, _ := newBindingFixture()
	rider := users.add(&models.User{Email: "thabo@example.com", Role: models.RoleRider})

	off := false
	binding, err := svc.Assign(context.Background(), AssignBindingRequest{
		UserID:      rider.ID,
		RankCode:    "BREE",
		Permissions: models.PermissionUpdate{ViewFinancials: &off},
	}, "super-1")
	require.NoError(t, err)
	require.False(t, binding.ViewFinancials)
	require.True(t, binding.ManageDrivers)
}

func TestBindingServiceAssignRankTaken(t *testing.T) {
	svc, _, users, _, _ := newBindingFixture()
	first := users.add(&models.User{Email: "first@example.com", Role: models.RoleRider})
	second := users.add(&models.User{Email: "second@example.com", Role: models.RoleRider})

	_, err := svc.Assign(context.Background(), AssignBindingRequest{UserID: first.ID, RankCode: "BREE"}, "super-1")
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), AssignBindingRequest{UserID: second.ID, RankCode: "BREE"}, "super-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrRankAlreadyAssigned.Code, appErrors.FromError(err).Code)
	require.Contains(t, appErrors.FromError(err).Message, "Bree Street Rank")
}

func TestBindingServiceBindSurfacesConstraintRace(t *testing.T) {
	// The pre-check in Assign is skipped here: Bind alone must translate the
	// repository sentinel into the same conflict error.
	svc, bindings, users, ranks, _ := newBindingFixture()
	first := users.add(&models.User{Email: "first@example.com", Role: models.RoleAdmin})
	second := users.add(&models.User{Email: "second@example.com", Role: models.RoleAdmin})
	rank, err := ranks.FindByID(context.Background(), "rank-1")
	require.NoError(t, err)

	_, err = svc.Bind(context.Background(), first.ID, rank, models.FullPermissions(), nil, nil)
	require.NoError(t, err)
	require.Len(t, bindings.bindings, 1)

	_, err = svc.Bind(context.Background(), second.ID, rank, models.FullPermissions(), nil, nil)
	require.Equal(t, appErrors.ErrRankAlreadyAssigned.Code, appErrors.FromError(err).Code)
}

func TestBindingServiceBindDuplicatePair(t *testing.T) {
	svc, _, users, ranks, _ := newBindingFixture()
	admin := users.add(&models.User{Email: "admin@example.com", Role: models.RoleAdmin})
	rank, _ := ranks.FindByID(context.Background(), "rank-1")

	_, err := svc.Bind(context.Background(), admin.ID, rank, models.FullPermissions(), nil, nil)
	require.NoError(t, err)

	_, err = svc.Bind(context.Background(), admin.ID, rank, models.FullPermissions(), nil, nil)
	require.Equal(t, appErrors.ErrAlreadyBound.Code, appErrors.FromError(err).Code)
}

func TestBindingServiceBindUnknownUser(t *testing.T) {
	svc, _, _, ranks, _ := newBindingFixture()
	rank, _ := ranks.FindByID(context.Background(), "rank-1")

	_, err := svc.Bind(context.Background(), "nope", rank, models.FullPermissions(), nil, nil)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBindingServiceSuperAdminKeepsRole(t *testing.T) {
	svc, _, users, ranks, _ := newBindingFixture()
	super := users.add(&models.User{Email: "super@example.com", Role: models.RoleSuperAdmin})
	rank, _ := ranks.FindByID(context.Background(), "rank-1")

	_, err := svc.Bind(context.Background(), super.ID, rank, models.FullPermissions(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, models.RoleSuperAdmin, users.users[super.ID].Role)
}

func TestBindingServiceFirstConflict(t *testing.T) {
	svc, _, users, ranks, _ := newBindingFixture()
	admin := users.add(&models.User{Email: "admin@example.com", Role: models.RoleAdmin})
	rank, _ := ranks.FindByID(context.Background(), "rank-2")
	_, err := svc.Bind(context.Background(), admin.ID, rank, models.FullPermissions(), nil, nil)
	require.NoError(t, err)

	refs := []models.RankRef{
		{ID: "rank-1", Name: "Bree Street Rank", Code: "BREE"},
		{ID: "rank-2", Name: "Wanderers Rank", Code: "WAND"},
	}
	conflict, err := svc.FirstConflict(context.Background(), refs)
	require.NoError(t, err)
	require.NotNil(t, conflict)
	require.Equal(t, "rank-2", conflict.ID)

	conflict, err = svc.FirstConflict(context.Background(), refs[:1])
	require.NoError(t, err)
	require.Nil(t, conflict)
}

func TestBindingServiceUpdatePermissionsMerges(t *testing.T) {
	svc, _, users, ranks, _ := newBindingFixture()
	admin := users.add(&models.User{Email: "admin@example.com", Role: models.RoleAdmin})
	rank, _ := ranks.FindByID(context.Background(), "rank-1")
	_, err := svc.Bind(context.Background(), admin.ID, rank, models.FullPermissions(), nil, nil)
	require.NoError(t, err)

	off := false
	designation := "Senior Marshal"
	updated, err := svc.UpdatePermissions(context.Background(), admin.ID, rank.ID, models.PermissionUpdate{
		ManageRoutes: &off,
		Designation:  &designation,
	}, "super-1")
	require.NoError(t, err)
	require.False(t, updated.ManageRoutes)
	require.True(t, updated.ManageDrivers)
	require.Equal(t, "Senior Marshal", *updated.Designation)
}

func TestBindingServiceRemoveNotFound(t *testing.T) {
	svc, _, _, _, _ := newBindingFixture()
	err := svc.Remove(context.Background(), "user-x", "rank-1", "super-1")
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBindingServiceRanksManagedBy(t *testing.T) {
	svc, _, users, ranks, _ := newBindingFixture()
	admin := users.add(&models.User{Email: "admin@example.com", Role: models.RoleAdmin})
	rank1, _ := ranks.FindByID(context.Background(), "rank-1")
	rank2, _ := ranks.FindByID(context.Background(), "rank-2")
	_, err := svc.Bind(context.Background(), admin.ID, rank1, models.FullPermissions(), nil, nil)
	require.NoError(t, err)
	_, err = svc.Bind(context.Background(), admin.ID, rank2, models.FullPermissions(), nil, nil)
	require.NoError(t, err)

	refs, err := svc.RanksManagedBy(context.Background(), admin.ID)
	require.NoError(t, err)
	require.Len(t, refs, 2)
}
