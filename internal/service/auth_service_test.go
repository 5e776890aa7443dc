package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taxirank/rank-api/internal/models"
	"github.com/taxirank/rank-api/pkg/config"
	appErrors "github.com/taxirank/rank-api/pkg/errors"
)

func newAuthFixture(t *testing.T) (*AuthService, *userRepoStub) {
	t.Helper()
	users := newUserRepoStub()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	users.add(&models.User{
		Email:         "thabo@example.com",
		PasswordHash:  string(hash),
		AccountStatus: models.AccountActive,
		Role:          models.RoleAdmin,
	})
	cfg := config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "rank-api"}
	return NewAuthService(users, &auditStub{}, cfg, nil, nil), users
}

func TestAuthLoginIssuesToken(t *testing.T) {
	svc, users := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "thabo@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.Equal(t, int64(3600), res.ExpiresIn)
	require.Equal(t, models.RoleAdmin, res.User.Role)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, claims.UserID)
	require.Equal(t, models.RoleAdmin, claims.Role)

	stored, err := users.FindByEmail(context.Background(), "thabo@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "thabo@example.com", Password: "wrong"})
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginUnknownEmailSameError(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"})
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	svc, users := newAuthFixture(t)
	for _, user := range users.users {
		user.AccountStatus = models.AccountSuspended
	}

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "thabo@example.com", Password: "s3cret-pass"})
	require.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
