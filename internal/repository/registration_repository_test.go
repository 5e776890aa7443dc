package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/taxirank/rank-api/internal/models"
)

func TestRegistrationRepositoryCreateWithRanks(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRegistrationRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registration_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registration_request_ranks")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registration_request_ranks")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	request := &models.RegistrationRequest{
		FirstName:    "Thabo",
		LastName:     "Nkosi",
		Email:        "thabo@example.com",
		PhoneNumber:  "+27821234567",
		PasswordHash: "$2a$10$hash",
		SelectedRanks: []models.RankRef{
			{ID: "rank-1", Code: "BREE"},
			{ID: "rank-2", Code: "WAND"},
		},
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)
	require.Equal(t, models.RequestPending, request.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreateRollsBackOnJoinFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRegistrationRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registration_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registration_request_ranks")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	request := &models.RegistrationRequest{
		Email:         "thabo@example.com",
		SelectedRanks: []models.RankRef{{ID: "rank-1", Code: "BREE"}},
	}
	require.Error(t, repo.Create(context.Background(), request))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreateMapsPendingEmailConstraint(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRegistrationRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registration_requests")).
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: registrationPendingEmailIdx})
	mock.ExpectRollback()

	request := &models.RegistrationRequest{
		Email:         "thabo@example.com",
		SelectedRanks: []models.RankRef{{ID: "rank-1", Code: "BREE"}},
	}
	err := repo.Create(context.Background(), request)
	require.ErrorIs(t, err, ErrPendingEmailTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryExistsPendingByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRegistrationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM registration_requests")).
		WithArgs("thabo@example.com", models.RequestPending).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsPendingByEmail(context.Background(), "thabo@example.com")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM registration_requests")).
		WithArgs("other@example.com", models.RequestPending).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsPendingByEmail(context.Background(), "other@example.com")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryUpdateReviewGuard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRegistrationRepository(db)
	params := UpdateReviewParams{
		ID:         "reg-1",
		Status:     models.RequestApproved,
		ReviewedBy: "super-1",
		ReviewedAt: time.Now().UTC(),
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE registration_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateReview(context.Background(), params))

	// A request no longer PENDING matches zero rows.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE registration_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateReview(context.Background(), params)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
