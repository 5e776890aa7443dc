package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/taxirank/rank-api/internal/models"
)

func TestAssignmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assignment_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.AssignmentRequest{RequestingAdmin: "user-1", RankID: "rank-1"}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)
	require.Equal(t, models.RequestPending, request.Status)
	require.False(t, request.RequestedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	rows := sqlmock.NewRows([]string{"id", "requesting_admin_id", "rank_id", "status", "request_reason",
		"response_message", "reviewed_by", "requested_at", "responded_at"}).
		AddRow("asg-1", "user-1", "rank-1", "PENDING", nil, nil, nil, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, requesting_admin_id, rank_id")).
		WithArgs(models.RequestPending, "user-1").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.AssignmentRequestFilter{
		Status:          []models.RequestStatus{models.RequestPending},
		RequestingAdmin: "user-1",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "asg-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryExistsPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM assignment_requests")).
		WithArgs("user-1", "rank-1", models.RequestPending).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsPending(context.Background(), "user-1", "rank-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryExistsPendingForRank(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM assignment_requests WHERE rank_id = $1")).
		WithArgs("rank-1", models.RequestPending).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsPendingForRank(context.Background(), "rank-1")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM assignment_requests WHERE rank_id = $1")).
		WithArgs("rank-2", models.RequestPending).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsPendingForRank(context.Background(), "rank-2")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateResponseGuard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	reviewer := "super-1"
	params := UpdateResponseParams{
		ID:          "asg-1",
		Status:      models.RequestRejected,
		ReviewedBy:  &reviewer,
		RespondedAt: time.Now().UTC(),
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignment_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateResponse(context.Background(), params))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignment_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateResponse(context.Background(), params)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
