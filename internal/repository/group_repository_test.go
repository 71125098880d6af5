package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook/internal/models"
)

func TestGroupRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO groups (name) VALUES ($1) RETURNING id")).
		WithArgs("Group 1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	group := &models.Group{Name: "Group 1"}
	require.NoError(t, repo.Create(context.Background(), group))
	assert.Equal(t, int64(7), group.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryListAndFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM groups ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Group 1").AddRow(2, "Group 2"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM groups WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	groups, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	_, err = repo.FindByID(context.Background(), 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryUpdateAndDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE groups SET name = $1 WHERE id = $2")).
		WithArgs("Renamed", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM groups WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), &models.Group{ID: 1, Name: "Renamed"}))
	require.NoError(t, repo.Delete(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}
