package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

func TestTimetableDeleteReturnsRemovedEntries(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE timetable_id = $1")).
		WithArgs("tt-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetables WHERE id = $1")).
		WithArgs("tt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := repo.Delete(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableDeleteMissingRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM timetable_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM timetables").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableListFiltersAndSort(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM timetables WHERE department_id = $1 AND semester = $2 ORDER BY name ASC LIMIT 10 OFFSET 10")).
		WithArgs("cs", 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("tt-1", "CS Sem 3"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timetables WHERE department_id = $1 AND semester = $2")).
		WithArgs("cs", 3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	filter := models.TimetableFilter{DepartmentID: "cs", Semester: 3}
	filter.PageRequest = models.PageRequest{Page: 2, PageSize: 10, SortBy: "name", SortOrder: "asc"}
	timetables, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, timetables, 1)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPageClauseRejectsUnknownSort(t *testing.T) {
	clause := pageClause(models.PageRequest{SortBy: "id; DROP TABLE users", SortOrder: "sideways", PageSize: 500}, map[string]bool{"name": true}, "created_at", "DESC")
	assert.Equal(t, " ORDER BY created_at DESC LIMIT 20 OFFSET 0", clause)
}
