package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestlearn/planner-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestVelocityRepositoryFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVelocityRepository(db)

	rows := sqlmock.NewRows([]string{"id", "family_id", "learner_id", "subject_id", "velocity", "last_updated"}).
		AddRow("v-1", "family-1", "learner-1", "math", 0.85, time.Now())
	mock.ExpectQuery("SELECT id, family_id, learner_id, subject_id, velocity, last_updated").
		WithArgs("learner-1", "math").
		WillReturnRows(rows)

	record, err := repo.Find(context.Background(), "learner-1", "math")
	require.NoError(t, err)
	assert.Equal(t, 0.85, record.Velocity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVelocityRepositoryFindMissingReturnsRawNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVelocityRepository(db)

	mock.ExpectQuery("SELECT id, family_id, learner_id, subject_id, velocity, last_updated").
		WithArgs("learner-1", "math").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "learner-1", "math")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVelocityRepositoryListByLearners(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVelocityRepository(db)

	rows := sqlmock.NewRows([]string{"id", "family_id", "learner_id", "subject_id", "velocity", "last_updated"}).
		AddRow("v-1", "family-1", "learner-1", "math", 0.85, time.Now()).
		AddRow("v-2", "family-1", "learner-1", "reading", 1.1, time.Now())
	mock.ExpectQuery("FROM learner_velocity WHERE learner_id IN").
		WithArgs("learner-1").
		WillReturnRows(rows)

	records, err := repo.ListByLearners(context.Background(), []string{"learner-1"})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVelocityRepositoryListByLearnersEmptyInput(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVelocityRepository(db)

	records, err := repo.ListByLearners(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestVelocityRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVelocityRepository(db)

	mock.ExpectExec("INSERT INTO learner_velocity").
		WithArgs(sqlmock.AnyArg(), "family-1", "learner-1", "math", 0.85, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.VelocityRecord{FamilyID: "family-1", LearnerID: "learner-1", SubjectID: "math", Velocity: 0.85}
	err := repo.Upsert(context.Background(), record)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID, "upsert assigns an id to new records")
	assert.False(t, record.LastUpdated.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
