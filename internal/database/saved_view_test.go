package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/framecraft/framecraft/internal/usecase"
)

func newMockService(t *testing.T) (*service, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)
	return &service{db: gormDB}, mock
}

func TestSavedView_DuplicateName(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	view := usecase.SavedView{ID: uuid.New(), Name: "Ready", State: usecase.DefaultViewState()}

	t.Run("create", func(t *testing.T) {
		s, mock := newMockService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "saved_views"`).WillReturnError(dup)
		mock.ExpectRollback()

		_, err := s.CreateSavedView(context.Background(), view)
		assert.ErrorIs(t, err, usecase.ErrInvalidInput)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rename", func(t *testing.T) {
		s, mock := newMockService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE "saved_views"`).WillReturnError(dup)
		mock.ExpectRollback()

		_, err := s.UpdateSavedView(context.Background(), view)
		assert.ErrorIs(t, err, usecase.ErrInvalidInput)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other errors pass through", func(t *testing.T) {
		s, mock := newMockService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE "saved_views"`).WillReturnError(&pgconn.PgError{Code: "57014"})
		mock.ExpectRollback()

		_, err := s.UpdateSavedView(context.Background(), view)
		require.Error(t, err)
		assert.NotErrorIs(t, err, usecase.ErrInvalidInput)
	})
}
