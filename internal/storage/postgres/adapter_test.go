package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawboard/drawboard-backend/config"
	"github.com/drawboard/drawboard-backend/internal/drawings/domain"
	"github.com/drawboard/drawboard-backend/internal/storage"
)

func setupAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewWithDB(db), mock, db
}

func TestAdapter_Initialize(t *testing.T) {
	a, mock, db := setupAdapter(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS app_state`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS app_state`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, a.Initialize(context.Background()))
	require.NoError(t, a.Initialize(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_InitializePermissionDenied(t *testing.T) {
	a, mock, db := setupAdapter(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS app_state`).
		WillReturnError(&pq.Error{Code: pqInsufficientPrivilege, Message: "permission denied for schema public"})

	err := a.Initialize(context.Background())
	assert.ErrorIs(t, err, storage.ErrPermissionDenied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Load(t *testing.T) {
	a, mock, db := setupAdapter(t)
	defer db.Close()

	t.Run("absent", func(t *testing.T) {
		mock.ExpectQuery(`SELECT document FROM app_state`).
			WithArgs(StateKey).
			WillReturnError(sql.ErrNoRows)

		state, err := a.Load(context.Background())
		require.NoError(t, err)
		assert.Nil(t, state)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("present", func(t *testing.T) {
		doc := `{"projects":[{"id":"p1","name":"Alpha","files":[],"createdAt":"2024-05-01T10:00:00Z","isExpanded":true,"parentId":null}],"currentProjectId":"p1","currentFileId":null,"openFiles":[],"dirtyFiles":[]}`
		mock.ExpectQuery(`SELECT document FROM app_state`).
			WithArgs(StateKey).
			WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow([]byte(doc)))

		state, err := a.Load(context.Background())
		require.NoError(t, err)
		require.NotNil(t, state)
		require.Len(t, state.Projects, 1)
		assert.Equal(t, "Alpha", state.Projects[0].Name)
		assert.Equal(t, "p1", state.CurrentProjectID)
		assert.Empty(t, state.CurrentFileID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed", func(t *testing.T) {
		mock.ExpectQuery(`SELECT document FROM app_state`).
			WithArgs(StateKey).
			WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow([]byte("[")))

		_, err := a.Load(context.Background())
		assert.ErrorIs(t, err, storage.ErrMalformedState)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT document FROM app_state`).
			WithArgs(StateKey).
			WillReturnError(errors.New("connection reset"))

		_, err := a.Load(context.Background())
		assert.Error(t, err)
		assert.NotErrorIs(t, err, storage.ErrPermissionDenied)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdapter_Save(t *testing.T) {
	a, mock, db := setupAdapter(t)
	defer db.Close()

	state := domain.DefaultState()
	data, err := storage.Marshal(state)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO app_state`).
		WithArgs(StateKey, string(data)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, a.Save(context.Background(), state))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_NotInitialized(t *testing.T) {
	a := &Adapter{}
	_, err := a.Load(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotInitialized)
	assert.ErrorIs(t, a.Save(context.Background(), domain.DefaultState()), storage.ErrNotInitialized)
	assert.ErrorIs(t, a.Initialize(context.Background()), storage.ErrNotInitialized)
}

func TestDSN(t *testing.T) {
	dsn := DSN(&config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "drawboard"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=drawboard sslmode=disable", dsn)
}
