package sqlx_test

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter "quizkit/adapters/sqlx"
	"quizkit/catalog"
	"quizkit/core"
)

func newMockCatalog(t *testing.T) (*adapter.Catalog, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	cat := adapter.NewWithDB(libsqlx.NewDb(db, "postgres"), adapter.DriverPostgres)
	cleanup := func() {
		_ = db.Close()
	}
	return cat, mock, cleanup
}

func TestSQLMock_Get(t *testing.T) {
	cat, mock, cleanup := newMockCatalog(t)
	defer cleanup()
	ctx := context.Background()

	mock.ExpectQuery(`SELECT slug, name, active FROM games`).
		WithArgs("word-chase").
		WillReturnRows(sqlmock.NewRows([]string{"slug", "name", "active"}).
			AddRow("word-chase", "Word Chase", true))

	g, err := cat.Get(ctx, "word-chase")
	require.NoError(t, err)
	assert.Equal(t, catalog.Game{Slug: "word-chase", Name: "Word Chase", Active: true}, g)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_GetNotFound(t *testing.T) {
	cat, mock, cleanup := newMockCatalog(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT slug, name, active FROM games`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := cat.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Put(t *testing.T) {
	cat, mock, cleanup := newMockCatalog(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO games`).
		WithArgs("number-run", "Number Run", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := cat.Put(context.Background(), catalog.Game{Slug: " Number-Run ", Name: "Number Run", Active: true})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_SetActiveNotFound(t *testing.T) {
	cat, mock, cleanup := newMockCatalog(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE games SET active`).
		WithArgs(false, sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := cat.SetActive(context.Background(), "missing", false)
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_List(t *testing.T) {
	cat, mock, cleanup := newMockCatalog(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT slug, name, active FROM games ORDER BY slug`).
		WillReturnRows(sqlmock.NewRows([]string{"slug", "name", "active"}).
			AddRow("a-game", "A Game", true).
			AddRow("b-game", "B Game", false))

	games, err := cat.List(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.False(t, games[1].Active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_TransientKind(t *testing.T) {
	cat, mock, cleanup := newMockCatalog(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT slug, name, active FROM games`).
		WithArgs("word-chase").
		WillReturnError(sql.ErrConnDone)

	_, err := cat.Get(context.Background(), "word-chase")
	assert.True(t, core.IsTransient(err))
}
