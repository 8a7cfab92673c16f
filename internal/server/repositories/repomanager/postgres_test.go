package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/verificationtokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	m := NewPostgresRepositoryManager()

	var _ users.Repository = m.Users(db)
	var _ verificationtokens.Repository = m.VerificationTokens(db)
	assert.NotNil(t, m.Users(db))
	assert.NotNil(t, m.VerificationTokens(db))
}

func TestRunMigrations(t *testing.T) {
	db, _ := newDB(t)
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var got *sql.DB
	gooseUp = func(ctx context.Context, d *sql.DB) error {
		got = d
		return nil
	}
	require.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))
	assert.Same(t, db, got)

	gooseUp = func(context.Context, *sql.DB) error { return errors.New("boom") }
	err := NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestOpen(t *testing.T) {
	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })

	t.Run("ok", func(t *testing.T) {
		db, mock := newDB(t)
		mock.ExpectPing()
		var driver, dsn string
		sqlOpen = func(d, s string) (*sql.DB, error) {
			driver, dsn = d, s
			return db, nil
		}
		got, err := Open(context.Background(), "postgres://x")
		require.NoError(t, err)
		assert.Same(t, db, got)
		assert.Equal(t, "pgx", driver)
		assert.Equal(t, "postgres://x", dsn)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping fails", func(t *testing.T) {
		db, mock := newDB(t)
		mock.ExpectPing().WillReturnError(errors.New("refused"))
		sqlOpen = func(string, string) (*sql.DB, error) { return db, nil }
		_, err := Open(context.Background(), "dsn")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ping db")
	})

	t.Run("open fails", func(t *testing.T) {
		sqlOpen = func(string, string) (*sql.DB, error) { return nil, errors.New("bad driver") }
		_, err := Open(context.Background(), "dsn")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open db")
	})
}
