package identity_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	identity "github.com/seablast/go-identity"
)

const (
	sqliteCreateRoles = `CREATE TABLE roles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
	sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    role_id INTEGER NOT NULL,
    last_login TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
	sqliteCreateEmailToken = `CREATE TABLE email_token (
    id TEXT NOT NULL PRIMARY KEY,
    email TEXT NOT NULL,
    token TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
	sqliteCreateSessionUser = `CREATE TABLE session_user (
    id TEXT NOT NULL PRIMARY KEY,
    user_id TEXT NOT NULL,
    token TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
	sqliteCreateGroups = `CREATE TABLE groups (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name_public TEXT NOT NULL,
    internal_notes TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
	sqliteCreateUserGroup = `CREATE TABLE user_group (
    id TEXT NOT NULL PRIMARY KEY,
    user_id TEXT NOT NULL,
    group_id INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
	sqliteCreateGroupActivationTokens = `CREATE TABLE group_activation_tokens (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    group_id INTEGER NOT NULL,
    token TEXT NOT NULL UNIQUE,
    valid_from TIMESTAMP NOT NULL,
    valid_to TIMESTAMP NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
)

func setupDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	for _, stmt := range []string{
		sqliteCreateRoles,
		sqliteCreateUsers,
		sqliteCreateEmailToken,
		sqliteCreateSessionUser,
		sqliteCreateGroups,
		sqliteCreateUserGroup,
		sqliteCreateGroupActivationTokens,
	} {
		_, err = bunDB.Exec(stmt)
		require.NoError(t, err)
	}

	_, err = bunDB.Exec("INSERT INTO roles (id, name) VALUES (1, 'admin'), (2, 'editor'), (3, 'user')")
	require.NoError(t, err)

	cleanup := func() {
		_ = bunDB.Close()
		_ = sqldb.Close()
	}

	return bunDB, cleanup
}

func setupRepo(t *testing.T) (identity.RepositoryManager, *bun.DB, func()) {
	t.Helper()

	bunDB, cleanup := setupDB(t)
	repo := identity.NewRepositoryManager(bunDB)
	require.NoError(t, repo.Validate())

	return repo, bunDB, cleanup
}

func countRows(t *testing.T, db *bun.DB, table string) int {
	t.Helper()

	var n int
	err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n)
	require.NoError(t, err)
	return n
}
