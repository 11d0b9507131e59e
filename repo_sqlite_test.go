package auth

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteCreatePrincipals = `CREATE TABLE principals (
    id TEXT NOT NULL PRIMARY KEY,
    role TEXT NOT NULL,
    provider TEXT NOT NULL,
    external_id TEXT NOT NULL,
    display_name TEXT,
    email TEXT,
    avatar_url TEXT,
    password_hash TEXT,
    user_status TEXT NOT NULL DEFAULT 'normal',
    seller_status TEXT,
    rejection_reason TEXT,
    loggedin_at TIMESTAMP NULL,
    withdrawn_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    deleted_at TIMESTAMP NULL,
    CONSTRAINT uq_principals_provider_external UNIQUE (provider, external_id)
);`

	sqliteCreateRefreshTokens = `CREATE TABLE refresh_tokens (
    token TEXT NOT NULL PRIMARY KEY,
    principal_id TEXT NOT NULL UNIQUE,
    issued_at TIMESTAMP NOT NULL,
    expires_at TIMESTAMP NOT NULL
);`

	sqliteCreateProviderPolicies = `CREATE TABLE provider_policies (
    provider TEXT NOT NULL PRIMARY KEY,
    active BOOLEAN NOT NULL,
    updated_at TIMESTAMP
);`

	sqliteCreatePasswordResets = `CREATE TABLE password_resets (
    id TEXT NOT NULL PRIMARY KEY,
    principal_id TEXT NOT NULL,
    status TEXT NOT NULL,
    email TEXT NOT NULL,
    reset_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`
)

func setupTestDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	for _, ddl := range []string{
		sqliteCreatePrincipals,
		sqliteCreateRefreshTokens,
		sqliteCreateProviderPolicies,
		sqliteCreatePasswordResets,
	} {
		_, err = bunDB.Exec(ddl)
		require.NoError(t, err)
	}

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return bunDB, cleanup
}
