package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/accountd/internal/dbx"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/accounts"
)

// RepositoryManager vends repositories bound to a DBTX, so the same
// repository code runs against *sql.DB and *sql.Tx alike, and exposes the
// schema migration hook.
type RepositoryManager interface {
	Accounts(db dbx.DBTX) accounts.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
