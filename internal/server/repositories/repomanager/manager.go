package repomanager

import (
	"context"
	"database/sql"

	"github.com/memahdii/social-network/internal/dbx"
	"github.com/memahdii/social-network/internal/server/repositories/groups"
	"github.com/memahdii/social-network/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Groups(db dbx.DBTX) groups.Repository
}
