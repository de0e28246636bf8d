// Package groups persists group rows. The members column carries a unique
// constraint on the canonical attribute string, so inserting the same
// signature twice is structurally impossible.
package groups

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/memahdii/social-network/internal/common"
	"github.com/memahdii/social-network/internal/dbx"
	"github.com/memahdii/social-network/internal/server/models"
)

// provisionLockKey is the advisory-lock key guarding group check-then-create.
// All provisioning transactions contend on this single key.
const provisionLockKey = 815001

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, members string) (*models.Group, error) {

	// Insert-or-fetch in one statement: ON CONFLICT DO NOTHING suppresses the
	// duplicate insert, the UNION arm picks up the already existing row.
	query :=
		`WITH ins AS (
		     INSERT INTO groups (members) VALUES ($1)
		     ON CONFLICT (members) DO NOTHING
		     RETURNING id
		 )
		 SELECT id FROM ins
		 UNION ALL
		 SELECT id FROM groups WHERE members = $1
		 LIMIT 1
		 `

	group := &models.Group{Members: members}
	err := r.db.QueryRowContext(ctx, query, members).Scan(&group.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return group, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Group, error) {
	query :=
		`SELECT id, members FROM groups
		 WHERE id = $1
		 `

	group := &models.Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&group.ID, &group.Members)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return group, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Group, error) {
	query :=
		`SELECT id, members FROM groups
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Members); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return groups, nil
}

func (r *PostgresRepository) AcquireProvisionLock(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, provisionLockKey)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
