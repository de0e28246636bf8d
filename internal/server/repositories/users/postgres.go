package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/memahdii/social-network/internal/common"
	"github.com/memahdii/social-network/internal/dbx"
	"github.com/memahdii/social-network/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, attributes string, groupID int64) (*models.User, error) {

	query :=
		`INSERT INTO users (attributes, group_id)
		 VALUES ($1, $2)
		 RETURNING id
		 `

	user := &models.User{Attributes: attributes, GroupID: groupID}
	err := r.db.QueryRowContext(ctx, query, attributes, groupID).Scan(&user.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query :=
		`SELECT id, attributes, group_id, COALESCE(token, '') FROM users
		 WHERE id = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Attributes, &user.GroupID, &user.Token)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) SetTokenIfEmpty(ctx context.Context, id int64, token string) (string, error) {

	// COALESCE keeps an already issued token in place; the RETURNING clause
	// reports the stored value either way, so concurrent first signins all
	// converge on a single winner.
	query :=
		`UPDATE users SET token = COALESCE(token, $2)
		 WHERE id = $1
		 RETURNING token
		 `

	var stored string
	err := r.db.QueryRowContext(ctx, query, id, token).Scan(&stored)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return stored, nil
}

func (r *PostgresRepository) UpdateAttributes(ctx context.Context, id int64, attributes string) error {
	query :=
		`UPDATE users SET attributes = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, attributes)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query :=
		`DELETE FROM users
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) ListByGroup(ctx context.Context, groupID int64) ([]models.User, error) {
	query :=
		`SELECT id, attributes, group_id, COALESCE(token, '') FROM users
		 WHERE group_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Attributes, &u.GroupID, &u.Token); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return users, nil
}
