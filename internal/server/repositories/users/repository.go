package users

import (
	"context"

	"github.com/memahdii/social-network/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, attributes string, groupID int64) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// SetTokenIfEmpty atomically installs token on the user's row unless a
	// token is already present, and returns whichever value won. Repeated
	// and concurrent calls all observe the same stored token.
	SetTokenIfEmpty(ctx context.Context, id int64, token string) (string, error)
	UpdateAttributes(ctx context.Context, id int64, attributes string) error
	Delete(ctx context.Context, id int64) error
	ListByGroup(ctx context.Context, groupID int64) ([]models.User, error)
}
