package groups

import (
	"context"

	"github.com/memahdii/social-network/internal/server/models"
)

type Repository interface {
	// Create inserts a group with the given canonical members string, or
	// fetches the existing one when the same string was already inserted.
	Create(ctx context.Context, members string) (*models.Group, error)
	GetByID(ctx context.Context, id int64) (*models.Group, error)
	// List returns all groups in creation order.
	List(ctx context.Context) ([]models.Group, error)
	// AcquireProvisionLock blocks until the transaction-scoped provisioning
	// lock is held. Must be called on a transactional handle; the lock is
	// released automatically at commit or rollback.
	AcquireProvisionLock(ctx context.Context) error
}
