package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/memahdii/social-network/internal/common"
	"github.com/memahdii/social-network/internal/dbx"
	"github.com/memahdii/social-network/internal/logging"
	"github.com/memahdii/social-network/internal/server/cache"
	"github.com/memahdii/social-network/internal/server/models"
	"github.com/memahdii/social-network/internal/server/queue"
	"github.com/memahdii/social-network/internal/server/repositories/repomanager"
)

// GroupProvisioner creates a group for an attribute set that matched
// nothing. Creation runs through the work queue and, inside the task, a
// single transaction that holds the provisioning advisory lock across the
// re-check and the insert. Two racing signups with overlapping attributes
// therefore serialize: the second one observes the first one's group under
// the lock and joins it instead of inserting a duplicate.
type GroupProvisioner struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	cache   *cache.Cache
	queue   *queue.Queue
	timeout time.Duration
	logger  logging.Logger
}

// NewGroupProvisioner constructs a GroupProvisioner. q may be nil; creation
// then runs inline on the caller's goroutine under the same lock. cache may
// be nil as well.
func NewGroupProvisioner(db *sql.DB, repos repomanager.RepositoryManager, c *cache.Cache, q *queue.Queue, timeout time.Duration, logger logging.Logger) *GroupProvisioner {
	return &GroupProvisioner{
		db:      db,
		repos:   repos,
		cache:   c,
		queue:   q,
		timeout: timeout,
		logger:  logger.With("module", "provisioner"),
	}
}

// Provision returns the group for attrs, creating one if no existing group
// intersects. The wait on the queued task is bounded by the configured
// timeout and fails with common.ErrProvisionTimeout; the task itself keeps
// running and its insert stays idempotent, so a client retry is safe.
func (p *GroupProvisioner) Provision(ctx context.Context, attrs []string) (*models.Group, error) {
	if p.queue == nil {
		return p.create(ctx, attrs)
	}

	wctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res, err := p.queue.Submit(wctx, func(taskCtx context.Context) (any, error) {
		return p.create(taskCtx, attrs)
	})
	if err != nil {
		if errors.Is(err, queue.ErrQueueClosed) {
			return p.create(ctx, attrs)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.ErrProvisionTimeout
		}
		return nil, err
	}

	v, err := res.Wait(wctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.ErrProvisionTimeout
		}
		return nil, err
	}

	return v.(*models.Group), nil
}

func (p *GroupProvisioner) create(ctx context.Context, attrs []string) (*models.Group, error) {
	canonical := models.CanonicalAttributes(attrs)
	candidate := models.SplitAttributes(canonical)

	var group *models.Group
	created := false

	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := p.repos.Groups(tx)

		if err := repo.AcquireProvisionLock(ctx); err != nil {
			return err
		}

		// Re-check under the lock: a racing signup may have created a
		// matching group between the caller's miss and now.
		existing, err := repo.List(ctx)
		if err != nil {
			return err
		}
		for i := range existing {
			if models.AttributesIntersect(candidate, models.SplitAttributes(existing[i].Members)) {
				group = &existing[i]
				return nil
			}
		}

		group, err = repo.Create(ctx, canonical)
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		p.logger.Info(ctx, "group provisioned", "group_id", group.ID, "members", group.Members)
	}

	if p.cache != nil {
		if err := p.cache.AppendGroup(ctx, group); err != nil {
			p.logger.Warn(ctx, "snapshot append failed", "group_id", group.ID, "error", err.Error())
		}
	}

	return group, nil
}
