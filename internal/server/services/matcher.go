// Package services contains the server-side business logic: group matching
// and provisioning, token issuance, group views, and the signup flow that
// ties them together.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/memahdii/social-network/internal/common"
	"github.com/memahdii/social-network/internal/logging"
	"github.com/memahdii/social-network/internal/server/cache"
	"github.com/memahdii/social-network/internal/server/models"
	"github.com/memahdii/social-network/internal/server/repositories/repomanager"
)

// GroupMatcher decides whether a candidate attribute set belongs to an
// existing group. It reads the groups snapshot from the cache when possible
// and falls back to the store, repopulating the snapshot on the way.
type GroupMatcher struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	cache  *cache.Cache
	logger logging.Logger
}

// NewGroupMatcher constructs a GroupMatcher. cache may be nil, in which
// case every lookup goes straight to the store.
func NewGroupMatcher(db *sql.DB, repos repomanager.RepositoryManager, c *cache.Cache, logger logging.Logger) *GroupMatcher {
	return &GroupMatcher{
		db:     db,
		repos:  repos,
		cache:  c,
		logger: logger.With("module", "matcher"),
	}
}

// FindMatchingGroup returns the first group whose stored attribute set
// shares at least one element with attrs, in snapshot order, or nil when
// no group intersects. Cache faults degrade silently to a store read.
func (m *GroupMatcher) FindMatchingGroup(ctx context.Context, attrs []string) (*models.Group, error) {
	groups, err := m.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	for i := range groups {
		if models.AttributesIntersect(attrs, models.SplitAttributes(groups[i].Members)) {
			return &groups[i], nil
		}
	}

	return nil, nil
}

func (m *GroupMatcher) snapshot(ctx context.Context) ([]models.Group, error) {
	if m.cache != nil {
		groups, err := m.cache.GroupSnapshot(ctx)
		if err == nil {
			return groups, nil
		}
		if !errors.Is(err, common.ErrCacheMiss) {
			m.logger.Warn(ctx, "group snapshot unavailable, reading store", "error", err.Error())
		}
	}

	groups, err := m.repos.Groups(m.db).List(ctx)
	if err != nil {
		return nil, err
	}

	if m.cache != nil {
		if err := m.cache.RefreshGroupSnapshot(ctx, groups); err != nil {
			m.logger.Warn(ctx, "group snapshot refresh failed", "error", err.Error())
		}
	}

	return groups, nil
}
