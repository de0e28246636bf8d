package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/memahdii/social-network/internal/common"
	"github.com/memahdii/social-network/internal/logging"
	"github.com/memahdii/social-network/internal/server/cache"
	"github.com/memahdii/social-network/internal/server/models"
	"github.com/memahdii/social-network/internal/server/repositories/repomanager"
)

// GroupQueryService assembles the read model for a group and its members.
// Responses may be served from the short-TTL view cache; staleness is
// bounded by that TTL.
type GroupQueryService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	cache  *cache.Cache
	logger logging.Logger
}

// NewGroupQueryService constructs a GroupQueryService. cache may be nil.
func NewGroupQueryService(db *sql.DB, repos repomanager.RepositoryManager, c *cache.Cache, logger logging.Logger) *GroupQueryService {
	return &GroupQueryService{
		db:     db,
		repos:  repos,
		cache:  c,
		logger: logger.With("module", "groupquery"),
	}
}

// GetGroupView returns the group of the given user together with all its
// members. Unknown users yield common.ErrNotFound. A user row referencing a
// missing group is surfaced as common.ErrIntegrity, never swallowed.
func (s *GroupQueryService) GetGroupView(ctx context.Context, userID int64) (*models.GroupView, error) {
	if s.cache != nil {
		view, err := s.cache.GroupView(ctx, userID)
		if err == nil {
			return view, nil
		}
		if !errors.Is(err, common.ErrCacheMiss) {
			s.logger.Warn(ctx, "view cache unavailable", "user_id", userID, "error", err.Error())
		}
	}

	usersRepo := s.repos.Users(s.db)

	user, err := usersRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	group, err := s.repos.Groups(s.db).GetByID(ctx, user.GroupID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d references missing group %d", common.ErrIntegrity, userID, user.GroupID)
		}
		return nil, err
	}

	members, err := usersRepo.ListByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	view := &models.GroupView{
		GroupID: group.ID,
		Members: make([]models.GroupMember, 0, len(members)),
	}
	for _, m := range members {
		view.Members = append(view.Members, models.GroupMember{
			ID:         m.ID,
			Attributes: models.SplitAttributes(m.Attributes),
		})
	}

	if s.cache != nil {
		if err := s.cache.SetGroupView(ctx, userID, view); err != nil {
			s.logger.Warn(ctx, "view cache write failed", "user_id", userID, "error", err.Error())
		}
	}

	return view, nil
}
