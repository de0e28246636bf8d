package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/memahdii/social-network/internal/common"
	"github.com/memahdii/social-network/internal/logging"
	"github.com/memahdii/social-network/internal/server/cache"
	"github.com/memahdii/social-network/internal/server/models"
	"github.com/memahdii/social-network/internal/server/repositories/repomanager"
)

// UserService covers user mutations outside the signup flow: attribute
// replacement and deletion.
type UserService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	cache  *cache.Cache
	logger logging.Logger
}

// NewUserService constructs a UserService. cache may be nil.
func NewUserService(db *sql.DB, repos repomanager.RepositoryManager, c *cache.Cache, logger logging.Logger) *UserService {
	return &UserService{
		db:     db,
		repos:  repos,
		cache:  c,
		logger: logger.With("module", "users"),
	}
}

// UpdateAttributes replaces the user's attribute set with the canonical
// form of attrs. Group membership is intentionally left as assigned at
// signup, so the stored attributes can drift from the group's match set.
func (s *UserService) UpdateAttributes(ctx context.Context, userID int64, attrs []string) error {
	canonical := models.CanonicalAttributes(attrs)
	if canonical == "" {
		return fmt.Errorf("%w: attributes are required", common.ErrValidation)
	}

	if err := s.repos.Users(s.db).UpdateAttributes(ctx, userID, canonical); err != nil {
		return err
	}

	s.invalidate(ctx, userID)
	return nil
}

// Delete removes the user row. The group is kept even when this was its
// last member.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	if err := s.repos.Users(s.db).Delete(ctx, userID); err != nil {
		return err
	}

	s.invalidate(ctx, userID)
	return nil
}

func (s *UserService) invalidate(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		s.logger.Warn(ctx, "cache invalidation failed", "user_id", userID, "error", err.Error())
	}
}
