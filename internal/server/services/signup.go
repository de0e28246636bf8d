package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/memahdii/social-network/internal/common"
	"github.com/memahdii/social-network/internal/logging"
	"github.com/memahdii/social-network/internal/server/models"
	"github.com/memahdii/social-network/internal/server/repositories/repomanager"
)

// SignupService runs the signup flow: canonicalize the attribute set, find
// a matching group or provision one, then create the user in it.
type SignupService struct {
	db          *sql.DB
	repos       repomanager.RepositoryManager
	matcher     *GroupMatcher
	provisioner *GroupProvisioner
	logger      logging.Logger
}

// NewSignupService constructs a SignupService.
func NewSignupService(db *sql.DB, repos repomanager.RepositoryManager, matcher *GroupMatcher, provisioner *GroupProvisioner, logger logging.Logger) *SignupService {
	return &SignupService{
		db:          db,
		repos:       repos,
		matcher:     matcher,
		provisioner: provisioner,
		logger:      logger.With("module", "signup"),
	}
}

// SignUp registers a new user. Attribute sets that are empty after
// canonicalization fail with common.ErrValidation.
func (s *SignupService) SignUp(ctx context.Context, attrs []string) (*models.User, error) {
	canonical := models.CanonicalAttributes(attrs)
	if canonical == "" {
		return nil, fmt.Errorf("%w: attributes are required", common.ErrValidation)
	}
	candidate := models.SplitAttributes(canonical)

	group, err := s.matcher.FindMatchingGroup(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if group == nil {
		group, err = s.provisioner.Provision(ctx, candidate)
		if err != nil {
			return nil, err
		}
	}

	user, err := s.repos.Users(s.db).Create(ctx, canonical, group.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user signed up", "user_id", user.ID, "group_id", group.ID)
	return user, nil
}
