package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/memahdii/social-network/internal/common"
	"github.com/memahdii/social-network/internal/logging"
	"github.com/memahdii/social-network/internal/server/cache"
	"github.com/memahdii/social-network/internal/server/repositories/repomanager"
)

// tokenSize is the number of random bytes per token; the hex form is twice
// as long.
const tokenSize = 32

// TokenIssuer issues and memoizes the opaque per-user credential. A user's
// token is set at most once; repeated and concurrent calls converge on the
// same value because the store write is a conditional update.
type TokenIssuer struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	cache  *cache.Cache
	logger logging.Logger
}

// NewTokenIssuer constructs a TokenIssuer. cache may be nil.
func NewTokenIssuer(db *sql.DB, repos repomanager.RepositoryManager, c *cache.Cache, logger logging.Logger) *TokenIssuer {
	return &TokenIssuer{
		db:     db,
		repos:  repos,
		cache:  c,
		logger: logger.With("module", "tokens"),
	}
}

// IssueOrFetchToken returns the user's token, generating and persisting one
// on first signin. Unknown users yield common.ErrNotFound.
func (s *TokenIssuer) IssueOrFetchToken(ctx context.Context, userID int64) (string, error) {
	if s.cache != nil {
		token, err := s.cache.Token(ctx, userID)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, common.ErrCacheMiss) {
			s.logger.Warn(ctx, "token cache unavailable", "user_id", userID, "error", err.Error())
		}
	}

	repo := s.repos.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if user.Token != "" {
		s.memoize(ctx, userID, user.Token)
		return user.Token, nil
	}

	candidate, err := common.MakeRandHexString(tokenSize)
	if err != nil {
		return "", err
	}

	// COALESCE semantics in the repo make this a single atomic
	// set-if-null; the returned value is the winner even when a concurrent
	// first signin got there first.
	token, err := repo.SetTokenIfEmpty(ctx, userID, candidate)
	if err != nil {
		return "", err
	}

	s.memoize(ctx, userID, token)
	return token, nil
}

func (s *TokenIssuer) memoize(ctx context.Context, userID int64, token string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetToken(ctx, userID, token); err != nil {
		s.logger.Warn(ctx, "token cache write failed", "user_id", userID, "error", err.Error())
	}
}
