// Package cache implements the best-effort Redis layer in front of the
// store: the groups snapshot used for matching, per-user token memoization,
// and the short-lived group-view response cache.
//
// Every method can fail with common.ErrCacheUnavailable when Redis is not
// reachable; callers are expected to fall back to the store and must never
// surface cache faults to API clients.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/memahdii/social-network/internal/common"
	"github.com/memahdii/social-network/internal/server/models"
)

// groupsKey holds the snapshot as a hash keyed by group id, so a group can
// never appear twice regardless of how many writers race on it.
const groupsKey = "groups"

func tokenKey(userID int64) string {
	return fmt.Sprintf("user_token_%d", userID)
}

func viewKey(userID int64) string {
	return fmt.Sprintf("group_view_%d", userID)
}

type Cache struct {
	rdb     *redis.Client
	ttl     time.Duration
	viewTTL time.Duration
}

// New wraps a Redis client. ttl applies to the snapshot and token keys,
// viewTTL bounds the staleness window of cached group views.
func New(rdb *redis.Client, ttl, viewTTL time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, viewTTL: viewTTL}
}

func wrapUnavailable(err error) error {
	return fmt.Errorf("%w: %v", common.ErrCacheUnavailable, err)
}

// GroupSnapshot returns the cached groups ordered by id, or ErrCacheMiss
// when the snapshot is cold.
func (c *Cache) GroupSnapshot(ctx context.Context) ([]models.Group, error) {
	fields, err := c.rdb.HGetAll(ctx, groupsKey).Result()
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	if len(fields) == 0 {
		return nil, common.ErrCacheMiss
	}

	groups := make([]models.Group, 0, len(fields))
	for field, members := range fields {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			// Corrupt field; treat the whole snapshot as cold.
			return nil, common.ErrCacheMiss
		}
		groups = append(groups, models.Group{ID: id, Members: members})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })

	return groups, nil
}

// RefreshGroupSnapshot atomically replaces the snapshot with the given
// groups and rearms the TTL.
func (c *Cache) RefreshGroupSnapshot(ctx context.Context, groups []models.Group) error {
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, groupsKey)
	if len(groups) > 0 {
		fields := make(map[string]string, len(groups))
		for _, g := range groups {
			fields[strconv.FormatInt(g.ID, 10)] = g.Members
		}
		pipe.HSet(ctx, groupsKey, fields)
		pipe.Expire(ctx, groupsKey, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

// AppendGroup adds a newly provisioned group to the snapshot. Writing into
// the hash is idempotent, so replays after provisioning retries are harmless.
func (c *Cache) AppendGroup(ctx context.Context, g *models.Group) error {
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, groupsKey, strconv.FormatInt(g.ID, 10), g.Members)
	pipe.Expire(ctx, groupsKey, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

// Token returns the memoized token for the user, or ErrCacheMiss.
func (c *Cache) Token(ctx context.Context, userID int64) (string, error) {
	token, err := c.rdb.Get(ctx, tokenKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", common.ErrCacheMiss
		}
		return "", wrapUnavailable(err)
	}
	return token, nil
}

// SetToken memoizes the user's token.
func (c *Cache) SetToken(ctx context.Context, userID int64, token string) error {
	if err := c.rdb.Set(ctx, tokenKey(userID), token, c.ttl).Err(); err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

// GroupView returns the cached response for the user's group view, or
// ErrCacheMiss.
func (c *Cache) GroupView(ctx context.Context, userID int64) (*models.GroupView, error) {
	raw, err := c.rdb.Get(ctx, viewKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrCacheMiss
		}
		return nil, wrapUnavailable(err)
	}

	view := &models.GroupView{}
	if err := json.Unmarshal(raw, view); err != nil {
		return nil, common.ErrCacheMiss
	}
	return view, nil
}

// SetGroupView caches the computed response under the short view TTL.
func (c *Cache) SetGroupView(ctx context.Context, userID int64, view *models.GroupView) error {
	raw, err := json.Marshal(view)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, viewKey(userID), raw, c.viewTTL).Err(); err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

// InvalidateUser drops the user's token and view keys. Used on user
// deletion and attribute updates.
func (c *Cache) InvalidateUser(ctx context.Context, userID int64) error {
	if err := c.rdb.Del(ctx, tokenKey(userID), viewKey(userID)).Err(); err != nil {
		return wrapUnavailable(err)
	}
	return nil
}
