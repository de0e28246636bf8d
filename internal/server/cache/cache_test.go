package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memahdii/social-network/internal/common"
	"github.com/memahdii/social-network/internal/server/models"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb, 5*time.Minute, 30*time.Second), mr
}

func TestGroupSnapshot_MissWhenCold(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.GroupSnapshot(context.Background())
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestGroupSnapshot_RoundTripOrderedByID(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	groups := []models.Group{
		{ID: 2, Members: "c,d"},
		{ID: 1, Members: "a,b"},
	}
	require.NoError(t, c.RefreshGroupSnapshot(ctx, groups))

	got, err := c.GroupSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "a,b", got[0].Members)
	assert.Equal(t, int64(2), got[1].ID)
}

func TestRefreshGroupSnapshot_ReplacesStaleEntries(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.RefreshGroupSnapshot(ctx, []models.Group{{ID: 1, Members: "old"}}))
	require.NoError(t, c.RefreshGroupSnapshot(ctx, []models.Group{{ID: 2, Members: "new"}}))

	got, err := c.GroupSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestRefreshGroupSnapshot_EmptyClearsKey(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.RefreshGroupSnapshot(ctx, []models.Group{{ID: 1, Members: "x"}}))
	require.NoError(t, c.RefreshGroupSnapshot(ctx, nil))

	_, err := c.GroupSnapshot(ctx)
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestAppendGroup_IsIdempotent(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	g := &models.Group{ID: 3, Members: "x,y"}
	require.NoError(t, c.AppendGroup(ctx, g))
	require.NoError(t, c.AppendGroup(ctx, g))

	got, err := c.GroupSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x,y", got[0].Members)
}

func TestSnapshot_ExpiresWithTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.AppendGroup(ctx, &models.Group{ID: 1, Members: "a"}))
	mr.FastForward(6 * time.Minute)

	_, err := c.GroupSnapshot(ctx)
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestToken_MissThenHit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.Token(ctx, 1)
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, c.SetToken(ctx, 1, "deadbeef"))

	got, err := c.Token(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", got)
}

func TestGroupView_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	view := &models.GroupView{
		GroupID: 1,
		Members: []models.GroupMember{
			{ID: 1, Attributes: []string{"blue", "red"}},
			{ID: 2, Attributes: []string{"blue", "green"}},
		},
	}
	require.NoError(t, c.SetGroupView(ctx, 1, view))

	got, err := c.GroupView(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, view, got)
}

func TestGroupView_ExpiresWithViewTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetGroupView(ctx, 1, &models.GroupView{GroupID: 1}))
	mr.FastForward(time.Minute)

	_, err := c.GroupView(ctx, 1)
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestInvalidateUser_DropsTokenAndView(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetToken(ctx, 1, "tok"))
	require.NoError(t, c.SetGroupView(ctx, 1, &models.GroupView{GroupID: 1}))
	require.NoError(t, c.InvalidateUser(ctx, 1))

	_, err := c.Token(ctx, 1)
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	_, err = c.GroupView(ctx, 1)
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestUnavailable_WrapsSentinel(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, err := c.GroupSnapshot(context.Background())
	if !errors.Is(err, common.ErrCacheUnavailable) {
		t.Fatalf("want common.ErrCacheUnavailable, got %v", err)
	}
	err = c.SetToken(context.Background(), 1, "tok")
	if !errors.Is(err, common.ErrCacheUnavailable) {
		t.Fatalf("want common.ErrCacheUnavailable, got %v", err)
	}
}
