package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/memahdii/social-network/internal/common"
	"github.com/memahdii/social-network/internal/dbx"
	"github.com/memahdii/social-network/internal/logging"
	"github.com/memahdii/social-network/internal/server/cache"
	"github.com/memahdii/social-network/internal/server/models"
	"github.com/memahdii/social-network/internal/server/repositories/groups"
	"github.com/memahdii/social-network/internal/server/repositories/users"
)

// memStore is an in-memory stand-in for the relational store. It mimics the
// semantics the services rely on: serial ids, the unique constraint on
// groups.members, and conditional token updates.
type memStore struct {
	mu          sync.Mutex
	groups      []models.Group
	users       map[int64]*models.User
	nextGroupID int64
	nextUserID  int64

	groupListCalls int
	userGetCalls   int
}

func newMemStore() *memStore {
	return &memStore{users: make(map[int64]*models.User)}
}

type memGroupsRepo struct{ s *memStore }

func (r *memGroupsRepo) Create(ctx context.Context, members string) (*models.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.groups {
		if r.s.groups[i].Members == members {
			g := r.s.groups[i]
			return &g, nil
		}
	}
	r.s.nextGroupID++
	g := models.Group{ID: r.s.nextGroupID, Members: members}
	r.s.groups = append(r.s.groups, g)
	return &g, nil
}

func (r *memGroupsRepo) GetByID(ctx context.Context, id int64) (*models.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.groups {
		if r.s.groups[i].ID == id {
			g := r.s.groups[i]
			return &g, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memGroupsRepo) List(ctx context.Context) ([]models.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.groupListCalls++
	out := make([]models.Group, len(r.s.groups))
	copy(out, r.s.groups)
	return out, nil
}

func (r *memGroupsRepo) AcquireProvisionLock(ctx context.Context) error { return nil }

type memUsersRepo struct{ s *memStore }

func (r *memUsersRepo) Create(ctx context.Context, attributes string, groupID int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextUserID++
	u := &models.User{ID: r.s.nextUserID, Attributes: attributes, GroupID: groupID}
	r.s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (r *memUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.userGetCalls++
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsersRepo) SetTokenIfEmpty(ctx context.Context, id int64, token string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return "", common.ErrNotFound
	}
	if u.Token == "" {
		u.Token = token
	}
	return u.Token, nil
}

func (r *memUsersRepo) UpdateAttributes(ctx context.Context, id int64, attributes string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.Attributes = attributes
	return nil
}

func (r *memUsersRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r *memUsersRepo) ListByGroup(ctx context.Context, groupID int64) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.User
	for _, u := range r.s.users {
		if u.GroupID == groupID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memRepoManager struct{ s *memStore }

func (m *memRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *memRepoManager) Users(db dbx.DBTX) users.Repository                  { return &memUsersRepo{s: m.s} }
func (m *memRepoManager) Groups(db dbx.DBTX) groups.Repository                { return &memGroupsRepo{s: m.s} }

// --- shared helpers ---

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newMockDB returns a sqlmock DB with unordered expectations, suitable for
// transaction bookkeeping around the in-memory repos.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	mock.MatchExpectationsInOrder(false)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// expectTxs allows up to n begin/commit pairs on the mock.
func expectTxs(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func newTestRedisCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return cache.New(rdb, 5*time.Minute, 30*time.Second), mr
}
