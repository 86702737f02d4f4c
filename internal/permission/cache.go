// Package permission serves the role -> permissions table from an in-memory
// snapshot that is refreshed whenever a new table is written.
package permission

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"docvault/internal/metrics"
	"docvault/internal/model"
	"docvault/internal/repository"
)

// Cache holds the latest permission snapshot. Reads never block; refreshes are
// serialized so a later refresh never installs an older snapshot than an earlier one.
type Cache struct {
	store   repository.PermissionTableRepository
	log     *zap.Logger
	metrics *metrics.Domain

	mu      sync.Mutex
	current atomic.Pointer[model.PermissionSnapshot]
}

func NewCache(store repository.PermissionTableRepository, log *zap.Logger, m *metrics.Domain) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{store: store, log: log.With(zap.String("component", "permission_cache")), metrics: m}
}

// Init loads the first snapshot. Callers should not serve traffic if it fails.
func (c *Cache) Init(ctx context.Context) error {
	return c.Refresh(ctx)
}

// Refresh replaces the cached value with the latest stored snapshot.
// An empty store yields an empty table.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.store.Latest(ctx)
	if err != nil {
		c.metrics.PermissionRefresh(false, 0)
		return fmt.Errorf("refresh permission cache: %w", err)
	}
	if snap == nil {
		snap = &model.PermissionSnapshot{Table: model.PermissionTable{}}
	}
	c.current.Store(snap)

	var created float64
	if !snap.CreatedAt.IsZero() {
		created = float64(snap.CreatedAt.Unix())
	}
	c.metrics.PermissionRefresh(true, created)
	c.log.Debug("permission cache refreshed",
		zap.String("snapshot_id", snap.ID),
		zap.Int("roles", len(snap.Table)),
	)
	return nil
}

// Read returns a copy of the cached table; it is empty before the first refresh.
func (c *Cache) Read() model.PermissionTable {
	snap := c.current.Load()
	if snap == nil {
		return model.PermissionTable{}
	}
	return snap.Table.Clone()
}

// SnapshotID returns the id of the cached snapshot, or "" when none is stored.
func (c *Cache) SnapshotID() string {
	snap := c.current.Load()
	if snap == nil {
		return ""
	}
	return snap.ID
}

// Allows reports whether role holds permission. An empty table means no rules
// are configured and every request is allowed.
func (c *Cache) Allows(role, permission string) bool {
	snap := c.current.Load()
	if snap == nil || len(snap.Table) == 0 {
		return true
	}
	return slices.Contains(snap.Table[role], permission)
}

// HandleInvalidation refreshes the cache after another process announced snapshotID.
func (c *Cache) HandleInvalidation(ctx context.Context, snapshotID string) {
	if snapshotID != "" && snapshotID == c.SnapshotID() {
		return
	}
	if err := c.Refresh(ctx); err != nil {
		c.log.Error("refresh after invalidation failed",
			zap.String("snapshot_id", snapshotID),
			zap.Error(err),
		)
	}
}
