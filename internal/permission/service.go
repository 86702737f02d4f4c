package permission

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"docvault/internal/model"
	"docvault/internal/repository"
)

var ErrInvalidTable = errors.New("invalid permission table")

// Notifier announces a newly stored snapshot to other processes.
type Notifier interface {
	Publish(ctx context.Context, snapshotID string) error
}

type tableInput struct {
	Table model.PermissionTable `validate:"dive,keys,required,endkeys,dive,required"`
}

// Service writes permission tables and keeps the local cache in step with the store.
type Service struct {
	store    repository.PermissionTableRepository
	cache    *Cache
	notifier Notifier
	validate *validator.Validate
	log      *zap.Logger
}

type ServiceOption func(*Service)

// WithNotifier publishes every insert; without it only this process's cache refreshes.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

func NewService(store repository.PermissionTableRepository, cache *Cache, log *zap.Logger, opts ...ServiceOption) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:    store,
		cache:    cache,
		validate: validator.New(),
		log:      log.With(zap.String("component", "permission_service")),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Current returns the table this process enforces, read from the cache without touching the store.
func (s *Service) Current() model.PermissionTable {
	return s.cache.Read()
}

// GetLatest returns the most recently stored table, or an empty table if none exists.
func (s *Service) GetLatest(ctx context.Context) (model.PermissionTable, error) {
	snap, err := s.store.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load permission table: %w", err)
	}
	if snap == nil || snap.Table == nil {
		return model.PermissionTable{}, nil
	}
	return snap.Table, nil
}

// Insert stores table as a new snapshot and returns once the local cache holds it.
// The table replaces the previous one entirely.
func (s *Service) Insert(ctx context.Context, table model.PermissionTable) (*model.PermissionSnapshot, error) {
	if err := s.validate.Struct(tableInput{Table: table}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	snap, err := s.store.Insert(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("store permission table: %w", err)
	}
	if err := s.cache.Refresh(ctx); err != nil {
		s.log.Error("permission table stored but cache refresh failed",
			zap.String("snapshot_id", snap.ID),
			zap.Error(err),
		)
		return nil, err
	}
	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, snap.ID); err != nil {
			s.log.Warn("publish permission change failed", zap.String("snapshot_id", snap.ID), zap.Error(err))
		}
	}
	s.log.Info("permission table updated", zap.String("snapshot_id", snap.ID), zap.Int("roles", len(snap.Table)))
	return snap, nil
}
