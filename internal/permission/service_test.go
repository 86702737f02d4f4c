package permission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docvault/internal/model"
	repoMocks "docvault/internal/repository/mocks"
)

type recordingNotifier struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (n *recordingNotifier) Publish(_ context.Context, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, id)
	return n.err
}

func newService(store *memStore, opts ...ServiceOption) (*Service, *Cache) {
	c := NewCache(store, nil, nil)
	return NewService(store, c, nil, opts...), c
}

func TestService_GetLatest(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store returns empty table", func(t *testing.T) {
		svc, _ := newService(&memStore{})
		got, err := svc.GetLatest(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("second insert replaces the first", func(t *testing.T) {
		svc, _ := newService(&memStore{})
		_, err := svc.Insert(ctx, model.PermissionTable{"notary": {"read"}})
		require.NoError(t, err)

		got, err := svc.GetLatest(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.PermissionTable{"notary": {"read"}}, got)

		_, err = svc.Insert(ctx, model.PermissionTable{"owner": {"write"}})
		require.NoError(t, err)

		got, err = svc.GetLatest(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.PermissionTable{"owner": {"write"}}, got)
	})

	t.Run("store error", func(t *testing.T) {
		mStore := new(repoMocks.MockPermissionTableRepository)
		mStore.On("Latest", ctx).Return(nil, errors.New("conn refused"))
		svc := NewService(mStore, NewCache(mStore, nil, nil), nil)

		_, err := svc.GetLatest(ctx)
		assert.ErrorContains(t, err, "conn refused")
	})
}

func TestService_CurrentReadsCache(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	svc, _ := newService(store)

	assert.Equal(t, model.PermissionTable{}, svc.Current())

	_, err := svc.Insert(ctx, model.PermissionTable{"notary": {"read"}})
	require.NoError(t, err)
	assert.Equal(t, model.PermissionTable{"notary": {"read"}}, svc.Current())

	// A write that bypasses this process stays invisible until the cache refreshes.
	_, err = store.Insert(ctx, model.PermissionTable{"owner": {"write"}})
	require.NoError(t, err)
	assert.Equal(t, model.PermissionTable{"notary": {"read"}}, svc.Current())

	latest, err := svc.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PermissionTable{"owner": {"write"}}, latest)
}

func TestService_FirstInsertClosesOpenGates(t *testing.T) {
	ctx := context.Background()
	svc, cache := newService(&memStore{})

	assert.True(t, cache.Allows("", "permission:write"))
	assert.True(t, cache.Allows("anyone", "permission:write"))

	_, err := svc.Insert(ctx, model.PermissionTable{"admin": {"permission:write"}})
	require.NoError(t, err)

	assert.True(t, cache.Allows("admin", "permission:write"))
	assert.False(t, cache.Allows("anyone", "permission:write"))
	assert.False(t, cache.Allows("", "permission:write"))
}

func TestService_InsertRefreshesCache(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		table model.PermissionTable
		want  model.PermissionTable
	}{
		{name: "single role", table: model.PermissionTable{"notary": {"read"}}, want: model.PermissionTable{"notary": {"read"}}},
		{name: "empty table", table: model.PermissionTable{}, want: model.PermissionTable{}},
		{name: "nil table stored as empty", table: nil, want: model.PermissionTable{}},
		{name: "role without permissions", table: model.PermissionTable{"guest": {}}, want: model.PermissionTable{"guest": {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			svc, cache := newService(&memStore{}, WithNotifier(notifier))
			require.NoError(t, cache.Init(ctx))

			snap, err := svc.Insert(ctx, tt.table)
			require.NoError(t, err)

			assert.Equal(t, tt.want, cache.Read())
			assert.Equal(t, snap.ID, cache.SnapshotID())
			assert.Equal(t, []string{snap.ID}, notifier.ids)
		})
	}
}

func TestService_InsertValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(&memStore{})

	_, err := svc.Insert(ctx, model.PermissionTable{"": {"read"}})
	assert.ErrorIs(t, err, ErrInvalidTable)

	_, err = svc.Insert(ctx, model.PermissionTable{"notary": {""}})
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func TestService_InsertFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("store failure leaves cache untouched", func(t *testing.T) {
		mStore := new(repoMocks.MockPermissionTableRepository)
		mStore.On("Insert", ctx, mock.Anything).Return(nil, errors.New("disk full"))
		cache := NewCache(mStore, nil, nil)
		svc := NewService(mStore, cache, nil)

		_, err := svc.Insert(ctx, model.PermissionTable{"a": {"x"}})
		assert.ErrorContains(t, err, "disk full")
		assert.Empty(t, cache.Read())
		mStore.AssertNotCalled(t, "Latest", mock.Anything)
	})

	t.Run("refresh failure is reported", func(t *testing.T) {
		mStore := new(repoMocks.MockPermissionTableRepository)
		mStore.On("Insert", ctx, mock.Anything).Return(&model.PermissionSnapshot{ID: "9"}, nil)
		mStore.On("Latest", ctx).Return(nil, errors.New("timeout"))
		notifier := &recordingNotifier{}
		svc := NewService(mStore, NewCache(mStore, nil, nil), nil, WithNotifier(notifier))

		_, err := svc.Insert(ctx, model.PermissionTable{"a": {"x"}})
		assert.ErrorContains(t, err, "timeout")
		assert.Empty(t, notifier.ids)
	})

	t.Run("publish failure does not fail the insert", func(t *testing.T) {
		notifier := &recordingNotifier{err: errors.New("redis gone")}
		svc, cache := newService(&memStore{}, WithNotifier(notifier))

		_, err := svc.Insert(ctx, model.PermissionTable{"a": {"x"}})
		require.NoError(t, err)
		assert.Equal(t, model.PermissionTable{"a": {"x"}}, cache.Read())
	})
}

func TestService_ConcurrentInsertsConverge(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	svc, cache := newService(store)
	require.NoError(t, cache.Init(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Insert(ctx, model.PermissionTable{fmt.Sprintf("role-%d", i): {"read"}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	latest, err := svc.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, latest, cache.Read())
	assert.Equal(t, "20", cache.SnapshotID())
}
