package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBolt(t *testing.T) *BoltStorage {
	t.Helper()
	s, err := NewBolt(filepath.Join(t.TempDir(), "nested", "blobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBoltStorage_PutGet(t *testing.T) {
	s := newTestBolt(t)
	ctx := context.Background()

	info, err := s.Put(ctx, "license.png", strings.NewReader("png-bytes"), PutObjectOptions{
		Size:        -1,
		ContentType: "image/png",
		Metadata:    map[string]string{"original-filename": "license.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), info.Size)

	rc, got, err := s.Get(ctx, "license.png")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)

	assert.Equal(t, "png-bytes", string(body))
	assert.Equal(t, "image/png", got.ContentType)
	assert.Equal(t, "license.png", got.Metadata["original-filename"])
}

func TestBoltStorage_ZeroLengthIsNotMissing(t *testing.T) {
	s := newTestBolt(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "empty.txt", strings.NewReader(""), PutObjectOptions{Size: 0})
	require.NoError(t, err)

	rc, info, err := s.Get(ctx, "empty.txt")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, int64(0), info.Size)

	_, _, err = s.Get(ctx, "missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoltStorage_Overwrite(t *testing.T) {
	s := newTestBolt(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "k", strings.NewReader("first"), PutObjectOptions{})
	require.NoError(t, err)
	_, err = s.Put(ctx, "k", strings.NewReader("second"), PutObjectOptions{})
	require.NoError(t, err)

	rc, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "second", string(body))
}

func TestBoltStorage_Delete(t *testing.T) {
	s := newTestBolt(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "k", strings.NewReader("data"), PutObjectOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "k"))
	assert.ErrorIs(t, s.Delete(ctx, "k"), ErrNotFound)

	_, _, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoltStorage_CanceledContext(t *testing.T) {
	s := newTestBolt(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, "k", strings.NewReader("data"), PutObjectOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen(t *testing.T) {
	t.Run("bolt", func(t *testing.T) {
		s, err := Open(context.Background(), configFor("bolt", filepath.Join(t.TempDir(), "b.db")))
		require.NoError(t, err)
		require.IsType(t, &BoltStorage{}, s)
		_ = s.(*BoltStorage).Close()
	})

	t.Run("minio without endpoint", func(t *testing.T) {
		s, err := Open(context.Background(), configFor("minio", ""))
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Nil(t, s)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(context.Background(), configFor("ftp", ""))
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.ErrorContains(t, err, `unknown storage driver "ftp"`)
	})
}
