package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketBlobs = []byte("blobs")
	bucketInfo  = []byte("blob_info")
)

// BoltStorage keeps blobs in a single bbolt file. It suits single-node deployments
// and local development where running an S3 endpoint is not worth it.
type BoltStorage struct {
	db *bbolt.DB
}

type boltInfo struct {
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// NewBolt opens or creates the bbolt database at path.
// The parent directory is created if it does not exist.
func NewBolt(path string) (*BoltStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketBlobs, bucketInfo} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStorage{db: db}, nil
}

// Close closes the underlying database file.
func (b *BoltStorage) Close() error { return b.db.Close() }

// Put reads r fully; bbolt values are written in one transaction.
func (b *BoltStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("read content: %w", err)
	}
	meta := boltInfo{
		Size:         int64(len(data)),
		ContentType:  opt.ContentType,
		LastModified: time.Now().UTC(),
		Metadata:     opt.Metadata,
	}
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return ObjectInfo{}, err
	}
	err = b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketBlobs).Put([]byte(key), data); err != nil {
			return err
		}
		return tx.Bucket(bucketInfo).Put([]byte(key), rawMeta)
	})
	if err != nil {
		return ObjectInfo{}, err
	}
	return meta.objectInfo(key), nil
}

// Get copies the value out of the read transaction; bbolt memory is only valid inside it.
func (b *BoltStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}
	var (
		data []byte
		meta boltInfo
	)
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketBlobs).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		data = bytes.Clone(v)
		if raw := tx.Bucket(bucketInfo).Get([]byte(key)); raw != nil {
			if err := json.Unmarshal(raw, &meta); err != nil {
				return fmt.Errorf("decode object info: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	meta.Size = int64(len(data))
	return io.NopCloser(bytes.NewReader(data)), meta.objectInfo(key), nil
}

func (b *BoltStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		blobs := tx.Bucket(bucketBlobs)
		if blobs.Get([]byte(key)) == nil {
			return ErrNotFound
		}
		if err := blobs.Delete([]byte(key)); err != nil {
			return err
		}
		return tx.Bucket(bucketInfo).Delete([]byte(key))
	})
}

func (i boltInfo) objectInfo(key string) ObjectInfo {
	return ObjectInfo{
		Key:          key,
		Size:         i.Size,
		ContentType:  i.ContentType,
		LastModified: i.LastModified,
		Metadata:     i.Metadata,
	}
}
