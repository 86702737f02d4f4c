package verifier

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/metrics"
)

func md5Hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

func TestFilesURL(t *testing.T) {
	build := FilesURL("http://docs.example.com/")
	assert.Equal(t, "http://docs.example.com/files/license.png", build("license.png"))
	assert.Equal(t, "http://docs.example.com/files/my%20file%2Fx.pdf", build("my file/x.pdf"))
}

func TestHTTPVerifier_ComputeDigest(t *testing.T) {
	content := []byte("driver license scan")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.EscapedPath() {
		case "/files/license.png":
			_, _ = w.Write(content)
		case "/files/empty.txt":
			w.WriteHeader(http.StatusOK)
		case "/files/slow.bin":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write(content)
		case "/files/short.bin":
			w.Header().Set("Content-Length", "100")
			_, _ = w.Write([]byte("only a few bytes"))
		default:
			http.Error(w, `{"error":"No file exists"}`, http.StatusNotFound)
		}
	}))
	defer srv.Close()

	m, err := metrics.NewDomain(prometheus.NewRegistry())
	require.NoError(t, err)
	v := New(FilesURL(srv.URL), 50*time.Millisecond, WithHTTPClient(srv.Client()), WithMetrics(m))
	ctx := context.Background()

	t.Run("digest matches served bytes", func(t *testing.T) {
		got, err := v.ComputeDigest(ctx, "license.png")
		require.NoError(t, err)
		assert.Equal(t, md5Hex(content), got)
	})

	t.Run("zero-length content has a digest", func(t *testing.T) {
		got, err := v.ComputeDigest(ctx, "empty.txt")
		require.NoError(t, err)
		assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", got)
	})

	t.Run("not found", func(t *testing.T) {
		got, err := v.ComputeDigest(ctx, "missing.png")
		assert.ErrorIs(t, err, ErrRetrievalFailure)
		assert.Empty(t, got)
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := v.ComputeDigest(ctx, "slow.bin")
		assert.ErrorIs(t, err, ErrRetrievalFailure)
	})

	t.Run("truncated body", func(t *testing.T) {
		_, err := v.ComputeDigest(ctx, "short.bin")
		assert.ErrorIs(t, err, ErrRetrievalFailure)
	})

	t.Run("unreachable host", func(t *testing.T) {
		dead := New(FilesURL("http://127.0.0.1:1"), time.Second)
		_, err := dead.ComputeDigest(ctx, "license.png")
		assert.ErrorIs(t, err, ErrRetrievalFailure)
	})
}

func TestNew_DefaultTimeout(t *testing.T) {
	v := New(FilesURL("http://localhost"), 0)
	assert.Equal(t, defaultTimeout, v.timeout)
	assert.NotNil(t, v.client)
}
