// Package verifier computes content digests of stored documents as downstream
// consumers receive them, by fetching each blob through the public retrieval URL.
package verifier

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docvault/internal/metrics"
)

// ErrRetrievalFailure means the blob could not be fetched completely, so no digest exists.
var ErrRetrievalFailure = errors.New("retrieval failure")

const defaultTimeout = 10 * time.Second

// HashVerifier computes the digest of the content stored under key.
type HashVerifier interface {
	ComputeDigest(ctx context.Context, key string) (string, error)
}

// URLBuilder maps a storage key to the URL that serves its current bytes.
type URLBuilder func(key string) string

// FilesURL serves keys from baseURL + "/files/<escaped key>".
func FilesURL(baseURL string) URLBuilder {
	base := strings.TrimRight(baseURL, "/")
	return func(key string) string {
		return base + "/files/" + url.PathEscape(key)
	}
}

// HTTPVerifier fetches blobs over HTTP and returns the lowercase hex MD5 of the body.
// It holds no locks, so the retrieval handler it calls may run concurrently with uploads.
type HTTPVerifier struct {
	client   *http.Client
	buildURL URLBuilder
	timeout  time.Duration
	metrics  *metrics.Domain
}

// Option customizes an HTTPVerifier.
type Option func(*HTTPVerifier)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(c *http.Client) Option {
	return func(v *HTTPVerifier) { v.client = c }
}

// WithMetrics records one outcome per ComputeDigest call.
func WithMetrics(m *metrics.Domain) Option {
	return func(v *HTTPVerifier) { v.metrics = m }
}

// New returns a verifier bounded by timeout; a non-positive timeout uses 10s.
func New(buildURL URLBuilder, timeout time.Duration, opts ...Option) *HTTPVerifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	v := &HTTPVerifier{
		client:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		buildURL: buildURL,
		timeout:  timeout,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

var _ HashVerifier = (*HTTPVerifier)(nil)

func (v *HTTPVerifier) ComputeDigest(ctx context.Context, key string) (string, error) {
	digest, err := v.fetchDigest(ctx, key)
	v.metrics.HashVerification(err == nil)
	return digest, err
}

func (v *HTTPVerifier) fetchDigest(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.buildURL(key), nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrRetrievalFailure, err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRetrievalFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: unexpected status %d", ErrRetrievalFailure, resp.StatusCode)
	}

	h := md5.New()
	n, err := io.Copy(h, resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrRetrievalFailure, err)
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return "", fmt.Errorf("%w: short body: got %d of %d bytes", ErrRetrievalFailure, n, resp.ContentLength)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
