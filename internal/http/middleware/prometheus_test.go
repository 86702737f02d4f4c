package middleware

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPromApp(t *testing.T) (*fiber.App, *PrometheusMiddleware, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	pm, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(pm.Handler())
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Get("/documents/:id", ok)
	app.Get("/files/*", ok)
	app.Delete("/files/*", ok)
	app.Get("/metrics", ok)
	app.Get("/healthz", ok)
	app.Put("/permissions", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusForbidden, "permission denied")
	})
	app.Post("/documents", func(c *fiber.Ctx) error {
		return fmt.Errorf("upload: %w", fiber.NewError(fiber.StatusRequestEntityTooLarge))
	})
	app.Get("/boom", func(c *fiber.Ctx) error { return fmt.Errorf("boom") })
	return app, pm, reg
}

func TestPrometheusMiddleware_Labels(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		route  string
		status string
	}{
		{"route pattern for document id", "GET", "/documents/123", "/documents/:id", "200"},
		{"wildcard for storage key", "GET", "/files/abc-report.pdf", "/files/*", "200"},
		{"delete on wildcard", "DELETE", "/files/abc-report.pdf", "/files/*", "200"},
		{"fiber error code", "PUT", "/permissions", "/permissions", "403"},
		{"wrapped fiber error code", "POST", "/documents", "/documents", "413"},
		{"plain error is 500", "GET", "/boom", "/boom", "500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, pm, _ := newPromApp(t)
			_, err := app.Test(httptest.NewRequest(tt.method, tt.target, nil))
			require.NoError(t, err)

			assert.Equal(t, float64(1), testutil.ToFloat64(pm.requestCount.WithLabelValues(tt.method, tt.route, tt.status)))
			assert.Equal(t, 1, testutil.CollectAndCount(pm.requestDuration))
		})
	}
}

func TestPrometheusMiddleware_SkipsScrapeAndHealth(t *testing.T) {
	app, _, reg := newPromApp(t)
	for _, target := range []string{"/metrics", "/healthz"} {
		_, err := app.Test(httptest.NewRequest("GET", target, nil))
		require.NoError(t, err)
	}

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		assert.Empty(t, mf.GetMetric(), mf.GetName())
	}
}

func TestNewPrometheusMiddleware_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)
	_, err = NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}
