package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString(GetRequestID(c))
	})

	tests := []struct {
		name     string
		header   string
		wantSame bool
	}{
		{name: "generated when absent", header: "", wantSame: false},
		{name: "client id kept", header: "test-id-123", wantSame: true},
		{name: "id with spaces replaced", header: "two words", wantSame: false},
		{name: "overlong id replaced", header: strings.Repeat("a", 129), wantSame: false},
		{name: "id at length limit kept", header: strings.Repeat("a", 128), wantSame: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)

			got := resp.Header.Get(RequestIDHeader)
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, got, string(body))
			if tt.wantSame {
				assert.Equal(t, tt.header, got)
				return
			}
			_, err = uuid.Parse(got)
			assert.NoError(t, err)
		})
	}
}

func TestGetRequestIDWithoutMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("[" + GetRequestID(c) + "]")
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "[]", string(body))
}

type tableChecker map[string][]string

func (t tableChecker) Allows(role, perm string) bool {
	if len(t) == 0 {
		return true
	}
	for _, p := range t[role] {
		if p == perm {
			return true
		}
	}
	return false
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name       string
		table      tableChecker
		role       string
		wantStatus int
	}{
		{name: "empty table allows", table: tableChecker{}, role: "", wantStatus: fiber.StatusOK},
		{name: "role holds permission", table: tableChecker{"owner": {PermDocumentDelete}}, role: "owner", wantStatus: fiber.StatusOK},
		{name: "role lacks permission", table: tableChecker{"notary": {PermDocumentRead}}, role: "notary", wantStatus: fiber.StatusForbidden},
		{name: "missing role header", table: tableChecker{"owner": {PermDocumentDelete}}, role: "", wantStatus: fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Delete("/files/*", RequirePermission(tt.table, PermDocumentDelete), func(c *fiber.Ctx) error {
				return c.SendString("ok")
			})

			req := httptest.NewRequest("DELETE", "/files/k", nil)
			if tt.role != "" {
				req.Header.Set(RoleHeader, tt.role)
			}
			resp, _ := app.Test(req)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	loc := time.UTC

	// Logger usually depends on RequestID for request_id field
	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, loc))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	// Verify log output
	var logData map[string]any
	err := json.Unmarshal(buf.Bytes(), &logData)
	assert.NoError(t, err)

	assert.NotEmpty(t, logData["request_id"])
	assert.Equal(t, "GET", logData["method"])
	assert.Equal(t, "/test", logData["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), logData["status"])
	assert.NotNil(t, logData["latency"])
	assert.NotEmpty(t, logData["ts"])
	assert.Equal(t, "http", logData["component"])
	assert.NotContains(t, logData, "trace_id", "no span on a plain request")
}
