package middleware

import (
	"bytes"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, reqRate float64, burst int) (*fiber.App, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	m := New(logger, reqRate, burst)
	app := fiber.New()
	app.Use(m.NewRequestIDMiddleware(), m.NewLoggingMiddleware())
	app.Post("/limited", m.NewRateLimiter, func(c *fiber.Ctx) error {
		return c.SendString(m.GetRequestID(c))
	})
	return app, &buf
}

func TestRateLimiterRejectsAfterBurst(t *testing.T) {
	app, _ := newTestApp(t, 0.001, 2)

	var statuses []int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/limited", nil))
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, []int{200, 200, 429}, statuses)
}

func TestRequestIDIsGeneratedOrPropagated(t *testing.T) {
	app, _ := newTestApp(t, 0, 0)

	resp, err := app.Test(httptest.NewRequest("POST", "/limited", nil))
	require.NoError(t, err)
	generated := resp.Header.Get(RequestIDKey)
	assert.Len(t, generated, 26)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, generated, string(body))

	req := httptest.NewRequest("POST", "/limited", nil)
	req.Header.Set(RequestIDKey, "client-chosen")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "client-chosen", resp.Header.Get(RequestIDKey))
}

func TestLoggingRedactsPersonalData(t *testing.T) {
	app, buf := newTestApp(t, 0, 0)

	req := httptest.NewRequest("POST", "/limited", strings.NewReader(`{"faceDescriptor":[0.1,0.2],"email":"ada@example.com","detectionScore":0.9}`))
	req.Header.Set("Content-Type", "application/json")
	_, err := app.Test(req)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[REDACTED]")
	assert.Contains(t, out, "detectionScore")
	assert.NotContains(t, out, "ada@example.com")
	assert.NotContains(t, out, "0.1,0.2")
}

func TestSanitizeRequestBodyNonJSON(t *testing.T) {
	assert.Equal(t, "[non-JSON body]", sanitizeRequestBody([]byte("not json")))
}
