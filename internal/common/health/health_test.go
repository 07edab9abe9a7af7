package health

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestProbes(t *testing.T) {
	app := fiber.New()
	Register(app, map[string]Check{
		"db": func(context.Context) error { return nil },
	})

	code, body := get(t, app, "/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"alive"}`, body)

	code, body = get(t, app, "/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ready"}`, body)

	code, _ = get(t, app, "/health/startup")
	assert.Equal(t, http.StatusOK, code)
}

func TestReadinessFailure(t *testing.T) {
	app := fiber.New()
	Register(app, map[string]Check{
		"db":      func(context.Context) error { return nil },
		"planner": func(context.Context) error { return errors.New("connection refused") },
	})

	code, body := get(t, app, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.JSONEq(t, `{"status":"not ready","failed":{"planner":"connection refused"}}`, body)
}
