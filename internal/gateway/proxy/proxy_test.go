package proxy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTarget(t *testing.T) {
	u := New("http://planner:3001/", "/api/v1", time.Second)
	assert.Equal(t, "http://planner:3001/sessions/abc", u.Target("/api/v1/sessions/abc", ""))
	assert.Equal(t, "http://planner:3001/sessions/abc/overlay.svg?coverage=true", u.Target("/api/v1/sessions/abc/overlay.svg", "coverage=true"))
	assert.Equal(t, "http://planner:3001/", u.Target("/api/v1", ""))
}

func TestHandlerForwards(t *testing.T) {
	var gotMethod, gotPath, gotQuery, gotType, gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotQuery = r.Method, r.URL.Path, r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)

		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("<svg/>"))
	}))
	defer upstream.Close()

	app := fiber.New()
	app.All("/api/v1/*", New(upstream.URL, "/api/v1", time.Second).Handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/chat?x=1", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Equal(t, "<svg/>", string(body))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/sessions/s1/chat", gotPath)
	assert.Equal(t, "x=1", gotQuery)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, `{"message":"hi"}`, gotBody)
}

func TestHandlerUpstreamDown(t *testing.T) {
	app := fiber.New()
	app.All("/api/v1/*", New("http://127.0.0.1:1", "/api/v1", time.Second).Handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Error(t, New("http://127.0.0.1:1", "/api/v1", time.Second).Ping(context.Background()))
}

func TestPing(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health/live" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"status":"alive"}`))
	}))
	defer upstream.Close()

	assert.NoError(t, New(upstream.URL, "/api/v1", time.Second).Ping(context.Background()))
}
