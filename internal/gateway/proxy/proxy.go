package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Proxy Handler
// ============================================================

var forwardedHeaders = []string{"Content-Type", "Accept", "Authorization"}

// Upstream проксирует запросы в сервис планировщика.
type Upstream struct {
	baseURL string
	prefix  string
	client  *http.Client
}

// New создает прокси: путь запроса без prefix дописывается к baseURL.
func New(baseURL, prefix string, timeout time.Duration) *Upstream {
	return &Upstream{
		baseURL: strings.TrimRight(baseURL, "/"),
		prefix:  prefix,
		client:  &http.Client{Timeout: timeout},
	}
}

// Handler пересылает любой метод, тело передается как есть (в том числе multipart).
func (u *Upstream) Handler(c fiber.Ctx) error {
	target := u.Target(c.Path(), string(c.Request().URI().QueryString()))
	log.Printf("[PROXY] %s %s -> %s (%d bytes)", c.Method(), c.Path(), target, len(c.Body()))

	req, err := http.NewRequestWithContext(c.Context(), c.Method(), target, bytes.NewReader(c.Body()))
	if err != nil {
		log.Printf("[PROXY] build request error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}
	for _, h := range forwardedHeaders {
		if v := c.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := u.client.Do(req)
	if err != nil {
		log.Printf("[PROXY] Error: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

// Target адрес в сервисе планировщика для пути шлюза.
func (u *Upstream) Target(path, query string) string {
	target := u.baseURL + "/" + strings.TrimLeft(strings.TrimPrefix(path, u.prefix), "/")
	if query != "" {
		target += "?" + query
	}
	return target
}

// Ping проверяет, что сервис планировщика отвечает.
func (u *Upstream) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+"/health/live", nil)
	if err != nil {
		return err
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("planner responded %d", resp.StatusCode)
	}
	return nil
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[PROXY] Read response error: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if len(values) > 0 && key != "Content-Length" {
			c.Set(key, values[0])
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
