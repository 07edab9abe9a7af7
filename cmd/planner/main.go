package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"secureplan/internal/common/config"
	"secureplan/internal/common/health"
	"secureplan/internal/common/logger"
	"secureplan/internal/common/middleware"
	"secureplan/internal/planner/ai"
	"secureplan/internal/planner/catalog"
	"secureplan/internal/planner/handlers"
	"secureplan/internal/planner/repository"
	"secureplan/internal/planner/service"
	"secureplan/internal/planner/snapshot"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

const pruneInterval = 10 * time.Minute

// ============================================================
// Planner Service
// ============================================================

func main() {
	cfg := config.Load()
	if os.Getenv("PORT") == "" {
		cfg.Port = "3001"
	}
	logger.Setup(cfg.LogLevel)

	if err := os.MkdirAll(filepath.Dir(cfg.LibraryDBPath), 0o755); err != nil {
		log.Fatalf("create db dir: %v", err)
	}
	db, err := repository.OpenSQLite(cfg.LibraryDBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db, cfg.LibraryMaxBytes)
	if err := repo.Init(context.Background()); err != nil {
		log.Fatalf("init db: %v", err)
	}

	cat := catalog.Default()
	renderer, err := snapshot.NewRenderer(cat)
	if err != nil {
		log.Fatalf("init snapshot renderer: %v", err)
	}

	var gateway ai.Gateway = ai.Unconfigured{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiGateway(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cat)
		if err != nil {
			log.Fatalf("init gemini client: %v", err)
		}
		gateway = gemini
	} else {
		slog.Warn("GEMINI_API_KEY is not set, analysis requests will fail")
	}

	sessions := service.NewSessionManager()
	planner := service.NewPlanner(sessions, gateway, cat, repo, renderer)
	plannerHandler := handlers.NewPlannerHandler(planner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pruneSessions(ctx, sessions, cfg.SessionIdle)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimit(),
		AppName:      "Planner Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger("planner"))

	// ============================================================
	// Health Check Routes
	// ============================================================

	health.Register(app, map[string]health.Check{
		"library": repo.Ping,
	})

	// ============================================================
	// Planner Routes
	// ============================================================

	plannerHandler.Mount(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Planner Service on %s (env: %s)", addr, cfg.Environment)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// pruneSessions закрывает сессии, простаивающие дольше idle.
func pruneSessions(ctx context.Context, sessions *service.SessionManager, idle time.Duration) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Prune(idle); n > 0 {
				slog.Info("Pruned idle sessions", "count", n, "open", sessions.Count())
			}
		}
	}
}
