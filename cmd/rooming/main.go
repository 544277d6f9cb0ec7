package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/1imo/rooming-service/internal/common/config"
	"github.com/1imo/rooming-service/internal/common/logging"
	"github.com/1imo/rooming-service/internal/common/middleware"
	"github.com/1imo/rooming-service/internal/rooming/geometry"
	"github.com/1imo/rooming-service/internal/rooming/handlers"
	"github.com/1imo/rooming-service/internal/rooming/render"
	"github.com/1imo/rooming-service/internal/rooming/repository"
	"github.com/1imo/rooming-service/internal/rooming/service"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"
)

// ============================================================
// Rooming Service
// ============================================================

func main() {
	cfg := config.Load()

	logger, err := logging.Install(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := zap.S()

	opts := geometry.Options{
		AngleTolerance:  cfg.AngleTolerance,
		LengthTolerance: cfg.LengthTolerance,
		MaxIterations:   cfg.MaxIterations,
		CarpetMargin:    cfg.CarpetMargin,
		Logger:          sugar.Named("geometry"),
	}

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		sugar.Fatalw("open db", "path", cfg.DBPath, "error", err)
	}
	defer db.Close()

	repo := repository.New(db, opts.CarpetMargin)
	if err := repo.Init(context.Background(), cfg.MigrationsPath); err != nil {
		sugar.Fatalw("init db", "migrations", cfg.MigrationsPath, "error", err)
	}

	drafts, err := service.OpenDraftStore(cfg.DraftsPath)
	if err != nil {
		sugar.Fatalw("open drafts", "path", cfg.DraftsPath, "error", err)
	}
	defer drafts.Close()
	if pending, err := drafts.List(); err == nil && len(pending) > 0 {
		sugar.Infow("unsaved drafts waiting to be resumed", "rooms", pending)
	}

	sessions := service.NewSessionManager(drafts, sugar.Named("sessions"))

	roomHandler := handlers.NewRoomHandler(repo, sessions, render.NewRenderer(opts.CarpetMargin), opts, sugar.Named("rooms"))
	editorHandler := handlers.NewEditorHandler(repo, sessions, opts, sugar.Named("editor"))
	healthHandler := handlers.NewHealthHandler(repo, sessions, sugar.Named("health"))

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Rooming Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.CORS(cfg.IsProduction()))
	app.Use(middleware.Logger())

	handlers.Register(app, roomHandler, editorHandler, healthHandler, handlers.NewDocsHandler(cfg.OpenAPIPath))

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	sugar.Infow("starting rooming service", "addr", addr, "env", cfg.Environment)

	if err := app.Listen(addr); err != nil {
		sugar.Fatalw("server stopped", "error", err)
	}
}
