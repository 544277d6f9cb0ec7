package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// Register mounts every route of the service on app.
func Register(app *fiber.App, rooms *RoomHandler, editor *EditorHandler, health *HealthHandler, docs *DocsHandler) {
	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", health.Live)
	app.Get("/health/ready", health.Ready)

	app.Get("/docs", docs.UI)
	app.Get("/docs/openapi.yaml", docs.Spec)

	// ============================================================
	// Room Routes
	// ============================================================

	api := app.Group("/api")
	api.Post("/rooms", rooms.Create)
	api.Post("/rooms/import-svg", rooms.ImportSVG)
	api.Get("/rooms/customer/:customerId", rooms.ListByCustomer)
	api.Get("/rooms/:id/floorplan.svg", rooms.RoomFloorplan)
	api.Get("/rooms/:id", rooms.Get)
	api.Put("/rooms/:id", rooms.Update)
	api.Delete("/rooms/:id", rooms.Delete)
	api.Get("/floorplan/:companyId/:customerId", rooms.CustomerFloorplan)

	// ============================================================
	// Editor Session Routes
	// ============================================================

	api.Post("/rooms/:id/sessions", editor.Open)
	api.Get("/sessions/:token", editor.Get)
	api.Post("/sessions/:token/move", editor.Move)
	api.Post("/sessions/:token/insert", editor.Insert)
	api.Post("/sessions/:token/delete", editor.DeleteVertex)
	api.Put("/sessions/:token/angles/:index", editor.SetAngle)
	api.Delete("/sessions/:token/angles/:index", editor.ClearAngle)
	api.Put("/sessions/:token/lengths", editor.SetLength)
	api.Delete("/sessions/:token/lengths", editor.ClearLength)
	api.Post("/sessions/:token/commit", editor.Commit)
	api.Delete("/sessions/:token", editor.Close)
}
