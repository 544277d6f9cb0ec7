package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// CORS lets the browser editor call the API from any origin. Outside
// production every header is allowed.
func CORS(production bool) fiber.Handler {
	cfg := cors.Config{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}
	if production {
		cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	}
	return cors.New(cfg)
}
