package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	"studiodash/internal/config"
	"studiodash/internal/http"
	"studiodash/internal/http/middleware"
)

// panelCORSConfig lets a dashboard front end on another origin read panels.
var panelCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "GET,HEAD,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization",
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()
	logger := srv.GetLogger()

	if !cfg.RequiresAPIKey() {
		logger.Warn("STUDIODASH_API_KEY is not set; import and export endpoints are unauthenticated")
	}

	// Rate limiting only in production; it would interfere with tests.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// Panels recompute over the whole record set on every call.
	panelRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(120),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Uploads parse whole spreadsheets and write a transaction each.
	importRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(10),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	apiKeyAuth := middleware.APIKeyAuth(cfg.APIKey, logger)

	panelConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		CORSConfig:       panelCORSConfig,
		CustomMiddleware: []fiber.Handler{panelRateLimiter},
	}

	// Imports are called from scripts and the CLI, not browsers, so the
	// Sec-Fetch-Site check is replaced by the API key.
	importReadConfig := &cartridge.RouteConfig{
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware:   []fiber.Handler{apiKeyAuth},
	}
	// Export hands out the whole record set, so it sits behind the same key.
	exportConfig := &cartridge.RouteConfig{
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware:   []fiber.Handler{panelRateLimiter, apiKeyAuth},
	}
	importWriteConfig := &cartridge.RouteConfig{
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware:   []fiber.Handler{importRateLimiter, apiKeyAuth},
	}

	// Health check endpoint
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === PANEL ROUTES ===
	srv.Get("/api/groups", http.GroupsIndexAction, panelConfig)
	srv.Get("/api/chart", http.ChartIndexAction, panelConfig)
	srv.Get("/api/table", http.TableIndexAction, panelConfig)
	srv.Get("/api/overview", http.OverviewIndexAction, panelConfig)
	srv.Get("/api/dashboard", http.DashboardIndexAction, panelConfig)

	// === IMPORT AND EXPORT ROUTES ===
	srv.Get("/api/export", http.ExportAction, exportConfig)
	srv.Get("/api/imports", http.ImportsIndexAction, importReadConfig)
	srv.Post("/api/imports", http.ImportCreateAction, importWriteConfig)
	srv.Delete("/api/imports/:id", http.ImportDeleteAction, importWriteConfig)
}
