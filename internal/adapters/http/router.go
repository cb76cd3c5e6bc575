package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/sketchroute/internal/pkg/metrics"
)

const (
	requestTimeout = 15 * time.Second
	// Route submissions wait on the snapping service, which may take a while.
	submitTimeout = 90 * time.Second
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	origins := deps.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match, X-Request-ID",
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	limit := deps.RateLimit
	if limit <= 0 {
		limit = 120
	}
	app.Use(limiter.New(limiter.Config{
		Max:        limit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/geocode", timeout.NewWithContext(GeocodeHandler(deps), requestTimeout))

	// Sessions
	v1.Post("/sessions", timeout.NewWithContext(CreateSessionHandler(deps), requestTimeout))
	v1.Get("/sessions", ListSessionsHandler(deps))
	v1.Get("/sessions/:id", GetSessionHandler(deps))
	v1.Delete("/sessions/:id", DeleteSessionHandler(deps))

	// Viewport
	v1.Post("/sessions/:id/map/events", MapEventHandler(deps))
	v1.Put("/sessions/:id/viewport/center", UpdateCenterHandler(deps))
	v1.Put("/sessions/:id/viewport/bounds", UpdateBoundsHandler(deps))

	// Location search
	v1.Post("/sessions/:id/search/input", SearchInputHandler(deps))
	v1.Get("/sessions/:id/search", timeout.NewWithContext(SearchHandler(deps), requestTimeout))
	v1.Post("/sessions/:id/search/select", SelectHandler(deps))

	// Drawing and route
	v1.Post("/sessions/:id/transform", TransformHandler(deps))
	v1.Post("/sessions/:id/route", timeout.NewWithContext(SubmitRouteHandler(deps), submitTimeout))
	v1.Get("/sessions/:id/route", GetRouteHandler(deps))
	v1.Get("/sessions/:id/route/segments", RouteSegmentsHandler(deps))
	v1.Get("/sessions/:id/route/download/:handle", DownloadRouteHandler(deps))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), requestTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app, deps.SpecPath)

	// WebSocket
	app.Use("/ws", WebSocketUpgrade(deps))
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}
