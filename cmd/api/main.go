package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/sketchroute/internal/adapters/geolocation"
	"github.com/samirrijal/sketchroute/internal/adapters/googlemaps"
	"github.com/samirrijal/sketchroute/internal/adapters/gpx"
	"github.com/samirrijal/sketchroute/internal/adapters/http"
	"github.com/samirrijal/sketchroute/internal/adapters/memory"
	natsadapter "github.com/samirrijal/sketchroute/internal/adapters/nats"
	"github.com/samirrijal/sketchroute/internal/adapters/nominatim"
	"github.com/samirrijal/sketchroute/internal/adapters/render"
	"github.com/samirrijal/sketchroute/internal/adapters/snapping"
	"github.com/samirrijal/sketchroute/internal/adapters/valkey"
	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/core/ports"
	"github.com/samirrijal/sketchroute/internal/core/usecases"
	"github.com/samirrijal/sketchroute/internal/pkg/config"
	"github.com/samirrijal/sketchroute/internal/pkg/logging"
	"github.com/samirrijal/sketchroute/internal/pkg/telemetry"
	"github.com/samirrijal/sketchroute/internal/pkg/validation"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("sketchroute-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, "sketchroute-api")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, geocoding uncached", "error", err)
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	// NATS
	var (
		publisher ports.EventPublisher
		events    http.SessionEvents
	)
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, session events disabled", "error", err)
	} else {
		defer nc.Close()
		sub := natsadapter.NewSubscriber(nc.Conn())
		defer sub.Close()
		publisher = nc
		events = sub
	}

	// Geocoder
	var geocoder ports.Geocoder
	switch cfg.Geocoder.Provider {
	case "google":
		gc, err := googlemaps.New(cfg.Google.APIKey)
		if err != nil {
			log.Fatalf("google geocoder: %v", err)
		}
		geocoder = gc
	default:
		geocoder = nominatim.New(nominatim.Options{
			BaseURL:    cfg.Geocoder.BaseURL,
			UserAgent:  cfg.Geocoder.UserAgent,
			RatePerSec: cfg.Geocoder.RatePerSec,
			Timeout:    time.Duration(cfg.Geocoder.TimeoutMilli) * time.Millisecond,
		})
	}
	geocodeSvc := usecases.NewGeocodeService(geocoder, cacheSvc, cfg.Geocoder.CacheTTL)

	// Snapping
	codec := gpx.NewCodec()
	var snapper ports.Snapper
	switch cfg.Snapping.Mode {
	case "local":
		var roads ports.RoadSnapper
		if cfg.Google.APIKey != "" {
			rc, err := googlemaps.New(cfg.Google.APIKey)
			if err != nil {
				log.Fatalf("google roads: %v", err)
			}
			roads = rc
		}
		snapper = snapping.NewLocal(codec, roads)
	default:
		snapper = snapping.NewClient(cfg.Snapping.URL, time.Duration(cfg.Snapping.TimeoutSec)*time.Second)
	}

	// Geolocation
	var ipLocator *geolocation.IPLocator
	if cfg.Geolocation.Provider == "ip" {
		ipLocator = geolocation.NewIPLocator(cfg.Geolocation.URL, time.Duration(cfg.Geolocation.TimeoutSec)*time.Second)
	}

	sessions := usecases.NewSessionService(usecases.EngineDeps{
		Geocoder:  geocodeSvc,
		Renderer:  render.NewPNGRenderer(cfg.Render.Width, cfg.Render.Height, cfg.Render.LineWidth),
		Snapper:   snapper,
		Store:     memory.NewArtifactStore(),
		Codec:     codec,
		Publisher: publisher,
	}, nil, usecases.SessionOptions{
		IdleTTL:       cfg.Session.IdleTTL(),
		SweepInterval: time.Duration(cfg.Session.SweepSec) * time.Second,
		MaxSessions:   cfg.Session.MaxSessions,
		Engine: usecases.EngineOptions{
			DefaultCenter: domain.GeoPoint{Lat: cfg.Geolocation.DefaultLat, Lon: cfg.Geolocation.DefaultLon},
			Zoom:          cfg.Session.DefaultZoom,
			Surface:       domain.Surface{Width: float64(cfg.Session.SurfaceWidth), Height: float64(cfg.Session.SurfaceHeight)},
			Search: usecases.SearchOptions{
				Debounce: cfg.Search.DebounceWindow(),
				Limit:    cfg.Geocoder.Limit,
			},
			Pipeline: usecases.PipelineOptions{
				Frame: usecases.FrameConfig{
					Source:    usecases.FrameSource(cfg.Transform.FrameSource),
					BoxWidth:  cfg.Transform.BoxWidth,
					BoxHeight: cfg.Transform.BoxHeight,
				},
				Transform:        usecases.TransformOptions{LineMode: usecases.LineMode(cfg.Transform.LineMode)},
				DefaultMaxPoints: cfg.Snapping.DefaultMaxPoints,
				MaxPointsCap:     cfg.Snapping.MaxPointsCap,
				Mode:             cfg.Snapping.Mode,
			},
		},
	})
	go sessions.Run(ctx)

	deps := &http.Dependencies{
		Sessions:       sessions,
		Geocoder:       geocodeSvc,
		GeocodeLimit:   cfg.Geocoder.Limit,
		IPLocator:      ipLocator,
		Events:         events,
		Validator:      validation.New(),
		Cache:          cache,
		Version:        version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SpecPath:       http.DefaultSpecPath,
	}
	if nc != nil {
		deps.NATS = nc.Conn()
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:           time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:             cfg.Server.BodyLimitMB * 1024 * 1024,
		AppName:               "SketchRoute API",
		DisableStartupMessage: true,
	})

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version,
			"geocoder", cfg.Geocoder.Provider, "snapping", cfg.Snapping.Mode)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	cancel()
	sessions.Shutdown(shutdownCtx)

	slog.Info("server stopped")
}
