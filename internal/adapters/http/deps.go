package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/sketchroute/internal/adapters/geolocation"
	"github.com/samirrijal/sketchroute/internal/adapters/valkey"
	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/core/ports"
	"github.com/samirrijal/sketchroute/internal/core/usecases"
	"github.com/samirrijal/sketchroute/internal/pkg/validation"
)

// SessionEvents delivers a session's events to a listener until cancelled.
type SessionEvents interface {
	SubscribeSession(sessionID string, handler func(domain.SessionEvent)) (func(), error)
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions     *usecases.SessionService
	Geocoder     ports.Geocoder // cached geocoder for the stateless endpoint
	GeocodeLimit int
	IPLocator    *geolocation.IPLocator // nil: sessions use the service default
	Events       SessionEvents
	Validator    *validation.Validator
	NATS         *nats.Conn
	Cache        *valkey.Cache
	Version      string

	AllowedOrigins string // comma separated; empty allows any origin
	RateLimit      int    // requests per minute per IP; 0 uses 120
	SpecPath       string
}
