package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Valkey      ValkeyConfig      `mapstructure:"valkey"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Geocoder    GeocoderConfig    `mapstructure:"geocoder"`
	Snapping    SnappingConfig    `mapstructure:"snapping"`
	Transform   TransformConfig   `mapstructure:"transform"`
	Search      SearchConfig      `mapstructure:"search"`
	Session     SessionConfig     `mapstructure:"session"`
	Geolocation GeolocationConfig `mapstructure:"geolocation"`
	Render      RenderConfig      `mapstructure:"render"`
	Google      GoogleConfig      `mapstructure:"google"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`
	WriteTimeout   int    `mapstructure:"write_timeout"`
	BodyLimitMB    int    `mapstructure:"body_limit_mb"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// GeocoderConfig selects and tunes the address search provider.
type GeocoderConfig struct {
	Provider     string  `mapstructure:"provider"` // nominatim | google
	BaseURL      string  `mapstructure:"base_url"`
	UserAgent    string  `mapstructure:"user_agent"`
	Limit        int     `mapstructure:"limit"`
	RatePerSec   float64 `mapstructure:"rate_per_sec"`
	CacheTTL     int     `mapstructure:"cache_ttl"` // seconds
	TimeoutMilli int     `mapstructure:"timeout_ms"`
}

// SnappingConfig selects the route snapping backend.
type SnappingConfig struct {
	Mode             string `mapstructure:"mode"` // remote | local
	URL              string `mapstructure:"url"`
	TimeoutSec       int    `mapstructure:"timeout"`
	DefaultMaxPoints int    `mapstructure:"default_max_points"`
	MaxPointsCap     int    `mapstructure:"max_points_cap"`
}

// TransformConfig controls the drawing-to-geo reference frame.
type TransformConfig struct {
	FrameSource string  `mapstructure:"frame_source"` // fixed | bounds
	BoxWidth    float64 `mapstructure:"box_width"`    // degrees of longitude
	BoxHeight   float64 `mapstructure:"box_height"`   // degrees of latitude
	LineMode    string  `mapstructure:"line_mode"`    // anchor | endpoints | points
}

type SearchConfig struct {
	DebounceMilli int `mapstructure:"debounce_ms"` // 0 selects the default window
}

type SessionConfig struct {
	IdleTTLMin    int `mapstructure:"idle_ttl_min"`
	SweepSec      int `mapstructure:"sweep_sec"`
	MaxSessions   int `mapstructure:"max_sessions"`
	DefaultZoom   int `mapstructure:"default_zoom"`
	SurfaceWidth  int `mapstructure:"surface_width"`
	SurfaceHeight int `mapstructure:"surface_height"`
}

// GeolocationConfig configures the fallback center and the IP locator.
type GeolocationConfig struct {
	Provider   string  `mapstructure:"provider"` // ip | none
	URL        string  `mapstructure:"url"`
	TimeoutSec int     `mapstructure:"timeout"`
	DefaultLat float64 `mapstructure:"default_lat"`
	DefaultLon float64 `mapstructure:"default_lon"`
}

type RenderConfig struct {
	Width     int     `mapstructure:"width"`
	Height    int     `mapstructure:"height"`
	LineWidth float64 `mapstructure:"line_width"`
}

type GoogleConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// DebounceWindow is the search quiescence window.
func (s SearchConfig) DebounceWindow() time.Duration {
	return time.Duration(s.DebounceMilli) * time.Millisecond
}

// IdleTTL is how long an untouched session survives.
func (s SessionConfig) IdleTTL() time.Duration {
	return time.Duration(s.IdleTTLMin) * time.Minute
}

// Load reads configuration from .env, an optional config file and environment variables.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()
	SetDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SKETCHROUTE_SNAPPING_URL → snapping.url
	v.SetEnvPrefix("SKETCHROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.body_limit_mb", 8)
	v.SetDefault("server.allowed_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("geocoder.provider", "nominatim")
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "sketchroute/1.0")
	v.SetDefault("geocoder.limit", 5)
	v.SetDefault("geocoder.rate_per_sec", 1.0)
	v.SetDefault("geocoder.cache_ttl", 86400)
	v.SetDefault("geocoder.timeout_ms", 5000)
	v.SetDefault("snapping.mode", "remote")
	v.SetDefault("snapping.url", "http://localhost:8000/maps/coordinatize")
	v.SetDefault("snapping.timeout", 60)
	v.SetDefault("snapping.default_max_points", 20)
	v.SetDefault("snapping.max_points_cap", 500)
	v.SetDefault("transform.frame_source", "fixed")
	v.SetDefault("transform.box_width", 0.0088)
	v.SetDefault("transform.box_height", 0.0048)
	v.SetDefault("transform.line_mode", "points")
	v.SetDefault("search.debounce_ms", 500)
	v.SetDefault("session.idle_ttl_min", 30)
	v.SetDefault("session.sweep_sec", 60)
	v.SetDefault("session.max_sessions", 10000)
	v.SetDefault("session.default_zoom", 15)
	v.SetDefault("session.surface_width", 350)
	v.SetDefault("session.surface_height", 350)
	v.SetDefault("geolocation.provider", "ip")
	v.SetDefault("geolocation.url", "http://ip-api.com/json")
	v.SetDefault("geolocation.timeout", 5)
	v.SetDefault("geolocation.default_lat", 33.6459)
	v.SetDefault("geolocation.default_lon", -117.842717)
	v.SetDefault("render.width", 500)
	v.SetDefault("render.height", 500)
	v.SetDefault("render.line_width", 4.0)
	v.SetDefault("google.api_key", "")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}

	switch c.Geocoder.Provider {
	case "nominatim":
		if c.Geocoder.BaseURL == "" {
			errs = append(errs, "geocoder.base_url is required for nominatim")
		}
	case "google":
		if c.Google.APIKey == "" {
			errs = append(errs, "google.api_key is required for the google geocoder")
		}
	default:
		errs = append(errs, fmt.Sprintf("geocoder.provider must be nominatim or google, got %q", c.Geocoder.Provider))
	}
	if c.Geocoder.RatePerSec <= 0 {
		errs = append(errs, "geocoder.rate_per_sec must be positive")
	}

	switch c.Snapping.Mode {
	case "remote":
		if c.Snapping.URL == "" {
			errs = append(errs, "snapping.url is required in remote mode")
		}
	case "local":
	default:
		errs = append(errs, fmt.Sprintf("snapping.mode must be remote or local, got %q", c.Snapping.Mode))
	}
	if c.Snapping.DefaultMaxPoints <= 0 || c.Snapping.DefaultMaxPoints > c.Snapping.MaxPointsCap {
		errs = append(errs, fmt.Sprintf("snapping.default_max_points must be 1-%d, got %d", c.Snapping.MaxPointsCap, c.Snapping.DefaultMaxPoints))
	}

	if c.Transform.FrameSource != "fixed" && c.Transform.FrameSource != "bounds" {
		errs = append(errs, fmt.Sprintf("transform.frame_source must be fixed or bounds, got %q", c.Transform.FrameSource))
	}
	switch c.Transform.LineMode {
	case "anchor", "endpoints", "points":
	default:
		errs = append(errs, fmt.Sprintf("transform.line_mode must be anchor, endpoints or points, got %q", c.Transform.LineMode))
	}
	if c.Transform.BoxWidth <= 0 || c.Transform.BoxHeight <= 0 {
		errs = append(errs, "transform.box_width and transform.box_height must be positive")
	}

	if c.Search.DebounceMilli < 0 {
		errs = append(errs, "search.debounce_ms must not be negative")
	}
	if c.Session.IdleTTLMin <= 0 {
		errs = append(errs, "session.idle_ttl_min must be positive")
	}
	if c.Session.DefaultZoom < 0 {
		errs = append(errs, "session.default_zoom must not be negative")
	}
	if c.Geolocation.DefaultLat < -90 || c.Geolocation.DefaultLat > 90 ||
		c.Geolocation.DefaultLon < -180 || c.Geolocation.DefaultLon > 180 {
		errs = append(errs, "geolocation default center is out of range")
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		errs = append(errs, "render.width and render.height must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
