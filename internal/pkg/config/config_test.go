package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v, "sketchroute-test")
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal defaults: %v", err)
	}
	return &cfg
}

func TestDefaults_AreValid(t *testing.T) {
	cfg := defaultConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Search.DebounceWindow().Milliseconds() != 500 {
		t.Errorf("expected 500ms debounce, got %v", cfg.Search.DebounceWindow())
	}
	if cfg.Transform.BoxWidth != 0.0088 || cfg.Transform.BoxHeight != 0.0048 {
		t.Errorf("unexpected box %v x %v", cfg.Transform.BoxWidth, cfg.Transform.BoxHeight)
	}
	if cfg.Transform.LineMode != "points" {
		t.Errorf("expected points line mode, got %q", cfg.Transform.LineMode)
	}
	if cfg.Render.Width != 500 || cfg.Snapping.DefaultMaxPoints != 20 {
		t.Errorf("unexpected render/snap defaults: %+v %+v", cfg.Render, cfg.Snapping)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Server.Port = 0
	cfg.Transform.FrameSource = "sometimes"
	cfg.Transform.LineMode = "both"
	cfg.Snapping.Mode = "carrier-pigeon"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "transform.frame_source", "transform.line_mode", "snapping.mode"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got:\n%v", want, err)
		}
	}
}

func TestValidate_LineModes(t *testing.T) {
	for _, mode := range []string{"anchor", "endpoints", "points"} {
		cfg := defaultConfig(t)
		cfg.Transform.LineMode = mode
		if err := cfg.Validate(); err != nil {
			t.Errorf("line mode %q: unexpected error: %v", mode, err)
		}
	}
}

func TestValidate_GoogleNeedsKey(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Geocoder.Provider = "google"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "google.api_key") {
		t.Fatalf("expected api key error, got %v", err)
	}
	cfg.Google.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SKETCHROUTE_TRANSFORM_LINE_MODE", "anchor")
	t.Setenv("SKETCHROUTE_SERVER_PORT", "9090")

	cfg, err := Load("sketchroute-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Transform.LineMode != "anchor" {
		t.Errorf("expected anchor, got %s", cfg.Transform.LineMode)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Telemetry.ServiceName != "sketchroute-test" {
		t.Errorf("expected service name default, got %s", cfg.Telemetry.ServiceName)
	}
}
