// Package config loads and validates the per-deployment configuration that
// tunes the pipeline, following the teacher's internal/config/config.go
// shape: a single Config struct with yaml tags, loaded from a file plus
// environment overrides, then checked by an explicit Validate() method
// (internal/config/validator.go) before anything in the pipeline trusts it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds exactly the tunable configuration spec.md §6 enumerates.
// The hard-coded constants spec.md §6 calls out as deliberate-redesign-only
// (FlatRoofDegreesThreshold and friends) live in internal/roofmodel instead
// and are never loaded here.
type Config struct {
	MaxRoofSlopeDegrees     float64 `yaml:"max_roof_slope_degrees"`
	MinRoofAreaM            float64 `yaml:"min_roof_area_m"`
	MinRoofDegreesFromNorth float64 `yaml:"min_roof_degrees_from_north"`
	FlatRoofDegrees         float64 `yaml:"flat_roof_degrees"`
	MinDistToEdgeM          float64 `yaml:"min_dist_to_edge_m"`
	ResolutionMetres        float64 `yaml:"resolution_metres"`
	PVTech                  string  `yaml:"pv_tech"`

	// Downstream carries every field a PV-yield stage downstream of this
	// core would need (horizon_*, panel_*, peak_power_per_m2, ...). This
	// core never reads it; it exists only so a config file written for the
	// full product round-trips through this loader without losing fields.
	Downstream map[string]any `yaml:"-"`
}

// Default returns spec.md §6's documented defaults.
func Default() *Config {
	return &Config{
		MaxRoofSlopeDegrees:     80.0,
		MinRoofAreaM:            10.0,
		MinRoofDegreesFromNorth: 45.0,
		FlatRoofDegrees:         10.0,
		MinDistToEdgeM:          0.3,
		ResolutionMetres:        0.5,
		PVTech:                  "mono_perc",
		Downstream:              map[string]any{},
	}
}

// Load reads configPath (if non-empty), applies environment overrides, and
// validates the result. Default() is the starting point; when configPath is
// empty only the environment overrides apply. A file that cannot be read or
// parsed, or a result that fails validation, is returned as an error. Load
// logs nothing itself, leaving that to the caller's logger, matching the
// teacher's Load (internal/config/config.go).
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.LoadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.LoadFromEnv()

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", errs[0].Message)
	}
	return cfg, nil
}

// LoadFromFile parses path as YAML over the receiver, so keys absent from
// the file keep their current values, preserving
// Downstream's passthrough fields by round-tripping any keys this struct
// doesn't recognize through a generic map first.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	known := map[string]bool{
		"max_roof_slope_degrees":     true,
		"min_roof_area_m":            true,
		"min_roof_degrees_from_north": true,
		"flat_roof_degrees":          true,
		"min_dist_to_edge_m":         true,
		"resolution_metres":          true,
		"pv_tech":                    true,
	}
	downstream := map[string]any{}
	for k, v := range raw {
		if !known[k] {
			downstream[k] = v
		}
	}
	c.Downstream = downstream
	return nil
}

// LoadFromEnv applies ROOFPV_* overrides, matching the teacher's
// ARXOS_*-prefixed LoadFromEnv convention.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("ROOFPV_MAX_ROOF_SLOPE_DEGREES"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.MaxRoofSlopeDegrees = f
		}
	}
	if v := os.Getenv("ROOFPV_MIN_ROOF_AREA_M"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.MinRoofAreaM = f
		}
	}
	if v := os.Getenv("ROOFPV_MIN_ROOF_DEGREES_FROM_NORTH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.MinRoofDegreesFromNorth = f
		}
	}
	if v := os.Getenv("ROOFPV_FLAT_ROOF_DEGREES"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.FlatRoofDegrees = f
		}
	}
	if v := os.Getenv("ROOFPV_MIN_DIST_TO_EDGE_M"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.MinDistToEdgeM = f
		}
	}
	if v := os.Getenv("ROOFPV_RESOLUTION_METRES"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ResolutionMetres = f
		}
	}
	if v := os.Getenv("ROOFPV_PV_TECH"); v != "" {
		c.PVTech = v
	}
}

// String renders the loaded configuration for diagnostic logging, omitting
// Downstream to keep the line short.
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "max_roof_slope_degrees=%.1f min_roof_area_m=%.1f ", c.MaxRoofSlopeDegrees, c.MinRoofAreaM)
	fmt.Fprintf(&b, "min_roof_degrees_from_north=%.1f flat_roof_degrees=%.1f ", c.MinRoofDegreesFromNorth, c.FlatRoofDegrees)
	fmt.Fprintf(&b, "min_dist_to_edge_m=%.2f resolution_metres=%.2f pv_tech=%s", c.MinDistToEdgeM, c.ResolutionMetres, c.PVTech)
	return b.String()
}
