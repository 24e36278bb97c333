package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPassesValidation(t *testing.T) {
	cfg := Default()
	assert.Empty(t, Validate(cfg))
}

func TestValidateRejectsOutOfRangeSlope(t *testing.T) {
	cfg := Default()
	cfg.MaxRoofSlopeDegrees = 0
	errs := Validate(cfg)
	require.NotEmpty(t, errs)
	assert.Equal(t, "INVALID_MAX_ROOF_SLOPE_DEGREES", errs[0].Code)
}

func TestValidateRejectsFlatRoofDegreesAboveMax(t *testing.T) {
	cfg := Default()
	cfg.MaxRoofSlopeDegrees = 10
	cfg.FlatRoofDegrees = 20
	errs := Validate(cfg)
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if e.Code == "INVALID_FLAT_ROOF_DEGREES" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateRejectsNonPositiveResolution(t *testing.T) {
	cfg := Default()
	cfg.ResolutionMetres = 0
	errs := Validate(cfg)
	require.NotEmpty(t, errs)
}

func TestValidateRejectsMissingPVTech(t *testing.T) {
	cfg := Default()
	cfg.PVTech = ""
	errs := Validate(cfg)
	require.NotEmpty(t, errs)
}

func TestLoadFromFileOverridesDefaultsAndPreservesDownstream(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roofpv.yaml")
	contents := []byte(`
max_roof_slope_degrees: 45
min_roof_area_m: 10
pv_tech: thin_film
peak_power_per_m2: 180
horizon_profile: flat
`)
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45.0, cfg.MaxRoofSlopeDegrees)
	assert.Equal(t, 10.0, cfg.MinRoofAreaM)
	assert.Equal(t, "thin_film", cfg.PVTech)
	assert.Equal(t, 180, cfg.Downstream["peak_power_per_m2"])
	assert.Equal(t, "flat", cfg.Downstream["horizon_profile"])
}

func TestLoadFromEnvOverridesDefaultValue(t *testing.T) {
	t.Setenv("ROOFPV_PV_TECH", "cdte")
	cfg := Default()
	cfg.LoadFromEnv()
	assert.Equal(t, "cdte", cfg.PVTech)
}

func TestLoadRejectsInvalidConfiguration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roofpv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resolution_metres: 0\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
