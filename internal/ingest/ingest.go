// Package ingest is cmd/roofpv's own concern, not the core's (spec.md §1
// places tile/file ingestion outside the pipeline): it reads the CLI's
// chosen on-disk representation of a building — a GeoJSON footprint
// feature paired with a pixel CSV — into internal/roofmodel.Building, and
// writes the pipeline's RoofPolygon output back out as GeoJSON, following
// the teacher's CSV-parser shape (internal/infrastructure/bas/csv_parser.go:
// os.Open, encoding/csv.Reader, accumulate parse errors rather than
// aborting on the first bad row).
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"github.com/arx-os/roofpv/internal/batch"
	"github.com/arx-os/roofpv/internal/raster"
	"github.com/arx-os/roofpv/internal/roofmodel"
)

// footprintSuffix/pixelSuffix name the two files ingest pairs per building:
// <dir>/<id>.footprint.geojson and <dir>/<id>.pixels.csv.
const (
	footprintSuffix = ".footprint.geojson"
	pixelSuffix     = ".pixels.csv"
)

// LoadBuildings reads every <id>.footprint.geojson/<id>.pixels.csv pair
// found directly under dir and returns one roofmodel.Building per pair,
// sorted by ID for deterministic batch ordering (spec §5). resolution is
// the metres-per-pixel grid spacing the CSV's x/y columns were sampled on;
// it is a CLI-level parameter (spec never prescribes a file format for it).
func LoadBuildings(dir string, resolution float64) ([]*roofmodel.Building, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading buildings directory: %w", err)
	}

	ids := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, footprintSuffix) {
			ids[strings.TrimSuffix(name, footprintSuffix)] = true
		}
	}

	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	buildings := make([]*roofmodel.Building, 0, len(sorted))
	for _, id := range sorted {
		b, err := loadBuilding(dir, id, resolution)
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", id, err)
		}
		buildings = append(buildings, b)
	}
	return buildings, nil
}

func loadBuilding(dir, id string, resolution float64) (*roofmodel.Building, error) {
	footprint, minGround, maxGround, err := loadFootprint(filepath.Join(dir, id+footprintSuffix))
	if err != nil {
		return nil, fmt.Errorf("footprint: %w", err)
	}

	pixelPath := filepath.Join(dir, id+pixelSuffix)
	pixels, err := loadPixels(pixelPath)
	if err != nil {
		return nil, fmt.Errorf("pixels: %w", err)
	}
	// The fitters mark claimed pixels by Row/Col, so give every pixel the
	// grid position internal/raster assigns.
	if resolution > 0 {
		if _, stamped, err := raster.Rasterise(pixels, resolution); err == nil {
			pixels = stamped
		}
	}

	return &roofmodel.Building{
		ID:              id,
		Footprint:       footprint,
		Resolution:      resolution,
		Pixels:          pixels,
		MinGroundHeight: minGround,
		MaxGroundHeight: maxGround,
	}, nil
}

// loadFootprint reads a single-feature GeoJSON polygon, with optional
// min_ground_height/max_ground_height numeric properties (spec §3).
func loadFootprint(path string) (orb.Polygon, *float64, *float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading footprint file: %w", err)
	}

	feature, err := geojson.UnmarshalFeature(data)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parsing footprint geojson: %w", err)
	}

	poly, ok := feature.Geometry.(orb.Polygon)
	if !ok {
		return nil, nil, nil, fmt.Errorf("footprint geometry is not a polygon")
	}

	minGround := propertyFloat(feature.Properties, "min_ground_height")
	maxGround := propertyFloat(feature.Properties, "max_ground_height")
	return poly, minGround, maxGround, nil
}

func propertyFloat(props geojson.Properties, key string) *float64 {
	v, ok := props[key]
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	}
	return nil
}

// loadPixels reads a CSV with a header row: x,y,z,slope,aspect plus the
// optional row,col,within_building,without_building columns (spec §3's
// Pixel fields; loadBuilding replaces row/col with the grid positions
// internal/raster.Rasterise computes, so values read here are kept only
// when that rasterisation fails). slope/aspect are
// the DSM-derived fields an external collaborator supplies per spec §1 —
// this loader only reads them, it never derives them.
func loadPixels(path string) ([]roofmodel.Pixel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pixel file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading pixel csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("pixel csv has no data rows")
	}

	col := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"x", "y", "z", "slope", "aspect"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("pixel csv missing required column %q", required)
		}
	}

	pixels := make([]roofmodel.Pixel, 0, len(records)-1)
	var parseErrors []string
	for i, rec := range records[1:] {
		p, err := parsePixelRow(rec, col)
		if err != nil {
			parseErrors = append(parseErrors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		pixels = append(pixels, p)
	}
	if len(pixels) == 0 {
		return nil, fmt.Errorf("no valid pixel rows (errors: %s)", strings.Join(parseErrors, "; "))
	}
	return pixels, nil
}

func parsePixelRow(rec []string, col map[string]int) (roofmodel.Pixel, error) {
	get := func(key string) (float64, bool) {
		i, ok := col[key]
		if !ok || i >= len(rec) {
			return 0, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}

	x, ok := get("x")
	if !ok {
		return roofmodel.Pixel{}, fmt.Errorf("invalid x")
	}
	y, ok := get("y")
	if !ok {
		return roofmodel.Pixel{}, fmt.Errorf("invalid y")
	}
	z, ok := get("z")
	if !ok {
		return roofmodel.Pixel{}, fmt.Errorf("invalid z")
	}
	slope, ok := get("slope")
	if !ok {
		return roofmodel.Pixel{}, fmt.Errorf("invalid slope")
	}
	aspect, ok := get("aspect")
	if !ok {
		return roofmodel.Pixel{}, fmt.Errorf("invalid aspect")
	}

	p := roofmodel.Pixel{X: x, Y: y, Z: z, Slope: slope, Aspect: aspect}
	if r, ok := get("row"); ok {
		p.Row = int(r)
	}
	if c, ok := get("col"); ok {
		p.Col = int(c)
	}
	if wb, ok := getBool("within_building", rec, col); ok {
		p.WithinBuilding = wb
	}
	if wob, ok := getBool("without_building", rec, col); ok {
		p.WithoutBuilding = wob
	}
	return p, nil
}

// getBool reads an optional boolean column ("1"/"true" => true, anything
// else present => false; absent column => !ok).
func getBool(key string, rec []string, col map[string]int) (bool, bool) {
	i, ok := col[key]
	if !ok || i >= len(rec) {
		return false, false
	}
	v := strings.ToLower(strings.TrimSpace(rec[i]))
	return v == "1" || v == "true", true
}

// WriteResults writes one GeoJSON FeatureCollection per batch.Result into
// outDir, named <building_id>.geojson. Excluded buildings (no polygons)
// still get an empty FeatureCollection written, so downstream tooling can
// tell "ran, found nothing" from "never ran".
func WriteResults(outDir string, results []batch.Result) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		fc := geojson.NewFeatureCollection()
		for _, poly := range r.Polygons {
			fc.Append(roofPolygonFeature(poly))
		}
		data, err := fc.MarshalJSON()
		if err != nil {
			return fmt.Errorf("marshalling building %s: %w", r.BuildingID, err)
		}
		path := filepath.Join(outDir, r.BuildingID+".geojson")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing building %s: %w", r.BuildingID, err)
		}
	}
	return nil
}

// roofPolygonFeature renders a single RoofPolygon as a GeoJSON Feature,
// with every non-geometry field of spec §6's output record carried as a
// property. roof_geom is also encoded as WKT for consumers that prefer
// spec.md's literal wording ("WKT or equivalent").
func roofPolygonFeature(p roofmodel.RoofPolygon) *geojson.Feature {
	feature := geojson.NewFeature(p.Polygon)
	inliers := make([][2]float64, len(p.InliersXY))
	for i, pt := range p.InliersXY {
		inliers[i] = [2]float64{pt.X(), pt.Y()}
	}
	feature.Properties = geojson.Properties{
		"id":                 p.ID,
		"building_id":        p.BuildingID,
		"plane_id":           p.PlaneID,
		"plane_type":         p.PlaneType,
		"roof_geom":          wkt.MarshalString(p.Polygon),
		"roof_geom_raw":      wkt.MarshalString(p.PolygonRaw),
		"x_coef":             p.XCoef,
		"y_coef":             p.YCoef,
		"intercept":          p.Intercept,
		"slope":              p.Slope,
		"aspect":             p.Aspect,
		"aspect_raw":         p.AspectRaw,
		"is_flat":            p.IsFlat,
		"score":              p.Stats.MeanAbsoluteError,
		"r2":                 p.Stats.R2,
		"mse":                p.Stats.MSE,
		"rmse":               p.Stats.RMSE,
		"msle":               p.Stats.MSLE,
		"mape":               p.Stats.MAPE,
		"sd":                 p.Stats.SD,
		"aspect_circ_mean":   p.Morphology.AspectCircMean,
		"aspect_circ_sd":     p.Morphology.AspectCircSD,
		"thinness_ratio":     p.Morphology.ThinnessRatio,
		"cv_hull_ratio":      p.Morphology.CvHullRatio,
		"usable":             p.Usable,
		"not_usable_reason":  p.NotUsableReason.String(),
		"inliers_xy":         inliers,
	}
	return feature
}
