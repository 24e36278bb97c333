// Package pipeline orchestrates a single building through every stage of
// spec.md's control-flow line (§2): premade planes, then a DETSAC loop
// until exhausted, then a RANSAC loop while the remaining pixel budget
// justifies it, then region-adjacency merging, the messy-roof check,
// per-plane polygonisation, and overlap deconfliction.
package pipeline

import (
	"math"

	"github.com/arx-os/roofpv/internal/detsac"
	"github.com/arx-os/roofpv/internal/logging"
	"github.com/arx-os/roofpv/internal/merge"
	"github.com/arx-os/roofpv/internal/messroof"
	"github.com/arx-os/roofpv/internal/overlap"
	"github.com/arx-os/roofpv/internal/polygonize"
	"github.com/arx-os/roofpv/internal/premade"
	"github.com/arx-os/roofpv/internal/ransacfit"
	"github.com/arx-os/roofpv/internal/roofmodel"
	"github.com/arx-os/roofpv/pkg/rooferrors"
	"go.uber.org/zap"
)

// Config bundles the per-stage configuration a building's run threads
// through; internal/config loads the same values from file/environment
// and internal/batch shares one Config across every worker.
type Config struct {
	SubSegmentSpecs []premade.SubSegmentSpec
	Polygonize      polygonize.Config
	Overlap         overlap.Config

	// RandSeedBase seeds the RANSAC fallback's trial sequence; each
	// invocation within a building increments it, so the whole building's
	// RANSAC pass is reproducible given this one value (spec §5).
	RandSeedBase int64
}

// DefaultConfig returns spec.md's documented per-stage defaults.
func DefaultConfig() Config {
	return Config{
		SubSegmentSpecs: premade.DefaultSubSegmentSpecs(),
		Polygonize:      polygonize.DefaultConfig(),
		Overlap:         overlap.DefaultConfig(),
		RandSeedBase:    1,
	}
}

// ExcludeReason explains why a building produced no roof polygons, per
// spec §7's per-building failure taxonomy. The zero value means the
// building was not excluded.
type ExcludeReason string

const (
	ExcludeNone                 ExcludeReason = ""
	ExcludeNoRoofPlanesDetected ExcludeReason = "NO_ROOF_PLANES_DETECTED"
	ExcludeMessyRoof            ExcludeReason = "MESSY_ROOF"
)

// Run executes the full per-building pipeline. logger may be nil (no-op
// logging); internal/batch passes a building-scoped logger
// (logging.ForBuilding) so every call site below logs with that
// building's ID already attached. A non-nil error is returned only for
// the fatal merger-invariant class (spec §7); every other failure mode is
// reported through ExcludeReason with a nil error, since "produce no
// planes and mark the building excluded" is this core's normal failure
// outcome, not an exceptional one.
func Run(building *roofmodel.Building, cfg Config, logger *zap.Logger) ([]roofmodel.RoofPolygon, ExcludeReason, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := validateBuilding(building); err != nil {
		logger.Warn("building input invalid", zap.Error(err))
		return nil, ExcludeNoRoofPlanesDetected, nil
	}

	azimuths := detsac.FootprintAzimuths(building.Footprint)

	candidates, err := premade.Generate(building, cfg.SubSegmentSpecs)
	if err != nil || len(candidates) == 0 {
		logger.Info("no premade candidates generated", zap.Int("candidate_count", len(candidates)))
		return nil, ExcludeNoRoofPlanesDetected, nil
	}

	skipPlanes := map[string]bool{}
	var accepted []roofmodel.RoofPlane

	for {
		plane, ok, err := detsac.Fit(building, candidates, skipPlanes, azimuths)
		if err != nil {
			return nil, ExcludeNone, err
		}
		if !ok {
			break
		}
		logger.Debug("detsac plane accepted", logging.PlaneFields(plane.PlaneID, plane.PlaneType)...)
		accepted = append(accepted, plane)
	}

	minPoints := building.MinPointsPerPlane()
	seed := cfg.RandSeedBase
	for ransacfit.ShouldAttempt(building, minPoints) {
		plane, ok, err := ransacfit.Fit(building, seed, skipPlanes, azimuths)
		seed++
		if err != nil {
			return nil, ExcludeNone, err
		}
		if !ok {
			break
		}
		logger.Debug("ransac plane accepted", logging.PlaneFields(plane.PlaneID, plane.PlaneType)...)
		accepted = append(accepted, plane)
	}

	if len(accepted) == 0 {
		logger.Info("no planes accepted", logging.BuildingSummaryFields(0, string(ExcludeNoRoofPlanesDetected))...)
		return nil, ExcludeNoRoofPlanesDetected, nil
	}

	graph, err := merge.Build(building, accepted)
	if err != nil {
		return nil, ExcludeNone, err
	}
	if err := merge.Merge(graph); err != nil {
		// Spec §7: a merger invariant violation is always fatal for the
		// building.
		return nil, ExcludeNone, err
	}

	messResult, err := messroof.Detect(building, graph)
	if err != nil {
		return nil, ExcludeNone, err
	}
	if messResult.BuildingDropped {
		logger.Info("building dropped as messy roof", logging.BuildingSummaryFields(0, string(ExcludeMessyRoof))...)
		return nil, ExcludeMessyRoof, nil
	}

	var polys []roofmodel.RoofPolygon
	for _, node := range messResult.SurvivingPlanes {
		if !node.IsPlane() {
			continue
		}
		plane := planeFromNode(node)
		poly, ok, polyErr := polygonize.Build(building, plane, cfg.Polygonize)
		if polyErr != nil {
			return nil, ExcludeNone, polyErr
		}
		if !ok {
			// Locally recoverable geometry degeneracy (spec §7): drop this
			// plane and keep processing the rest of the building.
			logger.Warn("plane dropped: footprint constraint emptied its geometry", logging.PlaneFields(plane.PlaneID, plane.PlaneType)...)
			continue
		}
		polys = append(polys, poly)
	}
	if len(polys) == 0 {
		logger.Info("no polygons survived polygonisation", logging.BuildingSummaryFields(0, string(ExcludeNoRoofPlanesDetected))...)
		return nil, ExcludeNoRoofPlanesDetected, nil
	}

	polys = overlap.Deconflict(polys, cfg.Overlap)
	logger.Info("building finished", logging.BuildingSummaryFields(len(polys), string(ExcludeNone))...)
	return polys, ExcludeNone, nil
}

// planeFromNode adapts a surviving merge-graph node back into the
// roofmodel.RoofPlane shape internal/polygonize consumes. Fit.Aspect is set
// to the node's snapped aspect and AspectRaw to the aspect of the node's
// own fit: for a merged node that is the refit's unsnapped aspect, while a
// plane that never merged already carries its snapped aspect in Fit, since
// the pre-snap value is not kept in the graph.
func planeFromNode(n *merge.Node) roofmodel.RoofPlane {
	fit := n.Fit
	fit.Aspect = n.Aspect
	return roofmodel.RoofPlane{
		BuildingID: "",
		Fit:        fit,
		Inliers:    n.Pixels,
		IsFlat:     n.IsFlat,
		AspectRaw:  n.Fit.Aspect,
		PlaneType:  n.PlaneType,
		PlaneID:    n.PlaneID,
		Morphology: n.Morphology,
		Stats:      n.Stats,
	}
}

// validateBuilding applies spec §7's input-invalid checks: a degenerate
// footprint, an empty pixel set, or NaN coordinates fail the
// building fast rather than letting NaN propagate through every
// downstream fit.
func validateBuilding(b *roofmodel.Building) error {
	if b == nil {
		return rooferrors.InputInvalid("nil building", nil)
	}
	if len(b.Footprint) == 0 || len(b.Footprint[0]) < 4 {
		return rooferrors.InputInvalid("degenerate footprint polygon", nil).WithDetails("building_id", b.ID)
	}
	if len(b.Pixels) == 0 {
		return rooferrors.InputInvalid("empty pixel set", nil).WithDetails("building_id", b.ID)
	}
	if b.Resolution <= 0 {
		return rooferrors.InputInvalid("non-positive resolution", nil).WithDetails("building_id", b.ID)
	}
	for _, p := range b.Pixels {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
			return rooferrors.InputInvalid("NaN pixel coordinate", nil).WithDetails("building_id", b.ID)
		}
	}
	return nil
}
