package merge

import (
	"sort"
	"strings"

	"github.com/arx-os/roofpv/internal/detsac"
	"github.com/arx-os/roofpv/internal/roofmodel"
)

// edgeEvaluation is one candidate merge's verdict: forced merges (spec's
// r²≥0.925 / MAE≤80 force conditions) always run before voluntary ones;
// forbidden edges never run.
type edgeEvaluation struct {
	a, b      NodeID
	forced    bool
	forbidden bool
	allowed   bool
	newFit    roofmodel.FitResult
	newPixels []roofmodel.Pixel
	score     float64 // lower is better; used to prioritise among non-forced eligible merges
}

// Merge hierarchically merges compatible neighbouring nodes per spec §4.5
// until no eligible edge remains.
func Merge(g *Graph) error {
	for {
		pairs := g.edgePairs()
		var candidates []edgeEvaluation
		for _, p := range pairs {
			a, b := g.Nodes[p[0]], g.Nodes[p[1]]
			eval, err := evaluateEdge(a, b)
			if err != nil {
				g.unlink(p[0], p[1])
				continue
			}
			if eval.forbidden || !eval.allowed {
				continue
			}
			eval.a, eval.b = p[0], p[1]
			candidates = append(candidates, eval)
		}
		if len(candidates) == 0 {
			return nil
		}

		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].forced != candidates[j].forced {
				return candidates[i].forced
			}
			if candidates[i].score != candidates[j].score {
				return candidates[i].score < candidates[j].score
			}
			return candidates[i].a < candidates[j].a
		})

		best := candidates[0]
		applyMerge(g, best)
	}
}

// evaluateEdge applies spec §4.5's plane↔plane / plane↔outlier /
// outlier↔outlier weight rules to one adjacency edge.
func evaluateEdge(a, b *Node) (edgeEvaluation, error) {
	if !a.IsPlane() && !b.IsPlane() {
		return edgeEvaluation{forbidden: true}, nil
	}

	fit, pixels, err := fitUnion(a, b)
	if err != nil {
		return edgeEvaluation{}, err
	}
	newIsFlat := roofmodel.IsFlat(fit.Slope)
	stats := detsac.ComputeStatistics(fit, pixels)

	if a.IsPlane() && b.IsPlane() {
		bothNonFlat := !a.IsFlat && !b.IsFlat && !newIsFlat
		if bothNonFlat {
			meanR2 := weightedMean(a.Stats.R2, float64(a.Stats.InlierCount), b.Stats.R2, float64(b.Stats.InlierCount))
			forced := stats.R2 >= roofmodel.MergeForceR2
			qualityOK := forced || stats.R2 >= meanR2
			forbidden := roofmodel.AngularDistanceDegrees(fit.Aspect, a.Aspect) > roofmodel.AzimuthAlignmentThreshold &&
				roofmodel.AngularDistanceDegrees(fit.Aspect, b.Aspect) > roofmodel.AzimuthAlignmentThreshold
			return edgeEvaluation{
				forced: forced, forbidden: forbidden, allowed: qualityOK && !forbidden,
				newFit: fit, newPixels: pixels, score: -stats.R2,
			}, nil
		}

		meanMAE := weightedMean(a.Stats.MeanAbsoluteError, float64(a.Stats.InlierCount), b.Stats.MeanAbsoluteError, float64(b.Stats.InlierCount))
		mixed := a.IsFlat != b.IsFlat
		forced := stats.MeanAbsoluteError <= roofmodel.MergeForceMAE
		qualityOK := forced || stats.MeanAbsoluteError <= meanMAE
		forbidden := mixed && !forced
		return edgeEvaluation{
			forced: forced, forbidden: forbidden, allowed: qualityOK && !forbidden,
			newFit: fit, newPixels: pixels, score: stats.MeanAbsoluteError,
		}, nil
	}

	// plane <-> outlier: a or b is the plane (exactly one, by the earlier
	// outlier-outlier short-circuit).
	plane, _ := a, b
	if !plane.IsPlane() {
		plane = b
	}
	improves := stats.MeanAbsoluteError < plane.Stats.MeanAbsoluteError
	crossesFlatThreshold := newIsFlat != plane.IsFlat
	aspectShift := roofmodel.AngularDistanceDegrees(fit.Aspect, plane.Aspect) > roofmodel.AzimuthAlignmentThreshold
	forbidden := crossesFlatThreshold || aspectShift
	return edgeEvaluation{
		forbidden: forbidden, allowed: improves && !forbidden,
		newFit: fit, newPixels: pixels, score: stats.MeanAbsoluteError,
	}, nil
}

func weightedMean(x1, w1, x2, w2 float64) float64 {
	if w1+w2 == 0 {
		return 0
	}
	return (x1*w1 + x2*w2) / (w1 + w2)
}

// applyMerge replaces nodes a and b with a single merged node carrying
// recomputed fit, flatness, chosen aspect, morphology and provenance.
func applyMerge(g *Graph, eval edgeEvaluation) {
	a, b := g.Nodes[eval.a], g.Nodes[eval.b]

	newIsFlat := roofmodel.IsFlat(eval.newFit.Slope)
	stats := detsac.ComputeStatistics(eval.newFit, eval.newPixels)

	aspect := a.Aspect
	if a.IsPlane() && b.IsPlane() {
		if roofmodel.AngularDistanceDegrees(eval.newFit.Aspect, b.Aspect) < roofmodel.AngularDistanceDegrees(eval.newFit.Aspect, a.Aspect) {
			aspect = b.Aspect
		}
	} else if !a.IsPlane() {
		aspect = b.Aspect
	}

	provenance := provenanceOf(a)
	if bp := provenanceOf(b); bp != "" {
		if provenance == "" {
			provenance = bp
		} else {
			provenance = provenance + "+" + bp
		}
	}

	morphology := detsac.ComputeMorphology(g.img.Resolution, newIsFlat, eval.newPixels)

	merged := &Node{
		ID:         g.newID(),
		PlaneID:    mergedPlaneID(a, b),
		PlaneType:  provenance,
		Pixels:     eval.newPixels,
		Fit:        eval.newFit,
		IsFlat:     newIsFlat,
		Aspect:     aspect,
		Morphology: morphology,
		Stats: roofmodel.PlaneStatistics{
			MeanAbsoluteError: stats.MAE,
			R2:                stats.R2,
			MSE:               stats.MSE,
			RMSE:              stats.RMSE,
			MSLE:              stats.MSLE,
			MAPE:              stats.MAPE,
			SD:                stats.SD,
			InlierCount:       len(eval.newPixels),
			PixelArea:         float64(len(eval.newPixels)) * g.img.Resolution * g.img.Resolution,
		},
	}

	neighbours := map[NodeID]bool{}
	for n := range g.Adjacency[eval.a] {
		if n != eval.b {
			neighbours[n] = true
		}
	}
	for n := range g.Adjacency[eval.b] {
		if n != eval.a {
			neighbours[n] = true
		}
	}

	delete(g.Nodes, eval.a)
	delete(g.Nodes, eval.b)
	delete(g.Adjacency, eval.a)
	delete(g.Adjacency, eval.b)
	for n := range g.Adjacency {
		delete(g.Adjacency[n], eval.a)
		delete(g.Adjacency[n], eval.b)
	}

	g.Nodes[merged.ID] = merged
	for n := range neighbours {
		g.link(merged.ID, n)
	}
}

func provenanceOf(n *Node) string {
	return strings.TrimSpace(n.PlaneType)
}

func mergedPlaneID(a, b *Node) string {
	switch {
	case a.IsPlane() && b.IsPlane():
		return a.PlaneID + "+" + b.PlaneID
	case a.IsPlane():
		return a.PlaneID
	default:
		return b.PlaneID
	}
}
