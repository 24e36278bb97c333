// Package merge implements the region-adjacency merger of spec §4.5: it
// builds a graph over accepted planes and the pixels no plane claimed,
// then hierarchically merges compatible neighbours.
package merge

import (
	"sort"

	"github.com/arx-os/roofpv/internal/detsac"
	"github.com/arx-os/roofpv/internal/raster"
	"github.com/arx-os/roofpv/internal/roofmodel"
)

// NodeID identifies a graph node, following the teacher's uint64 vertex/
// edge/face identifier convention for planar graphs.
type NodeID uint64

// Node is either an accepted plane (PlaneID != "") or a single unclaimed
// pixel (PlaneID == ""), the two states spec §4.5 allows a pixel label to
// carry before merging begins.
type Node struct {
	ID         NodeID
	PlaneID    string
	PlaneType  string
	Pixels     []roofmodel.Pixel
	Fit        roofmodel.FitResult
	IsFlat     bool
	Aspect     float64 // snapped aspect of a plane node; a merged node keeps one parent plane's snapped aspect; zero for an unclaimed pixel
	Stats      roofmodel.PlaneStatistics
	Morphology roofmodel.Morphology
}

// IsPlane reports whether the node originated from an accepted plane
// rather than an unclaimed pixel.
func (n *Node) IsPlane() bool {
	return n.PlaneID != ""
}

// Graph is the region-adjacency structure spec §4.5 merges over.
type Graph struct {
	Nodes      map[NodeID]*Node
	Adjacency map[NodeID]map[NodeID]bool

	img          *raster.Image
	rasterPixels []roofmodel.Pixel
	nextID       NodeID
}

// Build rasterises the building once, labels every plane inlier with its
// plane's node, labels every remaining pixel with its own singleton
// outlier node, and constructs the 4-connected adjacency graph between
// them.
func Build(building *roofmodel.Building, planes []roofmodel.RoofPlane) (*Graph, error) {
	img, rasterPixels, err := raster.Rasterise(building.Pixels, building.Resolution)
	if err != nil {
		return nil, err
	}

	g := &Graph{
		Nodes:      map[NodeID]*Node{},
		Adjacency: map[NodeID]map[NodeID]bool{},
		img:          img,
		rasterPixels: rasterPixels,
	}

	labelOf := make(map[[2]int]NodeID, len(rasterPixels))

	for _, plane := range planes {
		id := g.newID()
		node := &Node{
			ID:         id,
			PlaneID:    plane.PlaneID,
			PlaneType:  plane.PlaneType,
			Pixels:     plane.Inliers,
			Fit:        plane.Fit,
			IsFlat:     plane.IsFlat,
			Aspect:     plane.Fit.Aspect,
			Stats:      plane.Stats,
			Morphology: plane.Morphology,
		}
		g.Nodes[id] = node
		for _, p := range plane.Inliers {
			labelOf[[2]int{p.Row, p.Col}] = id
		}
	}

	for _, p := range rasterPixels {
		key := [2]int{p.Row, p.Col}
		if _, labelled := labelOf[key]; labelled {
			continue
		}
		id := g.newID()
		g.Nodes[id] = &Node{ID: id, Pixels: []roofmodel.Pixel{p}}
		labelOf[key] = id
	}

	for r := 0; r < img.Rows; r++ {
		for c := 0; c < img.Cols; c++ {
			idx := img.At(r, c)
			if idx == raster.NoData {
				continue
			}
			a, ok := labelOf[[2]int{r, c}]
			if !ok {
				continue
			}
			for _, d := range [][2]int{{0, 1}, {1, 0}} {
				nr, nc := r+d[0], c+d[1]
				nidx := img.At(nr, nc)
				if nidx == raster.NoData {
					continue
				}
				b, ok := labelOf[[2]int{nr, nc}]
				if !ok || a == b {
					continue
				}
				g.link(a, b)
			}
		}
	}

	return g, nil
}

func (g *Graph) newID() NodeID {
	g.nextID++
	return g.nextID
}

func (g *Graph) link(a, b NodeID) {
	if g.Adjacency[a] == nil {
		g.Adjacency[a] = map[NodeID]bool{}
	}
	if g.Adjacency[b] == nil {
		g.Adjacency[b] = map[NodeID]bool{}
	}
	g.Adjacency[a][b] = true
	g.Adjacency[b][a] = true
}

func (g *Graph) unlink(a, b NodeID) {
	delete(g.Adjacency[a], b)
	delete(g.Adjacency[b], a)
}

// edgePairs returns every adjacent node-id pair exactly once, in a
// deterministic (ascending ID) order.
func (g *Graph) edgePairs() [][2]NodeID {
	var pairs [][2]NodeID
	for a, neighbours := range g.Adjacency {
		for b := range neighbours {
			if a < b {
				pairs = append(pairs, [2]NodeID{a, b})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs
}

// PlaneNodes returns every surviving plane node, in ascending-ID order.
func (g *Graph) PlaneNodes() []*Node {
	var ids []NodeID
	for id, n := range g.Nodes {
		if n.IsPlane() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = g.Nodes[id]
	}
	return out
}

// fitUnion re-fits OLS over the combined pixel sets of two nodes.
func fitUnion(a, b *Node) (roofmodel.FitResult, []roofmodel.Pixel, error) {
	pixels := make([]roofmodel.Pixel, 0, len(a.Pixels)+len(b.Pixels))
	pixels = append(pixels, a.Pixels...)
	pixels = append(pixels, b.Pixels...)
	fit, err := detsac.FitPlane(pixels)
	return fit, pixels, err
}
