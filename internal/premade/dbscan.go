package premade

import "sort"

// noiseLabel marks a noise point in dbscan1D's output; every other label
// is a 1-based cluster id.
const noiseLabel = -1

// dbscan1D performs density-based clustering over a 1D slice of values
// (building pixel elevations), grouping points within eps of a core point
// (one with at least minSamples neighbours within eps) into the same
// cluster. Grounded on the teacher's grid-accelerated DBSCAN
// (core/topology/clustering.go); reduced to 1D since height clustering
// operates on a single scalar field, so a sorted-array neighbour scan
// replaces the teacher's 2D spatial grid.
func dbscan1D(values []float64, eps float64, minSamples int) []int {
	n := len(values)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = 0 // unvisited
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return values[order[i]] < values[order[j]] })

	// sortedIdx of original index -> position in `order`
	posInOrder := make([]int, n)
	for pos, idx := range order {
		posInOrder[idx] = pos
	}

	regionQuery := func(i int) []int {
		pos := posInOrder[i]
		var neighbours []int
		for p := pos; p < n; p++ {
			j := order[p]
			if values[j]-values[i] > eps {
				break
			}
			neighbours = append(neighbours, j)
		}
		for p := pos - 1; p >= 0; p-- {
			j := order[p]
			if values[i]-values[j] > eps {
				break
			}
			neighbours = append(neighbours, j)
		}
		return neighbours
	}

	clusterID := 0
	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}
		neighbours := regionQuery(i)
		if len(neighbours) < minSamples {
			labels[i] = noiseLabel
			continue
		}
		clusterID++
		labels[i] = clusterID
		queue := append([]int(nil), neighbours...)
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if labels[cur] == noiseLabel {
				labels[cur] = clusterID
			}
			if labels[cur] != 0 {
				continue
			}
			labels[cur] = clusterID
			curNeighbours := regionQuery(cur)
			if len(curNeighbours) >= minSamples {
				queue = append(queue, curNeighbours...)
			}
		}
	}
	return labels
}
