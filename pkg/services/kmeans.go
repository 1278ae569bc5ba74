package services

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

const (
	kmeansMaxIter   = 300
	kmeansTolerance = 1e-10
)

type kmeansResult struct {
	Centroids [][]float64
	Labels    []int
	Inertia   float64
}

// Counts returns the number of points assigned to each centroid.
func (r kmeansResult) Counts() []int {
	counts := make([]int, len(r.Centroids))
	for _, l := range r.Labels {
		counts[l]++
	}
	return counts
}

// kMeans clusters points into k groups with k-means++ seeding and keeps the
// lowest-inertia result of restarts runs. ctx is checked between runs.
func kMeans(ctx context.Context, points [][]float64, k, restarts int, rng *rand.Rand) (kmeansResult, error) {
	if k > len(points) {
		k = len(points)
	}
	if k <= 0 {
		return kmeansResult{}, nil
	}
	if restarts < 1 {
		restarts = 1
	}

	best := kmeansResult{Inertia: math.Inf(1)}
	for run := 0; run < restarts; run++ {
		if err := ctx.Err(); err != nil {
			return kmeansResult{}, err
		}
		res := lloyd(points, seedPlusPlus(points, k, rng))
		if res.Inertia < best.Inertia {
			best = res
		}
	}
	return best, nil
}

func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clonePoint(points[rng.Intn(len(points))]))

	d2 := make([]float64, len(points))
	for len(centroids) < k {
		for i, p := range points {
			d2[i] = nearestSquared(p, centroids)
		}
		total := floats.Sum(d2)
		if total == 0 {
			centroids = append(centroids, clonePoint(points[rng.Intn(len(points))]))
			continue
		}
		target := rng.Float64() * total
		idx := len(points) - 1
		var acc float64
		for i, v := range d2 {
			acc += v
			if acc >= target {
				idx = i
				break
			}
		}
		centroids = append(centroids, clonePoint(points[idx]))
	}
	return centroids
}

func lloyd(points [][]float64, centroids [][]float64) kmeansResult {
	k := len(centroids)
	dim := len(points[0])
	labels := make([]int, len(points))

	for iter := 0; iter < kmeansMaxIter; iter++ {
		for i, p := range points {
			labels[i] = nearestIndex(p, centroids)
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}

		var shift float64
		for c := range centroids {
			if counts[c] == 0 {
				// an empty cluster takes over the point farthest from its centroid
				far := farthestPoint(points, labels, centroids)
				next := clonePoint(points[far])
				shift += floats.Distance(centroids[c], next, 2)
				centroids[c] = next
				labels[far] = c
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			shift += floats.Distance(centroids[c], sums[c], 2)
			centroids[c] = sums[c]
		}
		if shift <= kmeansTolerance {
			break
		}
	}

	var inertia float64
	for i, p := range points {
		labels[i] = nearestIndex(p, centroids)
		d := floats.Distance(p, centroids[labels[i]], 2)
		inertia += d * d
	}
	return kmeansResult{Centroids: centroids, Labels: labels, Inertia: inertia}
}

func nearestIndex(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := floats.Distance(p, centroid, 2); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func nearestSquared(p []float64, centroids [][]float64) float64 {
	d := floats.Distance(p, centroids[nearestIndex(p, centroids)], 2)
	return d * d
}

func farthestPoint(points [][]float64, labels []int, centroids [][]float64) int {
	idx, maxDist := 0, -1.0
	for i, p := range points {
		if d := floats.Distance(p, centroids[labels[i]], 2); d > maxDist {
			idx, maxDist = i, d
		}
	}
	return idx
}

func clonePoint(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}
