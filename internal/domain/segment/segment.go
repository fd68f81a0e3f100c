// Package segment partitions a population of feature vectors into K
// centroid-defined groups. Used for offline population analysis only, never
// on the per-request matching path.
package segment

import (
	"fmt"
	"math/rand"

	"github.com/linksmith/matchlab/internal/domain"
	"github.com/linksmith/matchlab/internal/domain/similarity"
	"github.com/linksmith/matchlab/internal/domain/vector"
)

// maxIterations caps the assign/recompute loop.
const maxIterations = 100

// Result holds cluster assignments (index into the input pool) and the
// final centroids.
type Result struct {
	Assignments []int
	Centroids   []vector.Vector
	Iterations  int
}

// Cluster runs iterative centroid assignment over the weighted-euclidean
// distance. Initial centroids sample the per-dimension value range from the
// injected random source, keeping runs reproducible under test. An empty
// cluster keeps its previous centroid.
func Cluster(pool []vector.Vector, k int, rng *rand.Rand) (Result, error) {
	if k <= 0 {
		return Result{}, fmt.Errorf("%w: cluster count must be positive, got %d", domain.ErrValidation, k)
	}
	if len(pool) < k {
		return Result{}, fmt.Errorf("%w: %d < %d", domain.ErrPoolTooSmall, len(pool), k)
	}

	centroids := make([]vector.Vector, k)
	for i := range centroids {
		centroids[i] = randomCentroid(rng)
	}

	assignments := make([]int, len(pool))
	for i := range assignments {
		assignments[i] = -1
	}

	var iter int
	for iter = 0; iter < maxIterations; iter++ {
		changed := false
		for i, v := range pool {
			c := nearestCentroid(v, centroids)
			if c != assignments[i] {
				assignments[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}
		centroids = recompute(pool, assignments, centroids)
	}

	return Result{Assignments: assignments, Centroids: centroids, Iterations: iter}, nil
}

func randomCentroid(rng *rand.Rand) vector.Vector {
	vals := make(map[vector.Dimension]float64, len(vector.Dimensions))
	for _, d := range vector.Dimensions {
		vals[d] = rng.Float64() * vector.MaxValue
	}
	return vector.MustNew(vals)
}

func nearestCentroid(v vector.Vector, centroids []vector.Vector) int {
	best, bestSim := 0, -1.0
	for i, c := range centroids {
		if sim := similarity.Score(v, c, similarity.WeightedEuclidean); sim > bestSim {
			best, bestSim = i, sim
		}
	}
	return best
}

func recompute(pool []vector.Vector, assignments []int, prev []vector.Vector) []vector.Vector {
	sums := make([]map[vector.Dimension]float64, len(prev))
	counts := make([]int, len(prev))
	for i := range sums {
		sums[i] = make(map[vector.Dimension]float64, len(vector.Dimensions))
	}

	for i, v := range pool {
		c := assignments[i]
		counts[c]++
		for _, d := range vector.Dimensions {
			sums[c][d] += v.Get(d)
		}
	}

	out := make([]vector.Vector, len(prev))
	for i := range prev {
		if counts[i] == 0 {
			out[i] = prev[i]
			continue
		}
		vals := make(map[vector.Dimension]float64, len(vector.Dimensions))
		for _, d := range vector.Dimensions {
			vals[d] = sums[i][d] / float64(counts[i])
		}
		out[i] = vector.MustNew(vals)
	}
	return out
}
