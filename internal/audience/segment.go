package audience

import (
	"errors"
	"math"
	"math/rand/v2"
)

// SegmentationStrategy partitions signal vectors into at most k groups. It
// returns one cluster index per vector; indexes are dense from zero.
type SegmentationStrategy interface {
	Segment(vectors [][]float64, k int) ([]int, error)
}

// KMeans is a seeded k-means++ strategy. Equal seeds and inputs always
// produce equal assignments.
type KMeans struct {
	Seed          int64
	MaxIterations int
}

// Segment implements SegmentationStrategy.
func (km KMeans) Segment(vectors [][]float64, k int) ([]int, error) {
	if len(vectors) == 0 {
		return nil, errors.New("kmeans: no vectors")
	}
	if k <= 0 {
		return nil, errors.New("kmeans: k must be positive")
	}
	if k > len(vectors) {
		k = len(vectors)
	}
	iterations := km.MaxIterations
	if iterations <= 0 {
		iterations = 50
	}
	seed := uint64(km.Seed)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	centroids := initCentroids(vectors, k, rng)
	assign := make([]int, len(vectors))
	for i := range assign {
		assign[i] = -1
	}
	for iter := 0; iter < iterations; iter++ {
		changed := false
		for i, vec := range vectors {
			nearest := nearestCentroid(vec, centroids)
			if nearest != assign[i] {
				assign[i] = nearest
				changed = true
			}
		}
		if !changed {
			break
		}
		centroids = recompute(vectors, assign, centroids)
	}
	return compact(assign), nil
}

// initCentroids picks k starting points with k-means++ weighting.
func initCentroids(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(vectors[rng.IntN(len(vectors))]))
	dist := make([]float64, len(vectors))
	for len(centroids) < k {
		var total float64
		for i, vec := range vectors {
			d := sqDist(vec, centroids[nearestCentroid(vec, centroids)])
			dist[i] = d
			total += d
		}
		if total == 0 {
			break
		}
		target := rng.Float64() * total
		pick := len(vectors) - 1
		for i, d := range dist {
			target -= d
			if target <= 0 {
				pick = i
				break
			}
		}
		centroids = append(centroids, clone(vectors[pick]))
	}
	return centroids
}

func recompute(vectors [][]float64, assign []int, previous [][]float64) [][]float64 {
	dims := len(vectors[0])
	sums := make([][]float64, len(previous))
	counts := make([]int, len(previous))
	for i := range sums {
		sums[i] = make([]float64, dims)
	}
	for i, vec := range vectors {
		c := assign[i]
		counts[c]++
		for d, v := range vec {
			sums[c][d] += v
		}
	}
	for c := range sums {
		if counts[c] == 0 {
			sums[c] = previous[c]
			continue
		}
		for d := range sums[c] {
			sums[c][d] /= float64(counts[c])
		}
	}
	return sums
}

func nearestCentroid(vec []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, c := range centroids {
		if d := sqDist(vec, c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// compact renumbers cluster indexes in order of first appearance.
func compact(assign []int) []int {
	remap := make(map[int]int)
	out := make([]int, len(assign))
	for i, c := range assign {
		id, ok := remap[c]
		if !ok {
			id = len(remap)
			remap[c] = id
		}
		out[i] = id
	}
	return out
}

// Centroid averages the member vectors.
func Centroid(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	out := make([]float64, len(vectors[0]))
	for _, vec := range vectors {
		for d, v := range vec {
			out[d] += v
		}
	}
	for d := range out {
		out[d] /= float64(len(vectors))
	}
	return out
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
