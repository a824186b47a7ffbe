package colour

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"sort"
)

// point3D is a point in a three-channel colour space (RGB or XYZ).
type point3D struct {
	X, Y, Z float64
}

// distance calculates the Euclidean distance between two points.
func (p point3D) distance(other point3D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	dz := p.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// kmeansOptions bounds a clustering run.
type kmeansOptions struct {
	maxIterations int
	// convergence is the mean centroid movement below which iteration stops.
	convergence float64
	// minChanged is the fraction of reassigned points below which iteration stops.
	minChanged float64
}

// kmeans partitions points into k clusters. The same points, k and rng seed
// always produce the same centroids and assignments.
func kmeans(points []point3D, k int, rng *rand.Rand, opts kmeansOptions) ([]point3D, []int) {
	centroids := initializeCentroidsKMeansPlusPlus(points, k, rng)
	assignments := make([]int, len(points))
	for i, p := range points {
		assignments[i] = findNearestCentroid(p, centroids)
	}

	for iter := 0; iter < opts.maxIterations; iter++ {
		newCentroids := recalculateCentroids(points, assignments, centroids)

		totalMovement := 0.0
		for i := range centroids {
			totalMovement += centroids[i].distance(newCentroids[i])
		}
		centroids = newCentroids

		changed := 0
		for i, p := range points {
			nearest := findNearestCentroid(p, centroids)
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed++
			}
		}

		if changed == 0 || float64(changed)/float64(len(points)) < opts.minChanged {
			break
		}
		if totalMovement/float64(k) < opts.convergence {
			break
		}
	}

	return centroids, assignments
}

// initializeCentroidsKMeansPlusPlus picks k starting centroids, each with
// probability proportional to its squared distance from those already chosen.
func initializeCentroidsKMeansPlusPlus(points []point3D, k int, rng *rand.Rand) []point3D {
	if len(points) == 0 || k == 0 {
		return []point3D{}
	}

	centroids := make([]point3D, 0, k)
	centroids = append(centroids, points[rng.IntN(len(points))])

	distances := make([]float64, len(points))
	for len(centroids) < k {
		totalDistance := 0.0
		for i, p := range points {
			minDist := math.MaxFloat64
			for _, c := range centroids {
				minDist = math.Min(minDist, p.distance(c))
			}
			distances[i] = minDist * minDist
			totalDistance += distances[i]
		}

		if totalDistance == 0 {
			// Fewer distinct points than clusters; nudge a copy of the last centroid.
			last := centroids[len(centroids)-1]
			centroids = append(centroids, point3D{X: last.X + 1e-3, Y: last.Y + 1e-3, Z: last.Z + 1e-3})
			continue
		}

		target := rng.Float64() * totalDistance
		cumulative := 0.0
		chosen := -1
		for i, d := range distances {
			if d == 0 {
				continue
			}
			chosen = i
			cumulative += d
			if cumulative > target {
				break
			}
		}
		centroids = append(centroids, points[chosen])
	}

	return centroids
}

// findNearestCentroid finds the index of the nearest centroid to a point.
// Ties resolve to the lowest index.
func findNearestCentroid(point point3D, centroids []point3D) int {
	minDist := math.MaxFloat64
	nearest := 0

	for i, centroid := range centroids {
		dist := point.distance(centroid)
		if dist < minDist {
			minDist = dist
			nearest = i
		}
	}

	return nearest
}

// recalculateCentroids moves every centroid to the mean of its members. An
// empty cluster takes over the point farthest from its current centroid.
func recalculateCentroids(points []point3D, assignments []int, previous []point3D) []point3D {
	k := len(previous)
	sums := make([]point3D, k)
	counts := make([]int, k)

	for i, point := range points {
		cluster := assignments[i]
		sums[cluster].X += point.X
		sums[cluster].Y += point.Y
		sums[cluster].Z += point.Z
		counts[cluster]++
	}

	centroids := make([]point3D, k)
	for i := range k {
		if counts[i] > 0 {
			n := float64(counts[i])
			centroids[i] = point3D{X: sums[i].X / n, Y: sums[i].Y / n, Z: sums[i].Z / n}
			continue
		}

		farthest, farthestDist := 0, -1.0
		for j, point := range points {
			if d := point.distance(previous[assignments[j]]); d > farthestDist {
				farthest, farthestDist = j, d
			}
		}
		centroids[i] = points[farthest]
	}

	return centroids
}

// KMeansExtractor implements color extraction using k-means clustering.
type KMeansExtractor struct {
	maxIterations int
	convergence   float64
	maxSamples    int
	seed          uint64
}

// NewKMeansExtractor creates a new KMeansExtractor with default settings.
func NewKMeansExtractor() *KMeansExtractor {
	return &KMeansExtractor{
		maxIterations: 20,
		convergence:   2.0,
		maxSamples:    2000,
		seed:          1,
	}
}

// Extract extracts count colours from an image, most dominant first.
// The extractor keeps no mutable state and is safe for concurrent use.
func (e *KMeansExtractor) Extract(img image.Image, count int) (*Palette, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}
	if err := validateCount(count); err != nil {
		return nil, err
	}

	pixels := samplePixels(img, e.maxSamples)
	if len(pixels) == 0 {
		return nil, fmt.Errorf("no pixels found in image")
	}

	unique := make(map[RGB]struct{}, len(pixels))
	points := make([]point3D, len(pixels))
	for i, p := range pixels {
		rgb := ToRGB(p)
		unique[rgb] = struct{}{}
		points[i] = point3D{X: float64(rgb.R), Y: float64(rgb.G), Z: float64(rgb.B)}
	}
	if len(unique) < count {
		return nil, fmt.Errorf("%w: image has %d distinct colours, want %d", ErrTooFewColours, len(unique), count)
	}

	rng := rand.New(rand.NewPCG(e.seed, e.seed))
	centroids, assignments := kmeans(points, count, rng, kmeansOptions{
		maxIterations: e.maxIterations,
		convergence:   e.convergence,
		minChanged:    0.01,
	})

	weights := make([]int, len(centroids))
	for _, a := range assignments {
		weights[a]++
	}

	order := make([]int, len(centroids))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return weights[order[a]] > weights[order[b]] })

	colors := make([]RGB, len(centroids))
	for i, idx := range order {
		c := centroids[idx]
		colors[i] = RGB{R: clampChannel(c.X), G: clampChannel(c.Y), B: clampChannel(c.Z)}
	}
	return NewPalette(colors), nil
}

func clampChannel(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// samplePixels samples pixels from the image.
// For large images, we sample a subset to improve performance.
func samplePixels(img image.Image, maxSamples int) []color.Color {
	bounds := img.Bounds()
	totalPixels := bounds.Dx() * bounds.Dy()

	if totalPixels <= maxSamples {
		pixels := make([]color.Color, 0, totalPixels)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				pixels = append(pixels, img.At(x, y))
			}
		}
		return pixels
	}

	// Grid sampling with a step that yields approximately maxSamples.
	step := max(int(math.Sqrt(float64(totalPixels)/float64(maxSamples))), 1)

	pixels := make([]color.Color, 0, maxSamples)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			pixels = append(pixels, img.At(x, y))
			if len(pixels) >= maxSamples {
				return pixels
			}
		}
	}

	return pixels
}
