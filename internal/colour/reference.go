package colour

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultClusterCount is the number of reference clusters.
const DefaultClusterCount = 128

// DefaultReferenceSeed seeds the reference clustering PRNG.
const DefaultReferenceSeed uint64 = 1

var (
	// ErrEmptyCatalog is returned when the reference catalog has no colours.
	ErrEmptyCatalog = errors.New("colour catalog is empty")

	// ErrInvalidClusterCount is returned when k is outside [1, len(catalog)].
	ErrInvalidClusterCount = errors.New("invalid cluster count")
)

// Cluster is one partition of the catalog in XYZ space, represented by the
// catalog colour nearest its centroid.
type Cluster struct {
	Label   int    `json:"label"`
	Name    string `json:"name"`
	RGB     RGB    `json:"rgb"`
	Members int    `json:"members"`

	colour colorful.Color
}

// Reference is the fixed set of clusters contrast colours are chosen from.
// It is never modified after BuildReference returns.
type Reference struct {
	clusters []Cluster
	seed     uint64
}

// BuildReference partitions catalog into k clusters by k-means over XYZ
// coordinates. The result depends only on catalog, k and seed.
func BuildReference(catalog []NamedColour, k int, seed uint64) (*Reference, error) {
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	if k < 1 || k > len(catalog) {
		return nil, fmt.Errorf("%w: k=%d with %d catalog colours", ErrInvalidClusterCount, k, len(catalog))
	}

	points := make([]point3D, len(catalog))
	for i, nc := range catalog {
		x, y, z := nc.RGB.Colorful().Xyz()
		points[i] = point3D{X: x, Y: y, Z: z}
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	centroids, assignments := kmeans(points, k, rng, kmeansOptions{
		maxIterations: 300,
		convergence:   1e-9,
	})

	members := make([]int, k)
	for _, a := range assignments {
		members[a]++
	}

	clusters := make([]Cluster, k)
	for label, centroid := range centroids {
		nearest, nearestDist := 0, math.MaxFloat64
		for i, p := range points {
			// Prefer the cluster's own members; fall back to the whole catalog.
			if members[label] > 0 && assignments[i] != label {
				continue
			}
			if d := p.distance(centroid); d < nearestDist {
				nearest, nearestDist = i, d
			}
		}
		nc := catalog[nearest]
		clusters[label] = Cluster{
			Label:   label,
			Name:    nc.Name,
			RGB:     nc.RGB,
			Members: members[label],
			colour:  nc.RGB.Colorful(),
		}
	}

	return &Reference{clusters: clusters, seed: seed}, nil
}

// NewReferenceFromColours builds a reference whose clusters are exactly the
// given colours, in order. It is used for fixed palettes and tests.
func NewReferenceFromColours(colours []NamedColour) (*Reference, error) {
	if len(colours) == 0 {
		return nil, ErrEmptyCatalog
	}
	clusters := make([]Cluster, len(colours))
	for i, nc := range colours {
		clusters[i] = Cluster{Label: i, Name: nc.Name, RGB: nc.RGB, Members: 1, colour: nc.RGB.Colorful()}
	}
	return &Reference{clusters: clusters}, nil
}

// Len returns the number of clusters.
func (r *Reference) Len() int {
	return len(r.clusters)
}

// Seed returns the PRNG seed the clusters were built with.
func (r *Reference) Seed() uint64 {
	return r.seed
}

// Clusters returns a copy of the clusters in label order.
func (r *Reference) Clusters() []Cluster {
	out := make([]Cluster, len(r.clusters))
	copy(out, r.clusters)
	return out
}
