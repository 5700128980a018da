package vector

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultWindow is the bucket width W used by projection hashes
	DefaultWindow = 400.0
	// Prime used to combine the amplified hash, 2^32 - 5
	Prime = 4294967291
	// MaxCoefficient bounds the amplification coefficients to [-40, 40]
	MaxCoefficient = 40
)

// NewRand creates the single generator an index draws all its randomness from
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Projection holds a random direction and the window offset t fixed at build time
type Projection struct {
	Coefs  []float64
	Offset float64
}

// NewProjection samples dim components from N(0,1)+1 and the offset from [0, window)
func NewProjection(rng *rand.Rand, dim int, window float64) Projection {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	coefs := make([]float64, dim)
	for i := range coefs {
		// shifted by 1 so most of the projection stays positive
		coefs[i] = normal.Rand() + 1
	}
	offset := distuv.Uniform{Min: 0, Max: window, Src: rng}
	return Projection{
		Coefs:  coefs,
		Offset: offset.Rand(),
	}
}

// GenerateProjections creates tables x functions projections
func GenerateProjections(rng *rand.Rand, tables, functions, dim int, window float64) [][]Projection {
	projections := make([][]Projection, tables)
	for i := range projections {
		projections[i] = make([]Projection, functions)
		for j := range projections[i] {
			projections[i][j] = NewProjection(rng, dim, window)
		}
	}
	return projections
}

// HashCode calculates floor((v*p + t) / W)
func HashCode(v []float64, p Projection, window float64) int64 {
	return int64(math.Floor((Dot(v, p.Coefs) + p.Offset) / window))
}

// AmplifiedHash combines several projection hashes into one code
type AmplifiedHash struct {
	Projections  []Projection
	Coefficients []int64
	Window       float64
}

// NewAmplifiedHash combines the projections with coefficients drawn from [-40, 40]
func NewAmplifiedHash(rng *rand.Rand, projections []Projection, window float64) AmplifiedHash {
	h := AmplifiedHash{
		Projections:  projections,
		Coefficients: make([]int64, len(projections)),
		Window:       window,
	}
	for i := range h.Coefficients {
		h.Coefficients[i] = int64(rng.IntN(2*MaxCoefficient+1) - MaxCoefficient)
	}
	return h
}

// Code returns sum(r_i * h_i(v)) mod Prime
func (h AmplifiedHash) Code(v []float64) uint64 {
	return AmplifiedHashCode(v, h.Projections, h.Coefficients, h.Window)
}

// AmplifiedHashCode is the free-function form of AmplifiedHash.Code
func AmplifiedHashCode(v []float64, projections []Projection, coefs []int64, window float64) uint64 {
	var sum uint64
	for i, p := range projections {
		term := modPrime(coefs[i] * modPrime(HashCode(v, p, window)))
		sum = (sum + uint64(term)) % Prime
	}
	return sum
}

// modPrime returns non-negative x mod Prime
func modPrime(x int64) int64 {
	m := x % Prime
	if m < 0 {
		m += Prime
	}
	return m
}
