package vector

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"

	cm "github.com/gasparian/ann-search-go/common"
)

const tol = 1e-6

// FeatureVector is an immutable point of the dataset; ID equals its position
type FeatureVector struct {
	ID         uint32
	components []float64
}

// Components returns the vector values. The slice must not be mutated.
func (v FeatureVector) Components() []float64 {
	return v.components
}

// Dim returns number of components
func (v FeatureVector) Dim() int {
	return len(v.components)
}

// Dataset holds fixed-dimension vectors in one contiguous block
type Dataset struct {
	dim  int
	vecs []FeatureVector
}

// NewDataset copies rows into a new dataset, every row must have dim components
func NewDataset(dim int, rows [][]float64) (*Dataset, error) {
	if err := cm.PositiveInt("dimension", dim); err != nil {
		return nil, err
	}
	data := make([]float64, len(rows)*dim)
	for i, row := range rows {
		if err := cm.CheckDimension(dim, len(row)); err != nil {
			return nil, err
		}
		copy(data[i*dim:(i+1)*dim], row)
	}
	return fromFlat(dim, len(rows), data), nil
}

// FromRows infers dimension from the first row
func FromRows(rows [][]float64) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, &cm.EmptyDatasetError{Source: "rows"}
	}
	return NewDataset(len(rows[0]), rows)
}

func fromFlat(dim, count int, data []float64) *Dataset {
	vecs := make([]FeatureVector, count)
	for i := range vecs {
		vecs[i] = FeatureVector{
			ID:         uint32(i),
			components: data[i*dim : (i+1)*dim : (i+1)*dim],
		}
	}
	return &Dataset{dim: dim, vecs: vecs}
}

// Len returns number of vectors
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.vecs)
}

// Dim returns dimension of every vector in the dataset
func (d *Dataset) Dim() int {
	return d.dim
}

// At returns vector by id
func (d *Dataset) At(id uint32) FeatureVector {
	return d.vecs[id]
}

// Vectors returns all vectors ordered by id. The slice must not be mutated.
func (d *Dataset) Vectors() []FeatureVector {
	return d.vecs
}

// Slice returns dataset view over the first n vectors
func (d *Dataset) Slice(n int) *Dataset {
	if n > len(d.vecs) {
		n = len(d.vecs)
	}
	if n < 0 {
		n = 0
	}
	return &Dataset{dim: d.dim, vecs: d.vecs[:n:n]}
}

// Validate checks that q could be compared with the dataset vectors
func (d *Dataset) Validate(q []float64) error {
	return cm.CheckDimension(d.dim, len(q))
}

// NewVec creates new blas vector
func NewVec(data []float64) blas64.Vector {
	if data == nil {
		data = make([]float64, 0)
	}
	return blas64.Vector{
		N:    len(data),
		Inc:  1,
		Data: data,
	}
}

// Dot calculates inner product of two equally sized vectors
func Dot(a, b []float64) float64 {
	return blas64.Dot(NewVec(a), NewVec(b))
}

// Minkowski calculates (sum |a_i - b_i|^p)^(1/p)
func Minkowski(p float64, a, b []float64) float64 {
	return floats.Distance(a, b, p)
}

// L2 calculates euclidean distance, the metric used by all indexes
func L2(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// IsZeroVector returns true if all the values are close to 0.0
func IsZeroVector(v []float64) bool {
	return floats.Norm(v, 1) <= tol
}
