package annbench

import (
	"fmt"

	"gonum.org/v1/hdf5"

	cm "github.com/gasparian/ann-search-go/common"
	vc "github.com/gasparian/ann-search-go/vector"
)

// Objects inside the ann-benchmarks hdf5:
// train
// test
// distances
// neighbors

// Benchmark is an ann-benchmarks dataset
type Benchmark struct {
	Train *vc.Dataset
	Test  [][]float64
	// Neighbors holds ids of the true nearest train vectors of every test vector
	Neighbors [][]uint32
}

// LoadHDF5 reads train and test vectors and the true neighbors from an ann-benchmarks file
func LoadHDF5(path string) (*Benchmark, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dim, train, err := readFloats(f, "train")
	if err != nil {
		return nil, err
	}
	if len(train) == 0 {
		return nil, &cm.EmptyDatasetError{Source: path}
	}
	trainSet, err := vc.NewDataset(dim, train)
	if err != nil {
		return nil, err
	}
	testDim, test, err := readFloats(f, "test")
	if err != nil {
		return nil, err
	}
	if err := cm.CheckDimension(dim, testDim); err != nil {
		return nil, fmt.Errorf("test vectors: %w", err)
	}
	neighbors, err := readIDs(f, "neighbors")
	if err != nil {
		return nil, err
	}
	return &Benchmark{
		Train:     trainSet,
		Test:      test,
		Neighbors: neighbors,
	}, nil
}

// shape returns rows and columns of a 2d dataset
func shape(dataset *hdf5.Dataset, name string) (int, int, error) {
	dims, _, err := dataset.Space().SimpleExtentDims()
	if err != nil {
		return 0, 0, err
	}
	if len(dims) != 2 {
		return 0, 0, fmt.Errorf("%s: expected 2d table, got %d dims", name, len(dims))
	}
	return int(dims[0]), int(dims[1]), nil
}

func readFloats(f *hdf5.File, name string) (int, [][]float64, error) {
	dataset, err := f.OpenDataset(name)
	if err != nil {
		return 0, nil, err
	}
	defer dataset.Close()

	rows, cols, err := shape(dataset, name)
	if err != nil {
		return 0, nil, err
	}
	flat := make([]float32, rows*cols)
	if err := dataset.Read(&flat); err != nil {
		return 0, nil, err
	}
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
		for j, v := range flat[i*cols : (i+1)*cols] {
			out[i][j] = float64(v)
		}
	}
	return cols, out, nil
}

func readIDs(f *hdf5.File, name string) ([][]uint32, error) {
	dataset, err := f.OpenDataset(name)
	if err != nil {
		return nil, err
	}
	defer dataset.Close()

	rows, cols, err := shape(dataset, name)
	if err != nil {
		return nil, err
	}
	flat := make([]int32, rows*cols)
	if err := dataset.Read(&flat); err != nil {
		return nil, err
	}
	out := make([][]uint32, rows)
	for i := range out {
		out[i] = make([]uint32, cols)
		for j, v := range flat[i*cols : (i+1)*cols] {
			out[i][j] = uint32(v)
		}
	}
	return out, nil
}
