package vector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/mmap"
)

const (
	// ImagesMagic identifies idx3 files of unsigned byte images
	ImagesMagic = 2051
	headerSize  = 16
)

var (
	wrongMagicErr     = errors.New("wrong idx magic number")
	truncatedFileErr  = errors.New("idx file is truncated")
	emptyShapeErr     = errors.New("idx image shape must be positive")
	oversizedImageErr = errors.New("idx image is too large")
)

// Header holds the idx file header fields
type Header struct {
	Magic   uint32
	Count   uint32
	Rows    uint32
	Columns uint32
}

// LoadDataset reads idx3 images file: 4 big-endian uint32 (magic, count, rows, cols)
// followed by count blocks of rows*cols pixels
func LoadDataset(path string) (*Dataset, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if r.Len() < headerSize {
		return nil, fmt.Errorf("%s: %w", path, truncatedFileErr)
	}
	raw := make([]byte, headerSize)
	if _, err := r.ReadAt(raw, 0); err != nil {
		return nil, err
	}
	header := Header{
		Magic:   binary.BigEndian.Uint32(raw[0:4]),
		Count:   binary.BigEndian.Uint32(raw[4:8]),
		Rows:    binary.BigEndian.Uint32(raw[8:12]),
		Columns: binary.BigEndian.Uint32(raw[12:16]),
	}
	if header.Magic != ImagesMagic {
		return nil, fmt.Errorf("%s: %w: %d", path, wrongMagicErr, header.Magic)
	}
	if header.Rows == 0 || header.Columns == 0 {
		return nil, fmt.Errorf("%s: %w: %dx%d", path, emptyShapeErr, header.Rows, header.Columns)
	}
	// sizes are checked in uint64 against the file so a corrupt header can't overflow int
	pixelsLen := uint64(r.Len() - headerSize)
	dim64 := uint64(header.Rows) * uint64(header.Columns)
	if dim64 > math.MaxInt32 {
		return nil, fmt.Errorf("%s: %w: %dx%d", path, oversizedImageErr, header.Rows, header.Columns)
	}
	if header.Count > 0 && uint64(header.Count) > pixelsLen/dim64 {
		return nil, fmt.Errorf("%s: %w: want %d images of %d pixels, got %d pixels", path, truncatedFileErr, header.Count, dim64, pixelsLen)
	}
	dim := int(dim64)
	count := int(header.Count)

	data := make([]float64, count*dim)
	var pixels []byte
	if count > 0 {
		pixels = make([]byte, dim)
	}
	for i := 0; i < count; i++ {
		if _, err := r.ReadAt(pixels, int64(headerSize+i*dim)); err != nil {
			return nil, err
		}
		row := data[i*dim : (i+1)*dim]
		for j, px := range pixels {
			row[j] = float64(px)
		}
	}
	return fromFlat(dim, count, data), nil
}
