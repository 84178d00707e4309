package imageutil

import (
	"errors"
	"fmt"
)

// ErrInvalidKernel is returned for kernels that are empty, not square, or
// have an even size (and therefore no centre cell).
var ErrInvalidKernel = errors.New("invalid convolution kernel")

// Weight is the numeric domain of kernel weights. Accumulation happens in
// the same type, so int64 leaves ample headroom for 8-bit samples.
type Weight interface {
	~float64 | ~int64
}

// Kernel is an immutable square convolution kernel. Weights are stored
// row-major: the weight for neighbour offset (dx, dy) is rows[dy][dx].
type Kernel[W Weight] struct {
	values []W
	size   int
}

// NewKernel creates a kernel from a square slice of rows. The input is
// copied, so later changes to rows do not affect the kernel.
func NewKernel[W Weight](rows [][]W) (*Kernel[W], error) {
	size := len(rows)
	if size == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidKernel)
	}
	if size%2 == 0 {
		return nil, fmt.Errorf("%w: even size %d", ErrInvalidKernel, size)
	}

	values := make([]W, 0, size*size)
	for i, row := range rows {
		if len(row) != size {
			return nil, fmt.Errorf("%w: row %d has %d weights, want %d",
				ErrInvalidKernel, i, len(row), size)
		}
		values = append(values, row...)
	}
	return &Kernel[W]{values: values, size: size}, nil
}

// MustKernel is like NewKernel but panics on invalid input. It is meant
// for kernel literals.
func MustKernel[W Weight](rows [][]W) *Kernel[W] {
	k, err := NewKernel(rows)
	if err != nil {
		panic(err)
	}
	return k
}

// Size returns the kernel's side length.
func (k *Kernel[W]) Size() int {
	return k.size
}

// WeightAt returns the weight for neighbour offset (dx, dy), measured from
// the kernel's top-left corner. dx and dy must lie in [0, Size()).
func (k *Kernel[W]) WeightAt(dx, dy int) W {
	return k.values[dy*k.size+dx]
}

// Rows returns a copy of the weights as a slice of rows.
func (k *Kernel[W]) Rows() [][]W {
	rows := make([][]W, k.size)
	for y := range rows {
		rows[y] = make([]W, k.size)
		copy(rows[y], k.values[y*k.size:(y+1)*k.size])
	}
	return rows
}

// LaplacianFloat returns the 3x3 Laplacian edge-detection mask with
// floating-point weights.
func LaplacianFloat() *Kernel[float64] {
	return MustKernel([][]float64{
		{1, 1, 1},
		{1, -8, 1},
		{1, 1, 1},
	})
}

// LaplacianInt returns the 3x3 Laplacian edge-detection mask with integer
// weights.
func LaplacianInt() *Kernel[int64] {
	return MustKernel([][]int64{
		{1, 1, 1},
		{1, -8, 1},
		{1, 1, 1},
	})
}

// ClampByte maps an accumulated value into a byte: values above 255 become
// 255, negative values become 0, anything else is truncated toward zero.
func ClampByte[W Weight](v W) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}
