// Package edgefilter applies a convolution kernel, by default the 3x3
// Laplacian edge-detection mask, to a pixel buffer. A pass runs on one
// goroutine, reports progress once per row and can be cancelled
// cooperatively between pixels.
package edgefilter

import (
	"fmt"
	"time"

	"github.com/wbrown/edgefilter/imageutil"
)

// Result is the outcome of a filter pass that did not fail.
type Result struct {
	// Buffer holds the filtered image. It is nil when the pass was
	// cancelled; a partially written destination is never handed out.
	Buffer *imageutil.PixelBuffer

	// Cancelled reports that the pass stopped early because its
	// CancelSignal was raised.
	Cancelled bool

	// Processed is the number of destination pixels that were computed.
	Processed int
}

// Filter runs one pass over src. Engine implements it for every weight
// domain, which lets a Controller drive either variant.
type Filter interface {
	Run(src *imageutil.PixelBuffer, signal *CancelSignal, sink ProgressSink) (Result, error)
}

// Engine convolves a source buffer with a kernel. The first Channels()
// channels of every pixel are recomputed; any further channel (alpha for
// the integer variant) keeps its source value.
//
// An Engine is immutable and may run several passes concurrently, each on
// its own source buffer.
type Engine[W imageutil.Weight] struct {
	kernel   *imageutil.Kernel[W]
	channels int
}

// NewEngine creates an engine for kernel that accumulates channels
// channels (3 or 4) per pixel.
func NewEngine[W imageutil.Weight](kernel *imageutil.Kernel[W], channels int) (*Engine[W], error) {
	if kernel == nil {
		return nil, fmt.Errorf("%w: nil kernel", imageutil.ErrInvalidKernel)
	}
	if channels != 3 && channels != 4 {
		return nil, fmt.Errorf("%w: engine channels %d, want 3 or 4",
			imageutil.ErrInvalidGeometry, channels)
	}
	return &Engine[W]{kernel: kernel, channels: channels}, nil
}

// NewFloatEngine returns the floating-point Laplacian variant, which
// recomputes all four channels including alpha.
func NewFloatEngine() *Engine[float64] {
	return &Engine[float64]{kernel: imageutil.LaplacianFloat(), channels: 4}
}

// NewIntEngine returns the integer Laplacian variant, which recomputes
// B, G and R and leaves alpha untouched.
func NewIntEngine() *Engine[int64] {
	return &Engine[int64]{kernel: imageutil.LaplacianInt(), channels: 3}
}

// Kernel returns the engine's kernel.
func (e *Engine[W]) Kernel() *imageutil.Kernel[W] {
	return e.kernel
}

// Channels returns the number of channels accumulated per pixel.
func (e *Engine[W]) Channels() int {
	return e.channels
}

// Run filters src into a new buffer of identical geometry.
//
// Neighbour (x+dx, y+dy) contributes to destination pixel (x, y) only when
// 0 < x+dx < width and 0 < y+dy < height, with (dx, dy) measured from the
// kernel's top-left corner. Column 0 and row 0 therefore never act as
// neighbours, and pixels near the top and left edges sum fewer terms than
// those near the centre.
//
// signal is polled before every pixel. Once it is raised Run stops and
// returns a cancelled Result without a buffer. sink, if not nil, receives
// the cumulative pixel count after every completed row.
//
// Reads come only from src and writes go only to the destination, so the
// result does not depend on iteration order.
func (e *Engine[W]) Run(src *imageutil.PixelBuffer, signal *CancelSignal, sink ProgressSink) (Result, error) {
	if src == nil {
		return Result{}, fmt.Errorf("%w: nil source buffer", imageutil.ErrInvalidGeometry)
	}
	if err := src.Validate(); err != nil {
		return Result{}, err
	}
	if src.Channels < e.channels {
		return Result{}, fmt.Errorf("%w: source has %d channels, engine needs %d",
			imageutil.ErrInvalidGeometry, src.Channels, e.channels)
	}

	logger := Logger()
	start := time.Now()
	logger.Debug("filter pass started",
		"width", src.Width, "height", src.Height,
		"channels", e.channels, "kernel_size", e.kernel.Size())

	// Channels beyond e.channels keep their source values.
	dst := src.Clone()

	width, height := src.Width, src.Height
	size := e.kernel.Size()
	processed := 0

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if signal.Cancelled() {
				logger.Debug("filter pass cancelled",
					"processed", processed, "elapsed", time.Since(start))
				return Result{Cancelled: true, Processed: processed}, nil
			}

			var acc [4]W
			for dy := 0; dy < size; dy++ {
				ny := y + dy
				if ny <= 0 || ny >= height {
					continue
				}
				for dx := 0; dx < size; dx++ {
					nx := x + dx
					if nx <= 0 || nx >= width {
						continue
					}
					weight := e.kernel.WeightAt(dx, dy)
					i := src.Offset(nx, ny)
					for c := 0; c < e.channels; c++ {
						acc[c] += W(src.Pix[i+c]) * weight
					}
				}
			}

			o := dst.Offset(x, y)
			for c := 0; c < e.channels; c++ {
				dst.Pix[o+c] = imageutil.ClampByte(acc[c])
			}
			processed++
		}

		if sink != nil {
			sink.Progress(processed)
		}
	}

	logger.Debug("filter pass finished",
		"processed", processed, "elapsed", time.Since(start))
	return Result{Buffer: dst, Processed: processed}, nil
}

// TermCount returns how many kernel terms contribute to destination pixel
// (x, y) of a width x height image under Run's boundary rule.
func (e *Engine[W]) TermCount(width, height, x, y int) int {
	size := e.kernel.Size()
	count := 0
	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			nx, ny := x+dx, y+dy
			if nx > 0 && nx < width && ny > 0 && ny < height {
				count++
			}
		}
	}
	return count
}
