// Package imageutil provides the pure Go pixel buffer, convolution kernel
// and image I/O helpers used by the edge filter.
package imageutil

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrInvalidGeometry is returned when a buffer's dimensions, stride,
// channel count or storage cannot describe a valid image.
var ErrInvalidGeometry = errors.New("invalid pixel buffer geometry")

// Channel indices for buffers produced by BufferFromImage. The byte order
// is B, G, R, A.
const (
	ChannelB = 0
	ChannelG = 1
	ChannelR = 2
	ChannelA = 3
)

// PixelBuffer is a view over a contiguous byte region holding Height rows
// of Stride bytes each. Pixel (x, y) channel c lives at
// y*Stride + x*Channels + c. Rows may carry padding beyond
// Width*Channels bytes.
//
// A PixelBuffer has no internal locking. During a filter pass the engine
// is its only writer and nothing else may read it.
type PixelBuffer struct {
	Pix      []byte
	Width    int
	Height   int
	Stride   int
	Channels int
}

// NewPixelBuffer allocates a packed buffer (Stride == width*channels).
func NewPixelBuffer(width, height, channels int) (*PixelBuffer, error) {
	if err := checkGeometry(width, height, width*channels, channels); err != nil {
		return nil, err
	}
	return &PixelBuffer{
		Pix:      make([]byte, width*height*channels),
		Width:    width,
		Height:   height,
		Stride:   width * channels,
		Channels: channels,
	}, nil
}

// WrapPixelBuffer wraps existing storage without copying it.
func WrapPixelBuffer(pix []byte, width, height, stride, channels int) (*PixelBuffer, error) {
	buf := &PixelBuffer{
		Pix:      pix,
		Width:    width,
		Height:   height,
		Stride:   stride,
		Channels: channels,
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	return buf, nil
}

func checkGeometry(width, height, stride, channels int) error {
	switch {
	case width <= 0 || height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidGeometry, width, height)
	case channels != 3 && channels != 4:
		return fmt.Errorf("%w: %d channels, want 3 or 4", ErrInvalidGeometry, channels)
	case stride < width*channels:
		return fmt.Errorf("%w: stride %d shorter than row of %d bytes",
			ErrInvalidGeometry, stride, width*channels)
	}
	return nil
}

// Validate checks that the buffer's fields describe a usable image, for
// buffers assembled by hand rather than through the constructors.
func (b *PixelBuffer) Validate() error {
	if err := checkGeometry(b.Width, b.Height, b.Stride, b.Channels); err != nil {
		return err
	}
	if need := b.Stride * b.Height; len(b.Pix) < need {
		return fmt.Errorf("%w: storage holds %d bytes, need %d",
			ErrInvalidGeometry, len(b.Pix), need)
	}
	return nil
}

// Bounds returns the buffer's rectangle anchored at the origin.
func (b *PixelBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// InBounds reports whether (x, y) addresses a pixel of the buffer.
func (b *PixelBuffer) InBounds(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

// Offset returns the index of the first channel of pixel (x, y) in Pix.
func (b *PixelBuffer) Offset(x, y int) int {
	if boundsChecks && !b.InBounds(x, y) {
		panic(fmt.Sprintf("imageutil: pixel (%d,%d) outside %dx%d buffer",
			x, y, b.Width, b.Height))
	}
	return y*b.Stride + x*b.Channels
}

// At returns channel c of pixel (x, y).
func (b *PixelBuffer) At(x, y, c int) byte {
	if boundsChecks && (c < 0 || c >= b.Channels) {
		panic(fmt.Sprintf("imageutil: channel %d outside [0,%d)", c, b.Channels))
	}
	return b.Pix[b.Offset(x, y)+c]
}

// Set writes channel c of pixel (x, y).
func (b *PixelBuffer) Set(x, y, c int, v byte) {
	if boundsChecks && (c < 0 || c >= b.Channels) {
		panic(fmt.Sprintf("imageutil: channel %d outside [0,%d)", c, b.Channels))
	}
	b.Pix[b.Offset(x, y)+c] = v
}

// Clone creates a deep copy with the same geometry, stride padding
// included.
func (b *PixelBuffer) Clone() *PixelBuffer {
	clone := *b
	clone.Pix = make([]byte, len(b.Pix))
	copy(clone.Pix, b.Pix)
	return &clone
}

// BufferFromImage converts any image.Image into a packed 4-channel
// B, G, R, A buffer with non-premultiplied alpha.
func BufferFromImage(img image.Image) (*PixelBuffer, error) {
	bounds := img.Bounds()
	buf, err := NewPixelBuffer(bounds.Dx(), bounds.Dy(), 4)
	if err != nil {
		return nil, err
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i := buf.Offset(x-bounds.Min.X, y-bounds.Min.Y)
			buf.Pix[i+ChannelB] = c.B
			buf.Pix[i+ChannelG] = c.G
			buf.Pix[i+ChannelR] = c.R
			buf.Pix[i+ChannelA] = c.A
		}
	}
	return buf, nil
}

// Image converts the buffer to an *image.NRGBA. Buffers without an alpha
// channel become fully opaque.
func (b *PixelBuffer) Image() *image.NRGBA {
	return b.toNRGBA(b.Channels == 4)
}

// OpaqueImage converts the buffer to an *image.NRGBA, ignoring any alpha
// channel. Decoded photos usually carry no meaningful alpha, and a filter
// that recomputes alpha would otherwise leave them mostly transparent.
func (b *PixelBuffer) OpaqueImage() *image.NRGBA {
	return b.toNRGBA(false)
}

func (b *PixelBuffer) toNRGBA(withAlpha bool) *image.NRGBA {
	img := image.NewNRGBA(b.Bounds())
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			i := b.Offset(x, y)
			a := uint8(255)
			if withAlpha {
				a = b.Pix[i+ChannelA]
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: b.Pix[i+ChannelR],
				G: b.Pix[i+ChannelG],
				B: b.Pix[i+ChannelB],
				A: a,
			})
		}
	}
	return img
}
