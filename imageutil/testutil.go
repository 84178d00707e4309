package imageutil

import (
	"math"
	"math/rand"
)

// CreateSolidBuffer creates a 4-channel buffer filled with one colour.
func CreateSolidBuffer(width, height int, b, g, r, a uint8) *PixelBuffer {
	buf := mustBuffer(width, height, 4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			setBGRA(buf, x, y, b, g, r, a)
		}
	}
	return buf
}

// CreateGradientBuffer creates an opaque horizontal grey gradient.
func CreateGradientBuffer(width, height int) *PixelBuffer {
	buf := mustBuffer(width, height, 4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(0)
			if width > 1 {
				v = uint8(255 * x / (width - 1))
			}
			setBGRA(buf, x, y, v, v, v, 255)
		}
	}
	return buf
}

// CreateCheckerboardBuffer creates a black and white checkerboard for edge
// testing.
func CreateCheckerboardBuffer(width, height, squareSize int) *PixelBuffer {
	buf := mustBuffer(width, height, 4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(0)
			if ((x/squareSize)+(y/squareSize))%2 == 0 {
				v = 255
			}
			setBGRA(buf, x, y, v, v, v, 255)
		}
	}
	return buf
}

// CreateEdgeBuffer creates a grey image with a white rectangle in the
// centre and a black diagonal line, giving both straight and diagonal edges.
func CreateEdgeBuffer(width, height int) *PixelBuffer {
	buf := CreateSolidBuffer(width, height, 128, 128, 128, 255)

	rx1, ry1 := width/4, height/4
	rx2, ry2 := 3*width/4, 3*height/4
	for y := ry1; y < ry2; y++ {
		for x := rx1; x < rx2; x++ {
			setBGRA(buf, x, y, 255, 255, 255, 255)
		}
	}

	for i := 0; i < min(width, height)/2; i++ {
		setBGRA(buf, i, i, 0, 0, 0, 255)
	}
	return buf
}

// CreateNoiseBuffer fills every channel, alpha included, with
// pseudo-random bytes. The same seed always yields the same buffer.
func CreateNoiseBuffer(width, height, channels int, seed int64) *PixelBuffer {
	buf := mustBuffer(width, height, channels)
	rng := rand.New(rand.NewSource(seed))
	rng.Read(buf.Pix)
	return buf
}

// CalculateMaxDiff returns the largest per-channel difference between two
// buffers over the first channels channels, or 256 if their sizes differ.
func CalculateMaxDiff(a, b *PixelBuffer, channels int) int {
	if a.Width != b.Width || a.Height != b.Height {
		return 256
	}

	maxDiff := 0
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			for c := 0; c < channels; c++ {
				d := int(a.At(x, y, c)) - int(b.At(x, y, c))
				if d < 0 {
					d = -d
				}
				maxDiff = max(maxDiff, d)
			}
		}
	}
	return maxDiff
}

// CalculateMSE calculates the mean squared error between two buffers over
// the first channels channels.
func CalculateMSE(a, b *PixelBuffer, channels int) float64 {
	if a.Width != b.Width || a.Height != b.Height {
		return math.MaxFloat64
	}

	var sumSq float64
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			for c := 0; c < channels; c++ {
				d := float64(a.At(x, y, c)) - float64(b.At(x, y, c))
				sumSq += d * d
			}
		}
	}
	return sumSq / float64(a.Width*a.Height*channels)
}

func setBGRA(buf *PixelBuffer, x, y int, b, g, r, a uint8) {
	i := buf.Offset(x, y)
	buf.Pix[i+ChannelB] = b
	buf.Pix[i+ChannelG] = g
	buf.Pix[i+ChannelR] = r
	buf.Pix[i+ChannelA] = a
}

func mustBuffer(width, height, channels int) *PixelBuffer {
	buf, err := NewPixelBuffer(width, height, channels)
	if err != nil {
		panic(err)
	}
	return buf
}
