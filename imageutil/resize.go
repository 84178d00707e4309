package imageutil

import (
	"image"

	"golang.org/x/image/draw"
)

// Interpolation specifies the interpolation method for resizing.
type Interpolation int

const (
	// InterpolationArea uses Catmull-Rom for high-quality downscaling.
	InterpolationArea Interpolation = iota

	// InterpolationLinear uses bilinear interpolation.
	InterpolationLinear

	// InterpolationNearest uses nearest-neighbor interpolation.
	// Keeps single-pixel edges crisp when enlarging small results.
	InterpolationNearest
)

func (interp Interpolation) scaler() draw.Scaler {
	switch interp {
	case InterpolationLinear:
		return draw.BiLinear
	case InterpolationNearest:
		return draw.NearestNeighbor
	default:
		return draw.CatmullRom
	}
}

// Resize scales img to the specified dimensions using the given
// interpolation method.
func Resize(img image.Image, width, height int, interp Interpolation) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	interp.scaler().Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// ResizeToHeight resizes an image to the specified height while maintaining
// aspect ratio. The width is never smaller than one pixel.
func ResizeToHeight(img image.Image, height int, interp Interpolation) *image.NRGBA {
	bounds := img.Bounds()
	aspectRatio := float64(bounds.Dx()) / float64(bounds.Dy())
	width := max(1, int(float64(height)*aspectRatio))
	return Resize(img, width, height, interp)
}
