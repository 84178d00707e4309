package imageutil

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// LoadImage decodes the image at path into a 4-channel B, G, R, A buffer.
// Supports PNG, JPEG, GIF, TIFF, BMP and WebP. EXIF orientation is applied
// so the buffer matches what an image viewer would show.
func LoadImage(path string) (*PixelBuffer, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return BufferFromImage(img)
}

// SaveImage saves an image to the specified path.
// Format is determined by file extension (png, jpg/jpeg, gif, tif/tiff,
// bmp); unknown extensions are written as PNG.
func SaveImage(img image.Image, path string) error {
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return SavePNG(img, path)
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// SavePNG saves an image as PNG to the specified path.
func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return imaging.Encode(f, img, imaging.PNG)
}

// SaveBuffer saves a pixel buffer to path, see SaveImage.
func SaveBuffer(buf *PixelBuffer, path string) error {
	return SaveImage(buf.Image(), path)
}
