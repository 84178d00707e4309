package imageutil

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func TestNewPixelBuffer(t *testing.T) {
	buf, err := NewPixelBuffer(100, 50, 4)
	if err != nil {
		t.Fatalf("NewPixelBuffer failed: %v", err)
	}
	if buf.Width != 100 || buf.Height != 50 {
		t.Errorf("Expected 100x50, got %dx%d", buf.Width, buf.Height)
	}
	if buf.Stride != 400 {
		t.Errorf("Expected stride 400, got %d", buf.Stride)
	}
	if len(buf.Pix) != 100*50*4 {
		t.Errorf("Expected %d bytes, got %d", 100*50*4, len(buf.Pix))
	}
}

func TestNewPixelBufferInvalid(t *testing.T) {
	testCases := []struct {
		name                    string
		width, height, channels int
	}{
		{"ZeroWidth", 0, 5, 4},
		{"ZeroHeight", 5, 0, 4},
		{"NegativeWidth", -1, 5, 3},
		{"TwoChannels", 5, 5, 2},
		{"FiveChannels", 5, 5, 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPixelBuffer(tc.width, tc.height, tc.channels)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("Expected ErrInvalidGeometry, got %v", err)
			}
		})
	}
}

func TestWrapPixelBufferStride(t *testing.T) {
	// 2x2 pixels, 3 channels, rows padded to 8 bytes.
	pix := make([]byte, 16)
	buf, err := WrapPixelBuffer(pix, 2, 2, 8, 3)
	if err != nil {
		t.Fatalf("WrapPixelBuffer failed: %v", err)
	}

	buf.Set(1, 1, 2, 7)
	if pix[1*8+1*3+2] != 7 {
		t.Errorf("Set should write through to the wrapped storage at offset 13")
	}
	if got := buf.At(1, 1, 2); got != 7 {
		t.Errorf("Expected 7, got %d", got)
	}
	if got := buf.Offset(0, 1); got != 8 {
		t.Errorf("Expected row 1 to start at 8, got %d", got)
	}
}

func TestWrapPixelBufferInvalid(t *testing.T) {
	if _, err := WrapPixelBuffer(make([]byte, 15), 2, 2, 8, 3); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("Short storage: expected ErrInvalidGeometry, got %v", err)
	}
	if _, err := WrapPixelBuffer(make([]byte, 16), 2, 2, 5, 3); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("Short stride: expected ErrInvalidGeometry, got %v", err)
	}
}

func TestPixelBufferValidate(t *testing.T) {
	buf := &PixelBuffer{Pix: make([]byte, 10), Width: 2, Height: 2, Stride: 8, Channels: 4}
	if err := buf.Validate(); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("Expected ErrInvalidGeometry, got %v", err)
	}
	buf.Pix = make([]byte, 16)
	if err := buf.Validate(); err != nil {
		t.Errorf("Expected valid buffer, got %v", err)
	}
}

func TestPixelBufferClone(t *testing.T) {
	buf := CreateSolidBuffer(10, 10, 1, 2, 3, 4)
	clone := buf.Clone()
	if clone.At(5, 5, ChannelR) != 3 {
		t.Error("Clone should have same pixel values")
	}

	// Modify clone, original should be unchanged
	clone.Set(5, 5, ChannelR, 99)
	if buf.At(5, 5, ChannelR) != 3 {
		t.Error("Modifying clone should not affect original")
	}
	if clone.Stride != buf.Stride || clone.Channels != buf.Channels {
		t.Error("Clone should keep the geometry")
	}
}

func TestBufferFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 20, 13, 22))
	img.SetNRGBA(10, 20, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	img.SetNRGBA(12, 21, color.NRGBA{R: 1, G: 2, B: 3, A: 128})

	buf, err := BufferFromImage(img)
	if err != nil {
		t.Fatalf("BufferFromImage failed: %v", err)
	}
	if buf.Width != 3 || buf.Height != 2 || buf.Channels != 4 {
		t.Fatalf("Expected 3x2x4 buffer, got %dx%dx%d", buf.Width, buf.Height, buf.Channels)
	}

	// Byte order is B, G, R, A.
	want := []byte{50, 100, 200, 255}
	for c, v := range want {
		if got := buf.At(0, 0, c); got != v {
			t.Errorf("Channel %d at (0,0): expected %d, got %d", c, v, got)
		}
	}

	back := buf.Image()
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			if back.NRGBAAt(x, y) != img.NRGBAAt(x+10, y+20) {
				t.Errorf("Round trip mismatch at (%d,%d): %v != %v",
					x, y, back.NRGBAAt(x, y), img.NRGBAAt(x+10, y+20))
			}
		}
	}
}

func TestOpaqueImage(t *testing.T) {
	buf := CreateSolidBuffer(2, 2, 10, 20, 30, 0)
	if a := buf.Image().NRGBAAt(1, 1).A; a != 0 {
		t.Errorf("Image should keep alpha 0, got %d", a)
	}
	c := buf.OpaqueImage().NRGBAAt(1, 1)
	if c != (color.NRGBA{R: 30, G: 20, B: 10, A: 255}) {
		t.Errorf("OpaqueImage should ignore alpha, got %v", c)
	}
}

func TestThreeChannelImage(t *testing.T) {
	buf, err := NewPixelBuffer(1, 1, 3)
	if err != nil {
		t.Fatalf("NewPixelBuffer failed: %v", err)
	}
	buf.Set(0, 0, ChannelR, 9)
	if c := buf.Image().NRGBAAt(0, 0); c != (color.NRGBA{R: 9, A: 255}) {
		t.Errorf("3-channel buffer should convert to opaque pixels, got %v", c)
	}
}

func TestResize(t *testing.T) {
	img := CreateGradientBuffer(100, 100).Image()

	// Downscale
	resized := Resize(img, 50, 50, InterpolationArea)
	if resized.Bounds().Dx() != 50 || resized.Bounds().Dy() != 50 {
		t.Errorf("Expected 50x50, got %v", resized.Bounds())
	}

	// Upscale keeping aspect ratio
	resized = ResizeToHeight(CreateGradientBuffer(40, 20).Image(), 60, InterpolationNearest)
	if resized.Bounds().Dx() != 120 || resized.Bounds().Dy() != 60 {
		t.Errorf("Expected 120x60, got %v", resized.Bounds())
	}
}

func TestComparisonSheet(t *testing.T) {
	src := CreateEdgeBuffer(20, 10).Image()
	small := CreateEdgeBuffer(10, 5).OpaqueImage()

	sheet, err := ComparisonSheet([]Panel{
		{Label: "Original", Image: src},
		{Label: "Filtered", Image: small},
	}, 0)
	if err != nil {
		t.Fatalf("ComparisonSheet failed: %v", err)
	}

	// Both panels end up 20x10: padding + 20 + padding + 20 + padding.
	wantW := sheetPadding*3 + 40
	wantH := sheetPadding*2 + sheetLabelBand + 10
	if sheet.Bounds().Dx() != wantW || sheet.Bounds().Dy() != wantH {
		t.Errorf("Expected %dx%d sheet, got %v", wantW, wantH, sheet.Bounds())
	}

	// Top-left corner is background.
	if c := sheet.NRGBAAt(0, 0); c != sheetBackground {
		t.Errorf("Expected background at (0,0), got %v", c)
	}

	if _, err := ComparisonSheet(nil, 0); err == nil {
		t.Error("Expected an error for an empty sheet")
	}
}

func TestComparisonSheetMaxHeight(t *testing.T) {
	src := CreateGradientBuffer(200, 100).Image()
	sheet, err := ComparisonSheet([]Panel{{Label: "Original", Image: src}}, 50)
	if err != nil {
		t.Fatalf("ComparisonSheet failed: %v", err)
	}
	wantH := sheetPadding*2 + sheetLabelBand + 50
	if sheet.Bounds().Dy() != wantH {
		t.Errorf("Expected height %d, got %d", wantH, sheet.Bounds().Dy())
	}
}

func TestLoadSaveImage(t *testing.T) {
	tmpDir := t.TempDir()
	buf := CreateEdgeBuffer(64, 64)

	testCases := []struct {
		name string
		file string
	}{
		{"PNG", "test.png"},
		{"UnknownExtensionWritesPNG", "test.out"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tc.file)
			if err := SaveBuffer(buf, path); err != nil {
				t.Fatalf("Failed to save: %v", err)
			}

			loaded, err := LoadImage(path)
			if err != nil {
				t.Fatalf("Failed to load: %v", err)
			}

			// PNG should be lossless
			if diff := CalculateMaxDiff(buf, loaded, 4); diff != 0 {
				t.Errorf("PNG should be lossless, max diff=%d", diff)
			}
		})
	}
}

func TestSaveJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.jpg")
	buf := CreateGradientBuffer(32, 16)
	if err := SaveBuffer(buf, path); err != nil {
		t.Fatalf("Failed to save JPEG: %v", err)
	}

	loaded, err := LoadImage(path)
	if err != nil {
		t.Fatalf("Failed to load JPEG: %v", err)
	}
	if loaded.Width != 32 || loaded.Height != 16 {
		t.Errorf("Expected 32x16, got %dx%d", loaded.Width, loaded.Height)
	}
	if mse := CalculateMSE(buf, loaded, 3); mse > 10 {
		t.Errorf("JPEG round trip MSE too high: %f", mse)
	}
}

func TestLoadImageMissing(t *testing.T) {
	if _, err := LoadImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestCalculateMSE(t *testing.T) {
	a := CreateSolidBuffer(10, 10, 0, 0, 0, 255)
	b := CreateSolidBuffer(10, 10, 10, 10, 10, 255)

	if mse := CalculateMSE(a, a, 3); mse != 0 {
		t.Errorf("Identical buffers should have MSE=0, got %f", mse)
	}
	if mse := CalculateMSE(a, b, 3); mse != 100 {
		t.Errorf("Expected MSE=100, got %f", mse)
	}
	if diff := CalculateMaxDiff(a, b, 4); diff != 10 {
		t.Errorf("Expected max diff 10, got %d", diff)
	}
}
