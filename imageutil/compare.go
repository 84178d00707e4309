package imageutil

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/golang/freetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	sheetPadding   = 8
	sheetLabelSize = 14
	sheetLabelBand = sheetLabelSize + sheetPadding
)

var sheetBackground = color.NRGBA{R: 32, G: 32, B: 32, A: 255}

// Panel is one captioned image of a comparison sheet.
type Panel struct {
	Label string
	Image image.Image
}

// ComparisonSheet lays panels out left to right on a dark background, each
// under its caption. Panels are scaled to a common height no larger than
// maxHeight; a maxHeight <= 0 keeps the tallest panel's height.
//
// Enlarged panels use nearest-neighbour sampling so one-pixel edges stay
// visible.
func ComparisonSheet(panels []Panel, maxHeight int) (*image.NRGBA, error) {
	if len(panels) == 0 {
		return nil, errors.New("comparison sheet needs at least one panel")
	}

	height := 0
	for _, p := range panels {
		height = max(height, p.Image.Bounds().Dy())
	}
	if maxHeight > 0 {
		height = min(height, maxHeight)
	}

	scaled := make([]image.Image, len(panels))
	width := sheetPadding
	for i, p := range panels {
		img := p.Image
		if h := img.Bounds().Dy(); h != height {
			interp := InterpolationArea
			if h < height {
				interp = InterpolationNearest
			}
			img = ResizeToHeight(img, height, interp)
		}
		scaled[i] = img
		width += img.Bounds().Dx() + sheetPadding
	}

	sheet := image.NewNRGBA(image.Rect(0, 0, width,
		sheetPadding+sheetLabelBand+height+sheetPadding))
	draw.Draw(sheet, sheet.Bounds(), &image.Uniform{C: sheetBackground}, image.Point{}, draw.Src)

	ctx, err := newLabelContext(sheet)
	if err != nil {
		return nil, err
	}

	x := sheetPadding
	top := sheetPadding + sheetLabelBand
	for i, img := range scaled {
		b := img.Bounds()
		dst := image.Rect(x, top, x+b.Dx(), top+b.Dy())
		draw.Draw(sheet, dst, img, b.Min, draw.Over)

		if _, err := ctx.DrawString(panels[i].Label, freetype.Pt(x, sheetPadding+sheetLabelSize)); err != nil {
			return nil, fmt.Errorf("failed to draw label %q: %w", panels[i].Label, err)
		}
		x += b.Dx() + sheetPadding
	}

	return sheet, nil
}

// newLabelContext prepares a freetype context that draws white Go Regular
// text onto dst.
func newLabelContext(dst draw.Image) (*freetype.Context, error) {
	ttf, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse label font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(ttf)
	ctx.SetFontSize(sheetLabelSize)
	ctx.SetClip(dst.Bounds())
	ctx.SetDst(dst)
	ctx.SetSrc(image.White)
	ctx.SetHinting(font.HintingFull)
	return ctx, nil
}
