package image

import (
	"image"
	"image/color"
)

// DimensionsMatch reports whether a and b have the same width and height.
// Their origins may differ.
func DimensionsMatch(a image.Image, b image.Image) bool {
	ab := a.Bounds()
	bb := b.Bounds()
	return ab.Dx() == bb.Dx() && ab.Dy() == bb.Dy()
}

// PixelMatches reports whether the pixel at coord is within tolerance in a and
// b. The boundary is inclusive, so a tolerance of 0 requires an exact colour
// match.
func PixelMatches(a *image.NRGBA, b *image.NRGBA, coord PixelCoord, tolerance float32) bool {
	return matches(LabDistance(pixelAt(a, coord), pixelAt(b, coord)), tolerance)
}

func matches(distance float32, tolerance float32) bool {
	return distance <= tolerance
}

func pixelAt(img *image.NRGBA, coord PixelCoord) color.NRGBA {
	origin := img.Bounds().Min
	return img.NRGBAAt(origin.X+int(coord.X), origin.Y+int(coord.Y))
}
