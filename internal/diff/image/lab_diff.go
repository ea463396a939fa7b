package image

import (
	"image"
	"image/color"
)

// LabDiff reports every pixel whose squared L*a*b* distance between baseline
// and target exceeds the tolerance.
type LabDiff struct {
	tolerance float32
}

// NewLabDiff expects a non-negative tolerance.
func NewLabDiff(tolerance float32) *LabDiff {
	return &LabDiff{
		tolerance,
	}
}

// Calculate scans every pixel in row-major order (y outer, x inner) and never
// stops early. Callers must check DimensionsMatch first.
func (d *LabDiff) Calculate(baseline *image.NRGBA, target *image.NRGBA) *DiffResult {
	mismatched := []PixelCoord{}

	if baseline == target {
		return &DiffResult{
			MismatchedPixels: mismatched,
			DiffAmount:       0.0,
		}
	}

	bounds := baseline.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	targetMin := target.Bounds().Min

	for y := 0; y < height; y++ {
		baselineRowStart := baseline.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		targetRowStart := target.PixOffset(targetMin.X, targetMin.Y+y)

		for x := 0; x < width; x++ {
			bo := baselineRowStart + x*4
			to := targetRowStart + x*4

			br, bg, bb, ba := baseline.Pix[bo], baseline.Pix[bo+1], baseline.Pix[bo+2], baseline.Pix[bo+3]
			tr, tg, tb, ta := target.Pix[to], target.Pix[to+1], target.Pix[to+2], target.Pix[to+3]

			if br == tr && bg == tg && bb == tb && ba == ta {
				continue
			}

			distance := LabDistance(
				color.NRGBA{R: br, G: bg, B: bb, A: ba},
				color.NRGBA{R: tr, G: tg, B: tb, A: ta},
			)
			if !matches(distance, d.tolerance) {
				mismatched = append(mismatched, PixelCoord{X: uint32(x), Y: uint32(y)})
			}
		}
	}

	diffAmount := 0.0
	if total := width * height; total > 0 {
		diffAmount = float64(len(mismatched)) / float64(total)
	}

	return &DiffResult{
		MismatchedPixels: mismatched,
		DiffAmount:       diffAmount,
	}
}
