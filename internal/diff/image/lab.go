package image

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Lab is a CIE L*a*b* coordinate (D65 white point) with L in [0, 100].
type Lab struct {
	L float32
	A float32
	B float32
}

// go-colorful reports L in [0, 1].
const labScale = 100

// ToLab converts an 8-bit sRGB pixel. Alpha is not taken into account.
func ToLab(c color.NRGBA) Lab {
	l, a, b := colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}.Lab()

	return Lab{
		L: float32(l * labScale),
		A: float32(a * labScale),
		B: float32(b * labScale),
	}
}

func (l Lab) SquaredDistance(other Lab) float32 {
	dl := l.L - other.L
	da := l.A - other.A
	db := l.B - other.B
	return dl*dl + da*da + db*db
}

// LabDistance returns the squared Euclidean distance between two pixels in
// L*a*b* space.
func LabDistance(a color.NRGBA, b color.NRGBA) float32 {
	return ToLab(a).SquaredDistance(ToLab(b))
}
