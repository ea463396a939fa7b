package image

import "image"

// PixelCoord is a pixel position within an image's bounds, relative to its
// top-left corner.
type PixelCoord struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

// Decoded is a bitmap tagged with the location it was decoded from.
type Decoded struct {
	Location string
	Pixels   *image.NRGBA
}

type DiffResult struct {
	MismatchedPixels []PixelCoord
	DiffAmount       float64
}
