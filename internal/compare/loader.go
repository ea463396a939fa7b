package compare

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	diffimage "snapshot-comparator/internal/diff/image"
	"snapshot-comparator/internal/storage"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadImage decodes the image at location into 8-bit non-premultiplied RGBA
// with its origin at (0, 0). Every failure is an *IOReadError.
func LoadImage(ctx context.Context, s storage.Storage, location string) (*diffimage.Decoded, error) {
	data, err := s.Get(ctx, location)
	if err != nil {
		return nil, newIOReadError(location, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, newIOReadError(location, err)
	}

	return &diffimage.Decoded{
		Location: location,
		Pixels:   toNRGBA(img),
	}, nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Bounds().Min == (image.Point{}) {
		return nrgba
	}

	bounds := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	return nrgba
}
