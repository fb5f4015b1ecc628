package capture

import (
	"context"
	"image"
	"image/color"
)

// PatternSource produces a synthetic gradient frame, for use without camera hardware.
type PatternSource struct {
	Width  int
	Height int
}

// Frame returns a new gradient image.
func (s PatternSource) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / max(s.Width, 1)),
				G: uint8(y * 255 / max(s.Height, 1)),
				B: 96,
				A: 255,
			})
		}
	}
	return img, nil
}
