package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

// RenderError reports a failed annotation.
type RenderError struct {
	Reason string
}

func (e *RenderError) Error() string {
	return "render annotation: " + e.Reason
}

// Annotate returns a copy of src with text drawn in red at the top-left
// corner. The source image is never mutated.
func Annotate(src image.Image, text string) (image.Image, error) {
	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, &RenderError{Reason: "source image has no pixels"}
	}

	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, src, bounds.Min, draw.Src)

	d := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(color.RGBA{R: 255, A: 255}),
		Face: inconsolata.Bold8x16,
		Dot:  fixed.P(bounds.Min.X+10, bounds.Min.Y+30),
	}
	d.DrawString(text)

	return out, nil
}
