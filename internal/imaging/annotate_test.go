package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnotateDoesNotMutateInput(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 60))
	for i := range src.Pix {
		src.Pix[i] = 0x20
	}
	before := make([]uint8, len(src.Pix))
	copy(before, src.Pix)

	out, err := Annotate(src, "OK")
	require.NoError(t, err)
	require.NotNil(t, out)

	require.Equal(t, before, src.Pix, "source buffer must stay untouched")
}

func TestAnnotateDrawsRedText(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 60))

	out, err := Annotate(src, "NG : Hi")
	require.NoError(t, err)

	red := color.RGBA{R: 255, A: 255}
	found := false
	bounds := out.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y && !found; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if out.(*image.RGBA).RGBAAt(x, y) == red {
				found = true
				break
			}
		}
	}
	require.True(t, found, "expected red verdict pixels in the output")
}

func TestAnnotateEmptyImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 0, 0))

	_, err := Annotate(src, "OK")
	require.Error(t, err)

	var render *RenderError
	require.ErrorAs(t, err, &render)
}
