package classifier

import (
	"image"

	"golang.org/x/image/draw"
)

// resize scales img to exactly width x height with bilinear filtering.
func resize(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// pixel returns the first channels components of the pixel at (x, y).
// One channel yields luma, three RGB, four RGBA.
func pixel(img *image.RGBA, x, y, channels int) [4]uint8 {
	i := img.PixOffset(x, y)
	r, g, b, a := img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]
	if channels == 1 {
		// ITU-R 601 luma, as image/color.GrayModel.
		lum := (19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16
		return [4]uint8{uint8(lum)}
	}
	return [4]uint8{r, g, b, a}
}

// tensorImage rebuilds an RGB image from a channels-last uint8 tensor.
func tensorImage(t Tensor) (*image.RGBA, error) {
	g, err := resolveGeometry(t.Shape)
	if err != nil {
		return nil, err
	}
	if t.DType != Uint8 || g.layout != ChannelsLast || len(t.Uint8) < g.height*g.width*g.channels {
		return nil, ErrUnsupportedShape
	}
	img := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			src := (y*g.width + x) * g.channels
			dst := img.PixOffset(x, y)
			if g.channels == 1 {
				v := t.Uint8[src]
				img.Pix[dst], img.Pix[dst+1], img.Pix[dst+2] = v, v, v
			} else {
				copy(img.Pix[dst:dst+3], t.Uint8[src:src+3])
			}
			img.Pix[dst+3] = 0xff
		}
	}
	return img, nil
}
