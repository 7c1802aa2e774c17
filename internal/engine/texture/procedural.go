package texture

import (
	"image"
	"image/color"
)

// Checkerboard generates a size x size grayscale checkerboard with square
// cells of 1<<cellShift pixels, alternating hi and lo.
func Checkerboard(size, cellShift int, hi, lo uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := lo
			if ((x>>cellShift)^(y>>cellShift))&1 != 0 {
				v = hi
			}
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
		}
	}
	return img
}

// Solid returns a size x size image filled with c.
func Solid(size int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// placeholderImage is the magenta/black checker bound in place of textures
// that failed to load.
func placeholderImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	magenta := color.RGBA{R: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if (x/4+y/4)%2 == 0 {
				img.SetRGBA(x, y, magenta)
			} else {
				img.SetRGBA(x, y, black)
			}
		}
	}
	return img
}
