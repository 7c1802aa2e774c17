// Package texture decodes images and uploads them as GPU textures.
package texture

import (
	"errors"
	"fmt"
	"image"
)

// TGA image types handled by DecodeTGA.
const (
	tgaTrueColor    = 2
	tgaTrueColorRLE = 10
	tgaHeaderSize   = 18
)

var errTGATruncated = errors.New("tga: pixel data truncated")

// DecodeTGA decodes uncompressed (type 2) and RLE (type 10) true-color TGA
// files at 24 or 32 bits per pixel. The result is always top-to-bottom.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, errors.New("tga: header too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, errors.New("tga: color-mapped images not supported")
	}
	if imageType != tgaTrueColor && imageType != tgaTrueColorRLE {
		return nil, fmt.Errorf("tga: unsupported image type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("tga: unsupported bit depth %d", bpp)
	}
	if width == 0 || height == 0 {
		return nil, errors.New("tga: empty image")
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, errTGATruncated
	}

	d := tgaDecoder{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		src:         data[offset:],
		bytesPP:     bpp / 8,
		width:       width,
		height:      height,
		topToBottom: topToBottom,
	}

	var err error
	if imageType == tgaTrueColor {
		err = d.raw()
	} else {
		err = d.rle()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	img         *image.RGBA
	src         []byte
	pos         int
	bytesPP     int
	width       int
	height      int
	topToBottom bool
}

// pixel reads one BGR(A) pixel from the stream.
func (d *tgaDecoder) pixel() ([4]byte, bool) {
	if d.pos+d.bytesPP > len(d.src) {
		return [4]byte{}, false
	}
	p := d.src[d.pos:]
	c := [4]byte{p[2], p[1], p[0], 255}
	if d.bytesPP == 4 {
		c[3] = p[3]
	}
	d.pos += d.bytesPP
	return c, true
}

// put writes the n-th pixel in file order.
func (d *tgaDecoder) put(n int, c [4]byte) {
	x, y := n%d.width, n/d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	copy(d.img.Pix[d.img.PixOffset(x, y):], c[:])
}

func (d *tgaDecoder) raw() error {
	total := d.width * d.height
	if len(d.src) < total*d.bytesPP {
		return errTGATruncated
	}
	for n := 0; n < total; n++ {
		c, _ := d.pixel()
		d.put(n, c)
	}
	return nil
}

func (d *tgaDecoder) rle() error {
	total := d.width * d.height
	n := 0
	for n < total {
		if d.pos >= len(d.src) {
			return errTGATruncated
		}
		header := d.src[d.pos]
		d.pos++
		count := int(header&0x7f) + 1

		if header&0x80 != 0 {
			c, ok := d.pixel()
			if !ok {
				return errTGATruncated
			}
			for i := 0; i < count && n < total; i++ {
				d.put(n, c)
				n++
			}
			continue
		}

		for i := 0; i < count && n < total; i++ {
			c, ok := d.pixel()
			if !ok {
				return errTGATruncated
			}
			d.put(n, c)
			n++
		}
	}
	return nil
}
