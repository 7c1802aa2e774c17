package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/rtr-gl/internal/engine/gpu"
	"github.com/Faultbox/rtr-gl/internal/engine/gpu/gputest"
)

type memSource map[string][]byte

func (m memSource) Load(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", path, fs.ErrNotExist)
	}
	return data, nil
}

func tgaHeader(imageType byte, w, h int, bpp byte, descriptor byte) []byte {
	hdr := make([]byte, 18)
	hdr[2] = imageType
	hdr[12], hdr[13] = byte(w), byte(w>>8)
	hdr[14], hdr[15] = byte(h), byte(h>>8)
	hdr[16] = bpp
	hdr[17] = descriptor
	return hdr
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeTGAUncompressedBottomUp(t *testing.T) {
	// 2x2, 24bpp, bottom-to-top rows. File order: bottom-left, bottom-right, top-left, top-right.
	data := tgaHeader(2, 2, 2, 24, 0)
	data = append(data,
		0, 0, 255, // red (BGR)
		0, 255, 0, // green
		255, 0, 0, // blue
		255, 255, 255, // white
	)

	img, err := DecodeTGA(data)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(0, 0), "top-left is the third pixel in file order")
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(0, 1))
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(1, 1))
}

func TestDecodeTGARLE(t *testing.T) {
	// 3x1, 32bpp, top-to-bottom: one run of 2 red pixels, one raw blue pixel.
	data := tgaHeader(10, 3, 1, 32, 0x20)
	data = append(data,
		0x81, 0, 0, 255, 128,
		0x00, 255, 0, 0, 255,
	)

	img, err := DecodeTGA(data)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 0, 0, 128}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{255, 0, 0, 128}, img.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(2, 0))
}

func TestDecodeTGAErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short header", []byte{0, 0, 2}},
		{"color mapped", func() []byte { h := tgaHeader(2, 1, 1, 24, 0); h[1] = 1; return h }()},
		{"grayscale type", tgaHeader(3, 1, 1, 8, 0)},
		{"16 bit", tgaHeader(2, 1, 1, 16, 0)},
		{"truncated raw", append(tgaHeader(2, 2, 2, 24, 0), 1, 2, 3)},
		{"truncated rle", append(tgaHeader(10, 4, 1, 24, 0), 0x83, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTGA(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestDecodePNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.NRGBA{10, 20, 30, 255})
	src.Set(1, 0, color.NRGBA{40, 50, 60, 255})

	img, err := Decode(encodePNG(t, src), "diffuse.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 1), img.Bounds())
	assert.Equal(t, color.RGBA{40, 50, 60, 255}, img.RGBAAt(1, 0))

	_, err = Decode([]byte("not an image"), "broken.png")
	assert.Error(t, err)
}

func TestFlipVertical(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 1, A: 255})
	img.SetRGBA(0, 1, color.RGBA{R: 2, A: 255})

	flipped := FlipVertical(img)
	assert.Equal(t, uint8(2), flipped.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(1), flipped.RGBAAt(0, 1).R)
}

func TestCheckerboard(t *testing.T) {
	img := Checkerboard(64, 4, 255, 35)
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
	assert.Equal(t, uint8(35), img.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(35), img.RGBAAt(15, 15).R)
	assert.Equal(t, uint8(255), img.RGBAAt(16, 0).R)
	assert.Equal(t, uint8(255), img.RGBAAt(0, 16).R)
	assert.Equal(t, uint8(35), img.RGBAAt(16, 16).R)
}

func TestLoaderOutcomes(t *testing.T) {
	dev := gputest.New()
	good := encodePNG(t, Solid(4, color.RGBA{200, 100, 50, 255}))
	src := memSource{
		"wood.png":   good,
		"broken.jpg": []byte("garbage"),
	}
	l := NewLoader(dev, src)

	ok := l.Load("wood.png", gpu.DefaultSampler)
	require.True(t, ok.OK())
	assert.NoError(t, ok.Err)
	img, sampler, found := dev.Texture(ok.Handle)
	require.True(t, found)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, gpu.FilterTrilinear, sampler.Filter)
	assert.False(t, l.IsPlaceholder(ok.Handle))

	missing := l.Load("missing.png", gpu.DefaultSampler)
	assert.Equal(t, Missing, missing.Status)
	assert.Error(t, missing.Err)
	assert.True(t, l.IsPlaceholder(missing.Handle))

	invalid := l.Load("broken.jpg", gpu.DefaultSampler)
	assert.Equal(t, Invalid, invalid.Status)
	assert.Equal(t, missing.Handle, invalid.Handle, "placeholder is shared")

	mem := l.FromMemory(good, "*0", gpu.DefaultSampler)
	assert.True(t, mem.OK())
	assert.NotEqual(t, ok.Handle, mem.Handle)
}

func TestLoaderUploadFailure(t *testing.T) {
	dev := gputest.New()
	l := NewLoader(dev, memSource{})
	dev.FailAllocation = true

	out := l.Upload("procedural", Checkerboard(8, 1, 255, 0), gpu.DefaultSampler)
	assert.Equal(t, UploadFailed, out.Status)
	assert.ErrorIs(t, out.Err, gpu.ErrAllocation)
	assert.Zero(t, out.Handle, "no placeholder when the device cannot allocate")
}

func TestLoaderClose(t *testing.T) {
	dev := gputest.New()
	l := NewLoader(dev, memSource{})
	p := l.Placeholder()
	require.NotZero(t, p)
	assert.Equal(t, p, l.Placeholder())

	l.Close()
	assert.Equal(t, []gpu.TextureID{p}, dev.DeletedTextures)
}
