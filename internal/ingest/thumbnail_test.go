package ingest

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestIsImageKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"photo.jpg", true},
		{"photo.JPEG", true},
		{"nested/dir/photo.png", true},
		{"photo.gif", true},
		{"photo.bmp", true},
		{"photo.tiff", true},
		{"photo.webp", true},
		{"notes.txt", false},
		{"archive.zip", false},
		{"noextension", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsImageKey(tt.key), "key %q", tt.key)
	}
}

func TestMakeThumbnail_BoundsAndAspect(t *testing.T) {
	data := encodeJPEG(t, solidImage(800, 600, color.NRGBA{R: 40, G: 80, B: 120, A: 255}))

	thumb, origW, origH, err := MakeThumbnail(data, "image/jpeg", "photo.jpg", 150)
	require.NoError(t, err)

	assert.Equal(t, 800, origW)
	assert.Equal(t, 600, origH)
	assert.Equal(t, 150, thumb.Width)
	assert.Equal(t, 112, thumb.Height)
	assert.Equal(t, "image/jpeg", thumb.ContentType)

	// Aspect ratio preserved to within a pixel of rounding.
	srcRatio := float64(origW) / float64(origH)
	thumbRatio := float64(thumb.Width) / float64(thumb.Height)
	assert.InDelta(t, srcRatio, thumbRatio, 0.02)
}

func TestMakeThumbnail_PortraitBounds(t *testing.T) {
	data := encodeJPEG(t, solidImage(600, 800, color.NRGBA{R: 10, G: 10, B: 10, A: 255}))

	thumb, _, _, err := MakeThumbnail(data, "image/jpeg", "photo.jpg", 150)
	require.NoError(t, err)

	assert.Equal(t, 112, thumb.Width)
	assert.Equal(t, 150, thumb.Height)
}

func TestMakeThumbnail_NoUpscale(t *testing.T) {
	data := encodePNG(t, solidImage(100, 80, color.NRGBA{R: 200, G: 0, B: 0, A: 255}))

	thumb, origW, origH, err := MakeThumbnail(data, "image/png", "small.png", 150)
	require.NoError(t, err)

	assert.Equal(t, 100, origW)
	assert.Equal(t, 80, origH)
	assert.Equal(t, 100, thumb.Width)
	assert.Equal(t, 80, thumb.Height)
}

func TestMakeThumbnail_EncodingPolicy(t *testing.T) {
	src := solidImage(20, 20, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	tests := []struct {
		name        string
		data        []byte
		contentType string
		key         string
		wantType    string
	}{
		{"png stays png", encodePNG(t, src), "image/png", "a.png", "image/png"},
		{"png by extension", encodePNG(t, src), "", "a.PNG", "image/png"},
		{"jpeg becomes jpeg", encodeJPEG(t, src), "image/jpeg", "a.jpg", "image/jpeg"},
		{"gif becomes jpeg", encodePNG(t, src), "image/gif", "a.gif", "image/jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thumb, _, _, err := MakeThumbnail(tt.data, tt.contentType, tt.key, 150)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, thumb.ContentType)
			assert.NotEmpty(t, thumb.Data)

			_, format, err := image.Decode(bytes.NewReader(thumb.Data))
			require.NoError(t, err)
			if tt.wantType == "image/png" {
				assert.Equal(t, "png", format)
			} else {
				assert.Equal(t, "jpeg", format)
			}
		})
	}
}

func TestMakeThumbnail_FlattensTransparency(t *testing.T) {
	// Left half transparent, right half opaque red.
	src := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			if x < 10 {
				src.Set(x, y, color.NRGBA{})
			} else {
				src.Set(x, y, color.NRGBA{R: 255, A: 255})
			}
		}
	}

	thumb, _, _, err := MakeThumbnail(encodePNG(t, src), "image/png", "alpha.png", 150)
	require.NoError(t, err)

	out, err := png.Decode(bytes.NewReader(thumb.Data))
	require.NoError(t, err)

	bounds := out.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := out.At(x, y).RGBA()
			require.Equal(t, uint32(0xffff), a, "pixel (%d,%d) must be opaque", x, y)
			if x < 10 {
				// Formerly transparent region is flattened onto white.
				require.Equal(t, uint32(0xffff), r)
				require.Equal(t, uint32(0xffff), g)
				require.Equal(t, uint32(0xffff), b)
			}
		}
	}
}

func TestMakeThumbnail_DecodeFailure(t *testing.T) {
	_, _, _, err := MakeThumbnail([]byte("definitely not an image"), "image/jpeg", "bad.jpg", 150)
	assert.Error(t, err)
}

func TestHasAlphaOrPalette(t *testing.T) {
	assert.True(t, hasAlphaOrPalette(image.NewNRGBA(image.Rect(0, 0, 1, 1))))
	assert.True(t, hasAlphaOrPalette(image.NewRGBA(image.Rect(0, 0, 1, 1))))
	assert.True(t, hasAlphaOrPalette(image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.White})))
	assert.False(t, hasAlphaOrPalette(image.NewYCbCr(image.Rect(0, 0, 1, 1), image.YCbCrSubsampleRatio420)))
	assert.False(t, hasAlphaOrPalette(image.NewGray(image.Rect(0, 0, 1, 1))))
}
