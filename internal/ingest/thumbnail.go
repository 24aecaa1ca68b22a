package ingest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ThumbnailPrefix names derived artifacts and guards against reprocessing
// them when thumbnails land in a watched bucket.
const ThumbnailPrefix = "thumb-"

const jpegQuality = 85

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// IsImageKey reports whether the object key has a recognized image extension.
func IsImageKey(key string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(key))]
}

// Thumbnail is an encoded derived artifact.
type Thumbnail struct {
	Data        []byte
	Width       int
	Height      int
	ContentType string
}

// MakeThumbnail decodes the source bytes, flattens any transparency onto
// white, and produces an aspect-preserving thumbnail bounded by
// maxSize x maxSize. Images already inside the bounding box keep their
// dimensions. PNG sources are re-encoded losslessly; everything else
// becomes JPEG.
func MakeThumbnail(data []byte, contentType, key string, maxSize int) (*Thumbnail, int, int, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	origBounds := img.Bounds()
	origW, origH := origBounds.Dx(), origBounds.Dy()

	if hasAlphaOrPalette(img) {
		img = flattenOntoWhite(img)
	}

	thumb := imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
	thumbBounds := thumb.Bounds()

	var buf bytes.Buffer
	outType := "image/jpeg"
	if isPNG(contentType, key) {
		outType = "image/png"
		err = imaging.Encode(&buf, thumb, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	} else {
		err = imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	}
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return &Thumbnail{
		Data:        buf.Bytes(),
		Width:       thumbBounds.Dx(),
		Height:      thumbBounds.Dy(),
		ContentType: outType,
	}, origW, origH, nil
}

func isPNG(contentType, key string) bool {
	return contentType == "image/png" || strings.EqualFold(filepath.Ext(key), ".png")
}

// hasAlphaOrPalette reports whether the decoded image may carry
// transparency that would corrupt a re-encode.
func hasAlphaOrPalette(img image.Image) bool {
	switch img.(type) {
	case *image.NRGBA, *image.RGBA, *image.NRGBA64, *image.RGBA64, *image.Paletted:
		return true
	default:
		return false
	}
}

// flattenOntoWhite composites the image over an opaque white background.
func flattenOntoWhite(img image.Image) image.Image {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}
