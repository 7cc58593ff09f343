package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Target is a bounding box and JPEG quality for an encoded output.
type Target struct {
	Width   int
	Height  int
	Quality int
}

// DefaultImageTarget is the mobile-oriented cap for stored images.
func DefaultImageTarget() Target {
	return Target{Width: 1080, Height: 1920, Quality: 85}
}

// DefaultThumbnailTarget is the box for derived thumbnails.
func DefaultThumbnailTarget() Target {
	return Target{Width: 400, Height: 600, Quality: 80}
}

// Encoded is an image together with its JPEG encoding.
type Encoded struct {
	Image  image.Image
	Data   []byte
	Width  int
	Height int
}

// Normalize decodes a candidate, applies its EXIF orientation, flattens it
// onto white, fits it into the target box and encodes it as JPEG.
// Undecodable input is reported as a *ValidationError.
func Normalize(data []byte, t Target) (*Encoded, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, invalid(ReasonInvalidFormat, "cannot decode image: %v", err)
	}

	return encodeFitted(flatten(img), t)
}

// Thumbnail derives a thumbnail from an already normalized image.
func Thumbnail(img image.Image, t Target) (*Encoded, error) {
	return encodeFitted(img, t)
}

// flatten composites img over an opaque white canvas of the same size so
// transparent pixels encode predictably.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func encodeFitted(img image.Image, t Target) (*Encoded, error) {
	b := img.Bounds()
	if b.Dx() > t.Width || b.Dy() > t.Height {
		img = imaging.Fit(img, t.Width, t.Height, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(t.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	b = img.Bounds()
	return &Encoded{Image: img, Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}
