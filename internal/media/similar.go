package media

import (
	"bytes"
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
)

// DefaultPerceptualDistance is the largest difference-hash distance, in
// bits, at which two images are compared pixel by pixel.
const DefaultPerceptualDistance = 6

const (
	// side of the square both images are reduced to by SameImage
	compareSize = 64
	// mean per-channel difference, out of 255, tolerated by SameImage
	maxMeanDelta = 3.0
)

// PerceptualHash returns the 64-bit difference hash of img. Re-encoding
// an image, even lossily, moves the hash by at most a few bits.
func PerceptualHash(img image.Image) (uint64, error) {
	h, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return 0, fmt.Errorf("failed to compute perceptual hash: %w", err)
	}
	return h.GetHash(), nil
}

// PerceptualHashOf decodes a stored image and returns its PerceptualHash.
func PerceptualHashOf(data []byte) (uint64, error) {
	img, err := Decode(data)
	if err != nil {
		return 0, err
	}
	return PerceptualHash(img)
}

// PerceptualDistance is the number of differing bits between two hashes.
func PerceptualDistance(a, b uint64) int {
	d, err := goimagehash.NewImageHash(a, goimagehash.DHash).Distance(goimagehash.NewImageHash(b, goimagehash.DHash))
	if err != nil {
		// only returned for hashes of different kinds
		return 64
	}
	return d
}

// Decode decodes an already normalized image.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// SameImage reports whether a and b show the same picture: equal
// dimensions give or take a pixel, and nearly equal colors once both are
// reduced to a small square. Hash collisions between different pictures
// with similar structure, such as two plain gradients of different hue,
// fail the color check.
func SameImage(a, b image.Image) bool {
	ab, bb := a.Bounds(), b.Bounds()
	if absDiff(ab.Dx(), bb.Dx()) > 1 || absDiff(ab.Dy(), bb.Dy()) > 1 {
		return false
	}

	ra := imaging.Resize(a, compareSize, compareSize, imaging.Box)
	rb := imaging.Resize(b, compareSize, compareSize, imaging.Box)

	var sum int
	for i := 0; i < len(ra.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			sum += absDiff(int(ra.Pix[i+c]), int(rb.Pix[i+c]))
		}
	}
	mean := float64(sum) / float64(compareSize*compareSize*3)
	return mean <= maxMeanDelta
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
