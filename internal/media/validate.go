package media

import (
	"bytes"
	"fmt"
	"image"

	// Image format decoders
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp" // WebP format support
)

// Reason is a machine-readable validation failure code.
type Reason string

// Validation failure codes.
const (
	ReasonInvalidFormat   Reason = "invalid_format"
	ReasonTooSmall        Reason = "too_small"
	ReasonSizeOutOfBounds Reason = "size_out_of_bounds"
)

// ValidationError describes why a candidate image was refused.
type ValidationError struct {
	Reason Reason
	Detail string
}

func (e *ValidationError) Error() string {
	return string(e.Reason) + ": " + e.Detail
}

func invalid(reason Reason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Limits bounds what a candidate image may look like.
type Limits struct {
	MinWidth    int
	MinHeight   int
	MinFileSize int64
	MaxFileSize int64
	// MaxPixels caps width*height before a full decode is attempted.
	MaxPixels int
}

// DefaultLimits returns the collection's standard bounds.
func DefaultLimits() Limits {
	return Limits{
		MinWidth:    600,
		MinHeight:   600,
		MinFileSize: 8 << 10,
		MaxFileSize: 10 << 20,
		MaxPixels:   50_000_000,
	}
}

// CheckFileSize rejects sizes outside [MinFileSize, MaxFileSize].
func (l Limits) CheckFileSize(size int64) error {
	if size < l.MinFileSize {
		return invalid(ReasonSizeOutOfBounds, "file is %d bytes, minimum is %d", size, l.MinFileSize)
	}
	if l.MaxFileSize > 0 && size > l.MaxFileSize {
		return invalid(ReasonSizeOutOfBounds, "file is %.1fMB, maximum is %.1fMB",
			float64(size)/(1<<20), float64(l.MaxFileSize)/(1<<20))
	}
	return nil
}

// Info is what validation learned about a candidate without decoding its
// pixels.
type Info struct {
	Format   Format
	Width    int
	Height   int
	FileSize int64
}

// Validate checks format, dimensions and file size, in that order. Only the
// image header is decoded. Failures are returned as *ValidationError.
func Validate(data []byte, limits Limits) (Info, error) {
	info := Info{Format: SniffFormat(data), FileSize: int64(len(data))}

	if !info.Format.Supported() {
		return info, invalid(ReasonInvalidFormat, "format %s is not supported", info.Format)
	}

	cfg, decoded, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return info, invalid(ReasonInvalidFormat, "cannot read %s header: %v", info.Format, err)
	}
	if Format(decoded) != info.Format {
		return info, invalid(ReasonInvalidFormat, "header says %s but decoder found %s", info.Format, decoded)
	}
	info.Width, info.Height = cfg.Width, cfg.Height

	if info.Width < limits.MinWidth || info.Height < limits.MinHeight {
		return info, invalid(ReasonTooSmall, "%dx%d is below the %dx%d minimum",
			info.Width, info.Height, limits.MinWidth, limits.MinHeight)
	}
	if limits.MaxPixels > 0 && info.Width*info.Height > limits.MaxPixels {
		return info, invalid(ReasonSizeOutOfBounds, "%dx%d exceeds the %d pixel budget",
			info.Width, info.Height, limits.MaxPixels)
	}

	if err := limits.CheckFileSize(info.FileSize); err != nil {
		return info, err
	}

	return info, nil
}
