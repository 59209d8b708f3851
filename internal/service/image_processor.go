package service

import (
	"fmt"

	"github.com/h2non/bimg"
)

// DefaultJPEGQuality is used when no quality is configured.
const DefaultJPEGQuality = 80

// ImageProcessor re-encodes generated images with bimg (libvips bindings).
// libvips must be installed on the host.
type ImageProcessor struct {
	quality int
}

// NewImageProcessor creates a processor. quality outside 1..100 falls back to 80.
func NewImageProcessor(quality int) *ImageProcessor {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &ImageProcessor{quality: quality}
}

// CompressJPEG converts any image bimg can read into a JPEG at the
// configured quality. Alpha is flattened onto white.
func (p *ImageProcessor) CompressJPEG(data []byte) ([]byte, error) {
	out, err := bimg.NewImage(data).Process(bimg.Options{
		Type:           bimg.JPEG,
		Quality:        p.quality,
		Background:     bimg.Color{R: 255, G: 255, B: 255},
		Interpretation: bimg.InterpretationSRGB,
		StripMetadata:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("compressing to jpeg: %w", err)
	}
	return out, nil
}
