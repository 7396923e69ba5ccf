// Package imageproc normalizes submitted photos to the canonical raster.
// The server always re-derives the stored image from the uploaded bytes;
// client-side cropping is preview only.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/opencurtain/photodrop/internal/crop"
)

// Quality is the JPEG quality used for every stored image.
const Quality = 90

type Processor struct{}

func New() *Processor {
	return &Processor{}
}

// Normalize decodes raw image bytes (JPEG, PNG or WebP), applies a centered
// cover crop to exactly 480x640 and re-encodes as JPEG. Deterministic for a
// given input; inputs that do not decode as a raster image fail.
func (p *Processor) Normalize(raw []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	out, err := crop.Render(img, crop.Centered(bounds.Dx(), bounds.Dy()))
	if err != nil {
		return nil, fmt.Errorf("failed to crop %s image: %w", format, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
