// Package crop defines the geometry contract between the interactive crop
// surface and the canonical output raster. The same mapping is used by the
// client-side preview renderer and the server-side normalizer; the server
// output is authoritative.
package crop

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Canonical output dimensions (3:4 portrait).
const (
	Width  = 480
	Height = 640
)

// Rect is an axis-aligned crop region in source pixel coordinates.
type Rect struct {
	X, Y, W, H int
}

// Centered returns the maximal 3:4 region centered in a srcW x srcH image.
// This is the default crop: cover fit, center anchored.
func Centered(srcW, srcH int) Rect {
	if srcW <= 0 || srcH <= 0 {
		return Rect{}
	}
	// Wider than 3:4: full height, crop the sides. Otherwise full width,
	// crop top and bottom.
	if srcW*Height > srcH*Width {
		w := max(1, srcH*Width/Height)
		return Rect{X: (srcW - w) / 2, Y: 0, W: w, H: srcH}
	}
	h := max(1, srcW*Height/Width)
	return Rect{X: 0, Y: (srcH - h) / 2, W: srcW, H: h}
}

// Render maps the crop region onto a raster of exactly Width x Height.
// The interactive surface keeps the region locked to 3:4, so the mapping is
// a direct scale, never a letterbox. The region must lie within src.
func Render(src image.Image, r Rect) (image.Image, error) {
	if r.W <= 0 || r.H <= 0 {
		return nil, fmt.Errorf("empty crop region %+v", r)
	}
	bounds := src.Bounds()
	region := image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H).Add(bounds.Min)
	if !region.In(bounds) {
		return nil, fmt.Errorf("crop region %+v outside image bounds %v", r, bounds)
	}
	cropped := imaging.Crop(src, region)
	return imaging.Resize(cropped, Width, Height, imaging.Lanczos), nil
}
