package workflow

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/opencurtain/photodrop/internal/crop"
)

// previewQuality approximates the browser's canvas.toBlob(…, 0.9) encode.
const previewQuality = 90

// JPEGRenderer is the default Renderer: decode, apply the crop geometry
// contract, encode JPEG. The result is preview-grade; the server
// re-derives the stored image from the same contract.
type JPEGRenderer struct{}

func (JPEGRenderer) RenderCrop(source []byte, r crop.Rect) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to decode source image: %w", err)
	}
	out, err := crop.Render(img, r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: previewQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}
