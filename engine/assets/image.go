package assets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/rainfrog/engine/core"
)

// DecodeImage decodes any registered format (png, jpeg, bmp, tiff, webp)
// into tightly packed RGBA8.
func DecodeImage(data []byte) (*image.RGBA, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", core.ErrInvalidImage, err)
	}
	return ToRGBA(img), format, nil
}

// ToRGBA returns img as an *image.RGBA whose origin is (0, 0) and whose
// stride is exactly 4 × width. img is returned untouched when it already is.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// FlipVertical mirrors img in place so row 0 becomes the bottom row, which
// is the order texture uploads expect.
func FlipVertical(img *image.RGBA) {
	h := img.Bounds().Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
}

// LoadImage reads and decodes name from src. With flip set the rows are
// reordered bottom-up.
func LoadImage(src Source, name string, flip bool) (*image.RGBA, error) {
	data, err := src.ReadFile(name)
	if err != nil {
		return nil, err
	}
	img, format, err := DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if flip {
		FlipVertical(img)
	}
	core.LogDebug("decoded %s image %s (%dx%d)", format, name, img.Rect.Dx(), img.Rect.Dy())
	return img, nil
}
